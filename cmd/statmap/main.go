// Command statmap summarizes an existing register database offline and
// renders the request map and statistics charts, without running the bot.
//
// Usage:
//
//	go run ./cmd/statmap -db weatherbot.db -since 1700000000 -out stat
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/couchcryptid/weather-report-bot/internal/stats"
	"github.com/couchcryptid/weather-report-bot/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "weatherbot.db", "path to the register database")
	since := flag.Int64("since", 0, "only count registers with server_time at or after this epoch")
	out := flag.String("out", "stat", "output directory for the map and charts")
	flag.Parse()

	db, err := store.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	summary, err := stats.Report(db, *since)
	if err != nil {
		return err
	}

	fmt.Printf("Users: %d\n", summary.Users)
	fmt.Printf("Registers: %d\n", summary.Registers)
	if summary.Registers > 0 {
		fmt.Printf("Temperature: min=%d avg=%.1f max=%d\n",
			summary.MinTemperature, summary.AvgTemperature, summary.MaxTemperature)
	}

	registers, err := db.RegistersSince(*since)
	if err != nil {
		return fmt.Errorf("load registers: %w", err)
	}

	mapPath := filepath.Join(*out, "map.html")
	if err := stats.WriteMap(registers, mapPath); err != nil {
		return err
	}
	log.Printf("wrote request map: %s", mapPath)

	chartsPath := filepath.Join(*out, "charts.html")
	if err := stats.WriteCharts(registers, chartsPath); err != nil {
		return err
	}
	log.Printf("wrote statistics charts: %s", chartsPath)
	return nil
}
