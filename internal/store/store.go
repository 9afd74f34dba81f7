// Package store persists served weather reports to sqlite: a slowly
// growing identity table plus an append-only register log. The core
// never updates or deletes rows.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/weather-report-bot/internal/domain"
)

// ErrDuplicateUser means AddUser was called for an id that already
// exists. Callers are expected to check UserExists first.
var ErrDuplicateUser = errors.New("user already exists")

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY,
	is_bot BOOLEAN NOT NULL,
	first_name VARCHAR(255),
	last_name VARCHAR(255),
	username VARCHAR(255) NOT NULL,
	language_code VARCHAR(8) NOT NULL
);

CREATE TABLE IF NOT EXISTS registers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	localtime INTEGER,
	lat FLOAT,
	lon FLOAT,
	country VARCHAR(255) NOT NULL,
	region VARCHAR(255) NOT NULL,
	temperature INTEGER NOT NULL,
	weather_code INTEGER NOT NULL,
	weather_descriptions VARCHAR(255) NOT NULL,
	wind_speed INTEGER NOT NULL,
	wind_degree INTEGER NOT NULL,
	wind_dir VARCHAR(3) NOT NULL,
	pressure INTEGER NOT NULL,
	precip INTEGER NOT NULL,
	humidity INTEGER NOT NULL,
	cloudcover INTEGER NOT NULL,
	feelslike INTEGER NOT NULL,
	uv_index INTEGER NOT NULL,
	visibility INTEGER NOT NULL,
	is_day BOOLEAN NOT NULL,
	is_real_location BOOLEAN NOT NULL,
	server_time INTEGER,
	FOREIGN KEY(user_id) REFERENCES users(id)
)`

// descriptionSeparator joins the ordered description list into one
// column and splits it back on read.
const descriptionSeparator = ", "

// Store wraps the sqlite connection. Its lifetime is owned by the
// process: opened once at startup, closed once at shutdown.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and
// applies the schema. Foreign keys are enforced for the register→user
// reference.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UserExists reports whether a user with the given id is already known.
func (s *Store) UserExists(id int64) (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("query user: %w", err)
	}
	return n > 0, nil
}

// AddUser inserts a new user. Inserting an existing id returns
// ErrDuplicateUser.
func (s *Store) AddUser(u domain.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, is_bot, first_name, last_name, username, language_code)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.IsBot, u.FirstName, u.LastName, u.Username, u.LanguageCode,
	)
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("%w: id %d", ErrDuplicateUser, u.ID)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// AddRegister appends one served report for a known user. No dedup:
// every call adds a row.
func (s *Store) AddRegister(rec domain.WeatherRecord, userID int64, isRealLocation bool, serverTime int64) error {
	_, err := s.db.Exec(
		`INSERT INTO registers (user_id, localtime, lat, lon, country, region,
			temperature, weather_code, weather_descriptions,
			wind_speed, wind_degree, wind_dir, pressure, precip, humidity,
			cloudcover, feelslike, uv_index, visibility, is_day,
			is_real_location, server_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, rec.LocalTime, rec.Lat, rec.Lon, rec.Country, rec.Region,
		rec.Temperature, rec.WeatherCode, strings.Join(rec.WeatherDescriptions, descriptionSeparator),
		rec.WindSpeed, rec.WindDegree, rec.WindDir, rec.Pressure, rec.Precip, rec.Humidity,
		rec.CloudCover, rec.FeelsLike, rec.UVIndex, rec.Visibility, rec.IsDay,
		isRealLocation, serverTime,
	)
	if err != nil {
		return fmt.Errorf("insert register: %w", err)
	}
	return nil
}

// RegistersSince returns all registers with server_time >= epoch
// (boundary inclusive), joined with the requesting user's username.
func (s *Store) RegistersSince(epoch int64) ([]domain.Register, error) {
	rows, err := s.db.Query(
		`SELECT r.id, r.user_id, r.localtime, r.lat, r.lon, r.country, r.region,
			r.temperature, r.weather_code, r.weather_descriptions,
			r.wind_speed, r.wind_degree, r.wind_dir, r.pressure, r.precip, r.humidity,
			r.cloudcover, r.feelslike, r.uv_index, r.visibility, r.is_day,
			r.is_real_location, r.server_time, u.username
		 FROM registers r INNER JOIN users u ON r.user_id = u.id
		 WHERE r.server_time >= ?
		 ORDER BY r.id`,
		epoch,
	)
	if err != nil {
		return nil, fmt.Errorf("query registers: %w", err)
	}
	defer rows.Close()

	var registers []domain.Register
	for rows.Next() {
		var reg domain.Register
		var descriptions string
		if err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.Weather.LocalTime, &reg.Weather.Lat, &reg.Weather.Lon,
			&reg.Weather.Country, &reg.Weather.Region,
			&reg.Weather.Temperature, &reg.Weather.WeatherCode, &descriptions,
			&reg.Weather.WindSpeed, &reg.Weather.WindDegree, &reg.Weather.WindDir,
			&reg.Weather.Pressure, &reg.Weather.Precip, &reg.Weather.Humidity,
			&reg.Weather.CloudCover, &reg.Weather.FeelsLike, &reg.Weather.UVIndex,
			&reg.Weather.Visibility, &reg.Weather.IsDay,
			&reg.IsRealLocation, &reg.ServerTime, &reg.Username,
		); err != nil {
			return nil, fmt.Errorf("scan register: %w", err)
		}
		if descriptions != "" {
			reg.Weather.WeatherDescriptions = strings.Split(descriptions, descriptionSeparator)
		}
		registers = append(registers, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registers: %w", err)
	}
	return registers, nil
}

// UserCount returns the number of known users.
func (s *Store) UserCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func isConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint failed")
}
