// Package bot runs the conversation loop: classify each inbound update,
// dispatch it to a handler, and recover locally from per-message
// failures so the loop itself never dies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-report-bot/internal/adapter/telegram"
	"github.com/couchcryptid/weather-report-bot/internal/adapter/weatherstack"
	"github.com/couchcryptid/weather-report-bot/internal/domain"
	"github.com/couchcryptid/weather-report-bot/internal/observability"
)

// Transport delivers inbound updates and carries replies back out.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, path string) error
}

// WeatherFetcher resolves a query into a weather record.
type WeatherFetcher interface {
	Current(ctx context.Context, query string) (domain.WeatherRecord, error)
}

// Renderer draws a report card for a record and writes it to a path.
type Renderer interface {
	RenderFile(rec domain.WeatherRecord, path string) error
}

// RegisterStore persists users and served reports. A nil store disables
// tracking entirely.
type RegisterStore interface {
	UserExists(id int64) (bool, error)
	AddUser(u domain.User) error
	AddRegister(rec domain.WeatherRecord, userID int64, isRealLocation bool, serverTime int64) error
}

type handler func(ctx context.Context, u telegram.Update)

// Loop is the single-threaded conversation loop. Updates are handled
// strictly one at a time in delivery order; the only shared state is
// the update offset and the scratch file counter, both owned by Run.
type Loop struct {
	transport Transport
	weather   WeatherFetcher
	renderer  Renderer
	store     RegisterStore
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	scratchDir string
	offset     int64
	counter    int
	ready      atomic.Bool

	handlers map[Intent]handler
}

// New creates a Loop. Pass a nil store to disable request tracking.
func New(transport Transport, weather WeatherFetcher, renderer Renderer, store RegisterStore,
	scratchDir string, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Loop {
	l := &Loop{
		transport:  transport,
		weather:    weather,
		renderer:   renderer,
		store:      store,
		logger:     logger,
		metrics:    metrics,
		clock:      clock,
		scratchDir: scratchDir,
	}
	l.handlers = map[Intent]handler{
		IntentHelp:        l.handleHelp,
		IntentStart:       l.handleStart,
		IntentPlace:       l.handlePlace,
		IntentLocation:    l.handleLocation,
		IntentUnsupported: l.handleUnsupported,
	}
	return l
}

// CheckReadiness returns nil once the loop has completed at least one
// poll against the transport.
func (l *Loop) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("loop has not polled the transport yet")
	}
	return nil
}

// Exponential backoff for transport failures: start at 200ms, double
// each retry, cap at 5s.
const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Run polls for updates until the context is cancelled. Updates that
// accumulated while the bot was down are discarded before serving
// starts. Transient transport failures retry with exponential backoff
// without advancing the offset; a Forbidden error skips past the stuck
// update. Scratch files are removed on exit.
func (l *Loop) Run(ctx context.Context) error {
	if err := os.MkdirAll(l.scratchDir, 0o755); err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer l.cleanupScratch()

	l.logger.Info("listening for new messages", "scratch_dir", l.scratchDir)
	l.metrics.LoopRunning.Set(1)
	defer l.metrics.LoopRunning.Set(0)

	if !l.drainBacklog(ctx) {
		return nil
	}

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("loop stopping", "reason", ctx.Err())
			return nil
		default:
		}

		updates, err := l.transport.GetUpdates(ctx, l.offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, telegram.ErrForbidden) {
				// The user removed or blocked the bot; skip past the
				// stuck update.
				l.logger.Warn("skipping forbidden update", "offset", l.offset)
				l.offset++
				continue
			}
			l.logger.Warn("poll failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff

		for _, u := range updates {
			if ctx.Err() != nil {
				return nil
			}
			l.handleUpdate(ctx, u)
			l.offset = u.UpdateID + 1
		}
	}
}

// drainBacklog performs the first poll and jumps the offset past any
// updates that piled up while the bot was offline, so stale requests
// never get answered. Returns false when cancelled before the first
// successful poll.
func (l *Loop) drainBacklog(ctx context.Context) bool {
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return false
		}
		updates, err := l.transport.GetUpdates(ctx, l.offset)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			l.logger.Warn("startup poll failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return false
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		if n := len(updates); n > 0 {
			l.offset = updates[n-1].UpdateID + 1
			l.logger.Info("discarded stale updates", "count", n, "offset", l.offset)
		}
		l.ready.Store(true)
		return true
	}
}

func (l *Loop) handleUpdate(ctx context.Context, u telegram.Update) {
	intent := Classify(u)
	l.metrics.UpdatesReceived.WithLabelValues(intent.String()).Inc()
	l.logger.Info("new message", "intent", intent.String(), "from", username(u))

	l.handlers[intent](ctx, u)
}

func (l *Loop) handleHelp(ctx context.Context, u telegram.Update) {
	l.sendText(ctx, u, helpText)
}

func (l *Loop) handleStart(ctx context.Context, u telegram.Update) {
	l.sendText(ctx, u, startText)
}

func (l *Loop) handleUnsupported(_ context.Context, u telegram.Update) {
	// Unsupported messages advance the offset without a reply.
	l.logger.Debug("ignoring unsupported message", "update_id", u.UpdateID)
}

func (l *Loop) handlePlace(ctx context.Context, u telegram.Update) {
	query, ok := placeArgument(u.Message.Text)
	if !ok {
		l.sendText(ctx, u, placeNotFoundText)
		return
	}
	if !weatherstack.ValidateQuery(query) {
		l.sendText(ctx, u, placeNotFoundText)
		return
	}
	l.serveWeather(ctx, u, query, true)
}

func (l *Loop) handleLocation(ctx context.Context, u telegram.Update) {
	loc := u.Message.Location
	query := fmt.Sprintf("%g,%g", loc.Latitude, loc.Longitude)
	l.serveWeather(ctx, u, query, false)
}

// serveWeather is the weather-intent pipeline: fetch, persist, render,
// reply. Every failure is local to this update; the loop keeps going.
func (l *Loop) serveWeather(ctx context.Context, u telegram.Update, query string, isRealLocation bool) {
	rec, err := l.weather.Current(ctx, query)
	if err != nil {
		var perr *weatherstack.ProviderError
		if errors.As(err, &perr) && perr.NotFound() {
			l.sendText(ctx, u, placeNotFoundText)
			return
		}
		l.logger.Error("weather fetch failed", "query", query, "error", err)
		l.sendText(ctx, u, apologyText)
		return
	}

	if l.store != nil {
		l.trackRequest(u, rec, isRealLocation)
	}

	path := filepath.Join(l.scratchDir, strconv.Itoa(l.counter)+".png")
	l.counter++

	if err := l.renderer.RenderFile(rec, path); err != nil {
		l.logger.Error("render failed", "error", err)
		l.sendText(ctx, u, apologyText)
		return
	}

	if err := l.transport.SendPhoto(ctx, u.Message.Chat.ID, path); err != nil {
		l.logger.Error("photo reply failed", "error", err)
	} else {
		l.metrics.RepliesSent.WithLabelValues("photo").Inc()
		l.logger.Info("replied with report", "to", username(u))
	}

	if err := os.Remove(path); err != nil {
		l.logger.Warn("scratch file not removed", "path", path, "error", err)
	}
}

// trackRequest appends the served report to the register log, inserting
// the user first if unseen. Store failures are logged, not fatal: the
// reply still goes out.
func (l *Loop) trackRequest(u telegram.Update, rec domain.WeatherRecord, isRealLocation bool) {
	user := u.Message.From.ToDomain()

	exists, err := l.store.UserExists(user.ID)
	if err != nil {
		l.logger.Error("user lookup failed", "user_id", user.ID, "error", err)
		return
	}
	if !exists {
		if err := l.store.AddUser(user); err != nil {
			l.logger.Error("user insert failed", "user_id", user.ID, "error", err)
			return
		}
	}

	if err := l.store.AddRegister(rec, user.ID, isRealLocation, l.clock.Now().Unix()); err != nil {
		l.logger.Error("register insert failed", "user_id", user.ID, "error", err)
		return
	}
	l.metrics.RegistersRecorded.Inc()
}

func (l *Loop) sendText(ctx context.Context, u telegram.Update, text string) {
	if err := l.transport.SendMessage(ctx, u.Message.Chat.ID, text); err != nil {
		l.logger.Error("text reply failed", "error", err)
		return
	}
	l.metrics.RepliesSent.WithLabelValues("text").Inc()
}

func (l *Loop) cleanupScratch() {
	if err := os.RemoveAll(l.scratchDir); err != nil {
		l.logger.Warn("scratch directory not removed", "dir", l.scratchDir, "error", err)
	}
}

func username(u telegram.Update) string {
	if u.Message != nil && u.Message.From != nil {
		return u.Message.From.Username
	}
	return ""
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
