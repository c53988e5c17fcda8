// Package notify bridges Postgres NOTIFY to in-process subscribers so the
// UI can refresh on committed writes. It is best-effort: a missed event only
// delays a refresh, it never affects correctness.
package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Channel is the single Postgres notification channel used by all writers.
const Channel = "tiffinbox_events"

// Event kinds.
const (
	KindPlan  = "plan"
	KindOrder = "order"
)

// Event describes a committed change to a plan or order record.
type Event struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Publish emits an event on the shared channel. It accepts a pool or an open
// transaction; inside a transaction the notification is delivered on commit.
func Publish(ctx context.Context, db execer, kind, id string) error {
	payload, err := json.Marshal(Event{Kind: kind, ID: id})
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `SELECT pg_notify($1, $2)`, Channel, string(payload))
	return err
}

// Listener holds a dedicated connection on LISTEN and fans notifications out
// to subscribers.
type Listener struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewListener(pool *pgxpool.Pool, logger zerolog.Logger) *Listener {
	return &Listener{
		pool:   pool,
		logger: logger.With().Str("component", "notify").Logger(),
		subs:   make(map[chan Event]struct{}),
	}
}

// Run blocks listening for notifications until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return err
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error().Err(err).Msg("wait for notification")
			return err
		}

		var ev Event
		if err := json.Unmarshal([]byte(notification.Payload), &ev); err != nil {
			l.logger.Warn().Str("payload", notification.Payload).Msg("malformed notification payload")
			continue
		}
		l.broadcast(ev)
	}
}

func (l *Listener) broadcast(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; drop rather than block the listener.
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called to release it.
func (l *Listener) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		delete(l.subs, ch)
		l.mu.Unlock()
	}
	return ch, cancel
}
