// Package realtime consumes sale change notifications from PostgreSQL.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"sales-leaderboard/internal/sales"
)

// Acquirer hands out dedicated pool connections.
type Acquirer interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

// Handler receives decoded events in arrival order.
type Handler func(ctx context.Context, ev sales.RawSaleEvent)

// Options tune the subscription.
type Options struct {
	Channel      string
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	// OnConnected runs after every successful LISTEN, including reconnects.
	OnConnected func(ctx context.Context)
}

// Listener holds a LISTEN connection and reconnects with exponential backoff.
type Listener struct {
	pool   Acquirer
	opts   Options
	logger zerolog.Logger
}

// NewListener constructs a Listener.
func NewListener(pool Acquirer, opts Options, logger zerolog.Logger) *Listener {
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = time.Second
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = opts.ReconnectMin
	}
	return &Listener{pool: pool, opts: opts, logger: logger.With().Str("component", "realtime").Str("channel", opts.Channel).Logger()}
}

// Run blocks until ctx is done, delivering events to handle.
func (l *Listener) Run(ctx context.Context, handle Handler) error {
	if l.pool == nil {
		return fmt.Errorf("realtime listener has no database pool")
	}
	backoff := l.opts.ReconnectMin
	for {
		err := l.listen(ctx, handle, func() { backoff = l.opts.ReconnectMin })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("subscription lost, reconnecting")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = NextBackoff(backoff, l.opts.ReconnectMax)
	}
}

func (l *Listener) listen(ctx context.Context, handle Handler, connected func()) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.opts.Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	connected()
	l.logger.Info().Msg("subscribed to sale events")
	if l.opts.OnConnected != nil {
		l.opts.OnConnected(ctx)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			// the connection is unusable after a wait failure
			conn.Conn().Close(context.Background())
			return fmt.Errorf("wait for notification: %w", err)
		}

		ev, err := Decode([]byte(n.Payload))
		if err != nil {
			l.logger.Warn().Err(err).Msg("ignoring undecodable notification")
			continue
		}
		handle(ctx, ev)
	}
}

// NextBackoff doubles the delay up to ceiling.
func NextBackoff(current, ceiling time.Duration) time.Duration {
	next := current * 2
	if next > ceiling {
		return ceiling
	}
	return next
}
