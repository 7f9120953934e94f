package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked on every interval and after every debounced trigger.
type TickFunc func(ctx context.Context, at time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	AlignToStart bool
	StartupDelay time.Duration
	Debounce     time.Duration
	RunAtStart   bool
}

// Scheduler drives periodic refresh jobs and coalesces bursts of on-demand triggers.
type Scheduler struct {
	opts    Options
	trigger chan string
	logger  zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{
		opts:    opts,
		trigger: make(chan string, 1),
		logger:  logger.With().Str("component", "scheduler").Logger(),
	}
}

// Trigger requests an extra run. Requests arriving within the debounce window collapse into one.
func (s *Scheduler) Trigger(reason string) {
	select {
	case s.trigger <- reason:
	default:
	}
}

// Run blocks, invoking tick at each interval and after triggers until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.opts.RunAtStart {
		s.execute(ctx, tick, time.Now().UTC(), "startup")
	}

	next := s.nextTick(time.Now().UTC())
	var debounce *time.Timer
	var debounceC <-chan time.Time
	pending := ""
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.nextTick(time.Now().UTC())
			delay = time.Until(next)
		}

		timer := time.NewTimer(delay)
		s.logger.Debug().Time("next_tick", next).Msg("waiting for next tick")

		select {
		case <-ctx.Done():
			timer.Stop()
			if debounce != nil {
				debounce.Stop()
			}
			return ctx.Err()

		case reason := <-s.trigger:
			timer.Stop()
			pending = reason
			if debounce == nil {
				debounce = time.NewTimer(s.opts.Debounce)
				debounceC = debounce.C
			}
			continue

		case <-debounceC:
			timer.Stop()
			debounce, debounceC = nil, nil
			s.execute(ctx, tick, time.Now().UTC(), pending)
			continue

		case <-timer.C:
		}

		s.execute(ctx, tick, s.bucketStart(next), "interval")
		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) execute(ctx context.Context, tick TickFunc, at time.Time, reason string) {
	s.logger.Debug().Time("at", at).Str("reason", reason).Msg("executing scheduled tick")
	if err := tick(ctx, at); err != nil {
		s.logger.Error().Err(err).Time("at", at).Str("reason", reason).Msg("tick execution failed")
	}
}

func (s *Scheduler) nextTick(now time.Time) time.Time {
	if !s.opts.AlignToStart {
		return now.Add(s.opts.Interval)
	}
	bucket := now.Truncate(s.opts.Interval)
	if !bucket.After(now) {
		bucket = bucket.Add(s.opts.Interval)
	}
	return bucket
}

func (s *Scheduler) bucketStart(t time.Time) time.Time {
	if !s.opts.AlignToStart {
		return t
	}
	return t.Truncate(s.opts.Interval)
}
