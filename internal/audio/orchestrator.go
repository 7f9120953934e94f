package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sales-leaderboard/internal/clock"
	"sales-leaderboard/internal/metrics"
)

// ErrPlayback reports that a cue could not be started.
var ErrPlayback = errors.New("audio playback failed")

// Player starts and stops cues on the presentation surface.
type Player interface {
	PlayVoice(ctx context.Context, clip string) error
	PlayBell(ctx context.Context, clip string, loop bool) error
	StopAll()
}

// Prober reports the playable length of a clip.
type Prober interface {
	Duration(ctx context.Context, clip string) (time.Duration, error)
}

// Options tune bell timing.
type Options struct {
	BellPath          string
	MetadataTimeout   time.Duration
	BellFallbackDelay time.Duration
	BellLead          time.Duration
	BellLoop          bool
}

// Orchestrator plays the voice-over and schedules the bell for one presentation at a time.
type Orchestrator struct {
	opts   Options
	player Player
	prober Prober
	clock  clock.Clock
	logger zerolog.Logger

	mu      sync.Mutex
	session *session
	wg      sync.WaitGroup
}

type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	bell   clock.Timer
}

// NewOrchestrator wires the player and prober. A nil prober leaves every duration unknown.
func NewOrchestrator(opts Options, player Player, prober Prober, clk clock.Clock, logger zerolog.Logger) *Orchestrator {
	if opts.MetadataTimeout <= 0 {
		opts.MetadataTimeout = 2 * time.Second
	}
	if opts.BellFallbackDelay <= 0 {
		opts.BellFallbackDelay = 3 * time.Second
	}
	if opts.BellLead < 0 {
		opts.BellLead = 0
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Orchestrator{
		opts:   opts,
		player: player,
		prober: prober,
		clock:  clk,
		logger: logger.With().Str("component", "audio").Logger(),
	}
}

// BellDelay returns when the bell should ring after the voice starts: lead time before the voice
// ends when the duration is known and longer than the lead, otherwise the fallback delay.
func BellDelay(voice time.Duration, known bool, lead, fallback time.Duration) time.Duration {
	if known && voice > lead {
		return voice - lead
	}
	return fallback
}

// Play starts a new session for plan, stopping any previous one. It never blocks on playback.
func (o *Orchestrator) Play(plan Plan) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{ctx: ctx, cancel: cancel}

	o.mu.Lock()
	o.stopLocked()
	o.session = s
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(s, plan)
	}()
}

// Stop cancels the active session with its pending bell and silences the player.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopLocked()
	o.mu.Unlock()
	o.player.StopAll()
}

// Wait blocks until every started session has finished scheduling its cues.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) stopLocked() {
	if o.session == nil {
		return
	}
	o.session.cancel()
	if o.session.bell != nil {
		o.session.bell.Stop()
	}
	o.session = nil
}

func (o *Orchestrator) run(s *session, plan Plan) {
	if plan.VoicePath == "" {
		if plan.PlayBell {
			o.scheduleBell(s, o.opts.BellFallbackDelay)
		}
		return
	}

	duration, known := o.probe(s.ctx, plan.VoicePath)
	if s.ctx.Err() != nil {
		return
	}

	if err := o.player.PlayVoice(s.ctx, plan.VoicePath); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		metrics.PlaybackFailures.WithLabelValues("voice").Inc()
		o.logger.Warn().Err(err).Str("clip", plan.VoicePath).Int("tier", plan.Tier).Msg("voice playback failed")
		if plan.PlayBell {
			o.scheduleBell(s, o.opts.BellFallbackDelay)
		}
		return
	}

	if plan.PlayBell {
		o.scheduleBell(s, BellDelay(duration, known, o.opts.BellLead, o.opts.BellFallbackDelay))
	}
}

// probe waits at most MetadataTimeout for the clip duration, even when the prober ignores ctx.
func (o *Orchestrator) probe(parent context.Context, clip string) (time.Duration, bool) {
	if o.prober == nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(parent, o.opts.MetadataTimeout)
	defer cancel()

	type result struct {
		d   time.Duration
		err error
	}
	ch := make(chan result, 1)
	go func() {
		d, err := o.prober.Duration(ctx, clip)
		ch <- result{d: d, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			o.logger.Debug().Err(r.err).Str("clip", clip).Msg("clip duration unavailable")
			return 0, false
		}
		return r.d, r.d > 0
	case <-ctx.Done():
		o.logger.Debug().Str("clip", clip).Dur("timeout", o.opts.MetadataTimeout).Msg("clip metadata wait expired")
		return 0, false
	}
}

func (o *Orchestrator) scheduleBell(s *session, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != s || s.ctx.Err() != nil {
		return
	}
	s.bell = o.clock.AfterFunc(delay, func() { o.ringBell(s) })
	o.logger.Debug().Dur("delay", delay).Msg("bell scheduled")
}

func (o *Orchestrator) ringBell(s *session) {
	o.mu.Lock()
	current := o.session == s && s.ctx.Err() == nil
	o.mu.Unlock()
	if !current {
		return
	}
	if err := o.player.PlayBell(s.ctx, o.opts.BellPath, o.opts.BellLoop); err != nil {
		metrics.PlaybackFailures.WithLabelValues("bell").Inc()
		o.logger.Warn().Err(err).Str("clip", o.opts.BellPath).Msg("bell playback failed")
	}
}
