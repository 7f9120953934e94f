package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"sales-leaderboard/internal/audio"
	"sales-leaderboard/internal/clock"
	"sales-leaderboard/internal/metrics"
	"sales-leaderboard/internal/storage"
)

// State is the sequencer phase.
type State int

const (
	StateIdle State = iota
	StateResolving
	StatePresenting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StatePresenting:
		return "presenting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SellerLookup resolves seller identity for an alert.
type SellerLookup interface {
	Resolve(ctx context.Context, alert Alert) (Seller, error)
}

// PlanResolver maps entry values to audio plans.
type PlanResolver interface {
	Resolve(v decimal.Decimal) (audio.Plan, bool)
}

// AudioPlayer plays and cancels presentation audio.
type AudioPlayer interface {
	Play(plan audio.Plan)
	Stop()
}

// Presenter shows and hides alerts on the screens.
type Presenter interface {
	Present(view ViewModel)
	Clear(view ViewModel)
}

// PresentationRecorder audits presentations.
type PresentationRecorder interface {
	InsertPresentation(ctx context.Context, rec storage.PresentationRecord) (storage.PresentationRecord, error)
}

// Options tune presentation timing.
type Options struct {
	DisplayDuration time.Duration
	ViewCompletion  bool
	SideEffectLimit time.Duration
}

// Presentation describes the alert currently on screen.
type Presentation struct {
	Alert     Alert
	Seller    Seller
	Plan      audio.Plan
	HasPlan   bool
	View      ViewModel
	StartedAt time.Time
}

// Snapshot is a point-in-time view of the sequencer.
type Snapshot struct {
	State      string     `json:"state"`
	Visible    bool       `json:"visible"`
	Active     *ViewModel `json:"active,omitempty"`
	QueueDepth int        `json:"queueDepth"`
}

// Sequencer presents queued alerts strictly one at a time.
type Sequencer struct {
	opts      Options
	queue     *Queue
	sellers   SellerLookup
	plans     PlanResolver
	player    AudioPlayer
	presenter Presenter
	notifier  Notifier
	recorder  PresentationRecorder
	clock     clock.Clock
	logger    zerolog.Logger

	mu         sync.Mutex
	state      State
	busy       bool
	active     *Presentation
	timer      clock.Timer
	generation uint64
	epoch      uint64

	wake        chan struct{}
	sideEffects sync.WaitGroup
}

// NewSequencer wires the presentation pipeline.
func NewSequencer(opts Options, queue *Queue, sellers SellerLookup, plans PlanResolver, player AudioPlayer, presenter Presenter, clk clock.Clock, logger zerolog.Logger) *Sequencer {
	if opts.DisplayDuration <= 0 {
		opts.DisplayDuration = 15 * time.Second
	}
	if opts.SideEffectLimit <= 0 {
		opts.SideEffectLimit = 10 * time.Second
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Sequencer{
		opts:      opts,
		queue:     queue,
		sellers:   sellers,
		plans:     plans,
		player:    player,
		presenter: presenter,
		clock:     clk,
		logger:    logger.With().Str("component", "sequencer").Logger(),
		wake:      make(chan struct{}, 1),
	}
}

// SetNotifier announces each presentation through n.
func (s *Sequencer) SetNotifier(n Notifier) { s.notifier = n }

// SetRecorder audits each presentation through r.
func (s *Sequencer) SetRecorder(r PresentationRecorder) { s.recorder = r }

// Enqueue adds an alert and wakes the run loop.
func (s *Sequencer) Enqueue(alert Alert) {
	s.queue.Enqueue(alert)
	s.signal()
}

// Run advances the sequencer whenever it is woken, until ctx is done.
func (s *Sequencer) Run(ctx context.Context) error {
	defer s.Teardown()
	s.signal()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
			s.Advance(ctx)
		}
	}
}

// Advance starts presenting the queue head if nothing is in progress. It reports whether a
// presentation started.
func (s *Sequencer) Advance(ctx context.Context) bool {
	s.mu.Lock()
	if s.busy || s.active != nil {
		s.mu.Unlock()
		return false
	}
	head, ok := s.queue.Peek()
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.busy = true
	s.state = StateResolving
	epoch := s.epoch
	s.mu.Unlock()

	seller, err := s.resolveSeller(ctx, head)
	if err != nil {
		s.drop(epoch, head, err)
		return false
	}

	plan, hasPlan := s.plans.Resolve(head.EntryValue)
	var tier *int
	if hasPlan {
		t := plan.Tier
		tier = &t
	} else {
		metrics.ConfigurationGaps.Inc()
		s.logger.Error().Str("entry_value", head.EntryValue.String()).
			Str("sale_process_id", head.SaleProcessID).Msg("no audio tier covers entry value, presenting silently")
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.generation++
	gen := s.generation
	pres := &Presentation{
		Alert:     head,
		Seller:    seller,
		Plan:      plan,
		HasPlan:   hasPlan,
		View:      newViewModel(head, seller, tier, s.opts.DisplayDuration, gen),
		StartedAt: s.clock.Now(),
	}
	s.active = pres
	s.state = StatePresenting
	s.mu.Unlock()

	s.presenter.Present(pres.View)
	if hasPlan {
		s.player.Play(plan)
	}

	s.mu.Lock()
	if s.generation == gen && s.active == pres {
		s.timer = s.clock.AfterFunc(s.opts.DisplayDuration, func() { s.finish(gen, "timer") })
	}
	s.mu.Unlock()

	metrics.Presentations.WithLabelValues("started").Inc()
	s.logger.Info().Str("sale_process_id", head.SaleProcessID).
		Str("seller", seller.DisplayName).Str("seller_source", seller.Source).
		Str("entry_value", head.EntryValue.String()).Bool("audio", hasPlan).
		Int("queued", s.queue.Len()-1).Msg("presenting sale alert")

	s.afterStart(*pres)
	return true
}

// Complete ends presentation id early when view completion is enabled. Completions for any
// other presentation, including one that already finished, are ignored.
func (s *Sequencer) Complete(id uint64) bool {
	if !s.opts.ViewCompletion {
		s.logger.Debug().Msg("view completion disabled, ignoring")
		return false
	}
	if !s.finish(id, "view") {
		s.logger.Debug().Uint64("presentation_id", id).Msg("stale completion ignored")
		return false
	}
	return true
}

// Teardown cancels the display timer and all audio, and clears the screen.
func (s *Sequencer) Teardown() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	pres := s.active
	s.active = nil
	s.busy = false
	s.state = StateIdle
	s.epoch++
	s.generation++
	s.mu.Unlock()

	s.player.Stop()
	if pres != nil {
		s.presenter.Clear(pres.View.cleared())
	}
}

// Wait blocks until background announcements and audits have finished.
func (s *Sequencer) Wait() {
	s.sideEffects.Wait()
}

// Snapshot reports the current state.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state.String(), QueueDepth: s.queue.Len()}
	if s.active != nil {
		view := s.active.View
		snap.Visible = true
		snap.Active = &view
	}
	return snap
}

// Active returns the presentation on screen, if any.
func (s *Sequencer) Active() (Presentation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Presentation{}, false
	}
	return *s.active, true
}

func (s *Sequencer) finish(gen uint64, reason string) bool {
	s.mu.Lock()
	if s.active == nil || s.generation != gen {
		s.mu.Unlock()
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	pres := s.active
	s.active = nil
	s.queue.Dequeue()
	s.busy = false
	s.state = StateIdle
	s.mu.Unlock()

	s.player.Stop()
	s.presenter.Clear(pres.View.cleared())
	metrics.Presentations.WithLabelValues("finished").Inc()
	s.logger.Debug().Str("sale_process_id", pres.Alert.SaleProcessID).Str("reason", reason).Msg("presentation finished")
	s.signal()
	return true
}

func (s *Sequencer) drop(epoch uint64, head Alert, cause error) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.queue.Dequeue()
	s.busy = false
	s.state = StateIdle
	s.mu.Unlock()

	metrics.Presentations.WithLabelValues("dropped").Inc()
	s.logger.Error().Err(cause).Str("sale_process_id", head.SaleProcessID).Msg("dropping alert after unrecoverable resolution error")
	s.signal()
}

func (s *Sequencer) resolveSeller(ctx context.Context, alert Alert) (seller Seller, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("seller resolution panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return Seller{}, err
	}
	return s.sellers.Resolve(ctx, alert)
}

func (s *Sequencer) afterStart(pres Presentation) {
	if s.notifier == nil && s.recorder == nil {
		return
	}
	s.sideEffects.Add(1)
	go func() {
		defer s.sideEffects.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.SideEffectLimit)
		defer cancel()

		if s.recorder != nil {
			rec := storage.PresentationRecord{
				SaleProcessID: pres.Alert.SaleProcessID,
				EventID:       pres.Alert.EventID,
				SellerID:      pres.Alert.SellerID,
				SellerName:    pres.Seller.DisplayName,
				ProcessType:   pres.Alert.ProcessTypeLabel,
				EntryValue:    pres.Alert.EntryValue,
				Tier:          pres.View.Tier,
				Outcome:       "presented",
				StartedAt:     pres.StartedAt,
			}
			if _, err := s.recorder.InsertPresentation(ctx, rec); err != nil {
				s.logger.Error().Err(err).Str("sale_process_id", rec.SaleProcessID).Msg("failed to persist presentation record")
			}
		}
		if s.notifier != nil {
			note := Notification{
				SellerName:  pres.Seller.DisplayName,
				ProcessType: pres.Alert.ProcessTypeLabel,
				EntryValue:  pres.Alert.EntryValue,
				At:          pres.StartedAt,
			}
			if err := s.notifier.Notify(ctx, note); err != nil {
				s.logger.Error().Err(err).Str("sale_process_id", pres.Alert.SaleProcessID).Msg("failed to dispatch announcement")
			}
		}
	}()
}

func (s *Sequencer) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
