package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"sales-leaderboard/internal/alerting"
	"sales-leaderboard/internal/realtime"
	"sales-leaderboard/internal/sales"
	"sales-leaderboard/internal/scheduler"
	"sales-leaderboard/internal/websocket"
)

// Runner is a long-lived component such as the HTTP server.
type Runner interface {
	Run(ctx context.Context) error
}

// Components are the pieces a Service runs. Listener, Scheduler, Refresher and Server are optional.
type Components struct {
	Hub       *websocket.Hub
	Sequencer *alerting.Sequencer
	Pipeline  *Pipeline
	Refresher *Refresher
	Scheduler *scheduler.Scheduler
	Listener  *realtime.Listener
	Server    Runner
}

// Service runs the realtime feed, the alert sequencer, the refresh loop and the screen hub together.
type Service struct {
	c      Components
	logger zerolog.Logger
}

// New wires screen completions into the sequencer.
func New(c Components, logger zerolog.Logger) *Service {
	s := &Service{c: c, logger: logger.With().Str("component", "service").Logger()}
	if c.Hub != nil && c.Sequencer != nil {
		c.Hub.OnInbound(func(clientID string, msg websocket.Inbound) {
			if msg.Type != websocket.MessageTypeAlertComplete {
				return
			}
			var done websocket.AlertCompletion
			if err := json.Unmarshal(msg.Data, &done); err != nil || done.PresentationID == 0 {
				s.logger.Debug().Str("client", clientID).Msg("alertComplete without presentation id, ignoring")
				return
			}
			if c.Sequencer.Complete(done.PresentationID) {
				s.logger.Debug().Str("client", clientID).Uint64("presentation_id", done.PresentationID).
					Msg("presentation completed by screen")
			}
		})
	}
	return s
}

// Run blocks until ctx is cancelled or a component fails.
func (s *Service) Run(ctx context.Context) error {
	if s.c.Hub == nil || s.c.Sequencer == nil || s.c.Pipeline == nil {
		return fmt.Errorf("service requires hub, sequencer and pipeline")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.c.Hub.Run(ctx) })
	g.Go(func() error { return s.c.Sequencer.Run(ctx) })

	if s.c.Scheduler != nil && s.c.Refresher != nil {
		g.Go(func() error { return s.c.Scheduler.Run(ctx, s.c.Refresher.Refresh) })
	}
	if s.c.Listener != nil {
		g.Go(func() error {
			return s.c.Listener.Run(ctx, func(ctx context.Context, ev sales.RawSaleEvent) {
				s.c.Pipeline.Handle(ctx, ev)
			})
		})
	} else {
		s.logger.Warn().Msg("no realtime listener configured; sales arrive only through the HTTP simulate endpoint")
	}
	if s.c.Server != nil {
		g.Go(func() error { return s.c.Server.Run(ctx) })
	}

	err := g.Wait()
	s.c.Sequencer.Wait()
	return err
}
