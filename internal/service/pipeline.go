package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sales-leaderboard/internal/alerting"
	"sales-leaderboard/internal/metrics"
	"sales-leaderboard/internal/sales"
)

// Outcome describes what happened to one change event.
type Outcome string

const (
	OutcomeQueued         Outcome = "queued"
	OutcomeIgnoredOp      Outcome = "ignored_op"
	OutcomeParseError     Outcome = "parse_error"
	OutcomeDuplicateEvent Outcome = "duplicate_event"
	OutcomeUnchangedValue Outcome = "unchanged_value"
)

// AlertSink accepts normalised alerts.
type AlertSink interface {
	Enqueue(alert alerting.Alert)
}

// RefreshTrigger requests a leaderboard reload.
type RefreshTrigger interface {
	Trigger(reason string)
}

// Pipeline filters raw change events into queued alerts.
type Pipeline struct {
	dedup   *sales.Deduplicator
	sink    AlertSink
	refresh RefreshTrigger
	now     func() time.Time
	logger  zerolog.Logger
}

// NewPipeline wires the filter chain. refresh may be nil.
func NewPipeline(dedup *sales.Deduplicator, sink AlertSink, refresh RefreshTrigger, logger zerolog.Logger) *Pipeline {
	if dedup == nil {
		dedup = sales.NewDeduplicator()
	}
	return &Pipeline{
		dedup:   dedup,
		sink:    sink,
		refresh: refresh,
		now:     time.Now,
		logger:  logger.With().Str("component", "pipeline").Logger(),
	}
}

// Handle processes one event. Every event schedules a refresh, alertable or not.
func (p *Pipeline) Handle(_ context.Context, ev sales.RawSaleEvent) Outcome {
	metrics.EventsReceived.WithLabelValues(string(ev.Op)).Inc()
	if p.refresh != nil {
		p.refresh.Trigger("sale_event")
	}

	log := p.logger.With().Str("op", string(ev.Op)).Str("event_id", ev.EventID).
		Str("sale_process_id", ev.SaleProcessID).Logger()

	if !ev.Op.Alertable() {
		log.Debug().Msg("ignoring non-alertable change")
		return p.reject(OutcomeIgnoredOp)
	}

	value, err := sales.ParseValue(ev.EntryValue)
	if err != nil {
		log.Warn().Err(err).Msg("dropping event with unparseable entry value")
		return p.reject(OutcomeParseError)
	}

	switch verdict := p.dedup.Decide(ev, value); verdict {
	case sales.Accepted:
	case sales.DuplicateEvent:
		log.Debug().Msg("duplicate event id")
		return p.reject(OutcomeDuplicateEvent)
	default:
		log.Debug().Str("entry_value", value.String()).Msg("entry value unchanged for process")
		return p.reject(OutcomeUnchangedValue)
	}

	alert := alerting.FromEvent(ev, value, p.now())
	p.sink.Enqueue(alert)
	log.Info().Str("entry_value", value.String()).Str("seller_id", alert.SellerID).Msg("sale alert queued")
	return OutcomeQueued
}

func (p *Pipeline) reject(outcome Outcome) Outcome {
	metrics.EventsRejected.WithLabelValues(string(outcome)).Inc()
	return outcome
}
