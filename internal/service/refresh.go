package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sales-leaderboard/internal/alerting"
	"sales-leaderboard/internal/leaderboard"
	"sales-leaderboard/internal/metrics"
	"sales-leaderboard/internal/storage"
)

// BoardPublisher delivers a fresh leaderboard.
type BoardPublisher interface {
	Publish(snapshot leaderboard.Snapshot) error
}

// RefreshOptions configure ranking reloads.
type RefreshOptions struct {
	Board        leaderboard.Options
	Location     *time.Location
	QueryTimeout time.Duration
}

// Refresher reloads seller profiles and the weekly ranking.
type Refresher struct {
	opts      RefreshOptions
	profiles  storage.ProfileStore
	ranking   storage.RankingStore
	directory *alerting.Directory
	publisher BoardPublisher
	logger    zerolog.Logger

	mu     sync.RWMutex
	latest *leaderboard.Snapshot
}

// NewRefresher wires the stores. publisher may be nil.
func NewRefresher(opts RefreshOptions, profiles storage.ProfileStore, ranking storage.RankingStore, directory *alerting.Directory, publisher BoardPublisher, logger zerolog.Logger) *Refresher {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Refresher{
		opts:      opts,
		profiles:  profiles,
		ranking:   ranking,
		directory: directory,
		publisher: publisher,
		logger:    logger.With().Str("component", "refresh").Logger(),
	}
}

// Refresh reloads everything for the ranking week containing at. It matches scheduler.TickFunc.
func (r *Refresher) Refresh(ctx context.Context, at time.Time) error {
	started := time.Now()
	defer func() { metrics.RefreshDuration.Observe(time.Since(started).Seconds()) }()

	if r.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.QueryTimeout)
		defer cancel()
	}

	var errs []error
	if r.profiles != nil && r.directory != nil {
		profiles, err := r.profiles.ListProfiles(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("reload profiles: %w", err))
		} else {
			r.directory.Replace(profiles)
		}
	}

	if r.ranking != nil {
		rows, err := r.ranking.WeeklyRanking(ctx, at.In(r.opts.Location))
		if err != nil {
			errs = append(errs, fmt.Errorf("reload ranking: %w", err))
		} else {
			snapshot := leaderboard.Build(rows, r.opts.Board)
			snapshot.Period = leaderboard.RankingPeriod(at, r.opts.Location)
			snapshot.WeekOfMonth = leaderboard.WeekOfMonth(at, r.opts.Location)
			snapshot.GeneratedAt = at.UTC()

			r.mu.Lock()
			r.latest = &snapshot
			r.mu.Unlock()

			if r.publisher != nil {
				if err := r.publisher.Publish(snapshot); err != nil {
					errs = append(errs, fmt.Errorf("publish leaderboard: %w", err))
				}
			}
			r.logger.Debug().Int("sellers", len(snapshot.Sellers)).Int("teams", len(snapshot.Teams)).
				Int64("total_processes", snapshot.TotalProcesses).Msg("leaderboard refreshed")
		}
	}

	if err := errors.Join(errs...); err != nil {
		metrics.RefreshFailures.Inc()
		return err
	}
	return nil
}

// Latest returns the most recent leaderboard.
func (r *Refresher) Latest() (leaderboard.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return leaderboard.Snapshot{}, false
	}
	return *r.latest, true
}
