package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"sales-leaderboard/internal/alerting"
	"sales-leaderboard/internal/leaderboard"
	"sales-leaderboard/internal/storage"
)

type fakeStore struct {
	profiles   []storage.Profile
	rows       []storage.RankingRow
	profileErr error
	rankingErr error
	rankedOn   time.Time
}

func (f *fakeStore) ListProfiles(context.Context) ([]storage.Profile, error) {
	return f.profiles, f.profileErr
}

func (f *fakeStore) GetProfile(_ context.Context, id string) (storage.Profile, error) {
	for _, p := range f.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return storage.Profile{}, storage.ErrNotFound
}

func (f *fakeStore) WeeklyRanking(_ context.Context, date time.Time) ([]storage.RankingRow, error) {
	f.rankedOn = date
	return f.rows, f.rankingErr
}

type capturePublisher struct {
	snapshots []leaderboard.Snapshot
}

func (c *capturePublisher) Publish(s leaderboard.Snapshot) error {
	c.snapshots = append(c.snapshots, s)
	return nil
}

func TestRefreshLoadsDirectoryAndPublishes(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	store := &fakeStore{
		profiles: []storage.Profile{{ID: "s1", FullName: "Ana Souza", Team: "Titans"}},
		rows:     []storage.RankingRow{{SellerID: "s1", SellerName: "Ana Souza", Team: "Titans", TotalLives: 4, TotalEntryValue: decimal.NewFromInt(4000)}},
	}
	dir := alerting.NewDirectory()
	pub := &capturePublisher{}
	r := NewRefresher(RefreshOptions{Board: leaderboard.Options{KnownTeams: []string{"Titans"}}, Location: loc}, store, store, dir, pub, zerolog.Nop())

	if _, ok := r.Latest(); ok {
		t.Fatalf("no snapshot expected before first refresh")
	}

	at := time.Date(2026, 1, 27, 17, 0, 0, 0, time.UTC)
	if err := r.Refresh(context.Background(), at); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if _, ok := dir.Lookup("s1"); !ok {
		t.Fatalf("directory should be populated")
	}
	if store.rankedOn.Location() != loc {
		t.Fatalf("ranking should be queried in the leaderboard timezone")
	}
	if len(pub.snapshots) != 1 || pub.snapshots[0].TotalProcesses != 4 {
		t.Fatalf("unexpected published snapshots %+v", pub.snapshots)
	}
	latest, ok := r.Latest()
	if !ok || latest.WeekOfMonth != 5 || !latest.Period.Start.Equal(time.Date(2026, 1, 24, 22, 0, 0, 0, loc)) {
		t.Fatalf("unexpected latest snapshot %+v", latest)
	}
}

func TestRefreshReportsFailures(t *testing.T) {
	store := &fakeStore{profileErr: errors.New("timeout"), rankingErr: errors.New("function missing")}
	dir := alerting.NewDirectory()
	dir.Put(storage.Profile{ID: "keep"})
	r := NewRefresher(RefreshOptions{}, store, store, dir, nil, zerolog.Nop())

	if err := r.Refresh(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := dir.Lookup("keep"); !ok {
		t.Fatalf("failed reload must keep the previous directory")
	}
	if _, ok := r.Latest(); ok {
		t.Fatalf("failed ranking must not produce a snapshot")
	}
}
