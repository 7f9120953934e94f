package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("storage: not found")
)

const (
	listProfilesSQL = `SELECT
        id::text,
        COALESCE(full_name, ''),
        COALESCE(avatar_url, ''),
        COALESCE(team, '')
    FROM profiles
    ORDER BY full_name;`

	getProfileSQL = `SELECT
        id::text,
        COALESCE(full_name, ''),
        COALESCE(avatar_url, ''),
        COALESCE(team, '')
    FROM profiles
    WHERE id::text = $1;`

	weeklyRankingSQL = `SELECT
        seller_id::text,
        COALESCE(seller_name, ''),
        COALESCE(avatar_url, ''),
        COALESCE(team, ''),
        COALESCE(total_lives, 0)::bigint,
        COALESCE(total_entry_value, 0)::text
    FROM get_weekly_ranking_for_date($1::date);`

	insertPresentationSQL = `INSERT INTO alert_presentations (
        sale_process_id,
        event_id,
        seller_id,
        seller_name,
        process_type,
        entry_value,
        tier,
        outcome,
        started_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6::numeric,$7,$8,$9
    )
    RETURNING id, created_at;`

	listRecentPresentationsSQL = `SELECT
        id,
        sale_process_id,
        event_id,
        seller_id,
        seller_name,
        process_type,
        entry_value::text,
        tier,
        outcome,
        started_at,
        created_at
    FROM alert_presentations
    ORDER BY started_at DESC
    LIMIT $1;`

	notifySQL = `SELECT pg_notify($1, $2);`
)

// ProfileStore reads seller profiles.
type ProfileStore interface {
	ListProfiles(ctx context.Context) ([]Profile, error)
	GetProfile(ctx context.Context, id string) (Profile, error)
}

// RankingStore reads the weekly ranking.
type RankingStore interface {
	WeeklyRanking(ctx context.Context, date time.Time) ([]RankingRow, error)
}

// PresentationStore audits presented alerts.
type PresentationStore interface {
	InsertPresentation(ctx context.Context, rec PresentationRecord) (PresentationRecord, error)
	ListRecentPresentations(ctx context.Context, limit int) ([]PresentationRecord, error)
}

// Publisher sends NOTIFY payloads.
type Publisher interface {
	Notify(ctx context.Context, channel, payload string) error
}

// Store aggregates access to profiles, rankings and presentation audits.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Pool exposes the underlying pool for LISTEN connections.
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// ListProfiles loads every seller profile.
func (s *Store) ListProfiles(ctx context.Context) ([]Profile, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listProfilesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list profiles: %w", queryErr)
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.Team); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return profiles, nil
}

// GetProfile loads a single seller profile.
func (s *Store) GetProfile(ctx context.Context, id string) (Profile, error) {
	pool, err := s.getPool()
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	scanErr := pool.QueryRow(ctx, getProfileSQL, id).Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.Team)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if scanErr != nil {
		return Profile{}, fmt.Errorf("get profile: %w", scanErr)
	}
	return p, nil
}

// WeeklyRanking runs the ranking function for the week containing date.
func (s *Store) WeeklyRanking(ctx context.Context, date time.Time) ([]RankingRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, weeklyRankingSQL, date.Format("2006-01-02"))
	if queryErr != nil {
		return nil, fmt.Errorf("weekly ranking: %w", queryErr)
	}
	defer rows.Close()

	ranking := make([]RankingRow, 0)
	for rows.Next() {
		var row RankingRow
		var valueStr string
		if err := rows.Scan(&row.SellerID, &row.SellerName, &row.AvatarURL, &row.Team, &row.TotalLives, &valueStr); err != nil {
			return nil, fmt.Errorf("scan ranking row: %w", err)
		}
		value, convErr := decimal.NewFromString(valueStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse total entry value: %w", convErr)
		}
		row.TotalEntryValue = value
		ranking = append(ranking, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ranking, nil
}

// InsertPresentation records a presented alert.
func (s *Store) InsertPresentation(ctx context.Context, rec PresentationRecord) (PresentationRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return PresentationRecord{}, err
	}

	var tier interface{}
	if rec.Tier != nil {
		tier = *rec.Tier
	}

	row := pool.QueryRow(ctx, insertPresentationSQL,
		rec.SaleProcessID,
		rec.EventID,
		rec.SellerID,
		rec.SellerName,
		rec.ProcessType,
		rec.EntryValue.String(),
		tier,
		rec.Outcome,
		rec.StartedAt,
	)
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return PresentationRecord{}, fmt.Errorf("insert presentation: %w", scanErr)
	}
	return rec, nil
}

// ListRecentPresentations lists the most recent presentations.
func (s *Store) ListRecentPresentations(ctx context.Context, limit int) ([]PresentationRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentPresentationsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent presentations: %w", queryErr)
	}
	defer rows.Close()

	records := make([]PresentationRecord, 0, limit)
	for rows.Next() {
		var rec PresentationRecord
		var valueStr string
		var tier *int32
		if err := rows.Scan(
			&rec.ID,
			&rec.SaleProcessID,
			&rec.EventID,
			&rec.SellerID,
			&rec.SellerName,
			&rec.ProcessType,
			&valueStr,
			&tier,
			&rec.Outcome,
			&rec.StartedAt,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		value, convErr := decimal.NewFromString(valueStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse entry value: %w", convErr)
		}
		rec.EntryValue = value
		if tier != nil {
			t := int(*tier)
			rec.Tier = &t
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// Notify publishes a payload on a NOTIFY channel.
func (s *Store) Notify(ctx context.Context, channel, payload string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, notifySQL, channel, payload); execErr != nil {
		return fmt.Errorf("notify %s: %w", channel, execErr)
	}
	return nil
}

var (
	_ ProfileStore      = (*Store)(nil)
	_ RankingStore      = (*Store)(nil)
	_ PresentationStore = (*Store)(nil)
	_ Publisher         = (*Store)(nil)
)
