package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile is a seller row from the profiles table.
type Profile struct {
	ID        string
	FullName  string
	AvatarURL string
	Team      string
}

// RankingRow is one seller line of the weekly ranking function.
type RankingRow struct {
	SellerID        string
	SellerName      string
	AvatarURL       string
	Team            string
	TotalLives      int64
	TotalEntryValue decimal.Decimal
}

// PresentationRecord audits an alert shown on the TV screens.
type PresentationRecord struct {
	ID            int64
	SaleProcessID string
	EventID       string
	SellerID      string
	SellerName    string
	ProcessType   string
	EntryValue    decimal.Decimal
	Tier          *int
	Outcome       string
	StartedAt     time.Time
	CreatedAt     time.Time
}
