// Package alerting sequences accepted sales into one-at-a-time TV presentations.
package alerting

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sales-leaderboard/internal/sales"
)

// Alert is an accepted sale waiting for, or undergoing, presentation.
type Alert struct {
	EventID           string
	SaleProcessID     string
	SellerID          string
	SellerDisplayName string
	SellerAvatarURL   string
	ProcessTypeLabel  string
	EntryValue        decimal.Decimal
	ReceivedAt        time.Time
}

// FromEvent normalises an accepted event. The value must already be parsed.
func FromEvent(ev sales.RawSaleEvent, value decimal.Decimal, receivedAt time.Time) Alert {
	return Alert{
		EventID:           strings.TrimSpace(ev.EventID),
		SaleProcessID:     strings.TrimSpace(ev.SaleProcessID),
		SellerID:          strings.TrimSpace(ev.SellerID),
		SellerDisplayName: sales.FormatName(ev.SellerName),
		SellerAvatarURL:   strings.TrimSpace(ev.SellerAvatarURL),
		ProcessTypeLabel:  strings.TrimSpace(ev.ProcessType),
		EntryValue:        value,
		ReceivedAt:        receivedAt,
	}
}

// ViewModel is what the TV screens render for the active alert.
type ViewModel struct {
	Visible           bool    `json:"visible"`
	PresentationID    uint64  `json:"presentationId,omitempty"`
	SaleProcessID     string  `json:"saleProcessId,omitempty"`
	SellerDisplayName string  `json:"sellerDisplayName,omitempty"`
	SellerAvatarURL   string  `json:"sellerAvatarUrl,omitempty"`
	ProcessTypeLabel  string  `json:"processTypeLabel,omitempty"`
	EntryValue        float64 `json:"entryValue"`
	Tier              *int    `json:"tier,omitempty"`
	DisplayMillis     int64   `json:"displayMs,omitempty"`
}

func newViewModel(alert Alert, seller Seller, tier *int, display time.Duration, id uint64) ViewModel {
	return ViewModel{
		Visible:           true,
		PresentationID:    id,
		SaleProcessID:     alert.SaleProcessID,
		SellerDisplayName: seller.DisplayName,
		SellerAvatarURL:   seller.AvatarURL,
		ProcessTypeLabel:  alert.ProcessTypeLabel,
		EntryValue:        alert.EntryValue.InexactFloat64(),
		Tier:              tier,
		DisplayMillis:     display.Milliseconds(),
	}
}

func (v ViewModel) cleared() ViewModel {
	return ViewModel{Visible: false, PresentationID: v.PresentationID, SaleProcessID: v.SaleProcessID}
}
