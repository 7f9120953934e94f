package sales

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Verdict explains a de-duplication decision.
type Verdict int

const (
	Accepted Verdict = iota
	DuplicateEvent
	UnchangedValue
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case DuplicateEvent:
		return "duplicate_event"
	case UnchangedValue:
		return "unchanged_value"
	default:
		return "unknown"
	}
}

// Deduplicator remembers accepted events for the lifetime of the process. An INSERT id is
// accepted at most once; a sale process is accepted again only when its value changed.
// UPDATE notifications reuse the row id, so only the value check applies to them.
type Deduplicator struct {
	mu                   sync.Mutex
	seenEventIDs         map[string]struct{}
	lastValueByProcessID map[string]decimal.Decimal
}

// NewDeduplicator returns an empty de-duplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		seenEventIDs:         make(map[string]struct{}),
		lastValueByProcessID: make(map[string]decimal.Decimal),
	}
}

// Accept reports whether the event is a genuinely new notification and records it if so.
func (d *Deduplicator) Accept(event RawSaleEvent, value decimal.Decimal) bool {
	return d.Decide(event, value) == Accepted
}

// Decide is Accept with the rejection reason.
func (d *Deduplicator) Decide(event RawSaleEvent, value decimal.Decimal) Verdict {
	d.mu.Lock()
	defer d.mu.Unlock()

	trackID := event.EventID != "" && event.Op != OpUpdate
	if trackID {
		if _, seen := d.seenEventIDs[event.EventID]; seen {
			return DuplicateEvent
		}
	}
	if last, ok := d.lastValueByProcessID[event.SaleProcessID]; ok && last.Equal(value) {
		return UnchangedValue
	}

	if trackID {
		d.seenEventIDs[event.EventID] = struct{}{}
	}
	d.lastValueByProcessID[event.SaleProcessID] = value
	return Accepted
}

// Stats returns the number of remembered event ids and sale processes.
func (d *Deduplicator) Stats() (events, processes int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seenEventIDs), len(d.lastValueByProcessID)
}
