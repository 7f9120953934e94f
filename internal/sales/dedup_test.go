package sales

import (
	"testing"

	"github.com/shopspring/decimal"
)

func event(id, process string) RawSaleEvent {
	return RawSaleEvent{Op: OpInsert, EventID: id, SaleProcessID: process, SellerID: "s1"}
}

func TestAcceptSameEventTwice(t *testing.T) {
	d := NewDeduplicator()
	ev := event("e1", "p1")
	v := decimal.NewFromInt(500)

	if !d.Accept(ev, v) {
		t.Fatal("first delivery should be accepted")
	}
	if d.Accept(ev, v) {
		t.Fatal("redelivery of the same event should be rejected")
	}
}

func TestSameProcessSameValueRejected(t *testing.T) {
	d := NewDeduplicator()
	if !d.Accept(event("e1", "p1"), decimal.RequireFromString("1000")) {
		t.Fatal("first event should be accepted")
	}
	got := d.Decide(event("e2", "p1"), decimal.RequireFromString("1000.00"))
	if got != UnchangedValue {
		t.Fatalf("verdict = %s, want unchanged_value", got)
	}
}

func TestSameProcessCorrectionAccepted(t *testing.T) {
	d := NewDeduplicator()
	if !d.Accept(event("e1", "p1"), decimal.NewFromInt(1000)) {
		t.Fatal("first event should be accepted")
	}
	if !d.Accept(event("e2", "p1"), decimal.NewFromInt(1200)) {
		t.Fatal("correction with a different value should be accepted")
	}
	if d.Accept(event("e3", "p1"), decimal.NewFromInt(1200)) {
		t.Fatal("repeat of the corrected value should be rejected")
	}
	if !d.Accept(event("e4", "p1"), decimal.NewFromInt(1000)) {
		t.Fatal("returning to an earlier value is still a change from the last one")
	}
}

func TestRedeliveredInsertWithNewValueRejected(t *testing.T) {
	d := NewDeduplicator()
	d.Accept(event("e1", "p1"), decimal.NewFromInt(10))
	if got := d.Decide(event("e1", "p1"), decimal.NewFromInt(20)); got != DuplicateEvent {
		t.Fatalf("verdict = %s, want duplicate_event", got)
	}
}

func TestUpdateOfSameRowIsJudgedByValue(t *testing.T) {
	d := NewDeduplicator()
	if !d.Accept(event("row-1", "p1"), decimal.NewFromInt(1000)) {
		t.Fatal("insert should be accepted")
	}

	update := RawSaleEvent{Op: OpUpdate, EventID: "row-1", SaleProcessID: "p1", SellerID: "s1"}
	if got := d.Decide(update, decimal.NewFromInt(1500)); got != Accepted {
		t.Fatalf("correction verdict = %s, want accepted", got)
	}
	if got := d.Decide(update, decimal.NewFromInt(1500)); got != UnchangedValue {
		t.Fatalf("repeated update verdict = %s, want unchanged_value", got)
	}
	if got := d.Decide(event("row-1", "p1"), decimal.NewFromInt(2000)); got != DuplicateEvent {
		t.Fatalf("redelivered insert verdict = %s, want duplicate_event", got)
	}
}

func TestRejectionDoesNotRecord(t *testing.T) {
	d := NewDeduplicator()
	d.Accept(event("e1", "p1"), decimal.NewFromInt(10))
	d.Accept(event("e2", "p1"), decimal.NewFromInt(10))

	events, processes := d.Stats()
	if events != 1 || processes != 1 {
		t.Fatalf("stats = %d/%d, want 1/1", events, processes)
	}
	if !d.Accept(event("e2", "p1"), decimal.NewFromInt(11)) {
		t.Fatal("a rejected id must not be remembered")
	}
}
