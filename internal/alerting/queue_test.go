package alerting

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(1, zerolog.Nop())
	if _, ok := q.Peek(); ok {
		t.Fatalf("empty queue should have no head")
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatalf("empty queue should not dequeue")
	}

	for _, id := range []string{"a", "b", "c"} {
		q.Enqueue(Alert{SaleProcessID: id})
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}

	head, _ := q.Peek()
	if head.SaleProcessID != "a" || q.Len() != 3 {
		t.Fatalf("Peek should return a without removing it")
	}
	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Dequeue()
		if !ok || got.SaleProcessID != want {
			t.Fatalf("Dequeue = %q, want %q", got.SaleProcessID, want)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be empty")
	}
}
