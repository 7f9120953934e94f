package alerting

import (
	"sync"

	"github.com/rs/zerolog"

	"sales-leaderboard/internal/metrics"
)

// Queue is an unbounded FIFO of alerts. The head stays in place while it is being presented.
type Queue struct {
	mu        sync.Mutex
	items     []Alert
	warnDepth int
	logger    zerolog.Logger
}

// NewQueue builds a queue that warns once depth exceeds warnDepth.
func NewQueue(warnDepth int, logger zerolog.Logger) *Queue {
	return &Queue{
		warnDepth: warnDepth,
		logger:    logger.With().Str("component", "alert_queue").Logger(),
	}
}

// Enqueue appends an alert and returns the new depth. It never blocks.
func (q *Queue) Enqueue(alert Alert) int {
	q.mu.Lock()
	q.items = append(q.items, alert)
	depth := len(q.items)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	if q.warnDepth > 0 && depth > q.warnDepth {
		q.logger.Warn().Int("depth", depth).Int("warn_depth", q.warnDepth).
			Str("sale_process_id", alert.SaleProcessID).Msg("alert backlog growing")
	}
	return depth
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (Alert, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Alert{}, false
	}
	return q.items[0], true
}

// Dequeue removes and returns the head.
func (q *Queue) Dequeue() (Alert, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return Alert{}, false
	}
	head := q.items[0]
	q.items[0] = Alert{}
	q.items = q.items[1:]
	depth := len(q.items)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	return head, true
}

// Len reports the queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
