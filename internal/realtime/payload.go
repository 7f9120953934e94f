package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"

	"sales-leaderboard/internal/sales"
)

type changePayload struct {
	Type      string          `json:"type"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record"`
}

// Decode parses a NOTIFY payload into a sale event. DELETE events carry the old record.
func Decode(payload []byte) (sales.RawSaleEvent, error) {
	var change changePayload
	if err := json.Unmarshal(payload, &change); err != nil {
		return sales.RawSaleEvent{}, fmt.Errorf("decode change payload: %w", err)
	}

	op, err := sales.ParseOp(change.Type)
	if err != nil {
		return sales.RawSaleEvent{}, err
	}

	record := change.Record
	if op == sales.OpDelete || isNull(record) {
		record = change.OldRecord
	}

	var ev sales.RawSaleEvent
	if !isNull(record) {
		if err := json.Unmarshal(record, &ev); err != nil {
			return sales.RawSaleEvent{}, fmt.Errorf("decode %s record: %w", op, err)
		}
	}
	ev.Op = op
	return ev, nil
}

// Encode builds a NOTIFY payload for ev.
func Encode(ev sales.RawSaleEvent) ([]byte, error) {
	record, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	change := changePayload{Type: string(ev.Op), Record: record}
	if ev.Op == sales.OpDelete {
		change.Record = nil
		change.OldRecord = record
	}
	return json.Marshal(change)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
