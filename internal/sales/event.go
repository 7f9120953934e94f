// Package sales models sale events as delivered by the change stream and the rules that
// decide which of them deserve a celebration.
package sales

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Op is the change kind reported by the stream.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// ParseOp normalises the stream's operation tag.
func ParseOp(s string) (Op, error) {
	switch op := Op(strings.ToUpper(strings.TrimSpace(s))); op {
	case OpInsert, OpUpdate, OpDelete:
		return op, nil
	default:
		return "", fmt.Errorf("unknown change operation %q", s)
	}
}

// Alertable reports whether the operation can produce a sale alert.
func (o Op) Alertable() bool {
	return o == OpInsert || o == OpUpdate
}

// RawSaleEvent is a sale notification exactly as received. Empty strings mean the field was absent.
type RawSaleEvent struct {
	Op              Op       `json:"-"`
	EventID         string   `json:"id"`
	SaleProcessID   string   `json:"sales_process_id"`
	SellerID        string   `json:"seller_id"`
	SellerName      string   `json:"seller_name"`
	SellerAvatarURL string   `json:"seller_avatar_url,omitempty"`
	ProcessType     string   `json:"process_type"`
	EntryValue      RawValue `json:"entry_value"`
}

// RawValue holds an entry value as delivered: either a JSON number or a locale formatted string.
type RawValue struct {
	raw     string
	numeric bool
	set     bool
}

// NumberValue wraps a numeric entry value.
func NumberValue(f float64) RawValue {
	return RawValue{raw: strconv.FormatFloat(f, 'f', -1, 64), numeric: true, set: true}
}

// TextValue wraps a formatted entry value such as "R$ 1.000,00".
func TextValue(s string) RawValue {
	return RawValue{raw: s, set: true}
}

// IsNumeric reports whether the value arrived as a JSON number.
func (v RawValue) IsNumeric() bool { return v.numeric }

// IsZero reports whether no value was delivered at all.
func (v RawValue) IsZero() bool { return !v.set }

func (v RawValue) String() string { return v.raw }

// UnmarshalJSON accepts numbers, strings and null.
func (v *RawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = RawValue{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode entry value: %w", err)
		}
		*v = TextValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode entry value: %w", err)
	}
	*v = RawValue{raw: n.String(), numeric: true, set: true}
	return nil
}

// MarshalJSON writes the value back in the shape it arrived in.
func (v RawValue) MarshalJSON() ([]byte, error) {
	switch {
	case !v.set:
		return []byte("null"), nil
	case v.numeric:
		return []byte(v.raw), nil
	default:
		return json.Marshal(v.raw)
	}
}
