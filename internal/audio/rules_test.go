package audio

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"sales-leaderboard/internal/config"
)

func defaultRules(t *testing.T) []Rule {
	t.Helper()
	rules, err := RulesFromConfig([]config.AudioRuleConfig{
		{Min: "0", Max: "999.99", Voice: "v.mp3"},
		{Min: "1000", Max: "1999.99", Voice: "v1k.mp3", Bell: true},
		{Min: "2000", Max: "2499.99", Voice: "v2k.mp3", Bell: true},
		{Min: "2500", Voice: "v5k.mp3", Bell: true},
	})
	if err != nil {
		t.Fatalf("RulesFromConfig: %v", err)
	}
	return rules
}

func TestResolveBoundaries(t *testing.T) {
	resolver, err := NewResolver(defaultRules(t))
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	cases := []struct {
		value string
		tier  int
		voice string
		bell  bool
	}{
		{"0", 0, "v.mp3", false},
		{"999.99", 0, "v.mp3", false},
		{"999.994", 0, "v.mp3", false},
		{"999.996", 1, "v1k.mp3", true},
		{"1000", 1, "v1k.mp3", true},
		{"1999.99", 1, "v1k.mp3", true},
		{"2000", 2, "v2k.mp3", true},
		{"2500", 3, "v5k.mp3", true},
		{"1000000", 3, "v5k.mp3", true},
		{"-10", 0, "v.mp3", false},
	}
	for _, tc := range cases {
		plan, ok := resolver.Resolve(decimal.RequireFromString(tc.value))
		if !ok {
			t.Fatalf("Resolve(%s) found no tier", tc.value)
		}
		if plan.Tier != tc.tier || plan.VoicePath != tc.voice || plan.PlayBell != tc.bell {
			t.Fatalf("Resolve(%s) = %+v, want tier %d voice %s bell %v", tc.value, plan, tc.tier, tc.voice, tc.bell)
		}
	}
}

func TestNewResolverRejectsBrokenTables(t *testing.T) {
	upTo := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	cases := map[string][]Rule{
		"empty":          nil,
		"nonzero start":  {{Min: decimal.NewFromInt(1)}},
		"gap":            {{Min: decimal.Zero, Max: upTo("999.99")}, {Min: decimal.NewFromInt(1001)}},
		"overlap":        {{Min: decimal.Zero, Max: upTo("1000")}, {Min: decimal.NewFromInt(1000)}},
		"bounded last":   {{Min: decimal.Zero, Max: upTo("10")}},
		"unbounded head": {{Min: decimal.Zero}, {Min: decimal.NewFromInt(10)}},
		"sub-cent min":   {{Min: decimal.Zero, Max: upTo("0.004")}, {Min: decimal.RequireFromString("0.014")}},
	}
	for name, rules := range cases {
		if _, err := NewResolver(rules); !errors.Is(err, ErrRuleTable) {
			t.Fatalf("%s: expected ErrRuleTable, got %v", name, err)
		}
	}
}

func TestRulesFromConfigRejectsBadNumbers(t *testing.T) {
	if _, err := RulesFromConfig([]config.AudioRuleConfig{{Min: "abc"}}); err == nil {
		t.Fatalf("expected error for non-numeric min")
	}
	if _, err := RulesFromConfig([]config.AudioRuleConfig{{Min: "0", Max: "x"}}); err == nil {
		t.Fatalf("expected error for non-numeric max")
	}
}
