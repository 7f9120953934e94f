// Package audio selects and schedules the voice-over and bell cues of a sale presentation.
package audio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"sales-leaderboard/internal/config"
)

var cent = decimal.New(1, -2)

// ErrRuleTable reports a tier table that does not partition [0, +inf) on whole cents.
var ErrRuleTable = errors.New("invalid audio rule table")

// Rule maps an inclusive entry value range to a cue plan. A nil Max is unbounded.
type Rule struct {
	Min       decimal.Decimal
	Max       *decimal.Decimal
	VoicePath string
	PlayBell  bool
}

// Contains reports whether v falls inside the rule's range.
func (r Rule) Contains(v decimal.Decimal) bool {
	if v.LessThan(r.Min) {
		return false
	}
	return r.Max == nil || v.LessThanOrEqual(*r.Max)
}

// Plan is what a presentation plays.
type Plan struct {
	Tier      int
	VoicePath string
	PlayBell  bool
}

// Resolver matches entry values against an ordered, gap-free tier table.
type Resolver struct {
	rules []Rule
}

// NewResolver validates the table: tiers start at 0, each next tier begins one cent after the
// previous maximum, and only the last tier is unbounded.
func NewResolver(rules []Rule) (*Resolver, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrRuleTable)
	}
	if !rules[0].Min.IsZero() {
		return nil, fmt.Errorf("%w: first tier must start at 0, got %s", ErrRuleTable, rules[0].Min)
	}
	for i, rule := range rules {
		if !rule.Min.Equal(rule.Min.Round(2)) {
			return nil, fmt.Errorf("%w: tier %d minimum %s is not a whole cent", ErrRuleTable, i, rule.Min)
		}
		last := i == len(rules)-1
		if rule.Max == nil {
			if !last {
				return nil, fmt.Errorf("%w: only the last tier may be unbounded (tier %d)", ErrRuleTable, i)
			}
			continue
		}
		if last {
			return nil, fmt.Errorf("%w: last tier must be unbounded", ErrRuleTable)
		}
		if rule.Max.LessThan(rule.Min) {
			return nil, fmt.Errorf("%w: tier %d max %s below min %s", ErrRuleTable, i, rule.Max, rule.Min)
		}
		if next := rules[i+1].Min; !next.Equal(rule.Max.Add(cent)) {
			return nil, fmt.Errorf("%w: gap or overlap between %s and %s", ErrRuleTable, rule.Max, next)
		}
	}

	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Resolver{rules: copied}, nil
}

// Resolve returns the plan for an entry value. Negative values clamp to zero and fractions of a
// cent round to the nearest cent. ok is false only when no tier matches.
func (r *Resolver) Resolve(v decimal.Decimal) (Plan, bool) {
	if v.IsNegative() {
		v = decimal.Zero
	}
	v = v.Round(2)
	for i, rule := range r.rules {
		if rule.Contains(v) {
			return Plan{Tier: i, VoicePath: rule.VoicePath, PlayBell: rule.PlayBell}, true
		}
	}
	return Plan{}, false
}

// Rules returns a copy of the table.
func (r *Resolver) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// RulesFromConfig converts configured tiers into rules.
func RulesFromConfig(tiers []config.AudioRuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(tiers))
	for i, tier := range tiers {
		lower, err := decimal.NewFromString(strings.TrimSpace(tier.Min))
		if err != nil {
			return nil, fmt.Errorf("audio.rules[%d].min: %w", i, err)
		}
		rule := Rule{Min: lower, VoicePath: strings.TrimSpace(tier.Voice), PlayBell: tier.Bell}
		if upper := strings.TrimSpace(tier.Max); upper != "" {
			parsed, err := decimal.NewFromString(upper)
			if err != nil {
				return nil, fmt.Errorf("audio.rules[%d].max: %w", i, err)
			}
			rule.Max = &parsed
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
