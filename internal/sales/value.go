package sales

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrParse marks entry values that cannot be turned into an amount.
var ErrParse = errors.New("unparseable entry value")

// ParseError carries the offending input.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse entry value %q: %s", e.Raw, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

var (
	nonNumeric  = regexp.MustCompile(`[^0-9.,]`)
	floatPrefix = regexp.MustCompile(`^[0-9]*(\.[0-9]*)?`)
)

// ParseValue turns a raw entry value into a canonical amount. Numbers pass through untouched,
// negative ones included; strings go through NormalizeSeparators and are read as a float prefix.
func ParseValue(v RawValue) (decimal.Decimal, error) {
	if v.IsZero() {
		return decimal.Zero, &ParseError{Reason: "missing"}
	}
	if v.IsNumeric() {
		d, err := decimal.NewFromString(v.raw)
		if err != nil {
			return decimal.Zero, &ParseError{Raw: v.raw, Reason: err.Error()}
		}
		return d, nil
	}

	cleaned := NormalizeSeparators(v.raw)
	prefix := floatPrefix.FindString(cleaned)
	if strings.Trim(prefix, ".") == "" {
		return decimal.Zero, &ParseError{Raw: v.raw, Reason: "no digits"}
	}
	prefix = strings.TrimSuffix(prefix, ".")
	if strings.HasPrefix(prefix, ".") {
		prefix = "0" + prefix
	}

	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero, &ParseError{Raw: v.raw, Reason: err.Error()}
	}
	return d, nil
}

// NormalizeSeparators strips currency noise and rewrites the decimal separator as a period.
// With both separators present the later one is the decimal mark; a lone comma is decimal.
func NormalizeSeparators(s string) string {
	clean := nonNumeric.ReplaceAllString(s, "")
	hasComma := strings.Contains(clean, ",")
	hasDot := strings.Contains(clean, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(clean, ",") > strings.LastIndex(clean, ".") {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case hasComma:
		clean = strings.Replace(clean, ",", ".", 1)
	}
	return clean
}
