// Package formatting derives the presentation fields of a receipt from raw row values.
package formatting

import (
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/donation-receipts/internal/types"
)

// Field is a formatted value. Err is non-nil when the raw input could not be
// interpreted and Text holds the fallback rendering instead.
type Field struct {
	Text string
	Err  error
}

// Degraded reports whether Text is a fallback rendering.
func (f Field) Degraded() bool {
	return f.Err != nil
}

var ones = []string{
	"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// scales are the short-scale group names, lowest first.
var scales = []string{
	"", "Thousand", "Million", "Billion", "Trillion", "Quadrillion", "Quintillion",
}

// AmountInWords renders an amount as "INR <Words> Rupees". The amount is
// parsed as a float and truncated toward zero. When it does not parse, the
// trimmed raw text is used in place of the words.
func AmountInWords(raw string) Field {
	trimmed := strings.TrimSpace(raw)

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return Field{
			Text: "INR " + trimmed + " Rupees",
			Err:  &types.ParseError{Field: types.FieldAmount, Value: raw, Message: "not a number", Cause: err},
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return Field{
			Text: "INR " + trimmed + " Rupees",
			Err:  &types.ParseError{Field: types.FieldAmount, Value: raw, Message: "amount out of range"},
		}
	}

	return Field{Text: "INR " + NumberToWords(int64(f)) + " Rupees"}
}

// NumberToWords spells n as an English cardinal in title case, without
// "and" or thousands separators: 1234 -> "One Thousand Two Hundred Thirty-Four".
func NumberToWords(n int64) string {
	if n == 0 {
		return ones[0]
	}
	if n < 0 {
		// -MinInt64 overflows; its magnitude fits in uint64.
		return "Minus " + groupsToWords(uint64(-(n + 1))+1)
	}
	return groupsToWords(uint64(n))
}

func groupsToWords(n uint64) string {
	var groups []string
	for scale := 0; n > 0; scale++ {
		chunk := int(n % 1000)
		n /= 1000
		if chunk == 0 {
			continue
		}
		words := hundredsToWords(chunk)
		if scales[scale] != "" {
			words += " " + scales[scale]
		}
		groups = append([]string{words}, groups...)
	}
	return strings.Join(groups, " ")
}

// hundredsToWords spells 1..999.
func hundredsToWords(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100]+" Hundred")
		n %= 100
	}
	switch {
	case n == 0:
	case n < 20:
		parts = append(parts, ones[n])
	case n%10 == 0:
		parts = append(parts, tens[n/10])
	default:
		parts = append(parts, tens[n/10]+"-"+ones[n%10])
	}
	return strings.Join(parts, " ")
}
