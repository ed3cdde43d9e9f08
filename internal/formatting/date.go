package formatting

import (
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/donation-receipts/internal/types"
)

// ReceiptDateLayout is the DD/MM/YY layout printed on receipts.
const ReceiptDateLayout = "02/01/06"

var plainDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// timestampLayouts are tried in order once a trailing "Z" is removed. The
// wall clock of the input is kept; offsets are never converted.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04",
	"2006-01-02T15:04-07:00",
}

// FormatDate reformats an ISO timestamp (anything containing "T") or a plain
// YYYY-MM-DD date as DD/MM/YY. Any other value is returned unchanged with
// Err set, so callers can tell a pass-through from a conversion.
func FormatDate(raw string) Field {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Field{Text: value}
	}

	if strings.Contains(value, "T") {
		stripped := strings.ReplaceAll(value, "Z", "")
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, stripped); err == nil {
				return Field{Text: t.Format(ReceiptDateLayout)}
			}
		}
		return passThrough(value, "unrecognized timestamp")
	}

	if plainDate.MatchString(value) {
		t, err := time.Parse("2006-01-02", value)
		if err != nil {
			return Field{
				Text: value,
				Err:  &types.ParseError{Field: types.FieldDate, Value: value, Message: "invalid calendar date", Cause: err},
			}
		}
		return Field{Text: t.Format(ReceiptDateLayout)}
	}

	return passThrough(value, "unrecognized date format")
}

func passThrough(value, msg string) Field {
	return Field{
		Text: value,
		Err:  &types.ParseError{Field: types.FieldDate, Value: value, Message: msg + ", kept as is"},
	}
}
