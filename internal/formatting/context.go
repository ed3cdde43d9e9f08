package formatting

import "github.com/jonathan/donation-receipts/internal/types"

// BuildContext derives the render context for a record. The returned errors
// describe degraded fields; they never prevent rendering.
func BuildContext(rec types.Record) (types.RenderContext, []error) {
	var degraded []error

	date := FormatDate(rec.Date)
	if date.Degraded() {
		degraded = append(degraded, date.Err)
	}

	amount := AmountInWords(rec.Amount)
	if amount.Degraded() {
		degraded = append(degraded, amount.Err)
	}

	return types.RenderContext{
		SerialNo:      rec.SerialNo,
		Date:          date.Text,
		Name:          rec.Name,
		Address:       rec.Address,
		PAN:           rec.PAN,
		AmountInWords: amount.Text,
	}, degraded
}
