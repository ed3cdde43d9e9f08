// Package selection decides which fetched rows still need a receipt.
package selection

import "github.com/jonathan/donation-receipts/internal/types"

// Result is the outcome of filtering a table.
type Result struct {
	// Records are the rows to generate, in table order.
	Records []types.Record
	// AlreadyProcessed counts rows whose own status is YES.
	AlreadyProcessed int
	// DuplicateOfProcessed counts rows skipped because another row with the
	// same ProcessedKey is YES.
	DuplicateOfProcessed int
	// NoStatusColumn is set when no row carries the processed-status field,
	// in which case every row is selected.
	NoStatusColumn bool
}

// Total returns the number of rows examined.
func (r Result) Total() int {
	return len(r.Records) + r.AlreadyProcessed + r.DuplicateOfProcessed
}

// Unprocessed returns the rows that are neither processed themselves nor
// share a ProcessedKey with a processed row. The same donation can appear
// twice with inconsistent flags after spreadsheet edits; one YES wins.
func Unprocessed(table *types.Table) Result {
	var res Result
	if table.Len() == 0 {
		return res
	}

	records := make([]types.Record, len(table.Rows))
	for i, row := range table.Rows {
		records[i] = types.NewRecord(i, row)
	}

	if !table.HasColumn(types.FieldProcessed) {
		res.NoStatusColumn = true
		res.Records = records
		return res
	}

	processedKeys := make(map[string]bool)
	for _, rec := range records {
		if rec.IsProcessed() {
			processedKeys[rec.Key()] = true
		}
	}

	for _, rec := range records {
		switch {
		case rec.IsProcessed():
			res.AlreadyProcessed++
		case processedKeys[rec.Key()]:
			res.DuplicateOfProcessed++
		default:
			res.Records = append(res.Records, rec)
		}
	}

	return res
}
