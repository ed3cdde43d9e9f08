package types

// RunCounts tallies one pipeline run.
type RunCounts struct {
	Fetched              int `json:"fetched"`
	AlreadyProcessed     int `json:"already_processed"`
	DuplicateOfProcessed int `json:"duplicate_of_processed"`
	Selected             int `json:"selected"`
	Succeeded            int `json:"succeeded"`
	Failed               int `json:"failed"`
	// Unmarked counts successes whose mark-processed call failed.
	Unmarked int `json:"unmarked"`
	// Degraded counts records rendered with a date or amount kept as is.
	Degraded int `json:"degraded"`
}

// Skipped returns the number of fetched rows that were not selected.
func (c RunCounts) Skipped() int {
	return c.AlreadyProcessed + c.DuplicateOfProcessed
}
