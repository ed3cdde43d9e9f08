package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jonathan/donation-receipts/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSummary(types.RunCounts{
		Fetched:          10,
		AlreadyProcessed: 6,
		Selected:         4,
		Succeeded:        3,
		Failed:           1,
		Unmarked:         1,
	})
	output := buf.String()

	assert.Contains(t, output, "RUN SUMMARY")
	assert.Contains(t, output, "Fetched:           10")
	assert.Contains(t, output, "Not marked:        1")
	assert.NotContains(t, output, "Kept as is")
	assert.True(t, strings.HasSuffix(output, "Done: 3 succeeded, 1 failed\n"))
}

func TestPrintSelection(t *testing.T) {
	tests := []struct {
		name     string
		counts   types.RunCounts
		noStatus bool
		want     string
	}{
		{"all new", types.RunCounts{Selected: 3}, false, "3 records to process\n"},
		{"some skipped", types.RunCounts{Selected: 2, AlreadyProcessed: 4, DuplicateOfProcessed: 1}, false, "2 records to process (4 already processed, 1 duplicates of processed records)\n"},
		{"no status column", types.RunCounts{Selected: 5}, true, "No Processed column found; treating all 5 records as unprocessed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).PrintSelection(tt.counts, tt.noStatus)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrintRecordLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFetched(2)
	p.PrintSaved("DOCX", "output/Editable/12_Asha.docx")
	p.PrintPDFFailed("output/Editable/12_Asha.docx", errors.New("soffice missing"))
	p.PrintRecordFailed("13_Ravi", errors.New("boom"))
	p.PrintMarkFailed("12_Asha", errors.New("status error"))
	p.PrintDegraded("12_Asha", []error{errors.New("bad date")})
	p.PrintDegraded("12_Asha", nil)

	assert.Equal(t, "Fetched 2 records\n"+
		"✅ Saved DOCX: output/Editable/12_Asha.docx\n"+
		"⚠️ PDF failed for output/Editable/12_Asha.docx (open it and export manually): soffice missing\n"+
		"❌ Failed 13_Ravi: boom\n"+
		"⚠️ Could not mark 12_Asha as processed: status error\n"+
		"   note for 12_Asha: bad date\n", buf.String())
}

func TestPrintTemplateFields(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTemplateFields("template.docx", []string{"Address", "Amount_in_words", "Date", "Name", "PAN", "Phone", "Serial_No"}, []string{"Phone"})
	output := buf.String()

	assert.Contains(t, output, "TEMPLATE template.docx")
	assert.Contains(t, output, "Placeholders: 7")
	assert.Contains(t, output, "... and 2 more")
	assert.Contains(t, output, "Left blank: Phone")
}

func TestPrintConverters(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintConverters([]string{"gotenberg", "libreoffice"}, []bool{false, true})
	output := buf.String()

	assert.Contains(t, output, "PDF CONVERTERS")
	assert.Contains(t, output, "1. gotenberg    not available")
	assert.Contains(t, output, "2. libreoffice  available")
}

func TestNewPrinter_NilWriter(t *testing.T) {
	p := NewPrinter(nil)
	assert.NotPanics(t, func() { p.PrintFetched(1) })
}
