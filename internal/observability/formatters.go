// Package observability provides the user-facing run log printed to the terminal.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/donation-receipts/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer writes the per-record log and the run summary.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = io.Discard
	}
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// PrintFetched reports how many rows the data source returned.
func (p *Printer) PrintFetched(n int) {
	p.printf("Fetched %d records\n", n)
}

// PrintSelection reports how many rows will be generated and why others were
// skipped.
func (p *Printer) PrintSelection(counts types.RunCounts, noStatusColumn bool) {
	if noStatusColumn {
		p.printf("No %s column found; treating all %d records as unprocessed\n", types.FieldProcessed, counts.Selected)
		return
	}
	if counts.Skipped() == 0 {
		p.printf("%d records to process\n", counts.Selected)
		return
	}
	p.printf("%d records to process (%d already processed, %d duplicates of processed records)\n",
		counts.Selected, counts.AlreadyProcessed, counts.DuplicateOfProcessed)
}

// PrintNothingToDo reports a run with no unprocessed records.
func (p *Printer) PrintNothingToDo() {
	p.printf("Nothing to do: no unprocessed records\n")
}

// PrintInstallHint tells the user how to enable PDF conversion.
func (p *Printer) PrintInstallHint(hint string) {
	p.printf("⚠️ %s\n", hint)
}

// PrintSaved reports a written output file.
func (p *Printer) PrintSaved(kind, path string) {
	p.printf("✅ Saved %s: %s\n", kind, path)
}

// PrintGenerated reports a receipt produced by the generation API.
func (p *Printer) PrintGenerated(label, url string) {
	p.printf("✅ Generated %s: %s\n", label, url)
}

// PrintPDFFailed reports a conversion failure. The editable document stays
// available for a manual export.
func (p *Printer) PrintPDFFailed(docxPath string, err error) {
	p.printf("⚠️ PDF failed for %s (open it and export manually): %v\n", docxPath, err)
}

// PrintRecordFailed reports a record that produced no receipt.
func (p *Printer) PrintRecordFailed(label string, err error) {
	p.printf("❌ Failed %s: %v\n", label, err)
}

// PrintDegraded reports fields that were rendered unconverted.
func (p *Printer) PrintDegraded(label string, errs []error) {
	if len(errs) == 0 {
		return
	}
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	p.printf("   note for %s: %s\n", label, strings.Join(msgs, "; "))
}

// PrintMarkFailed reports a receipt whose row could not be marked processed.
func (p *Printer) PrintMarkFailed(label string, err error) {
	p.printf("⚠️ Could not mark %s as processed: %v\n", label, err)
}

// PrintSummary prints the run totals followed by the one-line tally.
func (p *Printer) PrintSummary(counts types.RunCounts) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Fetched:           %d\n", counts.Fetched))
	sb.WriteString(fmt.Sprintf("Already processed: %d\n", counts.Skipped()))
	sb.WriteString(fmt.Sprintf("Selected:          %d\n", counts.Selected))
	sb.WriteString(fmt.Sprintf("Succeeded:         %d\n", counts.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed:            %d", counts.Failed))
	if counts.Unmarked > 0 {
		sb.WriteString(fmt.Sprintf("\nNot marked:        %d", counts.Unmarked))
	}
	if counts.Degraded > 0 {
		sb.WriteString(fmt.Sprintf("\nKept as is:        %d", counts.Degraded))
	}
	p.printBox("RUN SUMMARY", sb.String())
	p.printf("Done: %d succeeded, %d failed\n", counts.Succeeded, counts.Failed)
}

// PrintTemplateFields lists the placeholders found in a template.
func (p *Printer) PrintTemplateFields(path string, fields, unknown []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Placeholders: %d\n", len(fields)))
	count := min(len(fields), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", fields[i]))
	}
	if len(fields) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(fields)-maxItemsToShow))
	}
	if len(unknown) > 0 {
		sb.WriteString(fmt.Sprintf("Left blank: %s\n", strings.Join(unknown, ", ")))
	}
	p.printBox("TEMPLATE "+path, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintConverters lists PDF converters in priority order with availability.
func (p *Printer) PrintConverters(names []string, available []bool) {
	var sb strings.Builder
	for i, name := range names {
		status := "not available"
		if i < len(available) && available[i] {
			status = "available"
		}
		sb.WriteString(fmt.Sprintf("%d. %-12s %s\n", i+1, name, status))
	}
	if len(names) == 0 {
		sb.WriteString("none configured\n")
	}
	p.printBox("PDF CONVERTERS", strings.TrimSuffix(sb.String(), "\n"))
}
