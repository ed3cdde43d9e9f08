// Package pipeline provides the high-level orchestration for the receipt generation process.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/donation-receipts/internal/conversion"
	"github.com/jonathan/donation-receipts/internal/formatting"
	"github.com/jonathan/donation-receipts/internal/observability"
	"github.com/jonathan/donation-receipts/internal/remote"
	"github.com/jonathan/donation-receipts/internal/rendering"
	"github.com/jonathan/donation-receipts/internal/selection"
	"github.com/jonathan/donation-receipts/internal/source"
	"github.com/jonathan/donation-receipts/internal/types"
)

// Mode selects where receipts are produced.
type Mode string

const (
	// ModeLocal renders the template and converts it on this machine.
	ModeLocal Mode = "local"
	// ModeRemote asks the generation API to produce each receipt.
	ModeRemote Mode = "remote"
)

// Step names reported in progress events.
const (
	StepFetch    = "fetch"
	StepSelect   = "select"
	StepRender   = "render"
	StepConvert  = "convert"
	StepGenerate = "generate"
	StepMark     = "mark_processed"
	StepSummary  = "summary"
)

// Progress event categories.
const (
	CategoryRun    = "run"
	CategoryRecord = "record"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Renderer writes one record's editable document.
type Renderer interface {
	Render(ctx types.RenderContext, outPath string) error
}

// Generator produces a receipt remotely.
type Generator interface {
	Generate(ctx context.Context, req remote.GenerationRequest) (*remote.GenerationResponse, error)
}

// Notifier records a row as processed in the source sheet.
type Notifier interface {
	MarkProcessed(ctx context.Context, rec types.Record) error
}

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Mode   Mode
	Source source.Source

	// Local mode. Renderer is loaded from TemplatePath when nil.
	TemplatePath string
	Renderer     Renderer
	Converter    conversion.Converter
	EditableDir  string
	PDFDir       string

	// Remote mode requires Generator. Notifier is optional in local mode.
	Generator Generator
	Notifier  Notifier

	// InterRecordDelay follows every record, whatever its outcome, whenever
	// a remote endpoint is called per record.
	InterRecordDelay time.Duration
	// Sleep waits between records; remote.Sleep when nil.
	Sleep func(ctx context.Context, d time.Duration) error

	Printer    *observability.Printer
	OnProgress ProgressCallback
}

// Validate checks that the options needed for the selected mode are set.
func (o *RunOptions) Validate() error {
	if o.Source == nil {
		return errors.New("pipeline: data source is required")
	}
	switch o.Mode {
	case ModeLocal, "":
		if o.Renderer == nil && o.TemplatePath == "" {
			return errors.New("pipeline: local mode requires a template")
		}
		if o.EditableDir == "" || o.PDFDir == "" {
			return errors.New("pipeline: local mode requires output directories")
		}
	case ModeRemote:
		if o.Generator == nil {
			return errors.New("pipeline: remote mode requires a generation client")
		}
	default:
		return fmt.Errorf("pipeline: unknown mode %q", o.Mode)
	}
	return nil
}

// Outcome is the result kind of one record.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// RecordResult is what happened to one selected record.
type RecordResult struct {
	Record    types.Record
	Label     string
	Outcome   Outcome
	Artifacts types.Artifacts
	// Degraded lists fields rendered unconverted; never a failure.
	Degraded []error
	// Err is the record-scoped error on failure.
	Err error
	// MarkErr is set when the receipt was produced but the row could not be
	// marked processed.
	MarkErr error
}

// Succeeded reports whether the record produced a receipt.
func (r RecordResult) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Summary is the outcome of a run.
type Summary struct {
	RunID          uuid.UUID
	Counts         types.RunCounts
	NoStatusColumn bool
	Results        []RecordResult
}

func (s *Summary) add(res RecordResult) {
	s.Results = append(s.Results, res)
	if res.Succeeded() {
		s.Counts.Succeeded++
	} else {
		s.Counts.Failed++
	}
	if res.MarkErr != nil {
		s.Counts.Unmarked++
	}
	if len(res.Degraded) > 0 {
		s.Counts.Degraded++
	}
}

// runner carries the state of one Run call.
type runner struct {
	opts    RunOptions
	runID   uuid.UUID
	printer *observability.Printer
	log     *zap.Logger
}

// emitProgress calls the progress callback if configured
func (r *runner) emitProgress(step, category, message string, content any) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: category,
			Message:  message,
			RunID:    r.runID.String(),
			Content:  content,
		})
	}
}

// Run fetches rows, selects the unprocessed ones and produces a receipt for
// each, sequentially. Fetch failures and template errors abort the run and
// are returned; failures of a single record are recorded in the Summary and
// the run moves on. A cancelled context stops the run between records.
func Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Mode == "" {
		opts.Mode = ModeLocal
	}
	if opts.Sleep == nil {
		opts.Sleep = remote.Sleep
	}

	r := &runner{
		opts:    opts,
		runID:   uuid.New(),
		printer: opts.Printer,
	}
	if r.printer == nil {
		r.printer = observability.NewPrinter(nil)
	}
	r.log = zap.L().With(zap.String("run_id", r.runID.String()), zap.String("mode", string(opts.Mode)))

	summary := &Summary{RunID: r.runID}

	// A broken template affects every record, so it is checked before any
	// network traffic.
	if opts.Mode == ModeLocal && r.opts.Renderer == nil {
		tmpl, err := rendering.Load(opts.TemplatePath)
		if err != nil {
			return nil, err
		}
		r.log.Debug("template loaded", zap.String("path", tmpl.Path()), zap.Strings("fields", tmpl.Fields()))
		if unknown := tmpl.UnknownFields(); len(unknown) > 0 {
			r.log.Warn("template placeholders will be left blank", zap.Strings("fields", unknown))
		}
		r.opts.Renderer = tmpl
	}

	table, err := opts.Source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching records failed: %w", err)
	}
	summary.Counts.Fetched = table.Len()
	r.printer.PrintFetched(table.Len())
	r.emitProgress(StepFetch, CategoryRun, fmt.Sprintf("Fetched %d records", table.Len()), nil)

	sel := selection.Unprocessed(table)
	summary.NoStatusColumn = sel.NoStatusColumn
	summary.Counts.AlreadyProcessed = sel.AlreadyProcessed
	summary.Counts.DuplicateOfProcessed = sel.DuplicateOfProcessed
	summary.Counts.Selected = len(sel.Records)
	if sel.NoStatusColumn && table.Len() > 0 {
		r.log.Warn("no processed-status column, selecting every record", zap.String("column", types.FieldProcessed))
	}

	if len(sel.Records) == 0 {
		r.printer.PrintNothingToDo()
		r.emitProgress(StepSelect, CategoryRun, "No unprocessed records", summary.Counts)
		return summary, nil
	}
	r.printer.PrintSelection(summary.Counts, sel.NoStatusColumn)
	r.emitProgress(StepSelect, CategoryRun, fmt.Sprintf("%d records to process", len(sel.Records)), summary.Counts)

	if opts.Mode == ModeLocal && (r.opts.Converter == nil || !r.opts.Converter.Available()) {
		r.printer.PrintInstallHint(conversion.InstallHint)
	}

	paced := opts.Mode == ModeRemote || opts.Notifier != nil
	for _, rec := range sel.Records {
		if err := ctx.Err(); err != nil {
			return summary, r.interrupted(summary, err)
		}

		var res RecordResult
		if opts.Mode == ModeRemote {
			res = r.generateRemote(ctx, rec)
		} else {
			res = r.generateLocal(ctx, rec)
		}
		summary.add(res)
		r.emitProgress(StepSummary, CategoryRecord, fmt.Sprintf("%s: %s", res.Label, res.Outcome), res.Artifacts)

		if paced {
			if err := r.opts.Sleep(ctx, opts.InterRecordDelay); err != nil {
				return summary, r.interrupted(summary, err)
			}
		}
	}

	r.printer.PrintSummary(summary.Counts)
	r.emitProgress(StepSummary, CategoryRun,
		fmt.Sprintf("%d succeeded, %d failed", summary.Counts.Succeeded, summary.Counts.Failed), summary.Counts)
	r.log.Info("run complete",
		zap.Int("succeeded", summary.Counts.Succeeded),
		zap.Int("failed", summary.Counts.Failed),
		zap.Int("unmarked", summary.Counts.Unmarked),
	)
	return summary, nil
}

// Pending fetches rows and returns the selection a run would process,
// without producing anything.
func Pending(ctx context.Context, src source.Source) (selection.Result, error) {
	table, err := src.Fetch(ctx)
	if err != nil {
		return selection.Result{}, fmt.Errorf("fetching records failed: %w", err)
	}
	return selection.Unprocessed(table), nil
}

// prepare builds the render context and logs degraded fields.
func (r *runner) prepare(rec types.Record) (RecordResult, types.RenderContext) {
	rctx, degraded := formatting.BuildContext(rec)
	base := formatting.BaseName(rec.SerialNo, rec.Name, rec.Index)
	res := RecordResult{
		Record:    rec,
		Label:     base,
		Degraded:  degraded,
		Artifacts: types.Artifacts{BaseName: base},
	}
	for _, err := range degraded {
		r.log.Warn("field kept as is", zap.Int("index", rec.Index), zap.String("record", base), zap.Error(err))
	}
	r.printer.PrintDegraded(base, degraded)
	return res, rctx
}

func (r *runner) fail(res RecordResult, step string, err error) RecordResult {
	res.Outcome = OutcomeFailure
	res.Err = err
	r.log.Error("record failed", zap.String("step", step), zap.String("record", res.Label), zap.Error(err))
	return res
}

func (r *runner) generateLocal(ctx context.Context, rec types.Record) RecordResult {
	res, rctx := r.prepare(rec)
	res.Artifacts.EditablePath = filepath.Join(r.opts.EditableDir, res.Label+".docx")
	pdfPath := filepath.Join(r.opts.PDFDir, res.Label+".pdf")

	if err := r.opts.Renderer.Render(rctx, res.Artifacts.EditablePath); err != nil {
		r.printer.PrintRecordFailed(res.Label, err)
		return r.fail(res, StepRender, err)
	}
	r.printer.PrintSaved("DOCX", res.Artifacts.EditablePath)
	r.emitProgress(StepRender, CategoryRecord, "Saved "+res.Artifacts.EditablePath, nil)

	if r.opts.Converter == nil {
		err := &conversion.ConversionError{Source: res.Artifacts.EditablePath, Message: "no converter configured"}
		r.printer.PrintPDFFailed(res.Artifacts.EditablePath, err)
		return r.fail(res, StepConvert, err)
	}
	if err := r.opts.Converter.Convert(ctx, res.Artifacts.EditablePath, pdfPath); err != nil {
		r.printer.PrintPDFFailed(res.Artifacts.EditablePath, err)
		return r.fail(res, StepConvert, err)
	}
	res.Artifacts.PDFPath = pdfPath
	r.printer.PrintSaved("PDF", pdfPath)
	r.emitProgress(StepConvert, CategoryRecord, "Saved "+pdfPath, nil)

	res.Outcome = OutcomeSuccess
	r.markProcessed(ctx, &res)
	return res
}

func (r *runner) generateRemote(ctx context.Context, rec types.Record) RecordResult {
	res, rctx := r.prepare(rec)

	resp, err := r.opts.Generator.Generate(ctx, remote.NewGenerationRequest(rec, rctx))
	if err != nil {
		r.printer.PrintRecordFailed(res.Label, err)
		return r.fail(res, StepGenerate, err)
	}
	res.Artifacts.PDFURL = resp.PDFURL
	r.printer.PrintGenerated(res.Label, resp.PDFURL)
	r.emitProgress(StepGenerate, CategoryRecord, "Generated "+res.Label, resp)

	res.Outcome = OutcomeSuccess
	r.markProcessed(ctx, &res)
	return res
}

// markProcessed notifies the sheet. A failure is reported and counted but
// leaves the record a success.
func (r *runner) markProcessed(ctx context.Context, res *RecordResult) {
	if r.opts.Notifier == nil {
		return
	}
	if err := r.opts.Notifier.MarkProcessed(ctx, res.Record); err != nil {
		res.MarkErr = err
		r.printer.PrintMarkFailed(res.Label, err)
		r.log.Warn("mark processed failed", zap.String("record", res.Label), zap.Error(err))
		return
	}
	r.emitProgress(StepMark, CategoryRecord, "Marked "+res.Label+" as processed", nil)
}

// interrupted prints the tally of the records handled before the run was
// cancelled and returns the cancellation error.
func (r *runner) interrupted(summary *Summary, err error) error {
	r.printer.PrintSummary(summary.Counts)
	r.log.Warn("run interrupted",
		zap.Int("succeeded", summary.Counts.Succeeded),
		zap.Int("failed", summary.Counts.Failed),
		zap.Error(err),
	)
	return err
}
