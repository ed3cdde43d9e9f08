package conversion

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// pdfMagic starts every PDF file.
var pdfMagic = []byte("%PDF-")

// Converter converts one .docx file into a PDF at pdfPath.
type Converter interface {
	Name() string
	// Available reports whether the converter can run at all. It does not
	// guarantee a conversion will succeed.
	Available() bool
	Convert(ctx context.Context, docxPath, pdfPath string) error
}

// Chain tries converters in order; the first success wins.
type Chain struct {
	converters []Converter
}

// NewChain creates a chain over the given converters, in priority order.
func NewChain(converters ...Converter) *Chain {
	return &Chain{converters: converters}
}

// Name lists the chained converters.
func (c *Chain) Name() string {
	if len(c.converters) == 0 {
		return "none"
	}
	names := make([]string, 0, len(c.converters))
	for _, conv := range c.converters {
		names = append(names, conv.Name())
	}
	return strings.Join(names, "+")
}

// Available reports whether any converter in the chain can run.
func (c *Chain) Available() bool {
	for _, conv := range c.converters {
		if conv.Available() {
			return true
		}
	}
	return false
}

// Converters returns the chained converters in order.
func (c *Chain) Converters() []Converter {
	return c.converters
}

// Convert runs each converter until one succeeds. When all fail it returns a
// *ConversionError listing every attempt.
func (c *Chain) Convert(ctx context.Context, docxPath, pdfPath string) error {
	var attempts []Attempt
	for _, conv := range c.converters {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Converter: conv.Name(), Err: err})
			break
		}
		err := conv.Convert(ctx, docxPath, pdfPath)
		if err == nil {
			return nil
		}
		attempts = append(attempts, Attempt{Converter: conv.Name(), Err: err})
		zap.L().Debug("converter failed, trying next",
			zap.String("converter", conv.Name()),
			zap.String("docx", docxPath),
			zap.Error(err),
		)
	}

	msg := "all converters failed"
	if len(c.converters) == 0 {
		msg = "no converter configured"
	}
	return &ConversionError{Source: docxPath, Message: msg, Attempts: attempts}
}

// verifyPDF checks that path exists and looks like a PDF. LibreOffice exits
// 0 on some failures without writing output.
func verifyPDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("PDF was not generated: %w", err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, len(pdfMagic))
	n, _ := f.Read(head)
	if n < len(pdfMagic) || !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("output %s is not a PDF", path)
	}
	return nil
}
