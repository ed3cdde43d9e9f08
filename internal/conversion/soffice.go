package conversion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single LibreOffice conversion.
const DefaultTimeout = 120 * time.Second

// sofficeBinaries are looked up in PATH in order when no explicit path is set.
var sofficeBinaries = []string{"soffice", "libreoffice"}

// SofficeConverter converts with a local LibreOffice install in headless mode.
type SofficeConverter struct {
	Path    string
	Timeout time.Duration

	lookPath func(string) (string, error)
}

// NewSofficeConverter creates a converter. An empty path auto-detects
// soffice or libreoffice in PATH.
func NewSofficeConverter(path string, timeout time.Duration) *SofficeConverter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SofficeConverter{Path: path, Timeout: timeout, lookPath: exec.LookPath}
}

// Name implements Converter.
func (s *SofficeConverter) Name() string {
	return "libreoffice"
}

// Available implements Converter.
func (s *SofficeConverter) Available() bool {
	_, err := s.binary()
	return err == nil
}

func (s *SofficeConverter) binary() (string, error) {
	lookPath := s.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if s.Path != "" {
		return lookPath(s.Path)
	}
	for _, name := range sofficeBinaries {
		if p, err := lookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("soffice not found in PATH")
}

// Convert implements Converter. LibreOffice always names its output after the
// input, so the PDF is produced in a scratch directory and moved to pdfPath.
func (s *SofficeConverter) Convert(ctx context.Context, docxPath, pdfPath string) error {
	bin, err := s.binary()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	absDocx, err := filepath.Abs(docxPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", docxPath, err)
	}
	if _, err := os.Stat(absDocx); err != nil {
		return fmt.Errorf("source document missing: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(pdfPath), 0755); err != nil {
		return fmt.Errorf("failed to create PDF directory: %w", err)
	}
	workDir, err := os.MkdirTemp(filepath.Dir(pdfPath), ".soffice-*")
	if err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// A private profile directory lets conversions run while a desktop
	// LibreOffice instance is open.
	profile := "-env:UserInstallation=file://" + filepath.ToSlash(filepath.Join(workDir, "profile"))
	cmd := exec.CommandContext(ctx, bin, profile, "--headless", "--convert-to", "pdf", "--outdir", workDir, absDocx)

	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("soffice timed out after %s", timeout)
		}
		return fmt.Errorf("soffice failed: %w: %s", err, strings.TrimSpace(output.String()))
	}

	produced := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(absDocx), filepath.Ext(absDocx))+".pdf")
	if err := verifyPDF(produced); err != nil {
		return fmt.Errorf("soffice: %w: %s", err, strings.TrimSpace(output.String()))
	}
	if err := os.Rename(produced, pdfPath); err != nil {
		return fmt.Errorf("failed to move PDF into place: %w", err)
	}
	return nil
}
