package conversion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// gotenbergRoute is Gotenberg's LibreOffice conversion endpoint.
const gotenbergRoute = "/forms/libreoffice/convert"

// GotenbergConverter converts through a Gotenberg service, which wraps
// LibreOffice behind an HTTP API.
type GotenbergConverter struct {
	URL    string
	Client *http.Client
}

// NewGotenbergConverter creates a converter for the service at baseURL. An
// empty baseURL yields a converter that reports itself unavailable.
func NewGotenbergConverter(baseURL string, timeout time.Duration) *GotenbergConverter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GotenbergConverter{
		URL:    strings.TrimRight(baseURL, "/"),
		Client: &http.Client{Timeout: timeout},
	}
}

// Name implements Converter.
func (g *GotenbergConverter) Name() string {
	return "gotenberg"
}

// Available implements Converter.
func (g *GotenbergConverter) Available() bool {
	return g.URL != ""
}

// Convert implements Converter.
func (g *GotenbergConverter) Convert(ctx context.Context, docxPath, pdfPath string) error {
	if !g.Available() {
		return fmt.Errorf("%w: converter.gotenberg_url is not set", ErrUnavailable)
	}

	content, err := os.ReadFile(docxPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", docxPath, err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", filepath.Base(docxPath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL+gotenbergRoute, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gotenberg request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gotenberg returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if err := os.MkdirAll(filepath.Dir(pdfPath), 0755); err != nil {
		return fmt.Errorf("failed to create PDF directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(pdfPath), ".receipt-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to read gotenberg response: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	if err := verifyPDF(tmpPath); err != nil {
		return fmt.Errorf("gotenberg: %w", err)
	}
	if err := os.Rename(tmpPath, pdfPath); err != nil {
		return fmt.Errorf("failed to move PDF into place: %w", err)
	}
	return nil
}
