package main

import (
	"fmt"
	"io"

	"github.com/jonathan/donation-receipts/internal/config"
	"github.com/jonathan/donation-receipts/internal/conversion"
	"github.com/jonathan/donation-receipts/internal/fetch"
	"github.com/jonathan/donation-receipts/internal/observability"
	"github.com/jonathan/donation-receipts/internal/pipeline"
	"github.com/jonathan/donation-receipts/internal/remote"
	"github.com/jonathan/donation-receipts/internal/source"
)

// newSource builds the configured data source.
func newSource(c *config.Config) (source.Source, error) {
	switch c.Source.Kind {
	case config.SourceHTTP:
		opts := fetch.DefaultOptions()
		opts.Timeout = c.HTTPTimeout()
		return source.NewHTTPSource(c.DataAPIURL, opts), nil
	case config.SourceXLSX:
		return source.NewXLSXSource(c.Source.XLSXPath, c.Source.Sheet), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
}

// newConverter builds the converter chain: Gotenberg first, then a local
// LibreOffice install.
func newConverter(c *config.Config) *conversion.Chain {
	timeout := c.Converter.ConverterTimeout()
	return conversion.NewChain(
		conversion.NewGotenbergConverter(c.Converter.GotenbergURL, timeout),
		conversion.NewSofficeConverter(c.Converter.SofficePath, timeout),
	)
}

// newRemoteClient builds the web app client, or nil when no endpoint is set.
func newRemoteClient(c *config.Config) *remote.Client {
	if c.GenerationAPIURL == "" && c.MarkURL() == "" {
		return nil
	}
	opts := fetch.DefaultOptions()
	opts.Timeout = c.HTTPTimeout()
	client := remote.NewClient(c.GenerationAPIURL, c.MarkURL(), opts)
	client.RetryBackoff = c.RetryBackoff()
	return client
}

// buildRunOptions turns the loaded configuration into pipeline options.
func buildRunOptions(c *config.Config, out io.Writer) (pipeline.RunOptions, error) {
	src, err := newSource(c)
	if err != nil {
		return pipeline.RunOptions{}, err
	}

	opts := pipeline.RunOptions{
		Mode:             pipeline.Mode(c.Mode),
		Source:           src,
		TemplatePath:     c.TemplatePath,
		EditableDir:      c.EditableDir,
		PDFDir:           c.PDFDir,
		InterRecordDelay: c.InterRecordDelay(),
		Printer:          observability.NewPrinter(out),
	}

	if opts.Mode == pipeline.ModeLocal {
		opts.Converter = newConverter(c)
	}

	if client := newRemoteClient(c); client != nil {
		if opts.Mode == pipeline.ModeRemote {
			opts.Generator = client
		}
		if c.MarkURL() != "" {
			opts.Notifier = client
		}
	}

	return opts, nil
}
