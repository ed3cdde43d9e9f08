// Package source loads donor rows from the spreadsheet web app or a local export.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jonathan/donation-receipts/internal/fetch"
	"github.com/jonathan/donation-receipts/internal/schemas"
	"github.com/jonathan/donation-receipts/internal/types"
	rowschemas "github.com/jonathan/donation-receipts/schemas"
)

// Source produces the full row table for one run.
type Source interface {
	Fetch(ctx context.Context) (*types.Table, error)
}

// HTTPSource reads rows from a web app endpoint that answers GET with a JSON
// array of objects.
type HTTPSource struct {
	URL     string
	Options *fetch.Options
}

// NewHTTPSource creates an HTTPSource for url.
func NewHTTPSource(url string, opts *fetch.Options) *HTTPSource {
	return &HTTPSource{URL: url, Options: opts}
}

// Fetch issues the GET request and decodes the body. Transport failures and
// non-2xx responses return *fetch.NetworkError; a body that is not an array
// of objects returns *types.ParseError. There is no retry.
func (s *HTTPSource) Fetch(ctx context.Context) (*types.Table, error) {
	result, err := fetch.URL(ctx, s.URL, s.Options)
	if err != nil {
		return nil, err
	}

	if result.IsHTML() {
		msg := "expected JSON but received an HTML page"
		if title, _ := fetch.PageTitle(string(result.Body)); title != "" {
			msg = fmt.Sprintf("%s (%q); check that the web app is deployed with anonymous access", msg, title)
		}
		return nil, &types.ParseError{Message: msg}
	}

	return DecodeRows(result.Body)
}

// DecodeRows parses a JSON array of objects into a Table, keeping row order
// and first-seen column order. Numbers keep their literal text, null becomes
// an empty value and nested arrays or objects are kept as compact JSON.
func DecodeRows(body []byte) (*types.Table, error) {
	if !json.Valid(body) {
		return nil, &types.ParseError{Message: "response body is not valid JSON"}
	}

	if err := schemas.ValidateBytes(rowschemas.Rows, body); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			return nil, &types.ParseError{
				Message: "response is not an array of objects: " + validationErr.Summary(3),
			}
		}
		return nil, &types.ParseError{Message: "response shape check failed", Cause: err}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	table := &types.Table{}
	seen := make(map[string]bool)

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		row := make(types.Row)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, &types.ParseError{Message: "failed to read field name", Cause: err}
			}
			key, ok := tok.(string)
			if !ok {
				return nil, &types.ParseError{Message: fmt.Sprintf("unexpected token %v", tok)}
			}
			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, &types.ParseError{Field: key, Message: "failed to read value", Cause: err}
			}
			row[key] = stringify(value)
			if !seen[key] {
				seen[key] = true
				table.Columns = append(table.Columns, key)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return &types.ParseError{Message: fmt.Sprintf("expected %q", want), Cause: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return &types.ParseError{Message: fmt.Sprintf("expected %q, got %v", want, tok)}
	}
	return nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}
