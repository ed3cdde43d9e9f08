package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/donation-receipts/internal/fetch"
	"github.com/jonathan/donation-receipts/internal/schemas"
	"github.com/jonathan/donation-receipts/internal/types"
	respschemas "github.com/jonathan/donation-receipts/schemas"
)

const (
	// DefaultRetryBackoff is the wait before the single retry of a
	// rate-limited generation call.
	DefaultRetryBackoff = 10 * time.Second

	// StatusSuccess is the generation status for a produced receipt.
	StatusSuccess = "success"
	// StatusError is the status the web app reports for a failed call.
	StatusError = "error"

	// markProcessedFunction selects the write-back action in the web app.
	markProcessedFunction = "markAsProcessed"
)

// GenerationRequest is the payload of a generation call.
type GenerationRequest struct {
	SerialNo      string `json:"Serial_No"`
	Date          string `json:"Date"`
	Name          string `json:"Name"`
	Address       string `json:"Address"`
	Amount        string `json:"Amount"`
	AmountInWords string `json:"Amount_in_words"`
	PAN           string `json:"PAN"`
}

// NewGenerationRequest builds the payload for rec. Date and amount-in-words
// come from the formatted context; Amount is sent as fetched.
func NewGenerationRequest(rec types.Record, ctx types.RenderContext) GenerationRequest {
	return GenerationRequest{
		SerialNo:      ctx.SerialNo,
		Date:          ctx.Date,
		Name:          ctx.Name,
		Address:       ctx.Address,
		Amount:        strings.TrimSpace(rec.Amount),
		AmountInWords: ctx.AmountInWords,
		PAN:           ctx.PAN,
	}
}

// GenerationResponse is the reply of a generation call.
type GenerationResponse struct {
	Status  string `json:"status"`
	PDFURL  string `json:"pdfUrl,omitempty"`
	Message string `json:"message,omitempty"`
}

// MarkRequest is the payload of a mark-processed call.
type MarkRequest struct {
	Function string `json:"function"`
	SerialNo string `json:"serialNo"`
	Date     string `json:"date"`
	Name     string `json:"name"`
}

type markResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client calls the generation and mark-processed endpoints.
type Client struct {
	GenerateURL string
	MarkURL     string
	Options     *fetch.Options
	// RetryBackoff is the wait before retrying a 429 response.
	RetryBackoff time.Duration

	// sleep waits for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client. An empty markURL reuses generateURL, which is
// how a single Apps Script deployment serves both calls.
func NewClient(generateURL, markURL string, opts *fetch.Options) *Client {
	if markURL == "" {
		markURL = generateURL
	}
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	return &Client{
		GenerateURL:  generateURL,
		MarkURL:      markURL,
		Options:      opts,
		RetryBackoff: DefaultRetryBackoff,
		sleep:        Sleep,
	}
}

// Sleep waits for d, returning early with the context error on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Generate asks the web app to produce the receipt for one record. A 429
// response is retried exactly once after RetryBackoff. HTTP failures return
// *fetch.NetworkError; a reply whose status is not "success" returns
// *RemoteStatusError.
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
	result, err := fetch.PostJSON(ctx, c.GenerateURL, req, c.Options)
	if isRateLimited(err) {
		zap.L().Warn("generation rate limited, retrying once",
			zap.String("serial_no", req.SerialNo),
			zap.Duration("backoff", c.RetryBackoff),
		)
		if err := c.sleep(ctx, c.RetryBackoff); err != nil {
			return nil, err
		}
		result, err = fetch.PostJSON(ctx, c.GenerateURL, req, c.Options)
	}
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidateBytes(respschemas.GenerationResponse, result.Body); err != nil {
		return nil, &types.ParseError{
			Message: fmt.Sprintf("unexpected generation response %q", truncate(string(result.Body), 200)),
			Cause:   err,
		}
	}

	var resp GenerationResponse
	if err := json.Unmarshal(result.Body, &resp); err != nil {
		return nil, &types.ParseError{Message: "failed to decode generation response", Cause: err}
	}
	if resp.Status != StatusSuccess {
		return &resp, &RemoteStatusError{Status: resp.Status, Message: resp.Message}
	}
	return &resp, nil
}

// MarkProcessed records rec as processed in the source sheet. Any HTTP
// failure, or a reply with status "error", returns *MarkError. A reply that
// is not JSON is accepted, since older deployments answer with plain text.
func (c *Client) MarkProcessed(ctx context.Context, rec types.Record) error {
	payload := MarkRequest{
		Function: markProcessedFunction,
		SerialNo: rec.SerialNo,
		Date:     rec.Date,
		Name:     rec.Name,
	}

	result, err := fetch.PostJSON(ctx, c.MarkURL, payload, c.Options)
	if err != nil {
		return &MarkError{Key: rec.Key(), Message: "request failed", Cause: err}
	}

	var resp markResponse
	if err := json.Unmarshal(result.Body, &resp); err != nil {
		zap.L().Debug("mark processed reply is not JSON", zap.String("key", rec.Key()))
		return nil
	}
	if strings.EqualFold(resp.Status, StatusError) {
		return &MarkError{Key: rec.Key(), Message: fmt.Sprintf("web app reported error: %s", resp.Message)}
	}
	return nil
}

func isRateLimited(err error) bool {
	var netErr *fetch.NetworkError
	return errors.As(err, &netErr) && netErr.StatusCode == http.StatusTooManyRequests
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
