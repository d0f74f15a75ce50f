// Package bridge is a client for the generation endpoint. It submits a
// description and language pair as JSON, decodes the four result texts, and
// hands them to a display sink. Overlapping submissions are sequenced so
// only the most recently issued request updates the display.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"codegen/pkg/logx"
)

// GenerationRequest is the pair sent to the generation endpoint. Both
// fields are always present in the outgoing body, even when empty.
type GenerationRequest struct {
	Description string `json:"description"`
	Language    string `json:"language"`
}

// GenerationResult is the text bundle returned by the generation endpoint.
// Missing fields decode as empty strings.
type GenerationResult struct {
	Planning string `json:"planning"`
	Design   string `json:"design"`
	Code     string `json:"code"`
	Testing  string `json:"testing"`
}

// Display receives the outcome of a submission. Exactly one of the two
// methods is called per delivered submission.
type Display interface {
	ShowResult(result GenerationResult)
	ShowError(err error)
}

// DefaultTimeout bounds one generation round trip. Generation runs four
// model calls server side, so this is generous.
const DefaultTimeout = 5 * time.Minute

// Client talks to the generation endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logx.Logger

	// seq orders submissions so stale responses never reach the display.
	// deliverMu serializes the sequence check with the display call.
	seq       atomic.Uint64
	deliverMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the generation endpoint at baseURL, for
// example "http://localhost:8080".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logx.NewLogger("bridge"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate performs one request/response exchange and returns the decoded
// result or a classified *Error. The request body contains exactly the
// description and language fields.
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return GenerationResult{}, newError(KindEncode, "failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return GenerationResult{}, newError(KindTransport, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return GenerationResult{}, newError(KindTransport, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for the message, then discard.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return GenerationResult{}, newStatusError(resp.StatusCode, string(snippet))
	}

	var result GenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return GenerationResult{}, newError(KindDecode, "failed to decode response", err)
	}

	return result, nil
}

// Submit runs Generate and delivers the outcome to the display. When
// submissions overlap, only the most recently issued one updates the
// display; outcomes of superseded submissions are dropped. Returns the
// generation error, if any, regardless of whether it was delivered.
func (c *Client) Submit(ctx context.Context, req GenerationRequest, display Display) error {
	seq := c.seq.Add(1)

	result, err := c.Generate(ctx, req)

	// Check and deliver under one lock. Without it, a superseded
	// submission could pass the check, lose the CPU, and write its stale
	// outcome after a fresher one already reached the display.
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	if c.seq.Load() != seq {
		c.logger.Debug("dropping superseded submission %d", seq)
		return err
	}

	if err != nil {
		display.ShowError(err)
		return err
	}
	display.ShowResult(result)
	return nil
}

// Error is a classified bridge failure.
type Error struct {
	Err        error
	Message    string
	Kind       Kind
	StatusCode int
}

// Kind classifies a bridge failure.
type Kind int8

const (
	// KindTransport covers connection, DNS, and timeout failures.
	KindTransport Kind = iota
	// KindStatus covers non-200 responses.
	KindStatus
	// KindDecode covers malformed response bodies.
	KindDecode
	// KindEncode covers request serialization failures.
	KindEncode
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func newStatusError(statusCode int, message string) *Error {
	return &Error{Kind: KindStatus, StatusCode: statusCode, Message: message}
}

// KindOf returns the kind of a bridge error. The second return is false
// when err is not a bridge error.
func KindOf(err error) (Kind, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return KindTransport, false
}
