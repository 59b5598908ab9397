// Package tasuki is the HTTP client for the remote character/relationship API.
//
// It owns the translation between the upstream wire format (snake_case JSON,
// numeric enums, numeric or string identifiers) and the domain types. Every
// call is a fresh round trip scoped to the caller's context: there is no
// caching, no retry and no backoff here. Failures are returned to the caller
// unchanged apart from wrapping, so the service layer decides how to surface
// them.
package tasuki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// maxErrorBody caps how much of a failed response body is kept on APIError.
const maxErrorBody = 4 << 10

// APIError is returned when the upstream answers with a non-2xx status.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tasuki: %s %s: status %d", e.Method, e.Path, e.Status)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the remote API rooted at BaseURL. Token is only used for
// calls whose context carries no caller credential (see WithBearer).
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New returns a Client. A zero timeout leaves request lifetime to the
// caller's context and the transport.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// token picks the caller's own credential over the static one, so that
// upstream state stays per user.
func (c *Client) token(ctx context.Context) string {
	if tok, ok := BearerFrom(ctx); ok {
		return tok
	}
	return c.Token
}

// getJSON issues a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, out)
}

// do performs a single request. in (when non-nil) is encoded as the JSON body;
// out (when non-nil) receives the decoded response.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	ctx, span := otel.Tracer("tasuki/Client").Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("tasuki.path", path),
		),
	)
	start := time.Now()
	defer func() {
		observe(op, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader
	if in != nil {
		buf, mErr := json.Marshal(in)
		if mErr != nil {
			return fmt.Errorf("tasuki: encode %s body: %w", op, mErr)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("tasuki: build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tasuki: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tasuki: decode %s response: %w", op, err)
	}
	return nil
}
