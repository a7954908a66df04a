// Package predict is the HTTP client for the remote prediction service.
//
// A prediction is a JSON POST of the listing attributes. The service answers
// with either {"price": n} or {"log_price": n}; a log price is converted back
// with exp and rounded to two decimals. Transport failures and 5xx answers are
// retried with doubling backoff; 4xx answers are not.
//
// Servers that only expose the HTML form are reached with the Form encoding:
// the attributes are posted as application/x-www-form-urlencoded and the price
// is read from the "$<amount>" or "Error: <message>" result on the page.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/nightrate/internal/errors"
	"github.com/agbru/nightrate/internal/logging"
	"github.com/agbru/nightrate/internal/valuation"
)

const (
	// RequestIDHeader carries the identifier of one outbound prediction call.
	RequestIDHeader = "X-Request-ID"
	// DefaultEndpoint is where the prediction server listens in development.
	DefaultEndpoint = "http://127.0.0.1:8080/"
	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes = 1 << 20
)

const tracerName = "github.com/agbru/nightrate/internal/predict"

// Encoding is the wire format of a prediction call.
type Encoding int

const (
	// JSON posts a JSON object and expects a JSON price document.
	JSON Encoding = iota
	// Form posts an HTML form and reads the price from the result page.
	Form
)

func (e Encoding) String() string {
	if e == Form {
		return "form"
	}
	return "json"
}

// ParseEncoding maps "json" or "form" to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return JSON, nil
	case "form":
		return Form, nil
	}
	return JSON, apperrors.NewConfigError("unknown encoding %q", s)
}

// Client calls the prediction service. It implements valuation.Predictor.
type Client struct {
	endpoint string
	encoding Encoding
	http     *http.Client
	retries  int
	backoff  time.Duration
	logger   logging.Logger
	tracer   trace.Tracer
	newID    func() string
}

var _ valuation.Predictor = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithRetries sets how many times a retryable failure is retried.
func WithRetries(n int) Option { return func(c *Client) { c.retries = n } }

// WithBackoff sets the delay before the first retry. It doubles each time.
func WithBackoff(d time.Duration) Option { return func(c *Client) { c.backoff = d } }

// WithEncoding selects the wire format. The default is JSON.
func WithEncoding(e Encoding) Option { return func(c *Client) { c.encoding = e } }

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(c *Client) { c.logger = l } }

// WithTracer replaces the tracer taken from the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option { return func(c *Client) { c.tracer = t } }

// WithRequestIDs overrides request identifier generation.
func WithRequestIDs(fn func() string) Option { return func(c *Client) { c.newID = fn } }

// New creates a client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		retries:  2,
		backoff:  200 * time.Millisecond,
		logger:   logging.Nop(),
		tracer:   otel.Tracer(tracerName),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the prediction URL.
func (c *Client) Endpoint() string { return c.endpoint }

type predictResponse struct {
	Price    *float64 `json:"price"`
	LogPrice *float64 `json:"log_price"`
	Error    string   `json:"error"`
}

// Predict sends req and returns the predicted nightly price.
func (c *Client) Predict(ctx context.Context, req valuation.Request) (valuation.Price, error) {
	id := c.newID()
	ctx, span := c.tracer.Start(ctx, "predict",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("request.id", id),
			attribute.String("http.url", c.endpoint),
			attribute.String("predict.encoding", c.encoding.String()),
			attribute.Int("request.attributes", req.Len()),
		))
	defer span.End()

	body, err := c.encode(req)
	if err != nil {
		err = apperrors.RequestError{Message: err.Error()}
		recordError(span, err)
		return 0, err
	}

	var (
		price   valuation.Price
		lastErr error
		delay   = c.backoff
	)
	for try := 0; try <= c.retries; try++ {
		if try > 0 {
			c.logger.Warn("prediction call failed, retrying",
				logging.String("request_id", id),
				logging.Int("try", try+1),
				logging.Duration("backoff", delay),
				logging.Err(lastErr))
			if err := sleep(ctx, delay); err != nil {
				lastErr = apperrors.WrapError(err, "predict %s", id)
				break
			}
			delay *= 2
		}

		var retryable bool
		price, retryable, lastErr = c.do(ctx, id, body)
		span.SetAttributes(attribute.Int("predict.tries", try+1))
		if lastErr == nil || !retryable {
			break
		}
	}

	if lastErr != nil {
		recordError(span, lastErr)
		return 0, lastErr
	}
	span.SetAttributes(attribute.Float64("predict.price", price.Float64()))
	c.logger.Debug("prediction received", logging.String("request_id", id), logging.Float64("price", price.Float64()))
	return price, nil
}

// do performs one HTTP exchange. retryable reports whether a failure is worth
// another try.
func (c *Client) do(ctx context.Context, id string, body []byte) (price valuation.Price, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, false, apperrors.ServiceError{Kind: apperrors.KindNetwork, Cause: err}
	}
	if c.encoding == Form {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		httpReq.Header.Set("Accept", "text/html")
	} else {
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, id)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, false, apperrors.WrapError(ctxErr, "predict %s", id)
		}
		return 0, true, apperrors.ServiceError{Kind: apperrors.KindNetwork, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, false, apperrors.WrapError(ctxErr, "predict %s", id)
		}
		return 0, true, apperrors.ServiceError{Kind: apperrors.KindNetwork, Cause: err}
	}

	var decoded predictResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	switch {
	case resp.StatusCode >= 500:
		return 0, true, apperrors.NewServiceError(apperrors.KindServer, "status %d%s", resp.StatusCode, detail(decoded, decodeErr))
	case resp.StatusCode >= 400:
		return 0, false, apperrors.NewServiceError(apperrors.KindValidation, "status %d%s", resp.StatusCode, detail(decoded, decodeErr))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return 0, false, apperrors.NewServiceError(apperrors.KindServer, "unexpected status %d", resp.StatusCode)
	}

	if c.encoding == Form {
		price, err = pagePrice(raw)
		return price, false, err
	}
	if decodeErr != nil {
		return 0, false, apperrors.ServiceError{Kind: apperrors.KindServer, Cause: fmt.Errorf("decode response: %w", decodeErr)}
	}
	price, err = decoded.price()
	if err != nil {
		return 0, false, err
	}
	return price, false, nil
}

func (c *Client) encode(req valuation.Request) ([]byte, error) {
	if c.encoding != Form {
		return json.Marshal(req.Attributes())
	}
	form := make(url.Values, req.Len())
	for _, k := range req.Keys() {
		v, _ := req.Get(k)
		form.Set(k, formValue(v))
	}
	return []byte(form.Encode()), nil
}

// formValue renders v the way the HTML form submits it. Booleans become
// "1"/"0" and "<n>%" becomes "<n>", as the server appends the percent sign.
func formValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case string:
		if n, ok := strings.CutSuffix(x, "%"); ok {
			if _, err := strconv.Atoi(n); err == nil {
				return n
			}
		}
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

var (
	pageErrorPattern = regexp.MustCompile(`Error:\s*([^<]*)`)
	pagePricePattern = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
)

// pagePrice extracts the result of a form post from the rendered page.
func pagePrice(page []byte) (valuation.Price, error) {
	if m := pageErrorPattern.FindSubmatch(page); m != nil {
		msg := strings.TrimSpace(html.UnescapeString(string(m[1])))
		return 0, apperrors.NewServiceError(apperrors.KindServer, "%s", msg)
	}
	m := pagePricePattern.FindSubmatch(page)
	if m == nil {
		return 0, apperrors.NewServiceError(apperrors.KindServer, "result page carries no price")
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(string(m[1]), ",", ""))
	if err != nil {
		return 0, apperrors.ServiceError{Kind: apperrors.KindServer, Cause: fmt.Errorf("parse page price: %w", err)}
	}
	f, _ := d.Float64()
	return valuation.Price(f), nil
}

func detail(r predictResponse, decodeErr error) string {
	if decodeErr != nil || r.Error == "" {
		return ""
	}
	return ": " + r.Error
}

func (r predictResponse) price() (valuation.Price, error) {
	switch {
	case r.Price != nil:
		return valuation.Price(*r.Price), nil
	case r.LogPrice != nil:
		return FromLogPrice(*r.LogPrice), nil
	case r.Error != "":
		return 0, apperrors.NewServiceError(apperrors.KindServer, "%s", r.Error)
	}
	return 0, apperrors.NewServiceError(apperrors.KindServer, "response carries no price")
}

// FromLogPrice converts a log-scale prediction to a price rounded to two
// decimals, half away from zero.
func FromLogPrice(logPrice float64) valuation.Price {
	v := math.Exp(logPrice)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return valuation.Price(v)
	}
	rounded, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return valuation.Price(rounded)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HealthStatus is the prediction server's /health document.
type HealthStatus struct {
	Status             string `json:"status"`
	Message            string `json:"message,omitempty"`
	ModelLoaded        bool   `json:"model_loaded"`
	PreprocessorLoaded bool   `json:"preprocessor_loaded"`
}

// Health fetches /health from the prediction server's origin.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return HealthStatus{}, apperrors.NewConfigError("invalid endpoint %q: %v", c.endpoint, err)
	}
	healthURL := u.ResolveReference(&url.URL{Path: "/health"})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL.String(), http.NoBody)
	if err != nil {
		return HealthStatus{}, err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return HealthStatus{}, apperrors.ServiceError{Kind: apperrors.KindNetwork, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HealthStatus{}, apperrors.NewServiceError(apperrors.KindServer, "health status %d", resp.StatusCode)
	}
	var hs HealthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&hs); err != nil {
		return HealthStatus{}, apperrors.ServiceError{Kind: apperrors.KindServer, Cause: err}
	}
	return hs, nil
}

// IsRetryable reports whether err came from a failure the client retries.
func IsRetryable(err error) bool {
	var se apperrors.ServiceError
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == apperrors.KindNetwork || se.Kind == apperrors.KindServer
}
