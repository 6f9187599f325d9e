// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/common/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const RequestIDHeader = "X-Request-ID"

// Client is the JSON transport to the CRM backend. Every call carries the
// caller's bearer token and a fresh request id.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	tracer     trace.Tracer
}

// Request describes one backend call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Token  string
	Body   interface{}
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Component(log, "http"),
		tracer: otel.Tracer("fieldsales-console/http"),
	}
}

// Send performs r and returns the raw body of a 2xx response. Anything else
// becomes a *StandardError.
func (c *Client) Send(ctx context.Context, r Request) ([]byte, error) {
	operation := r.Method + " " + r.Path

	ctx, span := c.tracer.Start(ctx, operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := c.newRequest(ctx, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, apperrors.NewInternalError(err)
	}
	requestID := req.Header.Get(RequestIDHeader)
	span.SetAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.route", r.Path),
		attribute.String("request.id", requestID),
	)

	metrics.APIRequestsActive.Inc()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestsActive.Dec()
	metrics.APIRequestDuration.WithLabelValues(r.Method, r.Path).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.APIRequests.WithLabelValues(r.Method, r.Path, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("Backend request failed", map[string]interface{}{
			"operation": operation,
			"requestId": requestID,
			"error":     err.Error(),
		})
		return nil, apperrors.NewNetworkError(operation, err)
	}
	defer resp.Body.Close()

	metrics.APIRequests.WithLabelValues(r.Method, r.Path, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.NewNetworkError(operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		stdErr := apperrors.FromHTTPStatus(operation, resp.StatusCode, body)
		span.SetStatus(codes.Error, stdErr.Message)
		c.logger.Debug("Backend rejected request", map[string]interface{}{
			"operation": operation,
			"requestId": requestID,
			"status":    resp.StatusCode,
		})
		return nil, stdErr
	}

	return body, nil
}

// JSON performs r and decodes a non-empty 2xx body into out. A nil out
// discards the body.
func (c *Client) JSON(ctx context.Context, r Request, out interface{}) error {
	body, err := c.Send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewDecodeError(r.Method+" "+r.Path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimPrefix(r.Path, "/")
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}
	return req, nil
}
