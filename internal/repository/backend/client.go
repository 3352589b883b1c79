package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/config"
	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
	"github.com/jwalitptl/specimen-gateway/pkg/httputil"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

const defaultMaxResponseBytes = 8 << 20

// Client talks to the specimen backend API. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	maxBody int64
	now     func() time.Time
}

func NewClient(cfg config.BackendConfig, m *metrics.Metrics) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend URL %q is not absolute", cfg.BaseURL)
	}

	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = defaultMaxResponseBytes
	}

	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "specimen-backend",
		MaxFailures: cfg.BreakerFailures,
		Timeout:     cfg.BreakerOpenFor,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			if to == circuitbreaker.StateOpen {
				m.BreakerOpen.Set(1)
			} else {
				m.BreakerOpen.Set(0)
			}
		},
	})

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		metrics: m,
		maxBody: maxBody,
		now:     time.Now,
	}, nil
}

// Ready reports whether the circuit breaker currently lets calls through.
func (c *Client) Ready() bool {
	return c.breaker.State() != circuitbreaker.StateOpen
}

type call struct {
	op          string
	method      string
	path        []string
	query       url.Values
	body        []byte
	contentType string
	sess        *model.Session
	public      bool
}

type response struct {
	status int
	body   []byte
}

// do performs one HTTP exchange. Transport failures and 5xx answers count
// against the circuit breaker and come back as UnavailableError; other
// statuses are returned to the caller for interpretation.
func (c *Client) do(ctx context.Context, req call) (response, error) {
	var token string
	if !req.public {
		var err error
		if token, err = req.sess.BearerToken(c.now()); err != nil {
			return response{}, err
		}
	}

	u := c.baseURL.JoinPath(req.path...)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	logger := zerolog.Ctx(ctx).With().Str("op", req.op).Str("method", req.method).Str("url", u.Redacted()).Logger()
	start := time.Now()

	var (
		resp     response
		abortErr error
	)
	err := c.breaker.Execute(func() error {
		var body io.Reader
		if req.body != nil {
			body = bytes.NewReader(req.body)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
		if err != nil {
			abortErr = err
			return nil
		}
		httpReq.Header.Set("Accept", "application/json")
		if req.contentType != "" {
			httpReq.Header.Set("Content-Type", req.contentType)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
		if rid := httputil.RequestID(ctx); rid != "" {
			httpReq.Header.Set(httputil.HeaderRequestID, rid)
		}

		httpResp, err := c.http.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				abortErr = ctx.Err()
				return nil
			}
			return err
		}
		defer httpResp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBody+1))
		if err != nil {
			if ctx.Err() != nil {
				abortErr = ctx.Err()
				return nil
			}
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if int64(len(payload)) > c.maxBody {
			return fmt.Errorf("response body exceeds %d bytes", c.maxBody)
		}

		resp = response{status: httpResp.StatusCode, body: payload}
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return &apperrors.UnavailableError{Op: req.op, Status: httpResp.StatusCode}
		}
		return nil
	})

	c.metrics.BackendLatency.WithLabelValues(req.op).Observe(time.Since(start).Seconds())

	switch {
	case abortErr != nil:
		c.metrics.BackendRequests.WithLabelValues(req.op, "aborted").Inc()
		logger.Warn().Err(abortErr).Msg("backend call aborted")
		return response{}, fmt.Errorf("%s: %w", req.op, abortErr)
	case err != nil:
		c.metrics.BackendRequests.WithLabelValues(req.op, "error").Inc()
		logger.Error().Err(err).Int("status", resp.status).Msg("backend call failed")
		var unavailable *apperrors.UnavailableError
		if errors.As(err, &unavailable) {
			return response{}, unavailable
		}
		return response{}, &apperrors.UnavailableError{Op: req.op, Err: err}
	}

	c.metrics.BackendRequests.WithLabelValues(req.op, strconv.Itoa(resp.status)).Inc()
	logger.Debug().Int("status", resp.status).Dur("latency", time.Since(start)).Msg("backend call")
	return resp, nil
}

// statusError interprets a non-2xx, non-5xx answer.
func statusError(resp response, resource, id string) error {
	switch resp.status {
	case http.StatusUnauthorized:
		return &apperrors.UnauthenticatedError{Reason: "backend rejected the session"}
	case http.StatusForbidden:
		return apperrors.NewForbidden(backendMessage(resp.body, "access denied"), nil)
	case http.StatusNotFound:
		return &apperrors.NotFoundError{Resource: resource, ID: id}
	default:
		return apperrors.NewBadRequest(backendMessage(resp.body, fmt.Sprintf("backend rejected the request (%d)", resp.status)), nil)
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// backendMessage extracts {"error": ...} or {"message": ...} from an error body.
func backendMessage(body []byte, fallback string) string {
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, key := range []string{"error", "message"} {
			if s, ok := envelope[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return fallback
}
