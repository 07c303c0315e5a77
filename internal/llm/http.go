package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/Veraticus/subscription-sentinel/internal/service"
	"golang.org/x/time/rate"
)

// newRateLimiter allows requestsPerMinute requests per minute with a burst of one.
// Zero or less means 60.
func newRateLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

// transport is the request machinery shared by every provider.
type transport struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retryOpts  service.RetryOptions
}

func newTransport(cfg Config) transport {
	return transport{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: newRateLimiter(cfg.RateLimit),
		retryOpts: service.RetryOptions{
			MaxAttempts:  cfg.MaxRetries + 1,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// postJSON sends body to url and decodes a 200 response into out. Rate limiting,
// server errors and transport failures are retried; other client errors are not.
func (t transport) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return common.WithRetry(ctx, t.retryOpts, func() error {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter canceled: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := t.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return common.Retryable(fmt.Errorf("request failed: %w", err))
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return common.Retryable(fmt.Errorf("failed to read response: %w", err))
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return common.RetryAfter(fmt.Errorf("%w (status %d): %s", common.ErrRateLimit, resp.StatusCode, respBody),
				retryAfter(resp.Header.Get("Retry-After")))
		case resp.StatusCode >= http.StatusInternalServerError:
			return common.Retryable(fmt.Errorf("%w: server error (status %d): %s", common.ErrGenerationFailed, resp.StatusCode, respBody))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("%w: API error (status %d): %s", common.ErrGenerationFailed, resp.StatusCode, respBody)
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: failed to parse response: %v", common.ErrMalformedOutput, err)
		}
		return nil
	})
}

// retryAfter parses a Retry-After header given in seconds. Dates and junk yield zero.
func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
