// Package controller pushes desired valve states to the hardware controller
// over HTTP, behind a circuit breaker and bounded retries.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"valve_control/internal/config"
	"valve_control/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("controller circuit breaker is open")
	// ErrInvalidStatus is returned for a valve status the controller has no word for.
	ErrInvalidStatus = errors.New("unknown valve status")
)

// StatusError is a non-2xx controller response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "controller responded " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500
}

// Client talks to one controller.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	breaker         *gobreaker.CircuitBreaker[struct{}]
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

// Option tweaks a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff overrides the retry interval bounds.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		c.initialInterval = initial
		c.maxInterval = max
	}
}

// ReadyToTrip opens the breaker after 5 requests with half or more failing.
func ReadyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < 5 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
}

// New returns a client for cfg, or nil when no controller address is set.
func New(cfg config.ControllerConfig, opts ...Option) *Client {
	addr := strings.TrimRight(strings.TrimSpace(cfg.Address), "/")
	if addr == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL:         addr,
		httpClient:      &http.Client{Timeout: timeout},
		maxRetries:      cfg.MaxRetries,
		initialInterval: 200 * time.Millisecond,
		maxInterval:     5 * time.Second,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "controller",
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: ReadyToTrip,
		}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Body returns the wire word for a valve status.
func Body(st models.ValveStatus) (string, error) {
	switch st {
	case models.Open:
		return "open", nil
	case models.Close:
		return "closed", nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, st)
}

// Push sends PUT {base}/valves/{number} with the status word as a text body.
// 5xx responses and transport errors are retried; 4xx are not.
func (c *Client) Push(ctx context.Context, number int, st models.ValveStatus) error {
	body, err := Body(st)
	if err != nil {
		return err
	}
	url := c.baseURL + "/valves/" + strconv.Itoa(number)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxInterval = c.maxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)

	op := func() error {
		_, err := c.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, c.put(ctx, url, body)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(ErrCircuitOpen)
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("push valve %d %s: %w", number, body, err)
	}
	return nil
}

func (c *Client) put(ctx context.Context, url, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// State reports the breaker state, for health output.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
