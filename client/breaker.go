package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// ErrUpstreamDown is returned when a hosting API is unavailable or its
// circuit breaker is open.
var ErrUpstreamDown = fmt.Errorf("upstream hosting API unavailable")

// BreakerClient wraps a Client with per-host circuit breakers so that a
// misbehaving hosting API stops receiving requests for a cool-down period
// without affecting the other hosts.
type BreakerClient struct {
	client   *Client
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// NewBreakerClient creates a circuit breaker wrapper around a client.
func NewBreakerClient(c *Client) *BreakerClient {
	return &BreakerClient{
		client:   c,
		breakers: make(map[string]*circuit.Breaker),
	}
}

// getBreaker returns or creates a circuit breaker for the given host.
func (bc *BreakerClient) getBreaker(host string) *circuit.Breaker {
	bc.mu.RLock()
	breaker, exists := bc.breakers[host]
	bc.mu.RUnlock()

	if exists {
		return breaker
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()

	// Double-check after acquiring write lock
	if breaker, exists := bc.breakers[host]; exists {
		return breaker
	}

	// Trips after 5 consecutive failures, cools down with exponential backoff
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	opts := &circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	}
	breaker = circuit.NewBreakerWithOptions(opts)

	bc.breakers[host] = breaker
	return breaker
}

// GetJSON wraps the underlying client's GetJSON with circuit breaker logic.
func (bc *BreakerClient) GetJSON(ctx context.Context, rawURL string, v any) error {
	host := extractHost(rawURL)
	breaker := bc.getBreaker(host)

	if !breaker.Ready() {
		return fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}

	return breaker.Call(func() error {
		return bc.client.GetJSON(ctx, rawURL, v)
	}, 0)
}

// GetBody wraps the underlying client's GetBody with circuit breaker logic.
func (bc *BreakerClient) GetBody(ctx context.Context, rawURL string) ([]byte, error) {
	host := extractHost(rawURL)
	breaker := bc.getBreaker(host)

	if !breaker.Ready() {
		return nil, fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}

	var body []byte
	err := breaker.Call(func() error {
		var callErr error
		body, callErr = bc.client.GetBody(ctx, rawURL)
		return callErr
	}, 0)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// BreakerState returns the current state of circuit breakers, keyed by host.
func (bc *BreakerClient) BreakerState() map[string]string {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	states := make(map[string]string)
	for host, breaker := range bc.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

// extractHost extracts a host identifier from a URL for circuit breaker grouping.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}
