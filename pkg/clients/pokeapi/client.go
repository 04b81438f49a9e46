// Package pokeapi is a small REST client for the PokeAPI v2 resources the
// gateway reads: a Pokémon by id or name, an ability and a move by URL.
package pokeapi

import (
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

	"github.com/carlosbarrancotena/practica5/pkg/clients"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// DefaultBaseURL is the public PokeAPI v2 root
const DefaultBaseURL = "https://pokeapi.co/api/v2"

var (
	// ErrUpstreamUnavailable matches any non-2xx upstream response
	ErrUpstreamUnavailable = errors.New("pokeapi: upstream unavailable")
	// ErrUpstreamMalformed matches any upstream body that is not valid JSON
	ErrUpstreamMalformed = errors.New("pokeapi: malformed upstream response")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pokeapi returned status %d for %s", e.StatusCode, e.URL)
}

func (e *StatusError) Is(target error) bool { return target == ErrUpstreamUnavailable }

// BreakerOpenError reports a request the circuit breaker refused to send.
// It counts as an unavailable upstream, like a non-2xx answer.
type BreakerOpenError struct {
	URL string
	Err error
}

func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("pokeapi circuit breaker open, %s not requested", e.URL)
}

func (e *BreakerOpenError) Unwrap() error { return e.Err }

func (e *BreakerOpenError) Is(target error) bool { return target == ErrUpstreamUnavailable }

// DecodeError reports a body that could not be parsed as JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pokeapi returned malformed JSON for %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrUpstreamMalformed }

// RequestObserver is told about every finished upstream request. status is
// the HTTP status code, "circuit_open" when the breaker refused the request,
// or "error" when no response arrived.
type RequestObserver func(resource, status string, elapsed time.Duration)

type Client struct {
	baseURL      string
	client       *http.Client
	httpExecutor failsafe.Executor[*http.Response]
	shouldRetry  func(resp *http.Response, err error) bool
	observe      RequestObserver
}

type Option func(*Client)

// NewClient creates a client rooted at baseURL. Without options it makes a
// single attempt per request with no client-side timeout.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Transport: clients.DefaultTransport()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

func WithHTTPExecutorConfig(cfg clients.HTTPExecutorConfig) Option {
	return func(c *Client) {
		c.httpExecutor = clients.NewHTTPExecutor(cfg)
		c.shouldRetry = cfg.ShouldRetry
		if c.shouldRetry == nil {
			c.shouldRetry = clients.DefaultShouldRetry
		}
	}
}

func WithRequestObserver(observe RequestObserver) Option {
	return func(c *Client) {
		c.observe = observe
	}
}

// BaseURL returns the normalized root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PokemonByIDURL builds {base}/pokemon/{id}.
func (c *Client) PokemonByIDURL(id int) string {
	return c.baseURL + "/pokemon/" + strconv.Itoa(id)
}

// PokemonByNameURL builds {base}/pokemon/{name} with name lower-cased.
func (c *Client) PokemonByNameURL(name string) string {
	return c.baseURL + "/pokemon/" + url.PathEscape(strings.ToLower(name))
}

// GetPokemon fetches the primary payload at rawURL.
func (c *Client) GetPokemon(ctx context.Context, rawURL string) (*Pokemon, error) {
	var p Pokemon
	if err := c.GetJSON(ctx, "pokemon", rawURL, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAbility fetches an ability resource by its absolute URL.
func (c *Client) GetAbility(ctx context.Context, rawURL string) (*Ability, error) {
	var a Ability
	if err := c.GetJSON(ctx, "ability", rawURL, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetMove fetches a move resource by its absolute URL.
func (c *Client) GetMove(ctx context.Context, rawURL string) (*Move, error) {
	var m Move
	if err := c.GetJSON(ctx, "move", rawURL, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetJSON issues GET rawURL and decodes the body into out. Non-2xx responses
// yield a *StatusError, requests refused by an open breaker a
// *BreakerOpenError, undecodable bodies a *DecodeError. Transport errors are
// returned wrapped as they are.
func (c *Client) GetJSON(ctx context.Context, resource, rawURL string, out any) error {
	start := time.Now()

	resp, err := c.doRequest(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			c.record(resource, strconv.Itoa(statusErr.StatusCode), start)
			return statusErr
		}
		var openErr *BreakerOpenError
		if errors.As(err, &openErr) {
			openErr.URL = rawURL
			c.record(resource, "circuit_open", start)
			return openErr
		}
		c.record(resource, "error", start)
		return fmt.Errorf("pokeapi request %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.record(resource, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{URL: rawURL, Err: err}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	if c.httpExecutor == nil {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		return c.client.Do(req)
	}

	// last is the response of the final attempt, nil if it failed in transport
	var last *http.Response
	resp, err := clients.ExecuteHTTP(ctx, c.httpExecutor, func() (*http.Response, error) {
		req, err := build(ctx)
		if err != nil {
			last = nil
			return nil, err
		}
		resp, err := c.client.Do(req)
		last = resp
		if c.shouldRetry != nil && c.shouldRetry(resp, err) {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
		}
		return resp, err
	})
	if err != nil && last != nil {
		// Retries exhausted or breaker tripped on an HTTP answer: report the
		// status itself so callers classify it like a direct response.
		return nil, &StatusError{URL: last.Request.URL.String(), StatusCode: last.StatusCode}
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, &BreakerOpenError{Err: err}
	}
	return resp, err
}

func (c *Client) record(resource, status string, start time.Time) {
	if c.observe != nil {
		c.observe(resource, status, time.Since(start))
	}
}
