// Package generate is the client-side boundary to the external model
// generation service. The core only consumes its output: a model URL and a
// descriptive title for a newly created asset.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a generation request. Generation is slow; this is
// deliberately much longer than a store round trip.
const DefaultTimeout = 120 * time.Second

var (
	ErrNoEndpoint = errors.New("generate: no endpoint configured")

	// ErrInFlight rejects a new request while one is still running. There is
	// no queue; the caller is told immediately.
	ErrInFlight = errors.New("generate: a generation request is already in flight")
)

// Result is what a finished generation hands back.
type Result struct {
	URL   string `json:"URL"`
	Title string `json:"Title"`
}

type Config struct {
	Endpoint   string
	Token      string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client talks to the generation service. At most one request runs at a
// time per client.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger

	inFlight atomic.Bool
}

func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		httpClient: client,
		logger:     cfg.Logger,
	}
}

// Generate requests a model for the given prompt and blocks until the
// service answers. A concurrent call fails fast with ErrInFlight.
func (c *Client) Generate(ctx context.Context, prompt string) (Result, error) {
	if c.endpoint == "" {
		return Result{}, ErrNoEndpoint
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrInFlight
	}
	defer c.inFlight.Store(false)

	body, err := json.Marshal(map[string]string{"Prompt": prompt})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("generate: request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("generation service returned non-success status")
		return Result{}, fmt.Errorf("generate: service returned status %d", resp.StatusCode)
	}

	var res Result
	if err := json.Unmarshal(respBytes, &res); err != nil {
		return Result{}, fmt.Errorf("generate: decoding response: %w", err)
	}
	c.logger.Info().Dur("elapsed", time.Since(start)).Str("url", res.URL).Msg("generation finished")
	return res, nil
}
