// Package store talks to the remote document store. The store is a plain
// key-value document endpoint: GET returns the whole document as JSON, POST
// replaces it wholesale. Anything outside the 2xx window is a failure.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/V4C38/Unity-Journify/internal/rand"
	"github.com/V4C38/Unity-Journify/pkg/document"
)

const (
	// DefaultTimeout bounds every store request so a hung call cannot pin
	// the engine's in-flight guard forever.
	DefaultTimeout = 10 * time.Second

	attemptIDLength = 8
)

var ErrNoEndpoint = errors.New("store: no endpoint configured")

// StatusError reports a non-2xx response from the store.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("store: %s returned status %d", e.Op, e.Status)
}

// Store is what the sync engine needs from a document backend.
type Store interface {
	Load(ctx context.Context) (document.Record, error)
	Save(ctx context.Context, doc document.Record) error
}

// Config configures an HTTP store client.
type Config struct {
	// Endpoint is the full document URL, e.g. "https://api.example.com/documents/archive-1".
	Endpoint string
	// Token, when set, is sent as a bearer token on every request.
	Token string
	// HTTPClient overrides the default client (DefaultTimeout).
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// HTTP is the Store implementation over the GET/POST document protocol.
type HTTP struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(cfg Config) *HTTP {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTP{
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		httpClient: client,
		logger:     cfg.Logger,
	}
}

// Load fetches the whole document.
func (h *HTTP) Load(ctx context.Context) (document.Record, error) {
	body, err := h.makeRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	rec, err := document.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("store: decoding document: %w", err)
	}
	return rec, nil
}

// Save replaces the whole document. The response body is ignored on success.
func (h *HTTP) Save(ctx context.Context, doc document.Record) error {
	body, err := document.Encode(doc)
	if err != nil {
		return fmt.Errorf("store: encoding document: %w", err)
	}
	_, err = h.makeRequest(ctx, http.MethodPost, body)
	return err
}

func (h *HTTP) makeRequest(ctx context.Context, method string, body []byte) ([]byte, error) {
	if h.endpoint == "" {
		return nil, ErrNoEndpoint
	}

	attempt := rand.NewAttemptID(attemptIDLength)
	log := h.logger.With().Str("attempt", attempt).Str("method", method).Logger()

	var reqBody io.Reader = http.NoBody
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	start := time.Now()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("store request failed")
		return nil, fmt.Errorf("store: %s request: %w", method, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("store request ok")
		return respBytes, nil
	}

	log.Warn().Int("status", resp.StatusCode).Msg("store returned non-success status")
	return nil, &StatusError{Op: method, Status: resp.StatusCode, Body: string(respBytes)}
}
