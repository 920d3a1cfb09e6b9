package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a blue vase", req["Prompt"])

		_ = json.NewEncoder(w).Encode(Result{URL: "https://models.example/vase.glb", Title: "Blue Vase"})
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, Logger: zerolog.Nop()})

	res, err := c.Generate(context.Background(), "a blue vase")
	require.NoError(t, err)
	assert.Equal(t, "https://models.example/vase.glb", res.URL)
	assert.Equal(t, "Blue Vase", res.Title)
}

func TestGenerateNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, Logger: zerolog.Nop()})

	_, err := c.Generate(context.Background(), "anything")
	assert.Error(t, err)
}

func TestConcurrentGenerationRejected(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_ = json.NewEncoder(w).Encode(Result{URL: "u", Title: "t"})
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, Logger: zerolog.Nop()})

	var wg sync.WaitGroup
	wg.Add(1)
	started := make(chan struct{})
	go func() {
		defer wg.Done()
		close(started)
		_, err := c.Generate(context.Background(), "first")
		assert.NoError(t, err)
	}()

	<-started
	// Wait until the first request holds the guard.
	require.Eventually(t, func() bool {
		return c.inFlight.Load()
	}, time.Second, time.Millisecond)

	_, err := c.Generate(context.Background(), "second")
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	wg.Wait()

	// The guard clears once the request finishes.
	_, err = c.Generate(context.Background(), "third")
	assert.NoError(t, err)
}

func TestGenerateNoEndpoint(t *testing.T) {
	c := New(Config{Logger: zerolog.Nop()})
	_, err := c.Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoEndpoint)
}
