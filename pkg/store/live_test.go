package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4C38/Unity-Journify/pkg/document"
)

var upgrader = gorilla.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSubscribeDeliversUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		err = conn.WriteMessage(gorilla.TextMessage, []byte(`{"UUID": "entry-1", "Title": "Renamed"}`))
		require.NoError(t, err)

		// Ignore anything until the client closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	updates := make(chan document.Record, 1)
	live, err := Subscribe(context.Background(), wsURL(srv), func(rec document.Record) {
		updates <- rec
	}, zerolog.Nop())
	require.NoError(t, err)
	defer live.Close()

	select {
	case rec := <-updates:
		assert.Equal(t, "entry-1", document.UUIDOf(rec))
		assert.Equal(t, "Renamed", rec["Title"])
	case <-time.After(2 * time.Second):
		t.Fatal("no live update received")
	}
}

func TestSubscribeDropsRecordsWithoutUUID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"Title": "anonymous"}`)))
		require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"UUID": "entry-2"}`)))

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	updates := make(chan document.Record, 2)
	live, err := Subscribe(context.Background(), wsURL(srv), func(rec document.Record) {
		updates <- rec
	}, zerolog.Nop())
	require.NoError(t, err)
	defer live.Close()

	select {
	case rec := <-updates:
		// The anonymous record must have been skipped.
		assert.Equal(t, "entry-2", document.UUIDOf(rec))
	case <-time.After(2 * time.Second):
		t.Fatal("no live update received")
	}
}

func TestSubscribeNoEndpoint(t *testing.T) {
	_, err := Subscribe(context.Background(), "", func(document.Record) {}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoEndpoint)
}
