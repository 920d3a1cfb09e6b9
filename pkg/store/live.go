package store

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/V4C38/Unity-Journify/pkg/document"
)

// DefaultDialer is the gorilla dialer used by Live connections. It is the
// default gorilla dialer with compression enabled and a json subprotocol.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
	Subprotocols:      []string{"json"},
}

// UpdateFunc receives a partial record pushed by the store. The record
// carries at least a UUID; remaining fields are merged into the matching
// node by the engine.
type UpdateFunc func(rec document.Record)

// Live is a websocket subscription to remote document updates. Each text
// message on the socket is one partial record.
type Live struct {
	conn   *gorilla.Conn
	logger zerolog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// Subscribe dials the live endpoint and starts delivering updates to fn.
// fn is called from a single reader goroutine, so deliveries are ordered —
// but they are NOT on the host's update loop. A fn that touches scene
// entities (directly or through Engine.ApplyRemote) must hand the record
// over to that loop instead of applying it in place.
func Subscribe(ctx context.Context, endpoint string, fn UpdateFunc, logger zerolog.Logger) (*Live, error) {
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	conn, res, err := DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	l := &Live{
		conn:   conn,
		logger: logger,
		closed: make(chan struct{}),
	}
	go l.readLoop(fn)
	return l, nil
}

func (l *Live) readLoop(fn UpdateFunc) {
	defer close(l.closed)
	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			if !isExpectedClose(err) {
				l.logger.Warn().Err(err).Msg("live feed closed unexpectedly")
			}
			return
		}

		var rec document.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			l.logger.Warn().Err(err).Msg("dropping malformed live update")
			continue
		}
		if document.UUIDOf(rec) == "" {
			l.logger.Warn().Msg("dropping live update without UUID")
			continue
		}
		fn(rec)
	}
}

func isExpectedClose(err error) bool {
	if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}

// Close tears down the socket and waits for the reader to drain.
func (l *Live) Close() error {
	var err error
	l.closeOnce.Do(func() {
		msg := gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, "")
		_ = l.conn.WriteMessage(gorilla.CloseMessage, msg)
		err = l.conn.Close()
		<-l.closed
	})
	return err
}
