package wsrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Text string `json:"text"`
}

func serveRouter(t *testing.T, router *WSRouter, onError func(ctx context.Context, conn *websocket.Conn, err error)) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		router.ServeConn(r.Context(), conn, onError)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRoutesTypedPayload(t *testing.T) {
	router := New()
	received := make(chan echoInput, 1)
	Handle(router, "echo", func(ctx context.Context, conn *websocket.Conn, input echoInput) error {
		assert.Equal(t, "echo", GetMessageTypeFromCtx(ctx))
		received <- input
		return nil
	})

	conn := serveRouter(t, router, func(ctx context.Context, conn *websocket.Conn, err error) {
		t.Errorf("unexpected handler error: %v", err)
	})

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "echo",
		"payload": map[string]string{"text": "hi"},
	}))

	select {
	case input := <-received:
		assert.Equal(t, "hi", input.Text)
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}

func TestUnknownMessageType(t *testing.T) {
	router := New()
	errs := make(chan error, 1)

	conn := serveRouter(t, router, func(ctx context.Context, conn *websocket.Conn, err error) {
		errs <- err
	})

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "nope"}))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrUnknownMessageType)
	case <-time.After(time.Second):
		t.Fatal("error callback never ran")
	}
}

func TestMiddlewareOrder(t *testing.T) {
	router := New()
	var order []string

	router.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			order = append(order, "outer")
			return next(ctx, conn, payload)
		}
	})
	router.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			order = append(order, "inner")
			return next(ctx, conn, payload)
		}
	})

	done := make(chan struct{})
	Handle(router, "ping", func(ctx context.Context, conn *websocket.Conn, _ struct{}) error {
		order = append(order, "handler")
		close(done)
		return nil
	})

	conn := serveRouter(t, router, func(ctx context.Context, conn *websocket.Conn, err error) {
		t.Errorf("unexpected handler error: %v", err)
	})
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))

	select {
	case <-done:
		assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}
