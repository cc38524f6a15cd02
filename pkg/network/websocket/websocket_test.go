package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kingball/kingball/pkg/logger"
)

func TestEcho(t *testing.T) {
	log := logger.Nop()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := NewServer(w, r, log)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn.OnMessage = func(message []byte, _ error) { _ = conn.Write(message) }
		conn.Listen()
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), "ws"+strings.TrimPrefix(server.URL, "http"), log)
	if err != nil {
		t.Fatal(err)
	}
	got := make(chan string, 1)
	client.OnMessage = func(message []byte, _ error) { got <- string(message) }
	client.Listen()
	defer client.Close()

	if err = client.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	select {
	case m := <-got:
		if m != "ping" {
			t.Errorf("got %v, want ping", m)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no echo")
	}
}

func TestWriteAfterClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := NewServer(w, r, logger.Nop())
		if err != nil {
			return
		}
		conn.Listen()
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), "ws"+strings.TrimPrefix(server.URL, "http"), logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	client.Listen()
	client.Close()
	client.Close()

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatal("not done")
	}
	if err = client.Write([]byte("x")); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
