package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/infrastructure/queue"
)

func dialHub(t *testing.T, h *Hub, profileID string, initial ...queue.ChangeEvent) *websocket.Conn {
	t.Helper()
	return dialHubSnapshot(t, h, profileID, func() []queue.ChangeEvent { return initial })
}

func dialHubSnapshot(t *testing.T, h *Hub, profileID string, snapshot func() []queue.ChangeEvent) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, profileID, snapshot)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return m
}

func TestHub_SendsInitialThenDelivered(t *testing.T) {
	h := NewHub(nil, zerolog.Nop())
	conn := dialHub(t, h, "p1", queue.ChangeEvent{ProfileID: "p1", Kind: queue.KindCart, Data: "hello"})

	if got := readEvent(t, conn); got["kind"] != "cart" || got["data"] != "hello" {
		t.Fatalf("initial event = %v", got)
	}
	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d", h.ClientCount())
	}

	// Other profiles' events are not delivered to p1.
	_ = h.Deliver(context.Background(), queue.ChangeEvent{ProfileID: "p2", Kind: queue.KindCart, Data: "other"})
	_ = h.Deliver(context.Background(), queue.ChangeEvent{ProfileID: "p1", Kind: queue.KindSession, Data: "mine"})

	got := readEvent(t, conn)
	if got["kind"] != "session" || got["data"] != "mine" {
		t.Fatalf("delivered event = %v", got)
	}
	if _, ok := got["ProfileID"]; ok {
		t.Fatalf("profile id leaked into payload: %v", got)
	}
}

func TestHub_UnregistersOnClose(t *testing.T) {
	h := NewHub(nil, zerolog.Nop())
	conn := dialHub(t, h, "p1", queue.ChangeEvent{ProfileID: "p1", Kind: queue.KindCart})
	readEvent(t, conn)

	_ = conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client still registered after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_DeliverWithoutClients(t *testing.T) {
	h := NewHub(nil, zerolog.Nop())
	if err := h.Deliver(context.Background(), queue.ChangeEvent{ProfileID: "nobody"}); err != nil {
		t.Fatalf("Deliver = %v", err)
	}
}

func TestHub_SnapshotIsNeverOvertaken(t *testing.T) {
	h := NewHub(nil, zerolog.Nop())

	registered := make(chan int, 1)
	conn := dialHubSnapshot(t, h, "p1", func() []queue.ChangeEvent {
		registered <- h.ClientCount()
		// A change lands while the snapshot is being taken.
		go func() {
			_ = h.Deliver(context.Background(), queue.ChangeEvent{ProfileID: "p1", Kind: queue.KindCart, Data: "newer"})
		}()
		time.Sleep(50 * time.Millisecond)
		return []queue.ChangeEvent{{ProfileID: "p1", Kind: queue.KindCart, Data: "snapshot"}}
	})

	if n := <-registered; n != 1 {
		t.Fatalf("snapshot taken before the client was registered (clients = %d)", n)
	}
	if got := readEvent(t, conn); got["data"] != "snapshot" {
		t.Fatalf("first event = %v, want the snapshot", got)
	}
	if got := readEvent(t, conn); got["data"] != "newer" {
		t.Fatalf("second event = %v, want the later change", got)
	}
}

func TestHub_NilSnapshot(t *testing.T) {
	h := NewHub(nil, zerolog.Nop())
	conn := dialHubSnapshot(t, h, "p1", nil)

	deadline := time.Now().Add(5 * time.Second)
	for h.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("client not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
	_ = h.Deliver(context.Background(), queue.ChangeEvent{ProfileID: "p1", Kind: queue.KindSession, Data: "x"})
	if got := readEvent(t, conn); got["data"] != "x" {
		t.Fatalf("event = %v", got)
	}
}
