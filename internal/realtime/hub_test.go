package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// connect dials a test server that attaches the connection to topic and
// waits until the hub has registered it.
func connect(t *testing.T, hub *Hub, topic string, greeting []byte) (*websocket.Conn, func()) {
	t.Helper()
	attached := make(chan struct{})
	upgrader := NewUpgrader("")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Attach(conn, topic, greeting)
		close(attached)
	}))

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	select {
	case <-attached:
	case <-time.After(time.Second):
		t.Fatal("client was never attached")
	}
	return ws, func() {
		ws.Close()
		server.Close()
	}
}

func readFrame(t *testing.T, ws *websocket.Conn) []byte {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func TestHub_PublishReachesTopicOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	wsA, closeA := connect(t, hub, "kiosk-a", nil)
	defer closeA()
	wsB, closeB := connect(t, hub, "kiosk-b", nil)
	defer closeB()

	if err := hub.Publish(ctx, "kiosk-a", []byte("hello-a")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := string(readFrame(t, wsA)); got != "hello-a" {
		t.Errorf("expected hello-a, got %s", got)
	}

	_ = wsB.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, data, err := wsB.ReadMessage(); err == nil {
		t.Errorf("kiosk-b should not receive kiosk-a frames, got %s", data)
	}
}

func TestHub_GreetingIsFirstFrame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	greeting, err := Encode(TypeView, map[string]string{"status": "loading"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ws, closeWS := connect(t, hub, "kiosk-a", greeting)
	defer closeWS()

	var env Envelope
	if err := json.Unmarshal(readFrame(t, ws), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != TypeView {
		t.Errorf("expected view frame, got %q", env.Type)
	}
	if len(env.ID) != 26 {
		t.Errorf("expected a ULID id, got %q", env.ID)
	}
}

func TestHub_ConnectedCountsPerTopic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	if n, err := hub.Connected(ctx, "kiosk-a"); err != nil || n != 0 {
		t.Fatalf("expected 0 clients, got %d (%v)", n, err)
	}

	ws, closeWS := connect(t, hub, "kiosk-a", nil)
	if n, _ := hub.Connected(ctx, "kiosk-a"); n != 1 {
		t.Errorf("expected 1 client, got %d", n)
	}

	ws.Close()
	closeWS()
	deadline := time.Now().Add(time.Second)
	for {
		n, _ := hub.Connected(ctx, "kiosk-a")
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("client still registered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	ws, closeWS := connect(t, hub, "kiosk-a", nil)
	defer closeWS()

	cancel()
	<-hub.done

	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed")
	}
	if err := hub.Publish(context.Background(), "kiosk-a", []byte("late")); err != ErrHubStopped {
		t.Errorf("expected ErrHubStopped, got %v", err)
	}
}
