package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/RMHEDGE/screens-native/internal/models"
)

// streamServer is a scripted collector WebSocket endpoint.
type streamServer struct {
	upgrader   websocket.Upgrader
	subscribes chan wsFrame
	conns      chan *websocket.Conn
}

func newStreamServer(t *testing.T) (*Client, *streamServer) {
	t.Helper()
	ss := &streamServer{
		subscribes: make(chan wsFrame, 8),
		conns:      make(chan *websocket.Conn, 1),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := ss.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		ss.conns <- conn
		for {
			var frame wsFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			ss.subscribes <- frame
		}
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client, ss
}

func (ss *streamServer) conn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-ss.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("Server never saw a connection")
		return nil
	}
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for %s", what)
		panic("unreachable")
	}
}

func TestSubscribeSendsOneFramePerProject(t *testing.T) {
	client, ss := newStreamServer(t)

	opened := make(chan []string, 1)
	stream, err := client.Subscribe([]string{"dev1", "dev2", "dev1"}, StreamCallbacks{
		OnOpen: func(subscribed []string) { opened <- subscribed },
	})
	assert.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []string{"dev1", "dev2", "dev1"}, waitFor(t, opened, "OnOpen"))

	var got []string
	for i := 0; i < 3; i++ {
		frame := waitFor(t, ss.subscribes, "subscribe frame")
		assert.Equal(t, frameTypeSubscribe, frame.Type)
		got = append(got, frame.ProjectID)
	}
	// Repeated IDs are sent as-is, no de-duplication.
	assert.Equal(t, []string{"dev1", "dev2", "dev1"}, got)
}

func TestSubscribeNoProjects(t *testing.T) {
	client, _ := newStreamServer(t)
	_, err := client.Subscribe(nil, StreamCallbacks{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestMalformedFrameDoesNotCloseStream(t *testing.T) {
	client, ss := newStreamServer(t)

	logs := make(chan models.LogEntry, 1)
	errs := make(chan error, 4)
	closed := make(chan int, 1)
	stream, err := client.Subscribe([]string{ProjectAll}, StreamCallbacks{
		OnLog:   func(e models.LogEntry) { logs <- e },
		OnError: func(err error) { errs <- err },
		OnClose: func(code int, reason string) { closed <- code },
	})
	assert.NoError(t, err)
	defer stream.Close()

	conn := ss.conn(t)
	waitFor(t, ss.subscribes, "subscribe frame")

	// A non-JSON frame must invoke OnError and leave the stream open.
	assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	waitFor(t, errs, "OnError for malformed frame")

	// A server error frame also invokes OnError without closing.
	assert.NoError(t, conn.WriteJSON(wsFrame{Type: frameTypeError, Message: "bad subscription"}))
	err = waitFor(t, errs, "OnError for server error frame")
	assert.Contains(t, err.Error(), "bad subscription")

	// A subsequent valid log frame still reaches OnLog.
	assert.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "log",
		"data": map[string]interface{}{
			"id":        "e-9",
			"timestamp": "2026-01-01T00:00:00Z",
			"projectId": "dev1",
			"loggerId":  "lg",
			"level":     "error",
			"message":   "page crashed",
		},
	}))
	entry := waitFor(t, logs, "OnLog")
	assert.Equal(t, "e-9", entry.ID)
	assert.Equal(t, models.LevelError, entry.Level)

	select {
	case code := <-closed:
		t.Fatalf("Stream closed unexpectedly with code %d", code)
	default:
	}
}

func TestServerCloseInvokesOnClose(t *testing.T) {
	client, ss := newStreamServer(t)

	closed := make(chan int, 1)
	stream, err := client.Subscribe([]string{"dev1"}, StreamCallbacks{
		OnClose: func(code int, reason string) { closed <- code },
	})
	assert.NoError(t, err)
	defer stream.Close()

	conn := ss.conn(t)
	waitFor(t, ss.subscribes, "subscribe frame")

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
	assert.NoError(t, conn.WriteMessage(websocket.CloseMessage, msg))
	conn.Close()

	code := waitFor(t, closed, "OnClose")
	assert.Equal(t, websocket.CloseGoingAway, code)

	select {
	case <-stream.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Stream read loop never exited")
	}
}
