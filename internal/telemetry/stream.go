package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/RMHEDGE/screens-native/internal/models"
)

// ProjectAll subscribes to every project on the collector.
const ProjectAll = "all"

// Streaming protocol frame types
const (
	// Client -> Server
	frameTypeSubscribe = "subscribe"

	// Server -> Client
	frameTypeLog          = "log"
	frameTypeSubscribed   = "subscribed"
	frameTypeUnsubscribed = "unsubscribed"
	frameTypeConnected    = "connected"
	frameTypeError        = "error"
)

// wsFrame is one JSON text frame of the streaming protocol, tagged by Type.
type wsFrame struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// StreamCallbacks receive stream lifecycle and log events. Nil callbacks
// are skipped.
type StreamCallbacks struct {
	OnLog   func(models.LogEntry)
	OnOpen  func(subscribed []string)
	OnError func(error)
	OnClose func(code int, reason string)
}

// Stream is one live log subscription over a persistent WebSocket
// connection. There is no automatic reconnect: when the stream closes, the
// caller decides whether to subscribe again.
type Stream struct {
	conn *websocket.Conn
	done chan struct{}
}

// Subscribe opens a live log stream for the given project IDs (use
// ProjectAll for every project). One subscribe frame is sent per ID, as-is,
// with no de-duplication. Each call opens its own connection.
func (c *Client) Subscribe(projectIDs []string, cb StreamCallbacks) (*Stream, error) {
	if len(projectIDs) == 0 {
		return nil, NewValidationError("project IDs")
	}

	scheme := "ws"
	if c.baseURL.Scheme == "https" {
		scheme = "wss"
	}
	wsURL := scheme + "://" + c.baseURL.Host + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("dialing %s: %v", wsURL, err)}
	}

	fmt.Printf("[LogStream] Connected to %s\n", wsURL)

	for _, projectID := range projectIDs {
		frame := wsFrame{Type: frameTypeSubscribe, ProjectID: projectID}
		if err := conn.WriteJSON(frame); err != nil {
			conn.Close()
			return nil, &TransportError{Message: fmt.Sprintf("sending subscribe frame: %v", err)}
		}
	}

	if cb.OnOpen != nil {
		cb.OnOpen(projectIDs)
	}

	s := &Stream{
		conn: conn,
		done: make(chan struct{}),
	}
	go s.readLoop(cb)
	return s, nil
}

// readLoop pumps frames until the connection closes. Malformed frames
// invoke OnError but never close the connection: they are best-effort
// diagnostics, not control signal.
func (s *Stream) readLoop(cb StreamCallbacks) {
	defer close(s.done)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			code, reason := closeDetails(err)
			fmt.Printf("[LogStream] Connection closed. Code: %d, Reason: %s\n", code, reason)
			if cb.OnClose != nil {
				cb.OnClose(code, reason)
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			if cb.OnError != nil {
				cb.OnError(fmt.Errorf("decoding stream frame: %w", err))
			}
			continue
		}

		switch frame.Type {
		case frameTypeLog:
			var entry models.LogEntry
			if err := json.Unmarshal(frame.Data, &entry); err != nil {
				if cb.OnError != nil {
					cb.OnError(fmt.Errorf("decoding log frame: %w", err))
				}
				continue
			}
			if cb.OnLog != nil {
				cb.OnLog(entry)
			}
		case frameTypeSubscribed:
			fmt.Printf("[LogStream] Subscribed to project %s\n", frame.ProjectID)
		case frameTypeUnsubscribed:
			fmt.Printf("[LogStream] Unsubscribed from project %s\n", frame.ProjectID)
		case frameTypeConnected:
			fmt.Printf("[LogStream] Server message: %s\n", frame.Message)
		case frameTypeError:
			// The connection stays open; only the transport closes it.
			if cb.OnError != nil {
				cb.OnError(fmt.Errorf("server stream error: %s", frame.Message))
			}
		default:
			fmt.Printf("[LogStream] Ignoring unknown frame type %q\n", frame.Type)
		}
	}
}

// Close shuts the stream down. The OnClose callback fires once the read
// loop observes the closed connection.
func (s *Stream) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	s.conn.WriteMessage(websocket.CloseMessage, msg)
	return s.conn.Close()
}

// Done is closed once the read loop has exited.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

func closeDetails(err error) (int, string) {
	if ce, ok := err.(*websocket.CloseError); ok {
		return ce.Code, ce.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}
