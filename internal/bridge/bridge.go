// Package bridge forwards a render surface's intercepted console output to
// the telemetry client under a stable (logger, device) identity.
package bridge

import (
	"context"
	"encoding/json"

	"github.com/RMHEDGE/screens-native/internal/models"
	"github.com/RMHEDGE/screens-native/internal/notify"
	"github.com/RMHEDGE/screens-native/internal/telemetry"
)

// frameTypeConsole tags surface messages carrying console output.
const frameTypeConsole = "Console"

// Sender ships one log entry to the collector.
type Sender interface {
	Send(ctx context.Context, loggerID, projectID string, data models.LogEntryData) (*telemetry.SendAck, error)
}

// Bridge decodes Console frames from a surface and forwards them
// asynchronously. It holds non-owning references to the logger and device
// identity for as long as it is attached.
type Bridge struct {
	sender   Sender
	loggerID string
	deviceID string
	notifier notify.Notifier
}

// New attaches a bridge for the given identity.
func New(sender Sender, loggerID, deviceID string, notifier notify.Notifier) *Bridge {
	return &Bridge{
		sender:   sender,
		loggerID: loggerID,
		deviceID: deviceID,
		notifier: notifier,
	}
}

// HandleFrame decodes one opaque surface message. Anything that is not a
// well-formed Console frame is dropped silently: surface output is
// best-effort diagnostics, not control signal.
func (b *Bridge) HandleFrame(raw string) {
	var frame struct {
		Type string              `json:"type"`
		Data models.LogEntryData `json:"data"`
	}
	if err := json.Unmarshal([]byte(raw), &frame); err != nil {
		return
	}
	if frame.Type != frameTypeConsole {
		return
	}
	if !frame.Data.Level.Valid() || frame.Data.Message == "" {
		return
	}
	b.Forward(frame.Data)
}

// Forward ships an entry without blocking the renderer. A failed send is
// surfaced as a notification only: logging a failure to log would recurse
// indefinitely.
func (b *Bridge) Forward(entry models.LogEntryData) {
	go func() {
		if _, err := b.sender.Send(context.Background(), b.loggerID, b.deviceID, entry); err != nil {
			if b.notifier != nil {
				b.notifier.Error("Failed to ship log", err.Error())
			}
		}
	}()
}
