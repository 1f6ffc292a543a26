// mocks.go - Mock collaborators for session and store tests
package testutil

import (
	"context"
	"sync"

	"github.com/RMHEDGE/screens-native/internal/models"
	"github.com/RMHEDGE/screens-native/internal/telemetry"
)

// MockKV implements store.KV in memory with injectable failures.
type MockKV struct {
	mu     sync.Mutex
	data   map[string]string
	GetErr error
	SetErr error
}

// NewMockKV creates an empty mock KV.
func NewMockKV() *MockKV {
	return &MockKV{data: make(map[string]string)}
}

func (kv *MockKV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.GetErr != nil {
		return "", false, kv.GetErr
	}
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *MockKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.SetErr != nil {
		return kv.SetErr
	}
	kv.data[key] = value
	return nil
}

// ScriptedResolver implements session.Resolver with a caller-supplied
// function, so tests can gate completion order.
type ScriptedResolver struct {
	FetchFunc func(ctx context.Context, deviceID string) (models.DisplayNode, error)
}

func (r *ScriptedResolver) Fetch(ctx context.Context, deviceID string) (models.DisplayNode, error) {
	return r.FetchFunc(ctx, deviceID)
}

// SentLog records one Send call on the mock telemetry client.
type SentLog struct {
	LoggerID  string
	ProjectID string
	Data      models.LogEntryData
}

// MockTelemetry implements session.Telemetry and bridge.Sender, recording
// calls and returning injectable errors.
type MockTelemetry struct {
	mu          sync.Mutex
	registered  []string
	sent        []SentLog
	RegisterErr error
	SendErr     error
}

// NewMockTelemetry creates a mock telemetry client.
func NewMockTelemetry() *MockTelemetry {
	return &MockTelemetry{}
}

func (m *MockTelemetry) Register(ctx context.Context, loggerID string) (*telemetry.RegisterAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RegisterErr != nil {
		return nil, m.RegisterErr
	}
	m.registered = append(m.registered, loggerID)
	return &telemetry.RegisterAck{Message: "registered"}, nil
}

func (m *MockTelemetry) Send(ctx context.Context, loggerID, projectID string, data models.LogEntryData) (*telemetry.SendAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return nil, m.SendErr
	}
	m.sent = append(m.sent, SentLog{LoggerID: loggerID, ProjectID: projectID, Data: data})
	return &telemetry.SendAck{ID: "entry-1", Message: "accepted"}, nil
}

// Registered returns the logger IDs registered so far.
func (m *MockTelemetry) Registered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.registered))
	copy(out, m.registered)
	return out
}

// Sent returns the entries delivered so far.
func (m *MockTelemetry) Sent() []SentLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentLog, len(m.sent))
	copy(out, m.sent)
	return out
}
