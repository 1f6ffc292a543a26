package bridge

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RMHEDGE/screens-native/internal/models"
	"github.com/RMHEDGE/screens-native/internal/testutil"
)

// recordingNotifier captures error notifications.
type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
}

func (n *recordingNotifier) Info(title, detail string)    {}
func (n *recordingNotifier) Success(title, detail string) {}

func (n *recordingNotifier) Error(title, detail string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, title)
}

func (n *recordingNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.errors))
	copy(out, n.errors)
	return out
}

func waitSent(t *testing.T, tele *testutil.MockTelemetry, want int) []testutil.SentLog {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sent := tele.Sent(); len(sent) >= want {
			return sent
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d sent entries, got %d", want, len(tele.Sent()))
	return nil
}

func TestConsoleFrameForwarded(t *testing.T) {
	tele := testutil.NewMockTelemetry()
	b := New(tele, "screen-7", "dev1", &recordingNotifier{})

	b.HandleFrame(`{"type":"Console","data":{"level":"warn","message":"slow frame","data":{"ms":412}}}`)

	sent := waitSent(t, tele, 1)
	if sent[0].LoggerID != "screen-7" || sent[0].ProjectID != "dev1" {
		t.Errorf("Wrong identity: %+v", sent[0])
	}
	if sent[0].Data.Level != models.LevelWarn || sent[0].Data.Message != "slow frame" {
		t.Errorf("Wrong entry: %+v", sent[0].Data)
	}
}

func TestMalformedFramesDroppedSilently(t *testing.T) {
	tele := testutil.NewMockTelemetry()
	notifier := &recordingNotifier{}
	b := New(tele, "screen-7", "dev1", notifier)

	frames := []string{
		"not json at all",
		`{"type":"Other","data":{"level":"info","message":"hi"}}`,
		`{"type":"Console","data":{"level":"shout","message":"hi"}}`,
		`{"type":"Console","data":{"level":"info","message":""}}`,
		`{"type":"Console"}`,
	}
	for _, raw := range frames {
		b.HandleFrame(raw)
	}

	time.Sleep(50 * time.Millisecond)
	if sent := tele.Sent(); len(sent) != 0 {
		t.Errorf("Expected no forwarded entries, got %d", len(sent))
	}
	if errs := notifier.Errors(); len(errs) != 0 {
		t.Errorf("Malformed frames must be silent, got notifications %v", errs)
	}
}

func TestSendFailureDegradesToNotification(t *testing.T) {
	tele := testutil.NewMockTelemetry()
	tele.SendErr = errors.New("collector unreachable")
	notifier := &recordingNotifier{}
	b := New(tele, "screen-7", "dev1", notifier)

	b.Forward(models.LogEntryData{Level: models.LevelInfo, Message: "hello"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(notifier.Errors()) == 1 {
			// A failed log-of-a-log must never produce a second log entry.
			if sent := tele.Sent(); len(sent) != 0 {
				t.Errorf("Expected no entries, got %d", len(sent))
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Send failure never surfaced as a notification")
}
