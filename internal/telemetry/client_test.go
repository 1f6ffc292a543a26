package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RMHEDGE/screens-native/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler, timeout time.Duration) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{BaseURL: srv.URL, Timeout: timeout})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client, srv
}

func TestRegister(t *testing.T) {
	var gotPath, gotMethod string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"logger registered"}`))
	}), 0)

	ack, err := client.Register(context.Background(), "screen-7")
	assert.NoError(t, err)
	assert.Equal(t, "logger registered", ack.Message)
	assert.Equal(t, "/register/screen-7", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestRegisterEmptyLoggerID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request should be issued")
	}), 0)

	_, err := client.Register(context.Background(), "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSend(t *testing.T) {
	var gotPath, gotContentType string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"id":"e-1","message":"accepted"}`))
	}), 0)

	ack, err := client.Send(context.Background(), "screen-7", "dev1", models.LogEntryData{
		Level:   models.LevelWarn,
		Message: "low disk",
		Data:    map[string]interface{}{"free": 12},
	})
	assert.NoError(t, err)
	assert.Equal(t, "e-1", ack.ID)
	assert.Equal(t, "/log/screen-7/dev1", gotPath)
	assert.Equal(t, "application/json", gotContentType)
}

func TestSendValidationIssuesNoRequest(t *testing.T) {
	var requests atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}), 0)

	cases := []struct {
		name string
		data models.LogEntryData
	}{
		{"missing level", models.LogEntryData{Message: "hi"}},
		{"missing message", models.LogEntryData{Level: models.LevelInfo}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.Send(context.Background(), "lg", "pj", tc.data)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
	assert.Equal(t, int64(0), requests.Load(), "validation failures must not reach the network")
}

func TestQueryParamEncoding(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"count":1,"data":[{"id":"e-1","timestamp":"2026-01-01T00:00:00Z","projectId":"dev1","loggerId":"lg","level":"info","message":"hi"}]}`))
	}), 0)

	hours := 6
	limit := 50
	resp, err := client.Query(context.Background(), models.QueryOptions{
		Hours:     &hours,
		Limit:     &limit,
		ProjectID: "dev1",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "dev1", resp.Data[0].ProjectID)
	assert.Equal(t, models.LevelInfo, resp.Data[0].Level)

	assert.Equal(t, []string{"6"}, gotQuery["hours"])
	assert.Equal(t, []string{"50"}, gotQuery["limit"])
	assert.Equal(t, []string{"dev1"}, gotQuery["projectId"])
	_, offsetSent := gotQuery["offset"]
	assert.False(t, offsetSent, "unset options must be omitted, not defaulted")
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), 50*time.Millisecond)
	defer close(release)

	start := time.Now()
	_, err := client.Register(context.Background(), "screen-7")
	elapsed := time.Since(start)

	var terr *TimeoutError
	assert.ErrorAs(t, err, &terr, "deadline must map to TimeoutError, got %v", err)
	assert.Less(t, elapsed, 2*time.Second, "the in-flight request must be cancelled")
}

func TestTransportErrorCarriesServerMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unknown logger"}`))
	}), 0)

	_, err := client.Send(context.Background(), "lg", "pj", models.LogEntryData{
		Level:   models.LevelError,
		Message: "boom",
	})
	var terr *TransportError
	if assert.ErrorAs(t, err, &terr) {
		assert.Equal(t, http.StatusBadRequest, terr.Status)
		assert.Contains(t, terr.Message, "unknown logger")
	}
}
