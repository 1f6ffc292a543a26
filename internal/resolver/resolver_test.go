package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RMHEDGE/screens-native/internal/models"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second)
}

func TestFetchLeaf(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/abc123.json" {
			t.Errorf("Unexpected path %s", req.URL.Path)
		}
		w.Write([]byte(`{"url":"https://x.test","reload":5000,"onLoad":""}`))
	})

	node, err := r.Fetch(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	leaf, ok := node.(models.Leaf)
	if !ok {
		t.Fatalf("Expected Leaf, got %T", node)
	}
	if leaf.URL != "https://x.test" || leaf.Reload != 5000 {
		t.Errorf("Unexpected leaf: %+v", leaf)
	}
}

func TestFetchGroup(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"url":"a","reload":1000,"onLoad":""},{"url":"b","reload":2000,"onLoad":""}]`))
	})

	node, err := r.Fetch(context.Background(), "grp1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	group, ok := node.(models.Group)
	if !ok {
		t.Fatalf("Expected Group, got %T", node)
	}
	if len(group.Children) != 2 {
		t.Errorf("Expected 2 children, got %d", len(group.Children))
	}
}

func TestFetchNotFound(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(status)
		})
		_, err := r.Fetch(context.Background(), "nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Status %d: expected ErrNotFound, got %v", status, err)
		}
	}
}

func TestFetchMalformed(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"totally":"unrelated"}`))
	})
	_, err := r.Fetch(context.Background(), "bad")
	var malformed *models.MalformedConfigError
	if !errors.As(err, &malformed) {
		t.Errorf("Expected MalformedConfigError, got %v", err)
	}
}

func TestFetchEmptyDeviceID(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		t.Error("No request should be issued")
	})
	if _, err := r.Fetch(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
