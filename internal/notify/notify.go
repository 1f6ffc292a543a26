// Package notify surfaces transient operator notifications, the unattended
// equivalent of an on-screen toast.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind categorizes a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is one transient operator message: a short title plus the
// stringified detail.
type Notification struct {
	ID     string    `json:"id"`
	Kind   Kind      `json:"kind"`
	Title  string    `json:"title"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Notifier receives operator notifications.
type Notifier interface {
	Info(title, detail string)
	Success(title, detail string)
	Error(title, detail string)
}

// Console logs notifications and keeps a bounded ring of recent ones for
// the status endpoint.
type Console struct {
	mu     sync.Mutex
	recent []Notification
	max    int
}

// NewConsole creates a console notifier retaining up to max notifications.
func NewConsole(max int) *Console {
	if max <= 0 {
		max = 20
	}
	return &Console{max: max}
}

func (c *Console) Info(title, detail string)    { c.push(KindInfo, title, detail) }
func (c *Console) Success(title, detail string) { c.push(KindSuccess, title, detail) }
func (c *Console) Error(title, detail string)   { c.push(KindError, title, detail) }

func (c *Console) push(kind Kind, title, detail string) {
	n := Notification{
		ID:     uuid.New().String(),
		Kind:   kind,
		Title:  title,
		Detail: detail,
		At:     time.Now(),
	}

	if detail != "" {
		fmt.Printf("[Notify] %s: %s (%s)\n", kind, title, detail)
	} else {
		fmt.Printf("[Notify] %s: %s\n", kind, title)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.recent = append(c.recent, n)
	if len(c.recent) > c.max {
		c.recent = c.recent[len(c.recent)-c.max:]
	}
}

// Recent returns the retained notifications, oldest first.
func (c *Console) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.recent))
	copy(out, c.recent)
	return out
}
