// Package session implements the top-level state machine of the display
// agent: startup, operator provisioning, and the displaying loop driven by
// remote-control events.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/RMHEDGE/screens-native/internal/bridge"
	"github.com/RMHEDGE/screens-native/internal/display"
	"github.com/RMHEDGE/screens-native/internal/models"
	"github.com/RMHEDGE/screens-native/internal/notify"
	"github.com/RMHEDGE/screens-native/internal/telemetry"
)

// Phase is the controller's lifecycle phase. There is no terminal phase:
// once displaying, the agent runs until the process is restarted.
type Phase string

const (
	PhaseStartup    Phase = "startup"
	PhaseNeedsInput Phase = "needsInput"
	PhaseDisplaying Phase = "displaying"
)

// Event is one message on the controller's inbox. All state mutation
// happens on the Run goroutine, one event at a time.
type Event interface {
	isEvent()
}

// SubmitDeviceID is the operator supplying (or replacing) the device ID.
type SubmitDeviceID struct {
	DeviceID string
}

// ControlReload re-fetches the display tree for the current device ID and
// replaces it wholesale.
type ControlReload struct{}

// ControlRestart triggers a full process-level restart via the host hook.
type ControlRestart struct{}

// fetchDone is the completion of a config fetch launched earlier. Gen
// stamps the launch order so a slow older fetch can never overwrite the
// result of a newer one.
type fetchDone struct {
	gen      uint64
	deviceID string
	tree     models.DisplayNode
	err      error
}

func (SubmitDeviceID) isEvent() {}
func (ControlReload) isEvent()  {}
func (ControlRestart) isEvent() {}
func (fetchDone) isEvent()      {}

// Store persists the last-known (tree, device ID) pair.
type Store interface {
	Load() (models.DisplayNode, string, bool)
	Save(tree models.DisplayNode, deviceID string) error
}

// Resolver fetches a display tree by device ID.
type Resolver interface {
	Fetch(ctx context.Context, deviceID string) (models.DisplayNode, error)
}

// Telemetry is the slice of the collector client the controller uses.
type Telemetry interface {
	Register(ctx context.Context, loggerID string) (*telemetry.RegisterAck, error)
	Send(ctx context.Context, loggerID, projectID string, data models.LogEntryData) (*telemetry.SendAck, error)
}

// Renderer renders a display tree until its context is cancelled.
type Renderer interface {
	Render(ctx context.Context, node models.DisplayNode, sink display.Sink) error
}

// Options wires a Controller.
type Options struct {
	Store     Store
	Resolver  Resolver
	Telemetry Telemetry
	Renderer  Renderer
	Notifier  notify.Notifier
	LoggerID  string
	// DefaultDeviceID, when set, is submitted automatically on first boot
	// if the store holds no config (zero-touch provisioning).
	DefaultDeviceID string
	// Restart performs the host platform's full process restart.
	Restart func()
}

// Controller owns the session state: the current phase, display tree and
// device ID. It is the single logical writer of the config store.
type Controller struct {
	store     Store
	resolver  Resolver
	telemetry Telemetry
	renderer  Renderer
	notifier  notify.Notifier
	loggerID  string
	defaultID string
	restart   func()

	events chan Event

	// Owned by the Run goroutine.
	runCtx       context.Context
	tree         models.DisplayNode
	fetchSeq     uint64
	appliedGen   uint64
	renderCancel context.CancelFunc

	// Snapshot for concurrent readers (status endpoint).
	mu       sync.RWMutex
	phase    Phase
	deviceID string
}

// New creates a controller in the startup phase.
func New(opts Options) *Controller {
	return &Controller{
		store:     opts.Store,
		resolver:  opts.Resolver,
		telemetry: opts.Telemetry,
		renderer:  opts.Renderer,
		notifier:  opts.Notifier,
		loggerID:  opts.LoggerID,
		defaultID: opts.DefaultDeviceID,
		restart:   opts.Restart,
		events:    make(chan Event, 16),
		phase:     PhaseStartup,
	}
}

// Enqueue puts an event on the controller's inbox.
func (c *Controller) Enqueue(ev Event) {
	c.events <- ev
}

// Status returns the current phase and device ID.
func (c *Controller) Status() (Phase, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase, c.deviceID
}

func (c *Controller) setStatus(phase Phase, deviceID string) {
	c.mu.Lock()
	c.phase = phase
	c.deviceID = deviceID
	c.mu.Unlock()
}

// Run consumes the inbox until ctx is cancelled. All transitions happen
// here, serialized.
func (c *Controller) Run(ctx context.Context) {
	c.runCtx = ctx
	c.startup()

	for {
		select {
		case <-ctx.Done():
			if c.renderCancel != nil {
				c.renderCancel()
			}
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// startup resolves the initial phase from the config store. A stored pair
// goes straight to displaying; otherwise the preset device ID (if any) is
// submitted, else the agent waits for operator input.
func (c *Controller) startup() {
	if tree, deviceID, ok := c.store.Load(); ok {
		fmt.Printf("[Session] Restored config for device %s\n", deviceID)
		c.emitStartupLog(deviceID)
		c.setDisplaying(tree, deviceID)
		return
	}

	if c.defaultID != "" {
		fmt.Printf("[Session] No stored config, provisioning as %s\n", c.defaultID)
		c.setStatus(PhaseNeedsInput, "")
		c.launchFetch(c.defaultID)
		return
	}

	fmt.Println("[Session] No stored config, waiting for operator input")
	c.setStatus(PhaseNeedsInput, "")
}

func (c *Controller) handle(ev Event) {
	switch e := ev.(type) {
	case SubmitDeviceID:
		if e.DeviceID == "" {
			c.notifier.Error("Failed to get config", "device ID is empty")
			return
		}
		c.notifier.Info("Checking config...", "")
		c.launchFetch(e.DeviceID)

	case ControlReload:
		phase, deviceID := c.Status()
		if phase != PhaseDisplaying {
			c.notifier.Error("Nothing to reload", "no display is active")
			return
		}
		c.launchFetch(deviceID)

	case ControlRestart:
		c.notifier.Info("Restarting", "")
		if c.restart != nil {
			c.restart()
		}

	case fetchDone:
		c.handleFetchDone(e)
	}
}

// launchFetch starts a config fetch for deviceID. The completion re-enters
// the inbox stamped with its launch generation.
func (c *Controller) launchFetch(deviceID string) {
	c.fetchSeq++
	gen := c.fetchSeq
	ctx := c.runCtx
	go func() {
		tree, err := c.resolver.Fetch(ctx, deviceID)
		select {
		case c.events <- fetchDone{gen: gen, deviceID: deviceID, tree: tree, err: err}:
		case <-ctx.Done():
		}
	}()
}

// handleFetchDone applies a completed fetch. Failures never change phase:
// the agent keeps displaying the last-good tree or keeps waiting for
// input. A completion older than the last applied one is discarded so a
// racing slow fetch cannot roll the display back.
func (c *Controller) handleFetchDone(e fetchDone) {
	if e.err != nil {
		c.notifier.Error("Failed to get config", e.err.Error())
		c.shipErrorLog(e.deviceID, "config fetch failed", e.err)
		return
	}
	if e.gen <= c.appliedGen {
		fmt.Printf("[Session] Discarding stale fetch result for %s (gen %d <= %d)\n",
			e.deviceID, e.gen, c.appliedGen)
		return
	}
	c.appliedGen = e.gen

	phase, _ := c.Status()
	wasDisplaying := phase == PhaseDisplaying

	c.setDisplaying(e.tree, e.deviceID)
	c.persistAsync(e.tree, e.deviceID)

	if wasDisplaying {
		fmt.Printf("[Session] Replaced display tree for %s\n", e.deviceID)
	}
}

// setDisplaying replaces the current tree wholesale and (re)starts
// rendering under a fresh bridge bound to the device ID.
func (c *Controller) setDisplaying(tree models.DisplayNode, deviceID string) {
	if c.renderCancel != nil {
		c.renderCancel()
	}
	rctx, cancel := context.WithCancel(c.runCtx)
	c.renderCancel = cancel

	c.tree = tree
	c.setStatus(PhaseDisplaying, deviceID)

	sink := bridge.New(c.telemetry, c.loggerID, deviceID, c.notifier)
	go func() {
		if err := c.renderer.Render(rctx, tree, sink); err != nil {
			fmt.Printf("[Session] Render stopped with error: %v\n", err)
		}
	}()
}

// persistAsync saves the pair off the event loop. The outcome is surfaced
// either way; it never blocks the transition.
func (c *Controller) persistAsync(tree models.DisplayNode, deviceID string) {
	go func() {
		if err := c.store.Save(tree, deviceID); err != nil {
			c.notifier.Error("Failed to save config", err.Error())
			return
		}
		c.notifier.Success("Saved config", "On load, this screen will be configured")
	}()
}

// emitStartupLog registers the logger and queues one startup entry.
// Registration and delivery are best-effort: telemetry failures never gate
// the session.
func (c *Controller) emitStartupLog(deviceID string) {
	ctx := c.runCtx
	go func() {
		if _, err := c.telemetry.Register(ctx, c.loggerID); err != nil {
			fmt.Printf("[Session] Logger registration failed: %v\n", err)
		}
		entry := models.LogEntryData{
			Level:   models.LevelInfo,
			Message: "display agent started",
			Data:    map[string]interface{}{"deviceId": deviceID},
		}
		if _, err := c.telemetry.Send(ctx, c.loggerID, deviceID, entry); err != nil {
			fmt.Printf("[Session] Startup log delivery failed: %v\n", err)
		}
	}()
}

// shipErrorLog forwards a non-telemetry failure to the collector when a
// device identity is already known. Telemetry's own failures stay local.
func (c *Controller) shipErrorLog(deviceID, message string, cause error) {
	if deviceID == "" {
		return
	}
	ctx := c.runCtx
	go func() {
		entry := models.LogEntryData{
			Level:   models.LevelError,
			Message: message,
			Data:    map[string]interface{}{"error": cause.Error()},
		}
		if _, err := c.telemetry.Send(ctx, c.loggerID, deviceID, entry); err != nil {
			fmt.Printf("[Session] Error log delivery failed: %v\n", err)
		}
	}()
}
