package display

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RMHEDGE/screens-native/internal/models"
)

// Sink receives the opaque text frames a leaf's surface emits.
type Sink interface {
	HandleFrame(raw string)
}

// Renderer runs a display tree on render surfaces until its context is
// cancelled. Each leaf owns an independent reload timer; group children run
// concurrently with no cross-leaf ordering.
type Renderer struct {
	surfaces SurfaceFactory
}

// New creates a renderer.
func New(surfaces SurfaceFactory) *Renderer {
	return &Renderer{surfaces: surfaces}
}

// Render drives the tree until ctx is cancelled, handing every surface
// frame to sink (which may be nil). Leaves fail independently: one dead
// surface never tears down its siblings, so the group waits for every
// child and reports the first failure only after all have finished.
func (r *Renderer) Render(ctx context.Context, node models.DisplayNode, sink Sink) error {
	switch n := node.(type) {
	case models.Leaf:
		return r.runLeaf(ctx, n, sink)
	case models.Group:
		var g errgroup.Group
		for _, child := range n.Children {
			child := child
			g.Go(func() error {
				return r.Render(ctx, child, sink)
			})
		}
		return g.Wait()
	default:
		return fmt.Errorf("unknown display node %T", node)
	}
}

// runLeaf opens a surface for the leaf and pumps its messages. When the
// reload timer fires, or the surface dies, the surface is torn down and a
// fresh one is created, restarting the injected script and the timer.
// Reload 0 disables the timer.
func (r *Renderer) runLeaf(ctx context.Context, leaf models.Leaf, sink Sink) error {
	script := composeScript(leaf.OnLoad)
	for {
		surface := r.surfaces()
		if err := surface.Open(leaf.URL, script); err != nil {
			surface.Close()
			fmt.Printf("[Display] Failed to open surface for %s: %v\n", leaf.URL, err)
			return fmt.Errorf("opening surface for %s: %w", leaf.URL, err)
		}

		var timer *time.Timer
		var timerC <-chan time.Time
		if leaf.Reload > 0 {
			timer = time.NewTimer(time.Duration(leaf.Reload) * time.Millisecond)
			timerC = timer.C
		}

		alive := true
		for alive {
			select {
			case <-ctx.Done():
				surface.Close()
				if timer != nil {
					timer.Stop()
				}
				return nil
			case raw, ok := <-surface.Messages():
				if !ok {
					// Surface died; recreate it from scratch.
					fmt.Printf("[Display] Surface for %s went away, recreating\n", leaf.URL)
					alive = false
					break
				}
				if sink != nil {
					sink.HandleFrame(raw)
				}
			case <-timerC:
				alive = false
			}
		}
		surface.Close()
		if timer != nil {
			timer.Stop()
		}
	}
}
