// Package display drives the display tree: it runs each leaf on its own
// render surface with an independent reload timer, and renders group
// children concurrently.
package display

import "strings"

// Surface is the black-box rendering collaborator: a sandboxed view that
// loads a URL, runs an injected startup script, and emits opaque text
// messages from the page. Surfaces are single-use: a reload closes the
// surface and opens a fresh one, never navigates in place.
type Surface interface {
	Open(url, script string) error
	// Messages delivers text frames posted by the page. The channel is
	// closed when the surface dies.
	Messages() <-chan string
	Close() error
}

// SurfaceFactory creates a fresh surface for each leaf (re)load.
type SurfaceFactory func() Surface

// consoleShim reroutes the page's console calls into structured Console
// frames on the surface's message channel.
const consoleShim = `(() => {
  const post = (msg) => {
    if (window.__screensPost) window.__screensPost(JSON.stringify(msg));
  };
  for (const level of ['debug', 'info', 'warn', 'error', 'log']) {
    const original = console[level];
    console[level] = (...args) => {
      original.apply(console, args);
      post({
        type: 'Console',
        data: {
          level: level === 'log' ? 'info' : level,
          message: args.map(a => typeof a === 'string' ? a : JSON.stringify(a)).join(' '),
        },
      });
    };
  }
})();`

// composeScript builds the injected startup script for a leaf: the leaf's
// onLoad body first, then the console shim.
func composeScript(onLoad string) string {
	parts := make([]string, 0, 2)
	if onLoad != "" {
		parts = append(parts, "(() => {"+onLoad+"})()")
	}
	parts = append(parts, consoleShim)
	return strings.Join(parts, "\n")
}
