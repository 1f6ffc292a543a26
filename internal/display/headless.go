package display

import "fmt"

// headlessSurface stands in for the platform render surface when the agent
// runs without one attached (tests, provisioning, kiosk hosts that embed
// their own). It accepts every open and emits no messages.
type headlessSurface struct{}

func (headlessSurface) Open(url, script string) error {
	fmt.Printf("[Display] (headless) open %s\n", url)
	return nil
}

func (headlessSurface) Messages() <-chan string {
	return nil
}

func (headlessSurface) Close() error {
	return nil
}

// HeadlessFactory creates headless surfaces.
func HeadlessFactory() Surface {
	return headlessSurface{}
}
