package session

import "time"

// Display is the surface the presentation toolkit renders to. The session
// never draws stimuli itself; it only needs to schedule work on the next
// refresh and to present text through the toolkit.
type Display interface {
	// OnFlip registers fn to run at the next Flip, aligned with the refresh.
	OnFlip(fn func())
	// DrawText queues text for the next Flip.
	DrawText(text string)
	// Flip presents the back buffer and runs any pending on-flip callbacks.
	Flip() error
	Close() error
}

// SimDisplay stands in for a real window: flips pace themselves at a nominal
// refresh rate and on-flip callbacks run synchronously. It backs tests and
// the simulate command.
type SimDisplay struct {
	Framerate float64 // Hz; 0 means flips return immediately

	pending  []func()
	lastText string
	flips    int
	closed   bool
}

// NewSimDisplay returns a simulated display at the given refresh rate.
func NewSimDisplay(framerate float64) *SimDisplay {
	return &SimDisplay{Framerate: framerate}
}

// OnFlip registers fn to run at the next Flip.
func (d *SimDisplay) OnFlip(fn func()) {
	d.pending = append(d.pending, fn)
}

// DrawText records the text that a real display would render.
func (d *SimDisplay) DrawText(text string) {
	d.lastText = text
}

// Flip waits one nominal frame, then runs pending callbacks in order.
func (d *SimDisplay) Flip() error {
	if d.Framerate > 0 {
		time.Sleep(time.Duration(float64(time.Second) / d.Framerate))
	}
	d.flips++
	pending := d.pending
	d.pending = nil
	for _, fn := range pending {
		fn()
	}
	return nil
}

// Close releases the display.
func (d *SimDisplay) Close() error {
	d.closed = true
	return nil
}

// Flips reports how many times the display flipped.
func (d *SimDisplay) Flips() int {
	return d.flips
}

// LastText returns the most recently drawn text.
func (d *SimDisplay) LastText() string {
	return d.lastText
}
