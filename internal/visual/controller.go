// Package visual tracks which result image a reviewer sees and whether one is
// enlarged over the page.
package visual

import (
	"errors"
	"fmt"

	"diffreview/internal/domain"
)

type Mode string

const (
	ModeHighlight Mode = "highlight"
	ModeHeatmap   Mode = "heatmap"
)

// Target is the image shown enlarged. Primary is the highlight or heatmap
// artifact, depending on the mode.
type Target string

const (
	TargetNone    Target = "none"
	TargetImage1  Target = "image1"
	TargetImage2  Target = "image2"
	TargetPrimary Target = "primary"
)

func ParseTarget(s string) (Target, error) {
	switch t := Target(s); t {
	case TargetImage1, TargetImage2, TargetPrimary:
		return t, nil
	}
	return "", &domain.ValidationError{Field: "target", Reason: fmt.Sprintf("unknown target %q", s)}
}

// Signal is an external request to dismiss the enlarged view.
type Signal string

const (
	SignalEscape   Signal = "escape"
	SignalBackdrop Signal = "backdrop"
)

var ErrNoHeatmap = errors.New("no heatmap artifact for this comparison")

// Lock blocks the page behind an enlarged image. Acquire and Release are
// always paired by the Controller.
type Lock interface {
	Acquire()
	Release()
}

// Blocker is a Lock that can report whether it currently blocks the page.
type Blocker interface {
	Blocked() bool
}

// BlockFlag is a Lock that only records whether the background is blocked.
// The HTTP view reports it so the UI can disable scrolling.
type BlockFlag struct{ held bool }

func (b *BlockFlag) Acquire()      { b.held = true }
func (b *BlockFlag) Release()      { b.held = false }
func (b *BlockFlag) Blocked() bool { return b.held }

// State is a snapshot of the controller.
type State struct {
	Mode             Mode
	Enlarged         Target
	Blocked          bool
	HeatmapAvailable bool
}

// Controller is not safe for concurrent use; the owning session serializes it.
type Controller struct {
	mode     Mode
	enlarged Target
	heatmap  bool
	lock     Lock
	held     bool
}

func NewController(hasHeatmap bool, lock Lock) *Controller {
	if lock == nil {
		lock = &BlockFlag{}
	}
	return &Controller{mode: ModeHighlight, enlarged: TargetNone, heatmap: hasHeatmap, lock: lock}
}

// CanToggleHeatmap reports whether the heatmap affordance may be offered.
func (c *Controller) CanToggleHeatmap() bool { return c.heatmap }

func (c *Controller) ToggleHeatmap() (Mode, error) {
	if !c.heatmap {
		return c.mode, ErrNoHeatmap
	}
	if c.mode == ModeHeatmap {
		c.mode = ModeHighlight
	} else {
		c.mode = ModeHeatmap
	}
	return c.mode, nil
}

// OpenEnlarged shows t over the page, replacing any open target.
func (c *Controller) OpenEnlarged(t Target) error {
	if _, err := ParseTarget(string(t)); err != nil {
		return err
	}
	if !c.held {
		c.lock.Acquire()
		c.held = true
	}
	c.enlarged = t
	return nil
}

// CloseEnlarged is a no-op when nothing is enlarged.
func (c *Controller) CloseEnlarged() {
	c.enlarged = TargetNone
	c.release()
}

// Dismiss handles escape and backdrop clicks.
func (c *Controller) Dismiss(s Signal) error {
	switch s {
	case SignalEscape, SignalBackdrop:
		c.CloseEnlarged()
		return nil
	}
	return &domain.ValidationError{Field: "signal", Reason: fmt.Sprintf("unknown signal %q", s)}
}

// Reset returns to defaults for a newly opened comparison.
func (c *Controller) Reset(hasHeatmap bool) {
	c.CloseEnlarged()
	c.mode = ModeHighlight
	c.heatmap = hasHeatmap
}

// Close releases the lock when the session goes away.
func (c *Controller) Close() { c.CloseEnlarged() }

func (c *Controller) State() State {
	blocked := c.held
	if b, ok := c.lock.(Blocker); ok {
		blocked = b.Blocked()
	}
	return State{Mode: c.mode, Enlarged: c.enlarged, Blocked: blocked, HeatmapAvailable: c.heatmap}
}

func (c *Controller) release() {
	if c.held {
		c.held = false
		c.lock.Release()
	}
}

// Source resolves the URL displayed for target under mode.
func Source(cmp domain.Comparison, t Target, m Mode) string {
	switch t {
	case TargetImage1:
		return cmp.Images.Image1URL
	case TargetImage2:
		return cmp.Images.Image2URL
	case TargetPrimary:
		if m == ModeHeatmap && cmp.HasHeatmap() {
			return cmp.Artifacts.HeatmapURL
		}
		return cmp.Artifacts.HighlightURL
	}
	return ""
}
