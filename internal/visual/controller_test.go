package visual

import (
	"errors"
	"testing"

	"diffreview/internal/domain"
)

type countingLock struct {
	acquired, released int
}

func (l *countingLock) Acquire() { l.acquired++ }
func (l *countingLock) Release() { l.released++ }

func TestToggleHeatmap_TwiceRestoresMode(t *testing.T) {
	c := NewController(true, nil)
	orig := c.State().Mode
	if _, err := c.ToggleHeatmap(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if c.State().Mode != ModeHeatmap {
		t.Errorf("expected heatmap, got %q", c.State().Mode)
	}
	if _, err := c.ToggleHeatmap(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if c.State().Mode != orig {
		t.Errorf("mode %q after two toggles, want %q", c.State().Mode, orig)
	}
}

func TestToggleHeatmap_WithoutArtifact(t *testing.T) {
	c := NewController(false, nil)
	if c.CanToggleHeatmap() {
		t.Error("toggle should not be offered without a heatmap")
	}
	if _, err := c.ToggleHeatmap(); !errors.Is(err, ErrNoHeatmap) {
		t.Errorf("expected ErrNoHeatmap, got %v", err)
	}
	if c.State().Mode != ModeHighlight {
		t.Error("mode changed")
	}
}

func TestEnlarge_IdempotentAndPaired(t *testing.T) {
	lock := &countingLock{}
	c := NewController(true, lock)
	_, _ = c.ToggleHeatmap()

	if err := c.OpenEnlarged(TargetImage1); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.OpenEnlarged(TargetPrimary); err != nil {
		t.Fatalf("open: %v", err)
	}
	st := c.State()
	if st.Enlarged != TargetPrimary || !st.Blocked {
		t.Errorf("unexpected state %+v", st)
	}
	if st.Mode != ModeHeatmap {
		t.Error("enlarging changed mode")
	}

	c.CloseEnlarged()
	c.CloseEnlarged()
	if lock.acquired != 1 || lock.released != 1 {
		t.Errorf("acquired=%d released=%d", lock.acquired, lock.released)
	}
	if c.State().Blocked {
		t.Error("still blocked after close")
	}
}

func TestEnlarge_RejectsUnknownTarget(t *testing.T) {
	lock := &countingLock{}
	c := NewController(false, lock)
	if err := c.OpenEnlarged(TargetNone); err == nil {
		t.Error("expected error for none target")
	}
	if lock.acquired != 0 {
		t.Error("lock acquired for rejected target")
	}
}

func TestReleaseOnEveryExitPath(t *testing.T) {
	exits := map[string]func(c *Controller){
		"escape":   func(c *Controller) { _ = c.Dismiss(SignalEscape) },
		"backdrop": func(c *Controller) { _ = c.Dismiss(SignalBackdrop) },
		"reset":    func(c *Controller) { c.Reset(false) },
		"close":    func(c *Controller) { c.Close() },
	}
	for name, exit := range exits {
		t.Run(name, func(t *testing.T) {
			lock := &countingLock{}
			c := NewController(true, lock)
			_ = c.OpenEnlarged(TargetImage2)
			exit(c)
			if lock.released != 1 {
				t.Errorf("released=%d", lock.released)
			}
			if c.State().Enlarged != TargetNone {
				t.Errorf("still enlarged: %q", c.State().Enlarged)
			}
		})
	}
}

func TestReset_RestoresDefaults(t *testing.T) {
	c := NewController(true, nil)
	_, _ = c.ToggleHeatmap()
	_ = c.OpenEnlarged(TargetPrimary)
	c.Reset(false)
	st := c.State()
	if st.Mode != ModeHighlight || st.Enlarged != TargetNone || st.HeatmapAvailable {
		t.Errorf("unexpected state after reset: %+v", st)
	}
}

func TestSource(t *testing.T) {
	cmp := domain.Comparison{
		Images:    domain.ImageRefs{Image1URL: "a", Image2URL: "b"},
		Artifacts: domain.Artifacts{HighlightURL: "hl", HeatmapURL: "hm"},
	}
	tests := []struct {
		target Target
		mode   Mode
		want   string
	}{
		{TargetImage1, ModeHeatmap, "a"},
		{TargetImage2, ModeHighlight, "b"},
		{TargetPrimary, ModeHighlight, "hl"},
		{TargetPrimary, ModeHeatmap, "hm"},
		{TargetNone, ModeHighlight, ""},
	}
	for _, tt := range tests {
		if got := Source(cmp, tt.target, tt.mode); got != tt.want {
			t.Errorf("Source(%s,%s) = %q, want %q", tt.target, tt.mode, got, tt.want)
		}
	}
}

func TestState_ReportsLockState(t *testing.T) {
	flag := &BlockFlag{}
	c := NewController(false, flag)
	if err := c.OpenEnlarged(TargetImage1); err != nil {
		t.Fatalf("open: %v", err)
	}
	if !flag.Blocked() || !c.State().Blocked {
		t.Errorf("flag=%v state=%v, want both blocked", flag.Blocked(), c.State().Blocked)
	}
	c.CloseEnlarged()
	if flag.Blocked() || c.State().Blocked {
		t.Errorf("flag=%v state=%v, want both released", flag.Blocked(), c.State().Blocked)
	}

	// locks that cannot report fall back to the controller's own pairing
	counting := &countingLock{}
	c = NewController(false, counting)
	_ = c.OpenEnlarged(TargetImage2)
	if !c.State().Blocked {
		t.Error("state should report blocked while enlarged")
	}
}
