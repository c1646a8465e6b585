package cli

import (
	"strings"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func TestNewProgressWithETA(t *testing.T) {
	t.Parallel()
	p := NewProgressWithETA(3)
	if p.ProgressState == nil {
		t.Fatal("ProgressState should not be nil")
	}
	if p.numCalculators != 3 {
		t.Errorf("numCalculators = %d, want 3", p.numCalculators)
	}
	if p.progressRate != 0 {
		t.Errorf("initial progressRate = %f, want 0", p.progressRate)
	}
	if p.startTime.IsZero() {
		t.Error("startTime should not be zero")
	}
}

func TestUpdateWithETA_Average(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	p := newProgressWithClock(2, clock.now)

	progress, eta := p.UpdateWithETA(0, 0.25)
	if progress != 0.125 {
		t.Errorf("progress = %f, want 0.125", progress)
	}
	if eta != 0 {
		t.Errorf("eta during warm-up = %v, want 0", eta)
	}
	if progress, _ = p.UpdateWithETA(1, 0.5); progress != 0.375 {
		t.Errorf("progress = %f, want 0.375", progress)
	}
}

func TestUpdateWithETA_Estimate(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	p := newProgressWithClock(1, clock.now)

	// 10% per second from the start.
	clock.advance(time.Second)
	_, eta := p.UpdateWithETA(0, 0.1)
	if eta < 8*time.Second || eta > 10*time.Second {
		t.Errorf("eta = %v, want about 9s", eta)
	}

	clock.advance(time.Second)
	_, eta = p.UpdateWithETA(0, 0.2)
	if eta < 7*time.Second || eta > 9*time.Second {
		t.Errorf("eta = %v, want about 8s", eta)
	}
}

func TestUpdateWithETA_NoProgressKeepsUnknown(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	p := newProgressWithClock(1, clock.now)
	clock.advance(5 * time.Second)
	if _, eta := p.UpdateWithETA(0, 0.0005); eta != 0 {
		t.Errorf("eta = %v, want 0 for negligible progress", eta)
	}
}

func TestGetETA(t *testing.T) {
	t.Parallel()
	p := NewProgressWithETA(1)
	if eta := p.GetETA(); eta != 0 {
		t.Errorf("initial ETA = %v, want 0", eta)
	}

	p.Update(0, 0.5)
	p.progressRate = 0.1
	if eta := p.GetETA(); eta != 5*time.Second {
		t.Errorf("ETA = %v, want 5s", eta)
	}

	p.progressRate = 1e-9
	if eta := p.GetETA(); eta != maxETA {
		t.Errorf("ETA = %v, want cap %v", eta, maxETA)
	}

	p.Update(0, 1.0)
	if eta := p.GetETA(); eta != 0 {
		t.Errorf("ETA at completion = %v, want 0", eta)
	}
}

func TestFormatETA(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		eta      time.Duration
		expected string
	}{
		{0, "calculating..."},
		{-time.Second, "calculating..."},
		{500 * time.Millisecond, "< 1s"},
		{42 * time.Second, "42s"},
		{2 * time.Minute, "2m"},
		{2*time.Minute + 30*time.Second, "2m30s"},
		{time.Hour, "1h"},
		{time.Hour + 15*time.Minute, "1h15m"},
	}
	for _, tc := range testCases {
		if got := FormatETA(tc.eta); got != tc.expected {
			t.Errorf("FormatETA(%v) = %q, want %q", tc.eta, got, tc.expected)
		}
	}
}

func TestFormatProgressBarWithETA(t *testing.T) {
	t.Parallel()
	got := FormatProgressBarWithETA(0.5, 42*time.Second, 10)
	if got != " 50.00% [█████░░░░░] ETA: 42s" {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(FormatProgressBarWithETA(0, 0, 4), "calculating...") {
		t.Error("unknown ETA should read calculating...")
	}
}
