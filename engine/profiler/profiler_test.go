package profiler

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/panorama"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := common.Logger()
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { common.SetLogger(prev) })
	return &buf
}

func TestTickReportsAtInterval(t *testing.T) {
	buf := captureLogs(t)
	clock := &fakeClock{t: time.Unix(100, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(500*time.Millisecond))

	for i := 0; i < 9; i++ {
		clock.t = clock.t.Add(50 * time.Millisecond)
		if p.Tick() {
			t.Fatalf("tick %d reported before the interval", i)
		}
	}
	clock.t = clock.t.Add(50 * time.Millisecond)
	if !p.Tick() {
		t.Fatal("tick at the interval should report")
	}
	if fps := p.Last().FPS; math.Abs(fps-20) > 1e-9 {
		t.Errorf("FPS = %v, want 20", fps)
	}
	if !strings.Contains(buf.String(), "msg=profiler") || !strings.Contains(buf.String(), "fps=20") {
		t.Errorf("log = %q", buf.String())
	}
	if strings.Contains(buf.String(), "visible=") {
		t.Error("streaming attributes logged without a session")
	}

	clock.t = clock.t.Add(100 * time.Millisecond)
	if p.Tick() {
		t.Error("counter should restart after a report")
	}
}

func TestTickIncludesSessionStats(t *testing.T) {
	buf := captureLogs(t)
	s := panorama.NewSession(model.NewSphere(model.WithResolution(8)))
	defer s.Close()

	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithSession(s))
	clock.t = clock.t.Add(2 * time.Second)
	if !p.Tick() {
		t.Fatal("expected a report")
	}
	if got := p.Last().Streaming.Level; got != -1 {
		t.Errorf("Streaming.Level = %d, want -1 before the first scan", got)
	}
	if !strings.Contains(buf.String(), "visible=0") || !strings.Contains(buf.String(), "pending=0") {
		t.Errorf("log = %q", buf.String())
	}
}
