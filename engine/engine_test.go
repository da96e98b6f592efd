package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/panorama"
	"github.com/Carmen-Shannon/oxy-pano/engine/pyramid"
)

// recordingSession counts the calls the engine makes.
type recordingSession struct {
	mu           sync.Mutex
	refreshed    []camera.State
	processed    int
	needsRedraw  bool
	needsRefresh bool
	drawn        int
	redrawAfter  int // ProcessCompletions call that flags a redraw
}

var _ panorama.Session = &recordingSession{}

func (s *recordingSession) ID() string {
	return "test"
}

func (s *recordingSession) Configure(context.Context, panorama.Panorama) error {
	return nil
}

func (s *recordingSession) Refresh(state camera.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshed = append(s.refreshed, state)
	s.needsRefresh = false
}

func (s *recordingSession) ProcessCompletions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	if s.processed == s.redrawAfter {
		s.needsRedraw = true
	}
	return 0
}

func (s *recordingSession) Notify() <-chan struct{} {
	return nil
}

func (s *recordingSession) CancelTile(string) bool {
	return false
}

func (s *recordingSession) NeedsRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsRefresh
}

func (s *recordingSession) NeedsRedraw() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsRedraw
}

func (s *recordingSession) MarkDrawn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needsRedraw = false
	s.drawn++
}

func (s *recordingSession) Sphere() model.Sphere {
	return nil
}

func (s *recordingSession) Pyramid() pyramid.Pyramid {
	return nil
}

func (s *recordingSession) Levels() map[int]int {
	return nil
}

func (s *recordingSession) Stats() panorama.Stats {
	return panorama.Stats{Level: -1}
}

func (s *recordingSession) Close() {}

func (s *recordingSession) processedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed
}

func (s *recordingSession) requestRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needsRefresh = true
}

func newTestCamera() (camera.Camera, camera.CameraController) {
	ctrl := camera.NewCameraController()
	return camera.NewCamera(camera.WithAspect(2), camera.WithController(ctrl)), ctrl
}

func TestTickRefreshesOnlyOnViewChange(t *testing.T) {
	s := &recordingSession{}
	cam, ctrl := newTestCamera()
	e := NewEngine(s, cam)

	e.Tick(0)
	e.Tick(0.016)
	if len(s.refreshed) != 1 {
		t.Fatalf("refreshes = %d, want 1 for a still camera", len(s.refreshed))
	}

	ctrl.Turn(0.1, 0)
	e.Tick(0.016)
	if len(s.refreshed) != 2 {
		t.Fatalf("refreshes = %d, want 2 after a turn", len(s.refreshed))
	}
	if s.refreshed[1].Yaw == s.refreshed[0].Yaw {
		t.Error("second refresh should carry the new yaw")
	}
	if s.processed != 3 {
		t.Errorf("ProcessCompletions calls = %d, want one per tick", s.processed)
	}
	if r, _ := e.Counters(); r != 2 {
		t.Errorf("Counters refreshes = %d", r)
	}

	s.requestRefresh()
	e.Tick(0.016)
	e.Tick(0.016)
	if len(s.refreshed) != 3 {
		t.Errorf("refreshes = %d, want 3 after the session asked for one", len(s.refreshed))
	}
}

func TestTickRendersOnlyWhenNeeded(t *testing.T) {
	s := &recordingSession{redrawAfter: 2}
	cam, _ := newTestCamera()
	var renders int
	e := NewEngine(s, cam, WithRenderCallback(func(float32) { renders++ }))

	for i := 0; i < 4; i++ {
		e.Tick(0.016)
	}
	if renders != 1 || s.drawn != 1 {
		t.Errorf("renders = %d, drawn = %d, want 1 each", renders, s.drawn)
	}
	if _, d := e.Counters(); d != 1 {
		t.Errorf("Counters redraws = %d", d)
	}
}

func TestTickCallbackRunsBeforeCameraUpdate(t *testing.T) {
	s := &recordingSession{}
	cam, ctrl := newTestCamera()
	e := NewEngine(s, cam)
	e.SetTickCallback(func(float32) { ctrl.SetYaw(0.5) })

	e.Tick(0.016)
	if len(s.refreshed) != 1 || s.refreshed[0].Yaw != 0.5 {
		t.Fatalf("refreshed = %+v, want the yaw set by the tick callback", s.refreshed)
	}
}

func TestRunStopsOnQuitAndContext(t *testing.T) {
	t.Run("quit", func(t *testing.T) {
		s := &recordingSession{}
		cam, _ := newTestCamera()
		e := NewEngine(s, cam, WithTickRate(500))

		done := make(chan error, 1)
		go func() { done <- e.Run(context.Background()) }()

		deadline := time.Now().Add(5 * time.Second)
		for s.processedCount() < 3 {
			if time.Now().After(deadline) {
				t.Fatal("engine did not tick")
			}
			time.Sleep(time.Millisecond)
		}
		e.SetTickRate(1000)
		e.Quit()
		e.Quit()
		if err := <-done; err != nil {
			t.Errorf("Run after Quit = %v", err)
		}
	})

	t.Run("context", func(t *testing.T) {
		s := &recordingSession{}
		cam, _ := newTestCamera()
		e := NewEngine(s, cam)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		if err := e.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Run = %v, want deadline exceeded", err)
		}
		if s.processedCount() == 0 {
			t.Error("Run should tick at least once")
		}
	})
}

func TestTickPeriod(t *testing.T) {
	tests := []struct {
		fps  float64
		want time.Duration
	}{
		{60, time.Second / 60},
		{0, time.Second / 60},
		{-5, time.Second / 60},
		{0.5, 2 * time.Second},
		{1000, time.Millisecond},
	}
	for _, tt := range tests {
		if got := tickPeriod(tt.fps); got != tt.want {
			t.Errorf("tickPeriod(%v) = %v, want %v", tt.fps, got, tt.want)
		}
	}
}

func TestNewEngineRequiresSessionAndCamera(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewEngine(nil, nil)
}
