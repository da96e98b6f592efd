package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/arbiter"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/panorama"
	"github.com/Carmen-Shannon/oxy-pano/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pano/engine/pyramid"
)

type switchFetcher struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (f *switchFetcher) Fetch(_ context.Context, url string) (*common.TileImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, &common.FetchError{URL: url, Status: 503, Err: errors.New("unavailable")}
	}
	return &common.TileImage{Pixels: make([]byte, 4), Width: 1, Height: 1}, nil
}

func (f *switchFetcher) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func memURL(col, row, level int) (string, bool) {
	return "mem://" + pyramid.TileKey(col, row, level), true
}

func newStreamingEngine(t *testing.T, f *switchFetcher, options ...EngineBuilderOption) (Engine, panorama.Session) {
	t.Helper()
	sphere := model.NewSphere(model.WithResolution(8))
	s := panorama.NewSession(sphere,
		panorama.WithFetcher(f),
		panorama.WithFrustumTest(func([]common.Vec3, camera.State) bool { return true }),
	)
	t.Cleanup(s.Close)
	cam, _ := newTestCamera()
	return NewEngine(s, cam, options...), s
}

// tickUntil ticks a still camera until every patch of an 8x4 grid is at want.
func tickUntil(t *testing.T, e Engine, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		e.Tick(0.016)
		levels := e.Session().Levels()
		done := len(levels) == 32
		for _, lvl := range levels {
			if lvl != want {
				done = false
				break
			}
		}
		if done {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("patches = %v, want all 32 at level %d", levels, want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReconfigureStreamsWithStillCamera(t *testing.T) {
	f := &switchFetcher{}
	e, s := newStreamingEngine(t, f)

	err := s.Configure(context.Background(), panorama.Panorama{Levels: pyramid.SingleLevel(4096, 8, 4), TileURL: memURL})
	if err != nil {
		t.Fatal(err)
	}
	tickUntil(t, e, 0)
	before, _ := e.Counters()

	err = s.Configure(context.Background(), panorama.Panorama{Levels: pyramid.SingleLevel(2048, 4, 2), TileURL: memURL})
	if err != nil {
		t.Fatal(err)
	}
	tickUntil(t, e, 0)

	if after, _ := e.Counters(); after <= before {
		t.Errorf("refreshes = %d, want more than %d after reconfigure", after, before)
	}
	if st := s.Stats(); st.Loaded != 8 {
		t.Errorf("Loaded = %d, want the 8 tiles of the new panorama", st.Loaded)
	}
}

func TestFailedTilesRetriedWithStillCamera(t *testing.T) {
	f := &switchFetcher{fail: true}
	e, s := newStreamingEngine(t, f)

	err := s.Configure(context.Background(), panorama.Panorama{Levels: pyramid.SingleLevel(4096, 8, 4), TileURL: memURL})
	if err != nil {
		t.Fatal(err)
	}
	tickUntil(t, e, arbiter.ErrorLevel)

	f.setFail(false)
	tickUntil(t, e, 0)
	if st := s.Stats(); st.Loaded != 32 || st.Failed < 32 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestWithProfiler(t *testing.T) {
	var now time.Time
	clock := func() time.Time {
		now = now.Add(100 * time.Millisecond)
		return now
	}
	f := &switchFetcher{}
	sphere := model.NewSphere(model.WithResolution(8))
	s := panorama.NewSession(sphere, panorama.WithFetcher(f))
	defer s.Close()

	p := profiler.NewProfiler(profiler.WithClock(clock), profiler.WithSession(s))
	cam, _ := newTestCamera()
	e := NewEngine(s, cam, WithProfiler(p), WithProfiling(true))

	for i := 0; i < 10; i++ {
		e.Tick(0.1)
	}
	if fps := p.Last().FPS; fps <= 0 {
		t.Fatalf("FPS = %v, want a report after one second of ticks", fps)
	}

	e.DisableProfiler()
	last := p.Last()
	for i := 0; i < 30; i++ {
		e.Tick(0.1)
	}
	if p.Last() != last {
		t.Error("disabled profiler should not report")
	}
}
