package engine

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-sprites/engine/loader"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
)

func newHeadless(t *testing.T, options ...EngineBuilderOption) (renderer.HeadlessRenderer, Engine) {
	t.Helper()
	r, err := renderer.NewHeadlessRenderer()
	if err != nil {
		t.Fatalf("NewHeadlessRenderer: %v", err)
	}
	assets := loader.NewLoader(r)
	t.Cleanup(assets.Close)

	options = append([]EngineBuilderOption{WithRenderer(r), WithAssets(assets)}, options...)
	return r, NewEngine(options...)
}

func TestRun_StopsAfterMaxFrames(t *testing.T) {
	r, e := newHeadless(t, WithMaxFrames(5))

	setups, draws := 0, 0
	err := Run(e,
		func(renderer.Renderer, loader.Loader) (int, error) {
			setups++
			return 42, nil
		},
		func(_ renderer.Renderer, state int) {
			if state != 42 {
				t.Errorf("draw got state %d, want 42", state)
			}
			draws++
		},
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if setups != 1 {
		t.Errorf("setup ran %d times, want 1", setups)
	}
	if draws != 5 {
		t.Errorf("draw ran %d times, want 5", draws)
	}
	if e.Frames() != 5 {
		t.Errorf("Frames() = %d, want 5", e.Frames())
	}
	if got := r.Stats().Frames; got != 5 {
		t.Errorf("renderer frames = %d, want 5", got)
	}
	select {
	case <-e.Done():
	default:
		t.Error("Done() not closed after the loop stopped")
	}
}

func TestRun_SetupErrorSkipsLoop(t *testing.T) {
	_, e := newHeadless(t, WithMaxFrames(3))
	boom := errors.New("boom")

	err := Run(e,
		func(renderer.Renderer, loader.Loader) (struct{}, error) { return struct{}{}, boom },
		func(renderer.Renderer, struct{}) { t.Error("draw called after setup failed") },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want wrapped boom", err)
	}
	if e.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", e.Frames())
	}
}

func TestRun_DrawPanicStopsLoopAndEndsFrame(t *testing.T) {
	r, e := newHeadless(t)

	err := Run(e,
		func(renderer.Renderer, loader.Loader) (struct{}, error) { return struct{}{}, nil },
		func(renderer.Renderer, struct{}) { panic("draw exploded") },
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", e.Frames())
	}
	// The frame was still ended, so a new one can begin.
	if err := r.BeginFrame(); err != nil {
		t.Errorf("BeginFrame after recovered panic: %v", err)
	}
}

func TestRun_QuitFromDraw(t *testing.T) {
	_, e := newHeadless(t)

	err := Run(e,
		func(renderer.Renderer, loader.Loader) (Engine, error) { return e, nil },
		func(_ renderer.Renderer, eng Engine) {
			if eng.Frames() == 2 {
				eng.Quit()
			}
		},
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", e.Frames())
	}
}

func TestRun_NoRenderer(t *testing.T) {
	e := NewEngine()
	err := Run(e,
		func(renderer.Renderer, loader.Loader) (int, error) { return 0, nil },
		func(renderer.Renderer, int) {},
	)
	if !errors.Is(err, ErrNoRenderer) {
		t.Fatalf("Run error = %v, want ErrNoRenderer", err)
	}
}

func TestQuit_Idempotent(t *testing.T) {
	_, e := newHeadless(t)
	e.Quit()
	e.Quit()

	select {
	case <-e.Done():
	default:
		t.Fatal("Done() not closed after Quit")
	}

	// A quit engine runs setup but draws nothing.
	draws := 0
	if err := Run(e,
		func(renderer.Renderer, loader.Loader) (int, error) { return 0, nil },
		func(renderer.Renderer, int) { draws++ },
	); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if draws != 0 {
		t.Errorf("draw ran %d times after Quit, want 0", draws)
	}
}

func TestSetRenderFrameLimit(t *testing.T) {
	_, e := newHeadless(t)
	impl := e.(*engine)

	e.SetRenderFrameLimit(50)
	if impl.renderFrameLimit.Milliseconds() != 20 {
		t.Errorf("limit = %v, want 20ms", impl.renderFrameLimit)
	}
	e.SetRenderFrameLimit(0)
	if impl.renderFrameLimit != 0 {
		t.Errorf("limit = %v, want 0", impl.renderFrameLimit)
	}
}

func TestProfilerToggle(t *testing.T) {
	_, e := newHeadless(t, WithProfiling(true))
	impl := e.(*engine)
	if !impl.profilingEnabled.Load() {
		t.Fatal("WithProfiling(true) did not enable profiling")
	}
	e.DisableProfiler()
	if impl.profilingEnabled.Load() {
		t.Error("DisableProfiler left profiling enabled")
	}
	e.EnableProfiler()
	if !impl.profilingEnabled.Load() {
		t.Error("EnableProfiler did not enable profiling")
	}
}

func TestRun_StopsWhenRendererReleased(t *testing.T) {
	_, e := newHeadless(t, WithMaxFrames(5))

	err := Run(e,
		func(r renderer.Renderer, _ loader.Loader) (struct{}, error) {
			r.Release()
			return struct{}{}, nil
		},
		func(renderer.Renderer, struct{}) { t.Error("draw called on a released renderer") },
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", e.Frames())
	}
}

func TestRun_StopsAfterRepeatedBeginFailures(t *testing.T) {
	r, e := newHeadless(t, WithMaxFrames(5))

	// An open frame makes every BeginFrame of the loop fail with ErrFrameInProgress.
	err := Run(e,
		func(r renderer.Renderer, _ loader.Loader) (struct{}, error) {
			return struct{}{}, r.BeginFrame()
		},
		func(renderer.Renderer, struct{}) { t.Error("draw called without a frame") },
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", e.Frames())
	}
	if got := e.(*engine).beginFailures; got != maxBeginFailures {
		t.Errorf("begin failures = %d, want %d", got, maxBeginFailures)
	}
	if err := r.EndFrame(); err != nil {
		t.Errorf("EndFrame of the setup frame: %v", err)
	}
}
