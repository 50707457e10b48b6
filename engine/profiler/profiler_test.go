package profiler

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
)

func TestTickWaitsForInterval(t *testing.T) {
	p := NewProfiler()
	p.SetInterval(time.Hour)
	var lines []string
	p.logf = func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }

	for range 10 {
		if p.Tick(renderer.FrameStats{}) {
			t.Fatalf("Tick logged before the interval elapsed")
		}
	}
	if len(lines) != 0 {
		t.Errorf("lines = %v", lines)
	}
}

func TestTickReportsRendererWork(t *testing.T) {
	p := NewProfiler()
	p.SetInterval(0)
	var lines []string
	p.logf = func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }

	if !p.Tick(renderer.FrameStats{Frames: 1, Submissions: 2, DrawCalls: 2, TextureUploads: 2}) {
		t.Fatalf("Tick with zero interval did not log")
	}
	if !p.Tick(renderer.FrameStats{Frames: 2, Submissions: 4, DrawCalls: 4, TextureUploads: 2}) {
		t.Fatalf("second Tick did not log")
	}

	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	for _, want := range []string{"[Profiler]", "Submits/frame: 2.0", "Draws/frame: 2.0"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("line %q missing %q", lines[1], want)
		}
	}
	if !strings.Contains(lines[0], "Uploads: 2") || !strings.Contains(lines[1], "Uploads: 0") {
		t.Errorf("uploads not reported as deltas: %q / %q", lines[0], lines[1])
	}
}
