package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-sprites/engine"
	"github.com/Carmen-Shannon/oxy-sprites/engine/config"
	"github.com/Carmen-Shannon/oxy-sprites/engine/loader"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/webgpu"
	"github.com/Carmen-Shannon/oxy-sprites/engine/scene"
	"github.com/Carmen-Shannon/oxy-sprites/engine/window"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML manifest (defaults are used when empty)")
	headless := flag.Bool("headless", false, "render with the in-memory recorder instead of opening a window")
	frames := flag.Uint64("frames", 0, "stop after this many frames (0 uses engine.max_frames from the config)")
	flag.Parse()

	// ── Config ──────────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *frames > 0 {
		cfg.Engine.MaxFrames = *frames
	}

	// ── Window + Renderer ───────────────────────────────────────────────
	var win window.Window
	var r renderer.Renderer
	if *headless {
		h, err := renderer.NewHeadlessRenderer(cfg.RendererOptions()...)
		if err != nil {
			log.Fatalf("failed to create headless renderer: %v", err)
		}
		r = h
		if cfg.Engine.MaxFrames == 0 {
			log.Printf("headless run has no frame cap, interrupt to stop")
		}
	} else {
		var err error
		win, err = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithWidth(cfg.Window.Width),
			window.WithHeight(cfg.Window.Height),
			window.WithTransparent(cfg.Window.Transparent),
		)
		if err != nil {
			log.Fatalf("failed to create window: %v", err)
		}
		defer win.Close()

		// The framebuffer can be larger than the requested size on high-DPI displays.
		ropts := append(cfg.RendererOptions(), renderer.WithSurfaceSize(win.Width(), win.Height()))
		r, err = renderer.NewRenderer(webgpu.NewBackendFactory(win.SurfaceDescriptor()), ropts...)
		if err != nil {
			log.Fatalf("failed to create renderer: %v", err)
		}
	}
	defer r.Release()

	// ── Assets ──────────────────────────────────────────────────────────
	assets := loader.NewLoader(r, cfg.LoaderOptions()...)
	defer assets.Close()

	// ── Engine ──────────────────────────────────────────────────────────
	opts := []engine.EngineBuilderOption{
		engine.WithRenderer(r),
		engine.WithAssets(assets),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithRenderFrameLimit(cfg.Engine.FrameLimit),
		engine.WithMaxFrames(cfg.Engine.MaxFrames),
	}
	if win != nil {
		opts = append(opts, engine.WithWindow(win))
	}
	eng := engine.NewEngine(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		select {
		case <-ctx.Done():
			eng.Quit()
		case <-eng.Done():
		}
	}()

	// ── Scene ───────────────────────────────────────────────────────────
	err := engine.Run(eng,
		func(r renderer.Renderer, assets loader.Loader) (scene.Scene, error) {
			return scene.NewScene(r, assets, scene.WithMeshes(cfg.MeshSpecs()...))
		},
		scene.Render,
	)
	if err != nil {
		log.Fatalf("failed to start scene: %v", err)
	}
	log.Printf("stopped after %d frames", eng.Frames())
}
