package config

import (
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-sprites/engine/loader"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sprites/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// MeshSpecs converts the configured meshes for scene.WithMeshes. It returns nil when none are configured.
func (c *Config) MeshSpecs() []scene.MeshSpec {
	if len(c.Meshes) == 0 {
		return nil
	}
	specs := make([]scene.MeshSpec, len(c.Meshes))
	for i, m := range c.Meshes {
		specs[i] = scene.MeshSpec{
			Path:        m.Path,
			Scale:       mgl32.Vec3(m.Scale),
			Translation: mgl32.Vec3(m.Translation),
		}
	}
	return specs
}

// RendererOptions converts the window and renderer sections for renderer.NewRenderer.
func (c *Config) RendererOptions() []renderer.RendererBuilderOption {
	mode := renderer.PresentModeVSync
	if strings.EqualFold(c.Renderer.PresentMode, "uncapped") {
		mode = renderer.PresentModeUncapped
	}
	cc := c.Renderer.ClearColor
	return []renderer.RendererBuilderOption{
		renderer.WithSurfaceSize(c.Window.Width, c.Window.Height),
		renderer.WithPresentMode(mode),
		renderer.WithMSAA(renderer.MSAASampleCount(c.Renderer.MSAA)),
		renderer.WithClearColor(renderer.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}),
		renderer.WithTransparent(c.Window.Transparent),
		renderer.WithForceSoftwareRenderer(c.Renderer.ForceSoftware),
	}
}

// LoaderOptions converts the loader section for loader.NewLoader.
func (c *Config) LoaderOptions() []loader.LoaderBuilderOption {
	return []loader.LoaderBuilderOption{
		loader.WithWorkers(c.Loader.Workers),
		loader.WithQueueSize(c.Loader.QueueSize),
		loader.WithIdleTimeout(time.Second),
	}
}
