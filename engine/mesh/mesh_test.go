package mesh

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/loader"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

type fixture struct {
	r      renderer.HeadlessRenderer
	assets loader.Loader
	p      pipeline.Pipeline
	path   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	r, err := renderer.NewHeadlessRenderer()
	if err != nil {
		t.Fatalf("NewHeadlessRenderer: %v", err)
	}
	assets := loader.NewLoader(r)
	t.Cleanup(assets.Close)

	vs, err := shader.QuadVertexShader()
	if err != nil {
		t.Fatal(err)
	}
	fs, err := shader.QuadFragmentShader()
	if err != nil {
		t.Fatal(err)
	}
	p := pipeline.NewPipeline("mesh-test",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexInfo(pipeline.NewVertexInfo().
			Attr(0, shader.VertexFormatFloat32x3).
			Attr(1, shader.VertexFormatFloat32x2)),
		pipeline.WithColorBlend(pipeline.BlendModeNormal),
		pipeline.WithTextureLocation(0, "u_texture"),
		pipeline.WithUniformBlock(UniformBlockName),
	)
	if err := r.RegisterPipeline(p); err != nil {
		t.Fatalf("RegisterPipeline: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	path := filepath.Join(t.TempDir(), "tile.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	return fixture{r: r, assets: assets, p: p, path: path}
}

func TestQuadGeometry(t *testing.T) {
	vertices := QuadVertices()
	if len(vertices) != 4 {
		t.Fatalf("vertices = %d, want 4", len(vertices))
	}
	wantUV := [][2]float32{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	for i, v := range vertices {
		if v.UV != wantUV[i] {
			t.Errorf("vertex %d uv = %v, want %v", i, v.UV, wantUV[i])
		}
		// UVs follow positions: u = (x+1)/2, v = (y+1)/2.
		if (v.Position[0]+1)/2 != v.UV[0] || (v.Position[1]+1)/2 != v.UV[1] {
			t.Errorf("vertex %d position %v does not match uv %v", i, v.Position, v.UV)
		}
	}

	indices := QuadIndices()
	want := []uint32{0, 1, 2, 2, 3, 0}
	if len(indices) != len(want) {
		t.Fatalf("indices = %v, want %v", indices, want)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", indices, want)
		}
	}
}

func TestNewMeshCreatesBuffers(t *testing.T) {
	fx := newFixture(t)
	m, err := NewMesh(fx.r, fx.assets, fx.path, mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{0, 0, 1})
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	if m.Label() != "tile" {
		t.Errorf("Label = %q, want tile", m.Label())
	}
	if vb := m.VertexBuffer(); vb.Size() != 4*VertexStride || vb.Count() != 4 {
		t.Errorf("vertex buffer size %d count %d", vb.Size(), vb.Count())
	}
	if ib := m.IndexBuffer(); ib.Count() != 6 {
		t.Errorf("index buffer count %d, want 6", ib.Count())
	}
	if ub := m.UniformBuffer(); ub.Size() != TransformSize || ub.Block() != UniformBlockName {
		t.Errorf("uniform buffer size %d block %q", ub.Size(), ub.Block())
	}
	if m.TextureAsset() == 0 {
		t.Errorf("TextureAsset = 0")
	}
}

func TestNewMeshInvalidPath(t *testing.T) {
	fx := newFixture(t)
	_, err := NewMesh(fx.r, fx.assets, filepath.Join(t.TempDir(), "nope.png"), mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	if !errors.Is(err, loader.ErrInvalidPath) {
		t.Fatalf("NewMesh error = %v, want ErrInvalidPath", err)
	}
}

func TestTransformComposition(t *testing.T) {
	fx := newFixture(t)
	m, err := NewMesh(fx.r, fx.assets, fx.path, mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{0, 0, 1})
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	data := m.TransformData()
	want := [16]float32{
		0.5, 0, 0, 0,
		0, 0.5, 0, 0,
		0, 0, 0.5, 0,
		0, 0, 1, 1,
	}
	if data != want {
		t.Errorf("TransformData = %v, want %v", data, want)
	}

	m.SetTranslation(mgl32.Vec3{2, 3, 4})
	m.SetScale(mgl32.Vec3{1, 1, 1})
	if got := m.Transform().Col(3); got != (mgl32.Vec4{2, 3, 4, 1}) {
		t.Errorf("translation column = %v", got)
	}

	m.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}))
	p := m.Transform().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !p.ApproxEqualThreshold(mgl32.Vec4{2, 4, 4, 1}, 1e-5) {
		t.Errorf("rotated point = %v, want [2 4 4 1]", p)
	}
}

func TestClipPositionsFlipY(t *testing.T) {
	fx := newFixture(t)
	m, err := NewMesh(fx.r, fx.assets, fx.path, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	clip := m.ClipPositions()
	// Vertex 0 sits at (-1, -1); the vertex stage flips it to y = 1.
	if clip[0].X() != -1 || clip[0].Y() != 1 {
		t.Errorf("clip[0] = %v, want x -1 y 1", clip[0])
	}
}

func TestDrawBindsTextureOnlyWhenReady(t *testing.T) {
	fx := newFixture(t)
	release := make(chan struct{})
	assets := loader.NewLoader(fx.r, loader.WithDecoder(func(p string) (common.TextureStagingData, error) {
		<-release
		return loader.DecodeImage(p)
	}))
	t.Cleanup(assets.Close)

	m, err := NewMesh(fx.r, assets, fx.path, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	drawFrame := func() renderer.Submission {
		t.Helper()
		if err := fx.r.BeginFrame(); err != nil {
			t.Fatalf("BeginFrame: %v", err)
		}
		if err := m.Draw(fx.p, fx.r); err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if err := fx.r.EndFrame(); err != nil {
			t.Fatalf("EndFrame: %v", err)
		}
		subs := fx.r.Submissions()
		return subs[len(subs)-1]
	}

	pending := drawFrame()
	want := []renderer.CommandType{
		renderer.CommandBegin, renderer.CommandSetPipeline, renderer.CommandBindBuffers,
		renderer.CommandDraw, renderer.CommandEnd,
	}
	assertCommands(t, pending.Commands, want)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := assets.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	ready := drawFrame()
	want = []renderer.CommandType{
		renderer.CommandBegin, renderer.CommandSetPipeline, renderer.CommandBindTexture,
		renderer.CommandBindBuffers, renderer.CommandDraw, renderer.CommandEnd,
	}
	assertCommands(t, ready.Commands, want)

	bind := ready.Commands[3]
	if len(bind.Buffers) != 3 || bind.Buffers[0] != m.VertexBuffer() || bind.Buffers[1] != m.IndexBuffer() || bind.Buffers[2] != m.UniformBuffer() {
		t.Errorf("buffers not bound vertex, index, uniform")
	}
	if draw := ready.Commands[4]; draw.Offset != 0 || draw.Count != 6 {
		t.Errorf("draw = offset %d count %d, want 0 6", draw.Offset, draw.Count)
	}
	if got := len(fx.r.Submissions()); got != 2 {
		t.Errorf("submissions = %d, want one per Draw", got)
	}
}

func TestDrawOutsideFrame(t *testing.T) {
	fx := newFixture(t)
	m, err := NewMesh(fx.r, fx.assets, fx.path, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	if err := m.Draw(fx.p, fx.r); !errors.Is(err, renderer.ErrNoFrame) {
		t.Errorf("Draw error = %v, want ErrNoFrame", err)
	}
}

func assertCommands(t *testing.T, cmds []renderer.Command, want []renderer.CommandType) {
	t.Helper()
	if len(cmds) != len(want) {
		t.Fatalf("commands = %d, want %d", len(cmds), len(want))
	}
	for i, c := range cmds {
		if c.Type != want[i] {
			t.Errorf("command %d = %v, want %v", i, c.Type, want[i])
		}
	}
}
