package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"
)

func quadShaders(t *testing.T) (shader.Shader, shader.Shader) {
	t.Helper()
	vs, err := shader.QuadVertexShader()
	if err != nil {
		t.Fatalf("QuadVertexShader: %v", err)
	}
	fs, err := shader.QuadFragmentShader()
	if err != nil {
		t.Fatalf("QuadFragmentShader: %v", err)
	}
	return vs, fs
}

func quadVertexInfo() VertexInfo {
	return NewVertexInfo().
		Attr(0, shader.VertexFormatFloat32x3).
		Attr(1, shader.VertexFormatFloat32x2)
}

func TestVertexInfoOffsets(t *testing.T) {
	info := quadVertexInfo()
	attrs := info.Attributes()
	if len(attrs) != 2 {
		t.Fatalf("attrs = %+v", attrs)
	}
	if attrs[0].Offset != 0 || attrs[1].Offset != 12 {
		t.Errorf("offsets = %d, %d, want 0, 12", attrs[0].Offset, attrs[1].Offset)
	}
	if info.Stride() != 20 {
		t.Errorf("stride = %d, want 20", info.Stride())
	}

	// Attr must not alias the receiver's backing array.
	base := NewVertexInfo().Attr(0, shader.VertexFormatFloat32x3)
	a := base.Attr(1, shader.VertexFormatFloat32x2)
	b := base.Attr(1, shader.VertexFormatFloat32x4)
	if a.Attributes()[1].Format == b.Attributes()[1].Format {
		t.Errorf("branches share storage")
	}
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("defaults")
	if ds := p.DepthStencil(); !ds.Write || ds.Compare != CompareModeLess {
		t.Errorf("depth stencil = %+v, want write + less", ds)
	}
	if p.CullMode() != CullModeNone || p.Topology() != TopologyTriangleList {
		t.Errorf("cull %v topology %v", p.CullMode(), p.Topology())
	}
	if p.BlendEnabled() {
		t.Errorf("blend should be off by default")
	}
	if p.Native() != nil {
		t.Errorf("native should be nil before registration")
	}
}

func TestValidateQuadPipeline(t *testing.T) {
	vs, fs := quadShaders(t)
	p := NewPipeline("quad",
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithVertexInfo(quadVertexInfo()),
		WithColorBlend(BlendModeNormal),
		WithTextureLocation(0, "u_texture"),
		WithUniformBlock("MeshTransformations"),
		WithDepthStencil(DepthStencil{Write: true, Compare: CompareModeLess}),
	)

	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if !p.BlendEnabled() || p.BlendMode() != BlendModeNormal {
		t.Errorf("blend = %v %+v", p.BlendEnabled(), p.BlendMode())
	}

	block, ok := p.UniformBlock("MeshTransformations")
	if !ok {
		t.Fatalf("uniform block not resolved")
	}
	if block.Group != 1 || block.Binding != 0 || block.Size != 64 {
		t.Errorf("block = %+v", block)
	}

	tex, smp, ok := p.TextureBinding(0)
	if !ok {
		t.Fatalf("texture slot 0 not resolved")
	}
	if tex.Name != "u_texture" || smp.Name != "u_sampler" || tex.Group != 0 {
		t.Errorf("texture %+v sampler %+v", tex, smp)
	}

	if got := len(p.Bindings()); got != 3 {
		t.Errorf("bindings = %d, want 3", got)
	}
}

func TestValidateErrors(t *testing.T) {
	vs, fs := quadShaders(t)

	tests := []struct {
		name string
		opts []PipelineBuilderOption
		want error
	}{
		{
			name: "no shaders",
			want: ErrMissingShader,
		},
		{
			name: "shaders swapped",
			opts: []PipelineBuilderOption{WithVertexShader(fs), WithFragmentShader(vs)},
			want: ErrMissingShader,
		},
		{
			name: "missing vertex info",
			opts: []PipelineBuilderOption{WithVertexShader(vs), WithFragmentShader(fs)},
			want: ErrVertexLayoutMismatch,
		},
		{
			name: "wrong attribute format",
			opts: []PipelineBuilderOption{
				WithVertexShader(vs), WithFragmentShader(fs),
				WithVertexInfo(NewVertexInfo().Attr(0, shader.VertexFormatFloat32x2).Attr(1, shader.VertexFormatFloat32x2)),
			},
			want: ErrVertexLayoutMismatch,
		},
		{
			name: "unknown texture",
			opts: []PipelineBuilderOption{
				WithVertexShader(vs), WithFragmentShader(fs), WithVertexInfo(quadVertexInfo()),
				WithTextureLocation(0, "u_normal"),
			},
			want: ErrUnknownTextureLocation,
		},
		{
			name: "texture slot names the sampler",
			opts: []PipelineBuilderOption{
				WithVertexShader(vs), WithFragmentShader(fs), WithVertexInfo(quadVertexInfo()),
				WithTextureLocation(0, "u_sampler"),
			},
			want: ErrUnknownTextureLocation,
		},
		{
			name: "unknown uniform",
			opts: []PipelineBuilderOption{
				WithVertexShader(vs), WithFragmentShader(fs), WithVertexInfo(quadVertexInfo()),
				WithUniformBlock("Lights"),
			},
			want: ErrUnknownUniformBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPipeline(tt.name, tt.opts...).Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUniformBlockDeclaredOnce(t *testing.T) {
	vs, fs := quadShaders(t)
	p := NewPipeline("dup",
		WithVertexShader(vs), WithFragmentShader(fs), WithVertexInfo(quadVertexInfo()),
		WithUniformBlock("MeshTransformations"),
		WithUniformBlock("MeshTransformations"),
	)
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := len(p.UniformBlocks()); got != 1 {
		t.Errorf("uniform blocks = %d, want 1", got)
	}
}

func TestSetNative(t *testing.T) {
	p := NewPipeline("native")
	p.SetNative(42)
	if p.Native() != 42 {
		t.Errorf("Native = %v, want 42", p.Native())
	}
}
