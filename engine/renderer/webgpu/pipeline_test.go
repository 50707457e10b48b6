package webgpu

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestMergeBindGroupLayouts_QuadShaders(t *testing.T) {
	vs, err := shader.QuadVertexShader()
	if err != nil {
		t.Fatalf("QuadVertexShader: %v", err)
	}
	fs, err := shader.QuadFragmentShader()
	if err != nil {
		t.Fatalf("QuadFragmentShader: %v", err)
	}

	groups, err := mergeBindGroupLayouts(vs.Bindings(), fs.Bindings())
	if err != nil {
		t.Fatalf("mergeBindGroupLayouts: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}

	want := [][]struct {
		name       string
		binding    uint32
		visibility wgpu.ShaderStage
	}{
		{
			{"u_texture", 0, wgpu.ShaderStageFragment},
			{"u_sampler", 1, wgpu.ShaderStageFragment},
		},
		{
			{"transforms", 0, wgpu.ShaderStageVertex},
		},
	}
	for g := range want {
		if len(groups[g]) != len(want[g]) {
			t.Fatalf("group %d has %d entries, want %d", g, len(groups[g]), len(want[g]))
		}
		for i, w := range want[g] {
			got := groups[g][i]
			if got.binding.Name != w.name || got.entry.Binding != w.binding || got.entry.Visibility != w.visibility {
				t.Errorf("group %d entry %d = %s binding %d vis %v, want %s binding %d vis %v",
					g, i, got.binding.Name, got.entry.Binding, got.entry.Visibility, w.name, w.binding, w.visibility)
			}
		}
	}

	if e := groups[0][0].entry; e.Texture.SampleType != wgpu.TextureSampleTypeFloat || e.Texture.ViewDimension != wgpu.TextureViewDimension2D {
		t.Errorf("texture entry = %+v, want float 2d", e.Texture)
	}
	if e := groups[0][1].entry; e.Sampler.Type != wgpu.SamplerBindingTypeFiltering {
		t.Errorf("sampler entry = %+v, want filtering", e.Sampler)
	}
	if e := groups[1][0].entry; e.Buffer.Type != wgpu.BufferBindingTypeUniform || e.Buffer.MinBindingSize != 64 {
		t.Errorf("uniform entry = %+v, want uniform of 64 bytes", e.Buffer)
	}
}

func TestMergeBindGroupLayouts_SharedBindingAndGaps(t *testing.T) {
	shared := shader.Binding{Group: 2, Binding: 1, Name: "globals", Kind: shader.BindingKindUniform, Size: 16}
	vertex := []shader.Binding{
		shared,
		{Group: 2, Binding: 0, Name: "first", Kind: shader.BindingKindUniform, Size: 64},
	}
	fragment := []shader.Binding{shared}

	groups, err := mergeBindGroupLayouts(vertex, fragment)
	if err != nil {
		t.Fatalf("mergeBindGroupLayouts: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if len(groups[0]) != 0 || len(groups[1]) != 0 {
		t.Errorf("gap groups = %d, %d entries, want empty", len(groups[0]), len(groups[1]))
	}

	g := groups[2]
	if len(g) != 2 {
		t.Fatalf("group 2 has %d entries, want 2", len(g))
	}
	if g[0].entry.Binding != 0 || g[1].entry.Binding != 1 {
		t.Errorf("group 2 bindings = %d, %d, want sorted 0, 1", g[0].entry.Binding, g[1].entry.Binding)
	}
	if g[0].entry.Visibility != wgpu.ShaderStageVertex {
		t.Errorf("vertex-only visibility = %v", g[0].entry.Visibility)
	}
	if g[1].entry.Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
		t.Errorf("shared visibility = %v, want vertex|fragment", g[1].entry.Visibility)
	}
}

func TestMergeBindGroupLayouts_RejectsStorage(t *testing.T) {
	storage := []shader.Binding{{Group: 0, Binding: 0, Name: "particles", Kind: shader.BindingKindStorage}}
	if _, err := mergeBindGroupLayouts(storage, nil); err == nil {
		t.Fatal("storage binding accepted, want error")
	}
}

func TestBlendStateNormal(t *testing.T) {
	bs := blendState(pipeline.BlendModeNormal)

	wantColor := wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	}
	wantAlpha := wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	}
	if bs.Color != wantColor {
		t.Errorf("color = %+v, want %+v", bs.Color, wantColor)
	}
	if bs.Alpha != wantAlpha {
		t.Errorf("alpha = %+v, want %+v", bs.Alpha, wantAlpha)
	}
}

func TestEnumMappings(t *testing.T) {
	compares := map[pipeline.CompareMode]wgpu.CompareFunction{
		pipeline.CompareModeLess:      wgpu.CompareFunctionLess,
		pipeline.CompareModeLessEqual: wgpu.CompareFunctionLessEqual,
		pipeline.CompareModeGreater:   wgpu.CompareFunctionGreater,
		pipeline.CompareModeNever:     wgpu.CompareFunctionNever,
	}
	for in, want := range compares {
		if got := compareFunction(in); got != want {
			t.Errorf("compareFunction(%v) = %v, want %v", in, got, want)
		}
	}

	formats := map[shader.VertexFormat]wgpu.VertexFormat{
		shader.VertexFormatFloat32x2: wgpu.VertexFormatFloat32x2,
		shader.VertexFormatFloat32x3: wgpu.VertexFormatFloat32x3,
		shader.VertexFormatFloat32x4: wgpu.VertexFormatFloat32x4,
	}
	for in, want := range formats {
		if got := vertexFormat(in); got != want {
			t.Errorf("vertexFormat(%v) = %v, want %v", in, got, want)
		}
	}

	if got := cullMode(pipeline.CullModeNone); got != wgpu.CullModeNone {
		t.Errorf("cullMode(none) = %v", got)
	}
	if got := cullMode(pipeline.CullModeBack); got != wgpu.CullModeBack {
		t.Errorf("cullMode(back) = %v", got)
	}
	if got := topology(pipeline.TopologyTriangleList); got != wgpu.PrimitiveTopologyTriangleList {
		t.Errorf("topology(list) = %v", got)
	}
	if got := topology(pipeline.TopologyTriangleStrip); got != wgpu.PrimitiveTopologyTriangleStrip {
		t.Errorf("topology(strip) = %v", got)
	}
}

func TestSurfaceAlphaMode(t *testing.T) {
	tests := []struct {
		name        string
		supported   []wgpu.CompositeAlphaMode
		transparent bool
		want        wgpu.CompositeAlphaMode
	}{
		{
			name:        "transparent prefers premultiplied over an opaque first entry",
			supported:   []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModeOpaque, wgpu.CompositeAlphaModePremultiplied},
			transparent: true,
			want:        wgpu.CompositeAlphaModePremultiplied,
		},
		{
			name:        "transparent falls back to unpremultiplied",
			supported:   []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModeOpaque, wgpu.CompositeAlphaModeUnpremultiplied},
			transparent: true,
			want:        wgpu.CompositeAlphaModeUnpremultiplied,
		},
		{
			name:        "transparent falls back to inherit",
			supported:   []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModeOpaque, wgpu.CompositeAlphaModeInherit},
			transparent: true,
			want:        wgpu.CompositeAlphaModeInherit,
		},
		{
			name:        "transparent with only opaque",
			supported:   []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModeOpaque},
			transparent: true,
			want:        wgpu.CompositeAlphaModeOpaque,
		},
		{
			name:      "opaque prefers opaque",
			supported: []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModePremultiplied, wgpu.CompositeAlphaModeOpaque},
			want:      wgpu.CompositeAlphaModeOpaque,
		},
		{
			name:      "opaque without opaque uses the first mode",
			supported: []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModeInherit},
			want:      wgpu.CompositeAlphaModeInherit,
		},
		{
			name:        "no modes reported",
			transparent: true,
			want:        wgpu.CompositeAlphaModeAuto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := surfaceAlphaMode(tt.supported, tt.transparent); got != tt.want {
				t.Errorf("surfaceAlphaMode = %v, want %v", got, tt.want)
			}
		})
	}
}
