package webgpu

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupKey identifies a bind group by pipeline, group index and the resources bound in it.
type bindGroupKey struct {
	pipeline  string
	group     uint32
	resources string
}

// passState tracks what a command list has bound so far.
type passState struct {
	pipeline pipeline.Pipeline
	state    *pipelineState
	textures map[uint32]*renderer.Texture
	vertex   *renderer.Buffer
	index    *renderer.Buffer
	uniforms map[string]*renderer.Buffer
}

// Submit replays one validated command list into a render pass and submits it to the queue.
func (b *backend) Submit(commands []renderer.Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameView == nil {
		return renderer.ErrNoFrame
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	var pass *wgpu.RenderPassEncoder
	ps := &passState{
		textures: make(map[uint32]*renderer.Texture),
		uniforms: make(map[string]*renderer.Buffer),
	}

	for _, cmd := range commands {
		switch cmd.Type {
		case renderer.CommandBegin:
			pass = encoder.BeginRenderPass(b.passDescriptor(cmd.Clear))
		case renderer.CommandSetPipeline:
			state, ok := cmd.Pipeline.Native().(*pipelineState)
			if !ok {
				pass.End()
				return fmt.Errorf("pipeline %s was not registered with this backend", cmd.Pipeline.PipelineKey())
			}
			ps.pipeline = cmd.Pipeline
			ps.state = state
			clear(ps.textures)
			pass.SetPipeline(state.render)
		case renderer.CommandBindTexture:
			ps.textures[cmd.Slot] = cmd.Texture
		case renderer.CommandBindBuffers:
			for _, buf := range cmd.Buffers {
				switch buf.Kind() {
				case renderer.BufferKindVertex:
					ps.vertex = buf
				case renderer.BufferKindIndex:
					ps.index = buf
				case renderer.BufferKindUniform:
					ps.uniforms[buf.Block()] = buf
				}
			}
		case renderer.CommandDraw:
			if err := b.draw(pass, ps, cmd.Offset, cmd.Count); err != nil {
				pass.End()
				return err
			}
		case renderer.CommandEnd:
			pass.End()
			pass = nil
		}
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	return nil
}

func (b *backend) draw(pass *wgpu.RenderPassEncoder, ps *passState, offset, count uint32) error {
	vertex, ok := b.buffers[ps.vertex.ID()]
	if !ok {
		return fmt.Errorf("%w: vertex buffer %s", renderer.ErrMissingBuffer, ps.vertex.Label())
	}
	index, ok := b.buffers[ps.index.ID()]
	if !ok {
		return fmt.Errorf("%w: index buffer %s", renderer.ErrMissingBuffer, ps.index.Label())
	}

	for g := range ps.state.groups {
		bg, err := b.bindGroup(ps, uint32(g))
		if err != nil {
			return err
		}
		pass.SetBindGroup(uint32(g), bg, nil)
	}

	pass.SetVertexBuffer(0, vertex, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(count, 1, offset, 0, 0)
	return nil
}

// bindGroup returns the cached bind group for the resources currently bound to group g,
// creating it on first use. Texture slots with nothing bound use the fallback texture.
func (b *backend) bindGroup(ps *passState, g uint32) (*wgpu.BindGroup, error) {
	bindings := ps.state.groups[g]
	entries := make([]wgpu.BindGroupEntry, 0, len(bindings))
	var resources strings.Builder

	for _, bnd := range bindings {
		switch bnd.Kind {
		case shader.BindingKindUniform:
			buf, err := b.uniformFor(ps, bnd)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&resources, "u%d:%d;", bnd.Binding, buf.ID())
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: bnd.Binding,
				Buffer:  b.buffers[buf.ID()],
				Offset:  0,
				Size:    wgpu.WholeSize,
			})
		case shader.BindingKindTexture:
			view, id, err := b.textureFor(ps, bnd)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&resources, "t%d:%d;", bnd.Binding, id)
			entries = append(entries, wgpu.BindGroupEntry{
				Binding:     bnd.Binding,
				TextureView: view,
			})
		case shader.BindingKindSampler:
			fmt.Fprintf(&resources, "s%d;", bnd.Binding)
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: bnd.Binding,
				Sampler: b.sampler,
			})
		}
	}

	key := bindGroupKey{pipeline: ps.state.key, group: g, resources: resources.String()}
	if bg, ok := b.bindGroups[key]; ok {
		return bg, nil
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   fmt.Sprintf("%s Group %d Bind Group", ps.state.key, g),
		Layout:  ps.state.groupLayouts[g],
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	b.bindGroups[key] = bg
	return bg, nil
}

func (b *backend) uniformFor(ps *passState, bnd shader.Binding) (*renderer.Buffer, error) {
	for _, block := range ps.pipeline.UniformBlocks() {
		if block.Group != bnd.Group || block.Binding != bnd.Binding {
			continue
		}
		buf, ok := ps.uniforms[block.Name]
		if !ok {
			break
		}
		if _, ok := b.buffers[buf.ID()]; !ok {
			return nil, fmt.Errorf("%w: uniform buffer %s", renderer.ErrMissingBuffer, buf.Label())
		}
		return buf, nil
	}
	return nil, fmt.Errorf("%w: no uniform buffer bound for %s (group %d, binding %d)",
		renderer.ErrMissingBuffer, bnd.Name, bnd.Group, bnd.Binding)
}

// textureFor resolves the view for a texture binding. The returned id is 0 for the fallback.
func (b *backend) textureFor(ps *passState, bnd shader.Binding) (*wgpu.TextureView, uint64, error) {
	for _, slot := range ps.pipeline.TextureLocations() {
		texBinding, _, ok := ps.pipeline.TextureBinding(slot)
		if !ok || texBinding.Group != bnd.Group || texBinding.Binding != bnd.Binding {
			continue
		}
		tex, bound := ps.textures[slot]
		if !bound {
			break
		}
		native, ok := b.textures[tex.ID()]
		if !ok {
			return nil, 0, fmt.Errorf("%w: texture %s has no gpu allocation", renderer.ErrInvalidTexture, tex.Label())
		}
		return native.view, tex.ID(), nil
	}
	return b.fallback.view, 0, nil
}
