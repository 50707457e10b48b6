package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
)

// CommandType identifies a recorded command.
type CommandType int

const (
	CommandBegin CommandType = iota
	CommandSetPipeline
	CommandBindTexture
	CommandBindBuffers
	CommandDraw
	CommandEnd
)

func (c CommandType) String() string {
	switch c {
	case CommandBegin:
		return "begin"
	case CommandSetPipeline:
		return "set_pipeline"
	case CommandBindTexture:
		return "bind_texture"
	case CommandBindBuffers:
		return "bind_buffers"
	case CommandDraw:
		return "draw"
	case CommandEnd:
		return "end"
	default:
		return fmt.Sprintf("CommandType(%d)", int(c))
	}
}

// ClearOptions selects what a render pass clears when it begins. A nil field keeps the
// previous contents of that attachment.
type ClearOptions struct {
	Color *Color
	Depth *float32
}

// Command is one recorded render pass command. Only the fields relevant to Type are set.
type Command struct {
	Type     CommandType
	Clear    *ClearOptions
	Pipeline pipeline.Pipeline
	Slot     uint32
	Texture  *Texture
	Buffers  []*Buffer
	Offset   uint32
	Count    uint32
}

// CommandList records a single render pass for submission through Renderer.Render.
// Recording errors are sticky: once a command is out of order, every later call is ignored
// and Err reports the first failure.
type CommandList struct {
	commands []Command
	pipeline pipeline.Pipeline
	inPass   bool
	ended    bool
	err      error
}

// NewCommandList returns an empty command list.
func NewCommandList() *CommandList {
	return &CommandList{}
}

// Begin opens the render pass. A nil clear loads the existing attachments.
//
// Parameters:
//   - clear: the attachments to clear, or nil to draw over the current frame
func (c *CommandList) Begin(clear *ClearOptions) {
	if c.err != nil {
		return
	}
	if c.inPass || c.ended {
		c.err = ErrPassAlreadyBegun
		return
	}
	c.inPass = true
	c.commands = append(c.commands, Command{Type: CommandBegin, Clear: clear})
}

// SetPipeline selects the pipeline used by subsequent binds and draws.
//
// Parameters:
//   - p: the registered pipeline
func (c *CommandList) SetPipeline(p pipeline.Pipeline) {
	if !c.check() {
		return
	}
	if p == nil {
		c.err = ErrNoPipeline
		return
	}
	c.pipeline = p
	c.commands = append(c.commands, Command{Type: CommandSetPipeline, Pipeline: p})
}

// BindTexture binds a texture to one of the current pipeline's texture slots.
//
// Parameters:
//   - slot: the texture slot declared on the pipeline
//   - tex: the texture to bind
func (c *CommandList) BindTexture(slot uint32, tex *Texture) {
	if !c.check() {
		return
	}
	if c.pipeline == nil {
		c.err = ErrNoPipeline
		return
	}
	if _, ok := c.pipeline.TextureLocation(slot); !ok {
		c.err = fmt.Errorf("%w: slot %d on pipeline %s", ErrUnknownTextureSlot, slot, c.pipeline.PipelineKey())
		return
	}
	if tex == nil {
		c.err = fmt.Errorf("%w: nil texture for slot %d", ErrInvalidTexture, slot)
		return
	}
	c.commands = append(c.commands, Command{Type: CommandBindTexture, Slot: slot, Texture: tex})
}

// BindBuffers binds vertex, index and uniform buffers. Each buffer is bound according to its kind.
//
// Parameters:
//   - bufs: the buffers to bind
func (c *CommandList) BindBuffers(bufs ...*Buffer) {
	if !c.check() {
		return
	}
	for _, b := range bufs {
		if b == nil {
			c.err = fmt.Errorf("%w: nil buffer", ErrMissingBuffer)
			return
		}
	}
	bound := make([]*Buffer, len(bufs))
	copy(bound, bufs)
	c.commands = append(c.commands, Command{Type: CommandBindBuffers, Buffers: bound})
}

// Draw issues an indexed draw of count indices starting at offset.
//
// Parameters:
//   - offset: the first index to draw
//   - count: the number of indices to draw
func (c *CommandList) Draw(offset, count uint32) {
	if !c.check() {
		return
	}
	if c.pipeline == nil {
		c.err = ErrNoPipeline
		return
	}
	c.commands = append(c.commands, Command{Type: CommandDraw, Offset: offset, Count: count})
}

// End closes the render pass.
func (c *CommandList) End() {
	if !c.check() {
		return
	}
	c.inPass = false
	c.ended = true
	c.commands = append(c.commands, Command{Type: CommandEnd})
}

// Commands returns the recorded commands.
func (c *CommandList) Commands() []Command {
	return c.commands
}

// Err returns the first recording error, if any.
func (c *CommandList) Err() error {
	return c.err
}

// Ended reports whether the pass was opened and closed.
func (c *CommandList) Ended() bool {
	return c.ended
}

func (c *CommandList) check() bool {
	if c.err != nil {
		return false
	}
	if !c.inPass {
		c.err = ErrPassNotBegun
		return false
	}
	return true
}
