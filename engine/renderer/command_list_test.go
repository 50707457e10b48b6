package renderer

import (
	"errors"
	"testing"
)

func TestCommandListRecordsInOrder(t *testing.T) {
	p := testPipeline(t, "order")
	tex := &Texture{id: 7}
	vb, ib, ub := &Buffer{kind: BufferKindVertex}, &Buffer{kind: BufferKindIndex}, &Buffer{kind: BufferKindUniform}

	cl := NewCommandList()
	cl.Begin(nil)
	cl.SetPipeline(p)
	cl.BindTexture(0, tex)
	cl.BindBuffers(vb, ib, ub)
	cl.Draw(0, 6)
	cl.End()

	if err := cl.Err(); err != nil {
		t.Fatalf("Err = %v", err)
	}
	want := []CommandType{CommandBegin, CommandSetPipeline, CommandBindTexture, CommandBindBuffers, CommandDraw, CommandEnd}
	cmds := cl.Commands()
	if len(cmds) != len(want) {
		t.Fatalf("commands = %d, want %d", len(cmds), len(want))
	}
	for i, c := range cmds {
		if c.Type != want[i] {
			t.Errorf("command %d = %v, want %v", i, c.Type, want[i])
		}
	}
	if cmds[0].Clear != nil {
		t.Errorf("Begin(nil) should record a nil clear")
	}
	if got := cmds[3].Buffers; len(got) != 3 || got[0] != vb || got[1] != ib || got[2] != ub {
		t.Errorf("buffers not bound in order: %v", got)
	}
	if cmds[4].Count != 6 || cmds[4].Offset != 0 {
		t.Errorf("draw = %+v", cmds[4])
	}
	if !cl.Ended() {
		t.Errorf("Ended = false")
	}
}

func TestCommandListErrorsAreSticky(t *testing.T) {
	p := testPipeline(t, "sticky")

	tests := []struct {
		name   string
		record func(cl *CommandList)
		want   error
	}{
		{
			name:   "draw before begin",
			record: func(cl *CommandList) { cl.Draw(0, 6) },
			want:   ErrPassNotBegun,
		},
		{
			name:   "double begin",
			record: func(cl *CommandList) { cl.Begin(nil); cl.Begin(nil) },
			want:   ErrPassAlreadyBegun,
		},
		{
			name:   "begin after end",
			record: func(cl *CommandList) { cl.Begin(nil); cl.End(); cl.Begin(nil) },
			want:   ErrPassAlreadyBegun,
		},
		{
			name:   "draw without pipeline",
			record: func(cl *CommandList) { cl.Begin(nil); cl.Draw(0, 6) },
			want:   ErrNoPipeline,
		},
		{
			name:   "nil pipeline",
			record: func(cl *CommandList) { cl.Begin(nil); cl.SetPipeline(nil) },
			want:   ErrNoPipeline,
		},
		{
			name: "undeclared texture slot",
			record: func(cl *CommandList) {
				cl.Begin(nil)
				cl.SetPipeline(p)
				cl.BindTexture(3, &Texture{})
			},
			want: ErrUnknownTextureSlot,
		},
		{
			name: "nil buffer",
			record: func(cl *CommandList) {
				cl.Begin(nil)
				cl.BindBuffers(nil)
			},
			want: ErrMissingBuffer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := NewCommandList()
			tt.record(cl)
			n := len(cl.Commands())
			// Further calls are ignored once an error is recorded.
			cl.End()
			cl.Draw(0, 3)
			if !errors.Is(cl.Err(), tt.want) {
				t.Fatalf("Err = %v, want %v", cl.Err(), tt.want)
			}
			if len(cl.Commands()) != n {
				t.Errorf("commands grew after error: %d -> %d", n, len(cl.Commands()))
			}
		})
	}
}
