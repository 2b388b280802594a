// Package bakecontext holds per-bake parameters for a recursive bake whose
// call signature cannot carry them.
//
// A Stack is a LIFO of frames. Each bake pushes a frame on entry and pops
// it on exit. A caller that needs custom parameters overrides the current
// frame just before it starts a nested bake; frames pushed beneath an
// overridden frame start from the override instead of the defaults, so the
// override reaches every nested bake until the overridden frame is popped.
//
// Misuse (pop or read without a frame, runaway nesting) is a programming
// error and panics with one of the sentinel errors below.
package bakecontext

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-modelbake/internal/engine/model"
)

// MaxDepth bounds nesting. Deeper recursion is treated as a bug.
const MaxDepth = 256

// Panic values.
var (
	ErrStackUnderflow = errors.New("bakecontext: pop without a matching push")
	ErrEmptyStack     = errors.New("bakecontext: no active bake frame")
	ErrStackOverflow  = errors.New("bakecontext: frame depth limit exceeded")
	ErrNilGetter      = errors.New("bakecontext: nil texture getter")
)

// Frame is one set of bake parameters.
type Frame struct {
	TextureGetter model.TextureGetter
	VertexFormat  *model.VertexFormat

	// Overridden is set once SetOverride has written to the frame.
	Overridden bool
}

// Stack is not safe for concurrent use. Each top-level bake owns one
// nested sequence of frames.
type Stack struct {
	frames   []Frame
	maxDepth int
}

// New returns an empty stack limited to MaxDepth frames.
func New() *Stack {
	return NewWithLimit(MaxDepth)
}

// NewWithLimit returns an empty stack limited to depth frames.
func NewWithLimit(depth int) *Stack {
	return &Stack{maxDepth: depth}
}

// Push starts a frame. When the enclosing frame carries an override the
// new frame inherits it; otherwise it starts from textures and format.
func (s *Stack) Push(textures model.TextureGetter, format *model.VertexFormat) {
	if textures == nil {
		panic(ErrNilGetter)
	}
	if len(s.frames) >= s.maxDepth {
		panic(fmt.Errorf("%w: depth %d", ErrStackOverflow, s.maxDepth))
	}

	f := Frame{TextureGetter: textures, VertexFormat: format}
	if n := len(s.frames); n > 0 && s.frames[n-1].Overridden {
		f = s.frames[n-1]
	}
	s.frames = append(s.frames, f)
}

// Pop ends the current frame and returns it.
func (s *Stack) Pop() Frame {
	n := len(s.frames)
	if n == 0 {
		panic(ErrStackUnderflow)
	}
	f := s.frames[n-1]
	s.frames[n-1] = Frame{}
	s.frames = s.frames[:n-1]
	return f
}

// TextureGetter returns the current frame's getter.
func (s *Stack) TextureGetter() model.TextureGetter {
	return s.top().TextureGetter
}

// VertexFormat returns the current frame's vertex format.
func (s *Stack) VertexFormat() *model.VertexFormat {
	return s.top().VertexFormat
}

// SetOverride writes parameters into the current frame. The last write
// wins. A nil argument keeps that parameter's current value.
func (s *Stack) SetOverride(textures model.TextureGetter, format *model.VertexFormat) {
	f := s.top()
	if textures != nil {
		f.TextureGetter = textures
	}
	if format != nil {
		f.VertexFormat = format
	}
	f.Overridden = true
}

// Top returns a copy of the current frame.
func (s *Stack) Top() Frame {
	return *s.top()
}

// Restore replaces the current frame with f, typically a copy taken with
// Top before an override.
func (s *Stack) Restore(f Frame) {
	*s.top() = f
}

// Depth reports the number of active frames.
func (s *Stack) Depth() int {
	return len(s.frames)
}

func (s *Stack) top() *Frame {
	n := len(s.frames)
	if n == 0 {
		panic(ErrEmptyStack)
	}
	return &s.frames[n-1]
}
