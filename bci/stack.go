package bci

// Frame is one binding on the stack: the receiver, its locals and the
// slot holding the value of the most recent evaluation.
type Frame struct {
	Label  string
	Self   *Object
	Locals map[string]*Object
	Result *Object

	// Pos is the call site that entered this binding.
	Pos Position
}

// Local returns a bound local variable.
func (f *Frame) Local(name string) (*Object, bool) {
	v, ok := f.Locals[name]
	return v, ok
}

// Stack is the binding stack. It always holds at least the toplevel frame.
type Stack struct {
	frames []*Frame
}

func newStack(toplevel *Frame) *Stack {
	return &Stack{frames: []*Frame{toplevel}}
}

// Push makes frame the current binding.
func (s *Stack) Push(frame *Frame) {
	s.frames = append(s.frames, frame)
}

// Pop removes and returns the current binding. Popping the toplevel frame
// means a push/pop pair was broken, which is a bug in the evaluator.
func (s *Stack) Pop() *Frame {
	if len(s.frames) <= 1 {
		panic("bci: pop of toplevel binding")
	}
	top := s.frames[len(s.frames)-1]
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	return top
}

// Current returns the innermost binding.
func (s *Stack) Current() *Frame {
	return s.frames[len(s.frames)-1]
}

// SetResult records v as the current binding's value.
func (s *Stack) SetResult(v *Object) {
	s.Current().Result = v
}

// Result returns the current binding's value.
func (s *Stack) Result() *Object {
	return s.Current().Result
}

// Depth returns the number of frames, toplevel included.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Frames returns the bindings from toplevel to innermost.
func (s *Stack) Frames() []*Frame {
	out := make([]*Frame, len(s.frames))
	copy(out, s.frames)
	return out
}
