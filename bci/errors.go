package bci

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a fatal evaluation error.
type ErrorKind int

const (
	KindUnsupportedConstruct ErrorKind = iota + 1
	KindNoMethod
	KindUnboundName
	KindTypeMismatch
	KindStackTooDeep
	KindHostFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedConstruct:
		return "UnsupportedConstruct"
	case KindNoMethod:
		return "NoMethodError"
	case KindUnboundName:
		return "NameError"
	case KindTypeMismatch:
		return "TypeError"
	case KindStackTooDeep:
		return "SystemStackError"
	case KindHostFailure:
		return "IOError"
	default:
		return "RuntimeError"
	}
}

// Sentinels matched with errors.Is against a *RuntimeError of the same kind.
var (
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	ErrNoMethod             = errors.New("no method")
	ErrUnboundName          = errors.New("unbound name")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrStackTooDeep         = errors.New("stack level too deep")
	ErrHostFailure          = errors.New("host failure")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindUnsupportedConstruct:
		return ErrUnsupportedConstruct
	case KindNoMethod:
		return ErrNoMethod
	case KindUnboundName:
		return ErrUnboundName
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindStackTooDeep:
		return ErrStackTooDeep
	default:
		return ErrHostFailure
	}
}

const (
	runtimeErrorFrameHead = 8
	runtimeErrorFrameTail = 8
)

// StackFrame is a binding-stack entry captured when an error was raised.
type StackFrame struct {
	Label string
	Pos   Position
}

// RuntimeError aborts an evaluation. NodeType, Name and ClassName identify
// the offending construct, name and receiver class where they apply.
type RuntimeError struct {
	Kind      ErrorKind
	NodeType  NodeType
	Name      string
	ClassName string
	Message   string
	Pos       Position
	CodeFrame string
	Frames    []StackFrame

	cause error
}

func (re *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", re.Kind, re.Message)
	if re.CodeFrame != "" {
		b.WriteString("\n")
		b.WriteString(re.CodeFrame)
	}
	renderFrame := func(frame StackFrame) {
		if frame.Pos.Line > 0 && frame.Pos.Column > 0 {
			fmt.Fprintf(&b, "\n  at %s (%d:%d)", frame.Label, frame.Pos.Line, frame.Pos.Column)
		} else if frame.Pos.Line > 0 {
			fmt.Fprintf(&b, "\n  at %s (line %d)", frame.Label, frame.Pos.Line)
		} else {
			fmt.Fprintf(&b, "\n  at %s", frame.Label)
		}
	}

	if len(re.Frames) <= runtimeErrorFrameHead+runtimeErrorFrameTail {
		for _, frame := range re.Frames {
			renderFrame(frame)
		}
		return b.String()
	}

	for _, frame := range re.Frames[:runtimeErrorFrameHead] {
		renderFrame(frame)
	}
	omitted := len(re.Frames) - (runtimeErrorFrameHead + runtimeErrorFrameTail)
	fmt.Fprintf(&b, "\n  ... %d frames omitted ...", omitted)
	for _, frame := range re.Frames[len(re.Frames)-runtimeErrorFrameTail:] {
		renderFrame(frame)
	}

	return b.String()
}

// Unwrap exposes the kind's sentinel and, for host failures, the cause.
func (re *RuntimeError) Unwrap() []error {
	errs := []error{re.Kind.sentinel()}
	if re.cause != nil {
		errs = append(errs, re.cause)
	}
	return errs
}

func (in *Interpreter) newRuntimeError(kind ErrorKind, node *Node, format string, args ...any) *RuntimeError {
	re := &RuntimeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
	if node != nil {
		re.NodeType = node.Type
		re.Pos = node.Pos
	}

	// The innermost frame reports where the error happened, outer frames
	// report where each binding was entered.
	frames := in.stack.Frames()
	re.Frames = make([]StackFrame, 0, len(frames))
	pos := re.Pos
	for i := len(frames) - 1; i >= 0; i-- {
		re.Frames = append(re.Frames, StackFrame{Label: frames[i].Label, Pos: pos})
		pos = frames[i].Pos
	}
	re.CodeFrame = formatCodeFrame(in.source, re.Pos)
	return re
}

func (in *Interpreter) errUnsupported(node *Node) error {
	re := in.newRuntimeError(KindUnsupportedConstruct, node, "unsupported syntax node '%s'", node.Type)
	return re
}

func (in *Interpreter) errMalformed(node *Node) error {
	return in.newRuntimeError(KindUnsupportedConstruct, node, "malformed '%s' node: %s", node.Type, node)
}

func (in *Interpreter) errNoMethod(node *Node, name string, receiver *Object) error {
	className := in.ClassName(receiver)
	re := in.newRuntimeError(KindNoMethod, node, "undefined method '%s' for %s", name, describeReceiver(in, receiver))
	re.Name = name
	re.ClassName = className
	return re
}

func describeReceiver(in *Interpreter, receiver *Object) string {
	switch {
	case receiver == in.nilObject:
		return "nil"
	case receiver == in.main:
		return "main:Object"
	case receiver.IsClass():
		return "class " + receiver.AsClass().Name
	default:
		return "an instance of " + in.ClassName(receiver)
	}
}

func (in *Interpreter) errUnboundLocal(node *Node, name string) error {
	re := in.newRuntimeError(KindUnboundName, node, "undefined local variable '%s'", name)
	re.Name = name
	return re
}

func (in *Interpreter) errUnboundConstant(node *Node, namespace *Class, name string) error {
	qualified := name
	if namespace != in.objectClass {
		qualified = namespace.Name + "::" + name
	}
	re := in.newRuntimeError(KindUnboundName, node, "uninitialized constant %s", qualified)
	re.Name = qualified
	re.ClassName = namespace.Name
	return re
}

// wrapError converts a native method failure into a RuntimeError, keeping
// errors that already are one.
func (in *Interpreter) wrapError(err error, node *Node) error {
	if err == nil {
		return nil
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	kind := KindHostFailure
	if errors.Is(err, ErrTypeMismatch) {
		kind = KindTypeMismatch
	}
	wrapped := in.newRuntimeError(kind, node, "%s", err.Error())
	if kind == KindHostFailure {
		wrapped.cause = err
	}
	return wrapped
}
