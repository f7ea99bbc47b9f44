package bci

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func runError(t *testing.T, source string) *RuntimeError {
	t.Helper()
	in := NewInterpreter(Config{Stdout: &bytes.Buffer{}})
	_, err := in.Run(source)
	if err == nil {
		t.Fatalf("expected %q to fail", source)
	}
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected runtime error, got %T: %v", err, err)
	}
	if depth := in.Stack().Depth(); depth != 1 {
		t.Fatalf("expected balanced stack after error, got depth %d", depth)
	}
	return re
}

func TestUnsupportedConstructs(t *testing.T) {
	cases := []struct {
		source string
		node   NodeType
	}{
		{"1", NodeInt},
		{"1 + 2", NodeInt},
		{"1.5", NodeFloat},
		{":sym", NodeSym},
		{"true", NodeTrue},
		{"false", NodeFalse},
		{"def self.x; end", NodeDefs},
		{"X = 'a'", NodeCasgn},
	}
	for _, tc := range cases {
		re := runError(t, tc.source)
		if re.Kind != KindUnsupportedConstruct || !errors.Is(re, ErrUnsupportedConstruct) {
			t.Fatalf("%q: expected unsupported construct, got %v", tc.source, re)
		}
		if re.NodeType != tc.node {
			t.Fatalf("%q: expected node %s, got %s", tc.source, tc.node, re.NodeType)
		}
	}
}

func TestMalformedNodeIsUnsupported(t *testing.T) {
	in := NewInterpreter(Config{Stdout: &bytes.Buffer{}})
	_, err := in.Interpret(NewNode(NodeStr, Symbol("not a string")))
	if !errors.Is(err, ErrUnsupportedConstruct) {
		t.Fatalf("expected unsupported construct, got %v", err)
	}

	_, err = in.Interpret(NewNode(NodeLvasgn, "a"))
	if !errors.Is(err, ErrUnsupportedConstruct) {
		t.Fatalf("expected unsupported construct, got %v", err)
	}
}

func TestNoMethod(t *testing.T) {
	re := runError(t, "class User; end; User.new.missing")
	if !errors.Is(re, ErrNoMethod) {
		t.Fatalf("expected no method, got %v", re)
	}
	if re.Name != "missing" || re.ClassName != "User" || re.NodeType != NodeSend {
		t.Fatalf("unexpected error details: %+v", re)
	}
	if !strings.Contains(re.Error(), "undefined method 'missing' for an instance of User") {
		t.Fatalf("unexpected message: %s", re.Error())
	}
}

func TestNoMethodDoesNotSearchSubclasses(t *testing.T) {
	re := runError(t, "class A; end; class B < A; def only_b; end; end; A.new.only_b")
	if re.Kind != KindNoMethod || re.ClassName != "A" {
		t.Fatalf("expected no method on A, got %v", re)
	}
}

func TestUnboundLocal(t *testing.T) {
	in := NewInterpreter(Config{Stdout: &bytes.Buffer{}})
	_, err := in.Interpret(NewNode(NodeLvar, Symbol("ghost")))
	var re *RuntimeError
	if !errors.As(err, &re) || re.Kind != KindUnboundName || re.Name != "ghost" {
		t.Fatalf("expected unbound local ghost, got %v", err)
	}
}

func TestUnboundConstant(t *testing.T) {
	re := runError(t, "Nope")
	if !errors.Is(re, ErrUnboundName) || re.Name != "Nope" {
		t.Fatalf("expected unbound constant, got %v", re)
	}

	re = runError(t, "class A; end; A::Nope")
	if re.Name != "A::Nope" || !strings.Contains(re.Message, "uninitialized constant A::Nope") {
		t.Fatalf("unexpected error: %v", re)
	}
}

func TestTypeMismatches(t *testing.T) {
	for _, source := range []string{
		"class A; end; class B; end; class C < A; end; class C < B; end",
		"x = 'str'; class A < x; end",
		"Class.new.new",
		"x = 'a'; x::Foo",
	} {
		re := runError(t, source)
		if !errors.Is(re, ErrTypeMismatch) {
			t.Fatalf("%q: expected type mismatch, got %v", source, re)
		}
	}
}

func TestReopenWithSameSuperclassIsAllowed(t *testing.T) {
	in, _ := interpret(t, "class A; end; class B < A; end; class B < A; end; class B; end; B")
	b := in.CurrentValue().AsClass()
	if b == nil || b.Superclass != userConstant(t, in, "A").ID {
		t.Fatalf("expected B < A to survive re-opening")
	}
}

func TestStackTooDeep(t *testing.T) {
	var out bytes.Buffer
	in := NewInterpreter(Config{Stdout: &out, RecursionLimit: 16})
	_, err := in.Run("def loop_forever; loop_forever; end; loop_forever")
	var re *RuntimeError
	if !errors.As(err, &re) || !errors.Is(err, ErrStackTooDeep) {
		t.Fatalf("expected stack too deep, got %v", err)
	}
	if len(re.Frames) != 16 {
		t.Fatalf("expected 16 captured frames, got %d", len(re.Frames))
	}
	if re.Frames[0].Label != "Object#loop_forever" || re.Frames[len(re.Frames)-1].Label != "<main>" {
		t.Fatalf("unexpected frames: %+v", re.Frames)
	}
	if in.Stack().Depth() != 1 {
		t.Fatalf("expected stack to unwind")
	}
}

func TestRuntimeErrorRendering(t *testing.T) {
	re := runError(t, "class User\n  def greet\n    missing_call\n  end\nend\nUser.new.greet")
	msg := re.Error()
	for _, want := range []string{
		"NoMethodError: undefined method 'missing_call' for an instance of User",
		"  --> line 3, column 5",
		"    missing_call",
		"at User#greet (3:5)",
		"at <main> (6:10)",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in:\n%s", want, msg)
		}
	}
}

func TestRuntimeErrorTruncatesFrames(t *testing.T) {
	re := &RuntimeError{Kind: KindStackTooDeep, Message: "deep"}
	for i := 0; i < 40; i++ {
		re.Frames = append(re.Frames, StackFrame{Label: "Object#f"})
	}
	msg := re.Error()
	if !strings.Contains(msg, "... 24 frames omitted ...") {
		t.Fatalf("expected truncation marker in:\n%s", msg)
	}
	if got := strings.Count(msg, "at Object#f"); got != 16 {
		t.Fatalf("expected 16 rendered frames, got %d", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestSinkFailureAbortsRun(t *testing.T) {
	in := NewInterpreter(Config{Stdout: failingWriter{}})
	_, err := in.Run("puts 'a'; @after = 'x'")
	var re *RuntimeError
	if !errors.As(err, &re) || re.Kind != KindHostFailure {
		t.Fatalf("expected host failure, got %v", err)
	}
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected the write error to be wrapped, got %v", err)
	}
	if len(in.Main().IvarNames()) != 0 {
		t.Fatalf("evaluation continued after the failure")
	}
}
