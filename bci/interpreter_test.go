package bci

import (
	"bytes"
	"errors"
	"testing"
)

func interpret(t *testing.T, source string) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	in := NewInterpreter(Config{Stdout: &out})
	if _, err := in.Run(source); err != nil {
		t.Fatalf("run %q failed: %v", source, err)
	}
	return in, &out
}

func expectString(t *testing.T, in *Interpreter, v *Object, want string) {
	t.Helper()
	if v.Class() != in.stringClass.ID {
		t.Fatalf("expected String, got %s", in.Inspect(v))
	}
	data, ok := v.Data()
	if !ok || data != want {
		t.Fatalf("expected data %q, got %q", want, data)
	}
}

func userConstant(t *testing.T, in *Interpreter, name string) *Class {
	t.Helper()
	v, ok := in.objectClass.Constants[name]
	if !ok {
		t.Fatalf("expected constant %s under Object", name)
	}
	class := v.AsClass()
	if class == nil {
		t.Fatalf("expected %s to be a class, got %s", name, in.Inspect(v))
	}
	return class
}

func TestInterpretsStrings(t *testing.T) {
	in, _ := interpret(t, "'abc'")
	v := in.CurrentValue()
	expectString(t, in, v, "abc")
	if len(v.IvarNames()) != 0 {
		t.Fatalf("expected no ivars, got %v", v.IvarNames())
	}
}

func TestStringLiteralsKeepPayloadExactly(t *testing.T) {
	for _, s := range []string{"", "a", "with space", "tab\there", "ünïcode"} {
		in := NewInterpreter(Config{Stdout: &bytes.Buffer{}})
		v, err := in.Interpret(NewNode(NodeStr, s))
		if err != nil {
			t.Fatalf("interpret %q: %v", s, err)
		}
		expectString(t, in, v, s)
	}
}

func TestInterpretsNil(t *testing.T) {
	in, _ := interpret(t, "nil")
	if in.CurrentValue() != in.Nil() {
		t.Fatalf("expected canonical nil, got %s", in.Inspect(in.CurrentValue()))
	}

	v, err := in.Interpret(NewNode(NodeNil))
	if err != nil {
		t.Fatalf("interpret nil: %v", err)
	}
	if v != in.Nil() {
		t.Fatalf("nil is not identity-equal across evaluations")
	}
}

func TestInterpretsMultipleExpressions(t *testing.T) {
	in, _ := interpret(t, "'a'; 'b'")
	expectString(t, in, in.CurrentValue(), "b")
}

func TestEmptySequenceIsNil(t *testing.T) {
	in := NewInterpreter(Config{Stdout: &bytes.Buffer{}})
	if _, err := in.Run("'x'"); err != nil {
		t.Fatalf("run: %v", err)
	}
	v, err := in.Interpret(NewNode(NodeBegin))
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if v != in.Nil() {
		t.Fatalf("expected nil, got %s", in.Inspect(v))
	}
}

func TestEmptyProgramIsNil(t *testing.T) {
	in, _ := interpret(t, "")
	if in.CurrentValue() != in.Nil() {
		t.Fatalf("expected nil, got %s", in.Inspect(in.CurrentValue()))
	}
	if locals := in.Stack().Current().Locals; len(locals) != 0 {
		t.Fatalf("expected no toplevel locals, got %v", locals)
	}
}

func TestLocalVariables(t *testing.T) {
	in, _ := interpret(t, "a = 'abc'; b = 'def'; a")
	expectString(t, in, in.CurrentValue(), "abc")

	in, _ = interpret(t, "a = 'abc'; b = 'def'; b")
	expectString(t, in, in.CurrentValue(), "def")
}

func TestLocalRoundTripIsIdentity(t *testing.T) {
	in := NewInterpreter(Config{Stdout: &bytes.Buffer{}})
	assigned, err := in.Run("a = 'v'")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	read, err := in.Interpret(NewNode(NodeLvar, Symbol("a")))
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if read != assigned {
		t.Fatalf("expected the assigned object back")
	}
}

func TestClassDefinesConstantUnderObject(t *testing.T) {
	in, _ := interpret(t, "class User; end")
	user := userConstant(t, in, "User")
	if user.Object().Class() != in.classClass.ID {
		t.Fatalf("expected User's class to be Class")
	}
	if user.Superclass != in.objectClass.ID {
		t.Fatalf("expected superclass Object, got %v", user.Superclass)
	}
	if len(user.Methods) != 0 || len(user.Object().IvarNames()) != 0 {
		t.Fatalf("expected empty class, got methods %v", user.MethodNames())
	}
	if in.CurrentValue() != in.Nil() {
		t.Fatalf("expected empty class body to evaluate to nil")
	}
}

func TestClassBodyReturnsLastLine(t *testing.T) {
	in, _ := interpret(t, "class User; 'abc'; end")
	expectString(t, in, in.CurrentValue(), "abc")
}

func TestClassRecordsMethodDefinitions(t *testing.T) {
	in, _ := interpret(t, "class User; def zomg; end; end")
	user := userConstant(t, in, "User")
	names := user.MethodNames()
	if len(names) != 1 || names[0] != "zomg" {
		t.Fatalf("expected [zomg], got %v", names)
	}
	if _, ok := in.objectClass.Methods["zomg"]; ok {
		t.Fatalf("zomg leaked into Object")
	}
}

func TestClassBodySelfIsTheClass(t *testing.T) {
	in, _ := interpret(t, "class User; self; end")
	if in.CurrentValue() != userConstant(t, in, "User").Object() {
		t.Fatalf("expected self to be User, got %s", in.Inspect(in.CurrentValue()))
	}

	in, _ = interpret(t, "class User; self; end; self")
	if in.CurrentValue() != in.Main() {
		t.Fatalf("expected main after the class body, got %s", in.Inspect(in.CurrentValue()))
	}
}

func TestClassConstantLookup(t *testing.T) {
	in, _ := interpret(t, "class A; end; A")
	a := in.CurrentValue().AsClass()
	if a == nil || a.Name != "A" || a.Superclass != in.objectClass.ID {
		t.Fatalf("expected class A < Object, got %s", in.Inspect(in.CurrentValue()))
	}
}

func TestReopenedClassKeepsMethods(t *testing.T) {
	in, _ := interpret(t, "class A; def x; 'x'; end; end; class A; def y; 'y'; end; end; A.new.x")
	expectString(t, in, in.CurrentValue(), "x")
	names := userConstant(t, in, "A").MethodNames()
	if len(names) != 2 {
		t.Fatalf("expected methods x and y, got %v", names)
	}
}

func TestLastDefinitionWins(t *testing.T) {
	in, _ := interpret(t, "def a; 'one'; end; def a; 'two'; end; a")
	expectString(t, in, in.CurrentValue(), "two")
}

func TestMainIsPlainObject(t *testing.T) {
	in, _ := interpret(t, "self")
	if in.CurrentValue() != in.Main() {
		t.Fatalf("expected self to be main")
	}
	if in.Main().Class() != in.objectClass.ID || len(in.Main().IvarNames()) != 0 {
		t.Fatalf("expected main to be an Object with no ivars")
	}
}

func TestToplevelDefinesMethodsInObject(t *testing.T) {
	in, _ := interpret(t, "def lol; end")
	if _, ok := in.objectClass.Methods["lol"]; !ok {
		t.Fatalf("expected lol on Object, got %v", in.objectClass.MethodNames())
	}
	if in.CurrentValue() != in.Nil() {
		t.Fatalf("expected def to evaluate to nil")
	}
}

func TestInvokesOnSelfWithoutReceiver(t *testing.T) {
	in, _ := interpret(t, "def a; self; end; a")
	if in.CurrentValue() != in.Main() {
		t.Fatalf("expected main, got %s", in.Inspect(in.CurrentValue()))
	}
}

func TestInvokesOnExplicitReceiver(t *testing.T) {
	in, _ := interpret(t, "class A; def b; self; end; end; A.new.b")
	if got := in.ClassName(in.CurrentValue()); got != "A" {
		t.Fatalf("expected an A, got %s", got)
	}
}

func TestMethodsHaveTheirOwnLocals(t *testing.T) {
	in, _ := interpret(t, "a = 'main'; def c; a = 'from c'; a; end; c")
	expectString(t, in, in.CurrentValue(), "from c")

	in, _ = interpret(t, "a = 'main'; def c; a = 'from c'; a; end; c; a")
	expectString(t, in, in.CurrentValue(), "main")
}

func TestMethodCannotSeeCallerLocals(t *testing.T) {
	in := NewInterpreter(Config{Stdout: &bytes.Buffer{}})
	// Build the tree by hand: the parser would turn a bare `a` in the body
	// into a send, but an lvar node must fail on the callee's empty locals.
	body := NewNode(NodeLvar, Symbol("a"))
	tree := NewNode(NodeBegin,
		NewNode(NodeLvasgn, Symbol("a"), NewNode(NodeStr, "outer")),
		NewNode(NodeDef, Symbol("peek"), NewNode(NodeArgs), body),
		NewNode(NodeSend, nil, Symbol("peek")),
	)
	_, err := in.Interpret(tree)
	if !errors.Is(err, ErrUnboundName) {
		t.Fatalf("expected unbound name, got %v", err)
	}
}

func TestReturnValues(t *testing.T) {
	in, _ := interpret(t, "def a; 'whatev'; end; a")
	expectString(t, in, in.CurrentValue(), "whatev")

	in, _ = interpret(t, "def a; end; a")
	if in.CurrentValue() != in.Nil() {
		t.Fatalf("expected empty method to return nil")
	}
}

func TestArgumentsEvaluateInCaller(t *testing.T) {
	in, _ := interpret(t, "def a(b); b; end; b='Josh'; a(b);")
	expectString(t, in, in.CurrentValue(), "Josh")

	in, _ = interpret(t, "def a(b, c); b; c; end; b='Josh'; c='Lovisa'; a(b, c);")
	expectString(t, in, in.CurrentValue(), "Lovisa")

	in, _ = interpret(t, "def a(b); b; end; a('x')")
	expectString(t, in, in.CurrentValue(), "x")
}

func TestArityMismatchPadsAndIgnores(t *testing.T) {
	in, _ := interpret(t, "def a(b, c); c; end; a('x')")
	if in.CurrentValue() != in.Nil() {
		t.Fatalf("expected missing argument to be nil, got %s", in.Inspect(in.CurrentValue()))
	}

	in, _ = interpret(t, "def a(b); b; end; a('x', 'y')")
	expectString(t, in, in.CurrentValue(), "x")
}

func TestInstanceVariables(t *testing.T) {
	in, _ := interpret(t, "@a = 'b'")
	expectString(t, in, in.CurrentValue(), "b")
	names := in.Main().IvarNames()
	if len(names) != 1 || names[0] != "@a" {
		t.Fatalf("expected main to hold @a, got %v", names)
	}

	in, _ = interpret(t, "@a = 'b'; 'c'; @a")
	expectString(t, in, in.CurrentValue(), "b")

	in, _ = interpret(t, "@a")
	if in.CurrentValue() != in.Nil() {
		t.Fatalf("expected unset ivar to read as nil")
	}
}

func TestIvarsArePerObject(t *testing.T) {
	in, _ := interpret(t, `class A
  def set(v)
    @v = v
  end
  def v
    @v
  end
end
x = A.new
y = A.new
x.set('x')
y.v`)
	if in.CurrentValue() != in.Nil() {
		t.Fatalf("expected y's @v to be unset, got %s", in.Inspect(in.CurrentValue()))
	}
}

func TestClassNewInitializes(t *testing.T) {
	in, _ := interpret(t, `class A
                           def initialize(b)
                             @b = b
                           end
                           def b
                             @b
                           end
                         end
                         A.new("hello").b`)
	expectString(t, in, in.CurrentValue(), "hello")
}

func TestClassNewReturnsInstanceNotInitializeResult(t *testing.T) {
	in, _ := interpret(t, "class A; def initialize; 'ignored'; end; end; A.new")
	v := in.CurrentValue()
	if in.ClassName(v) != "A" {
		t.Fatalf("expected an A, got %s", in.Inspect(v))
	}
	if len(v.IvarNames()) != 0 {
		t.Fatalf("expected no ivars, got %v", v.IvarNames())
	}
}

func TestPutsWritesLines(t *testing.T) {
	in, out := interpret(t, "puts 'abc'")
	if out.String() != "abc\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if in.CurrentValue() != in.Nil() {
		t.Fatalf("expected puts to return nil")
	}

	_, out = interpret(t, `puts "abc"; puts "def"`)
	if out.String() != "abc\ndef\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestPutsAppendsExactlyOneNewline(t *testing.T) {
	_, out := interpret(t, `puts "def\n"`)
	if out.String() != "def\n\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestPutsEdgeCases(t *testing.T) {
	_, out := interpret(t, "puts")
	if out.String() != "\n" {
		t.Fatalf("expected bare puts to write a newline, got %q", out.String())
	}

	_, out = interpret(t, "puts nil")
	if out.String() != "\n" {
		t.Fatalf("expected puts nil to write an empty line, got %q", out.String())
	}

	_, out = interpret(t, "puts 'a', 'b'")
	if out.String() != "a\nb\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	_, out = interpret(t, "class A; end; puts A.new")
	if out.String() != "#<A>\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSubclassMethodWins(t *testing.T) {
	in, _ := interpret(t, `class A
  def who
    'A'
  end
  def base
    'base'
  end
end
class B < A
  def who
    'B'
  end
end
b = B.new
@who = b.who
b.base`)
	expectString(t, in, in.CurrentValue(), "base")
	expectString(t, in, in.GetIvar(in.Main(), "@who"), "B")
	if userConstant(t, in, "B").Superclass != userConstant(t, in, "A").ID {
		t.Fatalf("expected B < A")
	}
}

func TestNestedClassPath(t *testing.T) {
	in, _ := interpret(t, "class Outer; end; class Outer::Inner; def x; 'in'; end; end; Outer::Inner.new.x")
	expectString(t, in, in.CurrentValue(), "in")
	inner, ok := userConstant(t, in, "Outer").Constants["Inner"]
	if !ok || inner.AsClass().Name != "Outer::Inner" {
		t.Fatalf("expected Outer::Inner under Outer")
	}
	if _, ok := in.objectClass.Constants["Inner"]; ok {
		t.Fatalf("Inner leaked into Object")
	}
}

func TestBootstrapConstantsAreVisible(t *testing.T) {
	in, _ := interpret(t, "String")
	if in.CurrentValue() != in.StringClass() {
		t.Fatalf("expected String class, got %s", in.Inspect(in.CurrentValue()))
	}

	in, _ = interpret(t, "Class.new")
	if in.CurrentValue().Class() != in.classClass.ID {
		t.Fatalf("expected an instance of Class, got %s", in.Inspect(in.CurrentValue()))
	}
}

func TestInterpreterIsolation(t *testing.T) {
	first, _ := interpret(t, "class User; end")
	second, _ := interpret(t, "self")
	if _, ok := second.objectClass.Constants["User"]; ok {
		t.Fatalf("class leaked between interpreters")
	}
	if first.Nil() == second.Nil() {
		t.Fatalf("interpreters share nil")
	}
}

func TestRunReportsParseErrors(t *testing.T) {
	in := NewInterpreter(Config{Stdout: &bytes.Buffer{}})
	_, err := in.Run("class")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if in.Stack().Depth() != 1 {
		t.Fatalf("expected toplevel stack after parse error")
	}
}

func TestRunKeepsLocalsAcrossCalls(t *testing.T) {
	in := NewInterpreter(Config{Stdout: &bytes.Buffer{}})
	if _, err := in.Run("name = 'Josh'"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	v, err := in.Run("name")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	expectString(t, in, v, "Josh")
}
