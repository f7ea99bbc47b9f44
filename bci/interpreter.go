package bci

import (
	"io"
	"os"

	"github.com/tliron/commonlog"
)

// Config tunes an Interpreter. Zero values select the defaults.
type Config struct {
	// Stdout receives everything written by puts.
	Stdout io.Writer
	// RecursionLimit caps the binding stack depth, toplevel frame included.
	RecursionLimit int
}

const defaultRecursionLimit = 512

// Interpreter owns one object graph and one binding stack. It is not safe
// for concurrent use; independent interpreters share nothing.
type Interpreter struct {
	classes []*Class

	classClass  *Class
	objectClass *Class
	stringClass *Class
	nilClass    *Class
	nilObject   *Object
	main        *Object

	stack *Stack

	stdout         io.Writer
	recursionLimit int
	source         string
	log            commonlog.Logger
}

// NewInterpreter bootstraps a fresh runtime.
func NewInterpreter(cfg Config) *Interpreter {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.RecursionLimit <= 0 {
		cfg.RecursionLimit = defaultRecursionLimit
	}

	in := &Interpreter{
		stdout:         cfg.Stdout,
		recursionLimit: cfg.RecursionLimit,
		log:            commonlog.GetLogger("bci.interpreter"),
	}
	in.bootstrap()
	in.log.Debugf("bootstrapped %d classes", len(in.classes))
	return in
}

// Interpret evaluates tree in the toplevel frame and returns the resulting
// value. An absent tree evaluates to nil. A fatal error aborts the pass and
// is returned as a *RuntimeError; the binding stack is left balanced.
func (in *Interpreter) Interpret(tree *Node) (*Object, error) {
	if err := in.evalNode(tree); err != nil {
		return nil, err
	}
	return in.stack.Result(), nil
}

// Run parses source and interprets it. Locals bound by earlier runs on the
// same interpreter stay visible. Runtime errors carry a code frame pointing
// into source.
func (in *Interpreter) Run(source string) (*Object, error) {
	locals := make([]string, 0, len(in.stack.Current().Locals))
	for name := range in.stack.Current().Locals {
		locals = append(locals, name)
	}
	tree, err := ParseWithLocals(source, locals)
	if err != nil {
		return nil, err
	}
	in.source = source
	return in.Interpret(tree)
}

func (in *Interpreter) ObjectClass() *Object { return in.objectClass.object }
func (in *Interpreter) StringClass() *Object { return in.stringClass.object }
func (in *Interpreter) NilClass() *Object    { return in.nilClass.object }
func (in *Interpreter) ClassClass() *Object  { return in.classClass.object }

// Nil returns the canonical nil instance.
func (in *Interpreter) Nil() *Object { return in.nilObject }

// Main returns the toplevel self.
func (in *Interpreter) Main() *Object { return in.main }

// Stack exposes the binding stack for inspection.
func (in *Interpreter) Stack() *Stack { return in.stack }

// CurrentValue returns the current frame's result.
func (in *Interpreter) CurrentValue() *Object { return in.stack.Result() }

// Classes returns every class in creation order, bootstrap classes first.
func (in *Interpreter) Classes() []*Class {
	out := make([]*Class, len(in.classes))
	copy(out, in.classes)
	return out
}
