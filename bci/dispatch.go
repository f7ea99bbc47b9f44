package bci

// MethodKind tells native methods from interpreted ones.
type MethodKind int

const (
	MethodNative MethodKind = iota
	MethodInterpreted
)

func (k MethodKind) String() string {
	if k == MethodNative {
		return "native"
	}
	return "interpreted"
}

// NativeFunc implements a built-in method. The interpreter is passed
// explicitly so natives can reach its singletons and output sink.
type NativeFunc func(in *Interpreter, self *Object, args []*Object) (*Object, error)

// Method is an entry in a class's method table.
type Method struct {
	Kind   MethodKind
	Name   string
	Params []string
	Native NativeFunc
	Body   *Node
	Owner  ClassID
}

func nativeMethod(owner *Class, name string, fn NativeFunc) *Method {
	return &Method{
		Kind:   MethodNative,
		Name:   name,
		Native: fn,
		Owner:  owner.ID,
	}
}

// FindMethod resolves name starting at class and walking superclasses,
// consulting only each class's own table. It returns the method and the
// class that declared it, or nil, nil when the chain is exhausted.
func (in *Interpreter) FindMethod(class *Class, name string) (*Method, *Class) {
	for c := class; c != nil; c = in.ClassByID(c.Superclass) {
		if method, ok := c.Methods[name]; ok {
			return method, c
		}
	}
	return nil, nil
}

// Send invokes name on recv with already evaluated arguments.
func (in *Interpreter) Send(recv *Object, name string, args []*Object) (*Object, error) {
	return in.send(nil, recv, name, args)
}

func (in *Interpreter) send(node *Node, recv *Object, name string, args []*Object) (*Object, error) {
	method, owner := in.FindMethod(in.classes[recv.class], name)
	if method == nil {
		return nil, in.errNoMethod(node, name, recv)
	}
	in.log.Debugf("send %s to %s (%s, %d args)", name, in.Inspect(recv), owner.Name, len(args))

	frame := &Frame{
		Label:  owner.Name + "#" + name,
		Self:   recv,
		Locals: make(map[string]*Object, len(method.Params)),
		Result: in.nilObject,
	}
	for i, param := range method.Params {
		if i < len(args) {
			frame.Locals[param] = args[i]
		} else {
			frame.Locals[param] = in.nilObject
		}
	}

	return in.within(frame, node, func() error {
		switch method.Kind {
		case MethodNative:
			v, err := method.Native(in, recv, args)
			if err != nil {
				return in.wrapError(err, node)
			}
			if v == nil {
				v = in.nilObject
			}
			in.stack.SetResult(v)
		case MethodInterpreted:
			if method.Body != nil {
				return in.evalNode(method.Body)
			}
		}
		return nil
	})
}

// within evaluates fn with frame pushed as the current binding. The frame is
// always popped; on success its result becomes the caller's result.
func (in *Interpreter) within(frame *Frame, node *Node, fn func() error) (*Object, error) {
	if in.stack.Depth() >= in.recursionLimit {
		return nil, in.newRuntimeError(KindStackTooDeep, node, "stack level too deep (limit %d)", in.recursionLimit)
	}
	if node != nil {
		frame.Pos = node.Pos
	}

	in.stack.Push(frame)
	in.log.Debugf("push %s (depth %d)", frame.Label, in.stack.Depth())
	err := fn()
	popped := in.stack.Pop()
	in.log.Debugf("pop %s (depth %d)", popped.Label, in.stack.Depth())
	if err != nil {
		return nil, err
	}

	in.stack.SetResult(popped.Result)
	return popped.Result, nil
}
