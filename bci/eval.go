package bci

// evalNode evaluates node in the current frame and leaves its value in the
// frame's result slot. An absent node evaluates to nil.
func (in *Interpreter) evalNode(node *Node) error {
	if node == nil {
		in.stack.SetResult(in.nilObject)
		return nil
	}

	switch node.Type {
	case NodeStr:
		data, ok := node.StringChild(0)
		if !ok {
			return in.errMalformed(node)
		}
		in.stack.SetResult(in.NewString(data))
		return nil
	case NodeBegin:
		return in.evalBegin(node)
	case NodeLvasgn:
		return in.evalLocalAssign(node)
	case NodeLvar:
		name, ok := node.SymbolChild(0)
		if !ok {
			return in.errMalformed(node)
		}
		v, ok := in.stack.Current().Local(string(name))
		if !ok {
			return in.errUnboundLocal(node, string(name))
		}
		in.stack.SetResult(v)
		return nil
	case NodeIvasgn:
		return in.evalIvarAssign(node)
	case NodeIvar:
		name, ok := node.SymbolChild(0)
		if !ok {
			return in.errMalformed(node)
		}
		in.stack.SetResult(in.GetIvar(in.stack.Current().Self, string(name)))
		return nil
	case NodeSelf:
		in.stack.SetResult(in.stack.Current().Self)
		return nil
	case NodeNil:
		in.stack.SetResult(in.nilObject)
		return nil
	case NodeClass:
		return in.evalClass(node)
	case NodeDef:
		return in.evalDef(node)
	case NodeSend:
		return in.evalSend(node)
	case NodeConst:
		return in.evalConst(node)
	default:
		return in.errUnsupported(node)
	}
}

// evalValue evaluates node and returns the value it left behind.
func (in *Interpreter) evalValue(node *Node) (*Object, error) {
	if err := in.evalNode(node); err != nil {
		return nil, err
	}
	return in.stack.Result(), nil
}

func (in *Interpreter) evalBegin(node *Node) error {
	if len(node.Children) == 0 {
		in.stack.SetResult(in.nilObject)
		return nil
	}
	for i := range node.Children {
		child, ok := node.Child(i)
		if !ok {
			return in.errMalformed(node)
		}
		if err := in.evalNode(child); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) evalLocalAssign(node *Node) error {
	name, ok := node.SymbolChild(0)
	rhs, rhsOK := node.Child(1)
	if !ok || !rhsOK {
		return in.errMalformed(node)
	}
	v, err := in.evalValue(rhs)
	if err != nil {
		return err
	}
	in.stack.Current().Locals[string(name)] = v
	in.stack.SetResult(v)
	return nil
}

func (in *Interpreter) evalIvarAssign(node *Node) error {
	name, ok := node.SymbolChild(0)
	rhs, rhsOK := node.Child(1)
	if !ok || !rhsOK {
		return in.errMalformed(node)
	}
	v, err := in.evalValue(rhs)
	if err != nil {
		return err
	}
	in.stack.Current().Self.SetIvar(string(name), v)
	in.stack.SetResult(v)
	return nil
}

func (in *Interpreter) evalClass(node *Node) error {
	path, pathOK := node.Child(0)
	superNode, superOK := node.Child(1)
	body, bodyOK := node.Child(2)
	if !pathOK || !superOK || !bodyOK || path == nil || path.Type != NodeConst {
		return in.errMalformed(node)
	}

	namespace, name, err := in.constTarget(path)
	if err != nil {
		return err
	}

	var superclass *Class
	if superNode != nil {
		v, err := in.evalValue(superNode)
		if err != nil {
			return err
		}
		if superclass = v.AsClass(); superclass == nil {
			return in.newRuntimeError(KindTypeMismatch, superNode, "superclass must be a Class (%s given)", in.Inspect(v))
		}
	}

	class, err := in.openClass(node, namespace, name, superclass)
	if err != nil {
		return err
	}

	frame := &Frame{
		Label:  "<class:" + class.Name + ">",
		Self:   class.object,
		Locals: make(map[string]*Object),
		Result: in.nilObject,
	}
	_, err = in.within(frame, node, func() error {
		if body == nil {
			return nil
		}
		return in.evalNode(body)
	})
	return err
}

// openClass returns the class named name under namespace, creating it when
// it does not exist yet. Re-opening keeps the existing method table.
func (in *Interpreter) openClass(node *Node, namespace *Class, name string, superclass *Class) (*Class, error) {
	qualified := name
	if namespace != in.objectClass {
		qualified = namespace.Name + "::" + name
	}

	if existing, ok := namespace.Constants[name]; ok {
		class := existing.AsClass()
		if class == nil {
			re := in.newRuntimeError(KindTypeMismatch, node, "%s is not a class", qualified)
			re.Name = qualified
			return nil, re
		}
		if superclass != nil && class.Superclass != superclass.ID {
			re := in.newRuntimeError(KindTypeMismatch, node, "superclass mismatch for class %s", qualified)
			re.Name = qualified
			re.ClassName = class.Name
			return nil, re
		}
		in.log.Debugf("reopen class %s", class.Name)
		return class, nil
	}

	if superclass == nil {
		superclass = in.objectClass
	}
	class := in.newClass(qualified, superclass.ID)
	namespace.Constants[name] = class.object
	in.log.Debugf("define class %s < %s", class.Name, superclass.Name)
	return class, nil
}

func (in *Interpreter) evalDef(node *Node) error {
	name, ok := node.SymbolChild(0)
	args, argsOK := node.Child(1)
	body, bodyOK := node.Child(2)
	if !ok || !argsOK || !bodyOK || args == nil || args.Type != NodeArgs {
		return in.errMalformed(node)
	}

	params := make([]string, 0, len(args.Children))
	for i := range args.Children {
		arg, ok := args.Child(i)
		if !ok || arg == nil || arg.Type != NodeArg {
			return in.errMalformed(node)
		}
		param, ok := arg.SymbolChild(0)
		if !ok {
			return in.errMalformed(arg)
		}
		params = append(params, string(param))
	}

	target := in.definitionTarget()
	target.Methods[string(name)] = &Method{
		Kind:   MethodInterpreted,
		Name:   string(name),
		Params: params,
		Body:   body,
		Owner:  target.ID,
	}
	in.log.Debugf("define %s#%s/%d", target.Name, name, len(params))
	in.stack.SetResult(in.nilObject)
	return nil
}

// definitionTarget is the class def writes into: self inside a class body,
// otherwise self's class.
func (in *Interpreter) definitionTarget() *Class {
	self := in.stack.Current().Self
	if class := self.AsClass(); class != nil {
		return class
	}
	return in.classes[self.class]
}

func (in *Interpreter) evalSend(node *Node) error {
	recvNode, recvOK := node.Child(0)
	name, nameOK := node.SymbolChild(1)
	if !recvOK || !nameOK {
		return in.errMalformed(node)
	}

	recv := in.stack.Current().Self
	if recvNode != nil {
		v, err := in.evalValue(recvNode)
		if err != nil {
			return err
		}
		recv = v
	}

	args := make([]*Object, 0, len(node.Children)-2)
	for i := 2; i < len(node.Children); i++ {
		argNode, ok := node.Child(i)
		if !ok || argNode == nil {
			return in.errMalformed(node)
		}
		v, err := in.evalValue(argNode)
		if err != nil {
			return err
		}
		args = append(args, v)
	}

	_, err := in.send(node, recv, string(name), args)
	return err
}

func (in *Interpreter) evalConst(node *Node) error {
	namespace, name, err := in.constTarget(node)
	if err != nil {
		return err
	}
	v, ok := namespace.Constants[name]
	if !ok {
		return in.errUnboundConstant(node, namespace, name)
	}
	in.stack.SetResult(v)
	return nil
}

// constTarget resolves the namespace and name of a const node. An absent
// namespace means Object.
func (in *Interpreter) constTarget(node *Node) (*Class, string, error) {
	nsNode, nsOK := node.Child(0)
	name, nameOK := node.SymbolChild(1)
	if !nsOK || !nameOK {
		return nil, "", in.errMalformed(node)
	}
	if nsNode == nil {
		return in.objectClass, string(name), nil
	}

	v, err := in.evalValue(nsNode)
	if err != nil {
		return nil, "", err
	}
	namespace := v.AsClass()
	if namespace == nil {
		return nil, "", in.newRuntimeError(KindTypeMismatch, nsNode, "%s is not a class", in.Inspect(v))
	}
	return namespace, string(name), nil
}
