package bci

import (
	"fmt"
	"io"
)

// bootstrap builds the root classes, nil, main and the toplevel frame. It
// runs once per interpreter, before anything is evaluated.
func (in *Interpreter) bootstrap() {
	in.classClass = in.newClass("Class", NoClass)
	in.classClass.Methods["new"] = nativeMethod(in.classClass, "new", builtinNew)

	in.objectClass = in.newClass("Object", NoClass)
	in.objectClass.Methods["initialize"] = nativeMethod(in.objectClass, "initialize", builtinInitialize)
	in.objectClass.Methods["puts"] = nativeMethod(in.objectClass, "puts", builtinPuts)
	in.classClass.Superclass = in.objectClass.ID

	in.stringClass = in.newClass("String", in.objectClass.ID)
	in.nilClass = in.newClass("NilClass", in.objectClass.ID)

	for _, class := range []*Class{in.classClass, in.objectClass, in.stringClass, in.nilClass} {
		in.objectClass.Constants[class.Name] = class.object
	}

	in.nilObject = in.NewObject(in.nilClass)
	in.main = in.NewObject(in.objectClass)

	in.stack = newStack(&Frame{
		Label:  toplevelLabel,
		Self:   in.main,
		Locals: make(map[string]*Object),
		Result: in.nilObject,
	})
}

const toplevelLabel = "<main>"

// builtinNew allocates an instance of the receiving class, sends it
// initialize with the call's arguments and returns the instance.
func builtinNew(in *Interpreter, self *Object, args []*Object) (*Object, error) {
	class := self.AsClass()
	if class == nil {
		return nil, fmt.Errorf("%w: new called on non-class %s", ErrTypeMismatch, in.Inspect(self))
	}
	instance := in.NewObject(class)
	if _, err := in.Send(instance, "initialize", args); err != nil {
		return nil, err
	}
	return instance, nil
}

func builtinInitialize(in *Interpreter, self *Object, args []*Object) (*Object, error) {
	return in.nilObject, nil
}

// builtinPuts writes each argument on its own line. With no arguments it
// writes an empty line.
func builtinPuts(in *Interpreter, self *Object, args []*Object) (*Object, error) {
	if len(args) == 0 {
		if _, err := io.WriteString(in.stdout, "\n"); err != nil {
			return nil, fmt.Errorf("puts: %w", err)
		}
		return in.nilObject, nil
	}
	for _, arg := range args {
		if _, err := io.WriteString(in.stdout, in.putsText(arg)+"\n"); err != nil {
			return nil, fmt.Errorf("puts: %w", err)
		}
	}
	return in.nilObject, nil
}

func (in *Interpreter) putsText(v *Object) string {
	if data, ok := v.Data(); ok {
		return data
	}
	if v == in.nilObject {
		return ""
	}
	return in.Inspect(v)
}
