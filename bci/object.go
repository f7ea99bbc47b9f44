package bci

import (
	"sort"
	"strconv"
)

// ClassID indexes the interpreter's class arena. The class of every object,
// including classes themselves, is stored as an id rather than a pointer so
// the Class class can name itself.
type ClassID int

// NoClass marks the absent superclass of the root class.
const NoClass ClassID = -1

// Object is the single runtime value representation. Classes are objects
// that also carry a *Class record; Strings carry a data payload.
type Object struct {
	class ClassID
	ivars map[string]*Object

	data    string
	hasData bool

	classRec *Class
}

// Class is the class-specific half of a class object.
type Class struct {
	ID         ClassID
	Name       string
	Superclass ClassID
	Methods    map[string]*Method
	Constants  map[string]*Object

	object *Object
}

func newObject(class ClassID) *Object {
	return &Object{class: class, ivars: make(map[string]*Object)}
}

// Class returns the id of the object's class.
func (o *Object) Class() ClassID {
	return o.class
}

// Data returns the string payload, if the object carries one.
func (o *Object) Data() (string, bool) {
	return o.data, o.hasData
}

// AsClass returns the class record of a class object, or nil.
func (o *Object) AsClass() *Class {
	return o.classRec
}

// IsClass reports whether the object is a class.
func (o *Object) IsClass() bool {
	return o.classRec != nil
}

// SetIvar stores an instance variable on this object only.
func (o *Object) SetIvar(name string, value *Object) {
	o.ivars[name] = value
}

// LookupIvar returns the stored ivar and whether it was ever set.
func (o *Object) LookupIvar(name string) (*Object, bool) {
	v, ok := o.ivars[name]
	return v, ok
}

// IvarNames lists the object's instance variables in sorted order.
func (o *Object) IvarNames() []string {
	names := make([]string, 0, len(o.ivars))
	for name := range o.ivars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Object returns the class's object face.
func (c *Class) Object() *Object {
	return c.object
}

// MethodNames lists the methods declared directly on this class.
func (c *Class) MethodNames() []string {
	names := make([]string, 0, len(c.Methods))
	for name := range c.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConstantNames lists the class's constants in sorted order.
func (c *Class) ConstantNames() []string {
	names := make([]string, 0, len(c.Constants))
	for name := range c.Constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetIvar reads an instance variable, returning the canonical nil when the
// variable was never set.
func (in *Interpreter) GetIvar(obj *Object, name string) *Object {
	if v, ok := obj.LookupIvar(name); ok {
		return v
	}
	return in.nilObject
}

// ClassOf returns the class object of any value. Classes are instances of
// the Class class, whose own class is itself.
func (in *Interpreter) ClassOf(v *Object) *Object {
	return in.classes[v.class].object
}

// ClassByID resolves an id from the class arena.
func (in *Interpreter) ClassByID(id ClassID) *Class {
	if id < 0 || int(id) >= len(in.classes) {
		return nil
	}
	return in.classes[id]
}

// NewObject allocates an instance of class with no instance variables.
func (in *Interpreter) NewObject(class *Class) *Object {
	return newObject(class.ID)
}

// NewString allocates a String carrying data.
func (in *Interpreter) NewString(data string) *Object {
	obj := newObject(in.stringClass.ID)
	obj.data = data
	obj.hasData = true
	return obj
}

// newClass allocates a class object, registers it in the arena and returns
// its record. The superclass may be NoClass only for the root class.
func (in *Interpreter) newClass(name string, superclass ClassID) *Class {
	id := ClassID(len(in.classes))
	rec := &Class{
		ID:         id,
		Name:       name,
		Superclass: superclass,
		Methods:    make(map[string]*Method),
		Constants:  make(map[string]*Object),
	}
	// The Class class does not exist yet while it is being created; its
	// class is then itself, which is exactly id.
	classOfClass := id
	if in.classClass != nil {
		classOfClass = in.classClass.ID
	}
	obj := newObject(classOfClass)
	obj.classRec = rec
	rec.object = obj
	in.classes = append(in.classes, rec)
	return rec
}

// ClassName returns the human name of the value's class.
func (in *Interpreter) ClassName(v *Object) string {
	return in.classes[v.class].Name
}

// Inspect renders a value for diagnostics: strings are quoted, classes show
// their name, other objects show #<ClassName>.
func (in *Interpreter) Inspect(v *Object) string {
	switch {
	case v == nil:
		return "<unset>"
	case v == in.nilObject:
		return "nil"
	case v == in.main:
		return "main"
	case v.IsClass():
		return v.classRec.Name
	}
	if data, ok := v.Data(); ok {
		return strconv.Quote(data)
	}
	return "#<" + in.ClassName(v) + ">"
}
