package bci

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Snapshot is a read-only picture of an interpreter: its class table, the
// main object and the binding stack. Values are recorded in inspect form.
type Snapshot struct {
	Classes []ClassSnapshot `yaml:"classes" cbor:"1,keyasint"`
	Main    ObjectSnapshot  `yaml:"main" cbor:"2,keyasint"`
	Frames  []FrameSnapshot `yaml:"frames" cbor:"3,keyasint"`
	Result  string          `yaml:"result" cbor:"4,keyasint"`
}

type ClassSnapshot struct {
	Name       string            `yaml:"name" cbor:"1,keyasint"`
	Superclass string            `yaml:"superclass,omitempty" cbor:"2,keyasint,omitempty"`
	Methods    []MethodSnapshot  `yaml:"methods,omitempty" cbor:"3,keyasint,omitempty"`
	Constants  map[string]string `yaml:"constants,omitempty" cbor:"4,keyasint,omitempty"`
}

type MethodSnapshot struct {
	Name   string   `yaml:"name" cbor:"1,keyasint"`
	Kind   string   `yaml:"kind" cbor:"2,keyasint"`
	Params []string `yaml:"params,omitempty" cbor:"3,keyasint,omitempty"`
}

type ObjectSnapshot struct {
	Class string            `yaml:"class" cbor:"1,keyasint"`
	Ivars map[string]string `yaml:"ivars,omitempty" cbor:"2,keyasint,omitempty"`
}

// FrameSnapshot records one binding, toplevel first.
type FrameSnapshot struct {
	Label  string            `yaml:"label" cbor:"1,keyasint"`
	Self   string            `yaml:"self" cbor:"2,keyasint"`
	Locals map[string]string `yaml:"locals,omitempty" cbor:"3,keyasint,omitempty"`
	Result string            `yaml:"result" cbor:"4,keyasint"`
}

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bci: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// Snapshot captures the interpreter's current state.
func (in *Interpreter) Snapshot() *Snapshot {
	snap := &Snapshot{
		Classes: make([]ClassSnapshot, 0, len(in.classes)),
		Main:    in.objectSnapshot(in.main),
		Result:  in.Inspect(in.stack.Result()),
	}

	for _, class := range in.classes {
		cs := ClassSnapshot{Name: class.Name}
		if super := in.ClassByID(class.Superclass); super != nil {
			cs.Superclass = super.Name
		}
		for _, name := range class.MethodNames() {
			method := class.Methods[name]
			cs.Methods = append(cs.Methods, MethodSnapshot{
				Name:   name,
				Kind:   method.Kind.String(),
				Params: append([]string(nil), method.Params...),
			})
		}
		if len(class.Constants) > 0 {
			cs.Constants = make(map[string]string, len(class.Constants))
			for name, v := range class.Constants {
				cs.Constants[name] = in.Inspect(v)
			}
		}
		snap.Classes = append(snap.Classes, cs)
	}

	for _, frame := range in.stack.Frames() {
		fs := FrameSnapshot{
			Label:  frame.Label,
			Self:   in.Inspect(frame.Self),
			Result: in.Inspect(frame.Result),
		}
		if len(frame.Locals) > 0 {
			fs.Locals = make(map[string]string, len(frame.Locals))
			for name, v := range frame.Locals {
				fs.Locals[name] = in.Inspect(v)
			}
		}
		snap.Frames = append(snap.Frames, fs)
	}

	return snap
}

func (in *Interpreter) objectSnapshot(obj *Object) ObjectSnapshot {
	out := ObjectSnapshot{Class: in.ClassName(obj)}
	names := obj.IvarNames()
	if len(names) > 0 {
		out.Ivars = make(map[string]string, len(names))
		for _, name := range names {
			out.Ivars[name] = in.Inspect(in.GetIvar(obj, name))
		}
	}
	return out
}

// EncodeYAML writes the snapshot as YAML.
func (s *Snapshot) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("snapshot: marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("snapshot: encoder close: %w", err)
	}
	return nil
}

// EncodeCBOR serializes the snapshot in canonical CBOR, so equal states
// produce equal bytes.
func (s *Snapshot) EncodeCBOR() ([]byte, error) {
	data, err := snapshotEncMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal cbor: %w", err)
	}
	return data, nil
}

// DecodeSnapshotCBOR reads a snapshot written by EncodeCBOR.
func DecodeSnapshotCBOR(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal cbor: %w", err)
	}
	return &s, nil
}
