// Package types implements the type algebra: the resolved type values
// every expression and declaration in a Namespace carries once
// internal/sema has bound syntax to meaning.
package types

import "fmt"

// Type is implemented by every resolved type. Equal and String are the
// only operations every kind must support; conversion/packing rules live
// in conv.go and layout.go, which switch on concrete kind via a type
// assertion the way a small closed type algebra is meant to be consumed.
type Type interface {
	String() string
	Equal(Type) bool
}

// Bool is the boolean type.
type Bool struct{}

func (Bool) String() string   { return "bool" }
func (Bool) Equal(o Type) bool { _, ok := o.(Bool); return ok }

// Int is a signed integer of the given bit width, 8..256 in steps of 8.
type Int struct{ Width int }

func (t Int) String() string { return fmt.Sprintf("int%d", t.Width) }
func (t Int) Equal(o Type) bool {
	u, ok := o.(Int)
	return ok && u.Width == t.Width
}

// Uint is an unsigned integer of the given bit width.
type Uint struct{ Width int }

func (t Uint) String() string { return fmt.Sprintf("uint%d", t.Width) }
func (t Uint) Equal(o Type) bool {
	u, ok := o.(Uint)
	return ok && u.Width == t.Width
}

// Bytes is fixed-size when N > 0 (bytes1..bytes32) and dynamic when N == 0.
type Bytes struct{ N int }

func (t Bytes) String() string {
	if t.N == 0 {
		return "bytes"
	}
	return fmt.Sprintf("bytes%d", t.N)
}
func (t Bytes) Equal(o Type) bool {
	u, ok := o.(Bytes)
	return ok && u.N == t.N
}

// String is the dynamic UTF-8 string type.
type String struct{}

func (String) String() string    { return "string" }
func (String) Equal(o Type) bool { _, ok := o.(String); return ok }

// Address is the 20-byte account address type; Payable marks the
// "address payable" variant, which is a distinct type for implicit
// conversion purposes (plain address cannot implicitly convert to
// payable, payable can always convert to plain).
type Address struct{ Payable bool }

func (t Address) String() string {
	if t.Payable {
		return "address payable"
	}
	return "address"
}
func (t Address) Equal(o Type) bool {
	u, ok := o.(Address)
	return ok && u.Payable == t.Payable
}

// Enum names a declared enum type by its Namespace id; the set of
// members lives on the Namespace entity, not here, so two Enum values
// naming the same id are always the same type.
type Enum struct {
	ID   int
	Name string
}

func (t Enum) String() string { return t.Name }
func (t Enum) Equal(o Type) bool {
	u, ok := o.(Enum)
	return ok && u.ID == t.ID
}

// Struct names a declared struct type by its Namespace id.
type Struct struct {
	ID   int
	Name string
}

func (t Struct) String() string { return t.Name }
func (t Struct) Equal(o Type) bool {
	u, ok := o.(Struct)
	return ok && u.ID == t.ID
}

// Array is fixed-length when Length >= 0, dynamic when Length < 0.
type Array struct {
	Elem   Type
	Length int
}

func (t Array) String() string {
	if t.Length < 0 {
		return t.Elem.String() + "[]"
	}
	return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Length)
}
func (t Array) Equal(o Type) bool {
	u, ok := o.(Array)
	return ok && u.Length == t.Length && u.Elem.Equal(t.Elem)
}

// Mapping is only valid as a storage-located state variable's type; the
// resolver rejects it anywhere else (§3.2).
type Mapping struct {
	Key   Type
	Value Type
}

func (t Mapping) String() string { return fmt.Sprintf("mapping(%s => %s)", t.Key, t.Value) }
func (t Mapping) Equal(o Type) bool {
	u, ok := o.(Mapping)
	return ok && u.Key.Equal(t.Key) && u.Value.Equal(t.Value)
}

// Contract names a declared contract type by its Namespace id, used for
// the type of `this`, constructor return values, and inter-contract call
// targets.
type Contract struct {
	ID   int
	Name string
}

func (t Contract) String() string { return t.Name }
func (t Contract) Equal(o Type) bool {
	u, ok := o.(Contract)
	return ok && u.ID == t.ID
}

// Location is where a reference-typed value lives.
type Location int

const (
	LocDefault Location = iota
	LocStorage
	LocMemory
	LocCalldata
)

func (l Location) String() string {
	switch l {
	case LocStorage:
		return "storage"
	case LocMemory:
		return "memory"
	case LocCalldata:
		return "calldata"
	default:
		return ""
	}
}

// Ref wraps a reference-kind type (struct, array, mapping, bytes, string)
// with the data location it was bound in. Value types (bool, intN, uintN,
// address, fixed bytesN, enum) are never wrapped in a Ref.
type Ref struct {
	Inner    Type
	Location Location
}

func (t Ref) String() string {
	if t.Location == LocDefault {
		return t.Inner.String()
	}
	return fmt.Sprintf("%s %s", t.Inner.String(), t.Location)
}
func (t Ref) Equal(o Type) bool {
	u, ok := o.(Ref)
	return ok && u.Location == t.Location && u.Inner.Equal(t.Inner)
}

// Function is the type of a resolved function value: its parameter and
// return types, independent of which Namespace entity it came from.
type Function struct {
	Params  []Type
	Returns []Type
}

func (t Function) String() string {
	s := "function("
	for i, p := range t.Params {
		if i > 0 {
			s += ","
		}
		s += p.String()
	}
	s += ")"
	if len(t.Returns) > 0 {
		s += " returns ("
		for i, r := range t.Returns {
			if i > 0 {
				s += ","
			}
			s += r.String()
		}
		s += ")"
	}
	return s
}
func (t Function) Equal(o Type) bool {
	u, ok := o.(Function)
	if !ok || len(u.Params) != len(t.Params) || len(u.Returns) != len(t.Returns) {
		return false
	}
	for i := range t.Params {
		if !u.Params[i].Equal(t.Params[i]) {
			return false
		}
	}
	for i := range t.Returns {
		if !u.Returns[i].Equal(t.Returns[i]) {
			return false
		}
	}
	return true
}

// Void is the "no value" pseudo-type used for statements and for a
// function with no declared return values.
type Void struct{}

func (Void) String() string    { return "void" }
func (Void) Equal(o Type) bool { _, ok := o.(Void); return ok }

// IsValueType reports whether t is copied by value rather than carried as
// a Ref with a data location.
func IsValueType(t Type) bool {
	switch v := t.(type) {
	case Bool, Int, Uint, Address, Enum:
		return true
	case Bytes:
		return v.N > 0
	default:
		return false
	}
}

// IsReference reports whether t needs a data location (array, mapping,
// struct, dynamic bytes, string).
func IsReference(t Type) bool {
	switch t.(type) {
	case Array, Mapping, Struct:
		return true
	case Bytes:
		return t.(Bytes).N == 0
	case String:
		return true
	default:
		return false
	}
}
