// Package sema resolves a parsed internal/ast tree into a Namespace: the
// typed, cross-referenced model of every declared entity that the CFG
// builder, optimizer, and code generator consume. Every entity gets a
// stable, monotonically assigned id the moment it is declared, so later
// passes can key maps on small ints instead of pointers or names.
package sema

import (
	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/source"
	"github.com/mickey951112/solang/internal/types"
)

// ContractEntity is a resolved contract/interface/library/abstract
// contract, including its linearized base list.
type ContractEntity struct {
	ID            int
	Name          string
	Kind          ast.ContractKind
	Bases         []*ast.InheritSpecifier
	Linearized    []int // contract ids, most-derived first (this contract's own id is Linearized[0])
	StateVars     []int // variable entity ids, in declaration order (base-to-derived when flattened)
	Functions     []int
	Events        []int
	Errors        []int
	Structs       []int
	Enums         []int
	UsingFor      map[string][]int // type string -> library function ids attached via `using`
	UsingDecls    []*ast.UsingDirective // raw directives, resolved against UsingFor once every contract is declared
	Ctor          int              // function entity id of the constructor, or -1
	Receive       int
	Fallback      int
	Decl          *ast.ContractDecl
}

// VariableKind distinguishes the roles a Variable entity can play; the
// resolver uses this to apply the right rules (storage slot assignment
// only applies to VarKindStorage, §3.3).
type VariableKind int

const (
	VarKindStorage VariableKind = iota
	VarKindLocal
	VarKindParam
	VarKindReturn
)

type Variable struct {
	ID         int
	Name       string
	Type       types.Type
	Kind       VariableKind
	Contract   int // owning contract entity id, for VarKindStorage
	Constant   bool
	Immutable  bool
	Visibility ast.Visibility
	Slot       types.Slot // valid only for VarKindStorage
	Span       source.Span
}

type FunctionEntity struct {
	ID         int
	Name       string
	Kind       ast.FunctionKind
	Contract   int
	Params     []int // Variable entity ids, VarKindParam
	Returns    []int // Variable entity ids, VarKindReturn
	Visibility ast.Visibility
	Mutability ast.Mutability
	Virtual    bool
	Override   bool
	Selector   [4]byte
	HasBody    bool
	Decl       *ast.FunctionDecl
	ModifierAp []*ast.ModifierInvocation
}

type EventEntity struct {
	ID        int
	Name      string
	Contract  int
	Params    []*ast.EventParam
	ParamTypes []types.Type
	Anonymous bool
	Topic0    [32]byte
}

type ErrorEntity struct {
	ID       int
	Name     string
	Contract int
	Params   []*ast.Param
	ParamTypes []types.Type
	Selector [4]byte
}

type StructEntity struct {
	ID       int
	Name     string
	Contract int
	Fields   []string
	FieldTypes []types.Type
}

type EnumEntity struct {
	ID       int
	Name     string
	Contract int
	Values   []string
}

// Namespace owns every entity declared across one compilation.
type Namespace struct {
	Contracts []*ContractEntity
	Variables []*Variable
	Functions []*FunctionEntity
	Events    []*EventEntity
	Errors    []*ErrorEntity
	Structs   []*StructEntity
	Enums     []*EnumEntity

	byName map[string]int // contract name -> id; other kinds are looked up within a contract's slices
}

func NewNamespace() *Namespace {
	return &Namespace{byName: map[string]int{}}
}

func (ns *Namespace) addContract(c *ContractEntity) int {
	c.ID = len(ns.Contracts)
	c.UsingFor = map[string][]int{}
	c.Ctor, c.Receive, c.Fallback = -1, -1, -1
	ns.Contracts = append(ns.Contracts, c)
	ns.byName[c.Name] = c.ID
	return c.ID
}

func (ns *Namespace) addVariable(v *Variable) int {
	v.ID = len(ns.Variables)
	ns.Variables = append(ns.Variables, v)
	return v.ID
}

func (ns *Namespace) addFunction(f *FunctionEntity) int {
	f.ID = len(ns.Functions)
	ns.Functions = append(ns.Functions, f)
	return f.ID
}

func (ns *Namespace) addEvent(e *EventEntity) int {
	e.ID = len(ns.Events)
	ns.Events = append(ns.Events, e)
	return e.ID
}

func (ns *Namespace) addError(e *ErrorEntity) int {
	e.ID = len(ns.Errors)
	ns.Errors = append(ns.Errors, e)
	return e.ID
}

func (ns *Namespace) addStruct(s *StructEntity) int {
	s.ID = len(ns.Structs)
	ns.Structs = append(ns.Structs, s)
	return s.ID
}

func (ns *Namespace) addEnum(e *EnumEntity) int {
	e.ID = len(ns.Enums)
	ns.Enums = append(ns.Enums, e)
	return e.ID
}

// ContractByName looks up a top-level contract/interface/library by name.
func (ns *Namespace) ContractByName(name string) (*ContractEntity, bool) {
	id, ok := ns.byName[name]
	if !ok {
		return nil, false
	}
	return ns.Contracts[id], true
}

// FindMember searches a contract's linearized base list (most-derived
// first) for a member function named name, returning the first match,
// which is the correct override-resolution order (§3.3).
func (ns *Namespace) FindMember(contractID int, name string) (*FunctionEntity, bool) {
	c := ns.Contracts[contractID]
	for _, baseID := range c.Linearized {
		base := ns.Contracts[baseID]
		for _, fid := range base.Functions {
			if ns.Functions[fid].Name == name {
				return ns.Functions[fid], true
			}
		}
	}
	return nil, false
}

// FindUsingFor searches a contract's linearized base list for a using-for
// function named name attached to typeKey, falling back to the wildcard
// key "*" ("using L for *") within the same base before moving to the
// next one, the same override-resolution order FindMember uses.
func (ns *Namespace) FindUsingFor(contractID int, typeKey, name string) (*FunctionEntity, bool) {
	c := ns.Contracts[contractID]
	for _, baseID := range c.Linearized {
		base := ns.Contracts[baseID]
		for _, key := range []string{typeKey, "*"} {
			for _, fid := range base.UsingFor[key] {
				if ns.Functions[fid].Name == name {
					return ns.Functions[fid], true
				}
			}
		}
	}
	return nil, false
}

// FindStateVar searches a contract's linearized base list for a state
// variable named name.
func (ns *Namespace) FindStateVar(contractID int, name string) (*Variable, bool) {
	c := ns.Contracts[contractID]
	for _, baseID := range c.Linearized {
		base := ns.Contracts[baseID]
		for _, vid := range base.StateVars {
			if ns.Variables[vid].Name == name {
				return ns.Variables[vid], true
			}
		}
	}
	return nil, false
}

// FindEvent searches a contract's linearized base list for an event named
// name, the same override-resolution order FindMember uses for functions.
func (ns *Namespace) FindEvent(contractID int, name string) (*EventEntity, bool) {
	c := ns.Contracts[contractID]
	for _, baseID := range c.Linearized {
		base := ns.Contracts[baseID]
		for _, eid := range base.Events {
			if ns.Events[eid].Name == name {
				return ns.Events[eid], true
			}
		}
	}
	return nil, false
}

// FindError searches a contract's linearized base list for a custom error
// named name.
func (ns *Namespace) FindError(contractID int, name string) (*ErrorEntity, bool) {
	c := ns.Contracts[contractID]
	for _, baseID := range c.Linearized {
		base := ns.Contracts[baseID]
		for _, eid := range base.Errors {
			if ns.Errors[eid].Name == name {
				return ns.Errors[eid], true
			}
		}
	}
	return nil, false
}
