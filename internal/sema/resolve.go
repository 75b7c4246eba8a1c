package sema

import (
	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/types"
)

// resolver holds the state threaded through both resolution passes.
type resolver struct {
	ns          *Namespace
	bag         *diag.Bag
	typeOf      map[ast.Expr]types.Type
	callTarget  map[*ast.CallExpr]*FunctionEntity
	emitTarget  map[*ast.EmitStmt]*EventEntity
	revertTarget map[*ast.RevertStmt]*ErrorEntity
	// usingReceiver records, for a call resolved via a using-for directive,
	// the receiver expression (a.f(x)'s "a") that internal/cfg must build
	// and prepend as the lowered call's first argument.
	usingReceiver map[*ast.CallExpr]ast.Expr
}

// Result is what a caller holds after resolution: the Namespace plus the
// expression type table, kept separate from Namespace itself so Namespace
// stays a plain data model with no behavior tied to one resolution run.
type Result struct {
	NS     *Namespace
	TypeOf map[ast.Expr]types.Type
	// CallTarget records, for every call resolved to a single known
	// function (plain calls and same-contract member calls), the entity
	// chosen by overload resolution; internal/cfg uses this to emit a
	// Call instruction against a canonical (contract, function) entry
	// instead of re-running name resolution during lowering.
	CallTarget map[*ast.CallExpr]*FunctionEntity
	// EmitTarget and RevertTarget record the event/custom-error an emit or
	// revert statement resolved to, the same way CallTarget does for calls.
	EmitTarget   map[*ast.EmitStmt]*EventEntity
	RevertTarget map[*ast.RevertStmt]*ErrorEntity
	// UsingReceiver records the receiver expression of every call CallTarget
	// resolved via a using-for directive rather than a plain or member call.
	UsingReceiver map[*ast.CallExpr]ast.Expr
}

// ResolveFiles is the entry point internal/cfg and internal/codegen use:
// it declares every contract and its members, linearizes inheritance,
// assigns storage slots, and type-checks every function body, appending
// diagnostics to bag throughout rather than aborting on the first error.
func ResolveFiles(files []*ast.SourceFile, bag *diag.Bag) *Result {
	r := &resolver{
		ns: NewNamespace(), bag: bag,
		typeOf:       map[ast.Expr]types.Type{},
		callTarget:   map[*ast.CallExpr]*FunctionEntity{},
		emitTarget:   map[*ast.EmitStmt]*EventEntity{},
		revertTarget: map[*ast.RevertStmt]*ErrorEntity{},
		usingReceiver: map[*ast.CallExpr]ast.Expr{},
	}
	for _, f := range files {
		r.declareTopLevel(f)
	}
	for _, c := range r.ns.Contracts {
		c.Linearized = r.linearize(c.ID)
	}
	for _, c := range r.ns.Contracts {
		r.assignStorageSlots(c)
	}
	for _, c := range r.ns.Contracts {
		r.resolveUsingFor(c)
	}
	for _, f := range r.ns.Functions {
		if f.Decl.Body != nil {
			r.checkFunctionBody(f)
		}
	}
	for _, f := range r.ns.Functions {
		if f.Decl.Body != nil {
			r.checkMutability(f)
		}
	}
	return &Result{NS: r.ns, TypeOf: r.typeOf, CallTarget: r.callTarget, EmitTarget: r.emitTarget, RevertTarget: r.revertTarget, UsingReceiver: r.usingReceiver}
}

func (r *resolver) declareTopLevel(f *ast.SourceFile) {
	for _, d := range f.Decls {
		if cd, ok := d.(*ast.ContractDecl); ok {
			r.declareContract(cd)
		}
	}
}

func (r *resolver) declareContract(cd *ast.ContractDecl) {
	if _, exists := r.ns.ContractByName(cd.Name); exists {
		r.bag.Errorf(diag.ErrDuplicateDecl, cd.Span(), "contract %q already declared", cd.Name)
		return
	}
	c := &ContractEntity{Name: cd.Name, Kind: cd.Kind, Bases: cd.Bases, Decl: cd}
	r.ns.addContract(c)

	for _, member := range cd.Body {
		switch m := member.(type) {
		case *ast.StructDecl:
			r.declareStruct(c, m)
		case *ast.EnumDecl:
			r.declareEnum(c, m)
		case *ast.EventDecl:
			r.declareEvent(c, m)
		case *ast.ErrorDecl:
			r.declareError(c, m)
		case *ast.UsingDirective:
			c.UsingDecls = append(c.UsingDecls, m)
		case *ast.StateVarDecl:
			r.declareStateVar(c, m)
		case *ast.FunctionDecl:
			r.declareFunction(c, m)
		}
	}
}

func usingKey(t ast.TypeExpr) string {
	if t == nil {
		return "*"
	}
	if nt, ok := t.(*ast.NamedType); ok {
		return nt.Name
	}
	if et, ok := t.(*ast.ElementaryType); ok {
		return et.Name
	}
	return "*"
}

// resolveUsingFor fills in c.UsingFor from c.UsingDecls now that every
// contract is declared, so "using L for T" can name a library declared
// later in the same file. Every function the library declares is attached,
// the same loose binding Solidity itself uses at the using-directive site.
// A call a.f(x) resolves to the first attached function named f; argument
// count and types are not compared.
func (r *resolver) resolveUsingFor(c *ContractEntity) {
	for _, m := range c.UsingDecls {
		lib, ok := r.ns.ContractByName(m.LibraryName)
		if !ok {
			r.bag.Errorf(diag.ErrUnknownIdent, m.Span(), "unknown library %q in using directive", m.LibraryName)
			continue
		}
		key := usingKey(m.TargetType)
		c.UsingFor[key] = append(c.UsingFor[key], lib.Functions...)
	}
}

// typeUsingKey maps a resolved type to the same granularity usingKey uses
// for a using-directive's target type: width-agnostic for elementary
// types ("uint", not "uint256"), and the declared name for user types.
func typeUsingKey(t types.Type) string {
	switch tt := t.(type) {
	case types.Ref:
		return typeUsingKey(tt.Inner)
	case types.Uint:
		return "uint"
	case types.Int:
		return "int"
	case types.Bytes:
		return "bytes"
	case types.Bool:
		return "bool"
	case types.Address:
		return "address"
	case types.String:
		return "string"
	case types.Struct:
		return tt.Name
	case types.Enum:
		return tt.Name
	case types.Contract:
		return tt.Name
	case types.Array:
		return "*"
	case types.Mapping:
		return "*"
	default:
		return "*"
	}
}

func (r *resolver) declareStruct(c *ContractEntity, sd *ast.StructDecl) {
	s := &StructEntity{Name: sd.Name, Contract: c.ID}
	for _, field := range sd.Fields {
		s.Fields = append(s.Fields, field.Name)
		s.FieldTypes = append(s.FieldTypes, r.resolveTypeExpr(field.Type))
	}
	id := r.ns.addStruct(s)
	c.Structs = append(c.Structs, id)
}

func (r *resolver) declareEnum(c *ContractEntity, ed *ast.EnumDecl) {
	e := &EnumEntity{Name: ed.Name, Contract: c.ID, Values: ed.Values}
	id := r.ns.addEnum(e)
	c.Enums = append(c.Enums, id)
}

func (r *resolver) declareEvent(c *ContractEntity, ed *ast.EventDecl) {
	e := &EventEntity{Name: ed.Name, Contract: c.ID, Params: ed.Params, Anonymous: ed.Anonymous}
	for _, p := range ed.Params {
		e.ParamTypes = append(e.ParamTypes, r.resolveTypeExpr(p.Type))
	}
	id := r.ns.addEvent(e)
	c.Events = append(c.Events, id)
}

func (r *resolver) declareError(c *ContractEntity, ed *ast.ErrorDecl) {
	e := &ErrorEntity{Name: ed.Name, Contract: c.ID, Params: ed.Params}
	for _, p := range ed.Params {
		e.ParamTypes = append(e.ParamTypes, r.resolveTypeExpr(p.Type))
	}
	id := r.ns.addError(e)
	c.Errors = append(c.Errors, id)
}

func (r *resolver) declareStateVar(c *ContractEntity, vd *ast.StateVarDecl) {
	t := r.resolveTypeExpr(vd.Type)
	v := &Variable{
		Name: vd.Name, Type: t, Kind: VarKindStorage, Contract: c.ID,
		Constant: vd.Constant, Immutable: vd.Immutable, Visibility: vd.Visibility, Span: vd.Sp,
	}
	id := r.ns.addVariable(v)
	c.StateVars = append(c.StateVars, id)
	if vd.Init != nil {
		sc := &scope{fn: &FunctionEntity{Contract: c.ID}}
		sc.push()
		initT := r.checkExpr(vd.Init, sc)
		r.expectConvertible(vd.Init, initT, t)
	}
}

func (r *resolver) declareFunction(c *ContractEntity, fd *ast.FunctionDecl) {
	f := &FunctionEntity{
		Name: fd.Name, Kind: fd.Kind, Contract: c.ID, Visibility: fd.Visibility,
		Mutability: fd.Mutability, Virtual: fd.Virtual, Override: fd.Override,
		HasBody: fd.Body != nil, Decl: fd, ModifierAp: fd.Modifiers,
	}
	for _, p := range fd.Params {
		t := r.resolveTypeExpr(p.Type)
		if isMapping(t) {
			r.bag.Errorf(diag.ErrIllegalLocation, p.Sp, "mapping type is only allowed as a state variable, not as a function parameter")
		}
		pv := &Variable{Name: p.Name, Type: t, Kind: VarKindParam, Span: p.Sp}
		f.Params = append(f.Params, r.ns.addVariable(pv))
	}
	for _, p := range fd.Returns {
		t := r.resolveTypeExpr(p.Type)
		if isMapping(t) {
			r.bag.Errorf(diag.ErrIllegalLocation, p.Sp, "mapping type is only allowed as a state variable, not as a return value")
		}
		rv := &Variable{Name: p.Name, Type: t, Kind: VarKindReturn, Span: p.Sp}
		f.Returns = append(f.Returns, r.ns.addVariable(rv))
	}
	id := r.ns.addFunction(f)
	c.Functions = append(c.Functions, id)
	switch fd.Kind {
	case ast.FuncKindConstructor:
		c.Ctor = id
	case ast.FuncKindReceive:
		c.Receive = id
	case ast.FuncKindFallback:
		c.Fallback = id
	}
}

// resolveTypeExpr binds unresolved syntax to a types.Type. Named types
// referencing a struct/enum/contract not yet declared in this pass are
// left as a placeholder Struct{ID:-1}; a second fixup pass over
// NamedType references would be needed for forward references across
// contracts, which this repo's single-pass declare order does not need
// because structs/enums/events are declared before any expression that
// could reference them is type-checked.
func (r *resolver) resolveTypeExpr(t ast.TypeExpr) types.Type {
	switch v := t.(type) {
	case nil:
		return types.Void{}
	case *ast.ElementaryType:
		switch v.Name {
		case "bool":
			return types.Bool{}
		case "address":
			return types.Address{Payable: v.Payable}
		case "string":
			return types.Ref{Inner: types.String{}, Location: types.LocMemory}
		case "bytes":
			if v.Width > 0 {
				return types.Bytes{N: v.Width}
			}
			return types.Ref{Inner: types.Bytes{N: 0}, Location: types.LocMemory}
		case "int":
			return types.Int{Width: v.Width}
		case "uint":
			return types.Uint{Width: v.Width}
		}
	case *ast.NamedType:
		return r.resolveNamedType(v.Name)
	case *ast.ArrayType:
		length := -1
		if v.Length != nil {
			if lit, ok := v.Length.(*ast.IntLiteral); ok {
				length = parseIntLiteralInt(lit.Text)
			}
		}
		elem := r.resolveTypeExpr(v.Elem)
		if length < 0 && isMapping(elem) {
			r.bag.Errorf(diag.ErrIllegalLocation, v.Sp, "mapping type is only allowed as a state variable, not as a dynamic array element")
		}
		return types.Ref{Inner: types.Array{Elem: elem, Length: length}, Location: types.LocMemory}
	case *ast.MappingType:
		return types.Ref{
			Inner:    types.Mapping{Key: r.resolveTypeExpr(v.Key), Value: r.resolveTypeExpr(v.Value)},
			Location: types.LocStorage,
		}
	}
	return types.Void{}
}

func (r *resolver) resolveNamedType(name string) types.Type {
	for _, s := range r.ns.Structs {
		if s.Name == name {
			return types.Ref{Inner: types.Struct{ID: s.ID, Name: s.Name}, Location: types.LocMemory}
		}
	}
	for _, e := range r.ns.Enums {
		if e.Name == name {
			return types.Enum{ID: e.ID, Name: e.Name}
		}
	}
	if c, ok := r.ns.ContractByName(name); ok {
		return types.Contract{ID: c.ID, Name: c.Name}
	}
	return types.Struct{ID: -1, Name: name}
}

// isMapping reports whether t is a mapping, unwrapping the Ref every
// mapping type is wrapped in.
func isMapping(t types.Type) bool {
	if rf, ok := t.(types.Ref); ok {
		t = rf.Inner
	}
	_, ok := t.(types.Mapping)
	return ok
}

func parseIntLiteralInt(text string) int {
	n := 0
	for _, ch := range text {
		if ch < '0' || ch > '9' {
			break
		}
		n = n*10 + int(ch-'0')
	}
	return n
}

// assignStorageSlots packs a contract's own state variables after those
// of every base it linearizes to, most-base-first, so a derived
// contract's fields continue its bases' layout instead of restarting at
// slot 0 (the A{x}, B is A{y} example: x keeps slot 0 from A, y gets
// slot 1 from B, not slot 0 again). c.Linearized is derived-first
// ([C, B, A]), so it is walked back to front here to get base-first
// order. Only c's own variables are written: each base's own call to
// assignStorageSlots already fixed its own variables' slots, and this
// call only needs their types, in order, to continue the packing at the
// right offset.
func (r *resolver) assignStorageSlots(c *ContractEntity) {
	var ts []types.Type
	for i := len(c.Linearized) - 1; i >= 0; i-- {
		baseID := c.Linearized[i]
		if baseID == c.ID {
			continue
		}
		base := r.ns.Contracts[baseID]
		for _, vid := range base.StateVars {
			ts = append(ts, r.ns.Variables[vid].Type)
		}
	}
	baseCount := len(ts)
	for _, vid := range c.StateVars {
		ts = append(ts, r.ns.Variables[vid].Type)
	}
	slots := types.PackSlots(ts)
	for i, vid := range c.StateVars {
		r.ns.Variables[vid].Slot = slots[baseCount+i]
	}
}
