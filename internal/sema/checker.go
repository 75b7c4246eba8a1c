package sema

import (
	"math/big"

	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/types"
)

// scope is a stack of name -> Variable id maps for local name resolution
// inside one function body; blocks push and pop a frame.
type scope struct {
	frames []map[string]int
	fn     *FunctionEntity
	loops  int
}

func (s *scope) push() { s.frames = append(s.frames, map[string]int{}) }
func (s *scope) pop()  { s.frames = s.frames[:len(s.frames)-1] }

func (s *scope) declare(name string, id int) {
	s.frames[len(s.frames)-1][name] = id
}

func (s *scope) lookup(name string) (int, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if id, ok := s.frames[i][name]; ok {
			return id, true
		}
	}
	return 0, false
}

func (r *resolver) checkFunctionBody(f *FunctionEntity) {
	sc := &scope{fn: f}
	sc.push()
	for _, pid := range f.Params {
		v := r.ns.Variables[pid]
		sc.declare(v.Name, pid)
	}
	for _, rid := range f.Returns {
		v := r.ns.Variables[rid]
		if v.Name != "" {
			sc.declare(v.Name, rid)
		}
	}
	r.checkBlock(f.Decl.Body, sc)
	sc.pop()
}

func (r *resolver) checkBlock(b *ast.BlockStmt, sc *scope) {
	sc.push()
	for _, s := range b.Stmts {
		r.checkStmt(s, sc)
	}
	sc.pop()
}

func (r *resolver) checkStmt(s ast.Stmt, sc *scope) {
	switch st := s.(type) {
	case *ast.BlockStmt:
		r.checkBlock(st, sc)
	case *ast.VarDeclStmt:
		r.checkVarDecl(st, sc)
	case *ast.ExprStmt:
		r.checkExpr(st.X, sc)
	case *ast.IfStmt:
		condT := r.checkExpr(st.Cond, sc)
		r.expectType(st.Cond, condT, types.Bool{})
		r.checkStmt(st.Then, sc)
		if st.Else != nil {
			r.checkStmt(st.Else, sc)
		}
	case *ast.WhileStmt:
		condT := r.checkExpr(st.Cond, sc)
		r.expectType(st.Cond, condT, types.Bool{})
		sc.loops++
		r.checkStmt(st.Body, sc)
		sc.loops--
	case *ast.DoWhileStmt:
		sc.loops++
		r.checkStmt(st.Body, sc)
		sc.loops--
		condT := r.checkExpr(st.Cond, sc)
		r.expectType(st.Cond, condT, types.Bool{})
	case *ast.ForStmt:
		sc.push()
		if st.Init != nil {
			r.checkStmt(st.Init, sc)
		}
		if st.Cond != nil {
			condT := r.checkExpr(st.Cond, sc)
			r.expectType(st.Cond, condT, types.Bool{})
		}
		if st.Post != nil {
			r.checkStmt(st.Post, sc)
		}
		sc.loops++
		r.checkStmt(st.Body, sc)
		sc.loops--
		sc.pop()
	case *ast.ReturnStmt:
		for i, v := range st.Values {
			t := r.checkExpr(v, sc)
			if i < len(sc.fn.Returns) {
				want := r.ns.Variables[sc.fn.Returns[i]].Type
				r.expectConvertible(v, t, want)
			}
		}
	case *ast.BreakStmt:
		if sc.loops == 0 {
			r.bag.Errorf(diag.ErrBreakOutsideLoop, st.Sp, "break outside a loop")
		}
	case *ast.ContinueStmt:
		if sc.loops == 0 {
			r.bag.Errorf(diag.ErrContinueOutLoop, st.Sp, "continue outside a loop")
		}
	case *ast.EmitStmt:
		if id, ok := st.Event.(*ast.Ident); ok {
			if ev, found := r.ns.FindEvent(sc.fn.Contract, id.Name); found {
				r.emitTarget[st] = ev
			} else {
				r.bag.Errorf(diag.ErrUnknownIdent, id.Sp, "undeclared event %q", id.Name)
			}
		}
		for _, a := range st.Args {
			r.checkExpr(a, sc)
		}
	case *ast.RevertStmt:
		if id, ok := st.Error.(*ast.Ident); ok {
			if er, found := r.ns.FindError(sc.fn.Contract, id.Name); found {
				r.revertTarget[st] = er
			} else {
				r.bag.Errorf(diag.ErrUnknownIdent, id.Sp, "undeclared error %q", id.Name)
			}
		}
		for _, a := range st.Args {
			r.checkExpr(a, sc)
		}
	case *ast.RequireStmt:
		condT := r.checkExpr(st.Cond, sc)
		r.expectType(st.Cond, condT, types.Bool{})
		if st.Message != nil {
			r.checkExpr(st.Message, sc)
		}
	case *ast.AssertStmt:
		condT := r.checkExpr(st.Cond, sc)
		r.expectType(st.Cond, condT, types.Bool{})
	}
}

func (r *resolver) checkVarDecl(v *ast.VarDeclStmt, sc *scope) {
	var initT types.Type
	if v.Init != nil {
		initT = r.checkExpr(v.Init, sc)
	}
	for i, name := range v.Names {
		if name == "" {
			continue
		}
		var t types.Type
		if i < len(v.Types) && v.Types[i] != nil {
			t = r.resolveTypeExpr(v.Types[i])
		} else if initT != nil {
			t = initT
		} else {
			t = types.Void{}
		}
		if v.Init != nil && i < len(v.Types) && v.Types[i] != nil {
			r.checkVarDeclInit(v.Init, initT, t)
		}
		id := r.ns.addVariable(&Variable{Name: name, Type: t, Kind: VarKindLocal, Span: v.Sp})
		sc.declare(name, id)
	}
}

// checkVarDeclInit pins a variable's initializer against its declared
// type. A compile-time integer constant is bounds-checked against the
// declared width directly, the way a literal narrows in Solidity ("uint8
// x = 2**8" is rejected, "uint8 x = 2**8-1" is accepted); any other
// initializer goes through the normal implicit-conversion rule instead,
// since it isn't known until runtime whether it fits.
func (r *resolver) checkVarDeclInit(init ast.Expr, from, to types.Type) {
	if val, ok := foldConst(init); ok {
		r.checkConstFitsType(val, to, init)
		return
	}
	r.expectConvertible(init, from, to)
}

func (r *resolver) checkConstFitsType(v *big.Int, t types.Type, node ast.Node) {
	switch w := t.(type) {
	case types.Uint:
		max := maxForUintWidth(w.Width)
		if v.Sign() < 0 || v.Cmp(max) > 0 {
			r.bag.Errorf(diag.ErrConstOOB, node.Span(), "constant %s does not fit in %s", v.String(), t)
		}
	case types.Int:
		max, min := maxForIntWidth(w.Width)
		if v.Cmp(min) < 0 || v.Cmp(max) > 0 {
			r.bag.Errorf(diag.ErrConstOOB, node.Span(), "constant %s does not fit in %s", v.String(), t)
		}
	}
}

func (r *resolver) expectType(node ast.Node, got, want types.Type) {
	if got == nil {
		return
	}
	if !got.Equal(want) {
		r.bag.Errorf(diag.ErrIncompatibleTypes, node.Span(), "expected %s, got %s", want, got)
	}
}

func (r *resolver) expectConvertible(node ast.Node, from, to types.Type) {
	if from == nil || to == nil {
		return
	}
	if types.IsImplicitlyConvertible(from, to) {
		return
	}
	r.bag.Errorf(diag.ErrIncompatibleTypes, node.Span(), "cannot implicitly convert %s to %s", from, to)
}

// checkExpr type-checks e within sc, records its type in r.typeOf, and
// returns the type (nil on an unresolvable expression, so callers must
// guard before comparing).
func (r *resolver) checkExpr(e ast.Expr, sc *scope) types.Type {
	var t types.Type
	switch x := e.(type) {
	case *ast.Ident:
		t = r.checkIdent(x, sc)
	case *ast.IntLiteral:
		t = r.checkIntLiteral(x)
	case *ast.RationalLiteral:
		t = types.Void{}
	case *ast.StringLiteral:
		t = types.Ref{Inner: types.String{}, Location: types.LocMemory}
	case *ast.HexStringLiteral:
		t = types.Ref{Inner: types.Bytes{N: 0}, Location: types.LocMemory}
	case *ast.BoolLiteral:
		t = types.Bool{}
	case *ast.AddressLiteral:
		t = r.checkAddressLiteral(x)
	case *ast.TupleExpr:
		for _, el := range x.Elems {
			r.checkExpr(el, sc)
		}
		t = types.Void{}
	case *ast.UnaryExpr:
		t = r.checkUnary(x, sc)
	case *ast.BinaryExpr:
		t = r.checkBinary(x, sc)
	case *ast.AssignExpr:
		t = r.checkAssign(x, sc)
	case *ast.CallExpr:
		t = r.checkCall(x, sc)
	case *ast.IndexExpr:
		t = r.checkIndex(x, sc)
	case *ast.MemberExpr:
		t = r.checkMember(x, sc)
	case *ast.NewExpr:
		t = r.resolveTypeExpr(x.Type)
	case *ast.ConditionalExpr:
		r.checkExpr(x.Cond, sc)
		thenT := r.checkExpr(x.Then, sc)
		r.checkExpr(x.Else, sc)
		t = thenT
	default:
		t = types.Void{}
	}
	if t != nil {
		r.typeOf[e] = t
	}
	return t
}

func (r *resolver) checkIdent(x *ast.Ident, sc *scope) types.Type {
	switch x.Name {
	case "_":
		return types.Void{}
	case "msg", "tx", "block", "this", "super":
		return types.Void{} // environment pseudo-values; member access resolves the real type
	}
	if id, ok := sc.lookup(x.Name); ok {
		return r.ns.Variables[id].Type
	}
	if v, ok := r.ns.FindStateVar(sc.fn.Contract, x.Name); ok {
		return v.Type
	}
	if _, ok := r.ns.FindMember(sc.fn.Contract, x.Name); ok {
		return types.Void{}
	}
	for _, e := range r.ns.Enums {
		if e.Name == x.Name {
			return types.Enum{ID: e.ID, Name: e.Name}
		}
	}
	r.bag.Errorf(diag.ErrUnknownIdent, x.Sp, "undeclared identifier %q", x.Name)
	return nil
}

func (r *resolver) checkIntLiteral(x *ast.IntLiteral) types.Type {
	_, ok := new(big.Int).SetString(x.Text, 0)
	if !ok {
		r.bag.Errorf(diag.ErrConstOOB, x.Sp, "malformed integer literal %q", x.Text)
	}
	return types.Uint{Width: 256}
}

func (r *resolver) checkUnary(x *ast.UnaryExpr, sc *scope) types.Type {
	t := r.checkExpr(x.X, sc)
	if x.Op == "!" {
		r.expectType(x.X, t, types.Bool{})
		return types.Bool{}
	}
	return t
}

func (r *resolver) checkBinary(x *ast.BinaryExpr, sc *scope) types.Type {
	lt := r.checkExpr(x.X, sc)
	rt := r.checkExpr(x.Y, sc)
	switch x.Op {
	case "&&", "||":
		r.expectType(x.X, lt, types.Bool{})
		r.expectType(x.Y, rt, types.Bool{})
		return types.Bool{}
	case "==", "!=", "<", "<=", ">", ">=":
		return types.Bool{}
	default:
		if lt == nil {
			return rt
		}
		if folded := r.tryConstFold(x); folded != nil {
			return folded
		}
		return lt
	}
}

func (r *resolver) checkAssign(x *ast.AssignExpr, sc *scope) types.Type {
	vt := r.checkExpr(x.Value, sc)
	tt := r.checkExpr(x.Target, sc)
	if x.Op == "=" {
		r.expectConvertible(x.Value, vt, tt)
	}
	return tt
}

func (r *resolver) checkIndex(x *ast.IndexExpr, sc *scope) types.Type {
	xt := r.checkExpr(x.X, sc)
	r.checkExpr(x.Index, sc)
	switch v := unref(xt).(type) {
	case types.Array:
		return v.Elem
	case types.Mapping:
		return v.Value
	case types.Bytes:
		return types.Bytes{N: 1}
	}
	return nil
}

func (r *resolver) checkMember(x *ast.MemberExpr, sc *scope) types.Type {
	xt := r.checkExpr(x.X, sc)
	if id, ok := x.X.(*ast.Ident); ok {
		switch id.Name {
		case "msg":
			switch x.Name {
			case "sender":
				return types.Address{}
			case "value", "gas":
				return types.Uint{Width: 256}
			case "data":
				return types.Ref{Inner: types.Bytes{N: 0}, Location: types.LocCalldata}
			}
		case "block":
			switch x.Name {
			case "timestamp", "number", "difficulty", "gaslimit", "chainid":
				return types.Uint{Width: 256}
			case "coinbase":
				return types.Address{}
			}
		case "tx":
			if x.Name == "origin" {
				return types.Address{}
			}
		}
	}
	switch v := unref(xt).(type) {
	case types.Struct:
		s := r.ns.Structs[v.ID]
		for i, fn := range s.Fields {
			if fn == x.Name {
				return s.FieldTypes[i]
			}
		}
	case types.Enum:
		return v
	case types.Address:
		if x.Name == "balance" {
			return types.Uint{Width: 256}
		}
	case types.Bytes:
		if x.Name == "length" {
			return types.Uint{Width: 256}
		}
	}
	return types.Void{}
}

func unref(t types.Type) types.Type {
	if t == nil {
		return nil
	}
	if rf, ok := t.(types.Ref); ok {
		return rf.Inner
	}
	return t
}
