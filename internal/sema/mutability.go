package sema

import (
	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
)

// mutChecker walks one function's body enforcing its declared mutability:
// pure may neither read nor write contract state, view may read but not
// write, payable and the unmarked default may do both. It keeps its own
// scope (mirroring checker.go's, but tracking presence only) so a local
// variable shadowing a state variable of the same name is not mistaken
// for a storage access.
type mutChecker struct {
	r        *resolver
	fn       *FunctionEntity
	canRead  bool
	canWrite bool
}

// checkMutability is ResolveFiles' final pass: by the time it runs, every
// function body has already been type-checked, so callTarget and typeOf
// are populated for every call and member access a function body makes.
func (r *resolver) checkMutability(f *FunctionEntity) {
	mc := &mutChecker{r: r, fn: f}
	switch f.Mutability {
	case ast.MutPure:
		mc.canRead, mc.canWrite = false, false
	case ast.MutView:
		mc.canRead, mc.canWrite = true, false
	default:
		mc.canRead, mc.canWrite = true, true
	}
	sc := &scope{fn: f}
	sc.push()
	for _, pid := range f.Params {
		sc.declare(r.ns.Variables[pid].Name, pid)
	}
	for _, rid := range f.Returns {
		if v := r.ns.Variables[rid]; v.Name != "" {
			sc.declare(v.Name, rid)
		}
	}
	mc.walkBlock(f.Decl.Body, sc)
	sc.pop()
}

func mutName(m ast.Mutability) string {
	switch m {
	case ast.MutPure:
		return "pure"
	case ast.MutView:
		return "view"
	case ast.MutPayable:
		return "payable"
	default:
		return "nonpayable"
	}
}

func (mc *mutChecker) read(node ast.Node) {
	if !mc.canRead {
		mc.r.bag.Errorf(diag.ErrMutability, node.Span(), "%q is declared %s but reads contract state", mc.fn.Name, mutName(mc.fn.Mutability))
	}
}

func (mc *mutChecker) write(node ast.Node) {
	if !mc.canWrite {
		mc.r.bag.Errorf(diag.ErrMutability, node.Span(), "%q is declared %s but writes contract state", mc.fn.Name, mutName(mc.fn.Mutability))
	}
}

// isStorageExpr reports whether e denotes a storage location: a state
// variable, or a member/index access chained off one (Solidity indexing
// and field access on a storage value stays storage, it does not copy).
func (mc *mutChecker) isStorageExpr(e ast.Expr, sc *scope) bool {
	switch x := e.(type) {
	case *ast.Ident:
		if _, ok := sc.lookup(x.Name); ok {
			return false
		}
		_, ok := mc.r.ns.FindStateVar(mc.fn.Contract, x.Name)
		return ok
	case *ast.IndexExpr:
		return mc.isStorageExpr(x.X, sc)
	case *ast.MemberExpr:
		return mc.isStorageExpr(x.X, sc)
	}
	return false
}

func (mc *mutChecker) walkBlock(b *ast.BlockStmt, sc *scope) {
	if b == nil {
		return
	}
	sc.push()
	for _, s := range b.Stmts {
		mc.walkStmt(s, sc)
	}
	sc.pop()
}

func (mc *mutChecker) walkStmt(s ast.Stmt, sc *scope) {
	switch st := s.(type) {
	case *ast.BlockStmt:
		mc.walkBlock(st, sc)
	case *ast.VarDeclStmt:
		if st.Init != nil {
			mc.walkExpr(st.Init, sc)
		}
		for _, name := range st.Names {
			if name != "" {
				sc.declare(name, 0)
			}
		}
	case *ast.ExprStmt:
		mc.walkExpr(st.X, sc)
	case *ast.IfStmt:
		mc.walkExpr(st.Cond, sc)
		mc.walkStmt(st.Then, sc)
		if st.Else != nil {
			mc.walkStmt(st.Else, sc)
		}
	case *ast.WhileStmt:
		mc.walkExpr(st.Cond, sc)
		mc.walkStmt(st.Body, sc)
	case *ast.DoWhileStmt:
		mc.walkStmt(st.Body, sc)
		mc.walkExpr(st.Cond, sc)
	case *ast.ForStmt:
		sc.push()
		if st.Init != nil {
			mc.walkStmt(st.Init, sc)
		}
		if st.Cond != nil {
			mc.walkExpr(st.Cond, sc)
		}
		if st.Post != nil {
			mc.walkStmt(st.Post, sc)
		}
		mc.walkStmt(st.Body, sc)
		sc.pop()
	case *ast.ReturnStmt:
		for _, v := range st.Values {
			mc.walkExpr(v, sc)
		}
	case *ast.EmitStmt:
		for _, a := range st.Args {
			mc.walkExpr(a, sc)
		}
	case *ast.RevertStmt:
		for _, a := range st.Args {
			mc.walkExpr(a, sc)
		}
	case *ast.RequireStmt:
		mc.walkExpr(st.Cond, sc)
		if st.Message != nil {
			mc.walkExpr(st.Message, sc)
		}
	case *ast.AssertStmt:
		mc.walkExpr(st.Cond, sc)
	}
}

func (mc *mutChecker) walkExpr(e ast.Expr, sc *scope) {
	switch x := e.(type) {
	case *ast.Ident:
		if mc.isStorageExpr(x, sc) {
			mc.read(x)
		}
	case *ast.TupleExpr:
		for _, el := range x.Elems {
			mc.walkExpr(el, sc)
		}
	case *ast.UnaryExpr:
		mc.walkExpr(x.X, sc)
		if (x.Op == "++" || x.Op == "--") && mc.isStorageExpr(x.X, sc) {
			mc.write(x)
		}
	case *ast.BinaryExpr:
		mc.walkExpr(x.X, sc)
		mc.walkExpr(x.Y, sc)
	case *ast.AssignExpr:
		mc.walkExpr(x.Value, sc)
		mc.walkExpr(x.Target, sc)
		if mc.isStorageExpr(x.Target, sc) {
			mc.write(x)
			if x.Op != "=" {
				mc.read(x)
			}
		}
	case *ast.CallExpr:
		mc.walkCall(x, sc)
	case *ast.IndexExpr:
		if mc.isStorageExpr(x, sc) {
			mc.read(x)
		}
		mc.walkExpr(x.X, sc)
		mc.walkExpr(x.Index, sc)
	case *ast.MemberExpr:
		mc.walkMember(x, sc)
	case *ast.NewExpr:
		// allocation is memory-only, nothing to check.
	case *ast.ConditionalExpr:
		mc.walkExpr(x.Cond, sc)
		mc.walkExpr(x.Then, sc)
		mc.walkExpr(x.Else, sc)
	}
}

func (mc *mutChecker) walkMember(x *ast.MemberExpr, sc *scope) {
	if id, ok := x.X.(*ast.Ident); ok {
		switch id.Name {
		case "msg", "tx", "block":
			mc.read(x)
			return
		}
	}
	if mc.isStorageExpr(x, sc) {
		mc.read(x)
	}
	mc.walkExpr(x.X, sc)
}

// walkCall handles three shapes: an array push/pop on a storage value, a
// call whose target sema already resolved (internal, external, or
// using-for), and an unresolved call (a cast or an unmodeled builtin).
// An internal or external call inherits the callee's own mutability: a
// non-pure callee can do whatever its own declared mutability allows,
// and that capability is attributed to the caller here the same way the
// original checker's call handling folds a callee's StateCheck into its
// caller's.
func (mc *mutChecker) walkCall(x *ast.CallExpr, sc *scope) {
	if member, ok := x.Callee.(*ast.MemberExpr); ok {
		if member.Name == "push" || member.Name == "pop" {
			if mc.isStorageExpr(member.X, sc) {
				mc.write(x)
			}
			mc.walkExpr(member.X, sc)
			for _, a := range x.Args {
				mc.walkExpr(a, sc)
			}
			return
		}
		mc.walkExpr(member.X, sc)
	} else {
		mc.walkExpr(x.Callee, sc)
	}
	for _, a := range x.Args {
		mc.walkExpr(a, sc)
	}
	if target, ok := mc.r.callTarget[x]; ok {
		switch target.Mutability {
		case ast.MutPure:
		case ast.MutView:
			mc.read(x)
		default:
			mc.write(x)
		}
	}
}
