package optimizer

import "github.com/mickey951112/solang/internal/cfg"

// exprKey identifies a pure, re-evaluatable expression by its operator and
// operand registers; only BinOp (the one pure compute instruction with a
// stable shape cheap to key on) participates in this pass, matching spec
// §4.4's "common subexpression elimination" scope.
type exprKey struct {
	op    string
	x, y  cfg.Reg
	unary bool
}

// available tracks, within one predecessor chain, which expression key is
// already held in which register.
type available struct {
	m map[exprKey]cfg.Reg
}

func newAvailable() *available { return &available{m: map[exprKey]cfg.Reg{}} }

func (a *available) invalidate(r cfg.Reg) {
	for k, v := range a.m {
		if v == r || k.x == r || k.y == r {
			delete(a.m, k)
		}
	}
}

// CSE deduplicates repeated BinOp computations. Within a block it runs
// directly; across blocks it extends to the cheap case spec §4.4 allows —
// a block with exactly one predecessor inherits that predecessor's
// available-expression set, which is sound because no other path can reach
// it with a different history of writes.
func CSE(g *cfg.CFG) bool {
	preds := predecessors(g)
	order := blockOrder(g)
	avail := map[cfg.Label]*available{}
	changed := false
	for _, b := range order {
		env := newAvailable()
		if ps := preds[b.Label]; len(ps) == 1 {
			if parent, ok := avail[ps[0]]; ok {
				for k, v := range parent.m {
					env.m[k] = v
				}
			}
		}
		for i, in := range b.Instrs {
			bop, ok := in.(*cfg.BinOpInstr)
			if !ok {
				invalidateWrites(in, env)
				continue
			}
			key := exprKey{op: bop.Op, x: bop.X, y: bop.Y, unary: bop.Unary}
			if existing, ok := env.m[key]; ok {
				b.Instrs[i] = &cfg.SetInstr{Dst: bop.Dst, Value: cfg.RegOperand(existing)}
				env.invalidate(bop.Dst)
				changed = true
				continue
			}
			env.invalidate(bop.Dst)
			if bop.X != bop.Dst && (bop.Unary || bop.Y != bop.Dst) {
				env.m[key] = bop.Dst
			}
		}
		avail[b.Label] = env
	}
	return changed
}

func invalidateWrites(in cfg.Instr, env *available) {
	switch ins := in.(type) {
	case *cfg.SetInstr:
		env.invalidate(ins.Dst)
	case *cfg.LoadInstr:
		env.invalidate(ins.Dst)
	case *cfg.CastInstr:
		env.invalidate(ins.Dst)
	case *cfg.KeccakInstr:
		env.invalidate(ins.Dst)
	case *cfg.AllocDynamicInstr:
		env.invalidate(ins.Dst)
	case *cfg.AbiEncodeInstr:
		env.invalidate(ins.Dst)
	case *cfg.CallInstr:
		for _, d := range ins.Dst {
			env.invalidate(d)
		}
	case *cfg.ExternalCallInstr:
		for _, d := range ins.Dst {
			env.invalidate(d)
		}
	case *cfg.AbiDecodeInstr:
		for _, d := range ins.Dst {
			env.invalidate(d)
		}
	}
}

// predecessors maps every block label to the labels of blocks whose
// terminator can transfer control to it.
func predecessors(g *cfg.CFG) map[cfg.Label][]cfg.Label {
	out := map[cfg.Label][]cfg.Label{}
	for _, b := range g.Blocks {
		switch t := b.Term.(type) {
		case *cfg.BranchTerm:
			out[t.Target] = append(out[t.Target], b.Label)
		case *cfg.CondBranchTerm:
			out[t.True] = append(out[t.True], b.Label)
			out[t.False] = append(out[t.False], b.Label)
		}
	}
	return out
}

// blockOrder returns blocks in a simple reverse-postorder-ish traversal
// starting from the entry block, falling back to declaration order for any
// block unreachable from entry; good enough for the single-pass,
// one-predecessor-chain propagation CSE relies on, without needing a full
// dominator tree.
func blockOrder(g *cfg.CFG) []*cfg.Block {
	visited := map[cfg.Label]bool{}
	var order []*cfg.Block
	var visit func(l cfg.Label)
	visit = func(l cfg.Label) {
		if visited[l] {
			return
		}
		visited[l] = true
		b := g.Block(l)
		if b == nil {
			return
		}
		order = append(order, b)
		switch t := b.Term.(type) {
		case *cfg.BranchTerm:
			visit(t.Target)
		case *cfg.CondBranchTerm:
			visit(t.True)
			visit(t.False)
		}
	}
	visit(g.Entry)
	for _, b := range g.Blocks {
		if !visited[b.Label] {
			order = append(order, b)
		}
	}
	return order
}
