package optimizer

import (
	"math/big"

	"github.com/mickey951112/solang/internal/cfg"
)

// constEnv is the local constant-propagation map a block-local fold pass
// needs: a register is "known" only while nothing has redefined it since
// the Set that gave it a literal value.
type constEnv struct {
	ints  map[cfg.Reg]*big.Int
	bools map[cfg.Reg]bool
}

func newConstEnv() *constEnv {
	return &constEnv{ints: map[cfg.Reg]*big.Int{}, bools: map[cfg.Reg]bool{}}
}

func (e *constEnv) forget(r cfg.Reg) {
	delete(e.ints, r)
	delete(e.bools, r)
}

// ConstantFold replaces a BinOp whose operands are both known constant
// (propagated locally within the same block) with a Set carrying the
// folded literal, over the full operator set spec §4.4 names: arithmetic,
// shifts, bitwise, comparisons. Division and modulo by a known zero are
// left alone; that is a runtime failure the target must emit, not a
// compile-time literal.
func ConstantFold(g *cfg.CFG) bool {
	changed := false
	for _, b := range g.Blocks {
		env := newConstEnv()
		for i, in := range b.Instrs {
			switch ins := in.(type) {
			case *cfg.SetInstr:
				env.forget(ins.Dst)
				switch ins.Value.Kind {
				case cfg.OperandInt:
					env.ints[ins.Dst] = ins.Value.Int
				case cfg.OperandBool:
					env.bools[ins.Dst] = ins.Value.Bool
				case cfg.OperandReg:
					if v, ok := env.ints[ins.Value.Reg]; ok {
						env.ints[ins.Dst] = v
					} else if v, ok := env.bools[ins.Value.Reg]; ok {
						env.bools[ins.Dst] = v
					}
				}
			case *cfg.BinOpInstr:
				if ins.Unary {
					if xv, ok := env.ints[ins.X]; ok && (ins.Op == "-" || ins.Op == "~") {
						var r *big.Int
						if ins.Op == "-" {
							r = new(big.Int).Neg(xv)
						} else {
							r = new(big.Int).Not(xv)
						}
						b.Instrs[i] = &cfg.SetInstr{Dst: ins.Dst, Value: cfg.IntOperand(r)}
						env.forget(ins.Dst)
						env.ints[ins.Dst] = r
						changed = true
						continue
					}
					env.forget(ins.Dst)
					continue
				}
				xv, xok := env.ints[ins.X]
				yv, yok := env.ints[ins.Y]
				if xok && yok {
					if r, ok := foldIntOp(ins.Op, xv, yv); ok {
						b.Instrs[i] = &cfg.SetInstr{Dst: ins.Dst, Value: cfg.IntOperand(r)}
						env.forget(ins.Dst)
						env.ints[ins.Dst] = r
						changed = true
						continue
					}
					if r, ok := foldCompareOp(ins.Op, xv, yv); ok {
						b.Instrs[i] = &cfg.SetInstr{Dst: ins.Dst, Value: cfg.BoolOperand(r)}
						env.forget(ins.Dst)
						env.bools[ins.Dst] = r
						changed = true
						continue
					}
				}
				env.forget(ins.Dst)
			case *cfg.LoadInstr:
				env.forget(ins.Dst)
			case *cfg.CallInstr:
				for _, d := range ins.Dst {
					env.forget(d)
				}
			case *cfg.ExternalCallInstr:
				for _, d := range ins.Dst {
					env.forget(d)
				}
			case *cfg.CastInstr:
				env.forget(ins.Dst)
			case *cfg.AbiDecodeInstr:
				for _, d := range ins.Dst {
					env.forget(d)
				}
			case *cfg.KeccakInstr:
				env.forget(ins.Dst)
			case *cfg.AllocDynamicInstr:
				env.forget(ins.Dst)
			case *cfg.AbiEncodeInstr:
				env.forget(ins.Dst)
			}
		}
	}
	return changed
}

func foldIntOp(op string, x, y *big.Int) (*big.Int, bool) {
	switch op {
	case "+":
		return new(big.Int).Add(x, y), true
	case "-":
		return new(big.Int).Sub(x, y), true
	case "*":
		return new(big.Int).Mul(x, y), true
	case "/":
		if y.Sign() == 0 {
			return nil, false
		}
		return new(big.Int).Quo(x, y), true
	case "%":
		if y.Sign() == 0 {
			return nil, false
		}
		return new(big.Int).Rem(x, y), true
	case "**":
		if y.Sign() < 0 {
			return nil, false
		}
		return new(big.Int).Exp(x, y, nil), true
	case "<<":
		return new(big.Int).Lsh(x, uint(y.Uint64())), true
	case ">>":
		return new(big.Int).Rsh(x, uint(y.Uint64())), true
	case "&":
		return new(big.Int).And(x, y), true
	case "|":
		return new(big.Int).Or(x, y), true
	case "^":
		return new(big.Int).Xor(x, y), true
	}
	return nil, false
}

func foldCompareOp(op string, x, y *big.Int) (bool, bool) {
	c := x.Cmp(y)
	switch op {
	case "==":
		return c == 0, true
	case "!=":
		return c != 0, true
	case "<":
		return c < 0, true
	case "<=":
		return c <= 0, true
	case ">":
		return c > 0, true
	case ">=":
		return c >= 0, true
	}
	return false, false
}
