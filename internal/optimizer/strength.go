package optimizer

import (
	"math/big"

	"github.com/mickey951112/solang/internal/cfg"
)

// StrengthReduce rewrites multiply/divide by a known power-of-two constant
// into a shift, and modulo by a known power-of-two constant into a mask
// (spec §4.4). The constant side must be locally known the same way
// ConstantFold tracks it; this pass runs after folding in the pipeline, so
// by the time it sees a BinOp the non-reducible constant cases are already
// gone, but power-of-two divisors/multipliers (which fold produces no
// simpler form for) remain as BinOp and are the ones this pass targets.
func StrengthReduce(g *cfg.CFG) bool {
	changed := false
	for _, b := range g.Blocks {
		env := newConstEnv()
		out := make([]cfg.Instr, 0, len(b.Instrs))
		for _, in := range b.Instrs {
			switch ins := in.(type) {
			case *cfg.SetInstr:
				env.forget(ins.Dst)
				if ins.Value.Kind == cfg.OperandInt {
					env.ints[ins.Dst] = ins.Value.Int
				}
				out = append(out, in)
			case *cfg.BinOpInstr:
				if !ins.Unary {
					if rewritten, extra, ok := reduceBinOp(ins, env, &g.NumRegs); ok {
						out = append(out, extra...)
						out = append(out, rewritten)
						env.forget(ins.Dst)
						changed = true
						continue
					}
				}
				env.forget(ins.Dst)
				out = append(out, in)
			default:
				forgetWrites(in, env)
				out = append(out, in)
			}
		}
		b.Instrs = out
	}
	return changed
}

// reduceBinOp returns a replacement instruction (plus any helper Set it
// needs emitted first) when ins is a mul/div/mod against a known
// power-of-two constant on the Y side.
func reduceBinOp(ins *cfg.BinOpInstr, env *constEnv, numRegs *int) (cfg.Instr, []cfg.Instr, bool) {
	yv, yok := env.ints[ins.Y]
	if !yok || yv.Sign() <= 0 {
		return nil, nil, false
	}
	shift := powerOfTwoShift(yv)
	if shift < 0 {
		return nil, nil, false
	}
	shiftReg := cfg.Reg(*numRegs)
	*numRegs++
	setShift := &cfg.SetInstr{Dst: shiftReg, Value: cfg.IntOperand(big.NewInt(int64(shift)))}
	switch ins.Op {
	case "*":
		return &cfg.BinOpInstr{Dst: ins.Dst, Op: "<<", X: ins.X, Y: shiftReg}, []cfg.Instr{setShift}, true
	case "/":
		return &cfg.BinOpInstr{Dst: ins.Dst, Op: ">>", X: ins.X, Y: shiftReg}, []cfg.Instr{setShift}, true
	case "%":
		maskReg := cfg.Reg(*numRegs)
		*numRegs++
		mask := new(big.Int).Sub(yv, big.NewInt(1))
		setMask := &cfg.SetInstr{Dst: maskReg, Value: cfg.IntOperand(mask)}
		return &cfg.BinOpInstr{Dst: ins.Dst, Op: "&", X: ins.X, Y: maskReg}, []cfg.Instr{setMask}, true
	}
	return nil, nil, false
}

// powerOfTwoShift returns log2(v) when v is an exact power of two >= 1,
// or -1 otherwise.
func powerOfTwoShift(v *big.Int) int {
	if v.Sign() <= 0 || v.BitLen() == 0 {
		return -1
	}
	// v is a power of two iff exactly one bit is set.
	n := new(big.Int).Set(v)
	bits := 0
	ones := 0
	for n.Sign() != 0 {
		if n.Bit(0) == 1 {
			ones++
		}
		n.Rsh(n, 1)
		bits++
	}
	if ones != 1 {
		return -1
	}
	return bits - 1
}

func forgetWrites(in cfg.Instr, env *constEnv) {
	switch ins := in.(type) {
	case *cfg.LoadInstr:
		env.forget(ins.Dst)
	case *cfg.CastInstr:
		env.forget(ins.Dst)
	case *cfg.KeccakInstr:
		env.forget(ins.Dst)
	case *cfg.AllocDynamicInstr:
		env.forget(ins.Dst)
	case *cfg.AbiEncodeInstr:
		env.forget(ins.Dst)
	case *cfg.CallInstr:
		for _, d := range ins.Dst {
			env.forget(d)
		}
	case *cfg.ExternalCallInstr:
		for _, d := range ins.Dst {
			env.forget(d)
		}
	case *cfg.AbiDecodeInstr:
		for _, d := range ins.Dst {
			env.forget(d)
		}
	}
}
