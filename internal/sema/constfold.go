package sema

import (
	"math/big"

	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/types"
)

// maxUint256 bounds a folded constant the way a uint256 literal context
// would; a literal that does not fit is an error pinned at fold time
// rather than deferred to codegen (§3 "constant folder... full operator
// set", supplementing the distilled spec's addition-only example).
var maxUint256 = maxForUintWidth(256)

// maxForUintWidth returns 2^width - 1, the largest value a uintN can hold.
func maxForUintWidth(width int) *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width)), big.NewInt(1))
}

// maxForIntWidth returns the inclusive [min, max] range an intN can hold,
// two's-complement: max = 2^(width-1) - 1, min = -2^(width-1).
func maxForIntWidth(width int) (max, min *big.Int) {
	max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width-1)), big.NewInt(1))
	min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(width-1)))
	return max, min
}

// foldConst evaluates e as a compile-time constant integer expression,
// returning ok=false for anything that is not built entirely out of
// integer literals and the arithmetic/bitwise operators.
func foldConst(e ast.Expr) (*big.Int, bool) {
	switch x := e.(type) {
	case *ast.IntLiteral:
		v, ok := new(big.Int).SetString(x.Text, 0)
		return v, ok
	case *ast.UnaryExpr:
		v, ok := foldConst(x.X)
		if !ok {
			return nil, false
		}
		switch x.Op {
		case "-":
			return new(big.Int).Neg(v), true
		case "~":
			return new(big.Int).Not(v), true
		}
		return nil, false
	case *ast.BinaryExpr:
		l, ok := foldConst(x.X)
		if !ok {
			return nil, false
		}
		r, ok := foldConst(x.Y)
		if !ok {
			return nil, false
		}
		return applyConstOp(x.Op, l, r)
	default:
		return nil, false
	}
}

func applyConstOp(op string, l, r *big.Int) (*big.Int, bool) {
	out := new(big.Int)
	switch op {
	case "+":
		out.Add(l, r)
	case "-":
		out.Sub(l, r)
	case "*":
		out.Mul(l, r)
	case "/":
		if r.Sign() == 0 {
			return nil, false
		}
		out.Quo(l, r)
	case "%":
		if r.Sign() == 0 {
			return nil, false
		}
		out.Rem(l, r)
	case "**":
		if !r.IsUint64() {
			return nil, false
		}
		out.Exp(l, r, nil)
	case "<<":
		if !r.IsUint64() {
			return nil, false
		}
		out.Lsh(l, uint(r.Uint64()))
	case ">>":
		if !r.IsUint64() {
			return nil, false
		}
		out.Rsh(l, uint(r.Uint64()))
	case "&":
		out.And(l, r)
	case "|":
		out.Or(l, r)
	case "^":
		out.Xor(l, r)
	default:
		return nil, false
	}
	return out, true
}

// tryConstFold folds x if both operands are compile-time constants and
// diagnoses overflow/division-by-zero at this point rather than leaving
// it to a runtime check that this language's fixed-width integers never
// get. Returns nil when x is not a foldable constant expression.
func (r *resolver) tryConstFold(x *ast.BinaryExpr) types.Type {
	_, lok := foldConst(x.X)
	_, rok := foldConst(x.Y)
	if !lok || !rok {
		return nil
	}
	v, ok := foldConst(x)
	if !ok {
		if x.Op == "/" || x.Op == "%" {
			r.bag.Errorf(diag.ErrConstDivZero, x.Sp, "division by zero in constant expression")
		}
		return types.Uint{Width: 256}
	}
	if v.Sign() < 0 || v.Cmp(maxUint256) > 0 {
		r.bag.Errorf(diag.ErrConstOOB, x.Sp, "constant expression %s overflows uint256", v.String())
	}
	return types.Uint{Width: 256}
}
