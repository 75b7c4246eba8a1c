package codegen

import (
	"math/big"

	"github.com/holiman/uint256"
)

// truncateToI64 narrows an arbitrary-precision source-level constant (the
// optimizer's constant folder hands these to codegen as *big.Int) to the
// i64 every CFG register lowers to. Values wider than 64 bits are reduced
// modulo 2^64 via uint256's wraparound arithmetic rather than math/big's
// own, since codegen's register width is a machine word, not a source
// integer width — §4.2's wide integer types (up to uint256) keep their
// full precision through internal/sema and internal/optimizer; only this
// last narrowing step to a concrete wasm local loses it, and only because
// this compiler does not build a 256-bit bignum runtime import for the
// wasm side (see DESIGN.md's internal/codegen entry). This applies to
// integer constants only; a fixed bytesN constant keeps its own
// left-aligned register convention, see lowerCast.
func truncateToI64(v *big.Int) int64 {
	var w uint256.Int
	w.SetFromBig(new(big.Int).Abs(v))
	lo := int64(w.Uint64())
	if v.Sign() < 0 {
		return -lo
	}
	return lo
}
