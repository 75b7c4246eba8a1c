// Package codegen lowers a resolved Namespace plus its per-function CFGs
// into a WebAssembly module and the metadata describing it, parameterized
// entirely by an internal/target.Target so the same walk produces either
// backend's output.
package codegen

import (
	"fmt"
	"strings"

	"github.com/mickey951112/solang/internal/types"
)

// CanonicalTypeName renders t the way a function signature string needs it
// (e.g. "uint256", "address", "bytes32[]"), the same normalized form the
// ABI JSON and the selector hash both key on.
func CanonicalTypeName(t types.Type) string {
	switch v := t.(type) {
	case types.Ref:
		return CanonicalTypeName(v.Inner)
	case types.Array:
		if v.Length < 0 {
			return CanonicalTypeName(v.Elem) + "[]"
		}
		return fmt.Sprintf("%s[%d]", CanonicalTypeName(v.Elem), v.Length)
	case types.Mapping:
		return fmt.Sprintf("mapping(%s=>%s)", CanonicalTypeName(v.Key), CanonicalTypeName(v.Value))
	default:
		return t.String()
	}
}

// CanonicalSignature renders "name(type,type,...)", the exact string both
// targets' Selector/Topic0 hash over.
func CanonicalSignature(name string, params []types.Type) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = CanonicalTypeName(p)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(names, ","))
}
