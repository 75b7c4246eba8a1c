package sema

import (
	"strings"

	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/types"
	"golang.org/x/crypto/sha3"
)

// checkAddressLiteral validates an address literal's capitalization
// against EIP-55: each hex nibble of the lowercased 40-character address
// is capitalized iff the corresponding nibble of keccak256(lowercase
// address text) is >= 8. The literal's exact text is always compared
// against the checksummed form, all-lowercase and all-uppercase included;
// there is no same-case exemption.
func (r *resolver) checkAddressLiteral(x *ast.AddressLiteral) types.Type {
	hex := x.Text[2:] // strip "0x"
	want := EIP55Checksum(hex)
	if want != hex {
		r.bag.Errorf(diag.ErrAddressChecksum, x.Sp, "address literal %q fails its EIP-55 checksum, expected %s", x.Text, "0x"+want)
	}
	return types.Address{}
}

// EIP55Checksum returns the correctly-capitalized form of a 40-character
// lowercase hex address body (no "0x" prefix), per EIP-55: capitalize
// hex digit i iff nibble i of keccak256(lowercase address text) is >= 8.
func EIP55Checksum(hexAddr string) string {
	lower := strings.ToLower(hexAddr)
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)
	out := make([]byte, len(lower))
	for i, ch := range []byte(lower) {
		if ch >= 'a' && ch <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			} else {
				nibble &= 0x0f
			}
			if nibble >= 8 {
				ch -= 'a' - 'A'
			}
		}
		out[i] = ch
	}
	return string(out)
}
