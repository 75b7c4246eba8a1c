package target

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/mickey951112/solang/internal/types"
	"golang.org/x/crypto/sha3"
)

// ethereum is the Ethereum-style target: keccak256 selectors and topics,
// EthABI head-tail encoding, 32-byte storage slots, 20-byte addresses, and
// the mapping/array slot rules spec §4.5 states for this target.
type ethereum struct {
	builtins map[string]Builtin
}

// NewEthereum constructs the Ethereum-style Target. It is the default the
// CLI resolves "--target ethereum" to, and the target internal/sema's
// EIP55Checksum helper already assumes for address-literal validation.
func NewEthereum() Target {
	return &ethereum{builtins: ethereumBuiltins()}
}

func (*ethereum) Name() string        { return "ethereum" }
func (*ethereum) PointerSize() int    { return 4 }
func (*ethereum) SlotWidth() int      { return 32 }
func (*ethereum) AddressLength() int  { return 20 }
func (*ethereum) ABI() ABIScheme      { return ABIEth }
func (*ethereum) SelectorOffset() (offset, length int) { return 0, 4 }

// Selector is the first 4 bytes of keccak256(canonicalSignature), matching
// EIP55Checksum's existing sha3.NewLegacyKeccak256 idiom.
func (*ethereum) Selector(canonicalSignature string) [4]byte {
	digest := keccak256([]byte(canonicalSignature))
	var out [4]byte
	copy(out[:], digest[:4])
	return out
}

// Topic0 is the full 32-byte keccak256 of the canonical event signature,
// the Ethereum log topic convention generated Emit instructions tag events
// with.
func (*ethereum) Topic0(canonicalSignature string) [32]byte {
	return keccak256([]byte(canonicalSignature))
}

// MappingSlot implements spec §4.5's Ethereum rule: slot = hash(key ∥
// declared_slot). declaredSlot is left-padded to 32 bytes the way a Solidity
// storage slot index is, then the ABI-encoded key bytes are written before
// it.
func (*ethereum) MappingSlot(declaredSlot int, key []byte) [32]byte {
	slotWord := slotToWord(declaredSlot)
	buf := make([]byte, 0, len(key)+32)
	buf = append(buf, key...)
	buf = append(buf, slotWord[:]...)
	return keccak256(buf)
}

// DynamicArraySlot implements spec §4.5's "data at hash(declared_slot)"
// rule: element data for a dynamic array whose length lives at declaredSlot
// starts at keccak256(declaredSlot as a 32-byte word).
func (*ethereum) DynamicArraySlot(declaredSlot int) [32]byte {
	slotWord := slotToWord(declaredSlot)
	return keccak256(slotWord[:])
}

func (e *ethereum) Builtin(name string) (Builtin, bool) {
	b, ok := e.builtins[name]
	return b, ok
}

func ethereumBuiltins() map[string]Builtin {
	word := types.Uint{Width: 256}
	addr := types.Address{}
	bytesDyn := types.Bytes{N: 0}
	return map[string]Builtin{
		"set_storage": {Name: "set_storage", Params: []types.Type{word, bytesDyn}},
		"get_storage": {Name: "get_storage", Params: []types.Type{word}, Ret: bytesDyn},
		"value_transferred": {Name: "value_transferred", Ret: word},
		"seal_call": {
			Name:   "seal_call",
			Params: []types.Type{addr, word, bytesDyn},
			Ret:    bytesDyn,
		},
		"emit_event":      {Name: "emit_event", Params: []types.Type{word, bytesDyn}},
		"caller":          {Name: "caller", Ret: addr},
		"origin":          {Name: "origin", Ret: addr},
		"block_timestamp": {Name: "block_timestamp", Ret: word},
		"block_number":    {Name: "block_number", Ret: word},
		"balance":         {Name: "balance", Params: []types.Type{addr}, Ret: word},
		"keccak256":       {Name: "keccak256", Params: []types.Type{bytesDyn}, Ret: types.Bytes{N: 32}},
		"abi_encode":      {Name: "abi_encode", Params: []types.Type{bytesDyn}, Ret: bytesDyn},
		"abi_decode":      {Name: "abi_decode", Params: []types.Type{bytesDyn}, Ret: bytesDyn},
		"alloc_dynamic":   {Name: "alloc_dynamic", Params: []types.Type{word}, Ret: word},
		"revert":          {Name: "revert", Params: []types.Type{bytesDyn}},
	}
}

// slotToWord renders a declared storage slot index as a 32-byte big-endian
// word, using uint256 for the fixed-width arithmetic internal/codegen's
// storage layout depends on (distinct from internal/sema's math/big use,
// which folds arbitrary-precision source-level constants, not machine
// words).
func slotToWord(declaredSlot int) [32]byte {
	var w uint256.Int
	w.SetUint64(uint64(declaredSlot))
	var out [32]byte
	bytes := w.Bytes32()
	copy(out[:], bytes[:])
	return out
}

func keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// bigWord renders a *big.Int as a fixed 32-byte big-endian uint256 word.
// Nothing in the repository calls it.
func bigWord(v *big.Int) [32]byte {
	var w uint256.Int
	w.SetFromBig(v)
	var out [32]byte
	b := w.Bytes32()
	copy(out[:], b[:])
	return out
}
