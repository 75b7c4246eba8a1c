package target

import (
	"github.com/mickey951112/solang/internal/types"
	"golang.org/x/crypto/blake2b"
)

// substrateSlotPrefix namespaces every storage key this target derives so
// that two contracts sharing one underlying key-value trie never collide,
// per spec §4.5's "plus a per-contract prefix" bullet. A real deployment
// would derive this from the contract's own account id; fixing it here
// keeps slot derivation deterministic and testable without threading a
// deploy-time identity through internal/codegen.
var substrateSlotPrefix = [8]byte{'s', 'o', 'l', 'a', 'n', 'g', '!', '!'}

// substrate is the Substrate/ink!-style target: blake2b-256-derived
// selectors and topics, SCALE encoding, 32-byte storage slots, 32-byte account ids, and
// the reversed, prefixed mapping slot rule spec §4.5 states for this
// target as the Ethereum scheme's counterpart.
type substrate struct {
	builtins map[string]Builtin
}

// NewSubstrate constructs the Substrate-style Target.
func NewSubstrate() Target {
	return &substrate{builtins: substrateBuiltins()}
}

func (*substrate) Name() string        { return "substrate" }
func (*substrate) PointerSize() int    { return 4 }
func (*substrate) SlotWidth() int      { return 32 }
func (*substrate) AddressLength() int  { return 32 }
func (*substrate) ABI() ABIScheme      { return ABIScale }
func (*substrate) SelectorOffset() (offset, length int) { return 0, 4 }

// Selector takes the first 4 bytes of blake2b-256(canonicalSignature),
// ink!'s message selector derivation, the Blake2 counterpart to the
// Ethereum target's keccak256-based Selector.
func (*substrate) Selector(canonicalSignature string) [4]byte {
	digest := blake2b256([]byte(canonicalSignature))
	var out [4]byte
	copy(out[:], digest[:4])
	return out
}

// Topic0 is the full 32-byte blake2b-256 digest of the canonical event
// signature.
func (*substrate) Topic0(canonicalSignature string) [32]byte {
	return blake2b256([]byte(canonicalSignature))
}

// MappingSlot implements spec §4.5's non-Ethereum rule: slot =
// hash(declared_slot ∥ key) plus a per-contract prefix, the reverse
// concatenation order of the Ethereum target plus the extra namespacing
// byte string.
func (s *substrate) MappingSlot(declaredSlot int, key []byte) [32]byte {
	slotWord := slotToWord(declaredSlot)
	buf := make([]byte, 0, len(substrateSlotPrefix)+32+len(key))
	buf = append(buf, substrateSlotPrefix[:]...)
	buf = append(buf, slotWord[:]...)
	buf = append(buf, key...)
	return blake2b256(buf)
}

// DynamicArraySlot mirrors the Ethereum target's "data at hash(declared
// slot)" rule, with the same per-contract prefix MappingSlot applies.
func (s *substrate) DynamicArraySlot(declaredSlot int) [32]byte {
	slotWord := slotToWord(declaredSlot)
	buf := make([]byte, 0, len(substrateSlotPrefix)+32)
	buf = append(buf, substrateSlotPrefix[:]...)
	buf = append(buf, slotWord[:]...)
	return blake2b256(buf)
}

func (s *substrate) Builtin(name string) (Builtin, bool) {
	b, ok := s.builtins[name]
	return b, ok
}

func substrateBuiltins() map[string]Builtin {
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
		// keccak256 is the explicit source-language builtin, distinct from
		// this target's own blake2b-based selector/topic/slot derivation:
		// a contract that calls keccak256() wants that exact hash on every
		// target, not whatever hash the target uses internally.
		"keccak256":     {Name: "keccak256", Params: []types.Type{bytesDyn}, Ret: types.Bytes{N: 32}},
		"abi_encode":    {Name: "abi_encode", Params: []types.Type{bytesDyn}, Ret: bytesDyn},
		"abi_decode":    {Name: "abi_decode", Params: []types.Type{bytesDyn}, Ret: bytesDyn},
		"alloc_dynamic": {Name: "alloc_dynamic", Params: []types.Type{word}, Ret: word},
		"revert":        {Name: "revert", Params: []types.Type{bytesDyn}},
	}
}

func blake2b256(data []byte) [32]byte {
	digest := blake2b.Sum256(data)
	return digest
}
