package target

import "testing"

func TestByNameResolvesAllCLINames(t *testing.T) {
	for _, name := range []string{"ethereum", "substrate", "solana"} {
		tgt, ok := ByName(name)
		if !ok {
			t.Fatalf("ByName(%q) = not ok, want a Target", name)
		}
		if tgt == nil {
			t.Fatalf("ByName(%q) returned nil Target", name)
		}
	}
	if _, ok := ByName("evm2"); ok {
		t.Fatalf("ByName(%q) = ok, want not ok for an unknown target name", "evm2")
	}
}

func TestEthereumSelectorMatchesKeccak256Prefix(t *testing.T) {
	eth := NewEthereum()
	sel := eth.Selector("transfer(address,uint256)")
	digest := keccak256([]byte("transfer(address,uint256)"))
	for i := 0; i < 4; i++ {
		if sel[i] != digest[i] {
			t.Fatalf("Selector()[%d] = %#x, want %#x (first 4 bytes of keccak256)", i, sel[i], digest[i])
		}
	}
}

func TestEthereumSelectorIsDeterministicAndDistinct(t *testing.T) {
	eth := NewEthereum()
	a := eth.Selector("transfer(address,uint256)")
	b := eth.Selector("transfer(address,uint256)")
	if a != b {
		t.Fatalf("Selector() not deterministic: %x != %x", a, b)
	}
	c := eth.Selector("approve(address,uint256)")
	if a == c {
		t.Fatalf("Selector() collided for two different signatures")
	}
}

func TestEthereumMappingSlotOrdersKeyBeforeSlot(t *testing.T) {
	eth := NewEthereum()
	key := []byte{0x01, 0x02, 0x03}
	got := eth.MappingSlot(5, key)

	slotWord := slotToWord(5)
	want := keccak256(append(append([]byte{}, key...), slotWord[:]...))
	if got != want {
		t.Fatalf("MappingSlot() = %x, want %x (hash(key || slot))", got, want)
	}
}

func TestEthereumMappingSlotVariesWithKeyAndSlot(t *testing.T) {
	eth := NewEthereum()
	s1 := eth.MappingSlot(1, []byte{0xAA})
	s2 := eth.MappingSlot(2, []byte{0xAA})
	s3 := eth.MappingSlot(1, []byte{0xBB})
	if s1 == s2 {
		t.Fatalf("MappingSlot() ignored the declared slot")
	}
	if s1 == s3 {
		t.Fatalf("MappingSlot() ignored the key")
	}
}

func TestEthereumDynamicArraySlotIsHashOfDeclaredSlot(t *testing.T) {
	eth := NewEthereum()
	got := eth.DynamicArraySlot(7)
	slotWord := slotToWord(7)
	want := keccak256(slotWord[:])
	if got != want {
		t.Fatalf("DynamicArraySlot() = %x, want %x", got, want)
	}
}

func TestEthereumCapabilities(t *testing.T) {
	eth := NewEthereum()
	if eth.SlotWidth() != 32 {
		t.Fatalf("SlotWidth() = %d, want 32", eth.SlotWidth())
	}
	if eth.AddressLength() != 20 {
		t.Fatalf("AddressLength() = %d, want 20", eth.AddressLength())
	}
	if eth.ABI() != ABIEth {
		t.Fatalf("ABI() = %v, want ABIEth", eth.ABI())
	}
	if _, ok := eth.Builtin("emit_event"); !ok {
		t.Fatalf("Builtin(%q) not found on ethereum target", "emit_event")
	}
	if _, ok := eth.Builtin("caller"); !ok {
		t.Fatalf("Builtin(%q) not found on ethereum target", "caller")
	}
	if _, ok := eth.Builtin("does_not_exist"); ok {
		t.Fatalf("Builtin(%q) unexpectedly found", "does_not_exist")
	}
}

func TestSubstrateSelectorMatchesBlake2bPrefix(t *testing.T) {
	sub := NewSubstrate()
	sel := sub.Selector("transfer(address,uint256)")
	digest := blake2b256([]byte("transfer(address,uint256)"))
	for i := 0; i < 4; i++ {
		if sel[i] != digest[i] {
			t.Fatalf("Selector()[%d] = %#x, want %#x (first 4 bytes of blake2b-256)", i, sel[i], digest[i])
		}
	}
}

func TestSubstrateMappingSlotOrdersSlotBeforeKeyWithPrefix(t *testing.T) {
	sub := NewSubstrate()
	key := []byte{0x01, 0x02, 0x03}
	got := sub.MappingSlot(5, key)

	slotWord := slotToWord(5)
	buf := append([]byte{}, substrateSlotPrefix[:]...)
	buf = append(buf, slotWord[:]...)
	buf = append(buf, key...)
	want := blake2b256(buf)
	if got != want {
		t.Fatalf("MappingSlot() = %x, want %x (hash(prefix || slot || key))", got, want)
	}
}

func TestSubstrateAndEthereumMappingSlotsDiffer(t *testing.T) {
	eth := NewEthereum()
	sub := NewSubstrate()
	key := []byte{0xDE, 0xAD}
	if eth.MappingSlot(3, key) == sub.MappingSlot(3, key) {
		t.Fatalf("ethereum and substrate mapping slot derivations collided for the same input")
	}
}

func TestSubstrateCapabilities(t *testing.T) {
	sub := NewSubstrate()
	if sub.AddressLength() != 32 {
		t.Fatalf("AddressLength() = %d, want 32", sub.AddressLength())
	}
	if sub.ABI() != ABIScale {
		t.Fatalf("ABI() = %v, want ABIScale", sub.ABI())
	}
	if sub.ABI().String() != "SCALE" {
		t.Fatalf("ABIScale.String() = %q, want %q", sub.ABI().String(), "SCALE")
	}
}

func TestSlotToWordIsBigEndianPadded(t *testing.T) {
	w := slotToWord(1)
	for i := 0; i < 31; i++ {
		if w[i] != 0 {
			t.Fatalf("slotToWord(1)[%d] = %#x, want 0 (left-padded)", i, w[i])
		}
	}
	if w[31] != 1 {
		t.Fatalf("slotToWord(1)[31] = %#x, want 1", w[31])
	}
}
