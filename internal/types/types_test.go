package types

import "testing"

func TestClassifyIntegerWidening(t *testing.T) {
	if k := Classify(Uint{Width: 8}, Uint{Width: 256}); k != ConvImplicit {
		t.Fatalf("uint8->uint256: got %v, want ConvImplicit", k)
	}
	if k := Classify(Uint{Width: 256}, Uint{Width: 8}); k != ConvExplicit {
		t.Fatalf("uint256->uint8: got %v, want ConvExplicit", k)
	}
}

func TestWouldTruncateOnNarrowingCast(t *testing.T) {
	if !WouldTruncate(Uint{Width: 256}, Uint{Width: 8}) {
		t.Fatalf("expected uint256->uint8 to be flagged as truncating")
	}
	if WouldTruncate(Uint{Width: 8}, Uint{Width: 256}) {
		t.Fatalf("did not expect uint8->uint256 to be flagged as truncating")
	}
}

func TestAddressPayableConversion(t *testing.T) {
	if Classify(Address{Payable: true}, Address{Payable: false}) != ConvImplicit {
		t.Fatalf("expected payable->non-payable address to be implicit")
	}
	if Classify(Address{Payable: false}, Address{Payable: true}) != ConvNone {
		t.Fatalf("expected non-payable->payable address to be disallowed")
	}
}

func TestPackSlotsPacksSmallPrimitivesTogether(t *testing.T) {
	fields := []Type{Bool{}, Uint{Width: 8}, Uint{Width: 256}, Address{}, Bool{}}
	slots := PackSlots(fields)
	if slots[0].Index != 0 || slots[1].Index != 0 {
		t.Fatalf("expected bool and uint8 to share slot 0: %#v", slots[:2])
	}
	if slots[2].Index != 1 || slots[2].Offset != 0 {
		t.Fatalf("expected uint256 to start its own fresh slot: %#v", slots[2])
	}
	if slots[3].Index != 2 {
		t.Fatalf("expected address to start a new slot after the full uint256 slot: %#v", slots[3])
	}
	if slots[4].Index != 2 || slots[4].Offset != 20 {
		t.Fatalf("expected trailing bool to pack after address in slot 2: %#v", slots[4])
	}
}

func TestPackSlotsGivesDynamicTypesTheirOwnSlot(t *testing.T) {
	fields := []Type{Uint{Width: 8}, String{}, Uint{Width: 8}}
	slots := PackSlots(fields)
	if slots[1].Index == slots[0].Index {
		t.Fatalf("expected dynamic string to occupy its own slot, got %#v", slots)
	}
	if slots[2].Index == slots[1].Index {
		t.Fatalf("expected value after a dynamic slot to start fresh, got %#v", slots)
	}
}
