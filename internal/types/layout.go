package types

// SlotBytes is the fixed storage slot width this repo's Ethereum-style
// target uses (32 bytes); the substrate-style target's Target
// implementation may use a different width for its own ABI encoding, but
// storage packing itself is specified in terms of 32-byte slots
// regardless of target (§3.3).
const SlotBytes = 32

// StaticSize returns the packed byte size of t within a storage slot, or
// -1 if t always occupies a whole slot by itself (dynamic types, mappings,
// and arrays/structs, which is what the original source's slot-packing
// pass also treats as "never shares a slot").
func StaticSize(t Type) int {
	switch v := t.(type) {
	case Bool:
		return 1
	case Uint:
		return v.Width / 8
	case Int:
		return v.Width / 8
	case Bytes:
		if v.N == 0 {
			return -1
		}
		return v.N
	case Address:
		return 20
	case Enum:
		return 1
	default:
		return -1
	}
}

// Slot is one assigned storage location: a slot index and, for a value
// that shares a slot with neighbors, the byte offset within that slot.
type Slot struct {
	Index  int
	Offset int
	Size   int
}

// PackSlots assigns storage slots to a contract's state variables in
// declaration order, packing consecutive small values into a shared slot
// the way Solidity's storage layout does: each variable that does not fit
// in the current slot's remaining space starts a fresh slot, and any
// value with StaticSize -1 (dynamic types, mappings, arrays, structs)
// always starts its own fresh slot and consumes it entirely.
func PackSlots(fields []Type) []Slot {
	out := make([]Slot, len(fields))
	slot, offset := 0, 0
	for i, t := range fields {
		size := StaticSize(t)
		if size < 0 {
			if offset != 0 {
				slot++
				offset = 0
			}
			out[i] = Slot{Index: slot, Offset: 0, Size: SlotBytes}
			slot++
			continue
		}
		if offset+size > SlotBytes {
			slot++
			offset = 0
		}
		out[i] = Slot{Index: slot, Offset: offset, Size: size}
		offset += size
	}
	return out
}
