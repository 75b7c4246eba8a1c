package codegen

import (
	"github.com/mickey951112/solang/internal/sema"
	"github.com/mickey951112/solang/internal/target"
	"github.com/mickey951112/solang/internal/types"
)

// SlotInfo describes one state variable's storage placement for the
// artifact's storage layout metadata.
type SlotInfo struct {
	Name string
	Type string
	Slot types.Slot

	// Derivation names the target-specific rule internal/target applies
	// to reach an individual element's real slot at runtime: "" for a
	// plain value that lives directly at Slot, "mapping" or "dynamic-array"
	// otherwise (spec §4.5).
	Derivation string

	// ExampleSlot demonstrates Derivation's hash output for a fixed
	// worked example (mapping key 0x00 for "mapping", no key needed for
	// "dynamic-array"), so the metadata blob and its tests can assert
	// against a concrete, target-specific value instead of only a rule
	// name.
	ExampleSlot [32]byte
}

// Layout is one contract's full storage slot assignment.
type Layout struct {
	Slots []SlotInfo
}

// BuildLayout reports contract's full storage layout: its own state
// variables plus every base's, in the same most-base-first order
// internal/sema's assignStorageSlots used to assign them, reading back
// the Slot each Variable was already given there rather than re-packing
// (a derived contract's own fields continue its bases' layout, not
// restart at slot 0). It then asks tgt to derive the real per-element
// slot for every mapping and dynamic array, exercising the target's
// hashing scheme as a concrete part of this contract's compiled metadata
// rather than leaving it unused until a real call happens at runtime.
func BuildLayout(contract *sema.ContractEntity, ns *sema.Namespace, tgt target.Target) *Layout {
	var vars []*sema.Variable
	for i := len(contract.Linearized) - 1; i >= 0; i-- {
		base := ns.Contracts[contract.Linearized[i]]
		for _, vid := range base.StateVars {
			vars = append(vars, ns.Variables[vid])
		}
	}

	out := &Layout{Slots: make([]SlotInfo, len(vars))}
	for i, v := range vars {
		info := SlotInfo{Name: v.Name, Type: CanonicalTypeName(v.Type), Slot: v.Slot}
		switch t := unwrapRef(v.Type).(type) {
		case types.Mapping:
			info.Derivation = "mapping"
			info.ExampleSlot = tgt.MappingSlot(v.Slot.Index, make([]byte, 32))
		case types.Array:
			if t.Length < 0 {
				info.Derivation = "dynamic-array"
				info.ExampleSlot = tgt.DynamicArraySlot(v.Slot.Index)
			}
		}
		out.Slots[i] = info
	}
	return out
}

func unwrapRef(t types.Type) types.Type {
	if rf, ok := t.(types.Ref); ok {
		return rf.Inner
	}
	return t
}
