package artifact

import (
	"encoding/hex"
	"encoding/json"

	"github.com/mickey951112/solang/internal/codegen"
)

// abiDoc is the JSON shape ABIJSON marshals to: a deployer-facing view of a
// contract's external dispatch table, deliberately not the same struct
// codegen.SelectorEntry is, the way the teacher's tocABI mirrors its own
// AST rather than serializing it directly.
type abiDoc struct {
	Functions []abiFunction `json:"functions"`
}

type abiFunction struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Selector  string `json:"selector"`
}

func encodeABI(ca *codegen.Artifact) ([]byte, error) {
	doc := abiDoc{Functions: make([]abiFunction, 0, len(ca.Dispatch))}
	for _, e := range ca.Dispatch {
		doc.Functions = append(doc.Functions, abiFunction{
			Name:      e.Name,
			Signature: e.Signature,
			Selector:  "0x" + hex.EncodeToString(e.Selector[:]),
		})
	}
	return json.Marshal(doc)
}

// storageLayoutDoc is StorageLayoutJSON's shape: one row per state
// variable, its declared slot, and (when it is a mapping or dynamic array)
// the worked-example derived slot codegen.BuildLayout already computed
// against the real target.
type storageLayoutDoc struct {
	Slots []storageSlot `json:"slots"`
}

type storageSlot struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	SlotIndex   int    `json:"slot_index"`
	SlotOffset  int    `json:"slot_offset"`
	Derivation  string `json:"derivation,omitempty"`
	ExampleSlot string `json:"example_slot,omitempty"`
}

func encodeStorageLayout(layout *codegen.Layout) ([]byte, error) {
	doc := storageLayoutDoc{}
	if layout != nil {
		doc.Slots = make([]storageSlot, len(layout.Slots))
		for i, s := range layout.Slots {
			row := storageSlot{
				Name:       s.Name,
				Type:       s.Type,
				SlotIndex:  s.Slot.Index,
				SlotOffset: s.Slot.Offset,
				Derivation: s.Derivation,
			}
			if s.Derivation != "" {
				row.ExampleSlot = "0x" + hex.EncodeToString(s.ExampleSlot[:])
			}
			doc.Slots[i] = row
		}
	}
	return json.Marshal(doc)
}
