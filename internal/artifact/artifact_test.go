package artifact

import (
	"encoding/json"
	"testing"

	"github.com/mickey951112/solang/internal/codegen"
	"github.com/mickey951112/solang/internal/codegen/wasm"
	"github.com/mickey951112/solang/internal/types"
)

func sampleCodegenArtifact() *codegen.Artifact {
	b := wasm.NewBuilder()
	b.I64Const(0)
	b.Return()
	mod := &wasm.Module{
		MemoryPages: 1,
		Functions: []wasm.Function{
			{Name: "ping", Type: wasm.FuncType{Results: []wasm.ValType{wasm.I64}}, Body: b.Bytes()},
		},
	}
	return &codegen.Artifact{
		ContractName: "Demo",
		Module:       mod,
		Dispatch: []codegen.SelectorEntry{
			{FunctionID: 1, Name: "ping", Signature: "ping(address,uint256)", Selector: [4]byte{0xAA, 0xBB, 0xCC, 0xDD}},
		},
		Layout: &codegen.Layout{
			Slots: []codegen.SlotInfo{
				{Name: "total", Type: "uint256", Slot: types.Slot{Index: 0}},
				{Name: "balances", Type: "mapping(address=>uint256)", Slot: types.Slot{Index: 1}, Derivation: "mapping"},
			},
		},
	}
}

func TestBuildEncodeDecodeRoundTrip(t *testing.T) {
	src := []byte("contract Demo {}")
	a, err := Build(sampleCodegenArtifact(), "ethereum", src)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	enc, err := Encode(a)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !IsArtifact(enc) {
		t.Fatalf("IsArtifact() = false for a just-encoded artifact")
	}

	got, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.ContractName != "Demo" {
		t.Fatalf("ContractName = %q, want %q", got.ContractName, "Demo")
	}
	if got.Target != "ethereum" {
		t.Fatalf("Target = %q, want %q", got.Target, "ethereum")
	}
	if got.Version != FormatVersion {
		t.Fatalf("Version = %d, want %d", got.Version, FormatVersion)
	}
	if got.ModuleHash != keccak256Hex(got.Module) {
		t.Fatalf("ModuleHash = %s, want %s", got.ModuleHash, keccak256Hex(got.Module))
	}
	if err := VerifySourceHash(got, src); err != nil {
		t.Fatalf("VerifySourceHash() error = %v", err)
	}

	var abi abiDoc
	if err := json.Unmarshal(got.ABIJSON, &abi); err != nil {
		t.Fatalf("ABIJSON does not unmarshal: %v", err)
	}
	if len(abi.Functions) != 1 || abi.Functions[0].Name != "ping" {
		t.Fatalf("ABIJSON functions = %+v, want one entry named ping", abi.Functions)
	}
	if abi.Functions[0].Selector != "0xaabbccdd" {
		t.Fatalf("ABIJSON selector = %s, want 0xaabbccdd", abi.Functions[0].Selector)
	}

	var layout storageLayoutDoc
	if err := json.Unmarshal(got.StorageLayoutJSON, &layout); err != nil {
		t.Fatalf("StorageLayoutJSON does not unmarshal: %v", err)
	}
	if len(layout.Slots) != 2 {
		t.Fatalf("StorageLayoutJSON slots = %d, want 2", len(layout.Slots))
	}
	if layout.Slots[1].Derivation != "mapping" {
		t.Fatalf("second slot derivation = %q, want %q", layout.Slots[1].Derivation, "mapping")
	}
}

func TestVerifySourceHashRejectsMismatch(t *testing.T) {
	a, err := Build(sampleCodegenArtifact(), "ethereum", []byte("contract Demo {}"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := VerifySourceHash(a, []byte("contract Other {}")); err == nil {
		t.Fatalf("VerifySourceHash() = nil error for mismatched source, want an error")
	}
}

func TestDecodeRejectsTamperedModule(t *testing.T) {
	a, err := Build(sampleCodegenArtifact(), "ethereum", []byte("contract Demo {}"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	enc, err := Encode(a)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	// Flip a byte inside the trailing hash region; Decode must reject it
	// even though every length-prefixed field before it still parses fine.
	tampered := append([]byte{}, enc...)
	tampered[len(tampered)-1] ^= 0xFF
	if _, err := Decode(tampered); err == nil {
		t.Fatalf("Decode() = nil error for a tampered artifact, want a hash mismatch error")
	}
}

func TestDecodeRejectsWrongMagic(t *testing.T) {
	if _, err := Decode([]byte("not an artifact at all")); err == nil {
		t.Fatalf("Decode() = nil error for non-artifact input, want an error")
	}
}

func TestIsArtifactRejectsShortInput(t *testing.T) {
	if IsArtifact([]byte{0x53}) {
		t.Fatalf("IsArtifact() = true for input shorter than the magic, want false")
	}
}
