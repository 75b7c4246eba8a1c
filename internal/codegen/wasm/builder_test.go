package wasm

import (
	"bytes"
	"testing"
)

func TestBuilderI64ConstEncodesSignedLEB128(t *testing.T) {
	b := NewBuilder()
	b.I64Const(-1)
	want := []byte{opI64Const, 0x7F} // -1 encodes to a single 0x7F byte
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("I64Const(-1) = %v, want %v", b.Bytes(), want)
	}
}

func TestBuilderLocalGetEncodesUnsignedIndex(t *testing.T) {
	b := NewBuilder()
	b.LocalGet(3)
	want := []byte{opLocalGet, 3}
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("LocalGet(3) = %v, want %v", b.Bytes(), want)
	}
}

func TestBuilderIfElseEndNestsVoidBlocks(t *testing.T) {
	b := NewBuilder()
	b.If()
	b.Drop()
	b.Else()
	b.Drop()
	b.End()
	want := []byte{opIf, blockVoid, opDrop, opElse, opDrop, opEnd}
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("If/Else/End = %v, want %v", b.Bytes(), want)
	}
}

func TestBuilderI64StoreUsesEightByteAlignment(t *testing.T) {
	b := NewBuilder()
	b.I64Store()
	want := []byte{opI64Store, 3, 0} // align exponent 3 (8 bytes), offset 0
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("I64Store() = %v, want %v", b.Bytes(), want)
	}
}
