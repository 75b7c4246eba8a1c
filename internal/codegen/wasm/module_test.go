package wasm

import (
	"bytes"
	"testing"
)

func TestEncodeStartsWithMagicAndVersion(t *testing.T) {
	m := &Module{}
	out := m.Encode()
	if !bytes.Equal(out[:4], magic) {
		t.Fatalf("Encode()[:4] = %x, want magic %x", out[:4], magic)
	}
	if !bytes.Equal(out[4:8], version) {
		t.Fatalf("Encode()[4:8] = %x, want version %x", out[4:8], version)
	}
}

func TestEncodeOmitsEmptyImportAndDataSections(t *testing.T) {
	m := &Module{
		Functions: []Function{
			{Name: "f", Type: FuncType{Results: []ValType{I64}}, Body: (func() []byte {
				b := NewBuilder()
				b.I64Const(0)
				b.Return()
				return b.Bytes()
			})()},
		},
	}
	out := m.Encode()
	if sectionPresent(out, secImport) {
		t.Fatalf("Encode() included an import section with zero imports")
	}
	if sectionPresent(out, secData) {
		t.Fatalf("Encode() included a data section with zero data segments")
	}
	if !sectionPresent(out, secFunction) || !sectionPresent(out, secCode) || !sectionPresent(out, secExport) {
		t.Fatalf("Encode() is missing a required section")
	}
}

// sectionPresent walks the section stream (skipping the 8-byte header) and
// reports whether id appears as a section marker, trusting each section's
// own declared length to skip to the next one rather than scanning for the
// byte value anywhere in the payload.
func sectionPresent(encoded []byte, id sectionID) bool {
	pos := 8
	for pos < len(encoded) {
		sec := sectionID(encoded[pos])
		pos++
		length, n := readLEB128U(encoded[pos:])
		pos += n
		if sec == id {
			return true
		}
		pos += int(length)
	}
	return false
}

func readLEB128U(b []byte) (uint64, int) {
	var result uint64
	var shift uint
	for i, c := range b {
		result |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return result, i + 1
		}
		shift += 7
	}
	return result, len(b)
}

func TestEncodeIncludesImportSectionWhenImportsPresent(t *testing.T) {
	m := &Module{
		Imports: []Import{{Module: "env", Name: "caller", Type: FuncType{Results: []ValType{I64}}}},
		Functions: []Function{
			{Name: "f", Type: FuncType{Results: []ValType{I64}}, Body: (func() []byte {
				b := NewBuilder()
				b.I64Const(0)
				b.Return()
				return b.Bytes()
			})()},
		},
	}
	out := m.Encode()
	if !sectionPresent(out, secImport) {
		t.Fatalf("Encode() is missing the import section")
	}
}

func TestFuncIndexAccountsForImports(t *testing.T) {
	m := &Module{Imports: []Import{{}, {}}}
	if got := m.FuncIndex(0); got != 2 {
		t.Fatalf("FuncIndex(0) = %d, want 2 with two imports registered", got)
	}
}

func TestEncodeLocalsDeclRunLengthEncodesConsecutiveTypes(t *testing.T) {
	out := encodeLocalsDecl([]ValType{I64, I64, I64, I32})
	// 2 runs declared, then (count, type) pairs: (3, I64) and (1, I32).
	want := []byte{2, 3, byte(I64), 1, byte(I32)}
	if !bytes.Equal(out, want) {
		t.Fatalf("encodeLocalsDecl() = %v, want %v", out, want)
	}
}

func TestEncodeLocalsDeclEmptyIsZeroRuns(t *testing.T) {
	out := encodeLocalsDecl(nil)
	if !bytes.Equal(out, []byte{0}) {
		t.Fatalf("encodeLocalsDecl(nil) = %v, want [0]", out)
	}
}
