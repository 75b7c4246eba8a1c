// Package wasm encodes a small, explicit module model into the WebAssembly
// binary format: just enough of the spec (type/import/function/memory/
// export/code/data sections, the control/local/memory/numeric
// opcodes internal/codegen emits) to carry a compiled contract, grounded on
// the encoding conventions of a dedicated WASM backend in the example pack
// rather than any general-purpose assembler.
package wasm

import "encoding/binary"

var magic = []byte{0x00, 0x61, 0x73, 0x6D}
var version = []byte{0x01, 0x00, 0x00, 0x00}

type sectionID byte

const (
	secType     sectionID = 1
	secImport   sectionID = 2
	secFunction sectionID = 3
	secMemory   sectionID = 5
	secGlobal   sectionID = 6
	secExport   sectionID = 7
	secCode     sectionID = 10
	secData     sectionID = 11
)

// ValType is a WASM value type tag. internal/codegen gives every CFG
// register a single I64 local regardless of its source type (bool, intN,
// address, and bytes values all ride the same slot; a register holding a
// linear-memory offset is still an I64 value, wrapped to I32 only where a
// load or store instruction needs an address operand). I32 itself is
// reserved for that wrapping step and for the pc-dispatch local compile.go
// uses to drive a function's block chain.
type ValType byte

const (
	I32 ValType = 0x7F
	I64 ValType = 0x7E
)

const (
	externFunc byte = 0x00

	exportKindFunc   byte = 0x00
	exportKindMemory byte = 0x02
)

// Opcodes. Numeric values are the WebAssembly specification's, not this
// repo's invention; only the names and grouping are ours.
const (
	opUnreachable byte = 0x00
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opIf          byte = 0x04
	opElse        byte = 0x05
	opEnd         byte = 0x0B
	opBr          byte = 0x0C
	opBrIf        byte = 0x0D
	opReturn      byte = 0x0F
	opCall        byte = 0x10
	opDrop        byte = 0x1A
	opSelect      byte = 0x1B

	opLocalGet  byte = 0x20
	opLocalSet  byte = 0x21
	opLocalTee  byte = 0x22
	opGlobalGet byte = 0x23
	opGlobalSet byte = 0x24

	opI32Load  byte = 0x28
	opI64Load  byte = 0x29
	opI32Store byte = 0x36
	opI64Store byte = 0x37

	opI32Const byte = 0x41
	opI64Const byte = 0x42

	opI32Eqz byte = 0x45
	opI32Eq  byte = 0x46
	opI32Ne  byte = 0x47

	opI64Eqz  byte = 0x50
	opI64Eq   byte = 0x51
	opI64Ne   byte = 0x52
	opI64LtS  byte = 0x53
	opI64GtS  byte = 0x55
	opI64LeS  byte = 0x57
	opI64GeS  byte = 0x59
	opI64Add  byte = 0x7C
	opI64Sub  byte = 0x7D
	opI64Mul  byte = 0x7E
	opI64DivS byte = 0x7F
	opI64RemS byte = 0x81
	opI64And  byte = 0x83
	opI64Or   byte = 0x84
	opI64Xor  byte = 0x85
	opI64Shl  byte = 0x86
	opI64ShrS byte = 0x87
	opI64ShrU byte = 0x88

	opI32WrapI64    byte = 0xA7
	opI64ExtendI32S byte = 0xAC

	blockVoid byte = 0x40
)

func leb128U(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	var out []byte
	for v > 0 {
		b := byte(v & 0x7F)
		v >>= 7
		if v > 0 {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func leb128S(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func encStr(s string) []byte {
	out := leb128U(uint64(len(s)))
	return append(out, []byte(s)...)
}

func encVec(n int, items []byte) []byte {
	out := leb128U(uint64(n))
	return append(out, items...)
}

func encSection(id sectionID, contents []byte) []byte {
	out := []byte{byte(id)}
	out = append(out, leb128U(uint64(len(contents)))...)
	return append(out, contents...)
}

func u32le(v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return buf[:]
}
