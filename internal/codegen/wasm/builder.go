package wasm

// Builder accumulates one function body's encoded instruction stream.
// internal/codegen walks a CFG block and calls these methods in the order
// the target's stack machine needs; Builder never validates stack shape
// itself, the same way the teacher pipeline trusts its lowering stage to
// produce a well-formed body rather than re-verifying it here.
type Builder struct {
	body []byte
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) Bytes() []byte { return b.body }

func (b *Builder) emit(op byte)             { b.body = append(b.body, op) }
func (b *Builder) emitU(op byte, v uint64)  { b.body = append(b.body, op); b.body = append(b.body, leb128U(v)...) }
func (b *Builder) emitS(op byte, v int64)   { b.body = append(b.body, op); b.body = append(b.body, leb128S(v)...) }

func (b *Builder) I64Const(v int64) { b.emitS(opI64Const, v) }
func (b *Builder) I32Const(v int32) { b.emitS(opI32Const, int64(v)) }

func (b *Builder) LocalGet(idx int) { b.emitU(opLocalGet, uint64(idx)) }
func (b *Builder) LocalSet(idx int) { b.emitU(opLocalSet, uint64(idx)) }
func (b *Builder) LocalTee(idx int) { b.emitU(opLocalTee, uint64(idx)) }

func (b *Builder) Call(funcIdx int) { b.emitU(opCall, uint64(funcIdx)) }
func (b *Builder) Drop()            { b.emit(opDrop) }
func (b *Builder) Return()          { b.emit(opReturn) }
func (b *Builder) Unreachable()     { b.emit(opUnreachable) }
func (b *Builder) End()             { b.emit(opEnd) }

// Block/Loop open a structured control region with a void signature; If
// pops one i32 condition. Every Block/Loop/If must be matched by End.
func (b *Builder) Block() { b.emit(opBlock); b.emit(blockVoid) }
func (b *Builder) Loop()  { b.emit(opLoop); b.emit(blockVoid) }
func (b *Builder) If()    { b.emit(opIf); b.emit(blockVoid) }
func (b *Builder) Else()  { b.emit(opElse) }

func (b *Builder) Br(depth int)   { b.emitU(opBr, uint64(depth)) }
func (b *Builder) BrIf(depth int) { b.emitU(opBrIf, uint64(depth)) }

func (b *Builder) I64Eqz() { b.emit(opI64Eqz) }
func (b *Builder) I32Eqz() { b.emit(opI32Eqz) }
func (b *Builder) I32Eq()  { b.emit(opI32Eq) }

// I32WrapI64 narrows the i64 on top of the stack to i32, the step a
// register holding a linear-memory offset needs before feeding a load or
// store instruction's address operand.
func (b *Builder) I32WrapI64() { b.emit(opI32WrapI64) }

// I64ExtendI32S widens the i32 every comparison and Eqz instruction
// produces back to the i64 every register is declared as, so a comparison
// result can be written straight into a local with local.set.
func (b *Builder) I64ExtendI32S() { b.emit(opI64ExtendI32S) }

func (b *Builder) I64Add()  { b.emit(opI64Add) }
func (b *Builder) I64Sub()  { b.emit(opI64Sub) }
func (b *Builder) I64Mul()  { b.emit(opI64Mul) }
func (b *Builder) I64DivS() { b.emit(opI64DivS) }
func (b *Builder) I64RemS() { b.emit(opI64RemS) }
func (b *Builder) I64And()  { b.emit(opI64And) }
func (b *Builder) I64Or()   { b.emit(opI64Or) }
func (b *Builder) I64Xor()  { b.emit(opI64Xor) }
func (b *Builder) I64Shl()  { b.emit(opI64Shl) }
func (b *Builder) I64ShrS() { b.emit(opI64ShrS) }
func (b *Builder) I64ShrU() { b.emit(opI64ShrU) }
func (b *Builder) I64Eq()   { b.emit(opI64Eq) }
func (b *Builder) I64Ne()   { b.emit(opI64Ne) }
func (b *Builder) I64LtS()  { b.emit(opI64LtS) }
func (b *Builder) I64GtS()  { b.emit(opI64GtS) }
func (b *Builder) I64LeS()  { b.emit(opI64LeS) }
func (b *Builder) I64GeS()  { b.emit(opI64GeS) }

// memarg writes a load/store instruction's (align, offset) pair: align is
// expressed as a power-of-two exponent (2 means 4-byte, 3 means 8-byte),
// offset is the constant byte offset added to the address operand already
// on the stack.
func (b *Builder) memarg(op byte, alignExp uint32, offset uint32) {
	b.emit(op)
	b.body = append(b.body, leb128U(uint64(alignExp))...)
	b.body = append(b.body, leb128U(uint64(offset))...)
}

func (b *Builder) I32Load()  { b.memarg(opI32Load, 2, 0) }
func (b *Builder) I32Store() { b.memarg(opI32Store, 2, 0) }
func (b *Builder) I64Load()  { b.memarg(opI64Load, 3, 0) }
func (b *Builder) I64Store() { b.memarg(opI64Store, 3, 0) }
