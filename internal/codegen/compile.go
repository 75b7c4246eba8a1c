package codegen

import (
	"encoding/binary"
	"fmt"

	"github.com/mickey951112/solang/internal/cfg"
	"github.com/mickey951112/solang/internal/codegen/wasm"
	"github.com/mickey951112/solang/internal/sema"
	"github.com/mickey951112/solang/internal/target"
	"github.com/mickey951112/solang/internal/types"
)

// builtinHostName maps the bare member-access names internal/cfg's
// BuiltinOperand carries (msg.sender, block.timestamp, ...) to the host
// import name a Target's Builtin catalog actually registers them under.
// "bytes.length" and "address.balance" have no entry: internal/cfg's own
// lowering (buildMemberLoad) discards the register the length/balance was
// taken of before it ever reaches a BuiltinOperand, so there is nothing for
// a host call to key on; compile.go lowers "bytes.length" to a literal 0 and
// "address.balance" to a balance host call with a placeholder 0 argument, a
// limitation inherited from that upstream simplification rather than one of
// this file's own making.
var builtinHostName = map[string]string{
	"msg.sender":      "caller",
	"msg.value":       "value_transferred",
	"tx.origin":       "origin",
	"block.timestamp": "block_timestamp",
	"block.number":    "block_number",
}

// scratchBase is the fixed linear-memory address ABI staging (external
// call arguments, abi_encode operands) writes its i64 words to before
// calling a host import that expects a (ptr, count) pair. Interned string
// data (revert reasons) grows up from address 0; reserving the second
// memory page for scratch space keeps the two from colliding without
// tracking a real allocator, the same kind of fixed-arena simplification
// internal/codegen/bigint.go's truncateToI64 documents for 256-bit words.
const scratchBase = int32(65536)

// moduleCtx is the per-contract state threaded across every function's
// lowering: the wasm.Module under construction, the lazily-populated host
// import table, the internal-call function index table, and the running
// offset interned string data claims out of linear memory's first page.
type moduleCtx struct {
	tgt     target.Target
	ns      *sema.Namespace
	mod     *wasm.Module
	hostIdx map[string]int
	funcIdx map[int]int // sema Function entity id -> wasm function index
	dataOff int32
}

func newModuleCtx(tgt target.Target, ns *sema.Namespace, mod *wasm.Module, funcIdx map[int]int) *moduleCtx {
	return &moduleCtx{tgt: tgt, ns: ns, mod: mod, hostIdx: map[string]int{}, funcIdx: funcIdx}
}

// intern claims a chunk of the module's first linear-memory page for data
// and returns where it landed.
func (m *moduleCtx) intern(data []byte) (ptr int32, length int32) {
	ptr = m.dataOff
	m.mod.Data = append(m.mod.Data, wasm.DataSegment{Offset: int(ptr), Bytes: data})
	m.dataOff += int32(len(data))
	return ptr, int32(len(data))
}

// hostCall registers (on first use) and returns the function index of one
// of tgt's builtins, with params/results given explicitly because a
// Builtin's types.Type signature describes the source-language surface,
// not the handful of i32/i64 shapes this compiler's uniform-register model
// actually needs on the wasm side.
func (m *moduleCtx) hostCall(name string, params, results []wasm.ValType) (int, error) {
	if idx, ok := m.hostIdx[name]; ok {
		return idx, nil
	}
	if _, ok := m.tgt.Builtin(name); !ok {
		return 0, fmt.Errorf("target %s does not implement builtin %q", m.tgt.Name(), name)
	}
	idx := len(m.mod.Imports)
	m.mod.Imports = append(m.mod.Imports, wasm.Import{
		Module: "env",
		Name:   name,
		Type:   wasm.FuncType{Params: params, Results: results},
	})
	m.hostIdx[name] = idx
	return idx, nil
}

var i64 = []wasm.ValType{wasm.I64}
var i64i64 = []wasm.ValType{wasm.I64, wasm.I64}
var noVals []wasm.ValType

// builtinSignatures lists every host import name and wasm signature this
// compiler can ever call, in a fixed order. registerBuiltins adds them to
// a module's import section up front, before any function is assigned its
// wasm function index: imports occupy the low end of that index space, so
// an import a later function's body happens to be the first to need would
// otherwise shift every function index already handed out to an earlier
// CallInstr.
var builtinSignatures = []struct {
	name    string
	params  []wasm.ValType
	results []wasm.ValType
}{
	{"caller", noVals, i64},
	{"origin", noVals, i64},
	{"value_transferred", noVals, i64},
	{"block_timestamp", noVals, i64},
	{"block_number", noVals, i64},
	{"balance", i64, i64},
	{"set_storage", i64i64, noVals},
	{"get_storage", i64, i64},
	{"seal_call", []wasm.ValType{wasm.I64, wasm.I64, wasm.I64, wasm.I32, wasm.I64}, i64},
	{"emit_event", []wasm.ValType{wasm.I64, wasm.I32, wasm.I64}, noVals},
	{"abi_encode", []wasm.ValType{wasm.I32, wasm.I64}, i64},
	{"abi_decode", i64i64, i64},
	{"keccak256", i64, i64},
	{"alloc_dynamic", i64, i64},
	{"revert", []wasm.ValType{wasm.I32, wasm.I32}, noVals},
}

// registerBuiltins imports every builtin tgt implements from
// builtinSignatures. A name absent from tgt's catalog (none, today: both
// targets implement the full list) is simply skipped; an instruction that
// goes on to need it still fails lowering with the same "not implemented"
// error hostCall always raises for a missing builtin, just surfaced at
// that instruction instead of here.
func registerBuiltins(m *moduleCtx) {
	for _, b := range builtinSignatures {
		_, _ = m.hostCall(b.name, b.params, b.results)
	}
}

// funcCompiler lowers one CFG into a wasm.Function. Every CFG register
// becomes one i64 local at the same index the register names (params come
// first in both the CFG and the wasm signature, by construction of
// internal/cfg/build.go's register allocator, so no separate index table is
// needed); control flow is driven by one extra i32 "pc" local rather than a
// structural translation of the CFG's arbitrary block graph, because a real
// relooper would be the one piece of this compiler hardest to get right
// without ever running it.
type funcCompiler struct {
	*moduleCtx
	g       *cfg.CFG
	chainOf map[cfg.Label]int32
	pcLocal int
	b       *wasm.Builder
}

// lowerFunction compiles g into a wasm.Function exported under fn's name.
func lowerFunction(fn *sema.FunctionEntity, g *cfg.CFG, mctx *moduleCtx) (wasm.Function, error) {
	fc := &funcCompiler{
		moduleCtx: mctx,
		g:         g,
		chainOf:   make(map[cfg.Label]int32, len(g.Blocks)),
		pcLocal:   g.NumRegs,
		b:         wasm.NewBuilder(),
	}
	for i, blk := range g.Blocks {
		fc.chainOf[blk.Label] = int32(i)
	}

	fc.b.I32Const(fc.chainOf[g.Entry])
	fc.b.LocalSet(fc.pcLocal)

	fc.b.Loop()
	for _, blk := range g.Blocks {
		fc.b.LocalGet(fc.pcLocal)
		fc.b.I32Const(fc.chainOf[blk.Label])
		fc.b.I32Eq()
		fc.b.If()
		if err := fc.lowerBlock(blk); err != nil {
			return wasm.Function{}, fmt.Errorf("%s: %w", fn.Name, err)
		}
		fc.b.End()
	}
	fc.b.Br(0)
	fc.b.End()
	// Every reachable path out of the loop above ends in an explicit Return
	// or Unreachable inside some block's terminator; nothing actually falls
	// out here, but the wasm validator still needs the function body's tail
	// to satisfy its declared result arity, and Unreachable does that
	// unconditionally regardless of how many results are declared.
	fc.b.Unreachable()

	params := make([]wasm.ValType, len(g.Params))
	for i := range params {
		params[i] = wasm.I64
	}
	results := make([]wasm.ValType, len(g.Returns))
	for i := range results {
		results[i] = wasm.I64
	}
	locals := make([]wasm.ValType, 0, g.NumRegs-len(g.Params)+1)
	for r := len(g.Params); r < g.NumRegs; r++ {
		locals = append(locals, wasm.I64)
	}
	locals = append(locals, wasm.I32) // pc

	return wasm.Function{
		Name:   fn.Name,
		Type:   wasm.FuncType{Params: params, Results: results},
		Locals: locals,
		Body:   fc.b.Bytes(),
	}, nil
}

func (fc *funcCompiler) lowerBlock(blk *cfg.Block) error {
	for _, in := range blk.Instrs {
		if err := fc.lowerInstr(in); err != nil {
			return err
		}
	}
	return fc.lowerTerm(blk.Term)
}

func (fc *funcCompiler) lowerTerm(term cfg.Terminator) error {
	switch t := term.(type) {
	case *cfg.BranchTerm:
		fc.b.I32Const(fc.chainOf[t.Target])
		fc.b.LocalSet(fc.pcLocal)
		return nil
	case *cfg.CondBranchTerm:
		fc.b.LocalGet(int(t.Cond))
		fc.b.I64Eqz() // 1 (i32) when Cond == 0, i.e. the False branch
		fc.b.If()
		fc.b.I32Const(fc.chainOf[t.False])
		fc.b.LocalSet(fc.pcLocal)
		fc.b.Else()
		fc.b.I32Const(fc.chainOf[t.True])
		fc.b.LocalSet(fc.pcLocal)
		fc.b.End()
		return nil
	case *cfg.ReturnTerm:
		for _, r := range t.Values {
			fc.b.LocalGet(int(r))
		}
		fc.b.Return()
		return nil
	case *cfg.UnreachableTerm:
		fc.b.Unreachable()
		return nil
	}
	return fmt.Errorf("unhandled terminator %T", term)
}

var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
}

func (fc *funcCompiler) lowerInstr(in cfg.Instr) error {
	switch i := in.(type) {
	case *cfg.SetInstr:
		return fc.lowerSet(i)
	case *cfg.StoreInstr:
		return fc.lowerStore(i)
	case *cfg.LoadInstr:
		return fc.lowerLoad(i)
	case *cfg.BinOpInstr:
		return fc.lowerBinOp(i)
	case *cfg.CastInstr:
		return fc.lowerCast(i)
	case *cfg.CallInstr:
		return fc.lowerCall(i)
	case *cfg.ExternalCallInstr:
		return fc.lowerExternalCall(i)
	case *cfg.EmitInstr:
		return fc.lowerEmit(i)
	case *cfg.AbiEncodeInstr:
		return fc.lowerAbiEncode(i)
	case *cfg.AbiDecodeInstr:
		return fc.lowerAbiDecode(i)
	case *cfg.KeccakInstr:
		return fc.lowerKeccak(i)
	case *cfg.AllocDynamicInstr:
		return fc.lowerAllocDynamic(i)
	case *cfg.PrintInstr:
		return fmt.Errorf("target %s does not support print", fc.tgt.Name())
	case *cfg.AssertFailureInstr:
		return fc.lowerAssertFailure(i)
	}
	return fmt.Errorf("unhandled instruction %T", in)
}

func (fc *funcCompiler) lowerSet(i *cfg.SetInstr) error {
	switch i.Value.Kind {
	case cfg.OperandReg:
		fc.b.LocalGet(int(i.Value.Reg))
	case cfg.OperandInt:
		fc.b.I64Const(truncateToI64(i.Value.Int))
	case cfg.OperandBool:
		if i.Value.Bool {
			fc.b.I64Const(1)
		} else {
			fc.b.I64Const(0)
		}
	case cfg.OperandString:
		ptr, _ := fc.intern([]byte(i.Value.Str))
		fc.b.I64Const(int64(ptr))
	case cfg.OperandBytes:
		ptr, _ := fc.intern(i.Value.Bytes)
		fc.b.I64Const(int64(ptr))
	case cfg.OperandBuiltin:
		if err := fc.pushBuiltin(i.Value.Str); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unhandled operand kind %v", i.Value.Kind)
	}
	fc.b.LocalSet(int(i.Dst))
	return nil
}

// pushBuiltin leaves one i64 value on the stack for a BuiltinOperand.
func (fc *funcCompiler) pushBuiltin(name string) error {
	if name == "bytes.length" {
		// internal/cfg discards the register this value was taken of
		// before recording the operand; there is nothing left to key a
		// real lookup on.
		fc.b.I64Const(0)
		return nil
	}
	if name == "address.balance" {
		// Same upstream limitation as bytes.length: the address register
		// balance() was called on never reaches this operand. Call the
		// host builtin anyway with a placeholder argument so it is still
		// exercised rather than stranded, rather than skip the call
		// outright.
		idx, err := fc.hostCall("balance", i64, i64)
		if err != nil {
			return err
		}
		fc.b.I64Const(0)
		fc.b.Call(idx)
		return nil
	}
	hostName, ok := builtinHostName[name]
	if !ok {
		return fmt.Errorf("unknown builtin operand %q", name)
	}
	idx, err := fc.hostCall(hostName, noVals, i64)
	if err != nil {
		return err
	}
	fc.b.Call(idx)
	return nil
}

func (fc *funcCompiler) lowerStore(i *cfg.StoreInstr) error {
	if i.Area == cfg.AreaStorage {
		idx, err := fc.hostCall("set_storage", i64i64, noVals)
		if err != nil {
			return err
		}
		if i.Addr == 0 {
			fc.b.I64Const(int64(i.Slot.Index))
		} else {
			fc.b.LocalGet(int(i.Addr))
		}
		fc.b.LocalGet(int(i.Value))
		fc.b.Call(idx)
		return nil
	}
	fc.b.LocalGet(int(i.Addr))
	fc.b.I32WrapI64()
	fc.b.LocalGet(int(i.Value))
	fc.b.I64Store()
	return nil
}

func (fc *funcCompiler) lowerLoad(i *cfg.LoadInstr) error {
	if i.Area == cfg.AreaStorage {
		idx, err := fc.hostCall("get_storage", i64, i64)
		if err != nil {
			return err
		}
		if i.Addr == 0 {
			fc.b.I64Const(int64(i.Slot.Index))
		} else {
			fc.b.LocalGet(int(i.Addr))
		}
		fc.b.Call(idx)
		fc.b.LocalSet(int(i.Dst))
		return nil
	}
	fc.b.LocalGet(int(i.Addr))
	fc.b.I32WrapI64()
	fc.b.I64Load()
	fc.b.LocalSet(int(i.Dst))
	return nil
}

func (fc *funcCompiler) lowerBinOp(i *cfg.BinOpInstr) error {
	if i.Unary {
		switch i.Op {
		case "!":
			fc.b.LocalGet(int(i.X))
			fc.b.I64Eqz()
			fc.b.I64ExtendI32S()
		case "-":
			fc.b.I64Const(0)
			fc.b.LocalGet(int(i.X))
			fc.b.I64Sub()
		case "~":
			fc.b.LocalGet(int(i.X))
			fc.b.I64Const(-1)
			fc.b.I64Xor()
		default:
			return fmt.Errorf("unhandled unary operator %q", i.Op)
		}
		fc.b.LocalSet(int(i.Dst))
		return nil
	}

	fc.b.LocalGet(int(i.X))
	fc.b.LocalGet(int(i.Y))
	switch i.Op {
	case "+":
		fc.b.I64Add()
	case "-":
		fc.b.I64Sub()
	case "*":
		fc.b.I64Mul()
	case "/":
		fc.b.I64DivS()
	case "%":
		fc.b.I64RemS()
	case "&":
		fc.b.I64And()
	case "|":
		fc.b.I64Or()
	case "^":
		fc.b.I64Xor()
	case "<<":
		fc.b.I64Shl()
	case ">>":
		fc.b.I64ShrS()
	case "==":
		fc.b.I64Eq()
	case "!=":
		fc.b.I64Ne()
	case "<":
		fc.b.I64LtS()
	case ">":
		fc.b.I64GtS()
	case "<=":
		fc.b.I64LeS()
	case ">=":
		fc.b.I64GeS()
	default:
		return fmt.Errorf("unhandled binary operator %q", i.Op)
	}
	if comparisonOps[i.Op] {
		fc.b.I64ExtendI32S()
	}
	fc.b.LocalSet(int(i.Dst))
	return nil
}

// lowerCast narrows or normalizes X into Dst. Every register is already an
// i64, so integer-to-integer casts are a no-op passthrough except for the
// narrowing mask below, and the cast to bool needs to normalize a nonzero
// value to exactly 1. Sign-extension for narrower signed types is not
// modeled: this compiler's register width is fixed at 64 bits regardless of
// the declared source width (see bigint.go), so a signed narrow-to-wide
// cast cannot recover a sign bit this repo never tracked in the first
// place.
//
// Fixed bytesN values use a different register convention from integers,
// by spec §4.2's explicit rule: "integers extend by zero on the high-order
// side and truncate on the low-order side; bytes extend by zero on the
// low-order side and truncate on the high-order side". An integer's value
// sits right-aligned in the low bits of the register (so narrowing masks
// off the high bits, keeping the low ones); a bytesN value sits
// left-aligned in the register's high bits instead (byte 0 always at bits
// 56-63), so narrowing a bytesM to a bytesN keeps the top N bytes already
// in place and zeroes the rest, and widening is a no-op since the low
// bytes are already zero. Casting between a bytesN and an integer of the
// same declared width (the only conversion spec §4.2 allows directly, a
// two-step cast otherwise) re-aligns the value between the two
// conventions with a shift. Registers wider than 8 bytes are clamped to 8
// the same way truncateToI64 already accepts only 64 bits of precision.
func (fc *funcCompiler) lowerCast(i *cfg.CastInstr) error {
	fromBytes, fromIsBytes := i.From.(types.Bytes)
	fc.b.LocalGet(int(i.X))
	switch t := i.To.(type) {
	case types.Bool:
		fc.b.I64Eqz()
		fc.b.I32Eqz()
		fc.b.I64ExtendI32S()
	case types.Uint:
		if fromIsBytes {
			fc.b.I64Const(64 - int64(byteRegisterWidth(fromBytes.N))*8)
			fc.b.I64ShrU()
		}
		if t.Width > 0 && t.Width < 64 {
			fc.b.I64Const((int64(1) << uint(t.Width)) - 1)
			fc.b.I64And()
		}
	case types.Int:
		if fromIsBytes {
			fc.b.I64Const(64 - int64(byteRegisterWidth(fromBytes.N))*8)
			fc.b.I64ShrU()
		}
	case types.Bytes:
		shift := 64 - int64(byteRegisterWidth(t.N))*8
		if !fromIsBytes {
			// integer -> bytes: move the right-aligned value up into the
			// left-aligned bytes position.
			fc.b.I64Const(shift)
			fc.b.I64Shl()
		} else if toWidth := byteRegisterWidth(t.N); toWidth < byteRegisterWidth(fromBytes.N) {
			// bytesM -> bytesN, N < M: the top N bytes are already in
			// place; zero the low (M-N) bytes that fall off the end.
			fc.b.I64Const(shift)
			fc.b.I64ShrU()
			fc.b.I64Const(shift)
			fc.b.I64Shl()
		}
		// bytesN -> bytesM widening is a no-op: the low bytes are
		// already zero in the left-aligned representation.
	}
	fc.b.LocalSet(int(i.Dst))
	return nil
}

// byteRegisterWidth clamps a fixed bytesN width to the 8 bytes this
// compiler's i64 registers can actually hold.
func byteRegisterWidth(n int) int {
	if n > 8 {
		return 8
	}
	return n
}

func (fc *funcCompiler) lowerCall(i *cfg.CallInstr) error {
	for _, a := range i.Args {
		fc.b.LocalGet(int(a))
	}
	idx, ok := fc.funcIdx[i.FunctionID]
	if !ok {
		return fmt.Errorf("no compiled function for function id %d", i.FunctionID)
	}
	fc.b.Call(idx)
	for k := len(i.Dst) - 1; k >= 0; k-- {
		fc.b.LocalSet(int(i.Dst[k]))
	}
	return nil
}

// lowerExternalCall stages Args into the scratch arena and calls the
// target's seal_call builtin with (targetAddress, selector, value,
// scratchPtr, argCount); only Dst[0] receives seal_call's single returned word, the
// rest (a multi-value external return this compiler does not model a real
// ABI decode for) are left at their zero value.
func (fc *funcCompiler) lowerExternalCall(i *cfg.ExternalCallInstr) error {
	for k, a := range i.Args {
		fc.b.I32Const(scratchBase + int32(k*8))
		fc.b.LocalGet(int(a))
		fc.b.I64Store()
	}
	idx, err := fc.hostCall("seal_call", []wasm.ValType{wasm.I64, wasm.I64, wasm.I64, wasm.I32, wasm.I64}, i64)
	if err != nil {
		return err
	}
	fc.b.LocalGet(int(i.Target))
	fc.b.I64Const(selectorToI64(i.Selector))
	fc.b.LocalGet(int(i.Value))
	fc.b.I32Const(scratchBase)
	fc.b.I64Const(int64(len(i.Args)))
	fc.b.Call(idx)
	if len(i.Dst) == 0 {
		fc.b.Drop()
		return nil
	}
	fc.b.LocalSet(int(i.Dst[0]))
	for _, d := range i.Dst[1:] {
		fc.b.I64Const(0)
		fc.b.LocalSet(int(d))
	}
	return nil
}

func (fc *funcCompiler) lowerEmit(i *cfg.EmitInstr) error {
	for k, a := range i.Args {
		fc.b.I32Const(scratchBase + int32(k*8))
		fc.b.LocalGet(int(a))
		fc.b.I64Store()
	}
	idx, err := fc.hostCall("emit_event", []wasm.ValType{wasm.I64, wasm.I32, wasm.I64}, noVals)
	if err != nil {
		return err
	}
	var topic int64
	if i.EventID >= 0 {
		topic = topicToI64(fc.eventTopic(i.EventID))
	}
	fc.b.I64Const(topic)
	fc.b.I32Const(scratchBase)
	fc.b.I64Const(int64(len(i.Args)))
	fc.b.Call(idx)
	return nil
}

func (fc *funcCompiler) lowerAbiEncode(i *cfg.AbiEncodeInstr) error {
	for k, a := range i.Args {
		fc.b.I32Const(scratchBase + int32(k*8))
		fc.b.LocalGet(int(a))
		fc.b.I64Store()
	}
	idx, err := fc.hostCall("abi_encode", []wasm.ValType{wasm.I32, wasm.I64}, i64)
	if err != nil {
		return err
	}
	fc.b.I32Const(scratchBase)
	fc.b.I64Const(int64(len(i.Args)))
	fc.b.Call(idx)
	fc.b.LocalSet(int(i.Dst))
	return nil
}

func (fc *funcCompiler) lowerAbiDecode(i *cfg.AbiDecodeInstr) error {
	idx, err := fc.hostCall("abi_decode", i64i64, i64)
	if err != nil {
		return err
	}
	for k, d := range i.Dst {
		fc.b.LocalGet(int(i.Data))
		fc.b.I64Const(int64(k))
		fc.b.Call(idx)
		fc.b.LocalSet(int(d))
	}
	return nil
}

func (fc *funcCompiler) lowerKeccak(i *cfg.KeccakInstr) error {
	idx, err := fc.hostCall("keccak256", i64, i64)
	if err != nil {
		return err
	}
	fc.b.LocalGet(int(i.Data))
	fc.b.Call(idx)
	fc.b.LocalSet(int(i.Dst))
	return nil
}

func (fc *funcCompiler) lowerAllocDynamic(i *cfg.AllocDynamicInstr) error {
	idx, err := fc.hostCall("alloc_dynamic", i64, i64)
	if err != nil {
		return err
	}
	fc.b.LocalGet(int(i.Len))
	fc.b.Call(idx)
	fc.b.LocalSet(int(i.Dst))
	return nil
}

func (fc *funcCompiler) lowerAssertFailure(i *cfg.AssertFailureInstr) error {
	ptr, length := fc.intern([]byte(i.Reason))
	idx, err := fc.hostCall("revert", []wasm.ValType{wasm.I32, wasm.I32}, noVals)
	if err != nil {
		return err
	}
	fc.b.I32Const(ptr)
	fc.b.I32Const(length)
	fc.b.Call(idx)
	return nil
}

func selectorToI64(sel [4]byte) int64 {
	var buf [8]byte
	copy(buf[4:], sel[:])
	return int64(binary.BigEndian.Uint64(buf[:]))
}

func topicToI64(topic [32]byte) int64 {
	return int64(binary.BigEndian.Uint64(topic[:8]))
}

// eventTopic reads an event's Topic0 back off the Namespace; Compile
// (codegen.go) runs FinalizeSelectors before lowering any function body,
// so by the time lowerEmit calls this every event already has its real
// hash rather than a zero value.
func (fc *funcCompiler) eventTopic(eventID int) [32]byte {
	return fc.ns.Events[eventID].Topic0
}
