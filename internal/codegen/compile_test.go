package codegen

import (
	"math/big"
	"testing"

	"github.com/mickey951112/solang/internal/cfg"
	"github.com/mickey951112/solang/internal/codegen/wasm"
	"github.com/mickey951112/solang/internal/sema"
	"github.com/mickey951112/solang/internal/target"
	"github.com/mickey951112/solang/internal/types"
)

func newCtx(tgt target.Target) *moduleCtx {
	return newModuleCtx(tgt, sema.NewNamespace(), &wasm.Module{}, map[int]int{})
}

func bigOne() *big.Int  { return big.NewInt(1) }
func bigZero() *big.Int { return big.NewInt(0) }

// addReturnsXY builds a one-block, three-register function: return x+y.
func addReturnsXY() *cfg.CFG {
	entry := cfg.Label(0)
	return &cfg.CFG{
		FunctionName: "add",
		Params:       []cfg.Reg{0, 1},
		Returns:      []cfg.Reg{2},
		Entry:        entry,
		NumRegs:      3,
		Blocks: []*cfg.Block{
			{
				Label: entry,
				Instrs: []cfg.Instr{
					&cfg.BinOpInstr{Dst: 2, Op: "+", X: 0, Y: 1},
				},
				Term: &cfg.ReturnTerm{Values: []cfg.Reg{2}},
			},
		},
	}
}

func TestLowerFunctionAddReturnsExpectedSignature(t *testing.T) {
	mctx := newCtx(target.NewEthereum())
	fn := &sema.FunctionEntity{ID: 1, Name: "add"}
	wf, err := lowerFunction(fn, addReturnsXY(), mctx)
	if err != nil {
		t.Fatalf("lowerFunction() error = %v", err)
	}
	if len(wf.Type.Params) != 2 || wf.Type.Params[0] != wasm.I64 || wf.Type.Params[1] != wasm.I64 {
		t.Fatalf("Type.Params = %v, want two i64 params", wf.Type.Params)
	}
	if len(wf.Type.Results) != 1 || wf.Type.Results[0] != wasm.I64 {
		t.Fatalf("Type.Results = %v, want one i64 result", wf.Type.Results)
	}
	// One extra i64 local for r2, plus the trailing i32 pc local.
	if len(wf.Locals) != 2 {
		t.Fatalf("Locals = %v, want [i64 i32]", wf.Locals)
	}
	if wf.Locals[0] != wasm.I64 || wf.Locals[1] != wasm.I32 {
		t.Fatalf("Locals = %v, want [i64 i32]", wf.Locals)
	}
	if len(wf.Body) == 0 {
		t.Fatalf("Body is empty")
	}
}

// branchingCFG builds: entry checks cond register, branches to either block
// that returns a different constant.
func branchingCFG() *cfg.CFG {
	entry, onTrue, onFalse := cfg.Label(0), cfg.Label(1), cfg.Label(2)
	return &cfg.CFG{
		FunctionName: "pick",
		Params:       []cfg.Reg{0},
		Returns:      []cfg.Reg{1},
		Entry:        entry,
		NumRegs:      2,
		Blocks: []*cfg.Block{
			{Label: entry, Term: &cfg.CondBranchTerm{Cond: 0, True: onTrue, False: onFalse}},
			{
				Label:  onTrue,
				Instrs: []cfg.Instr{&cfg.SetInstr{Dst: 1, Value: cfg.IntOperand(bigOne())}},
				Term:   &cfg.ReturnTerm{Values: []cfg.Reg{1}},
			},
			{
				Label:  onFalse,
				Instrs: []cfg.Instr{&cfg.SetInstr{Dst: 1, Value: cfg.IntOperand(bigZero())}},
				Term:   &cfg.ReturnTerm{Values: []cfg.Reg{1}},
			},
		},
	}
}

func TestLowerFunctionBranchingProducesOneChainPerBlock(t *testing.T) {
	mctx := newCtx(target.NewEthereum())
	fn := &sema.FunctionEntity{ID: 2, Name: "pick"}
	wf, err := lowerFunction(fn, branchingCFG(), mctx)
	if err != nil {
		t.Fatalf("lowerFunction() error = %v", err)
	}
	if len(wf.Body) == 0 {
		t.Fatalf("Body is empty")
	}
	// Three blocks means three "pc == chain" dispatch checks; each check is
	// LocalGet(pc) I32Const(chain) I32Eq If, a fixed 5+ byte-op sequence, so
	// a branching function's body must be strictly longer than a single
	// straight-line block's.
	straight, err := lowerFunction(&sema.FunctionEntity{ID: 3, Name: "add"}, addReturnsXY(), newCtx(target.NewEthereum()))
	if err != nil {
		t.Fatalf("lowerFunction() error = %v", err)
	}
	if len(wf.Body) <= len(straight.Body) {
		t.Fatalf("branching body len = %d, want > straight-line body len %d", len(wf.Body), len(straight.Body))
	}
}

func TestRegisterBuiltinsIsIdempotentAndStable(t *testing.T) {
	mctx := newCtx(target.NewEthereum())
	registerBuiltins(mctx)
	firstCount := len(mctx.mod.Imports)
	if firstCount == 0 {
		t.Fatalf("registerBuiltins() registered no imports")
	}
	firstCaller := mctx.hostIdx["caller"]

	registerBuiltins(mctx)
	if len(mctx.mod.Imports) != firstCount {
		t.Fatalf("second registerBuiltins() call grew Imports from %d to %d", firstCount, len(mctx.mod.Imports))
	}
	if mctx.hostIdx["caller"] != firstCaller {
		t.Fatalf("caller import index changed from %d to %d across calls", firstCaller, mctx.hostIdx["caller"])
	}
}

func TestHostCallRejectsUnknownBuiltin(t *testing.T) {
	mctx := newCtx(target.NewEthereum())
	if _, err := mctx.hostCall("not_a_real_builtin", noVals, i64); err == nil {
		t.Fatalf("hostCall() for an unregistered builtin name = nil error, want an error")
	}
}

func TestInternAssignsSequentialAddresses(t *testing.T) {
	mctx := newCtx(target.NewEthereum())
	p1, l1 := mctx.intern([]byte("hello"))
	p2, l2 := mctx.intern([]byte("world!"))
	if p1 != 0 || l1 != 5 {
		t.Fatalf("first intern() = (%d, %d), want (0, 5)", p1, l1)
	}
	if p2 != 5 || l2 != 6 {
		t.Fatalf("second intern() = (%d, %d), want (5, 6)", p2, l2)
	}
	if len(mctx.mod.Data) != 2 {
		t.Fatalf("Data segments = %d, want 2", len(mctx.mod.Data))
	}
}

func TestFuncIndexAssignmentSurvivesLaterBuiltinRegistration(t *testing.T) {
	mod := &wasm.Module{}
	mctx := newModuleCtx(target.NewEthereum(), sema.NewNamespace(), mod, map[int]int{})
	registerBuiltins(mctx)

	// A function is assigned its index right after registerBuiltins, before
	// any body is lowered.
	idx := mod.FuncIndex(0)

	fn := &sema.FunctionEntity{ID: 4, Name: "f"}
	if _, err := lowerFunction(fn, addReturnsXY(), mctx); err != nil {
		t.Fatalf("lowerFunction() error = %v", err)
	}
	// hostCall is idempotent for names already registered, so lowering a
	// body that only uses already-known builtins must not grow Imports and
	// must not invalidate idx.
	if mod.FuncIndex(0) != idx {
		t.Fatalf("FuncIndex(0) changed from %d to %d after lowering a function body", idx, mod.FuncIndex(0))
	}
}

func TestLowerCastBoolNormalizesNonzero(t *testing.T) {
	mctx := newCtx(target.NewEthereum())
	fc := &funcCompiler{moduleCtx: mctx, g: &cfg.CFG{}, chainOf: map[cfg.Label]int32{}, b: wasm.NewBuilder()}
	if err := fc.lowerCast(&cfg.CastInstr{Dst: 1, X: 0, From: types.Uint{Width: 256}, To: types.Bool{}}); err != nil {
		t.Fatalf("lowerCast() error = %v", err)
	}
	if len(fc.b.Bytes()) == 0 {
		t.Fatalf("lowerCast() emitted no bytes")
	}
}

func TestLowerCastMasksNarrowUint(t *testing.T) {
	mctx := newCtx(target.NewEthereum())
	fc := &funcCompiler{moduleCtx: mctx, g: &cfg.CFG{}, chainOf: map[cfg.Label]int32{}, b: wasm.NewBuilder()}
	if err := fc.lowerCast(&cfg.CastInstr{Dst: 1, X: 0, From: types.Uint{Width: 256}, To: types.Uint{Width: 8}}); err != nil {
		t.Fatalf("lowerCast() error = %v", err)
	}
	maskedBytes := fc.b.Bytes()

	mctx2 := newCtx(target.NewEthereum())
	fc2 := &funcCompiler{moduleCtx: mctx2, g: &cfg.CFG{}, chainOf: map[cfg.Label]int32{}, b: wasm.NewBuilder()}
	if err := fc2.lowerCast(&cfg.CastInstr{Dst: 1, X: 0, From: types.Uint{Width: 256}, To: types.Uint{Width: 256}}); err != nil {
		t.Fatalf("lowerCast() error = %v", err)
	}
	passthroughBytes := fc2.b.Bytes()

	if len(maskedBytes) <= len(passthroughBytes) {
		t.Fatalf("narrowing cast emitted %d bytes, want more than a same-width passthrough's %d", len(maskedBytes), len(passthroughBytes))
	}
}

func TestSelectorToI64ZeroPadsIntoLowBytes(t *testing.T) {
	sel := [4]byte{0xAA, 0xBB, 0xCC, 0xDD}
	got := selectorToI64(sel)
	want := int64(0xAABBCCDD)
	if got != want {
		t.Fatalf("selectorToI64(%x) = %#x, want %#x", sel, got, want)
	}
}

func TestTopicToI64ReadsLeadingEightBytes(t *testing.T) {
	var topic [32]byte
	copy(topic[:], []byte{0, 0, 0, 0, 0, 0, 0, 1})
	if got := topicToI64(topic); got != 1 {
		t.Fatalf("topicToI64() = %d, want 1", got)
	}
}

func TestPushBuiltinResolvesKnownMemberNames(t *testing.T) {
	mctx := newCtx(target.NewEthereum())
	fc := &funcCompiler{moduleCtx: mctx, g: &cfg.CFG{}, chainOf: map[cfg.Label]int32{}, b: wasm.NewBuilder()}
	if err := fc.pushBuiltin("msg.sender"); err != nil {
		t.Fatalf("pushBuiltin(%q) error = %v", "msg.sender", err)
	}
	if _, ok := mctx.hostIdx["caller"]; !ok {
		t.Fatalf("pushBuiltin(%q) did not register the caller host import", "msg.sender")
	}
}

func TestPushBuiltinRejectsUnknownName(t *testing.T) {
	mctx := newCtx(target.NewEthereum())
	fc := &funcCompiler{moduleCtx: mctx, g: &cfg.CFG{}, chainOf: map[cfg.Label]int32{}, b: wasm.NewBuilder()}
	if err := fc.pushBuiltin("not.a.real.builtin"); err == nil {
		t.Fatalf("pushBuiltin() for an unknown name = nil error, want an error")
	}
}
