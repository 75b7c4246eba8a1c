package optimizer

import (
	"math/big"
	"testing"

	"github.com/mickey951112/solang/internal/cfg"
	"github.com/mickey951112/solang/internal/types"
)

func intOp(v int64) cfg.Operand { return cfg.IntOperand(big.NewInt(v)) }

func TestConstantFoldsArithmetic(t *testing.T) {
	g := &cfg.CFG{Entry: 0}
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.SetInstr{Dst: 0, Value: intOp(2)},
		&cfg.SetInstr{Dst: 1, Value: intOp(3)},
		&cfg.BinOpInstr{Dst: 2, Op: "+", X: 0, Y: 1},
	}
	b.Term = &cfg.ReturnTerm{Values: []cfg.Reg{2}}
	g.Blocks = []*cfg.Block{b}

	if !ConstantFold(g) {
		t.Fatalf("expected ConstantFold to report a change")
	}
	set, ok := b.Instrs[2].(*cfg.SetInstr)
	if !ok {
		t.Fatalf("expected instruction 2 to become a Set, got %T", b.Instrs[2])
	}
	if set.Value.Kind != cfg.OperandInt || set.Value.Int.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected folded value 5, got %v", set.Value)
	}
}

func TestConstantFoldsComparison(t *testing.T) {
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.SetInstr{Dst: 0, Value: intOp(5)},
		&cfg.SetInstr{Dst: 1, Value: intOp(7)},
		&cfg.BinOpInstr{Dst: 2, Op: "<", X: 0, Y: 1},
	}
	b.Term = &cfg.ReturnTerm{Values: []cfg.Reg{2}}
	g := &cfg.CFG{Entry: 0, Blocks: []*cfg.Block{b}}

	ConstantFold(g)
	set, ok := b.Instrs[2].(*cfg.SetInstr)
	if !ok || set.Value.Kind != cfg.OperandBool || !set.Value.Bool {
		t.Fatalf("expected folded comparison true, got %v", b.Instrs[2])
	}
}

func TestStrengthReducesMultiplyByPowerOfTwo(t *testing.T) {
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.SetInstr{Dst: 0, Value: intOp(8)},
		&cfg.BinOpInstr{Dst: 1, Op: "*", X: 2, Y: 0},
	}
	b.Term = &cfg.ReturnTerm{Values: []cfg.Reg{1}}
	g := &cfg.CFG{Entry: 0, Blocks: []*cfg.Block{b}, NumRegs: 3}

	if !StrengthReduce(g) {
		t.Fatalf("expected StrengthReduce to report a change")
	}
	var sawShift bool
	for _, in := range b.Instrs {
		if bop, ok := in.(*cfg.BinOpInstr); ok && bop.Op == "<<" {
			sawShift = true
		}
	}
	if !sawShift {
		t.Fatalf("expected multiply by 8 to become a left shift, instrs: %v", b.Instrs)
	}
}

func TestStrengthReducesModuloByPowerOfTwo(t *testing.T) {
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.SetInstr{Dst: 0, Value: intOp(16)},
		&cfg.BinOpInstr{Dst: 1, Op: "%", X: 2, Y: 0},
	}
	b.Term = &cfg.ReturnTerm{Values: []cfg.Reg{1}}
	g := &cfg.CFG{Entry: 0, Blocks: []*cfg.Block{b}, NumRegs: 3}

	StrengthReduce(g)
	var sawMask bool
	for _, in := range b.Instrs {
		if bop, ok := in.(*cfg.BinOpInstr); ok && bop.Op == "&" {
			sawMask = true
		}
	}
	if !sawMask {
		t.Fatalf("expected modulo by 16 to become a mask, instrs: %v", b.Instrs)
	}
}

func TestCSEDeduplicatesWithinBlock(t *testing.T) {
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.BinOpInstr{Dst: 2, Op: "+", X: 0, Y: 1},
		&cfg.BinOpInstr{Dst: 3, Op: "+", X: 0, Y: 1},
	}
	b.Term = &cfg.ReturnTerm{Values: []cfg.Reg{2, 3}}
	g := &cfg.CFG{Entry: 0, Blocks: []*cfg.Block{b}}

	if !CSE(g) {
		t.Fatalf("expected CSE to report a change")
	}
	set, ok := b.Instrs[1].(*cfg.SetInstr)
	if !ok || set.Value.Kind != cfg.OperandReg || set.Value.Reg != 2 {
		t.Fatalf("expected second BinOp replaced by a copy of r2, got %v", b.Instrs[1])
	}
}

func TestCSEInvalidatesOnOperandRewrite(t *testing.T) {
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.BinOpInstr{Dst: 2, Op: "+", X: 0, Y: 1},
		&cfg.SetInstr{Dst: 0, Value: intOp(9)},
		&cfg.BinOpInstr{Dst: 3, Op: "+", X: 0, Y: 1},
	}
	b.Term = &cfg.ReturnTerm{Values: []cfg.Reg{2, 3}}
	g := &cfg.CFG{Entry: 0, Blocks: []*cfg.Block{b}}

	CSE(g)
	if _, ok := b.Instrs[2].(*cfg.BinOpInstr); !ok {
		t.Fatalf("expected the second BinOp to survive since r0 was rewritten in between, got %T", b.Instrs[2])
	}
}

func TestVectorToSliceBypassesSingleUseAllocation(t *testing.T) {
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.AllocDynamicInstr{Dst: 0, ElemType: types.Uint{Width: 256}, Len: 1},
		&cfg.StoreInstr{Area: cfg.AreaMemory, Addr: 0, Value: 2},
		&cfg.LoadInstr{Dst: 3, Area: cfg.AreaMemory, Addr: 0},
	}
	b.Term = &cfg.ReturnTerm{Values: []cfg.Reg{3}}
	g := &cfg.CFG{Entry: 0, Blocks: []*cfg.Block{b}}

	if !VectorToSlice(g) {
		t.Fatalf("expected VectorToSlice to report a change")
	}
	if len(b.Instrs) != 1 {
		t.Fatalf("expected alloc+store to be dropped and load rewritten, got %d instrs: %v", len(b.Instrs), b.Instrs)
	}
	set, ok := b.Instrs[0].(*cfg.SetInstr)
	if !ok || set.Dst != 3 || set.Value.Kind != cfg.OperandReg || set.Value.Reg != 2 {
		t.Fatalf("expected r3 = r2 after folding, got %v", b.Instrs[0])
	}
}

func TestVectorToSliceLeavesMultiplyWrittenAllocationAlone(t *testing.T) {
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.AllocDynamicInstr{Dst: 0, ElemType: types.Uint{Width: 256}, Len: 2},
		&cfg.StoreInstr{Area: cfg.AreaMemory, Addr: 0, Value: 2},
		&cfg.StoreInstr{Area: cfg.AreaMemory, Addr: 0, Value: 3},
		&cfg.LoadInstr{Dst: 4, Area: cfg.AreaMemory, Addr: 0},
	}
	b.Term = &cfg.ReturnTerm{Values: []cfg.Reg{4}}
	g := &cfg.CFG{Entry: 0, Blocks: []*cfg.Block{b}}

	VectorToSlice(g)
	if len(b.Instrs) != 4 {
		t.Fatalf("expected a doubly-written allocation to be left untouched, got %d instrs", len(b.Instrs))
	}
}

func TestDeadStorageEliminationDropsOverwrittenWrite(t *testing.T) {
	slot := types.Slot{Index: 0, Offset: 0, Size: 32}
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.StoreInstr{Area: cfg.AreaStorage, Slot: slot, Value: 0},
		&cfg.StoreInstr{Area: cfg.AreaStorage, Slot: slot, Value: 1},
	}
	b.Term = &cfg.ReturnTerm{}
	g := &cfg.CFG{Entry: 0, Blocks: []*cfg.Block{b}}

	if !DeadStorageElimination(g) {
		t.Fatalf("expected DeadStorageElimination to report a change")
	}
	if len(b.Instrs) != 1 {
		t.Fatalf("expected the first store to be dropped, got %d instrs", len(b.Instrs))
	}
}

func TestDeadStorageEliminationKeepsWriteReadBeforeOverwrite(t *testing.T) {
	slot := types.Slot{Index: 0, Offset: 0, Size: 32}
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.StoreInstr{Area: cfg.AreaStorage, Slot: slot, Value: 0},
		&cfg.LoadInstr{Dst: 5, Area: cfg.AreaStorage, Slot: slot},
		&cfg.StoreInstr{Area: cfg.AreaStorage, Slot: slot, Value: 1},
	}
	b.Term = &cfg.ReturnTerm{}
	g := &cfg.CFG{Entry: 0, Blocks: []*cfg.Block{b}}

	DeadStorageElimination(g)
	if len(b.Instrs) != 3 {
		t.Fatalf("expected the read between writes to keep both stores, got %d instrs", len(b.Instrs))
	}
}

func TestRunConvergesWithoutHanging(t *testing.T) {
	b := &cfg.Block{Label: 0}
	b.Instrs = []cfg.Instr{
		&cfg.SetInstr{Dst: 0, Value: intOp(4)},
		&cfg.SetInstr{Dst: 1, Value: intOp(8)},
		&cfg.BinOpInstr{Dst: 2, Op: "*", X: 1, Y: 0},
	}
	b.Term = &cfg.ReturnTerm{Values: []cfg.Reg{2}}
	g := &cfg.CFG{Entry: 0, Blocks: []*cfg.Block{b}, NumRegs: 3}

	Run(g, Options{})
	set, ok := b.Instrs[len(b.Instrs)-1].(*cfg.SetInstr)
	if !ok || set.Value.Kind != cfg.OperandInt || set.Value.Int.Cmp(big.NewInt(32)) != 0 {
		t.Fatalf("expected 4*8 to fully fold to 32 after the pipeline runs, got %v", b.Instrs)
	}
}
