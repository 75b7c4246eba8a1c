package optimizer

import (
	"github.com/mickey951112/solang/internal/cfg"
	"github.com/mickey951112/solang/internal/types"
)

// DeadStorageElimination drops a storage write that is overwritten by a
// later write to the same slot before anything reads it in between (spec
// §4.4: "overwritten on every path before any read"). This pass only
// tracks straight-line sequences within a single block — the same
// restriction CSE's cross-block extension notes as the cheap case — rather
// than running a full path-sensitive dataflow analysis over the whole CFG;
// a write whose only later write to the same slot is on one branch of an
// if, with a read on the other, is conservatively kept.
func DeadStorageElimination(g *cfg.CFG) bool {
	changed := false
	for _, b := range g.Blocks {
		lastWrite := map[slotKey]int{}
		drop := map[int]bool{}
		for i, in := range b.Instrs {
			switch ins := in.(type) {
			case *cfg.LoadInstr:
				if ins.Area == cfg.AreaStorage {
					delete(lastWrite, slotKeyOf(ins.Slot, ins.Addr))
				}
			case *cfg.StoreInstr:
				if ins.Area == cfg.AreaStorage {
					k := slotKeyOf(ins.Slot, ins.Addr)
					if prev, ok := lastWrite[k]; ok {
						drop[prev] = true
					}
					lastWrite[k] = i
				}
			case *cfg.CallInstr, *cfg.ExternalCallInstr:
				// A call may read or write arbitrary storage through
				// reentrancy; conservatively forget every tracked slot.
				lastWrite = map[slotKey]int{}
			}
		}
		if len(drop) == 0 {
			continue
		}
		out := make([]cfg.Instr, 0, len(b.Instrs))
		for i, in := range b.Instrs {
			if drop[i] {
				continue
			}
			out = append(out, in)
		}
		b.Instrs = out
		changed = true
	}
	return changed
}

// slotKey identifies a storage location: either a static (index, offset)
// pair for a plain state variable or a computed-address register for a
// mapping/array element.
type slotKey struct {
	index, offset int
	addr          cfg.Reg
	computed      bool
}

func slotKeyOf(slot types.Slot, addr cfg.Reg) slotKey {
	if addr != 0 {
		return slotKey{addr: addr, computed: true}
	}
	return slotKey{index: slot.Index, offset: slot.Offset}
}
