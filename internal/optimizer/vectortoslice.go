package optimizer

import "github.com/mickey951112/solang/internal/cfg"

// VectorToSlice implements spec §4.4's "vector-to-slice" pass for the one
// pattern the CFG's instruction set makes syntactically visible: a dynamic
// array allocated, filled once, and read back once with nothing else
// touching the allocation in between. That sequence is exactly "a
// temporary array literal feeding an immediate load" — the allocation and
// its single fill are redundant, so the pass drops the Alloc/Store pair and
// rewrites the Load as a direct copy of the value that was about to be
// stored.
func VectorToSlice(g *cfg.CFG) bool {
	changed := false
	for _, b := range g.Blocks {
		allocAt := map[cfg.Reg]int{}
		storeAt := map[cfg.Reg]int{}
		fillValue := map[cfg.Reg]cfg.Reg{}
		multiWrite := map[cfg.Reg]bool{}
		loadAt := map[cfg.Reg]int{}

		for i, in := range b.Instrs {
			switch ins := in.(type) {
			case *cfg.AllocDynamicInstr:
				allocAt[ins.Dst] = i
			case *cfg.StoreInstr:
				if _, ok := allocAt[ins.Addr]; ok {
					if _, already := storeAt[ins.Addr]; already {
						multiWrite[ins.Addr] = true
					} else {
						storeAt[ins.Addr] = i
						fillValue[ins.Addr] = ins.Value
					}
				}
			case *cfg.LoadInstr:
				if _, ok := allocAt[ins.Addr]; ok {
					if _, already := loadAt[ins.Addr]; already {
						multiWrite[ins.Addr] = true
					} else {
						loadAt[ins.Addr] = i
					}
				}
			}
		}

		drop := map[int]bool{}
		rewriteLoad := map[int]cfg.Reg{} // instruction index -> Set source reg
		for addr, ai := range allocAt {
			si, hasStore := storeAt[addr]
			li, hasLoad := loadAt[addr]
			if multiWrite[addr] || !hasStore || !hasLoad {
				continue
			}
			drop[ai] = true
			drop[si] = true
			rewriteLoad[li] = fillValue[addr]
		}
		if len(drop) == 0 {
			continue
		}
		out := make([]cfg.Instr, 0, len(b.Instrs))
		for i, in := range b.Instrs {
			if drop[i] {
				continue
			}
			if src, ok := rewriteLoad[i]; ok {
				ld := in.(*cfg.LoadInstr)
				out = append(out, &cfg.SetInstr{Dst: ld.Dst, Value: cfg.RegOperand(src)})
				continue
			}
			out = append(out, in)
		}
		b.Instrs = out
		changed = true
	}
	return changed
}
