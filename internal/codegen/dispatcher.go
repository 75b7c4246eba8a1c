package codegen

import (
	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/sema"
	"github.com/mickey951112/solang/internal/target"
	"github.com/mickey951112/solang/internal/types"
)

// SelectorEntry is one row of a contract's external dispatch table: the
// function the target's Selector hash routes a message call to.
type SelectorEntry struct {
	FunctionID int
	Name       string
	Signature  string
	Selector   [4]byte
}

// FinalizeSelectors computes every external/public function's selector and
// every event's topic against tgt, writing them back onto the Namespace
// entities (spec §4.5's dispatcher needs them there, and the ABI JSON
// internal/artifact emits reads them from the same place) and returning the
// ordered dispatch table for the contract's entry point.
func FinalizeSelectors(contract *sema.ContractEntity, ns *sema.Namespace, tgt target.Target, bag *diag.Bag) []SelectorEntry {
	var table []SelectorEntry
	seenFn := map[string]bool{}
	bySelector := map[[4]byte]string{}
	for _, baseID := range contract.Linearized {
		base := ns.Contracts[baseID]
		for _, fid := range base.Functions {
			fn := ns.Functions[fid]
			if fn.Kind != ast.FuncKindFunction {
				continue
			}
			if fn.Visibility != ast.VisPublic && fn.Visibility != ast.VisExternal {
				continue
			}
			sig := CanonicalSignature(fn.Name, paramTypes(ns, fn.Params))
			if seenFn[sig] {
				continue
			}
			seenFn[sig] = true
			fn.Selector = tgt.Selector(sig)
			if other, collide := bySelector[fn.Selector]; collide && other != fn.Name {
				bag.Errorf(diag.ErrSelectorCollision, fn.Decl.Span(), "function %q's selector collides with %q's (both hash to %x)", fn.Name, other, fn.Selector)
			} else {
				bySelector[fn.Selector] = fn.Name
			}
			table = append(table, SelectorEntry{
				FunctionID: fn.ID,
				Name:       fn.Name,
				Signature:  sig,
				Selector:   fn.Selector,
			})
		}
	}
	for _, baseID := range contract.Linearized {
		base := ns.Contracts[baseID]
		for _, eid := range base.Events {
			ev := ns.Events[eid]
			if ev.Anonymous {
				continue
			}
			sig := CanonicalSignature(ev.Name, ev.ParamTypes)
			ev.Topic0 = tgt.Topic0(sig)
		}
	}
	for _, baseID := range contract.Linearized {
		base := ns.Contracts[baseID]
		for _, eid := range base.Errors {
			errEnt := ns.Errors[eid]
			sig := CanonicalSignature(errEnt.Name, errEnt.ParamTypes)
			errEnt.Selector = tgt.Selector(sig)
		}
	}
	return table
}

func paramTypes(ns *sema.Namespace, ids []int) []types.Type {
	out := make([]types.Type, len(ids))
	for i, id := range ids {
		out[i] = ns.Variables[id].Type
	}
	return out
}
