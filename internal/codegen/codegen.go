package codegen

import (
	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/cfg"
	"github.com/mickey951112/solang/internal/codegen/wasm"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/optimizer"
	"github.com/mickey951112/solang/internal/sema"
	"github.com/mickey951112/solang/internal/source"
	"github.com/mickey951112/solang/internal/target"
)

// Artifact is everything one deployable contract compiles down to: the
// encoded module, its dispatch table, and its storage layout, together
// enough for internal/artifact to assemble a self-describing build output.
type Artifact struct {
	ContractName string
	Module       *wasm.Module
	Dispatch     []SelectorEntry
	Layout       *Layout
}

// Compile lowers every deployable contract in ns (every ContractEntity that
// is not an interface or library, since neither is ever instantiated on its
// own) into an Artifact, running each function's CFG through
// internal/optimizer before lowering it, parameterized throughout by tgt.
// Diagnostics for anything that goes wrong (an instruction or builtin tgt
// cannot lower) are appended to bag under GEN-series codes; a contract that
// fails to compile is simply omitted from the result rather than aborting
// the rest of the batch, the same best-effort stance internal/sema's own
// ResolveFiles takes on a per-declaration basis.
func Compile(ns *sema.Namespace, res *sema.Result, bag *diag.Bag, tgt target.Target, opts optimizer.Options) []*Artifact {
	var out []*Artifact
	for _, contract := range ns.Contracts {
		if contract.Kind == ast.ContractKindInterface || contract.Kind == ast.ContractKindLibrary {
			continue
		}
		art, ok := compileContract(contract, ns, res, bag, tgt, opts)
		if ok {
			out = append(out, art)
		}
	}
	return out
}

func compileContract(contract *sema.ContractEntity, ns *sema.Namespace, res *sema.Result, bag *diag.Bag, tgt target.Target, opts optimizer.Options) (*Artifact, bool) {
	dispatch := FinalizeSelectors(contract, ns, tgt, bag)
	layout := BuildLayout(contract, ns, tgt)

	mod := &wasm.Module{MemoryPages: 2}
	funcIdx := map[int]int{}
	mctx := newModuleCtx(tgt, ns, mod, funcIdx)
	registerBuiltins(mctx)

	var fns []*sema.FunctionEntity
	var cfgs []*cfg.CFG

	// Unlike FinalizeSelectors' walk of the same Linearized list, this one
	// does not dedup by signature: a base's overridden function is still a
	// distinct FunctionEntity a CallInstr can name directly (an explicit
	// super.foo() call, or a derived override's own body), so every
	// function with a body gets its own compiled wasm function regardless
	// of whether its signature is shadowed in the external dispatch table.
	for _, baseID := range contract.Linearized {
		base := ns.Contracts[baseID]
		for _, fid := range base.Functions {
			fn := ns.Functions[fid]
			if !fn.HasBody {
				continue
			}
			g := cfg.Build(fn, ns, res, bag)
			if g == nil {
				continue
			}
			optimizer.Run(g, opts)
			funcIdx[fn.ID] = mod.FuncIndex(len(cfgs))
			fns = append(fns, fn)
			cfgs = append(cfgs, g)
		}
	}

	ok := true
	for i, g := range cfgs {
		fn := fns[i]
		wf, err := lowerFunction(fn, g, mctx)
		if err != nil {
			bag.Errorf(diag.ErrInternal, source.Span{}, "%s.%s: %v", contract.Name, fn.Name, err)
			ok = false
			continue
		}
		mod.Functions = append(mod.Functions, wf)
	}
	if !ok {
		return nil, false
	}

	return &Artifact{
		ContractName: contract.Name,
		Module:       mod,
		Dispatch:     dispatch,
		Layout:       layout,
	}, true
}
