package sema

import (
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/source"
	"github.com/mickey951112/solang/internal/types"
)

// candidatesByName returns every function entity named name visible from
// contractID's linearized base list (every overload, not just the first
// match FindMember would give).
func (ns *Namespace) candidatesByName(contractID int, name string) []*FunctionEntity {
	c := ns.Contracts[contractID]
	var out []*FunctionEntity
	for _, baseID := range c.Linearized {
		base := ns.Contracts[baseID]
		for _, fid := range base.Functions {
			if ns.Functions[fid].Name == name {
				out = append(out, ns.Functions[fid])
			}
		}
	}
	return out
}

// ResolveOverload picks the best candidate for a call with the given
// argument types, using the two tiebreaks spec §3.3 names: fewest
// implicit conversions needed, then narrowest parameter type on a tie. It
// reports ErrNoOverloadMatch or ErrAmbiguousOverload to bag and returns
// nil if no single best candidate exists.
func ResolveOverload(bag *diag.Bag, sp source.Span, name string, candidates []*FunctionEntity, argTypes []types.Type, paramType func(*FunctionEntity, int) types.Type, paramCount func(*FunctionEntity) int) *FunctionEntity {
	type scored struct {
		fn    *FunctionEntity
		convs int
	}
	var matches []scored
	for _, fn := range candidates {
		if paramCount(fn) != len(argTypes) {
			continue
		}
		convs := 0
		ok := true
		for i, at := range argTypes {
			pt := paramType(fn, i)
			if at == nil || pt == nil {
				continue
			}
			switch types.Classify(at, pt) {
			case types.ConvIdentity:
			case types.ConvImplicit:
				convs++
			default:
				ok = false
			}
		}
		if ok {
			matches = append(matches, scored{fn, convs})
		}
	}
	if len(matches) == 0 {
		bag.Errorf(diag.ErrNoOverloadMatch, sp, "no overload of %q matches the given argument types", name)
		return nil
	}
	best := matches[0]
	ambiguous := false
	for _, m := range matches[1:] {
		if m.convs < best.convs {
			best = m
			ambiguous = false
		} else if m.convs == best.convs {
			tieBest := narrowerParams(best.fn, m.fn, paramType, paramCount)
			if tieBest == 0 {
				ambiguous = true
			} else if tieBest < 0 {
				best = m
			}
		}
	}
	if ambiguous {
		bag.Errorf(diag.ErrAmbiguousOverload, sp, "call to %q is ambiguous among %d equally-good overloads", name, len(matches))
		return nil
	}
	return best.fn
}

// narrowerParams breaks a tie between two equally-converting candidates by
// total parameter bit width, the narrowest-parameter rule spec §3.3
// names; returns -1 if b is narrower, 1 if a is narrower, 0 if equal.
func narrowerParams(a, b *FunctionEntity, paramType func(*FunctionEntity, int) types.Type, paramCount func(*FunctionEntity) int) int {
	aw, bw := 0, 0
	for i := 0; i < paramCount(a); i++ {
		aw += typeWidth(paramType(a, i))
	}
	for i := 0; i < paramCount(b); i++ {
		bw += typeWidth(paramType(b, i))
	}
	switch {
	case aw < bw:
		return 1
	case bw < aw:
		return -1
	default:
		return 0
	}
}

func typeWidth(t types.Type) int {
	switch v := t.(type) {
	case types.Uint:
		return v.Width
	case types.Int:
		return v.Width
	case types.Bytes:
		return v.N * 8
	default:
		return 256
	}
}
