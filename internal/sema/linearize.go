package sema

import (
	"github.com/mickey951112/solang/internal/diag"
)

// linearize computes the C3 linearization of contractID's inheritance
// graph and stores it on the entity. C3 (as used by Python's MRO and by
// Solidity for `is` lists) merges each base's own linearization plus the
// declared base order, preferring a base that appears earliest and never
// placing a base ahead of something that must come after it in another
// parent's linearization.
//
// Worked example from this repo's end-to-end tests: A, B is A, C is B, A ->
// linearize(C) = [C, B, A].
func (r *resolver) linearize(contractID int) []int {
	c := r.ns.Contracts[contractID]
	if len(c.Bases) == 0 {
		return []int{contractID}
	}
	var baseLists [][]int
	var baseOrder []int
	for _, spec := range c.Bases {
		base, ok := r.ns.ContractByName(spec.Name)
		if !ok {
			r.bag.Errorf(diag.ErrUnknownIdent, spec.Sp, "unknown base contract %q", spec.Name)
			continue
		}
		baseLists = append(baseLists, r.linearize(base.ID))
		baseOrder = append(baseOrder, base.ID)
	}
	merged, ok := c3Merge(append(baseLists, baseOrder))
	if !ok {
		r.bag.Errorf(diag.ErrUnlinearizable, c.Decl.Span(), "cannot linearize inheritance graph for %q: no consistent base ordering", c.Name)
		merged = flatten(baseLists)
	}
	return append([]int{contractID}, merged...)
}

// c3Merge implements the core C3 merge step: repeatedly take the head of
// the first list that does not appear in the tail of any other list.
func c3Merge(lists [][]int) ([]int, bool) {
	var out []int
	lists = copyLists(lists)
	for {
		lists = dropEmpty(lists)
		if len(lists) == 0 {
			return out, true
		}
		var candidate int
		found := false
		for _, l := range lists {
			head := l[0]
			if !appearsInAnyTail(lists, head) {
				candidate = head
				found = true
				break
			}
		}
		if !found {
			return out, false
		}
		out = append(out, candidate)
		for i, l := range lists {
			if len(l) > 0 && l[0] == candidate {
				lists[i] = l[1:]
			} else {
				lists[i] = removeAll(l, candidate)
			}
		}
	}
}

func appearsInAnyTail(lists [][]int, id int) bool {
	for _, l := range lists {
		for i := 1; i < len(l); i++ {
			if l[i] == id {
				return true
			}
		}
	}
	return false
}

func removeAll(l []int, id int) []int {
	out := l[:0:0]
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func dropEmpty(lists [][]int) [][]int {
	out := lists[:0:0]
	for _, l := range lists {
		if len(l) > 0 {
			out = append(out, l)
		}
	}
	return out
}

func copyLists(lists [][]int) [][]int {
	out := make([][]int, len(lists))
	for i, l := range lists {
		out[i] = append([]int(nil), l...)
	}
	return out
}

func flatten(lists [][]int) []int {
	seen := map[int]bool{}
	var out []int
	for _, l := range lists {
		for _, id := range l {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
