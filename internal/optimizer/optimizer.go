// Package optimizer runs a fixed, ordered set of semantics-preserving
// CFG-to-CFG transforms over internal/cfg's output (spec §4.4). Each pass is
// idempotent; the pipeline runs every enabled pass in order to a fixed point
// or a bounded iteration cap, whichever comes first.
package optimizer

import "github.com/mickey951112/solang/internal/cfg"

// Pass is one named, toggleable transform. It mutates g in place and
// reports whether it changed anything, so the pipeline knows whether
// another round is worth running.
type Pass struct {
	Name string
	Run  func(g *cfg.CFG) bool
}

// Options enables or disables individual passes by name; a name absent from
// the map runs by default (zero value means "on").
type Options struct {
	Disabled map[string]bool
}

func (o Options) enabled(name string) bool {
	return !o.Disabled[name]
}

// DefaultPasses is the fixed pass order spec §4.4 names.
func DefaultPasses() []Pass {
	return []Pass{
		{Name: "constant-folding", Run: ConstantFold},
		{Name: "strength-reduction", Run: StrengthReduce},
		{Name: "common-subexpression-elimination", Run: CSE},
		{Name: "vector-to-slice", Run: VectorToSlice},
		{Name: "dead-storage-elimination", Run: DeadStorageElimination},
	}
}

// maxIterations bounds the fixed-point loop so a pass pair that oscillates
// (which none of the passes below are designed to do) cannot hang the
// pipeline.
const maxIterations = 8

// Run applies every enabled pass, in DefaultPasses order, repeatedly until
// no pass reports a change or maxIterations rounds have run.
func Run(g *cfg.CFG, opts Options) {
	passes := DefaultPasses()
	for i := 0; i < maxIterations; i++ {
		changed := false
		for _, p := range passes {
			if !opts.enabled(p.Name) {
				continue
			}
			if p.Run(g) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}
