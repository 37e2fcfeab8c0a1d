// Package passes holds the optimizer: a small pipeline of per-function
// rewrites run to a fixed point over a lowered module.
package passes

import (
	"ember/internal/mir"
)

// maxRounds caps the fixed-point iteration. Every pass shrinks the
// function or leaves it alone, so the cap only matters when inlining
// keeps exposing new work.
const maxRounds = 8

// Optimize rewrites every function in the module until no pass reports
// a change or the round cap is hit. Functions stay valid after each
// round.
func Optimize(mod *mir.Module) {
	il := newInliner(mod)
	for round := 0; round < maxRounds; round++ {
		changed := false
		il.refresh()
		for _, f := range mod.Funcs {
			if il.run(f) {
				changed = true
			}
			if ConstFold(f) {
				changed = true
			}
			if CSE(f) {
				changed = true
			}
			if DeadStores(f) {
				changed = true
			}
			if SimplifyCFG(f) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}
