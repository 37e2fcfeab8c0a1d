package passes

import (
	"ember/internal/mir"
)

// SimplifyCFG threads trivial gotos, merges straight-line block
// chains, removes unreachable blocks, and renumbers the survivors.
func SimplifyCFG(f *mir.Func) bool {
	if len(f.Blocks) == 0 {
		return false
	}
	changed := false
	if applyRedirects(f, buildRedirectMap(f)) {
		changed = true
	}
	if mergeChains(f) {
		changed = true
	}
	if compactBlocks(f, computeReachability(f)) {
		changed = true
	}
	return changed
}

// buildRedirectMap maps every trivial goto block (no instructions) to
// the final target of its chain.
func buildRedirectMap(f *mir.Func) map[mir.BlockID]mir.BlockID {
	redirects := make(map[mir.BlockID]mir.BlockID)
	for _, blk := range f.Blocks {
		if len(blk.Instrs) != 0 || blk.Term.Kind != mir.TermGoto {
			continue
		}
		target := blk.Term.To
		visited := map[mir.BlockID]bool{blk.ID: true}
		for !visited[target] {
			visited[target] = true
			if next, ok := redirects[target]; ok {
				target = next
				continue
			}
			if t := f.Block(target); t != nil && len(t.Instrs) == 0 && t.Term.Kind == mir.TermGoto {
				target = t.Term.To
				continue
			}
			break
		}
		if target != blk.ID {
			redirects[blk.ID] = target
		}
	}
	return redirects
}

func applyRedirects(f *mir.Func, redirects map[mir.BlockID]mir.BlockID) bool {
	if len(redirects) == 0 {
		return false
	}
	changed := false
	redirect := func(id *mir.BlockID) {
		if next, ok := redirects[*id]; ok && next != *id {
			*id = next
			changed = true
		}
	}
	for _, blk := range f.Blocks {
		switch blk.Term.Kind {
		case mir.TermGoto:
			redirect(&blk.Term.To)
		case mir.TermIf:
			redirect(&blk.Term.Then)
			redirect(&blk.Term.Else)
		}
	}
	redirect(&f.Entry)
	return changed
}

// mergeChains folds a block into its goto successor when that
// successor has no other predecessor, turning diamond joins produced
// by lowering back into straight-line code.
func mergeChains(f *mir.Func) bool {
	changed := false
	for {
		predCount := make([]int, len(f.Blocks))
		for _, blk := range f.Blocks {
			for _, succ := range blk.Term.Succs(nil) {
				predCount[succ]++
			}
		}
		merged := false
		for _, blk := range f.Blocks {
			if blk.Term.Kind != mir.TermGoto {
				continue
			}
			succ := f.Block(blk.Term.To)
			if succ == nil || succ.ID == blk.ID || succ.ID == f.Entry {
				continue
			}
			if predCount[succ.ID] != 1 {
				continue
			}
			blk.Instrs = append(blk.Instrs, succ.Instrs...)
			blk.Term = succ.Term
			succ.Instrs = nil
			succ.Term = mir.Goto(succ.ID) // self loop, unreachable after merge
			merged = true
			changed = true
		}
		if !merged {
			return changed
		}
	}
}

func computeReachability(f *mir.Func) []bool {
	reachable := make([]bool, len(f.Blocks))
	var visit func(id mir.BlockID)
	visit = func(id mir.BlockID) {
		if id < 0 || int(id) >= len(f.Blocks) || reachable[id] {
			return
		}
		reachable[id] = true
		for _, succ := range f.Blocks[id].Term.Succs(nil) {
			visit(succ)
		}
	}
	visit(f.Entry)
	return reachable
}

// compactBlocks drops unreachable blocks and renumbers the rest.
func compactBlocks(f *mir.Func, reachable []bool) bool {
	count := 0
	for _, r := range reachable {
		if r {
			count++
		}
	}
	if count == len(f.Blocks) {
		return false
	}
	oldToNew := make(map[mir.BlockID]mir.BlockID, count)
	kept := make([]*mir.Block, 0, count)
	for i, keep := range reachable {
		if keep {
			oldToNew[mir.BlockID(i)] = mir.BlockID(len(kept))
			kept = append(kept, f.Blocks[i])
		}
	}
	remap := func(id *mir.BlockID) {
		if next, ok := oldToNew[*id]; ok {
			*id = next
		}
	}
	for i, blk := range kept {
		blk.ID = mir.BlockID(i)
		switch blk.Term.Kind {
		case mir.TermGoto:
			remap(&blk.Term.To)
		case mir.TermIf:
			remap(&blk.Term.Then)
			remap(&blk.Term.Else)
		}
	}
	f.Blocks = kept
	remap(&f.Entry)
	return true
}
