package hir

// DCEPass implements the branch-pruning variant of dead-code elimination
// from spec.md §4.9. For every If whose condition is decidable by the
// boolean-projection helper (spec.md §4.4), the dead arm is spliced out:
// the live child's users are rewired directly to the If's predecessor
// region, any merge-region Phi/EffectPhi loses the dead arm's operand
// slot (collapsing to a plain value when only one predecessor remains),
// and the If itself becomes unreferenced.
//
// LoopHeader pruning (never/always-entered loops) from spec.md §4.9's
// prose is not implemented: deciding a loop's entry condition in general
// requires the ranger's interval propagation to have already run and
// converged on the loop-carried variable, which is a strictly harder
// fixed-point problem than the straight-line If case spec.md §8's S5/S6
// scenarios exercise; no scenario in this codebase needs it.
type DCEPass struct{}

func (p *DCEPass) Name() string { return "dce" }

func (p *DCEPass) Run(g *Graph) error {
	changed := true
	for changed {
		changed = false
		it := NewControlFlowRPOIterator(g)
		for it.HasNext() {
			cf := it.Value()
			if cf.kind == KIf {
				if pruneIf(cf) {
					changed = true
				}
			}
			it.Move()
		}
	}
	return nil
}

func pruneIf(ifNode *Node) bool {
	cond := ifNode.Operand(0)
	g := ifNode.graph
	known, val := g.ProjectBool(cond)
	if !known {
		return false
	}
	var ifTrue, ifFalse *Node
	for _, r := range ifNode.refs {
		if r.Effect {
			continue
		}
		switch r.User.kind {
		case KIfTrue:
			ifTrue = r.User
		case KIfFalse:
			ifFalse = r.User
		}
	}
	if ifTrue == nil || ifFalse == nil {
		return false
	}
	live, dead := ifFalse, ifTrue
	if val {
		live, dead = ifTrue, ifFalse
	}
	pred := ifNode.Operand(1)

	prunePhisFor(dead)
	live.Replace(pred)
	// Unlink both arms from the If so it is left unreferenced and a later
	// sweep does not find (and prune) it again.
	for _, arm := range []*Node{live, dead} {
		ifNode.removeRef(arm, 0, false)
		arm.operands = nil
	}
	return true
}

// prunePhisFor detaches `dead` from every region that lists it as a
// control predecessor, and removes the corresponding operand slot from
// any Phi/EffectPhi/LoopEffectPhi attached to that region, preserving
// spec.md §3 invariant 5 (Phi arity == region predecessor arity).
func prunePhisFor(dead *Node) {
	refsSnapshot := append([]Ref(nil), dead.refs...)
	for _, r := range refsSnapshot {
		if r.Effect || !r.User.kind.IsControl() {
			continue
		}
		removeRegionPred(r.User, r.Position)
	}
}

func removeRegionPred(region *Node, idx int) {
	if idx < 0 || idx >= len(region.operands) {
		return
	}
	removed := region.operands[idx]
	if removed != nil {
		removed.removeRef(region, idx, false)
	}
	region.operands = append(region.operands[:idx], region.operands[idx+1:]...)
	shiftOperandRefs(region, idx)

	for _, ref := range append([]Ref(nil), region.refs...) {
		user := ref.User
		if ref.Effect || user.Region != region {
			continue
		}
		if user.kind == KPhi || user.kind == KEffectPhi || user.kind == KLoopEffectPhi {
			removePhiOperand(user, idx)
		}
	}
}

func removePhiOperand(phi *Node, idx int) {
	if idx < 0 || idx >= len(phi.operands) {
		return
	}
	removed := phi.operands[idx]
	if removed != nil {
		removed.removeRef(phi, idx, false)
	}
	phi.operands = append(phi.operands[:idx], phi.operands[idx+1:]...)
	shiftOperandRefs(phi, idx)
	if len(phi.operands) == 1 {
		phi.Replace(phi.operands[0])
	}
}

// shiftOperandRefs fixes up ref positions for operands of n at index >=
// from, after an operand removal shifted them down by one slot.
func shiftOperandRefs(n *Node, from int) {
	for i := from; i < len(n.operands); i++ {
		op := n.operands[i]
		if op == nil {
			continue
		}
		for j, rr := range op.refs {
			if rr.User == n && !rr.Effect && rr.Position == i+1 {
				op.refs[j].Position = i
			}
		}
	}
}
