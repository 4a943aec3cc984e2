package hir

// GuardEliminatePass implements dominator-based redundant guard removal,
// spec.md §4.9. A Guard is pinned to a control region via its Region field
// (NewGuard never wires region as an operand edge - it is a floating node,
// scheduled by region rather than by a control-flow predecessor/successor
// link). Redundancy is therefore decided per the region's dominator chain:
// walking the control RPO, each region accumulates the (variable, type)
// annotation of the first Guard/TestType pinned to it or inherited from its
// immediate dominator; any later Guard in the chain carrying the same
// annotation is provably redundant and is unlinked. A dominated If whose own
// condition is the very TestType a dominating Guard already proved true is
// handled the same way: the branch is known-taken and collapses.
//
// The original source's guard-eliminate.cc ships this logic `#if 0`'d out
// (see _examples/original_source); this module completes it for real per
// spec.md §4.9's prose description and scenario S4.
type GuardEliminatePass struct{}

func (p *GuardEliminatePass) Name() string { return "guard_eliminate" }

type guardAnnotation struct {
	variable *Node
	typ      Type
}

func (p *GuardEliminatePass) Run(g *Graph) error {
	dom := NewDominators()
	dom.Build(g)

	guardsByRegion := make(map[*Node][]*Node)
	for _, n := range g.Nodes() {
		if n != nil && n.kind == KGuard {
			guardsByRegion[n.Region] = append(guardsByRegion[n.Region], n)
		}
	}

	ann := make(map[*Node]guardAnnotation)
	it := NewControlFlowRPOIterator(g)
	for it.HasNext() {
		r := it.Value()
		it.Move()

		cur, have := inheritedAnnotation(ann, dom, r)

		for _, guard := range guardsByRegion[r] {
			test := guard.Operand(0)
			if test == nil || test.kind != KTestType {
				continue
			}
			a := guardAnnotation{variable: test.Operand(0), typ: test.ValueType}
			if have && cur == a {
				detachOperands(guard)
				continue
			}
			cur, have = a, true
		}
		if have {
			ann[r] = cur
		}

		if r.kind == KIf {
			cond := r.Operand(0)
			if cond != nil && cond.kind == KTestType {
				a := guardAnnotation{variable: cond.Operand(0), typ: cond.ValueType}
				if idom := dom.ImmediateDominator(r); idom != nil {
					if pa, ok := inheritedAnnotation(ann, dom, idom); ok && pa == a {
						eliminateRedundantIf(r)
					}
				}
			}
		}
	}
	return nil
}

// inheritedAnnotation returns the annotation in force at r: r's own (already
// folded-in) annotation if set, otherwise its immediate dominator's. ann is
// populated monotonically in RPO order, so by the time a descendant queries
// its dominator the dominator's entry (if any) is already final.
func inheritedAnnotation(ann map[*Node]guardAnnotation, dom *Dominators, r *Node) (guardAnnotation, bool) {
	if a, ok := ann[r]; ok {
		return a, true
	}
	idom := dom.ImmediateDominator(r)
	if idom == nil {
		return guardAnnotation{}, false
	}
	return inheritedAnnotation(ann, dom, idom)
}

// eliminateRedundantIf splices out an If whose TestType condition a
// dominating Guard/If has already proved true: the IfFalse side is dead,
// its phis collapse onto the IfTrue value, and control flows straight
// through (scenario S4's "the inner region is spliced through").
func eliminateRedundantIf(ifNode *Node) {
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
		return
	}
	pred := ifNode.Operand(1)
	prunePhisFor(ifFalse)
	ifTrue.Replace(pred)
}

// detachOperands removes n's own outgoing operand/effect edges (their
// corresponding back-references in the operands' ref lists), used once n
// has been fully spliced out of the graph. Any operand left dead by the
// detach (no remaining refs, not a control anchor - e.g. a Guard's
// TestType or Checkpoint/StackSlot chain once the Guard referencing them
// is gone) is cascaded into recursively, so a variable only tested by the
// eliminated guard loses its ref too (scenario S4: "v's refs lose one
// entry").
func detachOperands(n *Node) {
	ops := append([]*Node(nil), n.operands...)
	effs := append([]*Node(nil), n.effects...)

	for i, op := range n.operands {
		if op != nil {
			op.removeRef(n, i, false)
		}
	}
	n.operands = nil
	for i, e := range n.effects {
		if e != nil {
			e.removeRef(n, i, true)
		}
	}
	n.effects = nil

	for _, op := range ops {
		if op != nil && op.IsDead() {
			detachOperands(op)
		}
	}
	for _, e := range effs {
		if e != nil && e.IsDead() {
			detachOperands(e)
		}
	}
}
