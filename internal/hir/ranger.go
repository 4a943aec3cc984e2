package hir

// ConditionGroup is the per-branch predicate bundle the original source
// names in condition-group.h: the set of facts known to hold about one
// variable at one point in the control graph, chained through the
// dominator tree exactly as the original's ConditionGroup::prev_ does
// (spec.md §4.9's infer/ranger step, SUPPLEMENTED per condition-group.h).
type ConditionGroup struct {
	variable   *Node
	typ        Type
	floatRange *Float64Range
	boolRange  *BooleanRange
	prev       *ConditionGroup
}

// findFloatRange walks the chain for the nearest group tracking variable,
// returning an unconstrained top range if none exists yet.
func findFloatRange(group *ConditionGroup, variable *Node) *Float64Range {
	for c := group; c != nil; c = c.prev {
		if c.variable == variable && c.floatRange != nil {
			return c.floatRange
		}
	}
	return NewFloat64RangeTop()
}

func findBoolRange(group *ConditionGroup, variable *Node) *BooleanRange {
	for c := group; c != nil; c = c.prev {
		if c.variable == variable && c.boolRange != nil {
			return c.boolRange
		}
	}
	return NewBooleanRangeTop()
}

// RangerPass implements spec.md §4.9's infer/predicate-propagation step:
// at every If, derive a ConditionGroup for the taken arm from the
// branch condition, chain it off the immediate dominator's group, and use
// it to fold any single-use Compare/Float64Compare instance it decides.
// Grounded on the original's infer.cc ConditionGroup/SimpleConstraintChecker.
type RangerPass struct{}

func (p *RangerPass) Name() string { return "ranger" }

func (p *RangerPass) Run(g *Graph) error {
	dom := NewDominators()
	dom.Build(g)

	groups := make(map[*Node]*ConditionGroup)
	it := NewControlFlowRPOIterator(g)
	for it.HasNext() {
		cf := it.Value()
		it.Move()

		var group *ConditionGroup
		if idom := dom.ImmediateDominator(cf); idom != nil {
			group = groups[idom]
		}
		if cf.kind == KIfTrue || cf.kind == KIfFalse {
			if ifNode := cf.Operand(0); ifNode != nil {
				group = extendGroup(group, ifNode.Operand(0), cf.kind == KIfTrue)
			}
		}
		groups[cf] = group

		for _, expr := range cf.operands {
			foldWithGroup(g, expr, group)
		}
	}
	return nil
}

// extendGroup derives the ConditionGroup that holds on the branch taken
// when cond evaluates to truthy (true for the IfTrue arm, false for
// IfFalse). Unrecognized condition shapes leave the parent chain
// unextended (sound: just means no new fact is learned on this edge).
func extendGroup(parent *ConditionGroup, cond *Node, truthy bool) *ConditionGroup {
	if cond == nil {
		return parent
	}
	switch cond.kind {
	case KFloat64Compare, KCompare:
		variable, op, constant, ok := splitFloatCompare(cond)
		if !ok {
			return parent
		}
		base := findFloatRange(parent, variable)
		nr := &Float64Range{intervals: append([]interval(nil), base.intervals...)}
		if truthy {
			nr.Intersect(op, constant)
		} else {
			nr.Intersect(negateOp(op), constant)
		}
		return &ConditionGroup{variable: variable, typ: TFloat64, floatRange: nr, prev: parent}
	default:
		base := findBoolRange(parent, cond)
		nb := &BooleanRange{True: base.True, False: base.False}
		nb.Intersect(truthy)
		return &ConditionGroup{variable: cond, typ: TBoolean, boolRange: nb, prev: parent}
	}
}

// splitFloatCompare recognizes `variable op constant` (or its mirror,
// `constant op variable`, normalized by swapping the operator) against a
// Float64 constant operand.
func splitFloatCompare(cond *Node) (variable *Node, op Operator, constant float64, ok bool) {
	lhs, rhs := cond.Operand(0), cond.Operand(1)
	if rhs != nil && rhs.kind == KFloat64 {
		return lhs, cond.Op, rhs.Float64Value, true
	}
	if lhs != nil && lhs.kind == KFloat64 {
		return rhs, mirrorOp(cond.Op), lhs.Float64Value, true
	}
	return nil, 0, 0, false
}

func mirrorOp(op Operator) Operator {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	default:
		return op
	}
}

// foldWithGroup folds n to a constant Boolean when group's accumulated
// facts decide it. Restricted to single-ref nodes: a Compare instance
// shared (by GVN) across program points outside this group's dominance
// would make a blind Replace unsound, so multi-use nodes are left alone.
func foldWithGroup(g *Graph, n *Node, group *ConditionGroup) {
	if n == nil || len(n.refs) > 1 {
		return
	}
	switch n.kind {
	case KFloat64Compare, KCompare:
		variable, op, constant, ok := splitFloatCompare(n)
		if !ok {
			return
		}
		fr := findFloatRange(group, variable)
		switch fr.Infer(op, constant) {
		case AlwaysTrue:
			n.Replace(NewBoolean(g, true))
		case AlwaysFalse:
			n.Replace(NewBoolean(g, false))
		}
	case KTestType:
		// a TestType re-testing a variable whose type is already pinned by
		// an enclosing Guard's ConditionGroup entry folds to true; this
		// path only fires once guard-elimination has chained a matching
		// Guard -> TestType annotation into the dominator tree, which the
		// current ConditionGroup model does not track (only Float64/Boolean
		// facts), so it is intentionally a no-op here. Type-identity
		// redundancy is handled by GuardEliminatePass instead.
	}
}
