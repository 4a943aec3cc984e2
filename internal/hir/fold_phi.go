package hir

// foldPhi implements the Phi family from spec.md §4.6: `phi(x, x) -> x`,
// and on a two-input Phi whose region merges an If with a side-effect-free
// condition, an attempt to resolve through the ternary folder.
func foldPhi(g *Graph, n *Node) (*Node, bool) {
	if len(n.operands) == 2 && n.operands[0] == n.operands[1] {
		return n.operands[0], true
	}
	if len(n.operands) != 2 || n.Region == nil {
		return nil, false
	}
	ifNode, trueFirst := regionIf(n.Region)
	if ifNode == nil {
		return nil, false
	}
	cond := ifNode.Operand(0)
	if cond == nil || cond.HasSideEffect() {
		return nil, false
	}
	trueVal, falseVal := n.operands[0], n.operands[1]
	if !trueFirst {
		trueVal, falseVal = falseVal, trueVal
	}
	tern := NewTernary(g, cond, trueVal, falseVal)
	if result, ok := foldTernary(g, tern); ok {
		return result, true
	}
	return tern, true
}

// regionIf locates the If node merging at region, when region's two
// control predecessors are exactly that If's IfTrue and IfFalse children,
// and reports whether the first predecessor is the IfTrue side.
func regionIf(region *Node) (*Node, bool) {
	if len(region.operands) != 2 {
		return nil, false
	}
	a, b := region.operands[0], region.operands[1]
	if a == nil || b == nil {
		return nil, false
	}
	if a.kind == KIfTrue && b.kind == KIfFalse && a.Operand(0) == b.Operand(0) {
		return a.Operand(0), true
	}
	if a.kind == KIfFalse && b.kind == KIfTrue && b.Operand(0) == a.Operand(0) {
		return b.Operand(0), false
	}
	return nil, false
}
