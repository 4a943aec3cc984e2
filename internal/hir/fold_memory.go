package hir

// Memory folds: ObjectGet(obj-literal, literal-key) and ListGet(list-literal,
// literal-index) resolve directly against a literal aggregate's known
// contents; the symmetric Set forms rewrite the literal in place. Folding
// is suppressed whenever the access node carries side effects (spec.md
// §4.6 "Memory"), generalized per DESIGN.md's open-question decision to
// every fold family, not only this one.

// objectPairs views an IRObject node's operand list as (key, value) pairs,
// the flat encoding this module uses for IRObjectKV collections.
func objectPairs(obj *Node) [][2]*Node {
	var pairs [][2]*Node
	for i := 0; i+1 < len(obj.operands); i += 2 {
		pairs = append(pairs, [2]*Node{obj.operands[i], obj.operands[i+1]})
	}
	return pairs
}

func stringKey(n *Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if n.kind == KSmallString || n.kind == KLongString {
		return n.StringValue, true
	}
	return "", false
}

func intIndex(n *Node) (int, bool) {
	if n == nil {
		return 0, false
	}
	switch n.kind {
	case KInt64:
		return int(n.Int64Value), true
	case KFloat64:
		f := n.Float64Value
		if f == float64(int64(f)) {
			return int(f), true
		}
	}
	return 0, false
}

func foldMemoryGet(g *Graph, n *Node) (*Node, bool) {
	if n.HasSideEffect() && len(n.Effects()) > 0 {
		return nil, false
	}
	obj, key := n.Operand(0), n.Operand(1)
	if obj == nil || key == nil {
		return nil, false
	}
	if obj.kind == KObject {
		k, ok := stringKey(key)
		if !ok {
			return nil, false
		}
		pairs := objectPairs(obj)
		// latest write wins: scan from the end.
		for i := len(pairs) - 1; i >= 0; i-- {
			if sk, ok := stringKey(pairs[i][0]); ok && sk == k {
				return pairs[i][1], true
			}
		}
		return nil, false
	}
	if obj.kind == KList {
		idx, ok := intIndex(key)
		if !ok || idx < 0 || idx >= len(obj.operands) {
			return nil, false // out-of-bounds is not folded (spec.md §7)
		}
		return obj.operands[idx], true
	}
	return nil, false
}

func foldMemorySet(g *Graph, n *Node) (*Node, bool) {
	if n.HasSideEffect() && len(n.Effects()) > 0 {
		return nil, false
	}
	obj, key, value := n.Operand(0), n.Operand(1), n.Operand(2)
	if obj == nil || key == nil || value == nil {
		return nil, false
	}
	if obj.kind == KObject {
		k, ok := stringKey(key)
		if !ok {
			return nil, false
		}
		pairs := objectPairs(obj)
		for i := len(pairs) - 1; i >= 0; i-- {
			if sk, ok := stringKey(pairs[i][0]); ok && sk == k {
				obj.ReplaceOperand(2*i+1, value)
				return obj, true
			}
		}
		return nil, false
	}
	if obj.kind == KList {
		idx, ok := intIndex(key)
		if !ok || idx < 0 || idx >= len(obj.operands) {
			return nil, false
		}
		obj.ReplaceOperand(idx, value)
		return obj, true
	}
	return nil, false
}
