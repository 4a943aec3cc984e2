package hir

// foldAlgebraic implements the Float64 algebraic-reassociation family from
// spec.md §4.6. It only fires once both operands are known (by type
// inference) to be Float64-typed; the result is the low-level typed
// Float64Arithmetic form, matching scenario S2's expectation that the
// builder/box-placement step is responsible for wrapping the result for a
// generic sink, not Fold itself.
func foldAlgebraic(g *Graph, n *Node) (*Node, bool) {
	lhs, rhs := n.Operand(0), n.Operand(1)
	if lhs == nil || rhs == nil {
		return nil, false
	}
	if !floatTyped(g, lhs) || !floatTyped(g, rhs) {
		return nil, false
	}

	negLhs, lhsNeg := isNegatedFloat(lhs)
	negRhs, rhsNeg := isNegatedFloat(rhs)

	switch n.Op {
	case OpAdd:
		if lhsNeg && !rhsNeg {
			// −a + b -> b − a
			return NewFloat64Arithmetic(g, OpSub, rhs, negLhs), true
		}
		if rhsNeg && !lhsNeg {
			// a + (−b) -> a − b
			return NewFloat64Arithmetic(g, OpSub, lhs, negRhs), true
		}
	case OpSub:
		if lhsNeg && !rhsNeg {
			// −a − b -> −b − a
			return NewFloat64Arithmetic(g, OpSub, NewFloat64Negate(g, rhs), negLhs), true
		}
		if rhsNeg && !lhsNeg {
			// a − (−b) -> a + b
			return NewFloat64Arithmetic(g, OpAdd, lhs, negRhs), true
		}
	case OpDiv:
		if rhs.kind == KFloat64 {
			if rhs.Float64Value == 1 {
				return lhs, true // a / 1 -> a
			}
			if rhs.Float64Value == -1 {
				return NewFloat64Negate(g, lhs), true // a / −1 -> −a
			}
		}
	case OpMul:
		if lhsNeg && rhsNeg {
			// (−a) × (−b) -> a × b
			return NewFloat64Arithmetic(g, OpMul, negLhs, negRhs), true
		}
	}
	return nil, false
}

func floatTyped(g *Graph, n *Node) bool {
	if n.kind == KFloat64 {
		return true
	}
	return g.Infer(n) == TFloat64
}

// isNegatedFloat reports whether n is a float negation (either the
// high-level Unary(MINUS) form from the builder's initial translation, or
// the already-lowered Float64Negate form), returning the negated operand.
func isNegatedFloat(n *Node) (*Node, bool) {
	switch {
	case n.kind == KUnary && n.Op == OpSub:
		return n.Operand(0), true
	case n.kind == KFloat64Negate:
		return n.Operand(0), true
	default:
		return nil, false
	}
}
