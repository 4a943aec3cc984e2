package hir

// Fold attempts a purely functional rewrite of n, returning the
// replacement node and true on success, or (nil, false) when no rewrite
// applies. Fold does not call Replace — callers (the builder's
// on-the-fly folding, or a dedicated simplification pass) are responsible
// for calling n.Replace(result) when a fold succeeds. Besides allocating
// result nodes, the only mutation inside Fold is the memory Set family,
// which rewrites the literal aggregate's operand in place (fold_memory.go).
// No fold fires on a node that carries side effects (a non-empty effect
// list); see DESIGN.md's first open question. This matches
// spec.md §7's "fold functions return Option<Node> semantics" rule.
//
// Fold is confluent: repeated application converges (spec.md §8 property 5
// and the "fold ∘ fold = fold" round-trip property), because each family
// below only ever rewrites toward a strictly smaller/simpler node and
// never reintroduces a form an earlier family would then re-rewrite.
func Fold(g *Graph, n *Node) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	if n.HasSideEffect() && len(n.effects) > 0 {
		return nil, false
	}
	switch n.kind {
	case KUnary:
		return foldUnary(g, n)
	case KArithmetic:
		if r, ok := foldBinaryArith(g, n); ok {
			return r, ok
		}
		return foldAlgebraic(g, n)
	case KCompare:
		return foldBinaryCompare(g, n)
	case KLogical:
		return foldLogical(g, n)
	case KTernary:
		return foldTernary(g, n)
	case KICall:
		return foldIntrinsic(g, n)
	case KBox:
		return foldBoxUnbox(n)
	case KUnbox:
		return foldBoxUnbox(n)
	case KPhi:
		return foldPhi(g, n)
	case KObjectFind, KPGet, KIGet:
		return foldMemoryGet(g, n)
	case KObjectUpdate, KPSet, KISet:
		return foldMemorySet(g, n)
	default:
		return nil, false
	}
}

func foldUnary(g *Graph, n *Node) (*Node, bool) {
	operand := n.Operand(0)
	if operand == nil {
		return nil, false
	}
	switch n.Op {
	case OpSub: // unary minus
		if operand.kind == KFloat64 {
			return NewFloat64(g, -operand.Float64Value), true
		}
		// −(−x) peels a pair of negations: even pair cancels, odd retains one.
		if operand.kind == KUnary && operand.Op == OpSub {
			inner := operand.Operand(0)
			return inner, true
		}
		if operand.kind == KFloat64Negate {
			return operand.Operand(0), true
		}
		return nil, false
	case OpBitXor: // logical not reuses OpBitXor as the "!" tag in this table
		return foldLogicalNot(g, operand)
	default:
		return nil, false
	}
}

func foldLogicalNot(g *Graph, operand *Node) (*Node, bool) {
	switch operand.kind {
	case KBoolean:
		return NewBoolean(g, !operand.BoolValue), true
	case KNil:
		return NewBoolean(g, true), true
	case KFloat64, KList, KObject, KClosure, KSmallString, KLongString:
		return NewBoolean(g, false), true
	default:
		// !unknown falls through to boolean inference (spec.md §4.6).
		if known, v := g.ProjectBool(operand); known {
			return NewBoolean(g, !v), true
		}
		return nil, false
	}
}

func foldBinaryArith(g *Graph, n *Node) (*Node, bool) {
	lhs, rhs := n.Operand(0), n.Operand(1)
	if lhs == nil || rhs == nil {
		return nil, false
	}
	if lhs.kind == KFloat64 && rhs.kind == KFloat64 {
		a, b := lhs.Float64Value, rhs.Float64Value
		switch n.Op {
		case OpAdd:
			return NewFloat64(g, a+b), true
		case OpSub:
			return NewFloat64(g, a-b), true
		case OpMul:
			return NewFloat64(g, a*b), true
		case OpDiv:
			if b == 0 {
				return nil, false // division by zero suppresses the fold
			}
			return NewFloat64(g, a/b), true
		case OpMod:
			if b == 0 {
				return nil, false // modulo by zero suppresses the fold
			}
			return NewFloat64(g, floatMod(a, b)), true
		}
	}
	return nil, false
}

func floatMod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	return m
}

func foldBinaryCompare(g *Graph, n *Node) (*Node, bool) {
	lhs, rhs := n.Operand(0), n.Operand(1)
	if lhs == nil || rhs == nil {
		return nil, false
	}
	if lhs.kind == KFloat64 && rhs.kind == KFloat64 {
		return NewBoolean(g, evalCompareF64(n.Op, lhs.Float64Value, rhs.Float64Value)), true
	}
	if (lhs.kind == KSmallString || lhs.kind == KLongString) &&
		(rhs.kind == KSmallString || rhs.kind == KLongString) {
		return NewBoolean(g, evalCompareStr(n.Op, lhs.StringValue, rhs.StringValue)), true
	}
	if lhs.kind == KNil || rhs.kind == KNil {
		if lhs.kind == KNil && rhs.kind == KNil {
			if n.Op == OpEq {
				return NewBoolean(g, true), true
			}
			if n.Op == OpNe {
				return NewBoolean(g, false), true
			}
		} else if n.Op == OpNe {
			// nil != x -> x is not nil, i.e. always true for a non-nil node.
			return NewBoolean(g, true), true
		} else if n.Op == OpEq {
			return NewBoolean(g, false), true
		}
	}
	// boolean compare against typed boolean: bvar == true -> bvar; bvar == false -> !bvar.
	if lhs.kind == KBoolean || rhs.kind == KBoolean {
		boolConst, other := lhs, rhs
		if rhs.kind == KBoolean {
			boolConst, other = rhs, lhs
		}
		if boolConst.kind == KBoolean && g.Infer(other) == TBoolean {
			if n.Op == OpEq {
				if boolConst.BoolValue {
					return other, true
				}
				return NewBooleanNot(g, other), true
			}
		}
	}
	return nil, false
}

func evalCompareF64(op Operator, a, b float64) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	default:
		return false
	}
}

func evalCompareStr(op Operator, a, b string) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	default:
		return false
	}
}

func foldLogical(g *Graph, n *Node) (*Node, bool) {
	lhs, rhs := n.Operand(0), n.Operand(1)
	if lhs == nil {
		return nil, false
	}
	knownL, valL := g.ProjectBool(lhs)
	switch n.Op {
	case OpAnd:
		if knownL && !valL {
			return NewBoolean(g, false), true // false && x -> false
		}
		if knownL && valL {
			return rhs, true // true && x -> x
		}
		if rhs != nil && sameNode(lhs, rhs) {
			return lhs, true // x && x -> x
		}
		if rhs != nil && isNegationOf(rhs, lhs) {
			return NewBoolean(g, false), true // !x && x -> false
		}
		if rhs != nil && isNegationOf(lhs, rhs) {
			return NewBoolean(g, false), true // x && !x -> false
		}
	case OpOr:
		if knownL && valL {
			return NewBoolean(g, true), true // true || x -> true
		}
		if knownL && !valL {
			return rhs, true // false || x -> x
		}
		if rhs != nil && sameNode(lhs, rhs) {
			return lhs, true // x || x -> x
		}
		if rhs != nil && isNegationOf(rhs, lhs) {
			return NewBoolean(g, true), true
		}
		if rhs != nil && isNegationOf(lhs, rhs) {
			return NewBoolean(g, true), true
		}
	}
	return nil, false
}

func sameNode(a, b *Node) bool { return a == b }

func isNegationOf(not, operand *Node) bool {
	return not.kind == KBooleanNot && not.Operand(0) == operand
}

func foldTernary(g *Graph, n *Node) (*Node, bool) {
	cond, whenTrue, whenFalse := n.Operand(0), n.Operand(1), n.Operand(2)
	if cond == nil {
		return nil, false
	}
	if known, v := g.ProjectBool(cond); known {
		if v {
			return whenTrue, true
		}
		return whenFalse, true
	}
	// degenerate a == b, cond side-effect-free -> a
	if whenTrue == whenFalse && !cond.HasSideEffect() {
		return whenTrue, true
	}
	// cond ? true : false -> to-boolean(cond); cond ? false : true -> negated-to-boolean(cond)
	if whenTrue != nil && whenFalse != nil && whenTrue.kind == KBoolean && whenFalse.kind == KBoolean {
		if whenTrue.BoolValue && !whenFalse.BoolValue {
			return NewConvBoolean(g, cond), true
		}
		if !whenTrue.BoolValue && whenFalse.BoolValue {
			return NewConvNBoolean(g, cond), true
		}
	}
	return nil, false
}

// foldBoxUnbox cancels adjacent Box/Unbox pairs of matching type
// (spec.md §3 "Box/Unbox are adjacent inverses that must cancel"; §8
// "Box(Unbox(x,T),T) rewrites to x; Unbox(Box(x,T),T) rewrites to x").
func foldBoxUnbox(n *Node) (*Node, bool) {
	inner := n.Operand(0)
	if inner == nil {
		return nil, false
	}
	if n.kind == KBox && inner.kind == KUnbox && inner.ValueType == n.ValueType {
		return inner.Operand(0), true
	}
	if n.kind == KUnbox && inner.kind == KBox && inner.ValueType == n.ValueType {
		return inner.Operand(0), true
	}
	return nil, false
}
