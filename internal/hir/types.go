package hir

// Type is the small closed lattice from spec.md §4.4.
type Type int

const (
	TUnknown Type = iota
	TFloat64
	TInt64
	TSmallString
	TLongString
	TBoolean
	TNil
	TList
	TObject
	TIterator
	TClosure
)

func (t Type) String() string {
	switch t {
	case TFloat64:
		return "float64"
	case TInt64:
		return "int64"
	case TSmallString:
		return "small_string"
	case TLongString:
		return "long_string"
	case TBoolean:
		return "boolean"
	case TNil:
		return "nil"
	case TList:
		return "list"
	case TObject:
		return "object"
	case TIterator:
		return "iterator"
	case TClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// IsString reports whether t is one of the two string subkinds (the only
// subtyping relationship in the lattice, per spec.md §4.4).
func (t Type) IsString() bool { return t == TSmallString || t == TLongString }

// typeCache memoizes Infer results keyed by node id — the "always cache"
// decision recorded in DESIGN.md for spec.md §9's open question.
type typeCache struct {
	cache []Type
	set   []bool
}

func (g *Graph) types() *typeCache {
	if g.tc == nil {
		g.tc = &typeCache{}
	}
	tc := g.tc
	if len(tc.cache) < g.nextID {
		grown := make([]Type, g.nextID)
		grownSet := make([]bool, g.nextID)
		copy(grown, tc.cache)
		copy(grownSet, tc.set)
		tc.cache, tc.set = grown, grownSet
	}
	return tc
}

// Infer returns the inferred Type for n, per spec.md §4.4's per-kind rules.
// Idempotent and cached: a second call against an unmodified node returns
// the same cached value (spec.md §8 property 4).
func (g *Graph) Infer(n *Node) Type {
	if n == nil {
		return TUnknown
	}
	tc := g.types()
	if n.id < len(tc.set) && tc.set[n.id] {
		return tc.cache[n.id]
	}
	// guard against cycles (Phi <-> loop body): mark Unknown before
	// recursing so a reentrant Infer of the same node during its own
	// computation sees a terminating answer (spec.md §9 cyclic-graph note).
	if n.id < len(tc.set) {
		tc.set[n.id] = true
		tc.cache[n.id] = TUnknown
	}
	t := g.inferKind(n)
	if n.id < len(tc.cache) {
		tc.cache[n.id] = t
		tc.set[n.id] = true
	}
	return t
}

func (g *Graph) inferKind(n *Node) Type {
	switch n.kind {
	case KFloat64:
		return TFloat64
	case KInt64:
		return TInt64
	case KLongString:
		return TLongString
	case KSmallString:
		return TSmallString
	case KBoolean:
		return TBoolean
	case KNil:
		return TNil
	case KList:
		return TList
	case KObject:
		return TObject
	case KClosure:
		return TClosure
	case KItrNew:
		return TIterator
	case KFloat64Negate, KFloat64Arithmetic, KFloat64Bitwise, KLoopIVFloat64:
		return TFloat64
	case KLoopIVInt64:
		return TInt64
	case KFloat64Compare, KBooleanNot, KBooleanLogic, KStringCompare,
		KSStringEq, KSStringNe, KConvBoolean, KConvNBoolean, KCompare:
		return TBoolean
	case KBox, KUnbox, KTestType:
		return n.ValueType
	case KGuard:
		if t := n.Operand(0); t != nil {
			return g.Infer(t)
		}
		return TUnknown
	case KPhi:
		return g.inferPhi(n)
	case KICall:
		return intrinsicResultType(n.Intrinsic)
	default:
		return TUnknown
	}
}

func (g *Graph) inferPhi(n *Node) Type {
	result := TUnknown
	first := true
	for _, op := range n.operands {
		if op == n {
			continue // self-cycle: treated as Unknown to terminate (spec.md §4.4)
		}
		t := g.Infer(op)
		if first {
			result, first = t, false
			continue
		}
		if t != result {
			return TUnknown
		}
	}
	return result
}

// ProjectBool returns (known, value) for any node whose tag is decidable
// as truthy/falsy without computation: collections and non-nil constants
// are truthy, Nil is falsy, Boolean is itself, Float64 constants are
// truthy (spec.md §4.4).
func (g *Graph) ProjectBool(n *Node) (known bool, value bool) {
	if n == nil {
		return false, false
	}
	switch n.kind {
	case KBoolean:
		return true, n.BoolValue
	case KNil:
		return true, false
	case KFloat64, KInt64, KLongString, KSmallString, KList, KObject, KClosure:
		return true, true
	default:
		return false, false
	}
}
