package hir

// Ref is one entry of a Node's ref list: (user, position) identifies that
// `user` holds this node as operand[position] (or, when Effect is true, as
// effect[position]). Ref lists are unordered multisets, maintained
// incrementally by AddOperand/ReplaceOperand/AddEffect/Replace.
type Ref struct {
	User     *Node
	Position int
	Effect   bool
}

// Node is a single HIR element. See spec.md §3 for the full invariant list.
type Node struct {
	id    int
	kind  Kind
	graph *Graph

	operands []*Node
	effects  []*Node
	refs     []Ref

	hasSideEffect bool

	// Payload: which fields are meaningful depends on kind. This mirrors
	// the original's per-subclass member layout collapsed into one tagged
	// struct, the idiomatic Go replacement for the virtual-dispatch
	// hierarchy (see DESIGN.md's "polymorphic dispatch on kind" note).
	Float64Value float64
	Int64Value   int64
	StringValue  string
	BoolValue    bool

	ValueType Type // explicit type carried by Box/Unbox/TestType/LoopIV specializations
	Op        Operator
	Intrinsic IntrinsicID
	Index     int   // IfTrue/IfFalse.index (0/1), StackSlot.index, Arg index, Projection index
	Region    *Node // Phi.region, Guard.region

	// Checkpoint payload: ordered StackSlot operands double as both the
	// checkpoint's operand list and its semantic slot list, so no separate
	// field is needed beyond `operands`.

	cachedType    Type
	typeCacheSet  bool
}

// Operator enumerates the polymorphic/typed arithmetic, compare and logical
// operators carried by Arithmetic/Compare/Logical/Float64Arithmetic/
// Float64Compare/Float64Bitwise/BooleanLogic/StringCompare nodes.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
)

// ID returns the node's monotone, never-reused identifier.
func (n *Node) ID() int { return n.id }

// Kind returns the node's closed-enumeration kind tag.
func (n *Node) Kind() Kind { return n.kind }

// Graph returns the owning graph (non-owning back-reference).
func (n *Node) Graph() *Graph { return n.graph }

// Operands returns the forward operand list (read-only view).
func (n *Node) Operands() []*Node { return n.operands }

// Operand returns the i-th operand, or nil if out of range.
func (n *Node) Operand(i int) *Node {
	if i < 0 || i >= len(n.operands) {
		return nil
	}
	return n.operands[i]
}

// Effects returns the effect (memory-ordering) list.
func (n *Node) Effects() []*Node { return n.effects }

// Refs returns the ref (def-use) list.
func (n *Node) Refs() []Ref { return n.refs }

// HasSideEffect reports the sticky side-effect bit (spec.md §3).
func (n *Node) HasSideEffect() bool { return n.hasSideEffect }

// IsDead reports whether the node has no remaining refs and is not a
// control anchor (spec.md §3 lifecycle: "a node is dead when it has no
// refs and is not a control anchor").
func (n *Node) IsDead() bool {
	return len(n.refs) == 0 && !n.kind.IsControl()
}

func (n *Node) markEffectful() {
	if n.hasSideEffect {
		return
	}
	n.hasSideEffect = true
	for _, r := range n.refs {
		r.User.markEffectful()
	}
}
