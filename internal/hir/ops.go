package hir

// Typed factory functions. Every node is created through one of these
// (or, for the rarer control/effect-placeholder kinds not given a
// dedicated constructor, through NewGeneric), so ids and operand wiring
// stay consistent with the edge model in edges.go.

// NewGeneric allocates a bare node of kind k with no operands wired; the
// caller wires operands via AddOperand/AddEffect immediately afterward.
// Used for the control/effect kinds whose shape varies enough (Region,
// LoopHeader, EffectPhi, …) that a one-size constructor would just be
// AddOperand in disguise.
func NewGeneric(g *Graph, k Kind) *Node {
	return g.newNode(k)
}

func NewFloat64(g *Graph, v float64) *Node {
	n := g.newNode(KFloat64)
	n.Float64Value = v
	return n
}

func NewInt64(g *Graph, v int64) *Node {
	n := g.newNode(KInt64)
	n.Int64Value = v
	return n
}

func NewBoolean(g *Graph, v bool) *Node {
	n := g.newNode(KBoolean)
	n.BoolValue = v
	return n
}

func NewNil(g *Graph) *Node {
	return g.newNode(KNil)
}

func NewSmallString(g *Graph, s string) *Node {
	n := g.newNode(KSmallString)
	n.StringValue = s
	return n
}

func NewLongString(g *Graph, s string) *Node {
	n := g.newNode(KLongString)
	n.StringValue = s
	return n
}

func NewArg(g *Graph, index int) *Node {
	n := g.newNode(KArg)
	n.Index = index
	return n
}

func NewUnary(g *Graph, op Operator, operand *Node) *Node {
	n := g.newNode(KUnary)
	n.Op = op
	n.AddOperand(operand)
	return n
}

func NewArithmetic(g *Graph, op Operator, lhs, rhs *Node) *Node {
	n := g.newNode(KArithmetic)
	n.Op = op
	n.AddOperand(lhs)
	n.AddOperand(rhs)
	return n
}

func NewCompare(g *Graph, op Operator, lhs, rhs *Node) *Node {
	n := g.newNode(KCompare)
	n.Op = op
	n.AddOperand(lhs)
	n.AddOperand(rhs)
	return n
}

func NewLogical(g *Graph, op Operator, lhs, rhs *Node) *Node {
	n := g.newNode(KLogical)
	n.Op = op
	n.AddOperand(lhs)
	n.AddOperand(rhs)
	return n
}

func NewTernary(g *Graph, cond, whenTrue, whenFalse *Node) *Node {
	n := g.newNode(KTernary)
	n.AddOperand(cond)
	n.AddOperand(whenTrue)
	n.AddOperand(whenFalse)
	return n
}

func NewFloat64Negate(g *Graph, operand *Node) *Node {
	n := g.newNode(KFloat64Negate)
	n.AddOperand(operand)
	return n
}

func NewFloat64Arithmetic(g *Graph, op Operator, lhs, rhs *Node) *Node {
	n := g.newNode(KFloat64Arithmetic)
	n.Op = op
	n.AddOperand(lhs)
	n.AddOperand(rhs)
	return n
}

func NewFloat64Compare(g *Graph, op Operator, lhs, rhs *Node) *Node {
	n := g.newNode(KFloat64Compare)
	n.Op = op
	n.AddOperand(lhs)
	n.AddOperand(rhs)
	return n
}

func NewBooleanNot(g *Graph, operand *Node) *Node {
	n := g.newNode(KBooleanNot)
	n.AddOperand(operand)
	return n
}

func NewBooleanLogic(g *Graph, op Operator, lhs, rhs *Node) *Node {
	n := g.newNode(KBooleanLogic)
	n.Op = op
	n.AddOperand(lhs)
	n.AddOperand(rhs)
	return n
}

func NewStringCompare(g *Graph, op Operator, lhs, rhs *Node) *Node {
	n := g.newNode(KStringCompare)
	n.Op = op
	n.AddOperand(lhs)
	n.AddOperand(rhs)
	return n
}

// NewTestType builds a pure predicate node testing whether value has the
// given type kind (spec.md §3 "Tests & guards").
func NewTestType(g *Graph, value *Node, t Type) *Node {
	n := g.newNode(KTestType)
	n.ValueType = t
	n.AddOperand(value)
	return n
}

// NewCheckpoint builds a Checkpoint carrying the given ordered StackSlot
// operands (one per live interpreter register).
func NewCheckpoint(g *Graph, slots ...*Node) *Node {
	n := g.newNode(KCheckpoint)
	for _, s := range slots {
		n.AddOperand(s)
	}
	return n
}

func NewStackSlot(g *Graph, value *Node, index int) *Node {
	n := g.newNode(KStackSlot)
	n.Index = index
	n.AddOperand(value)
	return n
}

// NewGuard builds a control node testing `test`; on runtime failure it
// transfers to checkpoint. region is the control predecessor it is placed
// in (spec.md §3 invariant 7: "Guard is placed in a control region").
func NewGuard(g *Graph, test, checkpoint, region *Node) *Node {
	n := g.newNode(KGuard)
	n.Region = region
	n.AddOperand(test)
	n.AddOperand(checkpoint)
	return n
}

func NewBox(g *Graph, value *Node, t Type) *Node {
	n := g.newNode(KBox)
	n.ValueType = t
	n.AddOperand(value)
	return n
}

func NewUnbox(g *Graph, value *Node, t Type) *Node {
	n := g.newNode(KUnbox)
	n.ValueType = t
	n.AddOperand(value)
	return n
}

func NewConvBoolean(g *Graph, operand *Node) *Node {
	n := g.newNode(KConvBoolean)
	n.AddOperand(operand)
	return n
}

func NewConvNBoolean(g *Graph, operand *Node) *Node {
	n := g.newNode(KConvNBoolean)
	n.AddOperand(operand)
	return n
}

// NewPhi builds a Phi whose k-th operand corresponds to the k-th
// predecessor of region (spec.md §3 invariant 5).
func NewPhi(g *Graph, region *Node, operands ...*Node) *Node {
	n := g.newNode(KPhi)
	n.Region = region
	for _, op := range operands {
		n.AddOperand(op)
	}
	return n
}

func NewICall(g *Graph, id IntrinsicID, args ...*Node) *Node {
	n := g.newNode(KICall)
	n.Intrinsic = id
	for _, a := range args {
		n.AddOperand(a)
	}
	return n
}

// --- control flow ---

func NewStart(g *Graph) *Node { return g.newNode(KStart) }
func NewEnd(g *Graph) *Node   { return g.newNode(KEnd) }

func NewRegion(g *Graph, preds ...*Node) *Node {
	n := g.newNode(KRegion)
	for _, p := range preds {
		n.AddOperand(p)
	}
	return n
}

// NewIf builds the If node plus its two fixed-index children, per spec.md
// §3 invariant 4 (IfTrue.index = 0, IfFalse.index = 1).
func NewIf(g *Graph, cond, region *Node) (ifNode, ifTrue, ifFalse *Node) {
	ifNode = g.newNode(KIf)
	ifNode.AddOperand(cond)
	ifNode.AddOperand(region)
	ifTrue = g.newNode(KIfTrue)
	ifTrue.Index = 0
	ifTrue.AddOperand(ifNode)
	ifFalse = g.newNode(KIfFalse)
	ifFalse.Index = 1
	ifFalse.AddOperand(ifNode)
	return
}

func NewJump(g *Graph, target *Node) *Node {
	n := g.newNode(KJump)
	n.AddOperand(target)
	return n
}

func NewReturn(g *Graph, region, value *Node) *Node {
	n := g.newNode(KReturn)
	n.AddOperand(region)
	n.AddOperand(value)
	return n
}

func NewLoopHeader(g *Graph, preds ...*Node) *Node {
	n := g.newNode(KLoopHeader)
	for _, p := range preds {
		n.AddOperand(p)
	}
	return n
}

func NewLoop(g *Graph, header *Node) *Node {
	n := g.newNode(KLoop)
	n.AddOperand(header)
	return n
}

func NewLoopExit(g *Graph, loop *Node) *Node {
	n := g.newNode(KLoopExit)
	n.AddOperand(loop)
	return n
}

// NewLoopIV builds a loop-induction-variable placeholder, later
// specialized by the loop-induction-typing pass to LoopIVFloat64 or
// LoopIVInt64 (spec.md §4.9).
func NewLoopIV(g *Graph, header, init, step *Node) *Node {
	n := g.newNode(KLoopIV)
	n.Region = header
	n.AddOperand(init)
	n.AddOperand(step)
	return n
}

// NewLoopIVFloat64/NewLoopIVInt64 build the specialized loop-induction-
// variable node the loop-analysis pass rewrites a KLoopIV into once its
// init/step types are known (spec.md §4.9).
func NewLoopIVFloat64(g *Graph, header, init, step *Node) *Node {
	n := g.newNode(KLoopIVFloat64)
	n.Region = header
	n.AddOperand(init)
	n.AddOperand(step)
	return n
}

func NewLoopIVInt64(g *Graph, header, init, step *Node) *Node {
	n := g.newNode(KLoopIVInt64)
	n.Region = header
	n.AddOperand(init)
	n.AddOperand(step)
	return n
}

func NewOSRStart(g *Graph) *Node { return g.newNode(KOSRStart) }
func NewOSREnd(g *Graph, osrStart *Node) *Node {
	n := g.newNode(KOSREnd)
	n.AddOperand(osrStart)
	return n
}

func NewOSRLoad(g *Graph, registerIndex int) *Node {
	n := g.newNode(KOSRLoad)
	n.Index = registerIndex
	return n
}

func NewInlineStart(g *Graph, call *Node) *Node {
	n := g.newNode(KInlineStart)
	n.AddOperand(call)
	return n
}

func NewInlineEnd(g *Graph, inlineStart *Node, returns ...*Node) *Node {
	n := g.newNode(KInlineEnd)
	n.AddOperand(inlineStart)
	for _, r := range returns {
		n.AddOperand(r)
	}
	return n
}

func NewJumpValue(g *Graph, target, value *Node) *Node {
	n := g.newNode(KJumpValue)
	n.AddOperand(target)
	n.AddOperand(value)
	return n
}

func NewTrap(g *Graph) *Node    { return g.newNode(KTrap) }
func NewFail(g *Graph) *Node    { return g.newNode(KFail) }
func NewSuccess(g *Graph, region *Node) *Node {
	n := g.newNode(KSuccess)
	n.AddOperand(region)
	return n
}

func NewCondTrap(g *Graph, cond, region *Node) *Node {
	n := g.newNode(KCondTrap)
	n.AddOperand(cond)
	n.AddOperand(region)
	return n
}

// NewEffectPhi/NewLoopEffectPhi build the memory-ordering placeholders
// from spec.md §3. Operands are the incoming effect-producing nodes per
// predecessor, same arity discipline as a value Phi.
func NewEffectPhi(g *Graph, region *Node, incoming ...*Node) *Node {
	n := g.newNode(KEffectPhi)
	n.Region = region
	for _, e := range incoming {
		n.AddOperand(e)
	}
	return n
}

func NewLoopEffectPhi(g *Graph, header *Node, incoming ...*Node) *Node {
	n := g.newNode(KLoopEffectPhi)
	n.Region = header
	for _, e := range incoming {
		n.AddOperand(e)
	}
	return n
}
