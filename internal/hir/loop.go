package hir

// LoopAnalyzePass specializes every generic LoopIV placeholder into
// LoopIVFloat64 or LoopIVInt64 once its init/step operands have a known,
// matching numeric type (spec.md §4.9's loop-induction typing). A LoopIV
// whose operands don't agree on Float64 or Int64 is left generic — later
// passes (ranger, guard elimination) still see it as an opaque value.
type LoopAnalyzePass struct{}

func (p *LoopAnalyzePass) Name() string { return "loop_analyze" }

func (p *LoopAnalyzePass) Run(g *Graph) error {
	for _, n := range g.Nodes() {
		if n == nil || n.kind != KLoopIV {
			continue
		}
		init, step := n.Operand(0), n.Operand(1)
		tInit, tStep := g.Infer(init), g.Infer(step)

		var specialized *Node
		switch {
		case tInit == TFloat64 && tStep == TFloat64:
			specialized = NewLoopIVFloat64(g, n.Region, init, step)
		case tInit == TInt64 && tStep == TInt64:
			specialized = NewLoopIVInt64(g, n.Region, init, step)
		default:
			continue
		}
		n.Replace(specialized)
		detachOperands(n)
	}
	return nil
}
