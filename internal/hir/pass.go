package hir

// Pass is the common interface every optimization pass implements
// (spec.md §4.9: "takes the graph, a debug/normal flag, returns
// success/failure and mutates in place... carries a name for dynamic
// enable/disable"). Pipeline ordering below follows the staged-pass shape
// found in the wazero SSA pass pipeline (see DESIGN.md).
type Pass interface {
	Name() string
	Run(g *Graph) error
}

// DefaultPipeline returns the canonical pass ordering for one optimizing
// compile: GVN and DCE first to shrink the graph, then loop analysis and
// its induction typing, then guard elimination and ranger inference (which
// both depend on dominators), and a second DCE run that prunes the
// branches whose conditions the ranger folded to constants.
func DefaultPipeline() []Pass {
	return []Pass{
		&GVNPass{},
		&DCEPass{},
		&LoopAnalyzePass{},
		&GuardEliminatePass{},
		&RangerPass{},
		&DCEPass{},
	}
}

// RunPasses runs every pass in order, stopping at the first failure
// (matching spec.md §5's cancellation rule: a pass may abort by returning
// failure and the enclosing compilation fails).
func RunPasses(g *Graph, passes []Pass) error {
	for _, p := range passes {
		g.trace("hir: running pass %s", p.Name())
		if err := p.Run(g); err != nil {
			return errInternal("pass %s failed: %v", p.Name(), err)
		}
	}
	return nil
}
