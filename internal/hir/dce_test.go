package hir

import "testing"

// buildDecidableIf constructs:
//
//	start -> If(cond) -> {IfTrue, IfFalse} -> merge Region -> Phi -> Return
//
// with cond a constant so pruneIf can decide the branch statically.
func buildDecidableIf(t *testing.T, cond bool) (g *Graph, merge, ret *Node) {
	t.Helper()
	g = NewGraph()
	start := NewStart(g)
	end := NewEnd(g)
	if err := g.Initialize(start, end); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	condNode := NewBoolean(g, cond)
	_, ifTrue, ifFalse := NewIf(g, condNode, start)
	merge = NewRegion(g, ifTrue, ifFalse)

	whenTrue := NewInt64(g, 1)
	whenFalse := NewInt64(g, 2)
	phi := NewPhi(g, merge, whenTrue, whenFalse)
	ret = NewReturn(g, merge, phi)
	return g, merge, ret
}

func TestDCEPrunesDecidableIf(t *testing.T) {
	g, merge, ret := buildDecidableIf(t, true)

	if err := (&DCEPass{}).Run(g); err != nil {
		t.Fatalf("DCEPass.Run: %v", err)
	}

	if len(merge.Operands()) != 1 {
		t.Fatalf("merge region: want 1 predecessor after pruning, got %d", len(merge.Operands()))
	}
	if merge.Operand(0) != g.Start() {
		t.Fatalf("merge region: want sole predecessor to be Start, got kind %v", merge.Operand(0).Kind())
	}

	value := ret.Operand(1)
	if value == nil || value.Kind() != KInt64 || value.Int64Value != 1 {
		t.Fatalf("return value: want collapsed Phi replaced by the live constant (1), got %+v", value)
	}
}

func TestDCEPrunesDecidableIfFalseBranch(t *testing.T) {
	g, merge, ret := buildDecidableIf(t, false)

	if err := (&DCEPass{}).Run(g); err != nil {
		t.Fatalf("DCEPass.Run: %v", err)
	}

	if len(merge.Operands()) != 1 {
		t.Fatalf("merge region: want 1 predecessor after pruning, got %d", len(merge.Operands()))
	}
	value := ret.Operand(1)
	if value == nil || value.Kind() != KInt64 || value.Int64Value != 2 {
		t.Fatalf("return value: want collapsed Phi replaced by the live constant (2), got %+v", value)
	}
}

func TestDCELeavesUndecidableIfAlone(t *testing.T) {
	g := NewGraph()
	start := NewStart(g)
	end := NewEnd(g)
	if err := g.Initialize(start, end); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	arg := NewArg(g, 0)
	_, ifTrue, ifFalse := NewIf(g, arg, start)
	merge := NewRegion(g, ifTrue, ifFalse)

	if err := (&DCEPass{}).Run(g); err != nil {
		t.Fatalf("DCEPass.Run: %v", err)
	}
	if len(merge.Operands()) != 2 {
		t.Fatalf("merge region: want untouched 2-predecessor shape for an undecidable condition, got %d", len(merge.Operands()))
	}
}
