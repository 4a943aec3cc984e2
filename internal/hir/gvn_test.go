package hir

import "testing"

func TestGVNDeduplicatesStructurallyEqualExpressions(t *testing.T) {
	g := NewGraph()
	start := NewStart(g)
	end := NewEnd(g)
	if err := g.Initialize(start, end); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	a := NewInt64(g, 1)
	b := NewInt64(g, 2)
	add1 := NewArithmetic(g, OpAdd, a, b)
	add2 := NewArithmetic(g, OpAdd, a, b)

	ret1 := NewReturn(g, start, add1)
	ret2 := NewReturn(g, start, add2)
	_ = ret1

	if err := (&GVNPass{}).Run(g); err != nil {
		t.Fatalf("GVNPass.Run: %v", err)
	}

	if got := ret2.Operand(1); got != add1 {
		t.Fatalf("ret2 operand: want rewired to canonical add1, got node id %d (want %d)", got.ID(), add1.ID())
	}
	if len(add2.Refs()) != 0 {
		t.Fatalf("add2: want no remaining refs after being replaced, got %d", len(add2.Refs()))
	}
}

func TestGVNKeepsStructurallyDistinctExpressions(t *testing.T) {
	g := NewGraph()
	start := NewStart(g)
	end := NewEnd(g)
	if err := g.Initialize(start, end); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	a := NewInt64(g, 1)
	b := NewInt64(g, 2)
	add := NewArithmetic(g, OpAdd, a, b)
	sub := NewArithmetic(g, OpSub, a, b)
	ret := NewReturn(g, start, add)
	ret2 := NewReturn(g, start, sub)
	_ = ret

	if err := (&GVNPass{}).Run(g); err != nil {
		t.Fatalf("GVNPass.Run: %v", err)
	}
	if ret2.Operand(1) != sub {
		t.Fatalf("sub: want left untouched since it is structurally distinct from add, got %+v", ret2.Operand(1))
	}
}
