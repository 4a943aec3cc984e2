package hir

import "testing"

// TestGuardEliminateDedupesRedundantGuard builds scenario S4 (spec.md §8):
// a Guard(TestType(v, Float64)) dominating a second identical guard. After
// GuardEliminatePass, the second guard is unlinked and v's ref list loses
// the entry it held for that guard's TestType operand.
func TestGuardEliminateDedupesRedundantGuard(t *testing.T) {
	g := NewGraph()
	start := NewStart(g)
	end := NewEnd(g)
	if err := g.Initialize(start, end); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	v := NewArg(g, 0)
	other := NewInt64(g, 7) // unrelated checkpoint payload, kept out of v's ref count

	test1 := NewTestType(g, v, TFloat64)
	cp1 := NewCheckpoint(g, NewStackSlot(g, other, 0))
	NewGuard(g, test1, cp1, start)

	test2 := NewTestType(g, v, TFloat64)
	cp2 := NewCheckpoint(g, NewStackSlot(g, other, 0))
	NewGuard(g, test2, cp2, start)

	wantRefs := len(v.Refs())

	if err := (&GuardEliminatePass{}).Run(g); err != nil {
		t.Fatalf("GuardEliminatePass.Run: %v", err)
	}

	if got := len(v.Refs()); got != wantRefs-1 {
		t.Fatalf("v refs: want %d (one entry dropped), got %d", wantRefs-1, got)
	}

	guards := 0
	for _, n := range g.Nodes() {
		if n != nil && n.Kind() == KGuard {
			guards++
		}
	}
	if guards != 2 {
		t.Fatalf("guard node count: want 2 (nodes aren't deleted, just unlinked), got %d", guards)
	}

	if len(test2.Refs()) != 0 {
		t.Fatalf("redundant guard's TestType: want no remaining refs, got %d", len(test2.Refs()))
	}
	if len(test1.Refs()) != 1 {
		t.Fatalf("surviving guard's TestType: want 1 ref, got %d", len(test1.Refs()))
	}
}

// TestGuardEliminateLeavesDistinctGuardsAlone checks that two guards testing
// different variables (or different type kinds) are never collapsed.
func TestGuardEliminateLeavesDistinctGuardsAlone(t *testing.T) {
	g := NewGraph()
	start := NewStart(g)
	end := NewEnd(g)
	if err := g.Initialize(start, end); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	v := NewArg(g, 0)
	w := NewArg(g, 1)

	test1 := NewTestType(g, v, TFloat64)
	NewGuard(g, test1, NewCheckpoint(g), start)

	test2 := NewTestType(g, w, TFloat64)
	NewGuard(g, test2, NewCheckpoint(g), start)

	if err := (&GuardEliminatePass{}).Run(g); err != nil {
		t.Fatalf("GuardEliminatePass.Run: %v", err)
	}

	if len(test1.Refs()) != 1 || len(test2.Refs()) != 1 {
		t.Fatalf("distinct-variable guards should both survive untouched: test1 refs=%d test2 refs=%d",
			len(test1.Refs()), len(test2.Refs()))
	}
}
