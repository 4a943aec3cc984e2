package hir

import "testing"

func TestFloat64RangeInferFromIntersection(t *testing.T) {
	r := NewFloat64RangeTop()
	r.Intersect(OpGt, 5)

	if got := r.Infer(OpGt, 3); got != AlwaysTrue {
		t.Fatalf("(x>5).Infer(x>3): want AlwaysTrue, got %v", got)
	}
	if got := r.Infer(OpLt, 3); got != AlwaysFalse {
		t.Fatalf("(x>5).Infer(x<3): want AlwaysFalse, got %v", got)
	}
	if got := r.Infer(OpGt, 10); got != Unknown {
		t.Fatalf("(x>5).Infer(x>10): want Unknown, got %v", got)
	}
}

// TestFloat64RangeEmptyIntersectionIsVacuouslyUnknown covers spec.md §8's
// boundary behavior: "Predicate on an empty-intersection range returns
// UNKNOWN for every query" (DESIGN.md open question #2).
func TestFloat64RangeEmptyIntersectionIsVacuouslyUnknown(t *testing.T) {
	r := NewFloat64RangeTop()
	r.Intersect(OpGt, 5)
	r.Intersect(OpLt, 3) // (5, +Inf) ∩ (-Inf, 3) = empty

	for _, op := range []Operator{OpLt, OpLe, OpGt, OpGe, OpEq, OpNe} {
		if got := r.Infer(op, 0); got != Unknown {
			t.Fatalf("empty range Infer(op=%v, 0): want Unknown, got %v", op, got)
		}
	}
}

func TestBooleanRangeInfer(t *testing.T) {
	b := NewBooleanRangeTop()
	if got := b.Infer(true); got != Unknown {
		t.Fatalf("top range Infer(true): want Unknown, got %v", got)
	}
	b.Intersect(true)
	if got := b.Infer(true); got != AlwaysTrue {
		t.Fatalf("{true}.Infer(true): want AlwaysTrue, got %v", got)
	}
	if got := b.Infer(false); got != AlwaysFalse {
		t.Fatalf("{true}.Infer(false): want AlwaysFalse, got %v", got)
	}
}
