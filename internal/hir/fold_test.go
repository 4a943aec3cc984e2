package hir

import "testing"

func TestFoldBinaryArithConstantFloat64(t *testing.T) {
	g := NewGraph()
	a := NewFloat64(g, 3)
	b := NewFloat64(g, 4)
	add := NewArithmetic(g, OpAdd, a, b)

	result, ok := Fold(g, add)
	if !ok {
		t.Fatalf("Fold(3+4): want a fold to fire")
	}
	if result.Kind() != KFloat64 || result.Float64Value != 7 {
		t.Fatalf("Fold(3+4): want Float64(7), got %+v", result)
	}
}

func TestFoldBinaryArithSuppressesDivisionByZero(t *testing.T) {
	g := NewGraph()
	a := NewFloat64(g, 1)
	b := NewFloat64(g, 0)
	div := NewArithmetic(g, OpDiv, a, b)

	if _, ok := Fold(g, div); ok {
		t.Fatalf("Fold(1/0): want no fold (division by zero must not be constant-folded)")
	}
}

func TestFoldUnaryDoubleNegationCancels(t *testing.T) {
	g := NewGraph()
	x := NewArg(g, 0)
	neg1 := NewUnary(g, OpSub, x)
	neg2 := NewUnary(g, OpSub, neg1)

	result, ok := Fold(g, neg2)
	if !ok {
		t.Fatalf("Fold(-(-x)): want a fold to fire")
	}
	if result != x {
		t.Fatalf("Fold(-(-x)): want x itself, got node kind %v", result.Kind())
	}
}

func TestFoldCompareNilEquality(t *testing.T) {
	g := NewGraph()
	n1 := NewNil(g)
	n2 := NewNil(g)
	eq := NewCompare(g, OpEq, n1, n2)

	result, ok := Fold(g, eq)
	if !ok {
		t.Fatalf("Fold(nil == nil): want a fold to fire")
	}
	if result.Kind() != KBoolean || !result.BoolValue {
		t.Fatalf("Fold(nil == nil): want Boolean(true), got %+v", result)
	}
}

func TestFoldCompareNilInequalityAgainstNonNil(t *testing.T) {
	g := NewGraph()
	nilNode := NewNil(g)
	str := NewSmallString(g, "x")
	ne := NewCompare(g, OpNe, nilNode, str)

	result, ok := Fold(g, ne)
	if !ok {
		t.Fatalf("Fold(nil != \"x\"): want a fold to fire")
	}
	if result.Kind() != KBoolean || !result.BoolValue {
		t.Fatalf("Fold(nil != \"x\"): want Boolean(true), got %+v", result)
	}
}

func TestFoldLogicalNotOnConstants(t *testing.T) {
	g := NewGraph()
	b := NewBoolean(g, true)
	not := NewUnary(g, OpBitXor, b)

	result, ok := Fold(g, not)
	if !ok {
		t.Fatalf("Fold(!true): want a fold to fire")
	}
	if result.Kind() != KBoolean || result.BoolValue {
		t.Fatalf("Fold(!true): want Boolean(false), got %+v", result)
	}
}
