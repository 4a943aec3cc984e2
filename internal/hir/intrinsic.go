package hir

import "math"

// IntrinsicID is the closed enumeration of builtin functions with
// dedicated HIR support, supplementing spec.md §4.6's prose list with a
// first-class type (see SPEC_FULL.md §10, grounded on the original
// source's builtin-function.h).
type IntrinsicID int

const (
	IntrinsicUnknown IntrinsicID = iota
	IntrinsicMin
	IntrinsicMax
	IntrinsicSqrt
	IntrinsicSin
	IntrinsicCos
	IntrinsicTan
	IntrinsicAbs
	IntrinsicCeil
	IntrinsicFloor
	IntrinsicBand
	IntrinsicBor
	IntrinsicBxor
	IntrinsicToString
	IntrinsicToFloat64
	IntrinsicLen
	IntrinsicPush
	IntrinsicPop
)

func intrinsicResultType(id IntrinsicID) Type {
	switch id {
	case IntrinsicMin, IntrinsicMax, IntrinsicSqrt, IntrinsicSin, IntrinsicCos,
		IntrinsicTan, IntrinsicAbs, IntrinsicCeil, IntrinsicFloor, IntrinsicLen,
		IntrinsicBand, IntrinsicBor, IntrinsicBxor, IntrinsicToFloat64:
		return TFloat64
	case IntrinsicToString:
		return TLongString
	default:
		return TUnknown
	}
}

// foldIntrinsic evaluates a pure per-intrinsic rewrite when every argument
// is a constant of the expected type, per spec.md §4.6 "Intrinsic call".
// Returns (nil, false) — leaving the ICall unfolded — on any type mismatch;
// that is an IntrinsicError-class Bailout, not a compile failure.
func foldIntrinsic(g *Graph, n *Node) (*Node, bool) {
	args := n.operands
	f64 := func(i int) (float64, bool) {
		if i >= len(args) || args[i] == nil || args[i].kind != KFloat64 {
			return 0, false
		}
		return args[i].Float64Value, true
	}
	switch n.Intrinsic {
	case IntrinsicMin, IntrinsicMax:
		a, ok1 := f64(0)
		b, ok2 := f64(1)
		if !ok1 || !ok2 {
			return nil, false
		}
		if n.Intrinsic == IntrinsicMin {
			return NewFloat64(g, math.Min(a, b)), true
		}
		return NewFloat64(g, math.Max(a, b)), true
	case IntrinsicSqrt:
		a, ok := f64(0)
		if !ok {
			return nil, false
		}
		return NewFloat64(g, math.Sqrt(a)), true
	case IntrinsicSin:
		a, ok := f64(0)
		if !ok {
			return nil, false
		}
		return NewFloat64(g, math.Sin(a)), true
	case IntrinsicCos:
		a, ok := f64(0)
		if !ok {
			return nil, false
		}
		return NewFloat64(g, math.Cos(a)), true
	case IntrinsicTan:
		a, ok := f64(0)
		if !ok {
			return nil, false
		}
		return NewFloat64(g, math.Tan(a)), true
	case IntrinsicAbs:
		a, ok := f64(0)
		if !ok {
			return nil, false
		}
		return NewFloat64(g, math.Abs(a)), true
	case IntrinsicCeil:
		a, ok := f64(0)
		if !ok {
			return nil, false
		}
		return NewFloat64(g, math.Ceil(a)), true
	case IntrinsicFloor:
		a, ok := f64(0)
		if !ok {
			return nil, false
		}
		return NewFloat64(g, math.Floor(a)), true
	case IntrinsicLen:
		if len(args) != 1 || args[0] == nil {
			return nil, false
		}
		switch args[0].kind {
		case KList:
			return NewFloat64(g, float64(len(args[0].operands))), true
		case KSmallString, KLongString:
			return NewFloat64(g, float64(len(args[0].StringValue))), true
		}
		return nil, false
	default:
		return nil, false
	}
}
