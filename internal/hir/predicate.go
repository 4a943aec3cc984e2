package hir

import "math"

// Result is the three-valued outcome of a predicate query (spec.md §4.5).
type Result int

const (
	Unknown Result = iota
	AlwaysTrue
	AlwaysFalse
)

// Overlap is the four-way (plus Same) classification of two intervals,
// spec.md §4.5: the union/intersect algorithms switch on this.
type Overlap int

const (
	OSame Overlap = iota
	OInclude   // a is included in b
	OLExclude  // a lies entirely left of, and disjoint from, b
	ORExclude  // a lies entirely right of, and disjoint from, b
	OOverlap   // partial overlap
)

// interval is a single Float64 interval over the extended real line.
// ±Inf endpoints are always treated as open.
type interval struct {
	Lo, Hi         float64
	LoOpen, HiOpen bool
}

func (iv interval) contains(v float64) bool {
	if v < iv.Lo || (v == iv.Lo && iv.LoOpen) {
		return false
	}
	if v > iv.Hi || (v == iv.Hi && iv.HiOpen) {
		return false
	}
	return true
}

func classify(a, b interval) Overlap {
	switch {
	case a.Lo == b.Lo && a.Hi == b.Hi && a.LoOpen == b.LoOpen && a.HiOpen == b.HiOpen:
		return OSame
	case a.Hi < b.Lo || (a.Hi == b.Lo && (a.HiOpen || b.LoOpen)):
		return OLExclude
	case b.Hi < a.Lo || (b.Hi == a.Lo && (b.HiOpen || a.LoOpen)):
		return ORExclude
	case a.Lo >= b.Lo && a.Hi <= b.Hi:
		return OInclude
	default:
		return OOverlap
	}
}

// Float64Range is an ordered disjoint union of intervals over the
// extended real line (spec.md §4.5).
type Float64Range struct {
	intervals []interval
}

// NewFloat64RangeTop returns the unconstrained (top) range: (-Inf, +Inf).
func NewFloat64RangeTop() *Float64Range {
	return &Float64Range{intervals: []interval{{Lo: negInfF, Hi: posInf, LoOpen: true, HiOpen: true}}}
}

var posInf = math.Inf(1)
var negInfF = math.Inf(-1)

// Infer decides whether `variable op constant` must hold (AlwaysTrue), must
// fail (AlwaysFalse) or is undetermined (Unknown) given the current range.
func (r *Float64Range) Infer(op Operator, constant float64) Result {
	if len(r.intervals) == 0 {
		// empty intersection: vacuous, always Unknown (spec.md §8 boundary
		// behavior; DESIGN.md open-question #2).
		return Unknown
	}
	allTrue, allFalse := true, true
	for _, iv := range r.intervals {
		t := intervalSatisfies(iv, op, constant)
		switch t {
		case AlwaysTrue:
			allFalse = false
		case AlwaysFalse:
			allTrue = false
		default:
			allTrue, allFalse = false, false
		}
	}
	switch {
	case allTrue:
		return AlwaysTrue
	case allFalse:
		return AlwaysFalse
	default:
		return Unknown
	}
}

func intervalSatisfies(iv interval, op Operator, c float64) Result {
	switch op {
	case OpLt:
		if iv.Hi < c || (iv.Hi == c && iv.HiOpen) {
			return AlwaysTrue
		}
		if iv.Lo >= c {
			return AlwaysFalse
		}
		return Unknown
	case OpLe:
		if iv.Hi <= c {
			return AlwaysTrue
		}
		if iv.Lo > c || (iv.Lo == c && iv.LoOpen) {
			return AlwaysFalse
		}
		return Unknown
	case OpGt:
		if iv.Lo > c || (iv.Lo == c && iv.LoOpen) {
			return AlwaysTrue
		}
		if iv.Hi <= c {
			return AlwaysFalse
		}
		return Unknown
	case OpGe:
		if iv.Lo >= c {
			return AlwaysTrue
		}
		if iv.Hi < c || (iv.Hi == c && iv.HiOpen) {
			return AlwaysFalse
		}
		return Unknown
	case OpEq:
		if iv.Lo == iv.Hi && iv.Lo == c && !iv.LoOpen && !iv.HiOpen {
			return AlwaysTrue
		}
		if !iv.contains(c) {
			return AlwaysFalse
		}
		return Unknown
	case OpNe:
		if !iv.contains(c) {
			return AlwaysTrue
		}
		if iv.Lo == iv.Hi && iv.Lo == c {
			return AlwaysFalse
		}
		return Unknown
	default:
		return Unknown
	}
}

func constraintInterval(op Operator, c float64) interval {
	switch op {
	case OpLt:
		return interval{Lo: negInfF, Hi: c, LoOpen: true, HiOpen: true}
	case OpLe:
		return interval{Lo: negInfF, Hi: c, LoOpen: true, HiOpen: false}
	case OpGt:
		return interval{Lo: c, Hi: posInf, LoOpen: true, HiOpen: true}
	case OpGe:
		return interval{Lo: c, Hi: posInf, LoOpen: false, HiOpen: true}
	case OpEq:
		return interval{Lo: c, Hi: c, LoOpen: false, HiOpen: false}
	default:
		return interval{Lo: negInfF, Hi: posInf, LoOpen: true, HiOpen: true}
	}
}

// Intersect folds a new atomic constraint `variable op constant` into the
// range (used when entering the affirming side of a branch).
func (r *Float64Range) Intersect(op Operator, constant float64) {
	if op == OpNe {
		// x != c is the complement of a single point; represented by
		// excluding it is out of scope for this simplified union model,
		// so treat as no additional constraint (sound: Unknown stays
		// possible rather than over-constraining).
		return
	}
	constraint := constraintInterval(op, constant)
	var out []interval
	for _, iv := range r.intervals {
		if c := intersectInterval(iv, constraint); c != nil {
			out = append(out, *c)
		}
	}
	r.intervals = out
}

func intersectInterval(a, b interval) *interval {
	lo, loOpen := a.Lo, a.LoOpen
	if b.Lo > lo || (b.Lo == lo && b.LoOpen) {
		lo, loOpen = b.Lo, b.LoOpen
	}
	hi, hiOpen := a.Hi, a.HiOpen
	if b.Hi < hi || (b.Hi == hi && b.HiOpen) {
		hi, hiOpen = b.Hi, b.HiOpen
	}
	if lo > hi || (lo == hi && (loOpen || hiOpen)) {
		return nil // empty
	}
	return &interval{Lo: lo, Hi: hi, LoOpen: loOpen, HiOpen: hiOpen}
}

// Union adds the negation of `variable op constant` (the fact that holds on
// a branch's negating side) to the range as an alternative interval. The
// interval is appended as is: it is not merged with, or ordered against,
// the intervals already present.
func (r *Float64Range) Union(op Operator, constant float64) {
	r.intervals = append(r.intervals, constraintInterval(negateOp(op), constant))
}

func negateOp(op Operator) Operator {
	switch op {
	case OpLt:
		return OpGe
	case OpLe:
		return OpGt
	case OpGt:
		return OpLe
	case OpGe:
		return OpLt
	case OpEq:
		return OpNe
	case OpNe:
		return OpEq
	default:
		return op
	}
}

// BooleanRange is a subset of {true, false} (spec.md §4.5).
type BooleanRange struct {
	True, False bool
}

// NewBooleanRangeTop returns {true, false} (no information).
func NewBooleanRangeTop() *BooleanRange { return &BooleanRange{True: true, False: true} }

// Infer decides whether the range implies the variable must equal v.
func (b *BooleanRange) Infer(v bool) Result {
	switch {
	case b.True && b.False:
		return Unknown
	case v && b.True:
		return AlwaysTrue
	case !v && b.False:
		return AlwaysTrue
	case !b.True && !b.False:
		return Unknown // empty intersection: vacuous
	default:
		return AlwaysFalse
	}
}

// Intersect narrows the range to exactly {v}.
func (b *BooleanRange) Intersect(v bool) {
	if v {
		b.False = false
	} else {
		b.True = false
	}
}
