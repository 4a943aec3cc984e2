package hir

// Kind is the closed enumeration of every HIR node kind. The original
// source generates this table from a preprocessor x-macro
// (CBASE_HIR_LIST in node-type.h); Go has no equivalent, so the table is
// hand-transcribed as a single ordered const block plus a parallel trait
// table indexed by Kind.
type Kind int

const (
	// Constants (leaves, no effect)
	KFloat64 Kind = iota
	KInt64
	KLongString
	KSmallString
	KBoolean
	KNil

	// High-level polymorphic
	KList
	KObjectKV
	KObject
	KClosure
	KInitCls
	KArg
	KUnary
	KArithmetic
	KCompare
	KLogical
	KTernary
	KUGet
	KUSet
	KPGet
	KPSet
	KIGet
	KISet
	KGGet
	KGSet
	KItrNew
	KItrNext
	KItrTest
	KItrDeref
	KCall
	KICall
	KPhi
	KProjection
	KOSRLoad

	// Low-level typed arithmetic/compare
	KFloat64Negate
	KFloat64Arithmetic
	KFloat64Bitwise
	KFloat64Compare
	KBooleanNot
	KBooleanLogic
	KStringCompare
	KSStringEq
	KSStringNe

	// Low-level typed memory
	KObjectFind
	KObjectUpdate
	KObjectInsert
	KListIndex
	KListInsert
	KObjectRefSet
	KObjectRefGet
	KListRefSet
	KListRefGet

	// Loop induction specializations (spec.md §4.9)
	KLoopIV
	KLoopIVFloat64
	KLoopIVInt64

	// Guard / test
	KGuard
	KTestType

	// Checkpoints
	KCheckpoint
	KStackSlot

	// Effect placeholders
	KLoopEffectPhi
	KEffectPhi
	KInitBarrier
	KEmptyWriteEffect
	KBranchStartEffect

	// Boxing
	KBox
	KUnbox

	// Casts
	KConvBoolean
	KConvNBoolean

	// Control flow
	KStart
	KEnd
	KOSRStart
	KOSREnd
	KInlineStart
	KInlineEnd
	KLoopHeader
	KLoop
	KLoopExit
	KIf
	KIfTrue
	KIfFalse
	KJump
	KFail
	KSuccess
	KReturn
	KJumpValue
	KRegion
	KCondTrap
	KTrap

	kindCount
)

// trait bits
type kindTrait struct {
	name      string
	leaf      bool
	hasEffect bool // kind-based: structurally memory-affecting
	control   bool
}

var traits = [kindCount]kindTrait{
	KFloat64:     {"float64", true, false, false},
	KInt64:       {"int64", true, false, false},
	KLongString:  {"lstring", true, false, false},
	KSmallString: {"small_string", true, false, false},
	KBoolean:     {"boolean", true, false, false},
	KNil:         {"null", true, false, false},

	KList:       {"list", false, true, false},
	KObjectKV:   {"object_kv", false, true, false},
	KObject:     {"object", false, true, false},
	KClosure:    {"closure", true, true, false},
	KInitCls:    {"init_cls", false, true, false},
	KArg:        {"arg", true, false, false},
	KUnary:      {"unary", false, false, false},
	KArithmetic: {"arithmetic", false, true, false},
	KCompare:    {"compare", false, true, false},
	KLogical:    {"logical", false, false, false},
	KTernary:    {"ternary", false, false, false},
	KUGet:       {"uget", true, false, false},
	KUSet:       {"uset", false, true, false},
	KPGet:       {"pget", false, true, false},
	KPSet:       {"pset", false, true, false},
	KIGet:       {"iget", false, true, false},
	KISet:       {"iset", false, true, false},
	KGGet:       {"gget", false, true, false},
	KGSet:       {"gset", false, true, false},
	KItrNew:     {"itr_new", false, true, false},
	KItrNext:    {"itr_next", false, true, false},
	KItrTest:    {"itr_test", false, true, false},
	KItrDeref:   {"itr_deref", false, true, false},
	KCall:       {"call", false, true, false},
	KICall:      {"icall", false, true, false},
	KPhi:        {"phi", false, true, false},
	KProjection: {"projection", false, false, false},
	KOSRLoad:    {"osr_load", true, true, false},

	KFloat64Negate:     {"float64_negate", false, false, false},
	KFloat64Arithmetic: {"float64_arithmetic", false, false, false},
	KFloat64Bitwise:    {"float64_bitwise", false, false, false},
	KFloat64Compare:    {"float64_compare", false, false, false},
	KBooleanNot:        {"boolean_not", false, false, false},
	KBooleanLogic:      {"boolean_logic", false, false, false},
	KStringCompare:     {"string_compare", false, false, false},
	KSStringEq:         {"sstring_eq", false, false, false},
	KSStringNe:         {"sstring_ne", false, false, false},

	KObjectFind:   {"object_find", false, true, false},
	KObjectUpdate: {"object_update", false, true, false},
	KObjectInsert: {"object_insert", false, true, false},
	KListIndex:    {"list_index", false, true, false},
	KListInsert:   {"list_insert", false, true, false},
	KObjectRefSet: {"object_ref_set", false, true, false},
	KObjectRefGet: {"object_ref_get", false, true, false},
	KListRefSet:   {"list_ref_set", false, true, false},
	KListRefGet:   {"list_ref_get", false, true, false},

	KLoopIV:        {"loop_iv", false, false, false},
	KLoopIVFloat64: {"loop_iv_float64", false, false, false},
	KLoopIVInt64:   {"loop_iv_int64", false, false, false},

	KGuard:    {"guard", false, false, false},
	KTestType: {"test_type", false, false, false},

	KCheckpoint: {"checkpoint", false, false, false},
	KStackSlot:  {"stack_slot", false, false, false},

	KLoopEffectPhi:     {"loop_effect_phi", false, true, false},
	KEffectPhi:         {"effect_phi", false, true, false},
	KInitBarrier:       {"init_barrier", false, true, false},
	KEmptyWriteEffect:  {"empty_write_effect", false, true, false},
	KBranchStartEffect: {"branch_start_effect", false, true, false},

	KBox:   {"box", false, false, false},
	KUnbox: {"unbox", false, false, false},

	KConvBoolean:  {"conv_boolean", false, false, false},
	KConvNBoolean: {"conv_nboolean", false, false, false},

	KStart:       {"start", false, false, true},
	KEnd:         {"end", false, false, true},
	KOSRStart:    {"osr_start", false, false, true},
	KOSREnd:      {"osr_end", false, false, true},
	KInlineStart: {"inline_start", false, false, true},
	KInlineEnd:   {"inline_end", false, false, true},
	KLoopHeader:  {"loop_header", false, false, true},
	KLoop:        {"loop", false, false, true},
	KLoopExit:    {"loop_exit", false, false, true},
	KIf:          {"if", false, false, true},
	KIfTrue:      {"if_true", false, false, true},
	KIfFalse:     {"if_false", false, false, true},
	KJump:        {"jump", false, false, true},
	KFail:        {"fail", true, false, true},
	KSuccess:     {"success", false, false, true},
	KReturn:      {"return", false, false, true},
	KJumpValue:   {"jump_value", false, false, true},
	KRegion:      {"region", false, false, true},
	KCondTrap:    {"cond_trap", false, false, true},
	KTrap:        {"trap", false, false, true},
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown_kind"
	}
	return traits[k].name
}

// IsLeaf reports whether nodes of this kind never carry operands.
func (k Kind) IsLeaf() bool { return traits[k].leaf }

// StructurallyEffectful reports whether nodes of this kind are, by
// construction, memory-affecting (spec.md §3 invariant 3: effect lists
// only ever contain nodes that are memory-affecting, checked structurally).
func (k Kind) StructurallyEffectful() bool { return traits[k].hasEffect }

// IsControl reports whether this kind belongs to the control-flow family.
func (k Kind) IsControl() bool { return traits[k].control }
