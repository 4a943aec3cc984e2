package hir

import "lavascript/internal/config"

// InlinePolicy decides whether a call site at a given depth, calling a
// callee of a given bytecode size, should be inlined into the caller's
// graph rather than compiled as an out-of-line KCall (spec.md §4.7
// "inlining (InlineStart/InlineEnd, static cap policy)"). The original
// source ties this decision to a handful of fixed thresholds rather than a
// cost model; this module keeps that shape.
type InlinePolicy struct {
	// MaxDepth bounds how many nested InlineStart/InlineEnd pairs a single
	// build may stack before every further call site falls back to KCall.
	MaxDepth int
	// MaxCalleeBytecode bounds the size of any individual callee considered
	// for inlining.
	MaxCalleeBytecode int
	// MaxTotalInlinedBytecode bounds the cumulative bytecode size already
	// inlined into the current build; once exceeded, no further call site
	// inlines regardless of how small the callee is.
	MaxTotalInlinedBytecode int
}

// DefaultInlinePolicy matches the conservative caps the teacher's own
// tiered-compile thresholds use elsewhere (internal/jit's profiler counts),
// scaled down for a single-graph build: small leaf functions inline, deep
// or large call chains fall back to an out-of-line call.
func DefaultInlinePolicy() *InlinePolicy {
	return &InlinePolicy{
		MaxDepth:                4,
		MaxCalleeBytecode:       64,
		MaxTotalInlinedBytecode: 512,
	}
}

// InlinePolicyFromConfig builds an InlinePolicy from the subset of Config
// the builder is allowed to read (interpreter.max_call_size and
// interpreter.max_stack_size), keeping MaxDepth at the teacher-derived
// default since no configuration key governs recursion depth.
func InlinePolicyFromConfig(limits config.InlinerLimits) *InlinePolicy {
	p := DefaultInlinePolicy()
	if limits.MaxCalleeBytecode > 0 {
		p.MaxCalleeBytecode = limits.MaxCalleeBytecode
	}
	if limits.MaxTotalInlinedBytecode > 0 {
		p.MaxTotalInlinedBytecode = limits.MaxTotalInlinedBytecode
	}
	return p
}

// Allow reports whether a call at the given depth, to a callee of
// calleeBytecode instructions, may be inlined given budgetUsed bytecode
// already inlined so far in this build.
func (p *InlinePolicy) Allow(depth, calleeBytecode, budgetUsed int) bool {
	if p == nil {
		return false
	}
	if depth >= p.MaxDepth {
		return false
	}
	if calleeBytecode <= 0 || calleeBytecode > p.MaxCalleeBytecode {
		return false
	}
	if budgetUsed+calleeBytecode > p.MaxTotalInlinedBytecode {
		return false
	}
	return true
}
