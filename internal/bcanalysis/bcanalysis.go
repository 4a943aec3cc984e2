// Package bcanalysis implements the bytecode-analysis external-collaborator
// contract spec.md §4.7 assumes the graph builder is handed: basic-block
// membership, per-block successors, loop nests, live-in sets, phi-placement
// hints, and an indicator of which instructions require a deoptimization
// checkpoint. spec.md leaves this as an implicit sidecar the builder
// "consumes"; this module gives it a first-class, independently testable
// type instead of folding it into builder.go.
package bcanalysis

import (
	"sort"

	"golang.org/x/exp/constraints"
	"modernc.org/mathutil"

	"lavascript/internal/vmregister"
)

// Source is the minimal read-only view of a compiled function the analyzer
// (and, in turn, the graph builder) needs. Built from a
// vmregister.FunctionObj's Code/Arity-derived register count by the
// builder's caller; kept as a plain struct (not an interface) so this
// package can be unit-tested against hand-built instruction slices without
// constructing a full FunctionObj.
type Source struct {
	Code         []vmregister.Instruction
	NumRegisters int
}

// Loop describes one natural loop discovered by back-edge detection.
type Loop struct {
	HeaderBlock  int   // block id of the loop header
	Blocks       []int // block ids in the loop body, header included
	BackEdgePC   int   // pc of the instruction that jumps back to the header
	InductionReg int   // FORPREP/FORLOOP counter register, or -1 if none found
	Stride       int64 // GCD-reduced step size classification (0 if unknown)
}

// Info is the analysis sidecar passed into the graph builder.
type Info struct {
	NumInstr int

	// BlockOf maps pc -> owning basic-block id.
	BlockOf []int
	// BlockStart maps block id -> first pc in that block, in ascending pc order.
	BlockStart []int
	// Successors maps block id -> successor block ids.
	Successors [][]int
	// predecessors maps block id -> predecessor block ids (derived).
	predecessors [][]int

	// LiveIn maps pc -> sorted set of register indices live on entry to
	// that instruction (computed by a standard backward fixed-point over
	// per-instruction def/use sets).
	LiveIn [][]int

	// Loops maps header block id -> its Loop record.
	Loops map[int]*Loop

	// PhiHints maps block id -> registers that are live-in at a
	// merge point (>1 predecessor) and therefore need a Phi if the graph
	// builder's frame simulation disagrees across predecessors.
	PhiHints map[int][]int

	// NeedsCheckpoint[pc] reports whether the instruction at pc is
	// polymorphic/speculative at the bytecode level and therefore needs a
	// Guard + Checkpoint when the builder specializes it (spec.md §4.7
	// "guard insertion").
	NeedsCheckpoint []bool
}

// Analyze runs the full sidecar computation over one function's bytecode.
func Analyze(src Source) *Info {
	code := src.Code
	n := len(code)
	info := &Info{NumInstr: n, Loops: map[int]*Loop{}, PhiHints: map[int][]int{}}
	if n == 0 {
		return info
	}

	leaders := computeBlockLeaders(code)
	info.BlockOf, info.BlockStart = assignBlocks(n, leaders)
	info.Successors, info.predecessors = computeSuccessors(code, info.BlockOf, info.BlockStart)
	info.LiveIn = computeLiveIn(code, src.NumRegisters)
	info.NeedsCheckpoint = computeCheckpointNeeds(code)
	info.Loops = detectLoops(code, info)
	info.PhiHints = computePhiHints(info)
	return info
}

// computeBlockLeaders finds every pc that starts a new basic block: pc 0,
// every jump/branch target, and every instruction immediately following a
// jump/branch/return (fallthrough after a possible branch is its own block).
func computeBlockLeaders(code []vmregister.Instruction) map[int]bool {
	leaders := map[int]bool{0: true}
	for pc, instr := range code {
		op := instr.OpCode()
		if targets, fallsThrough := branchTargets(code, pc); targets != nil || !fallsThrough {
			for _, t := range targets {
				if t >= 0 && t < len(code) {
					leaders[t] = true
				}
			}
			if pc+1 < len(code) {
				leaders[pc+1] = true
			}
		}
		if isTerminator(op) && pc+1 < len(code) {
			leaders[pc+1] = true
		}
	}
	return leaders
}

func assignBlocks(n int, leaders map[int]bool) (blockOf []int, blockStart []int) {
	var starts []int
	for pc := range leaders {
		starts = append(starts, pc)
	}
	sort.Ints(starts)
	blockOf = make([]int, n)
	blockStart = starts
	bi := -1
	for pc := 0; pc < n; pc++ {
		if bi+1 < len(starts) && starts[bi+1] == pc {
			bi++
		}
		blockOf[pc] = bi
	}
	return
}

func computeSuccessors(code []vmregister.Instruction, blockOf, blockStart []int) (succ, pred [][]int) {
	nb := len(blockStart)
	succ = make([][]int, nb)
	pred = make([][]int, nb)
	addEdge := func(from, to int) {
		for _, s := range succ[from] {
			if s == to {
				return
			}
		}
		succ[from] = append(succ[from], to)
		pred[to] = append(pred[to], from)
	}
	for b := 0; b < nb; b++ {
		lastPC := len(code) - 1
		if b+1 < nb {
			lastPC = blockStart[b+1] - 1
		}
		if lastPC < 0 || lastPC >= len(code) {
			continue
		}
		instr := code[lastPC]
		op := instr.OpCode()
		targets, fallsThrough := branchTargets(code, lastPC)
		for _, t := range targets {
			if t >= 0 && t < len(code) {
				addEdge(b, blockOf[t])
			}
		}
		if fallsThrough && !isTerminator(op) && lastPC+1 < len(code) {
			addEdge(b, blockOf[lastPC+1])
		}
	}
	return
}

// branchTargets returns the explicit jump target(s) of the instruction at
// pc (nil if it is not a branch) and whether control may also fall through
// to pc+1 (true for conditional branches and anything that isn't an
// unconditional jump/return).
func branchTargets(code []vmregister.Instruction, pc int) (targets []int, fallsThrough bool) {
	instr := code[pc]
	op := instr.OpCode()
	sBx := func() int { return int(instr.Bx()) - int(vmregister.MAXARG_sBx) }
	sC := func() int { return int(int8(instr.C())) }
	switch op {
	case vmregister.OP_JMP, vmregister.OP_JMP_HOT, vmregister.OP_JMP_INTLOOP:
		return []int{pc + 1 + sBx()}, false
	case vmregister.OP_TEST, vmregister.OP_TESTSET,
		vmregister.OP_EQJ, vmregister.OP_NEJ, vmregister.OP_LTJ, vmregister.OP_LEJ:
		return []int{pc + 1 + sBx()}, true
	case vmregister.OP_EQJK, vmregister.OP_NEJK, vmregister.OP_LTJK, vmregister.OP_LEJK,
		vmregister.OP_GTJK, vmregister.OP_GEJK:
		return []int{pc + 1 + sC()}, true
	case vmregister.OP_FORLOOP, vmregister.OP_ITERNEXT:
		return []int{pc + 1 + sBx()}, true
	case vmregister.OP_FORPREP, vmregister.OP_TRY:
		return []int{pc + 1 + sBx()}, false
	case vmregister.OP_RETURN, vmregister.OP_TAILCALL:
		return nil, false
	default:
		return nil, true
	}
}

func isTerminator(op vmregister.OpCode) bool {
	switch op {
	case vmregister.OP_RETURN, vmregister.OP_TAILCALL,
		vmregister.OP_JMP, vmregister.OP_JMP_HOT, vmregister.OP_JMP_INTLOOP, vmregister.OP_FORPREP:
		return true
	default:
		return false
	}
}

// computeLiveIn runs a standard backward liveness dataflow: LiveIn[pc] =
// (LiveOut[pc] - Def[pc]) ∪ Use[pc], LiveOut[pc] = union of LiveIn of pc's
// control successors (approximated here instruction-by-instruction: for
// straight-line code LiveOut[pc] = LiveIn[pc+1]; at a branch, the union of
// LiveIn at every possible successor pc).
func computeLiveIn(code []vmregister.Instruction, numRegisters int) [][]int {
	n := len(code)
	live := make([]map[int]bool, n)
	for i := range live {
		live[i] = map[int]bool{}
	}
	changed := true
	for changed {
		changed = false
		for pc := n - 1; pc >= 0; pc-- {
			out := map[int]bool{}
			targets, fallsThrough := branchTargets(code, pc)
			for _, t := range targets {
				if t >= 0 && t < n {
					for r := range live[t] {
						out[r] = true
					}
				}
			}
			if fallsThrough && pc+1 < n {
				for r := range live[pc+1] {
					out[r] = true
				}
			}
			def, use := defUse(code[pc])
			in := map[int]bool{}
			for r := range out {
				if !def[r] {
					in[r] = true
				}
			}
			for r := range use {
				in[r] = true
			}
			if !sameRegSet(in, live[pc]) {
				live[pc] = in
				changed = true
			}
		}
	}
	out := make([][]int, n)
	for pc := range live {
		out[pc] = sortedKeys(live[pc])
	}
	return out
}

func sameRegSet(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func sortedKeys[T constraints.Ordered](m map[T]bool) []T {
	out := make([]T, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// defUse extracts the register def/use set of one instruction from its
// iABC/iABx/iAsBx operand layout. Opcodes whose mnemonic ends in "K" take a
// constant-pool operand in the slot that would otherwise be a register (C
// for the *K arithmetic forms and GETTABLEK, B for SETTABLEK and the *JK
// branch-with-constant forms, whose C is a jump offset; ADDI/SUBI carry an
// immediate in C); SETTABLEK and the *JK forms read R(A) rather than
// writing it; everything else treats B and C as register
// indices whenever the instruction's arity calls for them. Control-only
// instructions (JMP, RETURN's implicit frame unwind, TRY/ENDTRY) define
// nothing and their operands, if any, are already registers handled by the
// generic A/B/C rule.
func defUse(instr vmregister.Instruction) (def, use map[int]bool) {
	def, use = map[int]bool{}, map[int]bool{}
	op := instr.OpCode()
	a, b, c := int(instr.A()), int(instr.B()), int(instr.C())
	useB, useC := true, true
	definesA, useA := true, false

	switch op {
	case vmregister.OP_ADDK, vmregister.OP_SUBK, vmregister.OP_MULK, vmregister.OP_DIVK,
		vmregister.OP_GETTABLEK, vmregister.OP_ADDI, vmregister.OP_SUBI:
		useC = false // C holds a constant index or an immediate, not a register
	case vmregister.OP_SETTABLEK:
		// R(A)[K(B)] = R(C)
		useB, definesA, useA = false, false, true
	case vmregister.OP_EQJK, vmregister.OP_NEJK, vmregister.OP_LTJK, vmregister.OP_LEJK,
		vmregister.OP_GTJK, vmregister.OP_GEJK:
		// compare R(A) with K(B); C is the jump offset
		useB, useC, definesA, useA = false, false, false, true
	case vmregister.OP_LOADK, vmregister.OP_GETGLOBAL, vmregister.OP_SETGLOBAL, vmregister.OP_CLOSURE,
		vmregister.OP_IMPORT, vmregister.OP_CLASS, vmregister.OP_LOADNIL, vmregister.OP_JMP,
		vmregister.OP_JMP_HOT, vmregister.OP_JMP_INTLOOP, vmregister.OP_TRY, vmregister.OP_ENDTRY:
		useB, useC = false, false
	case vmregister.OP_TEST, vmregister.OP_FORLOOP, vmregister.OP_FORPREP:
		useB, useC = false, false
	case vmregister.OP_RETURN, vmregister.OP_THROW, vmregister.OP_YIELD, vmregister.OP_PRINT,
		vmregister.OP_EXPORT:
		definesA, useB, useC = false, false, false
	case vmregister.OP_CALL, vmregister.OP_TAILCALL:
		// R(A) is the callee and first argument window; the call result
		// also lands in R(A), but A must be treated as used (it holds the
		// callee) as well as defined.
		useC = false
	}

	if useB {
		use[b] = true
	}
	if useC {
		use[c] = true
	}
	if op == vmregister.OP_CALL || op == vmregister.OP_TAILCALL {
		use[a] = true
	}
	if op == vmregister.OP_RETURN || useA {
		use[a] = true
	}
	if definesA {
		def[a] = true
	}
	return def, use
}

// computeCheckpointNeeds marks every instruction whose HIR specialization
// is speculative (it assumes an operand type that must be guarded) per
// spec.md §4.7's "guard insertion" responsibility: the polymorphic
// arithmetic/compare/logical family, table/property access, globals and
// calls.
func computeCheckpointNeeds(code []vmregister.Instruction) []bool {
	out := make([]bool, len(code))
	for pc, instr := range code {
		switch instr.OpCode() {
		case vmregister.OP_ADD, vmregister.OP_SUB, vmregister.OP_MUL, vmregister.OP_DIV, vmregister.OP_MOD,
			vmregister.OP_POW, vmregister.OP_ADDK, vmregister.OP_SUBK, vmregister.OP_MULK, vmregister.OP_DIVK,
			vmregister.OP_EQ, vmregister.OP_LT, vmregister.OP_LE, vmregister.OP_NEQ, vmregister.OP_GT, vmregister.OP_GE,
			vmregister.OP_GETTABLE, vmregister.OP_SETTABLE, vmregister.OP_GETTABLEK, vmregister.OP_SETTABLEK,
			vmregister.OP_GETGLOBAL, vmregister.OP_SETGLOBAL, vmregister.OP_CALL, vmregister.OP_TAILCALL,
			vmregister.OP_ITERNEXT, vmregister.OP_GETPROP, vmregister.OP_SETPROP:
			out[pc] = true
		}
	}
	return out
}

// detectLoops finds natural loops by scanning for backward edges (a branch
// whose target pc is <= its own pc) and records the induction-variable
// register for FORPREP/FORLOOP-shaped loops.
func detectLoops(code []vmregister.Instruction, info *Info) map[int]*Loop {
	loops := map[int]*Loop{}
	for pc, instr := range code {
		targets, _ := branchTargets(code, pc)
		for _, t := range targets {
			if t < 0 || t >= len(code) || t > pc {
				continue
			}
			header := info.BlockOf[t]
			l, ok := loops[header]
			if !ok {
				l = &Loop{HeaderBlock: header, InductionReg: -1}
				loops[header] = l
			}
			l.BackEdgePC = pc
			for b := header; b <= info.BlockOf[pc]; b++ {
				l.Blocks = appendUnique(l.Blocks, b)
			}
			if instr.OpCode() == vmregister.OP_FORLOOP {
				l.InductionReg = int(instr.A())
				l.Stride = reduceStride(int64(instr.A()), int64(len(l.Blocks)))
			}
		}
	}
	return loops
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// reduceStride classifies an induction variable's step against its loop's
// block-count using GCD reduction, the stride-classification helper
// DESIGN.md assigns to mathutil in this package: a coarse signal the
// builder can use to decide whether a FORLOOP's step is likely a simple
// unit stride (GCD collapses to 1) before committing to a LoopIVInt64
// specialization.
func reduceStride(step, blockCount int64) int64 {
	if step == 0 || blockCount == 0 {
		return 0
	}
	g := mathutil.GCD(step, blockCount)
	if g == 0 {
		return step
	}
	return step / g
}

// computePhiHints marks, for every block with more than one predecessor,
// the registers live-in at that block: spec.md §4.7's "phi placement
// hints" the frame-simulation step of the graph builder consults when
// deciding whether a merge needs a Phi for a given register.
func computePhiHints(info *Info) map[int][]int {
	hints := map[int][]int{}
	for b, preds := range info.predecessors {
		if len(preds) < 2 {
			continue
		}
		start := info.BlockStart[b]
		if start < 0 || start >= len(info.LiveIn) {
			continue
		}
		hints[b] = append([]int(nil), info.LiveIn[start]...)
	}
	return hints
}
