package hir

import (
	"lavascript/internal/bcanalysis"
	"lavascript/internal/vmregister"
)

// Source is one compiled function handed to the graph builder: its
// instruction stream, constant pool and declared arity, plus the
// bytecode-analysis sidecar computed over it (spec.md §4.7's external
// collaborator contract, given a first-class type in internal/bcanalysis).
type Source struct {
	Code      []vmregister.Instruction
	Constants []vmregister.Value
	Arity     int
	Analysis  *bcanalysis.Info
}

// CalleeLookup resolves a call site (by constant-pool prototype index) to
// the callee's own Source, for the inliner to consider. Returns ok=false
// when the callee is not statically known (closures captured dynamically,
// recursive self-calls past the first frame, …), in which case the call is
// always built as an out-of-line KCall.
type CalleeLookup func(protoIndex int) (Source, bool)

// Builder simulates one function's abstract register frame over its
// bytecode, emitting HIR opcode by opcode: on-the-fly folding, guard/
// checkpoint insertion at speculative ops, and control construction
// (If/Phi, Loop/LoopHeader/LoopExit), per spec.md §4.7. Blocks are
// simulated in ascending block-id order, which is also program (pc) order:
// every non-loop merge's predecessors precede it in this order, so their
// register snapshots are already available; loop headers are the one case
// where a predecessor (the loop latch) comes later, handled by a
// back-edge fixup pass once every block has been built.
type Builder struct {
	g       *Graph
	src     Source
	inliner *InlinePolicy
	resolve CalleeLookup
	depth   int
	inlined int // cumulative inlined-callee bytecode budget used so far

	regs       [][]*Node             // per-block register snapshot at block entry
	edgeOut    map[int]map[int]*Node // edgeOut[fromBlock][toBlock] = control node flowing along that edge
	headers    map[int]*Node         // loop header block id -> its LoopHeader/OSREnd node
	built      []bool
	regCount   int         // fixed register-file size for this function, computed once in NewBuilder
	entryBlock int         // block simulation starts at: 0 for Build/buildInlineBody, the target loop header for BuildOSR
	onReturn   func(*Node) // invoked by buildReturn; wired to End.AddOperand for a top-level build, or to a returns accumulator for an inlined one
}

// NewBuilder constructs a builder for src. inliner and resolve may both be
// nil, in which case every call site becomes an out-of-line KCall.
func NewBuilder(g *Graph, src Source, inliner *InlinePolicy, resolve CalleeLookup) *Builder {
	regCount := src.Arity
	// +16: LOADNIL/CALL address registers past their own A/B operand value
	// (A+count rather than the raw field), so the raw per-field scan
	// undercounts by however wide the widest such range is; this margin
	// covers the ranges actually emitted by the bytecode compiler, and
	// ensure() in buildInstr is a fallback for the rest.
	if n := maxRegisterIndex(src.Code) + 1 + 16; n > regCount {
		regCount = n
	}
	return &Builder{
		g:        g,
		src:      src,
		inliner:  inliner,
		resolve:  resolve,
		edgeOut:  map[int]map[int]*Node{},
		headers:  map[int]*Node{},
		regCount: regCount,
	}
}

// maxRegisterIndex scans every instruction's A/B/C fields (ignoring Bx/sBx,
// which never address registers) for the highest register slot the function
// touches, so the builder can size every block's register snapshot once up
// front instead of growing slices mid-simulation.
func maxRegisterIndex(code []vmregister.Instruction) int {
	max := -1
	for _, instr := range code {
		for _, v := range [3]int{int(instr.A()), int(instr.B()), int(instr.C())} {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// Build runs frame simulation over every reachable basic block and wires
// Start/End, returning the graph's End node. g must be freshly allocated
// (NewGraph()); Build calls g.Initialize exactly once.
func (b *Builder) Build() (*Node, error) {
	start := NewStart(b.g)
	end := NewEnd(b.g)
	if err := b.g.Initialize(start, end); err != nil {
		return nil, err
	}
	b.onReturn = func(ret *Node) { end.AddOperand(ret) }

	initial := make([]*Node, b.regCount)
	for i := 0; i < b.src.Arity; i++ {
		initial[i] = NewArg(b.g, i)
	}
	if err := b.run(0, start, initial); err != nil {
		return nil, err
	}
	return end, nil
}

// BuildOSR builds a graph entering directly at headerBlock rather than at
// the function's first instruction, for on-stack replacement out of a loop
// already running in the interpreter (spec.md §4.7 "OSR"): the entry
// control is OSRStart/OSREnd instead of Start, and every register live at
// headerBlock is rematerialized with OSRLoad instead of being produced by
// simulating the bytecode that precedes the loop (that bytecode already ran
// in the interpreter before the loop got hot enough to trigger OSR).
func (b *Builder) BuildOSR(headerBlock int) (*Node, error) {
	info := b.src.Analysis
	if info == nil || headerBlock < 0 || headerBlock >= len(info.BlockStart) {
		return nil, errInternal("BuildOSR: block %d out of range for this function", headerBlock)
	}

	osrStart := NewOSRStart(b.g)
	end := NewEnd(b.g)
	if err := b.g.Initialize(osrStart, end); err != nil {
		return nil, err
	}
	b.onReturn = func(ret *Node) { end.AddOperand(ret) }

	live := map[int]bool{}
	if headerBlock < len(info.BlockStart) {
		startPC := info.BlockStart[headerBlock]
		if startPC >= 0 && startPC < len(info.LiveIn) {
			for _, r := range info.LiveIn[startPC] {
				live[r] = true
			}
		}
	}
	for _, r := range info.PhiHints[headerBlock] {
		live[r] = true
	}
	initial := make([]*Node, b.regCount)
	for r := range live {
		if r >= 0 && r < len(initial) {
			initial[r] = NewOSRLoad(b.g, r)
		}
	}
	for i := range initial {
		if initial[i] == nil {
			initial[i] = NewNil(b.g)
		}
	}

	osrEnd := NewOSREnd(b.g, osrStart)
	if err := b.run(headerBlock, osrEnd, initial); err != nil {
		return nil, err
	}
	return end, nil
}

// buildInlineBody runs frame simulation for a callee being spliced in as an
// inline region: entry is the InlineStart node, args are the caller's
// actual argument nodes bound directly in place of the callee's KArg
// placeholders (the substitution that makes this an inline rather than an
// out-of-line call), and the returned slice is every Return built inside
// the callee, for the caller to pass to NewInlineEnd.
func (b *Builder) buildInlineBody(entry *Node, args []*Node) ([]*Node, error) {
	var returns []*Node
	b.onReturn = func(ret *Node) { returns = append(returns, ret) }

	initial := make([]*Node, b.regCount)
	for i := 0; i < b.regCount; i++ {
		if i < len(args) {
			initial[i] = args[i]
		} else {
			initial[i] = NewNil(b.g)
		}
	}
	if err := b.run(0, entry, initial); err != nil {
		return nil, err
	}
	return returns, nil
}

// run drives block-by-block simulation from entry with the given initial
// entryBlock-register snapshot; shared by Build (top-level function),
// buildInlineBody (a spliced-in callee) and BuildOSR (a loop entered
// directly via on-stack replacement).
func (b *Builder) run(entryBlock int, entry *Node, initial []*Node) error {
	info := b.src.Analysis
	if info == nil || info.NumInstr == 0 {
		return nil
	}

	nb := len(info.BlockStart)
	b.regs = make([][]*Node, nb)
	b.built = make([]bool, nb)
	b.entryBlock = entryBlock
	preds := derivePredecessors(info)

	b.regs[entryBlock] = initial
	b.edgeOut[-1] = map[int]*Node{entryBlock: entry}

	for blk := entryBlock; blk < nb; blk++ {
		if blk != entryBlock && len(preds[blk]) == 0 {
			continue // never reached by any forward or back edge: dead block
		}
		b.buildBlock(blk, info, preds)
	}

	// Back-patch loop headers' latch predecessors (program-order blocks at
	// or after the header that branch back into it).
	for header, node := range b.headers {
		for _, p := range preds[header] {
			if p < header {
				continue // forward predecessor, already wired at header construction
			}
			if edges, ok := b.edgeOut[p]; ok {
				if c, ok := edges[header]; ok {
					node.AddOperand(c)
				}
			}
		}
	}
	return nil
}

// derivePredecessors rebuilds predecessor lists from bcanalysis's exported
// Successors table (Info's own predecessor cache is an unexported
// derivation detail of that package).
func derivePredecessors(info *bcanalysis.Info) [][]int {
	nb := len(info.Successors)
	preds := make([][]int, nb)
	for from, succs := range info.Successors {
		for _, to := range succs {
			preds[to] = append(preds[to], from)
		}
	}
	return preds
}

func (b *Builder) buildBlock(blk int, info *bcanalysis.Info, preds [][]int) {
	if b.built[blk] {
		return
	}
	b.built[blk] = true

	entry, regs := b.buildEntry(blk, info, preds)

	start := info.BlockStart[blk]
	end := info.NumInstr
	if blk+1 < len(info.BlockStart) {
		end = info.BlockStart[blk+1]
	}

	ctrl := entry
	var branchTrue, branchFalse *Node
	for pc := start; pc < end; pc++ {
		ctrl, branchTrue, branchFalse = b.buildInstr(pc, &regs, ctrl, info)
	}
	b.regs[blk] = regs
	b.wireSuccessors(blk, info, ctrl, branchTrue, branchFalse)
}

// wireSuccessors maps this block's terminal control node(s) onto its
// bcanalysis-reported successor block ids and records them in edgeOut.
// computeSuccessors in internal/bcanalysis always appends explicit branch
// targets before any fallthrough edge, so Successors[blk][0] is the taken
// target and, when present, Successors[blk][1] is the not-taken/
// fallthrough block.
func (b *Builder) wireSuccessors(blk int, info *bcanalysis.Info, ctrl, branchTrue, branchFalse *Node) {
	succs := info.Successors[blk]
	out := map[int]*Node{}
	switch {
	case branchTrue != nil:
		if len(succs) > 0 {
			out[succs[0]] = branchTrue
		}
		if len(succs) > 1 {
			out[succs[1]] = branchFalse
		}
	case len(succs) >= 1:
		out[succs[0]] = ctrl
	}
	b.edgeOut[blk] = out
}

// buildEntry constructs the control node a block is entered through and
// the register snapshot simulation resumes from.
func (b *Builder) buildEntry(blk int, info *bcanalysis.Info, preds [][]int) (*Node, []*Node) {
	if blk == b.entryBlock {
		entry := b.edgeOut[-1][blk]
		b.headers[blk] = entry // registers the entry node so a back edge into it (OSR re-entering its own loop, or an ordinary function-level loop) still gets patched
		return entry, append([]*Node(nil), b.regs[blk]...)
	}
	ps := preds[blk]

	if loop, ok := info.Loops[blk]; ok && loop.HeaderBlock == blk {
		var forwardCtrl []*Node
		var forwardRegs [][]*Node
		for _, p := range ps {
			if p >= blk {
				continue // latch predecessor, fixed up after the whole function builds
			}
			if c, ok := b.edgeOut[p][blk]; ok {
				forwardCtrl = append(forwardCtrl, c)
				forwardRegs = append(forwardRegs, b.regs[p])
			}
		}
		header := NewLoopHeader(b.g, forwardCtrl...)
		b.headers[blk] = header
		return header, b.mergeRegs(blk, header, forwardRegs, info)
	}

	var ctrls []*Node
	var regSets [][]*Node
	for _, p := range ps {
		if c, ok := b.edgeOut[p][blk]; ok {
			ctrls = append(ctrls, c)
			regSets = append(regSets, b.regs[p])
		}
	}
	switch len(ctrls) {
	case 0:
		return NewRegion(b.g), make([]*Node, b.regCount)
	case 1:
		return ctrls[0], append([]*Node(nil), regSets[0]...)
	default:
		region := NewRegion(b.g, ctrls...)
		return region, b.mergeRegs(blk, region, regSets, info)
	}
}

// mergeRegs builds a Phi for every live-in register whose value disagrees
// across the merging predecessors' snapshots; info.PhiHints narrows the
// candidate set to registers actually live at this merge point (spec.md
// §4.7's phi-placement-hint consumer).
func (b *Builder) mergeRegs(blk int, region *Node, regSets [][]*Node, info *bcanalysis.Info) []*Node {
	n := b.regCount
	out := make([]*Node, n)
	if len(regSets) == 0 {
		return out
	}
	liveSet := make(map[int]bool, len(info.PhiHints[blk]))
	for _, r := range info.PhiHints[blk] {
		liveSet[r] = true
	}
	for r := 0; r < n; r++ {
		if !liveSet[r] {
			continue
		}
		var first *Node
		agree, missing := true, false
		for i, rs := range regSets {
			var v *Node
			if r < len(rs) {
				v = rs[r]
			}
			if v == nil {
				missing = true
				continue
			}
			if i == 0 || first == nil {
				first = v
			} else if v != first {
				agree = false
			}
		}
		if missing {
			continue // not defined on every incoming path: leave unspecialized
		}
		if agree {
			out[r] = first
			continue
		}
		operands := make([]*Node, len(regSets))
		for i, rs := range regSets {
			if r < len(rs) {
				operands[i] = rs[r]
			}
		}
		out[r] = NewPhi(b.g, region, operands...)
	}
	return out
}

func (b *Builder) konst(idx int) *Node {
	if idx < 0 || idx >= len(b.src.Constants) {
		return NewNil(b.g)
	}
	return constNode(b.g, b.src.Constants[idx])
}

// constNode decodes one NaN-boxed constant-pool entry into the matching
// HIR leaf constant. Heap-object constants (strings beyond the VM's own
// boxed-value accessors, prototypes, …) fall back to an empty long-string
// placeholder; the builder never folds arithmetic over those, so the
// placeholder only ever participates as an opaque operand.
func constNode(g *Graph, v vmregister.Value) *Node {
	switch {
	case vmregister.IsNumber(v):
		return NewFloat64(g, vmregister.AsNumber(v))
	case vmregister.IsNil(v):
		return NewNil(g)
	case vmregister.IsBool(v):
		return NewBoolean(g, vmregister.AsBool(v))
	case vmregister.IsString(v):
		return NewLongString(g, vmregister.AsString(v).Value)
	default:
		return NewLongString(g, "")
	}
}

// buildInstr simulates one instruction against regs, returning the control
// node execution continues with. For a conditional-branch terminator it
// also returns the taken/not-taken control nodes (branchTrue/branchFalse);
// every other opcode leaves those nil.
func (b *Builder) buildInstr(pc int, regsPtr *[]*Node, ctrl *Node, info *bcanalysis.Info) (next, branchTrue, branchFalse *Node) {
	instr := b.src.Code[pc]
	op := instr.OpCode()
	a, bb, c := int(instr.A()), int(instr.B()), int(instr.C())

	ensure := func(i int) {
		for len(*regsPtr) <= i {
			*regsPtr = append(*regsPtr, nil)
		}
	}
	set := func(i int, v *Node) { ensure(i); (*regsPtr)[i] = v }
	get := func(i int) *Node {
		regs := *regsPtr
		if i < 0 || i >= len(regs) {
			return nil
		}
		return regs[i]
	}

	if ao, ok := arithOperator(op); ok {
		return b.buildArithmetic(pc, ao, a, bb, c, get, set, ctrl, info), nil, nil
	}
	if isBranchOpcode(op) {
		t, f := b.buildBranch(op, a, bb, c, get, ctrl)
		return t, t, f
	}

	switch op {
	case vmregister.OP_MOVE:
		set(a, get(bb))
	case vmregister.OP_LOADK:
		set(a, b.konst(int(instr.Bx())))
	case vmregister.OP_LOADBOOL:
		set(a, NewBoolean(b.g, bb != 0))
	case vmregister.OP_LOADNIL:
		for i := a; i <= a+bb; i++ {
			set(i, NewNil(b.g))
		}
	case vmregister.OP_NOT:
		set(a, foldOrNode(b.g, NewBooleanNot(b.g, get(bb))))
	case vmregister.OP_ADDI:
		set(a, foldOrNode(b.g, NewArithmetic(b.g, OpAdd, get(bb), NewFloat64(b.g, float64(int8(c))))))
	case vmregister.OP_SUBI:
		set(a, foldOrNode(b.g, NewArithmetic(b.g, OpSub, get(bb), NewFloat64(b.g, float64(int8(c))))))
	case vmregister.OP_INCR:
		set(a, foldOrNode(b.g, NewArithmetic(b.g, OpAdd, get(a), NewFloat64(b.g, 1))))
	case vmregister.OP_DECR:
		set(a, foldOrNode(b.g, NewArithmetic(b.g, OpSub, get(a), NewFloat64(b.g, 1))))
	case vmregister.OP_CALL:
		return b.buildCall(a, bb, set, get, ctrl), nil, nil
	case vmregister.OP_RETURN:
		return b.buildReturn(a, bb, get, ctrl), nil, nil
	case vmregister.OP_FORPREP:
		// The step adjustment this opcode performs is folded into the
		// LoopIV the matching FORLOOP builds; FORPREP contributes no node.
	case vmregister.OP_FORLOOP:
		cont, exit := b.buildForLoop(a, get, set, ctrl)
		return exit, cont, exit
	case vmregister.OP_JMP, vmregister.OP_JMP_HOT, vmregister.OP_JMP_INTLOOP:
		return NewJump(b.g, ctrl), nil, nil
	case vmregister.OP_PRINT, vmregister.OP_NOP, vmregister.OP_HOTLOOP, vmregister.OP_FUNCENTY:
		// no HIR effect.
	default:
		// Unhandled opcode: affected registers stay unspecialized and any
		// block depending on them remains interpreted (spec.md §7
		// Bailout: "a pass encounters a shape it does not support").
	}
	return ctrl, nil, nil
}

type arithOp struct {
	operator Operator
	compare  bool
}

func arithOperator(op vmregister.OpCode) (arithOp, bool) {
	switch op {
	case vmregister.OP_ADD:
		return arithOp{OpAdd, false}, true
	case vmregister.OP_SUB:
		return arithOp{OpSub, false}, true
	case vmregister.OP_MUL:
		return arithOp{OpMul, false}, true
	case vmregister.OP_DIV:
		return arithOp{OpDiv, false}, true
	case vmregister.OP_MOD:
		return arithOp{OpMod, false}, true
	case vmregister.OP_POW:
		return arithOp{OpPow, false}, true
	case vmregister.OP_EQ:
		return arithOp{OpEq, true}, true
	case vmregister.OP_NEQ:
		return arithOp{OpNe, true}, true
	case vmregister.OP_LT:
		return arithOp{OpLt, true}, true
	case vmregister.OP_LE:
		return arithOp{OpLe, true}, true
	case vmregister.OP_GT:
		return arithOp{OpGt, true}, true
	case vmregister.OP_GE:
		return arithOp{OpGe, true}, true
	default:
		return arithOp{}, false
	}
}

func isBranchOpcode(op vmregister.OpCode) bool {
	switch op {
	case vmregister.OP_TEST, vmregister.OP_TESTSET,
		vmregister.OP_EQJ, vmregister.OP_NEJ, vmregister.OP_LTJ, vmregister.OP_LEJ,
		vmregister.OP_EQJK, vmregister.OP_NEJK, vmregister.OP_LTJK, vmregister.OP_LEJK,
		vmregister.OP_GTJK, vmregister.OP_GEJK:
		return true
	default:
		return false
	}
}

// buildArithmetic emits the folded result when the operands fold at build
// time, and the polymorphic Arithmetic/Compare node when the instruction
// needs no checkpoint. Otherwise it speculates: a TestType + Checkpoint
// guard on each operand against the profiled shape (spec.md §4.7's "guard
// insertion"), Unbox into the raw float64 view the guards just proved, the specialized
// Float64Arithmetic/Float64Compare op, and a Box back to the generic boxed
// representation every register slot is stored in (spec.md §4.7's "Box/
// Unbox placement at generic/specialized boundaries" — registers must stay
// readable along the unspecialized/deopt path, so the specialized op never
// itself occupies a register).
func (b *Builder) buildArithmetic(pc int, ao arithOp, a, lhs, rhs int,
	get func(int) *Node, set func(int, *Node), ctrl *Node, info *bcanalysis.Info) *Node {

	l, r := get(lhs), get(rhs)
	var generic *Node
	if ao.compare {
		generic = NewCompare(b.g, ao.operator, l, r)
	} else {
		generic = NewArithmetic(b.g, ao.operator, l, r)
	}
	if folded, ok := Fold(b.g, generic); ok {
		set(a, folded)
		return ctrl
	}
	if info.NeedsCheckpoint == nil || pc >= len(info.NeedsCheckpoint) || !info.NeedsCheckpoint[pc] || l == nil || r == nil {
		set(a, generic)
		return ctrl
	}

	checkpoint := BuildCheckpoint(b.g, regsSnapshot(get))
	NewGuard(b.g, NewTestType(b.g, l, TFloat64), checkpoint, ctrl)
	NewGuard(b.g, NewTestType(b.g, r, TFloat64), checkpoint, ctrl)

	ul, ur := NewUnbox(b.g, l, TFloat64), NewUnbox(b.g, r, TFloat64)
	var spec *Node
	resultType := TFloat64
	if ao.compare {
		spec = NewFloat64Compare(b.g, ao.operator, ul, ur)
		resultType = TBoolean
	} else {
		spec = NewFloat64Arithmetic(b.g, ao.operator, ul, ur)
	}
	set(a, NewBox(b.g, spec, resultType))
	return ctrl
}

// regsSnapshot materializes a live-register window for a Checkpoint. The
// builder only has a closure accessor in scope at this point in the
// instruction loop, not the backing slice, so it probes a fixed window;
// slots beyond the function's real register count simply read nil and
// BuildCheckpoint skips them.
func regsSnapshot(get func(int) *Node) []*Node {
	const probeWindow = 64
	out := make([]*Node, probeWindow)
	for i := range out {
		out[i] = get(i)
	}
	return out
}

func foldOrNode(g *Graph, n *Node) *Node {
	if r, ok := Fold(g, n); ok {
		return r
	}
	return n
}

// buildBranch emits the condition Compare/test and the If node, returning
// (takenControl, notTakenControl).
func (b *Builder) buildBranch(op vmregister.OpCode, a, lhs, c int, get func(int) *Node, ctrl *Node) (*Node, *Node) {
	var cond *Node
	switch op {
	case vmregister.OP_TEST:
		cond = get(a)
		if c != 0 {
			cond = foldOrNode(b.g, NewBooleanNot(b.g, cond))
		}
	case vmregister.OP_TESTSET:
		cond = get(lhs)
	case vmregister.OP_EQJ:
		cond = foldOrNode(b.g, NewCompare(b.g, OpEq, get(a), get(lhs)))
	case vmregister.OP_NEJ:
		cond = foldOrNode(b.g, NewCompare(b.g, OpNe, get(a), get(lhs)))
	case vmregister.OP_LTJ:
		cond = foldOrNode(b.g, NewCompare(b.g, OpLt, get(a), get(lhs)))
	case vmregister.OP_LEJ:
		cond = foldOrNode(b.g, NewCompare(b.g, OpLe, get(a), get(lhs)))
	case vmregister.OP_EQJK:
		cond = foldOrNode(b.g, NewCompare(b.g, OpEq, get(a), b.konst(lhs)))
	case vmregister.OP_NEJK:
		cond = foldOrNode(b.g, NewCompare(b.g, OpNe, get(a), b.konst(lhs)))
	case vmregister.OP_LTJK:
		cond = foldOrNode(b.g, NewCompare(b.g, OpLt, get(a), b.konst(lhs)))
	case vmregister.OP_LEJK:
		cond = foldOrNode(b.g, NewCompare(b.g, OpLe, get(a), b.konst(lhs)))
	case vmregister.OP_GTJK:
		cond = foldOrNode(b.g, NewCompare(b.g, OpGt, get(a), b.konst(lhs)))
	case vmregister.OP_GEJK:
		cond = foldOrNode(b.g, NewCompare(b.g, OpGe, get(a), b.konst(lhs)))
	}
	_, ifTrue, ifFalse := NewIf(b.g, cond, ctrl)
	return ifTrue, ifFalse
}

// buildForLoop emits the loop-continuation and loop-exit control nodes for
// a FORLOOP terminator, returning (continuation, exit): continuation feeds
// the back edge into the loop header (bcanalysis reports it as this
// block's first successor), exit feeds the block reached once the
// induction variable's bound test fails.
func (b *Builder) buildForLoop(a int, get func(int) *Node, set func(int, *Node), ctrl *Node) (*Node, *Node) {
	counter, step := get(a), get(a+2)
	iv := NewLoopIV(b.g, ctrl, counter, step)
	set(a, iv)
	loop := NewLoop(b.g, ctrl)
	exit := NewLoopExit(b.g, loop)
	return loop, exit
}

func (b *Builder) buildCall(a, argc int, set func(int, *Node), get func(int) *Node, ctrl *Node) *Node {
	callee := get(a)
	var args []*Node
	for i := 1; i < argc; i++ {
		args = append(args, get(a+i))
	}
	if result, ok := b.tryInline(callee, args, ctrl); ok {
		set(a, result)
		return ctrl
	}
	n := NewGeneric(b.g, KCall)
	n.AddOperand(callee)
	for _, arg := range args {
		n.AddOperand(arg)
	}
	set(a, n)
	return ctrl
}

// tryInline consults the inliner policy and, given a statically resolvable
// callee small enough under the current budget, builds it as a nested
// InlineStart/InlineEnd region instead of an out-of-line KCall (spec.md
// §4.7 "inlining").
func (b *Builder) tryInline(callee *Node, args []*Node, ctrl *Node) (*Node, bool) {
	if b.inliner == nil || b.resolve == nil || callee == nil {
		return nil, false
	}
	calleeSrc, ok := b.resolve(callee.Index)
	if !ok {
		return nil, false
	}
	if !b.inliner.Allow(b.depth, len(calleeSrc.Code), b.inlined) {
		return nil, false
	}
	inlineStart := NewInlineStart(b.g, ctrl)
	sub := NewBuilder(b.g, calleeSrc, b.inliner, b.resolve)
	sub.depth = b.depth + 1
	sub.inlined = b.inlined + len(calleeSrc.Code)
	returns, err := sub.buildInlineBody(inlineStart, args)
	if err != nil {
		return nil, false
	}
	end := NewInlineEnd(b.g, inlineStart, returns...)
	b.inlined += len(calleeSrc.Code)
	return end, true
}

func (b *Builder) buildReturn(a, count int, get func(int) *Node, ctrl *Node) *Node {
	var value *Node
	if count > 1 {
		value = get(a)
	}
	ret := NewReturn(b.g, ctrl, value)
	if b.onReturn != nil {
		b.onReturn(ret)
	}
	return ret
}
