package hir

import (
	"fmt"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// ExportLLVM lowers g's integer-valued subset to a textual LLVM IR module
// for external inspection tooling (opt/llc, or any LLVM-aware graph
// viewer). This is a best-effort, single-basic-block rendering: it
// faithfully translates KArg/KInt64/KArithmetic/KCompare nodes into SSA
// value instructions in node-id order (which is def-before-use for every
// value kind this builder produces) and closes the block with the first
// KReturn node's value operand, or a zero return if the graph has none.
// Control-flow kinds (If/Region/Phi/loops) have no representation here —
// a real backend lowering belongs with the bytecode compiler, not this
// inspection export — so a graph with more than one reachable control
// edge still exports, just as a flattened approximation of its straight-
// line value computations.
func ExportLLVM(g *Graph, name string) (*ir.Module, error) {
	m := ir.NewModule()
	arity := countArgs(g)

	params := make([]*ir.Param, arity)
	for i := range params {
		params[i] = ir.NewParam(fmt.Sprintf("arg%d", i), types.I64)
	}
	fn := m.NewFunc(name, types.I64, params...)
	block := fn.NewBlock("entry")

	values := map[*Node]ir.Value{}
	var retValue ir.Value
	sawReturn := false

	for _, n := range g.Nodes() {
		if n == nil || n.IsDead() {
			continue
		}
		switch n.kind {
		case KArg:
			if n.Index >= 0 && n.Index < len(params) {
				values[n] = params[n.Index]
			}
		case KInt64:
			values[n] = constant.NewInt(types.I64, n.Int64Value)
		case KFloat64:
			// Truncated to i64 for this integer-only exporter; a
			// faithful float lowering would emit types.Double SSA
			// values instead, left for when a consumer needs it.
			values[n] = constant.NewInt(types.I64, int64(n.Float64Value))
		case KArithmetic:
			lhs, lok := values[n.Operand(0)]
			rhs, rok := values[n.Operand(1)]
			if !lok || !rok {
				continue
			}
			values[n] = emitArithmetic(block, n.Op, lhs, rhs)
		case KCompare:
			lhs, lok := values[n.Operand(0)]
			rhs, rok := values[n.Operand(1)]
			if !lok || !rok {
				continue
			}
			cmp := block.NewICmp(comparePredicate(n.Op), lhs, rhs)
			values[n] = block.NewZExt(cmp, types.I64)
		case KReturn:
			if !sawReturn {
				sawReturn = true
				if v, ok := values[n.Operand(1)]; ok {
					retValue = v
				}
			}
		}
	}

	if retValue == nil {
		retValue = constant.NewInt(types.I64, 0)
	}
	block.NewRet(retValue)

	// Round-trip the generated text back through the assembler: a module
	// this package can produce but asm can't re-parse is a bug in this
	// exporter, not a usable artifact for external tooling.
	if _, err := asm.ParseString(name+".ll", m.String()); err != nil {
		return nil, fmt.Errorf("hir: generated LLVM IR for %s failed to round-trip: %w", name, err)
	}
	return m, nil
}

func countArgs(g *Graph) int {
	max := -1
	for _, n := range g.Nodes() {
		if n != nil && n.kind == KArg && n.Index > max {
			max = n.Index
		}
	}
	return max + 1
}

func emitArithmetic(block *ir.Block, op Operator, lhs, rhs ir.Value) ir.Value {
	switch op {
	case OpAdd:
		return block.NewAdd(lhs, rhs)
	case OpSub:
		return block.NewSub(lhs, rhs)
	case OpMul:
		return block.NewMul(lhs, rhs)
	case OpDiv:
		return block.NewSDiv(lhs, rhs)
	case OpMod:
		return block.NewSRem(lhs, rhs)
	case OpBitAnd:
		return block.NewAnd(lhs, rhs)
	case OpBitOr:
		return block.NewOr(lhs, rhs)
	case OpBitXor:
		return block.NewXor(lhs, rhs)
	case OpShl:
		return block.NewShl(lhs, rhs)
	case OpShr:
		return block.NewAShr(lhs, rhs)
	default:
		return lhs
	}
}

func comparePredicate(op Operator) enum.IPred {
	switch op {
	case OpEq:
		return enum.IPredEQ
	case OpNe:
		return enum.IPredNE
	case OpLt:
		return enum.IPredSLT
	case OpLe:
		return enum.IPredSLE
	case OpGt:
		return enum.IPredSGT
	case OpGe:
		return enum.IPredSGE
	default:
		return enum.IPredEQ
	}
}
