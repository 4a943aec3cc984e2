package hir

import (
	"fmt"
	"io"
)

// Printer renders a Graph as a text node/edge description, spec.md §4.10
// ("a standard graph-visualizer" format). Not performance-critical; walks
// every allocated node in id order rather than RPO, so dead nodes still
// show up for debugging (useful right after a pass that's suspected of
// under-pruning).
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes one line per allocated node: id, kind, payload (when the
// kind carries one), then its operand and effect ids; dead nodes are
// marked "; dead".
func (p *Printer) Print(g *Graph) error {
	for _, n := range g.Nodes() {
		if n == nil {
			continue
		}
		if err := p.printNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printNode(n *Node) error {
	line := fmt.Sprintf("%%%d = %s%s", n.id, n.kind.String(), payloadSuffix(n))
	if operands := operandList(n.operands); operands != "" {
		line += " (" + operands + ")"
	}
	if effects := operandList(n.effects); effects != "" {
		line += " [eff: " + effects + "]"
	}
	if n.IsDead() {
		line += "  ; dead"
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}

func operandList(nodes []*Node) string {
	out := ""
	for i, op := range nodes {
		if i > 0 {
			out += ", "
		}
		if op == nil {
			out += "_"
		} else {
			out += fmt.Sprintf("%%%d", op.id)
		}
	}
	return out
}

func payloadSuffix(n *Node) string {
	switch n.kind {
	case KFloat64:
		return fmt.Sprintf("<%g>", n.Float64Value)
	case KInt64:
		return fmt.Sprintf("<%d>", n.Int64Value)
	case KSmallString, KLongString:
		return fmt.Sprintf("<%q>", n.StringValue)
	case KBoolean:
		return fmt.Sprintf("<%t>", n.BoolValue)
	case KArg, KStackSlot, KOSRLoad:
		return fmt.Sprintf("<#%d>", n.Index)
	case KArithmetic, KCompare, KLogical, KFloat64Arithmetic, KFloat64Compare,
		KBooleanLogic, KStringCompare, KFloat64Bitwise:
		return fmt.Sprintf("<%s>", opName(n.Op))
	case KBox, KUnbox, KTestType:
		return fmt.Sprintf("<%s>", n.ValueType)
	case KICall:
		return fmt.Sprintf("<intrinsic#%d>", n.Intrinsic)
	default:
		return ""
	}
}

func opName(op Operator) string {
	names := [...]string{"add", "sub", "mul", "div", "mod", "pow", "eq", "ne",
		"lt", "le", "gt", "ge", "and", "or", "band", "bor", "bxor", "shl", "shr"}
	if int(op) < 0 || int(op) >= len(names) {
		return "op?"
	}
	return names[op]
}
