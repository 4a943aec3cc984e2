package hir

import (
	"fmt"
	"io"
)

// DotPrinter renders a Graph as Graphviz dot source, supplementing the
// plain-text Printer (SPEC_FULL.md §10, grounded on the original source's
// dot-graph-visualizer.{h,cc}). Control edges are drawn bold, effect edges
// dashed, ordinary value edges plain — the same three-way edge distinction
// the node/edge model already carries.
type DotPrinter struct {
	w io.Writer
}

func NewDotPrinter(w io.Writer) *DotPrinter {
	return &DotPrinter{w: w}
}

func (d *DotPrinter) Print(g *Graph) error {
	if _, err := fmt.Fprintln(d.w, "digraph hir {"); err != nil {
		return err
	}
	fmt.Fprintln(d.w, `  node [shape=box, fontname="monospace"];`)

	for _, n := range g.Nodes() {
		if n == nil {
			continue
		}
		label := n.kind.String() + payloadSuffix(n)
		style := ""
		if n.kind.IsControl() {
			style = `, style=filled, fillcolor="#dbe9ff"`
		}
		if _, err := fmt.Fprintf(d.w, "  n%d [label=%q%s];\n", n.id, label, style); err != nil {
			return err
		}
		for i, op := range n.operands {
			if op == nil {
				continue
			}
			edgeStyle := ""
			if n.kind.IsControl() && op.kind.IsControl() {
				edgeStyle = ` [style=bold]`
			}
			fmt.Fprintf(d.w, "  n%d -> n%d%s; // operand %d\n", n.id, op.id, edgeStyle, i)
		}
		for _, e := range n.effects {
			if e == nil {
				continue
			}
			fmt.Fprintf(d.w, "  n%d -> n%d [style=dashed, color=gray];\n", n.id, e.id)
		}
	}
	_, err := fmt.Fprintln(d.w, "}")
	return err
}
