package hir

import "fmt"

// GVNPass implements global value numbering, spec.md §4.9: a single-pass
// RPO traversal over control flow; for each control region, for each
// expression rooted there (DFS over operands), a hash table keyed by
// structural hash (kind + operand ids, recursively) with equality by
// structural compare. On hit, Replace the current node by the table's
// canonical node; on miss, insert. Grounded directly on the original
// source's gvn.cc (one-pass, not iterative).
type GVNPass struct{}

func (p *GVNPass) Name() string { return "gvn" }

func (p *GVNPass) Run(g *Graph) error {
	visited := make(map[*Node]bool, g.MaxID())
	table := make(map[string]*Node, 128)

	rpo := NewControlFlowRPOIterator(g)
	for rpo.HasNext() {
		cf := rpo.Value()
		for _, expr := range cf.operands {
			if expr == nil || visited[expr] {
				continue
			}
			dfs := NewExprDFSIterator(expr)
			for dfs.HasNext() {
				sub := dfs.Value()
				if visited[sub] {
					dfs.Move()
					continue
				}
				key := structuralKey(sub)
				if tar, ok := table[key]; ok && tar != sub {
					sub.Replace(tar)
				} else if !ok {
					table[key] = sub
				}
				visited[sub] = true
				dfs.Move()
			}
		}
		rpo.Move()
	}
	return nil
}

// structuralKey computes kind + operand-id (recursively stable because
// operand ids are visited bottom-up by ExprDFSIterator before their users,
// so by the time a node's key is computed its operands already carry their
// final, de-duplicated ids) — the structural hash GVN keys on. Nodes with
// side effects or memory-effect lists only participate when their full
// effect-list shape also matches, so two effectful reads at different
// points in the effect chain are never conflated.
func structuralKey(n *Node) string {
	key := fmt.Sprintf("%d|%d|%v|%g|%d|%q|%t", n.kind, n.Op, n.Index, n.Float64Value, n.Int64Value, n.StringValue, n.BoolValue)
	for _, op := range n.operands {
		if op == nil {
			key += "|nil"
		} else {
			key += fmt.Sprintf("|%d", op.id)
		}
	}
	if n.HasSideEffect() || n.kind.StructurallyEffectful() {
		for _, e := range n.effects {
			if e == nil {
				key += "|enil"
			} else {
				key += fmt.Sprintf("|e%d", e.id)
			}
		}
	}
	return key
}
