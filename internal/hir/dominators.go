package hir

// Dominators computes and caches dominator sets for the control subgraph of
// one Graph, grounded directly on the original source's
// src/cbase/dominators.h/.cc (Dom(n) = {n} ∪ ⋂ Dom(preds), spec.md §4.8).
type Dominators struct {
	sets map[*Node][]*Node
	rpoIndex map[*Node]int
}

// NewDominators builds an empty Dominators; call Build to (re)compute.
func NewDominators() *Dominators {
	return &Dominators{sets: make(map[*Node][]*Node)}
}

func controlPreds(n *Node) []*Node {
	var preds []*Node
	for _, op := range n.operands {
		if op != nil && op.kind.IsControl() {
			preds = append(preds, op)
		}
	}
	return preds
}

// Build computes dominator sets to a fixed point over RPO. Can be called
// multiple times whenever the graph changes.
func (d *Dominators) Build(g *Graph) {
	rpo := NewControlFlowRPOIterator(g).All()
	d.rpoIndex = make(map[*Node]int, len(rpo))
	for i, n := range rpo {
		d.rpoIndex[n] = i
	}
	d.sets = make(map[*Node][]*Node, len(rpo))
	start := g.Start()
	if start != nil {
		d.sets[start] = []*Node{start}
	}
	changed := true
	for changed {
		changed = false
		for _, n := range rpo {
			if n == start {
				continue
			}
			preds := controlPreds(n)
			var newSet []*Node
			first := true
			for _, p := range preds {
				ps, ok := d.sets[p]
				if !ok {
					continue
				}
				if first {
					newSet = append([]*Node(nil), ps...)
					first = false
				} else {
					newSet = intersectNodeSets(newSet, ps)
				}
			}
			newSet = addNodeOnce(newSet, n)
			if !first || len(preds) == 0 {
				old, had := d.sets[n]
				if !had || !sameNodeSet(old, newSet) {
					d.sets[n] = newSet
					changed = true
				}
			}
		}
	}
}

func addNodeOnce(set []*Node, n *Node) []*Node {
	for _, s := range set {
		if s == n {
			return set
		}
	}
	return append(set, n)
}

func intersectNodeSets(a, b []*Node) []*Node {
	bm := make(map[*Node]bool, len(b))
	for _, n := range b {
		bm[n] = true
	}
	var out []*Node
	for _, n := range a {
		if bm[n] {
			out = append(out, n)
		}
	}
	return out
}

func sameNodeSet(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	bm := make(map[*Node]bool, len(b))
	for _, n := range b {
		bm[n] = true
	}
	for _, n := range a {
		if !bm[n] {
			return false
		}
	}
	return true
}

// GetDominatorSet returns the dominator set for n (containing n itself).
func (d *Dominators) GetDominatorSet(n *Node) []*Node { return d.sets[n] }

// IsDominator reports whether a dominates b (a ∈ Dom(b)).
func (d *Dominators) IsDominator(a, b *Node) bool {
	for _, n := range d.sets[b] {
		if n == a {
			return true
		}
	}
	return false
}

// GetCommonDominatorSet returns Dom(a) ∩ Dom(b).
func (d *Dominators) GetCommonDominatorSet(a, b *Node) []*Node {
	return intersectNodeSets(d.sets[a], d.sets[b])
}

// ImmediateDominator returns the minimal element of Dom(n)\{n} by RPO
// distance (the dominator with the largest RPO index, i.e. closest to n).
func (d *Dominators) ImmediateDominator(n *Node) *Node {
	var best *Node
	bestIdx := -1
	for _, c := range d.sets[n] {
		if c == n {
			continue
		}
		if idx, ok := d.rpoIndex[c]; ok && idx > bestIdx {
			bestIdx = idx
			best = c
		}
	}
	return best
}
