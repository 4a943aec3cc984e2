package hir

// Control-flow successors: for every control kind, the set of control
// nodes that consume it as a region/predecessor operand. Since the Node
// model doesn't carry explicit successor lists (only the ref list, which
// mixes value and control users), successors are derived by filtering a
// node's refs down to control-kind users that reference it as a control
// operand.
func controlSuccessors(n *Node) []*Node {
	var out []*Node
	seen := map[*Node]bool{}
	for _, r := range n.refs {
		if r.Effect {
			continue
		}
		if r.User.kind.IsControl() && !seen[r.User] {
			seen[r.User] = true
			out = append(out, r.User)
		}
	}
	return out
}

// ControlFlowRPOIterator walks every reachable control node from Start in
// reverse post-order, matching the original's ControlFlowRPOIterator used
// throughout GVN/DCE/guard-elimination (spec.md §4.8/§4.9).
type ControlFlowRPOIterator struct {
	order []*Node
	pos   int
}

// NewControlFlowRPOIterator computes the RPO of the control subgraph
// reachable from g.Start().
func NewControlFlowRPOIterator(g *Graph) *ControlFlowRPOIterator {
	var post []*Node
	visited := make(map[*Node]bool)
	var dfs func(*Node)
	dfs = func(n *Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		for _, s := range controlSuccessors(n) {
			dfs(s)
		}
		post = append(post, n)
	}
	dfs(g.Start())
	// reverse post-order = reverse of post-order
	order := make([]*Node, len(post))
	for i, n := range post {
		order[len(post)-1-i] = n
	}
	return &ControlFlowRPOIterator{order: order}
}

func (it *ControlFlowRPOIterator) HasNext() bool { return it.pos < len(it.order) }
func (it *ControlFlowRPOIterator) Value() *Node   { return it.order[it.pos] }
func (it *ControlFlowRPOIterator) Move()          { it.pos++ }

// All returns the full RPO-ordered slice (convenience for passes that
// don't need lazy iteration).
func (it *ControlFlowRPOIterator) All() []*Node { return it.order }

// ExprDFSIterator performs a post-order DFS over the operand-only subgraph
// rooted at a given expression node, the traversal GVN uses to number
// subexpressions bottom-up before visiting the root (spec.md §4.9 GVN).
type ExprDFSIterator struct {
	order []*Node
	pos   int
}

func NewExprDFSIterator(root *Node) *ExprDFSIterator {
	var post []*Node
	visited := make(map[*Node]bool)
	var dfs func(*Node)
	dfs = func(n *Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		for _, op := range n.operands {
			dfs(op)
		}
		post = append(post, n)
	}
	dfs(root)
	return &ExprDFSIterator{order: post}
}

func (it *ExprDFSIterator) HasNext() bool { return it.pos < len(it.order) }
func (it *ExprDFSIterator) Value() *Node   { return it.order[it.pos] }
func (it *ExprDFSIterator) Move()          { it.pos++ }
