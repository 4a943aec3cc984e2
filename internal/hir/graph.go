package hir

// Graph owns exactly one arena and an id counter, and holds the Start/End
// control anchors. See spec.md §4.2.
type Graph struct {
	arena   *Arena
	nodes   []*Node
	start   *Node
	end     *Node
	nextID  int
	initOK  bool
	Trace   func(format string, args ...interface{}) // nil by default; see SPEC_FULL.md ambient-stack logging note
	tc      *typeCache
}

// NewGraph allocates an empty graph with a fresh arena.
func NewGraph() *Graph {
	return &Graph{arena: NewArena()}
}

// Arena returns the graph's owning arena.
func (g *Graph) Arena() *Arena { return g.arena }

// MaxID returns the id counter value, used to size dense auxiliary
// bit-sets/caches (type-inference cache, GVN visited set, dominator maps).
func (g *Graph) MaxID() int { return g.nextID }

// Start returns the graph's Start control anchor.
func (g *Graph) Start() *Node { return g.start }

// End returns the graph's End control anchor.
func (g *Graph) End() *Node { return g.end }

// Nodes returns every node allocated in this graph, in allocation order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Initialize records the two control anchors. May be called exactly once
// per build.
func (g *Graph) Initialize(start, end *Node) error {
	if g.initOK {
		return errInternal("Graph.Initialize called twice")
	}
	g.start, g.end = start, end
	g.initOK = true
	return nil
}

// newNode allocates a bare node of the given kind, assigns the next
// monotone id and registers it with the graph. Every typed constructor in
// ops.go funnels through this.
func (g *Graph) newNode(k Kind) *Node {
	n := &Node{kind: k, graph: g, id: g.nextID}
	g.nextID++
	g.nodes = append(g.nodes, n)
	if k.StructurallyEffectful() {
		n.hasSideEffect = true
	}
	return n
}

func (g *Graph) trace(format string, args ...interface{}) {
	if g.Trace != nil {
		g.Trace(format, args...)
	}
}
