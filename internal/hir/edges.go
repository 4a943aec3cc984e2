package hir

// Edge-model operations, spec.md §4.3. Replace is the sole graph-rewriting
// primitive; every optimization pass in this package is built on it.

// AddOperand appends v to n's operand list and records the back-reference
// in v's ref list. If v has side effects, the flag propagates to n (and
// transitively to n's users).
func (n *Node) AddOperand(v *Node) {
	pos := len(n.operands)
	n.operands = append(n.operands, v)
	if v != nil {
		v.refs = append(v.refs, Ref{User: n, Position: pos})
		if v.hasSideEffect {
			n.markEffectful()
		}
	}
}

// ReplaceOperand locates the i-th operand u, removes (n, i) from u's refs,
// installs v in its place and records (n, i) in v's refs.
func (n *Node) ReplaceOperand(i int, v *Node) {
	if i < 0 || i >= len(n.operands) {
		return
	}
	old := n.operands[i]
	if old != nil {
		old.removeRef(n, i, false)
	}
	n.operands[i] = v
	if v != nil {
		v.refs = append(v.refs, Ref{User: n, Position: i})
		if v.hasSideEffect {
			n.markEffectful()
		}
	}
}

// AddEffect appends v to n's effect list, but only when v is structurally a
// memory-effect node (spec.md §3 invariant 3). Marks n side-effecting.
func (n *Node) AddEffect(v *Node) {
	if v == nil || !v.kind.StructurallyEffectful() {
		return
	}
	pos := len(n.effects)
	n.effects = append(n.effects, v)
	v.refs = append(v.refs, Ref{User: n, Position: pos, Effect: true})
	n.markEffectful()
}

// AddEffectIfNotExist is AddEffect with de-duplication against the current
// effect list.
func (n *Node) AddEffectIfNotExist(v *Node) {
	if v == nil {
		return
	}
	for _, e := range n.effects {
		if e == v {
			return
		}
	}
	n.AddEffect(v)
}

func (n *Node) removeRef(user *Node, pos int, effect bool) {
	for i, r := range n.refs {
		if r.User == user && r.Position == pos && r.Effect == effect {
			n.refs = append(n.refs[:i], n.refs[i+1:]...)
			return
		}
	}
}

// Replace redirects every ref of n to v: for every (user, pos) in n.refs,
// user.operand[pos] (or effect[pos]) is set to v and v gains the rewire.
// n.refs is emptied; n's own operands are left as they are. GVN, DCE,
// guard-elimination and the ranger use it for their rewrites; DCE and
// guard elimination also remove operand slots and refs directly, and the
// memory Set folds rewrite a literal's operand with ReplaceOperand.
func (n *Node) Replace(v *Node) {
	if n == v {
		return
	}
	refs := n.refs
	n.refs = nil
	for _, r := range refs {
		if r.Effect {
			if r.Position < len(r.User.effects) {
				r.User.effects[r.Position] = v
			}
		} else {
			if r.Position < len(r.User.operands) {
				r.User.operands[r.Position] = v
			}
		}
		if v != nil {
			v.refs = append(v.refs, r)
			if v.hasSideEffect {
				r.User.markEffectful()
			}
		}
	}
}
