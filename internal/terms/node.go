// Package terms enumerates candidate noun-phrase terms from a dependency
// parse and renders them as normalized display strings.
package terms

import (
	"sort"
	"strings"

	"github.com/dusk-indust/termex/internal/config"
	"github.com/dusk-indust/termex/internal/parse"
)

// Node is a tree fragment detached from the sentence parse: one anchor token
// and the dependents attached to it so far. Nodes are never shared between
// enumeration branches; Attach stores a clone of its argument.
type Node struct {
	token *parse.TaggedToken
	label string
	deps  []*Node
}

// NewNode builds a childless node for t attached to its governor by label.
func NewNode(t *parse.TaggedToken, label string) *Node {
	return &Node{token: t, label: label}
}

// NewKernel builds a childless node for t, labeled with the label of t's
// governing arc in s (empty for the root).
func NewKernel(t *parse.TaggedToken, s parse.Structure) *Node {
	n := &Node{token: t}
	if a, ok := s.GoverningArc(t); ok {
		n.label = a.Label
	}
	return n
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	c := &Node{token: n.token, label: n.label}
	if len(n.deps) > 0 {
		c.deps = make([]*Node, len(n.deps))
		for i, d := range n.deps {
			c.deps[i] = d.Clone()
		}
	}
	return c
}

// Attach appends a clone of dep as the last dependent.
func (n *Node) Attach(dep *Node) {
	n.deps = append(n.deps, dep.Clone())
}

// Detach removes the direct dependent anchored on the same token as dep.
// It reports whether a dependent was removed.
func (n *Node) Detach(dep *Node) bool {
	for i, d := range n.deps {
		if d.token == dep.token {
			n.deps = append(n.deps[:i:i], n.deps[i+1:]...)
			return true
		}
	}
	return false
}

func (n *Node) Token() *parse.TaggedToken { return n.token }

// Label is the label of the arc attaching the anchor to its governor.
func (n *Node) Label() string { return n.label }

// Dependents returns the direct dependents in insertion order.
func (n *Node) Dependents() []*Node {
	out := make([]*Node, len(n.deps))
	copy(out, n.deps)
	return out
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, d := range n.deps {
		d.walk(fn)
	}
}

// Indices returns the token indices of the whole subtree, sorted.
func (n *Node) Indices() []int {
	var out []int
	n.walk(func(m *Node) { out = append(out, m.token.Index) })
	sort.Ints(out)
	return out
}

// FirstToken returns the subtree token with the lowest index.
func (n *Node) FirstToken() *parse.TaggedToken {
	first := n.token
	n.walk(func(m *Node) {
		if m.token.Index < first.Index {
			first = m.token
		}
	})
	return first
}

// LastToken returns the subtree token with the highest index.
func (n *Node) LastToken() *parse.TaggedToken {
	last := n.token
	n.walk(func(m *Node) {
		if m.token.Index > last.Index {
			last = m.token
		}
	})
	return last
}

// IsContiguous reports whether the subtree covers an unbroken run of token
// indices.
func (n *Node) IsContiguous() bool {
	idx := n.Indices()
	for i := 1; i < len(idx); i++ {
		if idx[i] != idx[i-1]+1 {
			return false
		}
	}
	return true
}

// PerceivedDepth is the depth of the subtree where dependents attached by a
// zero-depth label sit at their governor's level.
func (n *Node) PerceivedDepth(zeroDepth config.StringSet) int {
	depth := 1
	for _, d := range n.deps {
		sub := d.PerceivedDepth(zeroDepth)
		if !zeroDepth.Has(d.label) {
			sub++
		}
		if sub > depth {
			depth = sub
		}
	}
	return depth
}

// String renders the subtree for debugging, e.g. "chat[petit noir[et[blanc]]]".
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	b.WriteString(n.token.Text)
	if len(n.deps) == 0 {
		return
	}
	b.WriteByte('[')
	for i, d := range n.deps {
		if i > 0 {
			b.WriteByte(' ')
		}
		d.write(b)
	}
	b.WriteByte(']')
}
