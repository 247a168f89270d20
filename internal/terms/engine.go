package terms

import (
	"fmt"

	"github.com/dusk-indust/termex/internal/config"
	"github.com/dusk-indust/termex/internal/logger"
	"github.com/dusk-indust/termex/internal/parse"
)

// Memo caches, per token, every expansion computed for it before top-level
// filtering. A memo belongs to one sentence and must not be shared between
// goroutines.
type Memo map[*parse.TaggedToken][]*Expansion

// Engine enumerates contiguous expansions of head tokens up to a maximum
// perceived depth.
type Engine struct {
	rules    *config.RuleSet
	maxDepth int
	renderer *Renderer
}

// NewEngine returns an engine using rules. The renderer is attached to every
// Expansion the engine produces; nil means a renderer without lexicon.
func NewEngine(rules *config.RuleSet, maxDepth int, renderer *Renderer) *Engine {
	if renderer == nil {
		renderer = NewRenderer(rules, nil, nil, nil)
	}
	return &Engine{rules: rules, maxDepth: maxDepth, renderer: renderer}
}

// MaxDepth is the deepest perceived depth an emitted expansion may have.
func (e *Engine) MaxDepth() int { return e.maxDepth }

// Renderer returns the renderer attached to produced expansions.
func (e *Engine) Renderer() *Renderer { return e.renderer }

// Expand returns the expansions of head in s. depth is the caller's recursion
// depth: at depth 0 expansions with an immediate dependent carrying a
// non-top-level label are left out of the result, though they stay in memo.
func (e *Engine) Expand(head *parse.TaggedToken, s parse.Structure, depth int, memo Memo) ([]*Expansion, error) {
	if head == nil || s == nil {
		return nil, fmt.Errorf("expand: nil head or structure: %w", ErrInvalidInput)
	}
	if memo == nil {
		memo = make(Memo)
	}
	x := &expander{Engine: e, s: s, memo: memo, visiting: make(map[*parse.TaggedToken]bool)}
	all, err := x.expansions(head)
	if err != nil {
		return nil, err
	}
	if depth > 0 {
		return all, nil
	}

	out := make([]*Expansion, 0, len(all))
	for _, exp := range all {
		if e.topLevel(exp.node) {
			out = append(out, exp)
		}
	}
	logger.Debug("expanded head", "head", head.String(), "candidates", len(all), "reported", len(out))
	return out, nil
}

func (e *Engine) topLevel(n *Node) bool {
	for _, d := range n.deps {
		if e.rules.NonTopLevelLabels.Has(d.label) {
			return false
		}
	}
	return true
}

func (e *Engine) withinDepth(n *Node) bool {
	return n.PerceivedDepth(e.rules.ZeroDepthLabels) <= e.maxDepth
}

// expander holds the state of one Expand call.
type expander struct {
	*Engine
	s        parse.Structure
	memo     Memo
	visiting map[*parse.TaggedToken]bool
}

func (x *expander) expansions(t *parse.TaggedToken) ([]*Expansion, error) {
	if cached, ok := x.memo[t]; ok {
		return cached, nil
	}
	if t.Tag.Code == "" {
		return nil, fmt.Errorf("token %d (%q) has no tag: %w", t.Index, t.Text, ErrInvalidInput)
	}
	if x.visiting[t] {
		return nil, fmt.Errorf("token %d is its own descendant: %w", t.Index, ErrInvalidInput)
	}
	x.visiting[t] = true
	defer delete(x.visiting, t)

	code := t.Tag.Code
	kernel := NewKernel(t, x.s)
	deps := x.s.Dependents(t)

	var out []*Expansion
	if !x.rules.NonStandaloneTags.Has(code) &&
		!(len(deps) > 0 && x.rules.NonStandaloneIfHasDependents.Has(code)) {
		out = append(out, x.wrap(kernel))
	}

	// Left holds the nearest dependent first, right in source order.
	var left, right [][]*Expansion
	if !x.rules.TermStopTags.Has(code) {
		for _, d := range deps {
			if d.Index == t.Index {
				return nil, fmt.Errorf("dependent of token %d shares its index: %w", t.Index, ErrInvalidInput)
			}
			sub, err := x.expansions(d)
			if err != nil {
				return nil, err
			}
			if len(sub) == 0 {
				continue
			}
			if d.Index < t.Index {
				left = append([][]*Expansion{sub}, left...)
			} else {
				right = append(right, sub)
			}
		}
	}

	out = x.sweep(kernel, left, out)
	out = x.sweep(kernel, right, out)
	if len(left) > 0 && len(right) > 0 {
		out = x.combine(kernel, left, right, out)
	}

	x.memo[t] = out
	return out, nil
}

// sweep grows kernel outward along one side. Each position starts from the
// last contiguous node built at the previous position; the sweep ends at the
// first position that yields no contiguous node.
func (x *expander) sweep(kernel *Node, side [][]*Expansion, out []*Expansion) []*Expansion {
	current := kernel
	for _, alts := range side {
		var last *Node
		for _, alt := range alts {
			n := current.Clone()
			n.Attach(alt.node)
			if !n.IsContiguous() {
				continue
			}
			if x.withinDepth(n) {
				out = append(out, x.wrap(n))
			}
			last = n
		}
		if last == nil {
			break
		}
		current = last
	}
	return out
}

// combine builds nodes carrying dependents on both sides at once.
func (x *expander) combine(kernel *Node, left, right [][]*Expansion, out []*Expansion) []*Expansion {
	baseLeft := kernel
	for _, leftAlts := range left {
		var lastLeft *Node
		for _, leftAlt := range leftAlts {
			base := baseLeft.Clone()
			base.Attach(leftAlt.node)

			for _, rightAlts := range right {
				var lastRight *Node
				for _, rightAlt := range rightAlts {
					n := base.Clone()
					n.Attach(rightAlt.node)
					if !n.IsContiguous() {
						continue
					}
					if x.withinDepth(n) {
						out = append(out, x.wrap(n))
					}
					lastRight = rightAlt.node
				}
				if lastRight == nil {
					break
				}
				next := base.Clone()
				next.Attach(lastRight)
				base = next
			}
			lastLeft = leftAlt.node
		}
		next := baseLeft.Clone()
		next.Attach(lastLeft)
		baseLeft = next
	}
	return out
}

func (x *expander) wrap(n *Node) *Expansion {
	return newExpansion(n, x.s, x.renderer)
}
