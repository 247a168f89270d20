package terms

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dusk-indust/termex/internal/config"
	"github.com/dusk-indust/termex/internal/lexicon"
	"github.com/dusk-indust/termex/internal/parse"
)

// CaseTable tells common words from proper nouns.
type CaseTable interface {
	IsKnownCommonWord(text string) bool
	Lower(text string) string
}

// Renderer turns nodes into display strings. It is safe for concurrent use
// as long as its lexicon and case table are.
type Renderer struct {
	rules    *config.RuleSet
	lexicon  lexicon.Lexicon
	cases    CaseTable
	singular lexicon.Singularizer
}

// NewRenderer builds a renderer. lex and cases may be nil, in which case no
// canonical forms are looked up and no words are lowercased. A nil
// singularizer leaves adjectives unchanged on lookup misses.
func NewRenderer(rules *config.RuleSet, lex lexicon.Lexicon, cases CaseTable, singular lexicon.Singularizer) *Renderer {
	if singular == nil {
		singular = lexicon.Identity
	}
	return &Renderer{rules: rules, lexicon: lex, cases: cases, singular: singular}
}

// Expansion is one enumerated node together with its rendering. Rendered
// values are computed on first use and cached. An Expansion is not safe for
// concurrent use.
type Expansion struct {
	node *Node
	s    parse.Structure
	r    *Renderer

	display   *string
	tokens    []*parse.TaggedToken
	children  []*Expansion
	parents   []*Expansion
	hasTokens bool
	hasKids   bool
	hasPars   bool
}

func newExpansion(n *Node, s parse.Structure, r *Renderer) *Expansion {
	return &Expansion{node: n, s: s, r: r}
}

func (x *Expansion) Node() *Node { return x.node }

func (x *Expansion) FirstToken() *parse.TaggedToken { return x.node.FirstToken() }

func (x *Expansion) LastToken() *parse.TaggedToken { return x.node.LastToken() }

func (x *Expansion) String() string { return x.node.String() }

// Display returns the normalized text of the expansion, or "" when the
// anchor is not nominal.
func (x *Expansion) Display() string {
	if x.display == nil {
		d := x.r.render(x)
		x.display = &d
	}
	return *x.display
}

// TokenSet returns the displayed tokens in index order.
func (x *Expansion) TokenSet() []*parse.TaggedToken {
	if !x.hasTokens {
		x.hasTokens = true
		x.r.collect(x.node, x.s, 1, &x.tokens)
		sort.Slice(x.tokens, func(i, j int) bool { return x.tokens[i].Index < x.tokens[j].Index })
	}
	return x.tokens
}

// LexicalWordCount counts displayed open-class tokens.
func (x *Expansion) LexicalWordCount() int {
	n := 0
	for _, t := range x.TokenSet() {
		if t.Tag.OpenClass || x.r.rules.OpenClassTags.Has(t.Tag.Code) {
			n++
		}
	}
	return n
}

// Children returns the nominal sub-terms directly embedded in the
// expansion. A preposition is skipped in favor of its first dependent.
func (x *Expansion) Children() []*Expansion {
	if x.hasKids {
		return x.children
	}
	x.hasKids = true
	rules := x.r.rules
	for _, d := range x.node.deps {
		code := d.token.Tag.Code
		var cand *Expansion
		switch {
		case rules.PrepositionalTags.Has(code):
			if len(d.deps) > 0 {
				cand = newExpansion(d.deps[0].Clone(), x.s, x.r)
			}
		case rules.NominalTags.Has(code):
			cand = newExpansion(d.Clone(), x.s, x.r)
		}
		if cand != nil && cand.Display() != "" {
			x.children = append(x.children, cand)
		}
	}
	return x.children
}

// Parents returns the expansions obtained by dropping the outermost left
// dependent and the outermost right dependent, in that order.
func (x *Expansion) Parents() []*Expansion {
	if x.hasPars {
		return x.parents
	}
	x.hasPars = true

	anchor := x.node.token.Index
	var left, right []*Node
	for _, d := range x.node.deps {
		if d.token.Index < anchor {
			left = append(left, d)
		} else {
			right = append(right, d)
		}
	}
	byIndex := func(ns []*Node) {
		sort.SliceStable(ns, func(i, j int) bool { return ns[i].token.Index < ns[j].token.Index })
	}
	byIndex(left)
	byIndex(right)

	if len(left) > 0 {
		p := x.node.Clone()
		p.Detach(left[0])
		x.parents = append(x.parents, newExpansion(p, x.s, x.r))
	}
	if len(right) > 0 {
		p := x.node.Clone()
		p.Detach(right[len(right)-1])
		x.parents = append(x.parents, newExpansion(p, x.s, x.r))
	}
	return x.parents
}

// collect gathers displayable tokens. Determiners stay at their governor's
// display depth.
func (r *Renderer) collect(n *Node, s parse.Structure, depth int, out *[]*parse.TaggedToken) {
	if r.shouldDisplay(n, s, depth) {
		*out = append(*out, n.token)
	}
	for _, d := range n.deps {
		next := depth + 1
		if r.rules.DeterminerTags.Has(d.token.Tag.Code) {
			next = depth
		}
		r.collect(d, s, next, out)
	}
}

func (r *Renderer) shouldDisplay(n *Node, s parse.Structure, depth int) bool {
	code := n.token.Tag.Code
	if depth == 1 && r.rules.DeterminerTags.Has(code) {
		return false
	}
	if len(n.deps) == 0 && r.rules.NonStandaloneTags.Has(code) {
		return false
	}
	if len(s.Dependents(n.token)) > 0 && r.rules.NonStandaloneIfHasDependents.Has(code) {
		return false
	}
	return true
}

func (r *Renderer) render(x *Expansion) string {
	anchor := x.node.token
	if !r.rules.NominalTags.Has(anchor.Tag.Code) {
		return ""
	}

	headEntry, hasEntry := anchor.BestEntry()
	canonical := false
	gender := r.rules.CanonicalGender
	if hasEntry && headEntry.HasNumber() && !headEntry.NumberContains(r.rules.CanonicalNumber) {
		canonical = true
		if len(headEntry.Gender) == 1 {
			gender = headEntry.Gender[0]
		}
	}

	text := x.s.Text()
	var b strings.Builder
	var last *parse.TaggedToken
	lastSubstituted := false
	for _, t := range x.TokenSet() {
		word := r.normalizeCase(t.Text)
		substituted := false
		switch {
		case !canonical:
		case t == anchor:
			if e, ok := r.lookup(headEntry, t.Tag.Code, gender); ok {
				word, substituted = e.Word, e.Word != t.Text
			}
		case r.rules.AdjectivalTags.Has(t.Tag.Code) && r.modifiesAnchor(t, anchor, x.s):
			word, substituted = r.agree(t, word, gender)
		}

		switch {
		case last == nil:
		case t.Index-last.Index == 1 && !substituted && !lastSubstituted &&
			last.Located() && t.Located() && last.End <= t.Start && t.Start <= len(text):
			b.WriteString(text[last.End:t.Start])
		default:
			b.WriteByte(' ')
		}
		b.WriteString(word)
		last, lastSubstituted = t, substituted
	}
	return strings.TrimSpace(b.String())
}

func (r *Renderer) normalizeCase(word string) string {
	if r.cases == nil {
		return word
	}
	first, _ := utf8.DecodeRuneInString(word)
	if !unicode.IsUpper(first) || !r.cases.IsKnownCommonWord(word) {
		return word
	}
	return r.cases.Lower(word)
}

func (r *Renderer) lookup(e parse.LexicalEntry, tag, gender string) (parse.LexicalEntry, bool) {
	if r.lexicon == nil {
		return parse.LexicalEntry{}, false
	}
	return r.lexicon.FindCanonicalForm(e, tag, gender, r.rules.CanonicalNumber)
}

// agree brings an adjective modifying a canonicalized head to the canonical
// number. Lookup misses fall back to the singularizer.
func (r *Renderer) agree(t *parse.TaggedToken, word, gender string) (string, bool) {
	e, ok := t.BestEntry()
	if ok && e.NumberContains(r.rules.CanonicalNumber) {
		return word, false
	}
	if ok {
		if c, found := r.lookup(e, t.Tag.Code, gender); found {
			return c.Word, c.Word != t.Text
		}
	}
	s := r.singular.Singularize(word)
	return s, s != word
}

// modifiesAnchor reports whether t's governor, skipping coordination arcs,
// is the anchor.
func (r *Renderer) modifiesAnchor(t, anchor *parse.TaggedToken, s parse.Structure) bool {
	arc, ok := s.GoverningArc(t)
	if !ok {
		return false
	}
	head := arc.Head
	for head != anchor && r.rules.CoordinationLabels.Has(arc.Label) {
		arc, ok = s.GoverningArc(head)
		if !ok {
			break
		}
		head = arc.Head
	}
	return head == anchor
}
