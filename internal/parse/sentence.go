package parse

import (
	"fmt"
	"sort"
)

// Structure is the parse of one sentence as seen by the term extractor.
// Implementations must be stable for the duration of one sentence's
// processing.
type Structure interface {
	// Text returns the original sentence text.
	Text() string

	// Tokens returns the tagged tokens in source order.
	Tokens() []*TaggedToken

	// Dependents returns the real dependents of t in ascending index order.
	Dependents(t *TaggedToken) []*TaggedToken

	// GoverningArc returns the arc attaching t to its governor.
	GoverningArc(t *TaggedToken) (Arc, bool)

	// Head returns the governor of t, or nil for the root.
	Head(t *TaggedToken) *TaggedToken
}

// Compile-time assertion: *Sentence satisfies Structure.
var _ Structure = (*Sentence)(nil)

// Sentence is an immutable dependency parse of a single sentence.
type Sentence struct {
	text       string
	fileName   string
	tokens     []*TaggedToken
	dependents map[*TaggedToken][]*TaggedToken
	governing  map[*TaggedToken]Arc
}

// NewSentence validates tokens and arcs and builds a Sentence. Tokens must be
// given in source order with strictly increasing indices and non-empty tags.
// Every arc must connect two tokens of the sentence and no token may have
// more than one governor.
func NewSentence(text, fileName string, tokens []*TaggedToken, arcs []Arc) (*Sentence, error) {
	known := make(map[*TaggedToken]bool, len(tokens))
	for i, t := range tokens {
		if t == nil {
			return nil, fmt.Errorf("token %d is nil: %w", i, ErrInvalidInput)
		}
		if t.Tag.Code == "" {
			return nil, fmt.Errorf("token %d (%q) has no tag: %w", t.Index, t.Text, ErrInvalidInput)
		}
		if i > 0 && t.Index <= tokens[i-1].Index {
			return nil, fmt.Errorf("token index %d collides with or precedes %d: %w", t.Index, tokens[i-1].Index, ErrInvalidInput)
		}
		known[t] = true
	}

	s := &Sentence{
		text:       text,
		fileName:   fileName,
		tokens:     tokens,
		dependents: make(map[*TaggedToken][]*TaggedToken),
		governing:  make(map[*TaggedToken]Arc, len(arcs)),
	}
	for _, a := range arcs {
		if !known[a.Head] || !known[a.Dependent] {
			return nil, fmt.Errorf("arc %q references a token outside the sentence: %w", a.Label, ErrInvalidInput)
		}
		if a.Head == a.Dependent {
			return nil, fmt.Errorf("token %d governs itself: %w", a.Head.Index, ErrInvalidInput)
		}
		if _, dup := s.governing[a.Dependent]; dup {
			return nil, fmt.Errorf("token %d has two governors: %w", a.Dependent.Index, ErrInvalidInput)
		}
		s.governing[a.Dependent] = a
		s.dependents[a.Head] = append(s.dependents[a.Head], a.Dependent)
	}
	for _, deps := range s.dependents {
		sort.Slice(deps, func(i, j int) bool { return deps[i].Index < deps[j].Index })
	}
	return s, nil
}

func (s *Sentence) Text() string { return s.text }

// FileName is the source document the sentence was read from.
func (s *Sentence) FileName() string { return s.fileName }

func (s *Sentence) Tokens() []*TaggedToken { return s.tokens }

func (s *Sentence) Dependents(t *TaggedToken) []*TaggedToken {
	return s.dependents[t]
}

func (s *Sentence) GoverningArc(t *TaggedToken) (Arc, bool) {
	a, ok := s.governing[t]
	return a, ok
}

func (s *Sentence) Head(t *TaggedToken) *TaggedToken {
	if a, ok := s.governing[t]; ok {
		return a.Head
	}
	return nil
}

// Token returns the token at the given index, or nil.
func (s *Sentence) Token(index int) *TaggedToken {
	i := sort.Search(len(s.tokens), func(i int) bool { return s.tokens[i].Index >= index })
	if i < len(s.tokens) && s.tokens[i].Index == index {
		return s.tokens[i]
	}
	return nil
}
