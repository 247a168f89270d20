package store

import "fmt"

// RelationKind identifies a term-to-term relation.
type RelationKind string

const (
	// RelationHead: the source term has the target as a head, i.e. the
	// target is a larger term built around the source.
	RelationHead RelationKind = "HAS_HEAD"
	// RelationExpansion: the source term has the target as an expansion.
	RelationExpansion RelationKind = "HAS_EXPANSION"
)

// Term is a unique normalized display string with aggregate counts.
type Term struct {
	Text             string `json:"text"`
	Frequency        int    `json:"frequency"`
	HeadCount        int    `json:"headCount"`
	ExpansionCount   int    `json:"expansionCount"`
	LexicalWordCount int    `json:"lexicalWordCount"`
	Marked           bool   `json:"marked,omitempty"`
}

// Context is one occurrence of a term in a source document.
type Context struct {
	Term        string `json:"term,omitempty"`
	FileName    string `json:"fileName"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
	TextSegment string `json:"textSegment"`
}

// key identifies an occurrence.
func (c Context) key() string {
	return fmt.Sprintf("%s|%s|%d|%d", c.Term, c.FileName, c.Line, c.Column)
}

// Relation is a directed edge between two terms.
type Relation struct {
	Source string       `json:"source"`
	Target string       `json:"target"`
	Kind   RelationKind `json:"kind"`
}

// Stats holds summary counts of a term base.
type Stats struct {
	TermCount     int `json:"termCount"`
	ContextCount  int `json:"contextCount"`
	RelationCount int `json:"relationCount"`
}
