package parse

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a parse structure violates the caller
// contract: untagged tokens, colliding indices, dangling arcs.
var ErrInvalidInput = errors.New("invalid input")

// Token is one surface token of a sentence.
type Token struct {
	// Index is the position in the sentence. Strictly increasing.
	Index int    `json:"index"`
	Text  string `json:"text"`

	// Start and End are byte offsets into the sentence text, both -1 when
	// the token has no span of its own (a word inside a contraction).
	Start int `json:"start"`
	End   int `json:"end"`

	FileName  string `json:"fileName,omitempty"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	LineEnd   int    `json:"lineEnd"`
	ColumnEnd int    `json:"columnEnd"`
}

// Located reports whether the token has its own span in the sentence text.
func (t Token) Located() bool { return t.Start >= 0 && t.Start <= t.End }

// Tag is a grammatical tag assigned by the upstream tagger.
type Tag struct {
	Code string `json:"code"`
	// OpenClass is true for open word classes (nouns, adjectives, verbs...).
	OpenClass bool `json:"openClass"`
}

// LexicalEntry is one candidate lexicon entry for a tagged token.
type LexicalEntry struct {
	Word     string   `json:"word"`
	Lemma    string   `json:"lemma"`
	Category string   `json:"category"`
	Gender   []string `json:"gender,omitempty"`
	Number   []string `json:"number,omitempty"`
}

func (e LexicalEntry) HasGender() bool { return len(e.Gender) > 0 }

func (e LexicalEntry) HasNumber() bool { return len(e.Number) > 0 }

// GenderContains reports whether g is one of the entry's genders.
func (e LexicalEntry) GenderContains(g string) bool {
	for _, v := range e.Gender {
		if v == g {
			return true
		}
	}
	return false
}

// NumberContains reports whether n is one of the entry's numbers.
func (e LexicalEntry) NumberContains(n string) bool {
	for _, v := range e.Number {
		if v == n {
			return true
		}
	}
	return false
}

// TaggedToken pairs a Token with its tag and candidate lexical entries.
// Tagged tokens are identified by pointer: two distinct pointers are two
// distinct tokens even if their fields are equal.
type TaggedToken struct {
	Token
	Tag     Tag            `json:"tag"`
	Entries []LexicalEntry `json:"entries,omitempty"`
}

// BestEntry returns the first lexical entry, the one the tagger ranked highest.
func (t *TaggedToken) BestEntry() (LexicalEntry, bool) {
	if len(t.Entries) == 0 {
		return LexicalEntry{}, false
	}
	return t.Entries[0], true
}

func (t *TaggedToken) String() string {
	return fmt.Sprintf("%d:%s/%s", t.Index, t.Text, t.Tag.Code)
}

// Arc is a labeled dependency edge from Head to Dependent.
type Arc struct {
	Head      *TaggedToken
	Dependent *TaggedToken
	Label     string
}
