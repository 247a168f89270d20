package lexicon

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// FormSource answers whether a surface form exists.
type FormSource interface {
	HasForm(form string) bool
}

// CaseTable decides whether a capitalized word is a common word that can be
// lowercased, as opposed to a proper noun. One table is shared by a whole
// extraction session.
type CaseTable struct {
	mu    sync.Mutex
	caser cases.Caser
	words map[string]bool
	forms FormSource
}

// NewCaseTable builds a table for lang. forms may be nil.
func NewCaseTable(lang language.Tag, forms FormSource) *CaseTable {
	return &CaseTable{
		caser: cases.Lower(lang),
		words: make(map[string]bool),
		forms: forms,
	}
}

// Lower returns the NFC-normalized lowercase form of text.
func (c *CaseTable) Lower(text string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return norm.NFC.String(c.caser.String(text))
}

// AddWord registers a known common word.
func (c *CaseTable) AddWord(w string) {
	lw := c.Lower(w)
	c.mu.Lock()
	c.words[lw] = true
	c.mu.Unlock()
}

// LoadWords registers one word per line. Blank lines and # comments are
// skipped.
func (c *CaseTable) LoadWords(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		c.AddWord(w)
	}
	return sc.Err()
}

// IsKnownCommonWord reports whether the lowercase form of text is a known
// word, either registered explicitly or present in the backing lexicon.
func (c *CaseTable) IsKnownCommonWord(text string) bool {
	lw := c.Lower(text)
	c.mu.Lock()
	known := c.words[lw]
	c.mu.Unlock()
	if known {
		return true
	}
	return c.forms != nil && c.forms.HasForm(lw)
}
