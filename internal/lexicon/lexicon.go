// Package lexicon provides the lexical lookups used when rendering terms:
// canonical-form lookup, case normalization and a singularization fallback.
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dusk-indust/termex/internal/parse"
)

// Lexicon finds the canonical inflection of a lexical entry. Implementations
// must be deterministic for identical inputs.
type Lexicon interface {
	FindCanonicalForm(entry parse.LexicalEntry, tag, gender, number string) (parse.LexicalEntry, bool)
}

// Compile-time assertions.
var (
	_ Lexicon           = (*MemLexicon)(nil)
	_ parse.EntrySource = (*MemLexicon)(nil)
)

// MemLexicon is an in-memory lexicon. Lookups return the first matching entry
// in load order.
type MemLexicon struct {
	mu      sync.RWMutex
	entries []parse.LexicalEntry
	byForm  map[string][]int
	byLemma map[lemmaKey][]int
}

type lemmaKey struct {
	lemma    string
	category string
}

func NewMemLexicon() *MemLexicon {
	return &MemLexicon{
		byForm:  make(map[string][]int),
		byLemma: make(map[lemmaKey][]int),
	}
}

// Add appends an entry.
func (l *MemLexicon) Add(e parse.LexicalEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := len(l.entries)
	l.entries = append(l.entries, e)
	l.byForm[e.Word] = append(l.byForm[e.Word], i)
	k := lemmaKey{e.Lemma, e.Category}
	l.byLemma[k] = append(l.byLemma[k], i)
}

// Len returns the number of entries.
func (l *MemLexicon) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// HasForm reports whether any entry has the given surface form.
func (l *MemLexicon) HasForm(form string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byForm[form]) > 0
}

// Entries returns the entries for a surface form, restricted to tag when tag
// is non-empty.
func (l *MemLexicon) Entries(form, tag string) []parse.LexicalEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []parse.LexicalEntry
	for _, i := range l.byForm[form] {
		e := l.entries[i]
		if tag != "" && e.Category != tag {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FindCanonicalForm returns the first entry sharing entry's lemma whose
// category is tag, whose numbers include number, and whose genders include
// gender. An empty gender, or an entry without gender, matches any gender.
func (l *MemLexicon) FindCanonicalForm(entry parse.LexicalEntry, tag, gender, number string) (parse.LexicalEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, i := range l.byLemma[lemmaKey{entry.Lemma, tag}] {
		e := l.entries[i]
		if !e.NumberContains(number) {
			continue
		}
		if gender != "" && e.HasGender() && !e.GenderContains(gender) {
			continue
		}
		return e, true
	}
	return parse.LexicalEntry{}, false
}

// LoadTSV reads entries in the form "form<TAB>tag<TAB>lemma<TAB>morph".
// Morph is a run of the letters m, f (gender) and s, p (number), or "-".
// Blank lines and lines starting with # are skipped.
func (l *MemLexicon) LoadTSV(r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 3 {
			return fmt.Errorf("lexicon line %d: expected at least 3 columns, got %d", lineNo, len(cols))
		}
		e := parse.LexicalEntry{Word: cols[0], Category: cols[1], Lemma: cols[2]}
		if len(cols) > 3 {
			if err := applyMorph(&e, cols[3]); err != nil {
				return fmt.Errorf("lexicon line %d: %w", lineNo, err)
			}
		}
		l.Add(e)
	}
	return sc.Err()
}

func applyMorph(e *parse.LexicalEntry, morph string) error {
	if morph == "-" || morph == "" {
		return nil
	}
	for _, c := range morph {
		switch c {
		case 'm', 'f':
			e.Gender = append(e.Gender, string(c))
		case 's', 'p':
			e.Number = append(e.Number, string(c))
		default:
			return fmt.Errorf("unknown morphology letter %q", c)
		}
	}
	return nil
}
