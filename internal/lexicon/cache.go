package lexicon

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dusk-indust/termex/internal/parse"
)

const DefaultCacheSize = 4096

type lookupKey struct {
	lemma    string
	category string
	tag      string
	gender   string
	number   string
}

type lookupResult struct {
	entry parse.LexicalEntry
	found bool
}

// CachedLexicon memoizes canonical-form lookups of a slower Lexicon. Misses
// are cached too.
type CachedLexicon struct {
	next  Lexicon
	cache *lru.Cache[lookupKey, lookupResult]
}

var _ Lexicon = (*CachedLexicon)(nil)

// NewCachedLexicon wraps next with an LRU cache holding size lookups.
func NewCachedLexicon(next Lexicon, size int) (*CachedLexicon, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[lookupKey, lookupResult](size)
	if err != nil {
		return nil, err
	}
	return &CachedLexicon{next: next, cache: cache}, nil
}

func (c *CachedLexicon) FindCanonicalForm(entry parse.LexicalEntry, tag, gender, number string) (parse.LexicalEntry, bool) {
	k := lookupKey{entry.Lemma, entry.Category, tag, gender, number}
	if r, ok := c.cache.Get(k); ok {
		return r.entry, r.found
	}
	e, found := c.next.FindCanonicalForm(entry, tag, gender, number)
	c.cache.Add(k, lookupResult{entry: e, found: found})
	return e, found
}

// Len returns the number of cached lookups.
func (c *CachedLexicon) Len() int { return c.cache.Len() }
