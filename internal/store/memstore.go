package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

type relKey struct {
	source string
	target string
	kind   RelationKind
}

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex; an
// open Tx holds the write lock until Commit or Rollback.
type MemStore struct {
	mu        sync.RWMutex
	terms     map[string]*Term
	contexts  map[string]Context
	relations map[relKey]struct{}
	closed    bool
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		terms:     make(map[string]*Term),
		contexts:  make(map[string]Context),
		relations: make(map[relKey]struct{}),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error { return nil }

func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var errClosed = errors.New("store is closed")

// Begin takes the write lock. Writes apply immediately and are undone on
// Rollback.
func (m *MemStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errClosed
	}
	return &memTx{m: m}, nil
}

// GetTerm returns a copy of the term, or nil if not found.
func (m *MemStore) GetTerm(_ context.Context, text string) (*Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.terms[text]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *MemStore) QueryTerms(_ context.Context, query string, limit int) ([]Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Term
	for text, t := range m.terms {
		if strings.Contains(text, query) {
			out = append(out, *t)
		}
	}
	sortTerms(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// sortTerms orders by frequency, highest first, then by text.
func sortTerms(ts []Term) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Frequency != ts[j].Frequency {
			return ts[i].Frequency > ts[j].Frequency
		}
		return ts[i].Text < ts[j].Text
	})
}

func (m *MemStore) Heads(_ context.Context, text string) ([]string, error) {
	return m.related(text, RelationHead), nil
}

func (m *MemStore) Expansions(_ context.Context, text string) ([]string, error) {
	return m.related(text, RelationExpansion), nil
}

func (m *MemStore) related(text string, kind RelationKind) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.relations {
		if k.source == text && k.kind == kind {
			out = append(out, k.target)
		}
	}
	sort.Strings(out)
	return out
}

func (m *MemStore) Contexts(_ context.Context, text string) ([]Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Context
	for _, c := range m.contexts {
		if c.Term == text {
			out = append(out, c)
		}
	}
	sortContexts(out)
	return out, nil
}

func sortContexts(cs []Context) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.FileName != b.FileName {
			return a.FileName < b.FileName
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

func (m *MemStore) Relations(_ context.Context) ([]Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Relation, 0, len(m.relations))
	for k := range m.relations {
		out = append(out, Relation{Source: k.source, Target: k.target, Kind: k.kind})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Target < out[j].Target
	})
	return out, nil
}

func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &Stats{
		TermCount:     len(m.terms),
		ContextCount:  len(m.contexts),
		RelationCount: len(m.relations),
	}, nil
}

// memTx applies writes directly and keeps an undo log.
type memTx struct {
	m    *MemStore
	undo []func()
	done bool
}

var errTxDone = errors.New("transaction already finished")

func (tx *memTx) FindOrCreateTerm(_ context.Context, text string, lexicalWordCount int) (*Term, bool, error) {
	if tx.done {
		return nil, false, errTxDone
	}
	if t, ok := tx.m.terms[text]; ok {
		cp := *t
		return &cp, false, nil
	}
	t := &Term{Text: text, LexicalWordCount: lexicalWordCount}
	tx.m.terms[text] = t
	tx.undo = append(tx.undo, func() { delete(tx.m.terms, text) })
	cp := *t
	return &cp, true, nil
}

func (tx *memTx) FindOrCreateContext(_ context.Context, c Context) (bool, error) {
	if tx.done {
		return false, errTxDone
	}
	t, ok := tx.m.terms[c.Term]
	if !ok {
		return false, ErrNotFound
	}
	k := c.key()
	if _, ok := tx.m.contexts[k]; ok {
		return false, nil
	}
	tx.m.contexts[k] = c
	t.Frequency++
	tx.undo = append(tx.undo, func() {
		delete(tx.m.contexts, k)
		t.Frequency--
	})
	return true, nil
}

func (tx *memTx) AddExpansion(_ context.Context, parent, expansion string) error {
	return tx.relate(parent, expansion, RelationExpansion)
}

func (tx *memTx) AddHead(_ context.Context, term, head string) error {
	return tx.relate(term, head, RelationHead)
}

func (tx *memTx) relate(source, target string, kind RelationKind) error {
	if tx.done {
		return errTxDone
	}
	src, ok := tx.m.terms[source]
	if !ok {
		return ErrNotFound
	}
	if _, ok := tx.m.terms[target]; !ok {
		return ErrNotFound
	}
	k := relKey{source, target, kind}
	if _, ok := tx.m.relations[k]; ok {
		return nil
	}
	tx.m.relations[k] = struct{}{}
	counter := &src.ExpansionCount
	if kind == RelationHead {
		counter = &src.HeadCount
	}
	*counter++
	tx.undo = append(tx.undo, func() {
		delete(tx.m.relations, k)
		*counter--
	})
	return nil
}

func (tx *memTx) Commit(_ context.Context) error {
	if tx.done {
		return errTxDone
	}
	tx.done = true
	tx.undo = nil
	tx.m.mu.Unlock()
	return nil
}

func (tx *memTx) Rollback(_ context.Context) error {
	if tx.done {
		return nil
	}
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.done = true
	tx.undo = nil
	tx.m.mu.Unlock()
	return nil
}
