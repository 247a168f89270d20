// Package store persists terms, their occurrences and the head/expansion
// relations between them.
package store

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a relation refers to a term that does not
// exist.
var ErrNotFound = errors.New("term not found")

// Store is the term base. Implementations: MemStore (tests and one-shot
// runs), KuzuStore (graph database), PostgresStore (shared project bases).
// All writes go through a Tx.
type Store interface {
	io.Closer

	// Schema setup, called once before any data is written.
	InitSchema(ctx context.Context) error

	// Begin opens a write transaction. The extraction driver opens one per
	// sentence.
	Begin(ctx context.Context) (Tx, error)

	// GetTerm returns the term with the given text, or nil if absent.
	GetTerm(ctx context.Context, text string) (*Term, error)
	// QueryTerms returns terms whose text contains query, most frequent
	// first. A non-positive limit returns every match.
	QueryTerms(ctx context.Context, query string, limit int) ([]Term, error)

	// Heads returns the terms recorded as heads of text, sorted.
	Heads(ctx context.Context, text string) ([]string, error)
	// Expansions returns the terms recorded as expansions of text, sorted.
	Expansions(ctx context.Context, text string) ([]string, error)
	// Contexts returns the occurrences of text ordered by file and position.
	Contexts(ctx context.Context, text string) ([]Context, error)

	Relations(ctx context.Context) ([]Relation, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Tx is a unit of writes. Either Commit or Rollback must be called.
type Tx interface {
	// FindOrCreateTerm returns the term for text, creating it with the given
	// lexical word count if needed. created reports whether it was new.
	FindOrCreateTerm(ctx context.Context, text string, lexicalWordCount int) (term *Term, created bool, err error)
	// FindOrCreateContext records an occurrence of c.Term. Occurrences are
	// identified by term, file, line and column; the term's frequency grows
	// only when the occurrence is new.
	FindOrCreateContext(ctx context.Context, c Context) (created bool, err error)
	// AddExpansion records expansion as an expansion of parent.
	AddExpansion(ctx context.Context, parent, expansion string) error
	// AddHead records head as a head of term.
	AddHead(ctx context.Context, term, head string) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
