// Package extractor drives term extraction over parsed sentences and records
// the results in a term store.
package extractor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dusk-indust/termex/internal/config"
	"github.com/dusk-indust/termex/internal/logger"
	"github.com/dusk-indust/termex/internal/parse"
	"github.com/dusk-indust/termex/internal/store"
	"github.com/dusk-indust/termex/internal/terms"
)

// ContextTokenBuffer is the number of tokens kept on each side of a term in
// its context text segment.
const ContextTokenBuffer = 6

// MaxWriteAttempts bounds how often a sentence is written again after a
// retryable store conflict.
const MaxWriteAttempts = 3

// SentenceResult is the outcome of processing one sentence.
type SentenceResult struct {
	FileName string   `json:"fileName,omitempty"`
	Text     string   `json:"text"`
	Terms    []string `json:"terms"`
}

// Extractor expands every nominal head of a sentence and stores the
// resulting terms, their contexts and their head/expansion relations.
type Extractor struct {
	engine    *terms.Engine
	nominal   config.StringSet
	store     store.Store
	observers []TermObserver

	// notifyMu keeps one sentence's notifications together.
	notifyMu sync.Mutex
}

// New creates an Extractor. Heads are the tokens whose tag is in nominalTags.
func New(engine *terms.Engine, nominalTags config.StringSet, st store.Store, observers ...TermObserver) *Extractor {
	return &Extractor{
		engine:    engine,
		nominal:   nominalTags,
		store:     st,
		observers: observers,
	}
}

// ProcessSentence extracts the terms of s inside a single store transaction.
// On error the transaction is rolled back and no observer is notified.
func (x *Extractor) ProcessSentence(ctx context.Context, s parse.Structure) (SentenceResult, error) {
	res := SentenceResult{Text: s.Text()}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	memo := make(terms.Memo)
	var found []*terms.Expansion
	for _, t := range s.Tokens() {
		if !x.nominal.Has(t.Tag.Code) {
			continue
		}
		if res.FileName == "" {
			res.FileName = t.FileName
		}
		exps, err := x.engine.Expand(t, s, 0, memo)
		if err != nil {
			return res, fmt.Errorf("expanding %s: %w", t, err)
		}
		for _, e := range exps {
			if e.Display() != "" {
				found = append(found, e)
			}
		}
	}

	var stored []store.Term
	for attempt := 1; ; attempt++ {
		var err error
		stored, err = x.write(ctx, s, found)
		if err == nil {
			break
		}
		if attempt == MaxWriteAttempts || !store.IsRetryable(err) {
			return res, err
		}
		logger.Warn("retrying sentence", "file", res.FileName, "attempt", attempt, "err", err)
	}

	x.notify(res.Text, stored)

	seen := make(map[string]bool, len(stored))
	for _, t := range stored {
		if !seen[t.Text] {
			seen[t.Text] = true
			res.Terms = append(res.Terms, t.Text)
		}
	}
	sort.Strings(res.Terms)
	logger.Debug("processed sentence", "file", res.FileName, "heads", len(memo), "terms", len(res.Terms))
	return res, nil
}

// write records every expansion of a sentence in one transaction.
func (x *Extractor) write(ctx context.Context, s parse.Structure, found []*terms.Expansion) ([]store.Term, error) {
	tx, err := x.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	stored := make([]store.Term, 0, len(found))
	for _, e := range found {
		term, err := x.record(ctx, tx, s, e)
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("recording %q: %w", e.Display(), err)
		}
		stored = append(stored, *term)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return stored, nil
}

// record stores one expansion together with its occurrence and relations.
func (x *Extractor) record(ctx context.Context, tx store.Tx, s parse.Structure, e *terms.Expansion) (*store.Term, error) {
	text := e.Display()
	term, _, err := tx.FindOrCreateTerm(ctx, text, e.LexicalWordCount())
	if err != nil {
		return nil, err
	}
	if _, err := tx.FindOrCreateContext(ctx, contextOf(text, e, s)); err != nil {
		return nil, err
	}

	for _, p := range e.Parents() {
		pt := p.Display()
		if pt == "" {
			continue
		}
		if _, _, err := tx.FindOrCreateTerm(ctx, pt, p.LexicalWordCount()); err != nil {
			return nil, err
		}
		if err := tx.AddExpansion(ctx, pt, text); err != nil {
			return nil, err
		}
	}
	for _, c := range e.Children() {
		ct := c.Display()
		if ct == "" {
			continue
		}
		if _, _, err := tx.FindOrCreateTerm(ctx, ct, c.LexicalWordCount()); err != nil {
			return nil, err
		}
		if err := tx.AddHead(ctx, ct, text); err != nil {
			return nil, err
		}
	}
	return term, nil
}

func (x *Extractor) notify(text string, found []store.Term) {
	if len(x.observers) == 0 {
		return
	}
	x.notifyMu.Lock()
	defer x.notifyMu.Unlock()
	for _, o := range x.observers {
		o.OnNewContext(text)
	}
	for _, t := range found {
		for _, o := range x.observers {
			o.OnNewTerm(t)
		}
	}
}

// contextOf locates an expansion in its source document.
func contextOf(text string, e *terms.Expansion, s parse.Structure) store.Context {
	first, last := e.FirstToken(), e.LastToken()
	return store.Context{
		Term:        text,
		FileName:    first.FileName,
		Line:        first.Line,
		Column:      first.Column,
		EndLine:     last.LineEnd,
		EndColumn:   last.ColumnEnd,
		TextSegment: textSegment(s, first, last),
	}
}

// textSegment returns the sentence text from ContextTokenBuffer tokens before
// first to ContextTokenBuffer tokens after last.
func textSegment(s parse.Structure, first, last *parse.TaggedToken) string {
	tokens := s.Tokens()
	from, to := position(tokens, first), position(tokens, last)
	if from < 0 || to < 0 {
		return ""
	}
	from = max(from-ContextTokenBuffer, 0)
	to = min(to+ContextTokenBuffer, len(tokens)-1)

	// Words of a contraction have no span; widen to the nearest located ones.
	for from > 0 && !tokens[from].Located() {
		from--
	}
	for to < len(tokens)-1 && !tokens[to].Located() {
		to++
	}

	text := s.Text()
	lo, hi := tokens[from], tokens[to]
	if lo.Located() && hi.Located() && lo.Start <= hi.End && hi.End <= len(text) {
		return text[lo.Start:hi.End]
	}
	words := make([]string, 0, to-from+1)
	for _, t := range tokens[from : to+1] {
		words = append(words, t.Text)
	}
	return strings.Join(words, " ")
}

func position(tokens []*parse.TaggedToken, t *parse.TaggedToken) int {
	i := sort.Search(len(tokens), func(i int) bool { return tokens[i].Index >= t.Index })
	if i < len(tokens) && tokens[i] == t {
		return i
	}
	return -1
}
