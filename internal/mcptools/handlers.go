package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/termex/internal/extractor"
	"github.com/dusk-indust/termex/internal/logger"
	"github.com/dusk-indust/termex/internal/parse"
	"github.com/dusk-indust/termex/internal/store"
)

const defaultQueryLimit = 20

// TermService holds the extractor and term store used by MCP tool handlers.
type TermService struct {
	extractor *extractor.Extractor
	store     store.Store
	workers   int
	readOpts  []parse.ReaderOption
}

// NewTermService creates a TermService. readOpts configure how CoNLL input
// passed to extract_terms is read.
func NewTermService(x *extractor.Extractor, st store.Store, workers int, readOpts ...parse.ReaderOption) *TermService {
	return &TermService{extractor: x, store: st, workers: workers, readOpts: readOpts}
}

// ExtractTerms reads CoNLL parses, extracts their terms into the store and
// returns the terms found per sentence.
func (s *TermService) ExtractTerms(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractTermsInput,
) (*mcp.CallToolResult, ExtractTermsOutput, error) {
	if strings.TrimSpace(input.Conll) == "" {
		return nil, ExtractTermsOutput{}, fmt.Errorf("conll is required")
	}
	fileName := input.FileName
	if fileName == "" {
		fileName = "mcp-input"
	}

	sents, err := parse.ReadAll(strings.NewReader(input.Conll), fileName, s.readOpts...)
	if err != nil {
		return nil, ExtractTermsOutput{}, fmt.Errorf("read conll: %w", err)
	}

	runner := extractor.NewRunner(s.extractor, s.workers, func(ev extractor.ProgressEvent) {
		logger.Debug("extract_terms progress", "sentence", ev.Section, "status", ev.Status)
	})
	results, err := runner.Run(ctx, sents)
	if err != nil {
		return nil, ExtractTermsOutput{}, fmt.Errorf("extract: %w", err)
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, ExtractTermsOutput{}, fmt.Errorf("stats: %w", err)
	}
	return nil, ExtractTermsOutput{Sentences: results, Stats: *stats}, nil
}

// QueryTerms searches for terms by text substring, most frequent first.
func (s *TermService) QueryTerms(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryTermsInput,
) (*mcp.CallToolResult, QueryTermsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	ts, err := s.store.QueryTerms(ctx, input.Query, limit)
	if err != nil {
		return nil, QueryTermsOutput{}, fmt.Errorf("query terms: %w", err)
	}
	if ts == nil {
		ts = []store.Term{}
	}
	return nil, QueryTermsOutput{Terms: ts, Total: len(ts)}, nil
}

// GetTerm returns one term with its relations and contexts.
func (s *TermService) GetTerm(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetTermInput,
) (*mcp.CallToolResult, GetTermOutput, error) {
	if input.Text == "" {
		return nil, GetTermOutput{}, fmt.Errorf("text is required")
	}

	t, err := s.store.GetTerm(ctx, input.Text)
	if err != nil {
		return nil, GetTermOutput{}, fmt.Errorf("get term: %w", err)
	}
	if t == nil {
		return nil, GetTermOutput{}, fmt.Errorf("%q: %w", input.Text, store.ErrNotFound)
	}

	out := GetTermOutput{Term: *t}
	if out.Heads, err = s.store.Heads(ctx, t.Text); err != nil {
		return nil, GetTermOutput{}, fmt.Errorf("heads: %w", err)
	}
	if out.Expansions, err = s.store.Expansions(ctx, t.Text); err != nil {
		return nil, GetTermOutput{}, fmt.Errorf("expansions: %w", err)
	}
	if out.Contexts, err = s.store.Contexts(ctx, t.Text); err != nil {
		return nil, GetTermOutput{}, fmt.Errorf("contexts: %w", err)
	}
	return nil, out, nil
}

// GetStats returns summary counts of the term base.
func (s *TermService) GetStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetStatsInput,
) (*mcp.CallToolResult, GetStatsOutput, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, GetStatsOutput{}, fmt.Errorf("stats: %w", err)
	}
	return nil, GetStatsOutput{Stats: *stats}, nil
}
