package mcptools

import (
	"github.com/dusk-indust/termex/internal/extractor"
	"github.com/dusk-indust/termex/internal/store"
)

// --- MCP Tool Input Types ---
// The MCP Go SDK generates JSON schemas from these struct tags.

// ExtractTermsInput is the input for the extract_terms MCP tool.
type ExtractTermsInput struct {
	Conll    string `json:"conll" jsonschema:"dependency parses in 10-column CoNLL format, sentences separated by blank lines"`
	FileName string `json:"fileName,omitempty" jsonschema:"source file name recorded in term contexts"`
}

// ExtractTermsOutput is the result of the extract_terms MCP tool.
type ExtractTermsOutput struct {
	Sentences []extractor.SentenceResult `json:"sentences"`
	Stats     store.Stats                `json:"stats"`
}

// QueryTermsInput is the input for the query_terms MCP tool.
type QueryTermsInput struct {
	Query string `json:"query,omitempty" jsonschema:"substring of the term text; empty matches every term"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QueryTermsOutput is the result of the query_terms MCP tool.
type QueryTermsOutput struct {
	Terms []store.Term `json:"terms"`
	Total int          `json:"total"`
}

// GetTermInput is the input for the get_term MCP tool.
type GetTermInput struct {
	Text string `json:"text" jsonschema:"exact normalized text of the term"`
}

// GetTermOutput is the result of the get_term MCP tool.
type GetTermOutput struct {
	Term       store.Term      `json:"term"`
	Heads      []string        `json:"heads"`
	Expansions []string        `json:"expansions"`
	Contexts   []store.Context `json:"contexts"`
}

// GetStatsInput is the input for the get_stats MCP tool.
type GetStatsInput struct{}

// GetStatsOutput is the result of the get_stats MCP tool.
type GetStatsOutput struct {
	Stats store.Stats `json:"stats"`
}
