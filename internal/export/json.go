// Package export renders a term base for consumption outside the store.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dusk-indust/termex/internal/store"
)

// TerminologyExport is the top-level JSON export structure.
type TerminologyExport struct {
	Project    string       `json:"project"`
	ExportedAt string       `json:"exportedAt"`
	Stats      store.Stats  `json:"stats"`
	Terms      []TermExport `json:"terms"`
}

// TermExport describes one term with its relations and occurrences.
type TermExport struct {
	store.Term
	Heads      []string        `json:"heads,omitempty"`
	Expansions []string        `json:"expansions,omitempty"`
	Contexts   []store.Context `json:"contexts,omitempty"`
}

// ExportTerminology reads every term of st, sorted by text.
func ExportTerminology(ctx context.Context, st store.Store, project string) (*TerminologyExport, error) {
	stats, err := st.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	all, err := st.QueryTerms(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Text < all[j].Text })

	export := &TerminologyExport{
		Project:    project,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Stats:      *stats,
		Terms:      make([]TermExport, 0, len(all)),
	}
	for _, t := range all {
		te := TermExport{Term: t}
		if te.Heads, err = st.Heads(ctx, t.Text); err != nil {
			return nil, fmt.Errorf("heads of %q: %w", t.Text, err)
		}
		if te.Expansions, err = st.Expansions(ctx, t.Text); err != nil {
			return nil, fmt.Errorf("expansions of %q: %w", t.Text, err)
		}
		if te.Contexts, err = st.Contexts(ctx, t.Text); err != nil {
			return nil, fmt.Errorf("contexts of %q: %w", t.Text, err)
		}
		for i := range te.Contexts {
			te.Contexts[i].Term = ""
		}
		export.Terms = append(export.Terms, te)
	}
	return export, nil
}

// WriteJSON writes e as indented JSON.
func WriteJSON(w io.Writer, e *TerminologyExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(e)
}
