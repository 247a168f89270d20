package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/termex/internal/store"
)

// GenerateMermaid produces a Mermaid graph TD diagram of the term base.
// Terms are grouped by lexical word count; each relation becomes an arrow
// labelled "head" or "expansion".
func GenerateMermaid(ctx context.Context, st store.Store) (string, error) {
	all, err := st.QueryTerms(ctx, "", 0)
	if err != nil {
		return "", fmt.Errorf("list terms: %w", err)
	}
	rels, err := st.Relations(ctx)
	if err != nil {
		return "", fmt.Errorf("get relations: %w", err)
	}

	// Mermaid node IDs must be alphanumeric.
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(text string) string {
		if id, ok := nodeIDs[text]; ok {
			return id
		}
		id := fmt.Sprintf("T%d", nextID)
		nextID++
		nodeIDs[text] = id
		return id
	}

	groups := make(map[int][]string)
	for _, t := range all {
		groups[t.LexicalWordCount] = append(groups[t.LexicalWordCount], t.Text)
	}
	sizes := make([]int, 0, len(groups))
	for n := range groups {
		sizes = append(sizes, n)
	}
	sort.Ints(sizes)

	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, n := range sizes {
		members := groups[n]
		sort.Strings(members)
		fmt.Fprintf(&sb, "  subgraph W%d[\"%s\"]\n", n, groupLabel(n))
		for _, m := range members {
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", getID(m), escapeLabel(m))
		}
		sb.WriteString("  end\n")
	}

	for _, r := range rels {
		label := "expansion"
		if r.Kind == store.RelationHead {
			label = "head"
		}
		fmt.Fprintf(&sb, "  %s -->|%s| %s\n", getID(r.Source), label, getID(r.Target))
	}
	return sb.String(), nil
}

func groupLabel(n int) string {
	if n == 1 {
		return "1 word"
	}
	return fmt.Sprintf("%d words", n)
}

// escapeLabel makes text safe inside a quoted Mermaid label.
func escapeLabel(text string) string {
	return strings.ReplaceAll(text, `"`, "#quot;")
}
