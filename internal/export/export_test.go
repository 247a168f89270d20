package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/termex/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemStore()
	tx, err := st.Begin(ctx)
	require.NoError(t, err)

	for text, lwc := range map[string]int{"chat": 1, "chat noir": 2, "grand-mère": 1, "chat de la grand-mère": 2} {
		_, _, err := tx.FindOrCreateTerm(ctx, text, lwc)
		require.NoError(t, err)
	}
	_, err = tx.FindOrCreateContext(ctx, store.Context{Term: "chat noir", FileName: "a.conll", Line: 3, Column: 4, TextSegment: "le chat noir"})
	require.NoError(t, err)
	require.NoError(t, tx.AddExpansion(ctx, "chat", "chat noir"))
	require.NoError(t, tx.AddHead(ctx, "grand-mère", "chat de la grand-mère"))
	require.NoError(t, tx.Commit(ctx))
	return st
}

func TestExportTerminology(t *testing.T) {
	st := newTestStore(t)

	e, err := ExportTerminology(context.Background(), st, "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", e.Project)
	assert.NotEmpty(t, e.ExportedAt)
	assert.Equal(t, 4, e.Stats.TermCount)
	require.Len(t, e.Terms, 4)

	texts := make([]string, len(e.Terms))
	for i, te := range e.Terms {
		texts[i] = te.Text
	}
	assert.Equal(t, []string{"chat", "chat de la grand-mère", "chat noir", "grand-mère"}, texts)

	chat := e.Terms[0]
	assert.Equal(t, []string{"chat noir"}, chat.Expansions)
	assert.Equal(t, 1, chat.ExpansionCount)

	noir := e.Terms[2]
	require.Len(t, noir.Contexts, 1)
	assert.Equal(t, "le chat noir", noir.Contexts[0].TextSegment)
	assert.Equal(t, 1, noir.Frequency)

	assert.Equal(t, []string{"chat de la grand-mère"}, e.Terms[3].Heads)
}

func TestWriteJSON(t *testing.T) {
	e, err := ExportTerminology(context.Background(), newTestStore(t), "demo")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, e))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "demo", decoded["project"])
	terms := decoded["terms"].([]any)
	first := terms[0].(map[string]any)
	assert.Equal(t, "chat", first["text"])
	assert.Equal(t, []any{"chat noir"}, first["expansions"])
	assert.NotContains(t, buf.String(), `"term":`, "contexts are nested under their term")
}

func TestGenerateMermaid(t *testing.T) {
	out, err := GenerateMermaid(context.Background(), newTestStore(t))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `subgraph W1["1 word"]`)
	assert.Contains(t, out, `subgraph W2["2 words"]`)
	assert.Contains(t, out, `["chat de la grand-mère"]`)
	assert.Contains(t, out, "-->|expansion|")
	assert.Contains(t, out, "-->|head|")
	assert.Equal(t, 2, strings.Count(out, "-->"))
}

func TestEscapeLabel(t *testing.T) {
	assert.Equal(t, "le #quot;chat#quot;", escapeLabel(`le "chat"`))
}
