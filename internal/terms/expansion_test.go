package terms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dusk-indust/termex/internal/lexicon"
	"github.com/dusk-indust/termex/internal/parse"
)

func TestExpansion_ParentsAndChildren(t *testing.T) {
	s := readSentences(t, "chat.conll", frenchRules(t))[0]
	e := newEngine(t, 2)

	exps, err := e.Expand(s.Token(3), s, 0, make(Memo))
	require.NoError(t, err)
	deepest := findDisplay(t, exps, "petit chat noir et blanc de la grand-mère")

	parents := deepest.Parents()
	require.Len(t, parents, 2)
	assert.Equal(t, "chat noir et blanc de la grand-mère", parents[0].Display())
	assert.Equal(t, "petit chat noir et blanc", parents[1].Display())

	children := deepest.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "grand-mère", children[0].Display())

	// Parents are derived from clones.
	assert.Equal(t, "petit chat noir et blanc de la grand-mère", deepest.Display())
	assert.Len(t, deepest.Node().Dependents(), 3)

	kernel := findDisplay(t, exps, "chat")
	assert.Empty(t, kernel.Parents())
	assert.Empty(t, kernel.Children())
}

func TestExpansion_ParentsOfRightOnly(t *testing.T) {
	s := readSentences(t, "chat.conll", frenchRules(t))[0]
	exps, err := newEngine(t, 2).Expand(s.Token(3), s, 0, make(Memo))
	require.NoError(t, err)

	x := findDisplay(t, exps, "chat noir et blanc de la grand-mère")
	parents := x.Parents()
	require.Len(t, parents, 1)
	assert.Equal(t, "chat noir et blanc", parents[0].Display())
}

func TestExpansion_TokenSetAndWordCount(t *testing.T) {
	s := readSentences(t, "chat.conll", frenchRules(t))[0]
	exps, err := newEngine(t, 2).Expand(s.Token(3), s, 0, make(Memo))
	require.NoError(t, err)

	x := findDisplay(t, exps, "petit chat noir et blanc de la grand-mère")
	var texts []string
	for _, tk := range x.TokenSet() {
		texts = append(texts, tk.Text)
	}
	assert.Equal(t, []string{"petit", "chat", "noir", "et", "blanc", "de", "la", "grand-mère"}, texts)
	assert.Equal(t, 5, x.LexicalWordCount())

	assert.Equal(t, 2, x.FirstToken().Index)
	assert.Equal(t, 9, x.LastToken().Index)
}

func TestExpansion_NonNominalAnchorHasNoDisplay(t *testing.T) {
	s := readSentences(t, "chat.conll", frenchRules(t))[0]
	exps, err := newEngine(t, 2).Expand(s.Token(4), s, 1, make(Memo))
	require.NoError(t, err)
	require.NotEmpty(t, exps)
	for _, x := range exps {
		assert.Empty(t, x.Display())
	}
}

func TestExpansion_SingularizerFallback(t *testing.T) {
	rules := frenchRules(t)
	s := readSentences(t, "chat_plural.conll", rules)[0]
	lex := frenchLexicon(t, "blanc\tADJ\tblanc\tms")

	withFallback := NewEngine(rules, 2, NewRenderer(rules, lex, nil, lexicon.SingularizerFor("fr")))
	assert.Contains(t, expandDisplays(t, withFallback, s, 3), "chat noir et blanc")

	withoutFallback := NewEngine(rules, 2, NewRenderer(rules, lex, nil, nil))
	assert.Contains(t, expandDisplays(t, withoutFallback, s, 3), "chat noir et blancs")
}

func TestExpansion_NoLexiconKeepsSurfaceHead(t *testing.T) {
	rules := frenchRules(t)
	s := readSentences(t, "chat_plural.conll", rules)[0]
	e := NewEngine(rules, 2, NewRenderer(rules, nil, nil, lexicon.Identity))
	assert.Contains(t, expandDisplays(t, e, s, 3), "chats noirs et blancs")
}

// sentence builds a small parse where every token after the first depends
// on the first one.
func sentence(t *testing.T, text string, tokens ...*parse.TaggedToken) *parse.Sentence {
	t.Helper()
	pos := 0
	var arcs []parse.Arc
	for i, tk := range tokens {
		for text[pos:pos+len(tk.Text)] != tk.Text {
			pos++
		}
		tk.Start, tk.End = pos, pos+len(tk.Text)
		pos = tk.End
		if i > 0 {
			arcs = append(arcs, parse.Arc{Head: tokens[0], Dependent: tk, Label: "mod"})
		}
	}
	s, err := parse.NewSentence(text, "", tokens, arcs)
	require.NoError(t, err)
	return s
}

func TestRender_JoinKeepsOriginalSpacing(t *testing.T) {
	rules := frenchRules(t)
	chat, noir := tok(1, "chat", "NC"), tok(2, "noir", "ADJ")
	s := sentence(t, "chat  noir", chat, noir)

	exps, err := NewEngine(rules, 2, nil).Expand(chat, s, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat", "chat  noir"}, displays(exps))
}

func TestRender_SubstitutionJoinsWithSingleSpace(t *testing.T) {
	rules := frenchRules(t)
	chats := tok(1, "chats", "NC")
	chats.Entries = []parse.LexicalEntry{{Word: "chats", Lemma: "chat", Category: "NC", Gender: []string{"m"}, Number: []string{"p"}}}
	noirs := tok(2, "noirs", "ADJ")
	noirs.Entries = []parse.LexicalEntry{{Word: "noirs", Lemma: "noir", Category: "ADJ", Gender: []string{"m"}, Number: []string{"p"}}}
	s := sentence(t, "chats\tnoirs", chats, noirs)

	r := NewRenderer(rules, frenchLexicon(t), nil, nil)
	exps, err := NewEngine(rules, 2, r).Expand(chats, s, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat", "chat noir"}, displays(exps))
}

func TestRender_CaseNormalization(t *testing.T) {
	rules := frenchRules(t)
	lex := frenchLexicon(t)
	table := lexicon.NewCaseTable(language.French, lex)
	r := NewRenderer(rules, lex, table, nil)

	chat, noir := tok(1, "Chat", "NC"), tok(2, "noir", "ADJ")
	s := sentence(t, "Chat noir", chat, noir)
	exps, err := NewEngine(rules, 2, r).Expand(chat, s, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat", "chat noir"}, displays(exps))

	paris := tok(1, "Paris", "NPP")
	s = sentence(t, "Paris", paris)
	exps, err = NewEngine(rules, 2, r).Expand(paris, s, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris"}, displays(exps))
}

func TestRender_AdjectiveOfAnotherNounIsKept(t *testing.T) {
	rules := frenchRules(t)
	s := readSentences(t, "chat.conll", rules)[1]

	// maternelle modifies grand-mère, which is singular: nothing to adjust.
	exps, err := newEngine(t, 3).Expand(s.Token(9), s, 0, make(Memo))
	require.NoError(t, err)
	assert.Contains(t, displays(exps), "grand-mère maternelle")
}
