package terms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/termex/internal/config"
	"github.com/dusk-indust/termex/internal/parse"
)

func tok(index int, text, tag string) *parse.TaggedToken {
	return &parse.TaggedToken{
		Token: parse.Token{Index: index, Text: text},
		Tag:   parse.Tag{Code: tag},
	}
}

func TestNode_IsContiguous(t *testing.T) {
	chat := tok(3, "chat", "NC")
	petit := tok(2, "petit", "ADJ")
	le := tok(1, "le", "DET")
	noir := tok(4, "noir", "ADJ")
	de := tok(7, "de", "P")

	tests := []struct {
		name string
		deps []*parse.TaggedToken
		want bool
	}{
		{"kernel", nil, true},
		{"left neighbor", []*parse.TaggedToken{petit}, true},
		{"both sides", []*parse.TaggedToken{petit, noir}, true},
		{"left run", []*parse.TaggedToken{petit, le}, true},
		{"gap on the left", []*parse.TaggedToken{le}, false},
		{"gap on the right", []*parse.TaggedToken{noir, de}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNode(chat, "suj")
			for _, d := range tt.deps {
				n.Attach(NewNode(d, "mod"))
			}
			assert.Equal(t, tt.want, n.IsContiguous())
		})
	}
}

func TestNode_IsContiguousNested(t *testing.T) {
	de := NewNode(tok(7, "de", "P"), "dep")
	gm := NewNode(tok(9, "grand-mère", "NC"), "prep")
	de.Attach(gm)
	assert.False(t, de.IsContiguous())

	gm.Attach(NewNode(tok(8, "la", "DET"), "det"))
	de2 := NewNode(tok(7, "de", "P"), "dep")
	de2.Attach(gm)
	assert.True(t, de2.IsContiguous())
	assert.Equal(t, []int{7, 8, 9}, de2.Indices())
}

func TestNode_PerceivedDepth(t *testing.T) {
	zero := config.NewStringSet("det", "coord", "dep_coord", "prep")

	chat := NewNode(tok(3, "chat", "NC"), "suj")
	assert.Equal(t, 1, chat.PerceivedDepth(zero))

	withDet := chat.Clone()
	withDet.Attach(NewNode(tok(1, "le", "DET"), "det"))
	assert.Equal(t, 1, withDet.PerceivedDepth(zero))

	et := NewNode(tok(5, "et", "CC"), "coord")
	et.Attach(NewNode(tok(6, "blanc", "ADJ"), "dep_coord"))
	noir := NewNode(tok(4, "noir", "ADJ"), "mod")
	noir.Attach(et)
	assert.Equal(t, 1, noir.PerceivedDepth(zero))

	withNoir := chat.Clone()
	withNoir.Attach(noir)
	assert.Equal(t, 2, withNoir.PerceivedDepth(zero))

	gm := NewNode(tok(9, "grand-mère", "NC"), "prep")
	gm.Attach(NewNode(tok(10, "maternelle", "ADJ"), "mod"))
	de := NewNode(tok(7, "de", "P"), "dep")
	de.Attach(gm)
	assert.Equal(t, 2, de.PerceivedDepth(zero))

	withNoir.Attach(de)
	assert.Equal(t, 3, withNoir.PerceivedDepth(zero))

	// Without zero-depth labels every level counts.
	assert.Equal(t, 4, withNoir.PerceivedDepth(nil))
}

func TestNode_CloneAndAttachDoNotAlias(t *testing.T) {
	chat := NewNode(tok(3, "chat", "NC"), "suj")
	noir := NewNode(tok(4, "noir", "ADJ"), "mod")

	chat.Attach(noir)
	noir.Attach(NewNode(tok(5, "et", "CC"), "coord"))
	assert.Equal(t, "chat[noir]", chat.String(), "attach must store a copy")

	c := chat.Clone()
	c.Attach(NewNode(tok(2, "petit", "ADJ"), "mod"))
	assert.Equal(t, "chat[noir]", chat.String())
	assert.Equal(t, "chat[noir petit]", c.String())

	deps := c.Dependents()
	deps[0] = nil
	assert.NotNil(t, c.Dependents()[0])
}

func TestNode_Detach(t *testing.T) {
	petit := tok(2, "petit", "ADJ")
	chat := NewNode(tok(3, "chat", "NC"), "suj")
	chat.Attach(NewNode(petit, "mod"))
	chat.Attach(NewNode(tok(4, "noir", "ADJ"), "mod"))

	c := chat.Clone()
	require.True(t, c.Detach(NewNode(petit, "")))
	assert.Equal(t, "chat[noir]", c.String())
	assert.Equal(t, "chat[petit noir]", chat.String())

	assert.False(t, c.Detach(NewNode(petit, "")))
}

func TestNode_FirstLastToken(t *testing.T) {
	chat := NewNode(tok(3, "chat", "NC"), "suj")
	assert.Equal(t, 3, chat.FirstToken().Index)
	assert.Equal(t, 3, chat.LastToken().Index)

	gm := NewNode(tok(9, "grand-mère", "NC"), "prep")
	gm.Attach(NewNode(tok(8, "la", "DET"), "det"))
	de := NewNode(tok(7, "de", "P"), "dep")
	de.Attach(gm)
	chat.Attach(de)
	chat.Attach(NewNode(tok(2, "petit", "ADJ"), "mod"))

	assert.Equal(t, "petit", chat.FirstToken().Text)
	assert.Equal(t, "grand-mère", chat.LastToken().Text)
}

func TestNewKernel_TakesGoverningLabel(t *testing.T) {
	chat := tok(1, "chat", "NC")
	noir := tok(2, "noir", "ADJ")
	s, err := parse.NewSentence("chat noir", "", []*parse.TaggedToken{chat, noir},
		[]parse.Arc{{Head: chat, Dependent: noir, Label: "mod"}})
	require.NoError(t, err)

	assert.Equal(t, "mod", NewKernel(noir, s).Label())
	assert.Equal(t, "", NewKernel(chat, s).Label())
	assert.Empty(t, NewKernel(chat, s).Dependents())
}
