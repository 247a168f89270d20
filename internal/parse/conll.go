package parse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// EntrySource supplies lexical entries for a form/tag pair when the parser
// output carries no morphology of its own.
type EntrySource interface {
	Entries(form, tag string) []LexicalEntry
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithEntries attaches lexicon entries to tokens whose FEATS column is empty.
func WithEntries(src EntrySource) ReaderOption {
	return func(r *Reader) { r.entries = src }
}

// WithOpenClassTags marks the given tag codes as open word classes.
func WithOpenClassTags(codes ...string) ReaderOption {
	return func(r *Reader) {
		for _, c := range codes {
			r.openClass[c] = true
		}
	}
}

// Reader reads dependency parses in the 10-column CoNLL layout:
//
//	ID FORM LEMMA CPOSTAG POSTAG FEATS HEAD DEPREL PHEAD PDEPREL
//
// Sentences are separated by blank lines. A "# text = ..." comment gives the
// original sentence text; without it, forms are joined by single spaces.
type Reader struct {
	sc        *bufio.Scanner
	fileName  string
	line      int
	entries   EntrySource
	openClass map[string]bool
}

// NewReader returns a Reader over r. fileName is recorded on every token.
func NewReader(r io.Reader, fileName string, opts ...ReaderOption) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	rd := &Reader{sc: sc, fileName: fileName, openClass: make(map[string]bool)}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// row is one parsed CoNLL token line before arcs are resolved.
type row struct {
	id     int
	form   string
	lemma  string
	tag    string
	feats  string
	head   int
	label  string
	lineNo int
}

// multiword is a CoNLL-U range line such as "3-4 du": one surface form
// covering the syntactic words from..to.
type multiword struct {
	from, to int
	form     string
}

// Next returns the next sentence, or io.EOF when the input is exhausted.
func (r *Reader) Next() (*Sentence, error) {
	var rows []row
	var ranges []multiword
	var text string
	hasText := false

	for r.sc.Scan() {
		r.line++
		line := strings.TrimRight(r.sc.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			if len(rows) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			if v, ok := strings.CutPrefix(line, "# text = "); ok {
				text = v
				hasText = true
			}
			continue
		}

		if mw, ok, err := parseRange(line); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
		} else if ok {
			ranges = append(ranges, mw)
			continue
		}
		rw, skip, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
		}
		if skip {
			continue
		}
		rw.lineNo = r.line
		rows = append(rows, rw)
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", r.fileName, err)
	}
	if len(rows) == 0 {
		return nil, io.EOF
	}

	if !hasText {
		text = surfaceText(rows, ranges)
	}

	return r.build(text, rows, ranges)
}

// surfaceText joins forms with single spaces, writing a multi-word range's
// form in place of its words.
func surfaceText(rows []row, ranges []multiword) string {
	forms := make([]string, 0, len(rows))
	for _, rw := range rows {
		if mw, ok := rangeOf(ranges, rw.id); ok {
			if rw.id == mw.from {
				forms = append(forms, mw.form)
			}
			continue
		}
		forms = append(forms, rw.form)
	}
	return strings.Join(forms, " ")
}

func rangeOf(ranges []multiword, id int) (multiword, bool) {
	for _, mw := range ranges {
		if mw.from <= id && id <= mw.to {
			return mw, true
		}
	}
	return multiword{}, false
}

// ReadAll reads every sentence from r.
func ReadAll(r io.Reader, fileName string, opts ...ReaderOption) ([]*Sentence, error) {
	rd := NewReader(r, fileName, opts...)
	var out []*Sentence
	for {
		s, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}

// parseRange reports whether line is a multi-word range line.
func parseRange(line string) (multiword, bool, error) {
	id, form, _ := strings.Cut(line, "\t")
	from, to, ok := strings.Cut(id, "-")
	if !ok {
		return multiword{}, false, nil
	}
	f, err1 := strconv.Atoi(from)
	t, err2 := strconv.Atoi(to)
	if err1 != nil || err2 != nil || t < f {
		return multiword{}, false, fmt.Errorf("bad range %q: %w", id, ErrInvalidInput)
	}
	form, _, _ = strings.Cut(form, "\t")
	return multiword{from: f, to: t, form: form}, true, nil
}

func parseRow(line string) (row, bool, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 8 {
		return row{}, false, fmt.Errorf("expected at least 8 columns, got %d: %w", len(cols), ErrInvalidInput)
	}
	// Empty nodes carry no dependency.
	if strings.Contains(cols[0], ".") {
		return row{}, true, nil
	}
	id, err := strconv.Atoi(cols[0])
	if err != nil {
		return row{}, false, fmt.Errorf("bad token id %q: %w", cols[0], ErrInvalidInput)
	}
	head, err := strconv.Atoi(cols[6])
	if err != nil {
		return row{}, false, fmt.Errorf("bad head %q for token %d: %w", cols[6], id, ErrInvalidInput)
	}
	tag := cols[4]
	if tag == "_" || tag == "" {
		tag = cols[3]
	}
	if tag == "_" {
		tag = ""
	}
	return row{
		id:    id,
		form:  cols[1],
		lemma: cols[2],
		tag:   tag,
		feats: cols[5],
		head:  head,
		label: cols[7],
	}, false, nil
}

// build locates each form in text left to right. Words of a multi-word
// range, and forms missing from the text, are left unlocated; their columns
// are those of the range (or of the cursor).
func (r *Reader) build(text string, rows []row, ranges []multiword) (*Sentence, error) {
	tokens := make([]*TaggedToken, len(rows))
	byID := make(map[int]*TaggedToken, len(rows))

	cursor := 0
	var spanCol, spanEnd int
	for i, rw := range rows {
		start, end := -1, -1
		col := utf8.RuneCountInString(text[:cursor]) + 1
		colEnd := col + utf8.RuneCountInString(rw.form)

		if mw, ok := rangeOf(ranges, rw.id); ok {
			if rw.id == mw.from {
				spanCol, spanEnd = col, col+utf8.RuneCountInString(mw.form)
				if idx := strings.Index(text[cursor:], mw.form); idx >= 0 {
					spanCol = utf8.RuneCountInString(text[:cursor+idx]) + 1
					spanEnd = spanCol + utf8.RuneCountInString(mw.form)
					cursor += idx + len(mw.form)
				}
			}
			col, colEnd = spanCol, spanEnd
		} else if idx := strings.Index(text[cursor:], rw.form); idx >= 0 {
			start = cursor + idx
			end = start + len(rw.form)
			cursor = end
			col = utf8.RuneCountInString(text[:start]) + 1
			colEnd = col + utf8.RuneCountInString(rw.form)
		}

		t := &TaggedToken{
			Token: Token{
				Index:     rw.id,
				Text:      rw.form,
				Start:     start,
				End:       end,
				FileName:  r.fileName,
				Line:      rw.lineNo,
				Column:    col,
				LineEnd:   rw.lineNo,
				ColumnEnd: colEnd,
			},
			Tag: Tag{Code: rw.tag, OpenClass: r.openClass[rw.tag]},
		}
		if e, ok := entryFromFeats(rw); ok {
			t.Entries = []LexicalEntry{e}
		} else if r.entries != nil {
			t.Entries = r.entries.Entries(rw.form, rw.tag)
		}
		tokens[i] = t
		byID[rw.id] = t
	}

	var arcs []Arc
	for i, rw := range rows {
		if rw.head == 0 {
			continue
		}
		gov, ok := byID[rw.head]
		if !ok {
			return nil, fmt.Errorf("%s:%d: token %d attached to unknown head %d: %w",
				r.fileName, rw.lineNo, rw.id, rw.head, ErrInvalidInput)
		}
		arcs = append(arcs, Arc{Head: gov, Dependent: tokens[i], Label: rw.label})
	}

	return NewSentence(text, r.fileName, tokens, arcs)
}

// entryFromFeats builds a lexical entry from "g=m|n=p" style features.
// It reports false when the features carry neither gender nor number.
func entryFromFeats(rw row) (LexicalEntry, bool) {
	if rw.feats == "" || rw.feats == "_" {
		return LexicalEntry{}, false
	}
	e := LexicalEntry{Word: rw.form, Lemma: rw.lemma, Category: rw.tag}
	if e.Lemma == "_" {
		e.Lemma = rw.form
	}
	for _, kv := range strings.Split(rw.feats, "|") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || v == "" {
			continue
		}
		vals := strings.Split(v, ",")
		switch strings.ToLower(k) {
		case "g", "gender":
			e.Gender = append(e.Gender, vals...)
		case "n", "number":
			e.Number = append(e.Number, vals...)
		}
	}
	if !e.HasGender() && !e.HasNumber() {
		return LexicalEntry{}, false
	}
	return e, true
}
