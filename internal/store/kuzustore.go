//go:build cgo

package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements Store on KuzuDB, keeping terms as graph nodes and
// head/expansion relations as edges. It requires CGO because the go-kuzu
// driver wraps KuzuDB's C library.
type KuzuStore struct {
	// mu serializes use of the single connection. An open Tx holds it.
	mu   sync.Mutex
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by an on-disk KuzuDB at dbPath.
// KuzuDB creates the leaf directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Term(
		text STRING,
		frequency INT64,
		head_count INT64,
		expansion_count INT64,
		lexical_word_count INT64,
		marked BOOLEAN,
		PRIMARY KEY(text)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Context(
		id STRING,
		term STRING,
		file_name STRING,
		line INT64,
		col INT64,
		end_line INT64,
		end_col INT64,
		text_segment STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_HEAD(FROM Term TO Term)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_EXPANSION(FROM Term TO Term)`,
	`CREATE REL TABLE IF NOT EXISTS OCCURS_IN(FROM Term TO Context)`,
}

var relationTables = []RelationKind{RelationHead, RelationExpansion}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Transactions ----------

type kuzuTx struct {
	s    *KuzuStore
	done bool
}

// Begin takes the connection lock and opens a KuzuDB write transaction.
func (s *KuzuStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if err := s.exec("BEGIN TRANSACTION", nil); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return &kuzuTx{s: s}, nil
}

func (tx *kuzuTx) finish(stmt string) error {
	if tx.done {
		return nil
	}
	tx.done = true
	defer tx.s.mu.Unlock()
	return tx.s.exec(stmt, nil)
}

func (tx *kuzuTx) Commit(_ context.Context) error {
	if tx.done {
		return errTxDone
	}
	return tx.finish("COMMIT")
}

func (tx *kuzuTx) Rollback(_ context.Context) error { return tx.finish("ROLLBACK") }

func (tx *kuzuTx) FindOrCreateTerm(_ context.Context, text string, lexicalWordCount int) (*Term, bool, error) {
	if tx.done {
		return nil, false, errTxDone
	}
	t, err := tx.s.getTerm(text)
	if err != nil || t != nil {
		return t, false, err
	}
	err = tx.s.exec(
		`CREATE (t:Term {
			text: $text,
			frequency: 0,
			head_count: 0,
			expansion_count: 0,
			lexical_word_count: $lwc,
			marked: false
		})`,
		map[string]any{"text": text, "lwc": int64(lexicalWordCount)},
	)
	if err != nil {
		return nil, false, err
	}
	return &Term{Text: text, LexicalWordCount: lexicalWordCount}, true, nil
}

func (tx *kuzuTx) FindOrCreateContext(_ context.Context, c Context) (bool, error) {
	if tx.done {
		return false, errTxDone
	}
	t, err := tx.s.getTerm(c.Term)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, ErrNotFound
	}
	id := c.key()
	n, err := tx.s.count("MATCH (c:Context {id: $id}) RETURN count(c)", map[string]any{"id": id})
	if err != nil || n > 0 {
		return false, err
	}
	err = tx.s.exec(
		`CREATE (c:Context {
			id: $id,
			term: $term,
			file_name: $file,
			line: $line,
			col: $col,
			end_line: $el,
			end_col: $ec,
			text_segment: $seg
		})`,
		map[string]any{
			"id":   id,
			"term": c.Term,
			"file": c.FileName,
			"line": int64(c.Line),
			"col":  int64(c.Column),
			"el":   int64(c.EndLine),
			"ec":   int64(c.EndColumn),
			"seg":  c.TextSegment,
		},
	)
	if err != nil {
		return false, err
	}
	err = tx.s.exec(
		`MATCH (t:Term {text: $term}), (c:Context {id: $id})
		 CREATE (t)-[:OCCURS_IN]->(c)`,
		map[string]any{"term": c.Term, "id": id},
	)
	if err != nil {
		return false, err
	}
	err = tx.s.exec(
		"MATCH (t:Term {text: $term}) SET t.frequency = t.frequency + 1",
		map[string]any{"term": c.Term},
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (tx *kuzuTx) AddExpansion(_ context.Context, parent, expansion string) error {
	return tx.relate(parent, expansion, RelationExpansion)
}

func (tx *kuzuTx) AddHead(_ context.Context, term, head string) error {
	return tx.relate(term, head, RelationHead)
}

func (tx *kuzuTx) relate(source, target string, kind RelationKind) error {
	if tx.done {
		return errTxDone
	}
	for _, text := range []string{source, target} {
		t, err := tx.s.getTerm(text)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrNotFound
		}
	}
	params := map[string]any{"src": source, "dst": target}
	// Relation table names are fixed constants, not user input.
	n, err := tx.s.count(fmt.Sprintf(
		"MATCH (a:Term {text: $src})-[r:%s]->(b:Term {text: $dst}) RETURN count(r)", kind), params)
	if err != nil || n > 0 {
		return err
	}
	counter := "expansion_count"
	if kind == RelationHead {
		counter = "head_count"
	}
	err = tx.s.exec(fmt.Sprintf(
		`MATCH (a:Term {text: $src}), (b:Term {text: $dst})
		 CREATE (a)-[:%s]->(b)`, kind), params)
	if err != nil {
		return err
	}
	return tx.s.exec(fmt.Sprintf(
		"MATCH (a:Term {text: $src}) SET a.%s = a.%s + 1", counter, counter),
		map[string]any{"src": source})
}

// ---------- Read operations ----------

const termColumns = "t.text, t.frequency, t.head_count, t.expansion_count, t.lexical_word_count, t.marked"

// GetTerm retrieves a term by text, or returns nil if not found.
func (s *KuzuStore) GetTerm(_ context.Context, text string) (*Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTerm(text)
}

func (s *KuzuStore) getTerm(text string) (*Term, error) {
	rows, err := s.query(
		"MATCH (t:Term {text: $text}) RETURN "+termColumns,
		map[string]any{"text": text},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	t := rowToTerm(rows[0])
	return &t, nil
}

// QueryTerms returns terms whose text contains the query string.
func (s *KuzuStore) QueryTerms(_ context.Context, queryStr string, limit int) ([]Term, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(fmt.Sprintf(
		`MATCH (t:Term) WHERE t.text CONTAINS $q
		 RETURN %s
		 ORDER BY t.frequency DESC, t.text
		 LIMIT %d`, termColumns, limit),
		map[string]any{"q": queryStr},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Term, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToTerm(r))
	}
	return out, nil
}

func (s *KuzuStore) Heads(_ context.Context, text string) ([]string, error) {
	return s.related(text, RelationHead)
}

func (s *KuzuStore) Expansions(_ context.Context, text string) ([]string, error) {
	return s.related(text, RelationExpansion)
}

func (s *KuzuStore) related(text string, kind RelationKind) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(fmt.Sprintf(
		"MATCH (a:Term {text: $text})-[:%s]->(b:Term) RETURN b.text ORDER BY b.text", kind),
		map[string]any{"text": text},
	)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

func (s *KuzuStore) Contexts(_ context.Context, text string) ([]Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(
		`MATCH (t:Term {text: $text})-[:OCCURS_IN]->(c:Context)
		 RETURN c.file_name, c.line, c.col, c.end_line, c.end_col, c.text_segment
		 ORDER BY c.file_name, c.line, c.col`,
		map[string]any{"text": text},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Context, 0, len(rows))
	for _, r := range rows {
		out = append(out, Context{
			Term:        text,
			FileName:    toString(r[0]),
			Line:        toInt(r[1]),
			Column:      toInt(r[2]),
			EndLine:     toInt(r[3]),
			EndColumn:   toInt(r[4]),
			TextSegment: toString(r[5]),
		})
	}
	return out, nil
}

// Relations returns all head and expansion edges.
func (s *KuzuStore) Relations(_ context.Context) ([]Relation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Relation
	for _, kind := range relationTables {
		rows, err := s.query(fmt.Sprintf(
			"MATCH (a:Term)-[:%s]->(b:Term) RETURN a.text, b.text ORDER BY a.text, b.text", kind), nil)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, Relation{Source: toString(r[0]), Target: toString(r[1]), Kind: kind})
		}
	}
	return out, nil
}

// ---------- Stats ----------

// Stats returns counts of terms, contexts and relations.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	terms, err := s.count("MATCH (n:Term) RETURN count(n)", nil)
	if err != nil {
		return nil, err
	}
	contexts, err := s.count("MATCH (n:Context) RETURN count(n)", nil)
	if err != nil {
		return nil, err
	}
	rels := 0
	for _, kind := range relationTables {
		n, err := s.count(fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", kind), nil)
		if err != nil {
			return nil, err
		}
		rels += n
	}
	return &Stats{TermCount: terms, ContextCount: contexts, RelationCount: rels}, nil
}

// ---------- Internal helpers ----------
// Callers hold s.mu.

// exec runs a Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	if len(params) == 0 {
		res, err := s.conn.Query(cypher)
		if err != nil {
			return fmt.Errorf("kuzu: execute: %w", err)
		}
		res.Close()
		return nil
	}
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all result rows. Each row is a
// []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string, params map[string]any) (int, error) {
	rows, err := s.query(cypher, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// rowToTerm converts a result row in termColumns order.
func rowToTerm(r []any) Term {
	return Term{
		Text:             toString(r[0]),
		Frequency:        toInt(r[1]),
		HeadCount:        toInt(r[2]),
		ExpansionCount:   toInt(r[3]),
		LexicalWordCount: toInt(r[4]),
		Marked:           toBool(r[5]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, bool, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
