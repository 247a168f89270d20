package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the minimal database interface PostgresStore depends on (pgxpool or
// pgxmock).
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// querier is the subset shared by DB and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps one term base per project code in shared tables.
type PostgresStore struct {
	// writeMu is held by an open Tx. Sentences sharing terms would otherwise
	// take row locks in different orders.
	writeMu sync.Mutex
	db      DB
	project string
	close   func()
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an existing connection. Closing the store does not
// close db.
func NewPostgresStore(db DB, project string) *PostgresStore {
	return &PostgresStore{db: db, project: project}
}

// ConnectPostgres opens a pool for dsn.
func ConnectPostgres(ctx context.Context, dsn, project string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	s := NewPostgresStore(pool, project)
	s.close = pool.Close
	return s, nil
}

func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var postgresDDL = []string{
	`CREATE TABLE IF NOT EXISTS terms (
		project_code TEXT NOT NULL,
		text TEXT NOT NULL,
		frequency INTEGER NOT NULL DEFAULT 0,
		head_count INTEGER NOT NULL DEFAULT 0,
		expansion_count INTEGER NOT NULL DEFAULT 0,
		lexical_word_count INTEGER NOT NULL DEFAULT 0,
		marked BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (project_code, text)
	)`,
	`CREATE TABLE IF NOT EXISTS term_contexts (
		project_code TEXT NOT NULL,
		term TEXT NOT NULL,
		file_name TEXT NOT NULL,
		line INTEGER NOT NULL,
		col INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_col INTEGER NOT NULL,
		text_segment TEXT NOT NULL,
		PRIMARY KEY (project_code, term, file_name, line, col),
		FOREIGN KEY (project_code, term) REFERENCES terms (project_code, text)
	)`,
	`CREATE TABLE IF NOT EXISTS term_relations (
		project_code TEXT NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		kind TEXT NOT NULL,
		PRIMARY KEY (project_code, source, target, kind),
		FOREIGN KEY (project_code, source) REFERENCES terms (project_code, text),
		FOREIGN KEY (project_code, target) REFERENCES terms (project_code, text)
	)`,
}

func (s *PostgresStore) InitSchema(ctx context.Context) error {
	for _, stmt := range postgresDDL {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init schema: %w", err)
		}
	}
	return nil
}

// ---------- Transactions ----------

type postgresTx struct {
	tx      pgx.Tx
	project string
	release sync.Once
	unlock  func()
}

// Begin waits for the previous write transaction to finish.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.writeMu.Lock()
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.writeMu.Unlock()
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	return &postgresTx{tx: tx, project: s.project, unlock: s.writeMu.Unlock}, nil
}

func (t *postgresTx) done() { t.release.Do(t.unlock) }

func (t *postgresTx) Commit(ctx context.Context) error {
	defer t.done()
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	defer t.done()
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

// IsRetryable reports whether err aborted a transaction that may succeed when
// run again: a deadlock or a serialization failure, for instance between two
// processes writing the same project.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40P01" || pgErr.Code == "40001"
}

func (t *postgresTx) FindOrCreateTerm(ctx context.Context, text string, lexicalWordCount int) (*Term, bool, error) {
	sql, args, err := psql.Insert("terms").
		Columns("project_code", "text", "lexical_word_count").
		Values(t.project, text, lexicalWordCount).
		Suffix("ON CONFLICT (project_code, text) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("building insert: %w", err)
	}
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return nil, false, fmt.Errorf("postgres: insert term: %w", err)
	}
	term, err := getTerm(ctx, t.tx, t.project, text)
	if err != nil {
		return nil, false, err
	}
	if term == nil {
		return nil, false, fmt.Errorf("postgres: term %q vanished: %w", text, ErrNotFound)
	}
	return term, tag.RowsAffected() == 1, nil
}

func (t *postgresTx) FindOrCreateContext(ctx context.Context, c Context) (bool, error) {
	sql, args, err := psql.Insert("term_contexts").
		Columns("project_code", "term", "file_name", "line", "col", "end_line", "end_col", "text_segment").
		Values(t.project, c.Term, c.FileName, c.Line, c.Column, c.EndLine, c.EndColumn, c.TextSegment).
		Suffix("ON CONFLICT (project_code, term, file_name, line, col) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building insert: %w", err)
	}
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("postgres: insert context: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if err := t.increment(ctx, c.Term, "frequency"); err != nil {
		return false, err
	}
	return true, nil
}

func (t *postgresTx) AddExpansion(ctx context.Context, parent, expansion string) error {
	return t.relate(ctx, parent, expansion, RelationExpansion)
}

func (t *postgresTx) AddHead(ctx context.Context, term, head string) error {
	return t.relate(ctx, term, head, RelationHead)
}

func (t *postgresTx) relate(ctx context.Context, source, target string, kind RelationKind) error {
	sql, args, err := psql.Insert("term_relations").
		Columns("project_code", "source", "target", "kind").
		Values(t.project, source, target, string(kind)).
		Suffix("ON CONFLICT (project_code, source, target, kind) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("postgres: insert relation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	counter := "expansion_count"
	if kind == RelationHead {
		counter = "head_count"
	}
	return t.increment(ctx, source, counter)
}

// increment bumps one counter column of a term.
func (t *postgresTx) increment(ctx context.Context, text, column string) error {
	sql, args, err := psql.Update("terms").
		Set(column, squirrel.Expr(column+" + 1")).
		Where(squirrel.Eq{"project_code": t.project, "text": text}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("postgres: update %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: %q: %w", text, ErrNotFound)
	}
	return nil
}

// ---------- Read operations ----------

var termColumnsSQL = []string{"text", "frequency", "head_count", "expansion_count", "lexical_word_count", "marked"}

func scanTerm(row pgx.Row) (Term, error) {
	var t Term
	err := row.Scan(&t.Text, &t.Frequency, &t.HeadCount, &t.ExpansionCount, &t.LexicalWordCount, &t.Marked)
	return t, err
}

func getTerm(ctx context.Context, q querier, project, text string) (*Term, error) {
	sql, args, err := psql.Select(termColumnsSQL...).
		From("terms").
		Where(squirrel.Eq{"project_code": project, "text": text}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	t, err := scanTerm(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get term: %w", err)
	}
	return &t, nil
}

// GetTerm returns the term, or nil if not found.
func (s *PostgresStore) GetTerm(ctx context.Context, text string) (*Term, error) {
	return getTerm(ctx, s.db, s.project, text)
}

func (s *PostgresStore) QueryTerms(ctx context.Context, query string, limit int) ([]Term, error) {
	sb := psql.Select(termColumnsSQL...).
		From("terms").
		Where(squirrel.Eq{"project_code": s.project}).
		Where("strpos(text, ?) > 0", query).
		OrderBy("frequency DESC", "text")
	if limit > 0 {
		sb = sb.Limit(uint64(limit))
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query terms: %w", err)
	}
	defer rows.Close()

	var out []Term
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan term: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Heads(ctx context.Context, text string) ([]string, error) {
	return s.related(ctx, text, RelationHead)
}

func (s *PostgresStore) Expansions(ctx context.Context, text string) ([]string, error) {
	return s.related(ctx, text, RelationExpansion)
}

func (s *PostgresStore) related(ctx context.Context, text string, kind RelationKind) ([]string, error) {
	sql, args, err := psql.Select("target").
		From("term_relations").
		Where(squirrel.Eq{"project_code": s.project, "source": text, "kind": string(kind)}).
		OrderBy("target").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query relations: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PostgresStore) Contexts(ctx context.Context, text string) ([]Context, error) {
	sql, args, err := psql.Select("file_name", "line", "col", "end_line", "end_col", "text_segment").
		From("term_contexts").
		Where(squirrel.Eq{"project_code": s.project, "term": text}).
		OrderBy("file_name", "line", "col").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query contexts: %w", err)
	}
	defer rows.Close()

	var out []Context
	for rows.Next() {
		c := Context{Term: text}
		if err := rows.Scan(&c.FileName, &c.Line, &c.Column, &c.EndLine, &c.EndColumn, &c.TextSegment); err != nil {
			return nil, fmt.Errorf("postgres: scan context: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Relations(ctx context.Context) ([]Relation, error) {
	sql, args, err := psql.Select("source", "target", "kind").
		From("term_relations").
		Where(squirrel.Eq{"project_code": s.project}).
		OrderBy("source", "kind", "target").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query relations: %w", err)
	}
	defer rows.Close()

	var out []Relation
	for rows.Next() {
		var r Relation
		var kind string
		if err := rows.Scan(&r.Source, &r.Target, &kind); err != nil {
			return nil, fmt.Errorf("postgres: scan relation: %w", err)
		}
		r.Kind = RelationKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"terms", &st.TermCount},
		{"term_contexts", &st.ContextCount},
		{"term_relations", &st.RelationCount},
	} {
		sql, args, err := psql.Select("count(*)").
			From(c.table).
			Where(squirrel.Eq{"project_code": s.project}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("building query: %w", err)
		}
		if err := s.db.QueryRow(ctx, sql, args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("postgres: count %s: %w", c.table, err)
		}
	}
	return &st, nil
}
