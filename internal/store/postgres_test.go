package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var termRowColumns = []string{"text", "frequency", "head_count", "expansion_count", "lexical_word_count", "marked"}

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewPostgresStore(mockPool, "proj")
}

func TestPostgresStore_InitSchema(t *testing.T) {
	mockPool, s := newMockStore(t)
	mockPool.ExpectExec("CREATE TABLE IF NOT EXISTS terms").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mockPool.ExpectExec("CREATE TABLE IF NOT EXISTS term_contexts").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mockPool.ExpectExec("CREATE TABLE IF NOT EXISTS term_relations").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresStore_FindOrCreateTerm(t *testing.T) {
	t.Run("Should report a new term as created", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		ctx := context.Background()
		mockPool.ExpectBegin()
		mockPool.ExpectExec("INSERT INTO terms \\(project_code,text,lexical_word_count\\)").
			WithArgs("proj", "chat noir", 2).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectQuery("SELECT (.+) FROM terms WHERE project_code = \\$1 AND text = \\$2").
			WithArgs("proj", "chat noir").
			WillReturnRows(mockPool.NewRows(termRowColumns).AddRow("chat noir", 0, 0, 0, 2, false))
		mockPool.ExpectCommit()

		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		term, created, err := tx.FindOrCreateTerm(ctx, "chat noir", 2)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "chat noir", term.Text)
		assert.Equal(t, 2, term.LexicalWordCount)
		require.NoError(t, tx.Commit(ctx))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should return the existing term", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		ctx := context.Background()
		mockPool.ExpectBegin()
		mockPool.ExpectExec("INSERT INTO terms").
			WithArgs("proj", "chat", 1).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mockPool.ExpectQuery("SELECT (.+) FROM terms").
			WithArgs("proj", "chat").
			WillReturnRows(mockPool.NewRows(termRowColumns).AddRow("chat", 7, 0, 3, 1, false))
		mockPool.ExpectRollback()

		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		term, created, err := tx.FindOrCreateTerm(ctx, "chat", 1)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, 7, term.Frequency)
		assert.Equal(t, 3, term.ExpansionCount)
		require.NoError(t, tx.Rollback(ctx))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresStore_FindOrCreateContext(t *testing.T) {
	c := Context{Term: "chat", FileName: "a.conll", Line: 1, Column: 4, EndLine: 1, EndColumn: 8, TextSegment: "Le chat dort"}

	t.Run("Should bump frequency for a new occurrence", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		ctx := context.Background()
		mockPool.ExpectBegin()
		mockPool.ExpectExec("INSERT INTO term_contexts").
			WithArgs("proj", "chat", "a.conll", 1, 4, 1, 8, "Le chat dort").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec("UPDATE terms SET frequency = frequency \\+ 1 WHERE project_code = \\$1 AND text = \\$2").
			WithArgs("proj", "chat").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectCommit()

		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		created, err := tx.FindOrCreateContext(ctx, c)
		require.NoError(t, err)
		assert.True(t, created)
		require.NoError(t, tx.Commit(ctx))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should leave frequency alone for a known occurrence", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		ctx := context.Background()
		mockPool.ExpectBegin()
		mockPool.ExpectExec("INSERT INTO term_contexts").
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mockPool.ExpectCommit()

		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		created, err := tx.FindOrCreateContext(ctx, c)
		require.NoError(t, err)
		assert.False(t, created)
		require.NoError(t, tx.Commit(ctx))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should fail when the term is missing", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		ctx := context.Background()
		mockPool.ExpectBegin()
		mockPool.ExpectExec("INSERT INTO term_contexts").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec("UPDATE terms").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mockPool.ExpectRollback()

		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		_, err = tx.FindOrCreateContext(ctx, c)
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, tx.Rollback(ctx))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresStore_Relations(t *testing.T) {
	mockPool, s := newMockStore(t)
	ctx := context.Background()
	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO term_relations").
		WithArgs("proj", "chat noir", "petit chat noir", "HAS_EXPANSION").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("UPDATE terms SET expansion_count = expansion_count \\+ 1").
		WithArgs("proj", "chat noir").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec("INSERT INTO term_relations").
		WithArgs("proj", "chat noir", "chat", "HAS_HEAD").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("UPDATE terms SET head_count = head_count \\+ 1").
		WithArgs("proj", "chat noir").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec("INSERT INTO term_relations").
		WithArgs("proj", "chat noir", "chat", "HAS_HEAD").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mockPool.ExpectCommit()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.AddExpansion(ctx, "chat noir", "petit chat noir"))
	require.NoError(t, tx.AddHead(ctx, "chat noir", "chat"))
	require.NoError(t, tx.AddHead(ctx, "chat noir", "chat"))
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresStore_BeginWaitsForOpenTx(t *testing.T) {
	mockPool, s := newMockStore(t)
	ctx := context.Background()
	mockPool.ExpectBegin()
	mockPool.ExpectCommit()
	mockPool.ExpectBegin()
	mockPool.ExpectRollback()

	first, err := s.Begin(ctx)
	require.NoError(t, err)

	second := make(chan Tx, 1)
	go func() {
		tx, err := s.Begin(ctx)
		assert.NoError(t, err)
		second <- tx
	}()

	select {
	case <-second:
		t.Fatal("second transaction began while the first was open")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Commit(ctx))

	select {
	case tx := <-second:
		require.NotNil(t, tx)
		require.NoError(t, tx.Rollback(ctx))
	case <-time.After(time.Second):
		t.Fatal("second transaction never began")
	}
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresStore_BeginFailureReleasesLock(t *testing.T) {
	mockPool, s := newMockStore(t)
	ctx := context.Background()
	mockPool.ExpectBegin().WillReturnError(errors.New("connection refused"))
	mockPool.ExpectBegin()
	mockPool.ExpectCommit()

	_, err := s.Begin(ctx)
	require.Error(t, err)
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestIsRetryable(t *testing.T) {
	tests := map[string]struct {
		err  error
		want bool
	}{
		"deadlock":      {fmt.Errorf("postgres: insert term: %w", &pgconn.PgError{Code: "40P01"}), true},
		"serialization": {&pgconn.PgError{Code: "40001"}, true},
		"unique":        {&pgconn.PgError{Code: "23505"}, false},
		"not found":     {ErrNotFound, false},
		"nil":           {nil, false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestPostgresStore_Reads(t *testing.T) {
	t.Run("Should return nil for a missing term", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		mockPool.ExpectQuery("SELECT (.+) FROM terms").
			WithArgs("proj", "chien").
			WillReturnError(pgx.ErrNoRows)
		got, err := s.GetTerm(context.Background(), "chien")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should query terms by frequency", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		mockPool.ExpectQuery("SELECT (.+) FROM terms WHERE project_code = \\$1 AND strpos\\(text, \\$2\\) > 0 ORDER BY frequency DESC, text LIMIT 5").
			WithArgs("proj", "chat").
			WillReturnRows(mockPool.NewRows(termRowColumns).
				AddRow("chat noir", 3, 1, 1, 2, false).
				AddRow("chat", 2, 0, 1, 1, false))
		ts, err := s.QueryTerms(context.Background(), "chat", 5)
		require.NoError(t, err)
		require.Len(t, ts, 2)
		assert.Equal(t, "chat noir", ts[0].Text)
		assert.Equal(t, 3, ts[0].Frequency)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should list heads", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		mockPool.ExpectQuery("SELECT target FROM term_relations WHERE kind = \\$1 AND project_code = \\$2 AND source = \\$3 ORDER BY target").
			WithArgs("HAS_HEAD", "proj", "chat noir").
			WillReturnRows(mockPool.NewRows([]string{"target"}).AddRow("chat"))
		heads, err := s.Heads(context.Background(), "chat noir")
		require.NoError(t, err)
		assert.Equal(t, []string{"chat"}, heads)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should list contexts", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		mockPool.ExpectQuery("SELECT (.+) FROM term_contexts").
			WithArgs("proj", "chat").
			WillReturnRows(mockPool.NewRows([]string{"file_name", "line", "col", "end_line", "end_col", "text_segment"}).
				AddRow("a.conll", 1, 4, 1, 8, "Le chat dort"))
		cs, err := s.Contexts(context.Background(), "chat")
		require.NoError(t, err)
		require.Len(t, cs, 1)
		assert.Equal(t, Context{Term: "chat", FileName: "a.conll", Line: 1, Column: 4, EndLine: 1, EndColumn: 8, TextSegment: "Le chat dort"}, cs[0])
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should count per project", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		mockPool.ExpectQuery("SELECT count\\(\\*\\) FROM terms WHERE").
			WithArgs("proj").
			WillReturnRows(mockPool.NewRows([]string{"count"}).AddRow(3))
		mockPool.ExpectQuery("SELECT count\\(\\*\\) FROM term_contexts WHERE").
			WithArgs("proj").
			WillReturnRows(mockPool.NewRows([]string{"count"}).AddRow(5))
		mockPool.ExpectQuery("SELECT count\\(\\*\\) FROM term_relations WHERE").
			WithArgs("proj").
			WillReturnRows(mockPool.NewRows([]string{"count"}).AddRow(2))
		st, err := s.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, &Stats{TermCount: 3, ContextCount: 5, RelationCount: 2}, st)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
