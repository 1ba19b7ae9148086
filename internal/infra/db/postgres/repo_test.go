package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestRunRepository_SaveAndGet(t *testing.T) {
	// Given
	db, mock := newMock(t)
	repo := NewRunRepository(db)
	created := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7,$8)")).
		WithArgs("run-1", "user_01", "fp", "v2", "AI coach", `{"overall":{}}`, false, created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id=$1 AND id=$2")).
		WithArgs("user_01", "run-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "fingerprint", "schema_version", "summary", "result_json", "cached", "created_at"}).
			AddRow("run-1", "user_01", "fp", "v2", "AI coach", []byte(`{"overall":{}}`), false, created))

	// When
	err := repo.Save(context.Background(), &domain.Run{
		ID: "run-1", UserID: "user_01", Fingerprint: "fp", SchemaVersion: "v2",
		Summary: "AI coach", Result: json.RawMessage(`{"overall":{}}`), CreatedAt: created,
	})
	require.NoError(t, err)
	got, err := repo.Get(context.Background(), "user_01", "run-1")

	// Then
	require.NoError(t, err)
	assert.Equal(t, "AI coach", got.Summary)
	assert.Equal(t, created, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_GetNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_runs")).WillReturnError(sql.ErrNoRows)

	_, err := NewRunRepository(db).Get(context.Background(), "user_01", "nope")

	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRunRepository_PaginateClampsPageSize(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
		WithArgs("user_01", 100, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "fingerprint", "schema_version", "summary", "result_json", "cached", "created_at"}))

	runs, err := NewRunRepository(db).Paginate(context.Background(), "user_01", 0, 500)

	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailureRepository_SaveReturnsID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO analysis_failures")).
		WithArgs("user_01", "-", "upstream", "rate_limit_exceeded", "ai quota exceeded", "{}", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	f := &domain.Failure{UserID: "user_01", Phase: "upstream", Kind: "rate_limit_exceeded", Message: "ai quota exceeded"}
	require.NoError(t, NewFailureRepository(db).Save(context.Background(), f))

	assert.Equal(t, int64(3), f.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepository_LookupUsesArrayParameter(t *testing.T) {
	// Given
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE keyword = ANY($1)")).
		WithArgs(`{"fitness","coach"}`, referenceLimit).
		WillReturnRows(sqlmock.NewRows([]string{"name", "similarity", "source", "market_note"}).
			AddRow("Fitbod", 0.8, "app store", nil))

	// When
	ref, err := NewReferenceRepository(db).Lookup(context.Background(), domain.Request{IdeaName: "AI Fitness Coach"})

	// Then
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Empty(t, ref.MarketSize)
	assert.Equal(t, []domain.ReferenceService{{Name: "Fitbod", Similarity: 0.8, Source: "app store"}}, ref.Services)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepository_NoMatches(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM reference_services")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "similarity", "source", "market_note"}))

	ref, err := NewReferenceRepository(db).Lookup(context.Background(), domain.Request{IdeaName: "Pet Sitter"})

	require.NoError(t, err)
	assert.Nil(t, ref)
}

var failureColumns = []string{"id", "user_id", "fingerprint", "phase", "kind", "message", "details_json", "created_at"}

func TestFailureRepository_ListByUser(t *testing.T) {
	// Given
	db, mock := newMock(t)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_failures")).
		WithArgs("user_01", 20).
		WillReturnRows(sqlmock.NewRows(failureColumns).
			AddRow(int64(9), "user_01", "fp", "upstream", "timeout", "ai request timed out", `{"status":0}`, at).
			AddRow(int64(8), "user_01", "fp", "mapping", "malformed_response", "not json", "{}", at.Add(-time.Minute)))

	// When
	got, err := NewFailureRepository(db).ListByUser(context.Background(), "user_01", 0)

	// Then
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(9), got[0].ID)
	assert.Equal(t, "timeout", got[0].Kind)
	assert.JSONEq(t, `{"status":0}`, got[0].DetailsJSON)
	assert.Equal(t, "mapping", got[1].Phase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailureRepository_ListByUserQueryError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2")).
		WithArgs("user_01", 5).
		WillReturnError(sql.ErrConnDone)

	_, err := NewFailureRepository(db).ListByUser(context.Background(), "user_01", 5)

	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
