package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

var runColumns = []string{"id", "user_id", "fingerprint", "schema_version", "summary", "result_json", "cached", "created_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestRunRepository_Save(t *testing.T) {
	// Given
	db, mock := newMock(t)
	created := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	run := &domain.Run{
		ID: "run-1", UserID: "user_01", Fingerprint: "fp", SchemaVersion: "v2",
		Summary: "AI coach", Result: json.RawMessage(`{"overall":{}}`), CreatedAt: created,
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_runs")).
		WithArgs("run-1", "user_01", "fp", "v2", "AI coach", `{"overall":{}}`, false, created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// When
	err := NewRunRepository(db).Save(context.Background(), run)

	// Then
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_SaveEmptyResultBecomesObject(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_runs")).
		WithArgs("run-1", "-", "fp", "v1", "", "{}", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := NewRunRepository(db).Save(context.Background(), &domain.Run{ID: "run-1", Fingerprint: "fp", SchemaVersion: "v1", Cached: true})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_GetNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_runs")).
		WithArgs("user_01", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := NewRunRepository(db).Get(context.Background(), "user_01", "missing")

	assert.True(t, errors.Is(err, domain.ErrRunNotFound))
}

func TestRunRepository_Paginate(t *testing.T) {
	// Given: two rows on the second page
	db, mock := newMock(t)
	created := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(runColumns).
		AddRow("run-2", "user_01", "fp2", "v2", "second", []byte(`{"a":1}`), true, created).
		AddRow("run-1", "user_01", "fp1", "v2", "first", []byte(`{"a":2}`), false, created.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT ? OFFSET ?")).
		WithArgs("user_01", 10, 10).
		WillReturnRows(rows)

	// When
	runs, err := NewRunRepository(db).Paginate(context.Background(), "user_01", 2, 10)

	// Then
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.True(t, runs[0].Cached)
	assert.JSONEq(t, `{"a":2}`, string(runs[1].Result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailureRepository_SaveWrapsInvalidDetails(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_failures")).
		WithArgs("user_01", "fp", "upstream", "timeout", "ai request timed out", `{"raw":"not json"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	f := &domain.Failure{UserID: "user_01", Fingerprint: "fp", Phase: "upstream", Kind: "timeout", Message: "ai request timed out", DetailsJSON: "not json"}
	err := NewFailureRepository(db).Save(context.Background(), f)

	require.NoError(t, err)
	assert.Equal(t, int64(7), f.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepository_Lookup(t *testing.T) {
	// Given
	db, mock := newMock(t)
	req := domain.Request{IdeaName: "AI Fitness Coach"}
	rows := sqlmock.NewRows([]string{"name", "similarity", "source", "market_note"}).
		AddRow("Fitbod", 0.85, "app store", "Fitness apps 20B USD").
		AddRow("Freeletics", 1.4, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE keyword IN (?,?,?)")).
		WithArgs("fitness", "coach", "analysis", referenceLimit).
		WillReturnRows(rows)
	req.Summary = "analysis"

	// When
	ref, err := NewReferenceRepository(db).Lookup(context.Background(), req)

	// Then
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "Fitness apps 20B USD", ref.MarketSize)
	require.Len(t, ref.Services, 2)
	assert.Equal(t, domain.ReferenceService{Name: "Fitbod", Similarity: 0.85, Source: "app store"}, ref.Services[0])
	assert.Equal(t, 1.0, ref.Services[1].Similarity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepository_NoKeywordsSkipsQuery(t *testing.T) {
	db, mock := newMock(t)

	ref, err := NewReferenceRepository(db).Lookup(context.Background(), domain.Request{IdeaName: "AI"})

	require.NoError(t, err)
	assert.Nil(t, ref)
	assert.NoError(t, mock.ExpectationsWereMet())
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
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT ?")).
		WithArgs("user_01", 5).
		WillReturnError(sql.ErrConnDone)

	_, err := NewFailureRepository(db).ListByUser(context.Background(), "user_01", 5)

	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
