package data

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/booklabs/bookstore-api/internal/sqlguard"
)

func newTestQueryModel(t *testing.T) (QueryModel, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("opening stub database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return QueryModel{DB: db}, mock
}

func mustAuthorize(t *testing.T, query string) sqlguard.AuthorizedQuery {
	t.Helper()
	authorized, err := sqlguard.Authorize(query)
	if err != nil {
		t.Fatalf("Authorize(%q): %v", query, err)
	}
	return authorized
}

func TestRunReturnsRowsInOrder(t *testing.T) {
	m, mock := newTestQueryModel(t)

	rows := sqlmock.NewRows([]string{"title", "price"}).
		AddRow([]byte("Dune"), 10.5).
		AddRow([]byte("Emma"), 7.25)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price FROM books ORDER BY title")).WillReturnRows(rows)
	mock.ExpectCommit()

	results, err := m.Run(context.Background(), mustAuthorize(t, "SELECT title, price FROM books ORDER BY title"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d rows, want 2", len(results))
	}
	// Byte slices from the driver come back as strings.
	if got := results[0]["title"]; got != "Dune" {
		t.Errorf("results[0][title] = %v (%T), want Dune", got, got)
	}
	if got := results[1]["price"]; got != 7.25 {
		t.Errorf("results[1][price] = %v, want 7.25", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRunReturnsEmptySliceForNoRows(t *testing.T) {
	m, mock := newTestQueryModel(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title FROM books")).
		WillReturnRows(sqlmock.NewRows([]string{"title"}))
	mock.ExpectCommit()

	results, err := m.Run(context.Background(), mustAuthorize(t, "SELECT title FROM books"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("got %v, want an empty non-nil slice", results)
	}
}

func TestRunSurfacesExecutionFailure(t *testing.T) {
	m, mock := newTestQueryModel(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nope FROM books")).
		WillReturnError(errors.New(`column "nope" does not exist`))
	mock.ExpectRollback()

	_, err := m.Run(context.Background(), mustAuthorize(t, "SELECT nope FROM books"))
	if err == nil {
		t.Fatal("expected an execution error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRunSurfacesTimeout(t *testing.T) {
	m, mock := newTestQueryModel(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title FROM books")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	_, err := m.Run(context.Background(), mustAuthorize(t, "SELECT title FROM books"))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}
