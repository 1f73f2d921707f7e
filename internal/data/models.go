// internal/data/models.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrRecordNotFound is returned when a query finds no matching row.
var ErrRecordNotFound = errors.New("record not found")

// ErrTimeout is returned when the caller's deadline expired before the
// store answered. It is distinct from other storage failures so callers can
// decide to retry.
var ErrTimeout = errors.New("operation timed out")

// ErrEmptyBatch is returned by UpsertAll when given no records.
var ErrEmptyBatch = errors.New("batch must contain at least one record")

// Models is a top-level container that groups all database model types
// together. It is passed around the application via applicationDependencies
// so every handler has access to the database without importing sql directly.
type Models struct {
	Books   BookModel  // Create-or-replace writes and reads for the books table
	Queries QueryModel // Guarded ad-hoc read-only queries
}

// NewModels constructs a Models value wired up to the given connection pool.
// table is the configured books table name, already checked against an
// identifier pattern at startup; it is identifier-quoted exactly once here
// and interpolated into every statement the models build.
func NewModels(db *sql.DB, table string) Models {
	quoted := pq.QuoteIdentifier(table)
	return Models{
		Books:   BookModel{DB: db, table: quoted},
		Queries: QueryModel{DB: db},
	}
}

// BookModel wraps a *sql.DB connection and performs all writes and reads
// keyed on a book's UPC.
type BookModel struct {
	DB    *sql.DB
	table string // quoted table name, safe to interpolate
}

// BatchResult reports how an atomic batch of upserts was applied.
type BatchResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
}

// queryRower is satisfied by both *sql.DB and *sql.Tx, so the single-record
// upsert statement runs identically inside and outside a transaction.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Upsert writes book as a single atomic create-or-replace keyed on UPC.
// A novel UPC inserts a row; an existing UPC has every non-key column
// replaced unconditionally — the write that commits last wins outright.
// The returned flag is true when a new row was created. The operation is a
// single statement, never check-then-insert, so two concurrent writers for
// the same new UPC converge on one row instead of racing.
func (m BookModel) Upsert(ctx context.Context, book *Book) (bool, error) {
	created, err := m.upsert(ctx, m.DB, book)
	if err != nil {
		return false, err
	}
	return created, nil
}

// UpsertAll applies books, in order, inside one transaction: either every
// record is persisted or none are. The per-record semantics are the same as
// Upsert. The transaction is rolled back on every non-commit exit path.
func (m BookModel) UpsertAll(ctx context.Context, books []*Book) (BatchResult, error) {
	if len(books) == 0 {
		return BatchResult{}, ErrEmptyBatch
	}

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return BatchResult{}, storageError(err)
	}
	// No-op after a successful Commit.
	defer tx.Rollback()

	var result BatchResult
	for _, book := range books {
		created, err := m.upsert(ctx, tx, book)
		if err != nil {
			return BatchResult{}, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
		result.Processed++
	}

	if err := tx.Commit(); err != nil {
		return BatchResult{}, storageError(err)
	}
	return result, nil
}

// upsert runs the conflict-resolving insert against q and scans the
// database-assigned timestamps back into book. The (xmax = 0) expression is
// true only for a freshly inserted row, which is how a create is told apart
// from a replace without a second round-trip.
func (m BookModel) upsert(ctx context.Context, q queryRower, book *Book) (bool, error) {
	key, err := identityKey(book)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (title, price, rating, description, category, upc, num_available_units, image_url, book_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (upc) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			rating = EXCLUDED.rating,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			num_available_units = EXCLUDED.num_available_units,
			image_url = EXCLUDED.image_url,
			book_url = EXCLUDED.book_url,
			updated_at = now()
		RETURNING created_at, updated_at, (xmax = 0) AS inserted`, m.table)

	args := []any{
		book.Title,
		book.Price,
		book.Rating,
		book.Description,
		book.Category,
		key,
		book.NumAvailableUnits,
		book.ImageURL,
		book.BookURL,
	}

	var created bool
	err = q.QueryRowContext(ctx, query, args...).Scan(&book.CreatedAt, &book.UpdatedAt, &created)
	if err != nil {
		return false, storageError(err)
	}
	return created, nil
}

// Get retrieves the single book stored under upc. The key is matched
// exactly as supplied. Returns ErrRecordNotFound if no row exists.
func (m BookModel) Get(ctx context.Context, upc string) (*Book, error) {
	if upc == "" || len(upc) > MaxUPCLength {
		return nil, ErrRecordNotFound
	}

	query := fmt.Sprintf(`
		SELECT title, price, rating, description, category, upc, num_available_units, image_url, book_url, created_at, updated_at
		FROM %s
		WHERE upc = $1`, m.table)

	var book Book
	err := m.DB.QueryRowContext(ctx, query, upc).Scan(
		&book.Title,
		&book.Price,
		&book.Rating,
		&book.Description,
		&book.Category,
		&book.UPC,
		&book.NumAvailableUnits,
		&book.ImageURL,
		&book.BookURL,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, storageError(err)
		}
	}
	return &book, nil
}

// storageError maps context failures onto the error taxonomy. A deadline
// expiry becomes ErrTimeout; everything else passes through untouched and
// is reported to clients generically by the HTTP layer.
func storageError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
