// internal/data/query.go
package data

import (
	"context"
	"database/sql"

	"github.com/booklabs/bookstore-api/internal/sqlguard"
)

// QueryModel executes guarded ad-hoc queries against the store.
type QueryModel struct {
	DB *sql.DB
}

// Run executes q inside a read-only transaction and materializes every row,
// in result-set order, as a column-name to value map. The AuthorizedQuery
// parameter is the proof that the statement already passed the guard; Run
// does not re-validate statement shape. The read-only transaction is belt
// and braces: even a statement the guard mis-judged cannot commit a write.
func (m QueryModel) Run(ctx context.Context, q sqlguard.AuthorizedQuery) ([]map[string]any, error) {
	tx, err := m.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, storageError(err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, q.SQL())
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, storageError(err)
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, storageError(err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			// The driver hands text columns back as []byte; JSON encoding
			// should see strings.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError(err)
	}
	return results, nil
}
