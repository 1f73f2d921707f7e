package sqlguard

import (
	"errors"
	"testing"
)

func TestAuthorizeAcceptsReadOnlySelects(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"plain select", "SELECT * FROM books"},
		{"lowercase", "select title, price from books"},
		{"leading whitespace", "   SELECT 1"},
		{"trailing semicolon", "SELECT title FROM books;"},
		{"order and limit", "SELECT * FROM books WHERE category = 'Fiction' ORDER BY price DESC LIMIT 10"},
		{"subquery", "SELECT title FROM books WHERE rating >= (SELECT AVG(rating) FROM books)"},
		{"union", "SELECT title FROM books UNION SELECT category FROM books"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authorized, err := Authorize(tt.query)
			if err != nil {
				t.Fatalf("Authorize(%q) rejected a read-only statement: %v", tt.query, err)
			}
			if authorized.SQL() == "" {
				t.Error("authorized query lost its statement text")
			}
		})
	}
}

func TestAuthorizeRejectsUnsafeText(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantKeyword string
	}{
		{"update statement", "UPDATE books SET price=0", "UPDATE"},
		{"delete statement", "DELETE FROM books WHERE upc = '1'", "DELETE"},
		{"drop statement", "drop table books", "DROP"},
		{"truncate statement", "TRUNCATE books", "TRUNCATE"},
		{"stacked statements", "SELECT 1; DROP TABLE books", "DROP"},
		{"keyword inside comment", "SELECT * FROM books -- DROP TABLE books", "DROP"},
		{"keyword inside string literal", "SELECT * FROM books WHERE title = 'insert me'", "INSERT"},
		{"non-select leading keyword", "EXPLAIN SELECT * FROM books", "EXPLAIN"},
		{"cte leading keyword", "WITH recent AS (SELECT 1) SELECT * FROM recent", "WITH"},
		{"multiple selects", "SELECT 1; SELECT 2", ""},
		{"empty text", "", ""},
		{"whitespace only", "   \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Authorize(tt.query)
			if err == nil {
				t.Fatalf("Authorize(%q) accepted unsafe text", tt.query)
			}

			var rejection *RejectionError
			if !errors.As(err, &rejection) {
				t.Fatalf("Authorize(%q) returned %T, want *RejectionError", tt.query, err)
			}
			if tt.wantKeyword != "" && rejection.Keyword != tt.wantKeyword {
				t.Errorf("Authorize(%q) cited keyword %q, want %q", tt.query, rejection.Keyword, tt.wantKeyword)
			}
		})
	}
}

func TestAuthorizeIsDeterministic(t *testing.T) {
	const query = "SELECT upc, title FROM books"

	first, err := Authorize(query)
	if err != nil {
		t.Fatalf("first call rejected: %v", err)
	}
	second, err := Authorize(query)
	if err != nil {
		t.Fatalf("second call rejected: %v", err)
	}
	if first.SQL() != second.SQL() {
		t.Errorf("repeated calls disagree: %q vs %q", first.SQL(), second.SQL())
	}
}

func TestRejectionErrorNamesTheConstruct(t *testing.T) {
	_, err := Authorize("UPDATE books SET price=0")

	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected *RejectionError, got %T", err)
	}
	if got := rejection.Error(); got == "" {
		t.Fatal("rejection message is empty")
	} else if rejection.Keyword != "UPDATE" {
		t.Errorf("got keyword %q, want UPDATE", rejection.Keyword)
	}
}
