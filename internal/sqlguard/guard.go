// Package sqlguard is the static safety gate applied to free-form query
// text before it is allowed anywhere near the database. Authorize accepts a
// statement if and only if it is a single read-only SELECT. The checks are
// layered: a keyword scan over the entire text (which fires even inside
// comments and string literals), a leading-token check, a single-statement
// check, and finally a parser pass that asserts the root of the statement
// is a SELECT. Rejections always carry the offending construct so callers
// can report it.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// AuthorizedQuery is query text that has passed Authorize. Only this
// package can construct one, so an executor that takes an AuthorizedQuery
// holds proof of guarding at the type level and does not re-validate.
type AuthorizedQuery struct {
	sql string
}

// SQL returns the guarded statement text.
func (q AuthorizedQuery) SQL() string { return q.sql }

// RejectionError reports why a statement failed the gate.
type RejectionError struct {
	Keyword string // offending keyword, when one was found
	Reason  string
}

func (e *RejectionError) Error() string {
	if e.Keyword != "" {
		return fmt.Sprintf("query rejected: %s (keyword %q)", e.Reason, e.Keyword)
	}
	return "query rejected: " + e.Reason
}

// disallowed matches every keyword whose presence anywhere in the text
// disqualifies it: data modification, schema changes, and administrative
// statements. The scan is deliberately blunt and fires even when the word
// sits inside a comment or a string literal; a false rejection is the
// accepted price for never letting a mutation through in an odd position.
var disallowed = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|MERGE|COPY|CREATE|ALTER|DROP|TRUNCATE|RENAME|GRANT|REVOKE|VACUUM|REINDEX|CALL|DO|EXECUTE|PREPARE|SET|LISTEN|NOTIFY)\b`)

// Authorize classifies text as safe to execute. It is a pure function:
// deterministic, no side effects, safe to call repeatedly. On failure it
// returns a *RejectionError naming the disallowed construct.
func Authorize(text string) (AuthorizedQuery, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return AuthorizedQuery{}, &RejectionError{Reason: "query text is empty"}
	}

	if match := disallowed.FindString(trimmed); match != "" {
		return AuthorizedQuery{}, &RejectionError{
			Keyword: strings.ToUpper(match),
			Reason:  "disallowed keyword present",
		}
	}

	if token := firstToken(trimmed); !strings.EqualFold(token, "SELECT") {
		return AuthorizedQuery{}, &RejectionError{
			Keyword: strings.ToUpper(token),
			Reason:  "only SELECT statements are allowed",
		}
	}

	statements := 0
	for _, piece := range strings.Split(trimmed, ";") {
		if strings.TrimSpace(piece) != "" {
			statements++
		}
	}
	if statements != 1 {
		return AuthorizedQuery{}, &RejectionError{Reason: "exactly one statement is allowed"}
	}

	// Parser pass: when the statement parses, its root must be a SELECT.
	// The parser speaks the MySQL dialect, so a Postgres-specific SELECT it
	// cannot parse is still accepted on the strength of the checks above.
	stmt, err := sqlparser.Parse(strings.TrimSuffix(trimmed, ";"))
	if err == nil {
		if _, ok := stmt.(sqlparser.SelectStatement); !ok {
			return AuthorizedQuery{}, &RejectionError{Reason: "statement is not a plain SELECT"}
		}
	}

	return AuthorizedQuery{sql: trimmed}, nil
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
