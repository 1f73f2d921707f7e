// Package main is the entry point for the book records API server.
// It wires together configuration, the database connection, and the HTTP
// router, then hands off to serve() for graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/booklabs/bookstore-api/internal/data"

	_ "github.com/lib/pq" // Register the PostgreSQL driver with database/sql.
)

// appVersion is the current version of the API, shown in logs and /health.
const appVersion = "1.0.0"

// identifierRX constrains the configured table name to a plain SQL
// identifier before it is ever interpolated into a statement.
var identifierRX = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// serverConfig holds all the values that can be tweaked at startup.
// Listener settings come from command-line flags; database settings come
// from required environment variables.
type serverConfig struct {
	port        int    // TCP port the HTTP server listens on (default 4000)
	environment string // Runtime environment: development, staging, or production
	db          struct {
		dsn          string        // PostgreSQL Data Source Name, built from the environment
		table        string        // Books table name (TABLE_NAME)
		queryTimeout time.Duration // Per-operation deadline applied to every database call
	}
}

// applicationDependencies bundles every shared resource that HTTP handlers need.
// A pointer to this struct is passed as the receiver on all handler and route methods.
type applicationDependencies struct {
	config serverConfig // Server configuration
	logger *slog.Logger // Structured logger that writes to stdout
	models data.Models  // Database model layer
}

// main parses flags, loads the database settings from the environment,
// opens the connection pool, wires up dependencies, and starts the server.
func main() {
	var settings serverConfig

	flag.IntVar(&settings.port, "port", 4000, "Server port")
	flag.StringVar(&settings.environment, "env", "development", "Environment(development|staging|production)")
	flag.DurationVar(&settings.db.queryTimeout, "db-timeout", 10*time.Second, "Per-operation database deadline")

	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Database credentials have no defaults: a missing value fails here, at
	// startup, never lazily at first query.
	dsn, table, err := loadDatabaseSettings()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	settings.db.dsn = dsn
	settings.db.table = table

	// Open and verify the database connection pool.
	db, err := openDB(settings)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("database connection pool established")

	appInstance := &applicationDependencies{
		config: settings,
		logger: logger,
		models: data.NewModels(db, settings.db.table),
	}

	err = appInstance.serve()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// loadDatabaseSettings reads the required environment variables and builds
// the PostgreSQL DSN. Every missing variable is reported in a single pass
// so operators do not fix them one at a time.
func loadDatabaseSettings() (dsn, table string, err error) {
	required := []string{"DB_NAME", "DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "TABLE_NAME"}

	values := make(map[string]string, len(required))
	var missing []string
	for _, name := range required {
		v := os.Getenv(name)
		if v == "" {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}
	if len(missing) > 0 {
		return "", "", fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	table = values["TABLE_NAME"]
	if !identifierRX.MatchString(table) {
		return "", "", fmt.Errorf("TABLE_NAME %q is not a valid SQL identifier", table)
	}

	// Build the DSN with url.URL so credentials containing reserved
	// characters are escaped correctly.
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(values["DB_USER"], values["DB_PASSWORD"]),
		Host:   values["DB_HOST"] + ":" + values["DB_PORT"],
		Path:   "/" + values["DB_NAME"],
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		q := u.Query()
		q.Set("sslmode", v)
		u.RawQuery = q.Encode()
	}

	return u.String(), table, nil
}

// openDB opens a PostgreSQL connection pool using the DSN stored in settings,
// then pings the database with a 5-second timeout to confirm it is reachable.
// Returns the pool on success, or an error if the connection cannot be established.
func openDB(settings serverConfig) (*sql.DB, error) {
	// sql.Open only validates the DSN format; it does not actually connect yet.
	db, err := sql.Open("postgres", settings.db.dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// PingContext performs a real round-trip to verify the database is reachable.
	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
