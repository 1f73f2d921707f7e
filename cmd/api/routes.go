// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes registers all HTTP endpoints and returns the configured router
// wrapped in the middleware chain.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → rateLimit → requestID → logRequest → instrument → router
//
// Current endpoints:
//
//	POST /upsert       – create-or-replace one book record
//	POST /batch-upsert – atomically create-or-replace a batch of records
//	POST /query        – run a guarded read-only query
//	GET  /books/:upc   – retrieve a single record by its identity key
//	GET  /health       – liveness indicator
//	GET  /metrics      – Prometheus exposition
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodPost, "/upsert", app.upsertBookHandler)
	router.HandlerFunc(http.MethodPost, "/batch-upsert", app.batchUpsertHandler)
	router.HandlerFunc(http.MethodPost, "/query", app.queryBooksHandler)
	router.HandlerFunc(http.MethodGet, "/books/:upc", app.showBookHandler)
	router.HandlerFunc(http.MethodGet, "/health", app.healthCheckHandler)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	// recoverPanic is outermost so it catches panics from every other
	// middleware and the router alike. requestID runs before logRequest so
	// the log line carries the ID.
	return app.recoverPanic(app.rateLimit(app.requestID(app.logRequest(app.instrument(router)))))
}
