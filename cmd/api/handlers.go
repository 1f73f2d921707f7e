// cmd/api/handlers.go
// This file contains all HTTP request handlers for the books resource.
// Each handler is a method on *applicationDependencies so it has access
// to the logger and database models.
package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/booklabs/bookstore-api/internal/data"
	"github.com/booklabs/bookstore-api/internal/sqlguard"
	"github.com/booklabs/bookstore-api/internal/validator"
)

// upsertBookHandler handles POST /upsert.
// It reads one book record from the body, validates every field, and
// performs a single atomic create-or-replace keyed on the record's UPC.
// The response reports whether the row was created or updated.
func (app *applicationDependencies) upsertBookHandler(w http.ResponseWriter, r *http.Request) {
	var input data.UpsertBookInput

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book := input.Book()

	v := validator.New()
	if data.ValidateBook(v, book); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	ctx, cancel := app.operationContext(r)
	defer cancel()

	created, err := app.models.Books.Upsert(ctx, book)
	if err != nil {
		app.storageErrorResponse(w, r, err)
		return
	}

	status := "updated"
	if created {
		status = "created"
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book, "status": status}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// batchUpsertHandler handles POST /batch-upsert.
// The body is a JSON array of book records. Every record is validated
// before any write is attempted; a single invalid record rejects the whole
// batch with per-index field errors. Valid batches are applied in order
// inside one transaction — all records persist or none do.
func (app *applicationDependencies) batchUpsertHandler(w http.ResponseWriter, r *http.Request) {
	var inputs []data.UpsertBookInput

	err := app.readJSON(w, r, &inputs)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if len(inputs) == 0 {
		app.badRequestResponse(w, r, data.ErrEmptyBatch)
		return
	}

	// Validate the entire batch up front, collecting errors under keys like
	// "records[2].title" so clients can locate the offending record.
	books := make([]*data.Book, len(inputs))
	v := validator.New()
	for i, input := range inputs {
		book := input.Book()
		bv := validator.New()
		data.ValidateBook(bv, book)
		for field, message := range bv.Errors {
			v.AddError(fmt.Sprintf("records[%d].%s", i, field), message)
		}
		books[i] = book
	}
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	ctx, cancel := app.operationContext(r)
	defer cancel()

	result, err := app.models.Books.UpsertAll(ctx, books)
	if err != nil {
		app.storageErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"batch": result}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// queryBooksHandler handles POST /query.
// The raw query text is passed through the safety gate; only a single
// read-only SELECT is ever executed. Rejections return 400 with the
// offending construct, never an empty result set.
func (app *applicationDependencies) queryBooksHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Query string `json:"query"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	authorized, err := sqlguard.Authorize(input.Query)
	if err != nil {
		var rejection *sqlguard.RejectionError
		if errors.As(err, &rejection) {
			app.queryRejectedResponse(w, r, rejection)
			return
		}
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := app.operationContext(r)
	defer cancel()

	results, err := app.models.Queries.Run(ctx, authorized)
	if err != nil {
		app.storageErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"results": results}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /books/:upc.
// The UPC is matched exactly as supplied in the path. Responds 404 if no
// record exists under that key.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	upc, err := app.readUPCParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := app.operationContext(r)
	defer cancel()

	book, err := app.models.Books.Get(ctx, upc)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.storageErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// healthCheckHandler handles GET /health.
func (app *applicationDependencies) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	payload := envelope{
		"status": "available",
		"system_info": envelope{
			"environment": app.config.environment,
			"version":     appVersion,
		},
	}

	err := app.writeJSON(w, http.StatusOK, payload, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
