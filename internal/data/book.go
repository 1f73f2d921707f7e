// Package data provides the data models and database access layer for the
// book records service.
package data

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/booklabs/bookstore-api/internal/validator"
)

// MaxUPCLength is the longest identity key the engine accepts, in bytes.
const MaxUPCLength = 32

// Book represents a single book record stored in the database.
//
// UPC is the identity key: exactly one row exists per distinct UPC value,
// and the value is matched byte-for-byte — no trimming, no case folding.
type Book struct {
	Title             string    `json:"title"`
	Price             float64   `json:"price"`
	Rating            int       `json:"rating"`
	Description       string    `json:"description,omitempty"`
	Category          string    `json:"category,omitempty"`
	UPC               string    `json:"upc"`
	NumAvailableUnits int       `json:"num_available_units"`
	ImageURL          string    `json:"image_url,omitempty"`
	BookURL           string    `json:"book_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UpsertBookInput holds the fields a client supplies when upserting a book.
// Description, category and the two URLs are optional; everything else is
// validated by ValidateBook before any write is attempted.
type UpsertBookInput struct {
	Title             string  `json:"title"`
	Price             float64 `json:"price"`
	Rating            int     `json:"rating"`
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	UPC               string  `json:"upc"`
	NumAvailableUnits int     `json:"num_available_units"`
	ImageURL          string  `json:"image_url"`
	BookURL           string  `json:"book_url"`
}

// Book maps the input fields onto a new Book record.
func (in UpsertBookInput) Book() *Book {
	return &Book{
		Title:             in.Title,
		Price:             in.Price,
		Rating:            in.Rating,
		Description:       in.Description,
		Category:          in.Category,
		UPC:               in.UPC,
		NumAvailableUnits: in.NumAvailableUnits,
		ImageURL:          in.ImageURL,
		BookURL:           in.BookURL,
	}
}

// ValidateBook runs every field-level check for a book record and records
// failures on v. Out-of-range values are rejected, never clamped.
func ValidateBook(v *validator.Validator, book *Book) {
	v.Check(book.Title != "", "title", "must be provided")
	v.Check(validator.MaxChars(book.Title, 500), "title", "must not be more than 500 characters long")
	v.Check(book.Price >= 0, "price", "must not be negative")
	v.Check(book.Rating >= 0 && book.Rating <= 5, "rating", "must be between 0 and 5")
	v.Check(book.UPC != "", "upc", "must be provided")
	v.Check(len(book.UPC) <= MaxUPCLength, "upc", fmt.Sprintf("must not be more than %d bytes long", MaxUPCLength))
	v.Check(book.NumAvailableUnits >= 0, "num_available_units", "must not be negative")
	v.Check(validURL(book.ImageURL), "image_url", "must be a valid URL")
	v.Check(validURL(book.BookURL), "book_url", "must be a valid URL")
}

// validURL accepts empty values; the URL fields are optional and checked on
// format only, never for reachability.
func validURL(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.ParseRequestURI(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// ErrInvalidIdentityKey is returned by the upsert engine when a record's
// UPC is missing, empty, or over-long.
var ErrInvalidIdentityKey = errors.New("invalid identity key")

// identityKey extracts and validates the identity key for a record. It is
// the engine-level gate: handlers validate with ValidateBook first, but the
// engine never trusts its caller to have done so. Pure, no side effects.
func identityKey(book *Book) (string, error) {
	switch {
	case book.UPC == "":
		return "", fmt.Errorf("%w: upc must be provided", ErrInvalidIdentityKey)
	case len(book.UPC) > MaxUPCLength:
		return "", fmt.Errorf("%w: upc must not be more than %d bytes long", ErrInvalidIdentityKey, MaxUPCLength)
	}
	return book.UPC, nil
}
