package services

import (
	"errors"
	"fmt"

	"github.com/Max-OMeara/Library/internal/models"
)

// ─── Sentinel Errors ──────────────────────────────────────────────────────────

var (
	// ErrAccountNotFound is returned when the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned when registration hits the username unique
	// constraint.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidCredentials is returned when a supplied password does not match
	// the stored hash (or the account is unknown, to avoid leaking existence
	// on login).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrBookNotFound is returned when the referenced book is not in the
	// account's personal library.
	ErrBookNotFound = errors.New("book not found in personal library")

	// ErrNoSearchResults is returned when the bibliographic provider finds no
	// candidates for a title.
	ErrNoSearchResults = errors.New("no books found with that title")

	// ErrNoReviews is returned when an account has no reviews at all; an empty
	// review list is a not-found condition, not an empty success.
	ErrNoReviews = errors.New("no reviews found")
)

// ─── Typed Errors With Payloads ───────────────────────────────────────────────
//
// Duplicate and ambiguous outcomes are declined writes carrying data the
// caller needs, so they are struct errors rather than bare sentinels.

// ValidationError reports malformed or missing input, detected before any
// domain state is touched.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// DuplicateBookError is returned when an add request matches an existing
// library entry (case-insensitive title + author). It carries the existing
// book so the caller can report its current status.
type DuplicateBookError struct {
	Existing *models.Book
}

func (e *DuplicateBookError) Error() string {
	return fmt.Sprintf("'%s' by %s is already in your library with status: '%s'",
		e.Existing.Title, e.Existing.Author, e.Existing.Status)
}

// AmbiguousTitleError is returned when a title-only search yields several
// candidates; the caller must resupply with an author to disambiguate.
type AmbiguousTitleError struct {
	Candidates []models.Candidate
}

func (e *AmbiguousTitleError) Error() string {
	return fmt.Sprintf("I found %d books with that title. Please specify the author's name to help me find the right one:",
		len(e.Candidates))
}

// AlreadyFavoriteError is returned when a book is favorited twice.
type AlreadyFavoriteError struct {
	Title string
}

func (e *AlreadyFavoriteError) Error() string {
	return fmt.Sprintf("'%s' is already in your favorites", e.Title)
}

// AlreadyReviewedError is returned when a second review is attempted for the
// same book.
type AlreadyReviewedError struct {
	Title string
}

func (e *AlreadyReviewedError) Error() string {
	return fmt.Sprintf("You have already reviewed '%s'", e.Title)
}

// UpstreamError wraps a failure of the external bibliographic provider.
// Retrying is the provider client's responsibility, not the engine's.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return "Failed to fetch from OpenLibrary" }
func (e *UpstreamError) Unwrap() error { return e.Err }

// PersistenceError wraps a storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
