package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/Max-OMeara/Library/internal/models"
	"github.com/Max-OMeara/Library/internal/openlibrary"
	"github.com/Max-OMeara/Library/internal/repositories"
)

// ─── Service Interface ────────────────────────────────────────────────────────

// LibraryService is the reconciliation engine over an account's personal
// library: it decides duplicate / single-match / ambiguous outcomes when
// adding books and maintains the status grouping, favorites subset and
// per-book reviews.
type LibraryService interface {
	AddBook(ctx context.Context, account *models.Account, title, author string) (*models.Book, error)
	GetLibrary(account *models.Account) *LibraryView
	DeleteBook(account *models.Account, bookID int) (*models.Book, error)
	UpdateStatus(account *models.Account, bookID int, status string) (*models.Book, error)
	FavoriteBook(account *models.Account, bookID int) (*models.Book, error)
	AddReview(account *models.Account, bookID int, text string) (*models.Review, error)
	GetReviews(account *models.Account) ([]models.Review, error)
	DeleteReview(account *models.Account, bookID int) (*models.Review, bool, error)
}

type libraryService struct {
	searcher openlibrary.Searcher
	statuses repositories.BookStatusRepository
	registry *Registry
}

// NewLibraryService wires up the reconciliation engine.
func NewLibraryService(
	searcher openlibrary.Searcher,
	statuses repositories.BookStatusRepository,
	registry *Registry,
) LibraryService {
	return &libraryService{
		searcher: searcher,
		statuses: statuses,
		registry: registry,
	}
}

// ─── Library View ─────────────────────────────────────────────────────────────

// LibraryView is the derived read model of a library: books grouped by
// status plus the favorites subset.
type LibraryView struct {
	Books     *StatusGroups  `json:"books"`
	Favorites []*models.Book `json:"favorites"`
}

// StatusGroups groups books by reading status. Keys appear in first-
// occurrence order of each status while walking the library in its stored
// order, which plain Go maps (and their JSON encoding) cannot preserve.
type StatusGroups struct {
	order  []models.ReadingStatus
	groups map[models.ReadingStatus][]*models.Book
}

func newStatusGroups() *StatusGroups {
	return &StatusGroups{groups: make(map[models.ReadingStatus][]*models.Book)}
}

func (g *StatusGroups) add(b *models.Book) {
	if _, ok := g.groups[b.Status]; !ok {
		g.order = append(g.order, b.Status)
	}
	g.groups[b.Status] = append(g.groups[b.Status], b)
}

// Group returns the books recorded under status, nil if none.
func (g *StatusGroups) Group(status models.ReadingStatus) []*models.Book {
	return g.groups[status]
}

// Len returns the number of distinct statuses present.
func (g *StatusGroups) Len() int { return len(g.order) }

// MarshalJSON writes the groups as a JSON object whose keys keep first-
// occurrence order. An empty grouping encodes as {}.
func (g *StatusGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, status := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(status))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(g.groups[status])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ─── Add Book ─────────────────────────────────────────────────────────────────

// AddBook resolves a title (optionally narrowed by author) against the
// bibliographic provider and reconciles the committed candidate with the
// account's existing library.
//
// Disambiguation rule: with exactly one candidate, or with an author
// supplied, the engine commits to candidate[0] — the provider's ranking is
// trusted, never re-sorted. Otherwise the full candidate list is returned
// in an AmbiguousTitleError so the caller can resupply with an author.
func (s *libraryService) AddBook(ctx context.Context, account *models.Account, title, author string) (*models.Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &ValidationError{Msg: "Please provide a book title"}
	}

	docs, err := s.searcher.Search(ctx, title, author)
	if err != nil {
		log.Printf("[ERROR] AddBook: search failed for title %q: %v", title, err)
		return nil, &UpstreamError{Err: err}
	}
	if len(docs) == 0 {
		return nil, ErrNoSearchResults
	}

	if len(docs) > 1 && author == "" {
		candidates := make([]models.Candidate, len(docs))
		for i, doc := range docs {
			candidates[i] = models.Candidate{
				Title:  doc.DisplayTitle(),
				Author: doc.PrimaryAuthor(),
				ISBN:   doc.PrimaryISBN(),
			}
		}
		return nil, &AmbiguousTitleError{Candidates: candidates}
	}

	doc := docs[0]
	lib := s.registry.Library(account.Username)

	// Duplicate check runs only on the committed-candidate path.
	for _, existing := range lib.Books {
		if strings.EqualFold(existing.Title, doc.DisplayTitle()) &&
			strings.EqualFold(existing.Author, doc.PrimaryAuthor()) {
			log.Printf("[INFO] AddBook: declined duplicate %s for %q", existing, account.Username)
			return nil, &DuplicateBookError{Existing: existing}
		}
	}

	// Next id = current length + 1. IDs can collide after deletions; the
	// scheme is kept for compatibility with existing clients.
	book := &models.Book{
		ID:     len(lib.Books) + 1,
		Title:  doc.DisplayTitle(),
		Author: doc.PrimaryAuthor(),
		ISBN:   doc.PrimaryISBN(),
		Status: models.StatusWantToRead,
	}
	lib.Books = append(lib.Books, book)

	log.Printf("[INFO] AddBook: added %s (id=%d) for %q", book, book.ID, account.Username)
	return book, nil
}

// ─── Derived Views ────────────────────────────────────────────────────────────

// GetLibrary groups the personal library by status and snapshots the
// favorites list. It always succeeds; an empty library yields empty
// structures.
func (s *libraryService) GetLibrary(account *models.Account) *LibraryView {
	lib := s.registry.Library(account.Username)

	groups := newStatusGroups()
	for _, book := range lib.Books {
		groups.add(book)
	}

	favorites := make([]*models.Book, len(lib.Favorites))
	copy(favorites, lib.Favorites)

	return &LibraryView{Books: groups, Favorites: favorites}
}

// ─── Mutations ────────────────────────────────────────────────────────────────

// DeleteBook removes the first matching entry from the personal library.
// Favorites membership and any review are left untouched.
func (s *libraryService) DeleteBook(account *models.Account, bookID int) (*models.Book, error) {
	lib := s.registry.Library(account.Username)

	for i, book := range lib.Books {
		if book.ID == bookID {
			lib.Books = append(lib.Books[:i], lib.Books[i+1:]...)
			log.Printf("[INFO] DeleteBook: removed %s (id=%d) for %q", book, bookID, account.Username)
			return book, nil
		}
	}
	return nil, ErrBookNotFound
}

// UpdateStatus changes a book's reading status and writes the change to the
// status store. The in-memory status changes before the row write, so a
// failed write leaves memory ahead of storage.
func (s *libraryService) UpdateStatus(account *models.Account, bookID int, status string) (*models.Book, error) {
	if !models.ValidStatus(status) {
		return nil, &ValidationError{
			Msg: "Invalid status. Must be one of: 'Want to Read', 'Reading', 'Read'",
		}
	}

	lib := s.registry.Library(account.Username)
	book := findBook(lib, bookID)
	if book == nil {
		return nil, ErrBookNotFound
	}

	book.Status = models.ReadingStatus(status)
	record := &models.BookStatusRecord{
		AccountID: account.ID,
		BookID:    book.ID,
		Status:    book.Status,
	}
	if err := s.statuses.Upsert(nil, record); err != nil {
		log.Printf("[ERROR] UpdateStatus: failed to persist status for account=%d book=%d: %v", account.ID, bookID, err)
		return nil, &PersistenceError{Op: "update status", Err: err}
	}

	log.Printf("[INFO] UpdateStatus: %s now %q for %q", book.Title, book.Status, account.Username)
	return book, nil
}

// FavoriteBook marks a library book as a favorite. Favoriting is a
// side-effecting transition: the book's status is forced to "Read" and the
// same entity (not a copy) is appended to the favorites list.
func (s *libraryService) FavoriteBook(account *models.Account, bookID int) (*models.Book, error) {
	lib := s.registry.Library(account.Username)
	book := findBook(lib, bookID)
	if book == nil {
		return nil, ErrBookNotFound
	}

	for _, fav := range lib.Favorites {
		if fav.ID == bookID {
			return nil, &AlreadyFavoriteError{Title: fav.Title}
		}
	}

	book.Status = models.StatusRead
	lib.Favorites = append(lib.Favorites, book)

	log.Printf("[INFO] FavoriteBook: %s favorited for %q", book.Title, account.Username)
	return book, nil
}

// ─── Reviews ──────────────────────────────────────────────────────────────────

// AddReview attaches a free-text review to a library book. At most one
// review may exist per book; the stored title is a snapshot.
func (s *libraryService) AddReview(account *models.Account, bookID int, text string) (*models.Review, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Msg: "Please provide a review"}
	}

	lib := s.registry.Library(account.Username)
	book := findBook(lib, bookID)
	if book == nil {
		return nil, ErrBookNotFound
	}

	for _, review := range lib.Reviews {
		if review.BookID == bookID {
			return nil, &AlreadyReviewedError{Title: book.Title}
		}
	}

	review := models.Review{BookID: bookID, BookTitle: book.Title, ReviewText: text}
	lib.Reviews = append(lib.Reviews, review)

	log.Printf("[INFO] AddReview: review added for %q (book id=%d) by %q", book.Title, bookID, account.Username)
	return &review, nil
}

// GetReviews returns the account's reviews. Zero reviews is reported as
// ErrNoReviews rather than an empty success.
func (s *libraryService) GetReviews(account *models.Account) ([]models.Review, error) {
	lib := s.registry.Library(account.Username)
	if len(lib.Reviews) == 0 {
		return nil, ErrNoReviews
	}
	reviews := make([]models.Review, len(lib.Reviews))
	copy(reviews, lib.Reviews)
	return reviews, nil
}

// DeleteReview removes the review for bookID. The book itself must still be
// in the personal library; a review whose book was deleted cannot be removed
// through this path. When the book exists but carries no review the delete
// is declined without error: (nil, false, nil).
func (s *libraryService) DeleteReview(account *models.Account, bookID int) (*models.Review, bool, error) {
	lib := s.registry.Library(account.Username)
	if findBook(lib, bookID) == nil {
		return nil, false, ErrBookNotFound
	}

	for i, review := range lib.Reviews {
		if review.BookID == bookID {
			removed := review
			lib.Reviews = append(lib.Reviews[:i], lib.Reviews[i+1:]...)
			log.Printf("[INFO] DeleteReview: review removed for %q (book id=%d) by %q", removed.BookTitle, bookID, account.Username)
			return &removed, true, nil
		}
	}
	return nil, false, nil
}

// ─── Internal Helpers ─────────────────────────────────────────────────────────

func findBook(lib *models.Library, bookID int) *models.Book {
	for _, book := range lib.Books {
		if book.ID == bookID {
			return book
		}
	}
	return nil
}
