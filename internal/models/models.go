package models

import "fmt"

// ReadingStatus is the shelf a book sits on within a personal library.
type ReadingStatus string

const (
	StatusWantToRead ReadingStatus = "Want to Read"
	StatusReading    ReadingStatus = "Reading"
	StatusRead       ReadingStatus = "Read"
)

// ReadingStatuses lists every valid status, in display order.
var ReadingStatuses = []ReadingStatus{StatusWantToRead, StatusReading, StatusRead}

// ValidStatus reports whether s is one of the recognised reading statuses.
func ValidStatus(s string) bool {
	for _, rs := range ReadingStatuses {
		if string(rs) == s {
			return true
		}
	}
	return false
}

// Book is a single entry in an account's personal library. IDs are assigned
// per account as library length + 1 at insertion time; they are not globally
// unique and may be reissued after deletions.
type Book struct {
	ID     int           `json:"id"`
	Title  string        `json:"title"`
	Author string        `json:"author"`
	ISBN   *string       `json:"isbn"`
	Status ReadingStatus `json:"status"`
}

func (b *Book) String() string {
	return fmt.Sprintf("'%s' by %s (%s)", b.Title, b.Author, b.Status)
}

// Review is a free-text review attached to a book. BookTitle is a snapshot
// taken when the review is created, not re-derived from the library.
type Review struct {
	BookID     int    `json:"book_id"`
	BookTitle  string `json:"book_title"`
	ReviewText string `json:"review_text"`
}

// Candidate is a search result offered back to the caller for
// disambiguation. Its ID is always null: the book has not been added yet.
type Candidate struct {
	ID     *int    `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	ISBN   *string `json:"isbn"`
}

// Account is the persisted credential row for a user.
type Account struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:255;not null;uniqueIndex" json:"username"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`
	Salt         string `gorm:"size:128;not null" json:"-"`
}

// BookStatusRecord is the persisted reading status for one book of one
// account, written whenever a status update is requested.
type BookStatusRecord struct {
	AccountID uint          `gorm:"primaryKey;autoIncrement:false" json:"account_id"`
	BookID    int           `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	Status    ReadingStatus `gorm:"size:32;not null" json:"status"`
}

// Library is the in-memory collection state one account exclusively owns:
// the ordered personal library, the favorites subset (shared pointers into
// the library, not copies) and the account's reviews.
type Library struct {
	Books     []*Book
	Favorites []*Book
	Reviews   []Review
}

// NewLibrary returns a fresh, empty library. Each account gets its own
// instance; collections are never shared across accounts.
func NewLibrary() *Library {
	return &Library{
		Books:     make([]*Book, 0),
		Favorites: make([]*Book, 0),
		Reviews:   make([]Review, 0),
	}
}
