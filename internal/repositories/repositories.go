package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Max-OMeara/Library/internal/models"
)

type AccountRepository interface {
	Create(db *gorm.DB, account *models.Account) error
	GetByUsername(db *gorm.DB, username string) (*models.Account, error)
	UpdateCredentials(db *gorm.DB, id uint, passwordHash, salt string) error
	Delete(db *gorm.DB, id uint) error
}

type BookStatusRepository interface {
	Upsert(db *gorm.DB, record *models.BookStatusRecord) error
	ListByAccount(db *gorm.DB, accountID uint) ([]models.BookStatusRecord, error)
	DeleteByAccount(db *gorm.DB, accountID uint) error
}

// concrete implementations

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(db *gorm.DB, account *models.Account) error {
	if db == nil {
		db = r.db
	}
	return db.Create(account).Error
}

func (r *accountRepository) GetByUsername(db *gorm.DB, username string) (*models.Account, error) {
	if db == nil {
		db = r.db
	}
	var account models.Account
	if err := db.First(&account, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) UpdateCredentials(db *gorm.DB, id uint, passwordHash, salt string) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"salt":          salt,
		}).Error
}

func (r *accountRepository) Delete(db *gorm.DB, id uint) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Account{}, "id = ?", id).Error
}

type bookStatusRepository struct {
	db *gorm.DB
}

func NewBookStatusRepository(db *gorm.DB) BookStatusRepository {
	return &bookStatusRepository{db: db}
}

// Upsert writes the status row keyed by (account_id, book_id), replacing any
// previous status for the same book.
func (r *bookStatusRepository) Upsert(db *gorm.DB, record *models.BookStatusRecord) error {
	if db == nil {
		db = r.db
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status"}),
	}).Create(record).Error
}

func (r *bookStatusRepository) ListByAccount(db *gorm.DB, accountID uint) ([]models.BookStatusRecord, error) {
	if db == nil {
		db = r.db
	}
	var records []models.BookStatusRecord
	if err := db.Where("account_id = ?", accountID).
		Order("book_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *bookStatusRepository) DeleteByAccount(db *gorm.DB, accountID uint) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.BookStatusRecord{}, "account_id = ?", accountID).Error
}
