package services

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/Max-OMeara/Library/internal/models"
	"github.com/Max-OMeara/Library/internal/repositories"
)

// saltBytes is the width of the random salt before hex encoding.
const saltBytes = 64

// ─── Password Hashing ─────────────────────────────────────────────────────────
//
// Credentials are SHA-512(plaintext || salt) with a 64-byte hex-encoded salt.
// The scheme is part of the compatibility contract with existing account
// rows, so a dedicated password KDF cannot be substituted here.

func hashPassword(password, salt string) string {
	sum := sha512.Sum512([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// SetPassword assigns a fresh random salt and the matching SHA-512 hash to
// the account. It fails only if the system random source does.
func SetPassword(account *models.Account, password string) error {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	account.Salt = hex.EncodeToString(buf)
	account.PasswordHash = hashPassword(password, account.Salt)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// Accounts with no salt or hash on record never match.
func CheckPassword(account *models.Account, password string) bool {
	if account.Salt == "" || account.PasswordHash == "" {
		return false
	}
	return account.PasswordHash == hashPassword(password, account.Salt)
}

// ─── Service Interface ────────────────────────────────────────────────────────

// AccountService manages account lifecycle and credential checks.
type AccountService interface {
	Create(username, password string) (*models.Account, error)
	GetByUsername(username string) (*models.Account, error)
	Authenticate(username, password string) (*models.Account, error)
	UpdatePassword(username, oldPassword, newPassword string) error
	Delete(username, password string) error
}

type accountService struct {
	db       *gorm.DB
	accounts repositories.AccountRepository
	statuses repositories.BookStatusRepository
	registry *Registry
}

// NewAccountService wires up the account service.
func NewAccountService(
	db *gorm.DB,
	accounts repositories.AccountRepository,
	statuses repositories.BookStatusRepository,
	registry *Registry,
) AccountService {
	return &accountService{
		db:       db,
		accounts: accounts,
		statuses: statuses,
		registry: registry,
	}
}

// ─── Operations ───────────────────────────────────────────────────────────────

// Create registers a new account with a hashed password.
func (s *accountService) Create(username, password string) (*models.Account, error) {
	account := &models.Account{Username: username}
	if err := SetPassword(account, password); err != nil {
		log.Printf("[ERROR] Create: random source failure: %v", err)
		return nil, err
	}

	if err := s.accounts.Create(nil, account); err != nil {
		if isUniqueViolation(err) {
			log.Printf("[WARN] Create: duplicate username %q", username)
			return nil, ErrAccountExists
		}
		log.Printf("[ERROR] Create: failed to persist account %q: %v", username, err)
		return nil, &PersistenceError{Op: "create account", Err: err}
	}

	log.Printf("[INFO] Create: account created for %q (id=%d)", username, account.ID)
	return account, nil
}

// GetByUsername loads the credential row for username.
func (s *accountService) GetByUsername(username string) (*models.Account, error) {
	account, err := s.accounts.GetByUsername(nil, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, &PersistenceError{Op: "load account", Err: err}
	}
	return account, nil
}

// Authenticate verifies username/password. Unknown usernames report the same
// ErrInvalidCredentials as a wrong password.
func (s *accountService) Authenticate(username, password string) (*models.Account, error) {
	account, err := s.GetByUsername(username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(account, password) {
		log.Printf("[WARN] Authenticate: password mismatch for %q", username)
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// UpdatePassword replaces the credentials after verifying the old password.
func (s *accountService) UpdatePassword(username, oldPassword, newPassword string) error {
	account, err := s.Authenticate(username, oldPassword)
	if err != nil {
		return err
	}

	if err := SetPassword(account, newPassword); err != nil {
		log.Printf("[ERROR] UpdatePassword: random source failure: %v", err)
		return err
	}
	if err := s.accounts.UpdateCredentials(nil, account.ID, account.PasswordHash, account.Salt); err != nil {
		log.Printf("[ERROR] UpdatePassword: failed to persist credentials for %q: %v", username, err)
		return &PersistenceError{Op: "update password", Err: err}
	}

	log.Printf("[INFO] UpdatePassword: credentials rotated for %q", username)
	return nil
}

// Delete removes the account row, its persisted statuses and its in-memory
// library as one unit. The password must match; absence is reported
// distinctly so the boundary can answer 404 rather than 401.
func (s *accountService) Delete(username, password string) error {
	account, err := s.GetByUsername(username)
	if err != nil {
		return err
	}
	if !CheckPassword(account, password) {
		log.Printf("[WARN] Delete: password mismatch for %q", username)
		return ErrInvalidCredentials
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.statuses.DeleteByAccount(tx, account.ID); err != nil {
			return err
		}
		return s.accounts.Delete(tx, account.ID)
	})
	if err != nil {
		log.Printf("[ERROR] Delete: transaction failed for %q: %v", username, err)
		return &PersistenceError{Op: "delete account", Err: err}
	}

	s.registry.Remove(username)
	log.Printf("[INFO] Delete: account %q removed", username)
	return nil
}

// isUniqueViolation checks for a unique-constraint failure. PostgreSQL error
// code 23505 = unique_violation; the other checks cover gorm's translated
// error and the sqlite databases used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint failed")
}
