package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Max-OMeara/Library/internal/auth"
	"github.com/Max-OMeara/Library/internal/models"
	"github.com/Max-OMeara/Library/internal/services"
)

// LibraryHandler adapts the HTTP surface onto the account and library
// services. Every response body carries a "message" field; domain errors are
// mapped to status codes here and never leak as panics.
type LibraryHandler struct {
	accounts  services.AccountService
	library   services.LibraryService
	jwtSecret []byte
}

func RegisterRoutes(r *gin.Engine, accounts services.AccountService, library services.LibraryService, jwtSecret []byte) {
	h := &LibraryHandler{accounts: accounts, library: library, jwtSecret: jwtSecret}

	r.GET("/", h.home)

	// Account endpoints
	r.POST("/create-account", h.createAccount)
	r.POST("/login", h.login)
	r.PUT("/update-password", h.updatePassword)
	r.DELETE("/delete-account", h.deleteAccount)

	// Library endpoints
	r.GET("/api/get-library", h.getLibrary)
	r.POST("/api/add-book", h.addBook)
	r.DELETE("/api/delete-book/:book_id", h.deleteBook)
	r.PUT("/api/update-status/:book_id", h.updateStatus)
	r.POST("/api/add-favorite-book", h.addFavoriteBook)

	// Review endpoints
	r.POST("/api/add-review", h.addReview)
	r.GET("/api/get-reviews", h.getReviews)
	r.DELETE("/api/delete-review", h.deleteReview)
}

func (h *LibraryHandler) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Library API is running"})
}

// ─── Accounts ─────────────────────────────────────────────────────────────────

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *LibraryHandler) createAccount(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	_, err := h.accounts.Create(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrAccountExists) {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("User with username '%s' already exists", req.Username)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Account created successfully for %s", req.Username)})
}

func (h *LibraryHandler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	account, err := h.accounts.Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password"})
		return
	}

	token, err := auth.SignToken(h.jwtSecret, account.ID, account.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error signing session token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
}

type updatePasswordRequest struct {
	Username    string `json:"username" binding:"required"`
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *LibraryHandler) updatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username, old password and new password are required"})
		return
	}

	if err := h.accounts.UpdatePassword(req.Username, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *LibraryHandler) deleteAccount(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	if err := h.accounts.Delete(req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("User with username '%s' not found", req.Username)})
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting account"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Account deleted successfully for %s", req.Username)})
}

// resolveAccount looks up the account for username, answering 404 itself
// when it is absent. Returns nil after writing the response on failure.
func (h *LibraryHandler) resolveAccount(c *gin.Context, username string) *models.Account {
	account, err := h.accounts.GetByUsername(username)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("User with username '%s' not found", username)})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error loading account"})
		}
		return nil
	}
	return account
}

// ─── Library ──────────────────────────────────────────────────────────────────

func (h *LibraryHandler) getLibrary(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide a username"})
		return
	}
	account := h.resolveAccount(c, username)
	if account == nil {
		return
	}
	c.JSON(http.StatusOK, h.library.GetLibrary(account))
}

type addBookRequest struct {
	Username string `json:"username" binding:"required"`
	Title    string `json:"title"`
	Author   string `json:"author"`
}

func (h *LibraryHandler) addBook(c *gin.Context) {
	var req addBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide a username"})
		return
	}
	account := h.resolveAccount(c, req.Username)
	if account == nil {
		return
	}

	book, err := h.library.AddBook(c.Request.Context(), account, req.Title, req.Author)
	if err != nil {
		var validation *services.ValidationError
		var ambiguous *services.AmbiguousTitleError
		var duplicate *services.DuplicateBookError
		switch {
		case errors.As(err, &validation):
			c.JSON(http.StatusBadRequest, gin.H{"message": validation.Error()})
		case errors.Is(err, services.ErrNoSearchResults):
			c.JSON(http.StatusNotFound, gin.H{"message": "No books found with that title"})
		case errors.As(err, &ambiguous):
			c.JSON(http.StatusMultipleChoices, gin.H{
				"message": ambiguous.Error(),
				"books":   ambiguous.Candidates,
			})
		case errors.As(err, &duplicate):
			c.JSON(http.StatusBadRequest, gin.H{
				"message": duplicate.Error(),
				"book":    duplicate.Existing,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch from OpenLibrary"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Success! '%s' by %s has been added to your library.", book.Title, book.Author),
		"book":    book,
	})
}

func (h *LibraryHandler) deleteBook(c *gin.Context) {
	bookID, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid book ID"})
		return
	}
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide a username"})
		return
	}
	account := h.resolveAccount(c, username)
	if account == nil {
		return
	}

	book, err := h.library.DeleteBook(account, bookID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("Book with ID %d not found in your personal library", bookID)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("'%s' has been deleted from your library", book.Title)})
}

type updateStatusRequest struct {
	Username string `json:"username" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

func (h *LibraryHandler) updateStatus(c *gin.Context) {
	bookID, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid book ID"})
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and status are required"})
		return
	}
	account := h.resolveAccount(c, req.Username)
	if account == nil {
		return
	}

	book, err := h.library.UpdateStatus(account, bookID, req.Status)
	if err != nil {
		var validation *services.ValidationError
		switch {
		case errors.As(err, &validation):
			c.JSON(http.StatusBadRequest, gin.H{"message": validation.Error()})
		case errors.Is(err, services.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("Book with ID %d not found in your personal library", bookID)})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating status"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book status updated.", "book": book})
}

type favoriteBookRequest struct {
	Username string `json:"username" binding:"required"`
	BookID   int    `json:"book_id" binding:"required"`
}

func (h *LibraryHandler) addFavoriteBook(c *gin.Context) {
	var req favoriteBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and book ID are required"})
		return
	}
	account := h.resolveAccount(c, req.Username)
	if account == nil {
		return
	}

	book, err := h.library.FavoriteBook(account, req.BookID)
	if err != nil {
		var already *services.AlreadyFavoriteError
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("Book with ID %d not found in your personal library", req.BookID)})
		case errors.As(err, &already):
			c.JSON(http.StatusBadRequest, gin.H{"message": already.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error adding favorite"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("'%s' has been added to your favorites and marked as Read", book.Title),
		"book":    book,
	})
}

// ─── Reviews ──────────────────────────────────────────────────────────────────

type addReviewRequest struct {
	Username string `json:"username" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Review   string `json:"review" binding:"required"`
	BookID   int    `json:"book_id" binding:"required"`
}

func (h *LibraryHandler) addReview(c *gin.Context) {
	var req addReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username, title, review and book ID are required"})
		return
	}
	account := h.resolveAccount(c, req.Username)
	if account == nil {
		return
	}

	review, err := h.library.AddReview(account, req.BookID, req.Review)
	if err != nil {
		var validation *services.ValidationError
		var already *services.AlreadyReviewedError
		switch {
		case errors.As(err, &validation):
			c.JSON(http.StatusBadRequest, gin.H{"message": validation.Error()})
		case errors.Is(err, services.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("Book with ID %d not found in your personal library", req.BookID)})
		case errors.As(err, &already):
			// Declined duplicate review; 402 is the documented contract code.
			c.JSON(http.StatusPaymentRequired, gin.H{"message": already.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error adding review"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Review added for '%s'", review.BookTitle),
		"review":  review,
	})
}

func (h *LibraryHandler) getReviews(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide a username"})
		return
	}
	account := h.resolveAccount(c, username)
	if account == nil {
		return
	}

	reviews, err := h.library.GetReviews(account)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "No reviews found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

type deleteReviewRequest struct {
	Username string `json:"username" binding:"required"`
	BookID   int    `json:"book_id" binding:"required"`
}

func (h *LibraryHandler) deleteReview(c *gin.Context) {
	var req deleteReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and book ID are required"})
		return
	}
	account := h.resolveAccount(c, req.Username)
	if account == nil {
		return
	}

	review, deleted, err := h.library.DeleteReview(account, req.BookID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("Book with ID %d not found in your personal library", req.BookID)})
		return
	}
	if !deleted {
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("No review found for book with ID %d", req.BookID)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Review deleted.",
		"review":  review,
	})
}
