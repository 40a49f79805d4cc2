package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridematch/internal/domain"
	"ridematch/internal/middleware"
	"ridematch/internal/repository"
)

// AccountHandler handles HTTP requests for accounts.
type AccountHandler struct {
	accountRepo repository.AccountRepository
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountRepo repository.AccountRepository) *AccountHandler {
	return &AccountHandler{accountRepo: accountRepo}
}

// RegisterRequest is the HTTP request body for account registration.
type RegisterRequest struct {
	Name string `json:"name"`
}

// AccountResponse is the HTTP response for account data.
type AccountResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Register handles POST /v1/accounts/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}

	accountID := middleware.ActorID(c)
	existing, err := h.accountRepo.GetByID(c.Request.Context(), accountID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"message": "account already registered",
			"account": AccountResponse{ID: existing.ID, Name: existing.Name, Active: existing.Active},
		})
		return
	}

	account := &domain.Account{
		ID:        accountID,
		Name:      req.Name,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := h.accountRepo.Create(c.Request.Context(), account); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, AccountResponse{ID: account.ID, Name: account.Name, Active: account.Active})
}

// GetMe handles GET /v1/accounts/me
func (h *AccountHandler) GetMe(c *gin.Context) {
	account, err := h.accountRepo.GetByID(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, AccountResponse{ID: account.ID, Name: account.Name, Active: account.Active})
}

// Deactivate handles POST /v1/accounts/deactivate
func (h *AccountHandler) Deactivate(c *gin.Context) {
	accountID := middleware.ActorID(c)
	if err := h.accountRepo.SetActive(c.Request.Context(), accountID, false); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"message": "account deactivated"})
}
