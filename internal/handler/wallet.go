package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridematch/internal/domain"
	"ridematch/internal/middleware"
	"ridematch/internal/service"
)

// WalletHandler handles HTTP requests for the wallet ledger.
type WalletHandler struct {
	wallet *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallet *service.WalletService) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

// AddMoneyRequest is the HTTP request body for a wallet top-up.
type AddMoneyRequest struct {
	Amount float64 `json:"amount"`
}

// BalanceResponse is the HTTP response for a balance query.
type BalanceResponse struct {
	AccountID string  `json:"account_id"`
	Balance   float64 `json:"balance"`
}

// TransactionResponse is the HTTP representation of a ledger entry.
type TransactionResponse struct {
	ID             string  `json:"id"`
	Amount         float64 `json:"amount"`
	RideID         string  `json:"ride_id,omitempty"`
	Description    string  `json:"description,omitempty"`
	RunningBalance float64 `json:"running_balance"`
	CreatedAt      string  `json:"created_at"`
}

// Balance handles GET /v1/wallet/balance
func (h *WalletHandler) Balance(c *gin.Context) {
	accountID := middleware.ActorID(c)
	balance, err := h.wallet.Balance(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, BalanceResponse{AccountID: accountID, Balance: balance})
}

// AddMoney handles POST /v1/wallet/add-money
func (h *WalletHandler) AddMoney(c *gin.Context) {
	var req AddMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	accountID := middleware.ActorID(c)
	tx, err := h.wallet.Credit(c.Request.Context(), accountID, req.Amount, "", "wallet top-up")
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{
		"account_id":  accountID,
		"balance":     tx.RunningBalance,
		"transaction": toTransactionResponse(tx),
	})
}

// Transactions handles GET /v1/wallet/transactions
func (h *WalletHandler) Transactions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	txs, err := h.wallet.Transactions(c.Request.Context(), middleware.ActorID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		result = append(result, toTransactionResponse(tx))
	}
	respondJSON(c, http.StatusOK, gin.H{"transactions": result, "count": len(result)})
}

func toTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             tx.ID,
		Amount:         tx.Amount,
		RideID:         tx.RideID,
		Description:    tx.Description,
		RunningBalance: tx.RunningBalance,
		CreatedAt:      tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
