// Package handlers - Transaction HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coinvault/coinvault/internal/adapters/http/common"
	"github.com/coinvault/coinvault/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// GetTransactionUseCase - интерфейс получения транзакции с ledger entries.
type GetTransactionUseCase interface {
	Execute(ctx context.Context, transactionID string) (*dtos.TransactionDetailDTO, error)
}

// ============================================
// Transaction Handler
// ============================================

// TransactionHandler обрабатывает HTTP запросы транзакций.
type TransactionHandler struct {
	getTransaction GetTransactionUseCase
}

// NewTransactionHandler создаёт новый TransactionHandler.
func NewTransactionHandler(getTransaction GetTransactionUseCase) *TransactionHandler {
	return &TransactionHandler{getTransaction: getTransaction}
}

// ============================================
// Request DTOs
// ============================================

// TransactionIDParam - параметр ID транзакции из URL.
type TransactionIDParam struct {
	ID string `uri:"transaction_id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// GetTransaction возвращает транзакцию по публичному идентификатору.
//
// @Summary Get transaction by ID
// @Description Get one transaction together with its DEBIT/CREDIT ledger entries
// @Tags Transactions
// @Accept json
// @Produce json
// @Param transaction_id path string true "Transaction ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.TransactionDetailDTO}
// @Failure 404 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse "Invalid transaction ID"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/transactions/{transaction_id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	var params TransactionIDParam
	if !BindURI(c, &params) {
		return
	}

	if _, err := uuid.Parse(params.ID); err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "transaction_id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	result, err := h.getTransaction.Execute(c.Request.Context(), params.ID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes регистрирует маршруты для TransactionHandler.
func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	transactions := router.Group("/transactions")
	{
		transactions.GET("/:transaction_id", h.GetTransaction)
	}
}
