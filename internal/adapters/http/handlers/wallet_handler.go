// Package handlers - Wallet HTTP handlers.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coinvault/coinvault/internal/adapters/http/common"
	"github.com/coinvault/coinvault/internal/adapters/http/middleware"
	"github.com/coinvault/coinvault/internal/application/dtos"
)

// Заголовок идемпотентности. Обязателен для всех мутирующих операций.
const IdempotencyKeyHeader = "Idempotency-Key"

// Заголовок-маркер повторного ответа, восстановленного по idempotency key.
const IdempotentReplayHeader = "Idempotent-Replay"

// ============================================
// Use Case Interfaces
// ============================================

// TopupUseCase - интерфейс пополнения кошелька.
type TopupUseCase interface {
	Execute(ctx context.Context, cmd dtos.TopupCommand) (*dtos.TransferResult, error)
}

// BonusUseCase - интерфейс начисления бонуса.
type BonusUseCase interface {
	Execute(ctx context.Context, cmd dtos.BonusCommand) (*dtos.TransferResult, error)
}

// SpendUseCase - интерфейс списания за покупку.
type SpendUseCase interface {
	Execute(ctx context.Context, cmd dtos.SpendCommand) (*dtos.TransferResult, error)
}

// GetBalanceUseCase - интерфейс запроса баланса.
type GetBalanceUseCase interface {
	Execute(ctx context.Context, q dtos.GetBalanceQuery) (*dtos.WalletBalanceDTO, error)
}

// GetHistoryUseCase - интерфейс истории транзакций.
type GetHistoryUseCase interface {
	Execute(ctx context.Context, q dtos.GetHistoryQuery) (*dtos.TransactionListDTO, error)
}

// ============================================
// Wallet Handler
// ============================================

// WalletHandler обрабатывает HTTP запросы кошельков.
type WalletHandler struct {
	topup      TopupUseCase
	bonus      BonusUseCase
	spend      SpendUseCase
	getBalance GetBalanceUseCase
	getHistory GetHistoryUseCase
}

// NewWalletHandler создаёт новый WalletHandler.
func NewWalletHandler(
	topup TopupUseCase,
	bonus BonusUseCase,
	spend SpendUseCase,
	getBalance GetBalanceUseCase,
	getHistory GetHistoryUseCase,
) *WalletHandler {
	return &WalletHandler{
		topup:      topup,
		bonus:      bonus,
		spend:      spend,
		getBalance: getBalance,
		getHistory: getHistory,
	}
}

// ============================================
// Request DTOs
// ============================================

// TopupRequest - запрос на пополнение кошелька.
//
// @Description Topup request body
type TopupRequest struct {
	UserID           string `json:"user_id" binding:"required,max=100"`
	AssetCode        string `json:"asset_code" binding:"required,asset_code"`
	Amount           string `json:"amount" binding:"required,money_amount"`
	PaymentReference string `json:"payment_reference,omitempty" binding:"omitempty,max=255"`
	Description      string `json:"description,omitempty" binding:"omitempty,max=500"`
}

// BonusRequest - запрос на начисление бонуса.
//
// @Description Bonus request body
type BonusRequest struct {
	UserID      string `json:"user_id" binding:"required,max=100"`
	AssetCode   string `json:"asset_code" binding:"required,asset_code"`
	Amount      string `json:"amount" binding:"required,money_amount"`
	Reason      string `json:"reason" binding:"required,max=500"`
	Description string `json:"description,omitempty" binding:"omitempty,max=500"`
}

// SpendRequest - запрос на списание за покупку.
//
// @Description Spend request body
type SpendRequest struct {
	UserID      string `json:"user_id" binding:"required,max=100"`
	AssetCode   string `json:"asset_code" binding:"required,asset_code"`
	Amount      string `json:"amount" binding:"required,money_amount"`
	ItemID      string `json:"item_id,omitempty" binding:"omitempty,max=255"`
	Description string `json:"description,omitempty" binding:"omitempty,max=500"`
}

// UserIDParam - параметр user_id из URL.
type UserIDParam struct {
	UserID string `uri:"user_id" binding:"required,max=100"`
}

// ============================================
// HTTP Handlers
// ============================================

// Topup пополняет кошелёк пользователя из treasury.
//
// @Summary Top up a wallet
// @Description Credit a user wallet from the system treasury. Creates the wallet lazily.
// @Tags Wallets
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body TopupRequest true "Topup data"
// @Success 201 {object} dtos.TransactionDTO
// @Failure 404 {object} common.APIResponse "Asset not found"
// @Failure 422 {object} common.APIResponse "Validation failed"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/topup [post]
func (h *WalletHandler) Topup(c *gin.Context) {
	key, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var req TopupRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.topup.Execute(c.Request.Context(), dtos.TopupCommand{
		UserID:           req.UserID,
		AssetCode:        req.AssetCode,
		Amount:           req.Amount,
		PaymentReference: req.PaymentReference,
		Description:      req.Description,
		IdempotencyKey:   key,
		RequestPath:      c.FullPath(),
		RequestMethod:    c.Request.Method,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	respondTransfer(c, "topup", req.AssetCode, result)
}

// Bonus начисляет бонус пользователю из bonus pool.
//
// @Summary Grant a bonus
// @Description Credit a user wallet from the system bonus pool. Creates the wallet lazily.
// @Tags Wallets
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body BonusRequest true "Bonus data"
// @Success 201 {object} dtos.TransactionDTO
// @Failure 404 {object} common.APIResponse "Asset not found"
// @Failure 422 {object} common.APIResponse "Validation failed"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/bonus [post]
func (h *WalletHandler) Bonus(c *gin.Context) {
	key, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var req BonusRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.bonus.Execute(c.Request.Context(), dtos.BonusCommand{
		UserID:         req.UserID,
		AssetCode:      req.AssetCode,
		Amount:         req.Amount,
		Reason:         req.Reason,
		Description:    req.Description,
		IdempotencyKey: key,
		RequestPath:    c.FullPath(),
		RequestMethod:  c.Request.Method,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	respondTransfer(c, "bonus", req.AssetCode, result)
}

// Spend списывает кредиты за покупку.
//
// @Summary Spend from a wallet
// @Description Debit a user wallet into system revenue. Never creates a wallet.
// @Tags Wallets
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body SpendRequest true "Spend data"
// @Success 201 {object} dtos.TransactionDTO
// @Failure 400 {object} common.APIResponse "Insufficient balance"
// @Failure 404 {object} common.APIResponse "Asset or wallet not found"
// @Failure 422 {object} common.APIResponse "Validation failed"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/spend [post]
func (h *WalletHandler) Spend(c *gin.Context) {
	key, ok := requireIdempotencyKey(c)
	if !ok {
		return
	}

	var req SpendRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.spend.Execute(c.Request.Context(), dtos.SpendCommand{
		UserID:         req.UserID,
		AssetCode:      req.AssetCode,
		Amount:         req.Amount,
		ItemID:         req.ItemID,
		Description:    req.Description,
		IdempotencyKey: key,
		RequestPath:    c.FullPath(),
		RequestMethod:  c.Request.Method,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	respondTransfer(c, "spend", req.AssetCode, result)
}

// GetBalance возвращает баланс кошелька пользователя.
//
// @Summary Get wallet balance
// @Description Get a user's balance for one asset. Creates the wallet lazily with zero balance.
// @Tags Wallets
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param asset_code query string true "Asset code"
// @Success 200 {object} common.APIResponse{data=dtos.WalletBalanceDTO}
// @Failure 404 {object} common.APIResponse "Asset not found"
// @Failure 422 {object} common.APIResponse "Validation failed"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/{user_id}/balance [get]
func (h *WalletHandler) GetBalance(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	assetCode := c.Query("asset_code")
	if assetCode == "" {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "asset_code", Message: "asset_code query parameter is required", Code: "required"},
		})
		return
	}

	result, err := h.getBalance.Execute(c.Request.Context(), dtos.GetBalanceQuery{
		UserID:    params.UserID,
		AssetCode: assetCode,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetTransactions возвращает историю транзакций пользователя.
//
// @Summary Get transaction history
// @Description Get a user's transactions ordered by created_at desc
// @Tags Wallets
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param asset_code query string false "Filter by asset code"
// @Param limit query int false "Page size" default(50) maximum(100)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} common.APIResponse{data=dtos.TransactionListDTO}
// @Failure 422 {object} common.APIResponse "Validation failed"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/{user_id}/transactions [get]
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	window := ParseHistoryWindow(c)

	result, err := h.getHistory.Execute(c.Request.Context(), dtos.GetHistoryQuery{
		UserID:    params.UserID,
		AssetCode: c.Query("asset_code"),
		Limit:     window.Limit,
		Offset:    window.Offset,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes регистрирует маршруты для WalletHandler.
//
// Routes:
// - POST /wallets/topup                  - Top up a wallet
// - POST /wallets/bonus                  - Grant a bonus
// - POST /wallets/spend                  - Spend from a wallet
// - GET  /wallets/:user_id/balance       - Get wallet balance
// - GET  /wallets/:user_id/transactions  - Get transaction history
func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup) {
	wallets := router.Group("/wallets")
	{
		wallets.POST("/topup", h.Topup)
		wallets.POST("/bonus", h.Bonus)
		wallets.POST("/spend", h.Spend)
		wallets.GET("/:user_id/balance", h.GetBalance)
		wallets.GET("/:user_id/transactions", h.GetTransactions)
	}
}

// ============================================
// Helpers
// ============================================

// requireIdempotencyKey достаёт обязательный Idempotency-Key заголовок.
func requireIdempotencyKey(c *gin.Context) (string, bool) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: IdempotencyKeyHeader, Message: "Idempotency-Key header is required", Code: "required"},
		})
		return "", false
	}
	if len(key) > 255 {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: IdempotencyKeyHeader, Message: "Idempotency-Key cannot exceed 255 characters", Code: "max"},
		})
		return "", false
	}
	return key, true
}

// respondTransfer отправляет результат перевода.
// Повторный запрос получает сохранённый статус и маркер replay.
// Тело пишется байт-в-байт из idempotency log, без конверта:
// retry должен получить ответ, идентичный первому.
func respondTransfer(c *gin.Context, flow, assetCode string, result *dtos.TransferResult) {
	if result.Replayed {
		c.Header(IdempotentReplayHeader, "true")
		middleware.RecordIdempotencyReplay(flow)
	} else if amount, err := strconv.ParseFloat(result.Transaction.Amount, 64); err == nil {
		middleware.RecordTransfer(flow, result.Transaction.Status, assetCode, amount)
	}

	c.Data(result.ResponseStatus, "application/json; charset=utf-8", []byte(result.ResponseBody))
}
