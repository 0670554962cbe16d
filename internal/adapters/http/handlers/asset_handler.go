// Package handlers - Asset admin HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coinvault/coinvault/internal/adapters/http/common"
	"github.com/coinvault/coinvault/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// CreateAssetUseCase - интерфейс регистрации asset type.
type CreateAssetUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreateAssetCommand) (*dtos.AssetTypeDTO, error)
}

// DeactivateAssetUseCase - интерфейс деактивации asset type.
type DeactivateAssetUseCase interface {
	Execute(ctx context.Context, cmd dtos.DeactivateAssetCommand) (*dtos.AssetTypeDTO, error)
}

// ListAssetsUseCase - интерфейс списка asset types.
type ListAssetsUseCase interface {
	Execute(ctx context.Context) (*dtos.AssetListDTO, error)
}

// ============================================
// Asset Handler
// ============================================

// AssetHandler обрабатывает административные запросы asset types.
// Мутирующие маршруты закрыты JWT middleware (см. router.go).
type AssetHandler struct {
	createAsset     CreateAssetUseCase
	deactivateAsset DeactivateAssetUseCase
	listAssets      ListAssetsUseCase
}

// NewAssetHandler создаёт новый AssetHandler.
func NewAssetHandler(
	createAsset CreateAssetUseCase,
	deactivateAsset DeactivateAssetUseCase,
	listAssets ListAssetsUseCase,
) *AssetHandler {
	return &AssetHandler{
		createAsset:     createAsset,
		deactivateAsset: deactivateAsset,
		listAssets:      listAssets,
	}
}

// ============================================
// Request DTOs
// ============================================

// CreateAssetRequest - запрос на регистрацию asset type.
//
// @Description Create asset request body
type CreateAssetRequest struct {
	Code        string `json:"code" binding:"required,asset_code"`
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description,omitempty" binding:"omitempty,max=500"`
}

// AssetCodeParam - параметр code из URL.
type AssetCodeParam struct {
	Code string `uri:"code" binding:"required,asset_code"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateAsset регистрирует новый asset type.
//
// @Summary Create an asset type
// @Description Register a new virtual currency and provision its system wallets
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAssetRequest true "Asset data"
// @Success 201 {object} common.APIResponse{data=dtos.AssetTypeDTO}
// @Failure 401 {object} common.APIResponse
// @Failure 409 {object} common.APIResponse "Asset code already exists"
// @Failure 422 {object} common.APIResponse "Validation failed"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req CreateAssetRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.createAsset.Execute(c.Request.Context(), dtos.CreateAssetCommand{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// DeactivateAsset выводит asset type из обращения.
//
// @Summary Deactivate an asset type
// @Description Take an asset out of circulation; balances survive but transfers stop
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Asset code"
// @Success 200 {object} common.APIResponse{data=dtos.AssetTypeDTO}
// @Failure 401 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/assets/{code} [delete]
func (h *AssetHandler) DeactivateAsset(c *gin.Context) {
	var params AssetCodeParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.deactivateAsset.Execute(c.Request.Context(), dtos.DeactivateAssetCommand{
		Code: params.Code,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListAssets возвращает все asset types.
//
// @Summary List asset types
// @Description Get all registered asset types, including inactive ones
// @Tags Assets
// @Accept json
// @Produce json
// @Success 200 {object} common.APIResponse{data=dtos.AssetListDTO}
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	result, err := h.listAssets.Execute(c.Request.Context())
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}
