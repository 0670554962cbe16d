// Package handlers содержит HTTP handlers для REST API.
//
// Handler - это Adapter в терминах Clean Architecture:
// - Принимает HTTP запрос
// - Преобразует в Command/Query DTO
// - Вызывает Use Case
// - Преобразует результат в HTTP ответ
//
// SOLID:
// - SRP: Каждый handler отвечает за один endpoint
// - DIP: Handler зависит от интерфейса Use Case
package handlers

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/coinvault/coinvault/internal/adapters/http/common"
)

// ============================================
// Custom Validator Setup
// ============================================

var (
	setupOnce sync.Once
)

// SetupValidator настраивает кастомные валидаторы для Gin.
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			// Используем json tag для имён полей в ошибках
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})

			// Регистрируем кастомные валидаторы
			_ = v.RegisterValidation("asset_code", validateAssetCode)
			_ = v.RegisterValidation("money_amount", validateMoneyAmount)
			_ = v.RegisterValidation("transaction_type", validateTransactionType)
		}
	})
}

// ============================================
// Custom Validators
// ============================================

// validateAssetCode проверяет код asset type (A-Z, 0-9, подчёркивания).
var assetCodePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,50}$`)

func validateAssetCode(fl validator.FieldLevel) bool {
	return assetCodePattern.MatchString(fl.Field().String())
}

// validateMoneyAmount проверяет формат суммы.
// Балансы хранятся как NUMERIC(20,2): максимум два знака после точки.
var moneyPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

func validateMoneyAmount(fl validator.FieldLevel) bool {
	amount := fl.Field().String()
	return moneyPattern.MatchString(amount)
}

// validateTransactionType проверяет тип транзакции.
func validateTransactionType(fl validator.FieldLevel) bool {
	txType := fl.Field().String()
	validTypes := map[string]bool{
		"TOPUP": true,
		"BONUS": true,
		"SPEND": true,
	}
	return validTypes[txType]
}

// ============================================
// Validation Error Handling
// ============================================

// HandleValidationErrors преобразует ошибки валидации в HTTP ответ.
func HandleValidationErrors(c *gin.Context, err error) {
	var fieldErrors []common.FieldError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrors {
			fieldErrors = append(fieldErrors, common.FieldError{
				Field:   fieldErr.Field(),
				Message: getValidationMessage(fieldErr),
				Code:    fieldErr.Tag(),
			})
		}
	}

	if len(fieldErrors) == 0 {
		// Если не удалось распарсить - общая ошибка
		common.BadRequestResponse(c, "Invalid request body: "+err.Error())
		return
	}

	common.ValidationErrorResponse(c, fieldErrors)
}

// getValidationMessage возвращает человекочитаемое сообщение об ошибке.
func getValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short (minimum: " + fe.Param() + ")"
	case "max":
		return "Value is too long (maximum: " + fe.Param() + ")"
	case "oneof":
		return "Value must be one of: " + fe.Param()
	case "asset_code":
		return "Invalid asset code (use letters, digits and underscores, up to 50 characters)"
	case "money_amount":
		return "Invalid amount format (use decimal like '100.50' with at most 2 decimal places)"
	case "transaction_type":
		return "Invalid transaction type"
	default:
		return "Invalid value"
	}
}

// ============================================
// Request Parsing Helpers
// ============================================

// BindJSON биндит JSON тело запроса и возвращает ошибку если что-то не так.
// Возвращает true если успешно, false если была ошибка (ответ уже отправлен).
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindQuery биндит query параметры.
func BindQuery[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindURI биндит URI параметры.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// ============================================
// History Window Helper
// ============================================

// HistoryWindow - limit/offset из query string.
type HistoryWindow struct {
	Limit  int
	Offset int
}

// ParseHistoryWindow парсит limit и offset.
// Нормализация (default 50, максимум 100) выполняется в use case.
func ParseHistoryWindow(c *gin.Context) HistoryWindow {
	window := HistoryWindow{}

	if limit := c.Query("limit"); limit != "" {
		window.Limit = parseInt(limit)
	}
	if offset := c.Query("offset"); offset != "" {
		window.Offset = parseInt(offset)
	}

	return window
}

// parseInt парсит строку в int.
func parseInt(s string) int {
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
