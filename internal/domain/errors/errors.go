// Package errors defines domain-specific error types.
// Using typed errors (instead of strings) allows clients to handle specific cases.
//
// Pattern: Sentinel Errors + Custom Error Types
package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors for domain validation
var (
	// Entity validation errors
	ErrInvalidEntityID     = errors.New("invalid entity ID")
	ErrEntityNotFound      = errors.New("entity not found")
	ErrEntityAlreadyExists = errors.New("entity already exists")

	// Asset errors
	ErrAssetNotFound    = errors.New("asset type not found or inactive")
	ErrInvalidAssetCode = errors.New("invalid asset type code")

	// Wallet errors
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Transaction errors
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrTransactionNotPending  = errors.New("transaction is not in pending state")

	// Idempotency errors
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already recorded")
)

// Machine-readable error codes used across the API surface.
const (
	CodeAssetNotFound            = "ASSET_NOT_FOUND"
	CodeWalletNotFound           = "WALLET_NOT_FOUND"
	CodeInsufficientFunds        = "INSUFFICIENT_FUNDS"
	CodeDuplicateIdempotencyRace = "DUPLICATE_IDEMPOTENCY_RACE"
	CodeValidation               = "VALIDATION"
	CodeInternal                 = "INTERNAL"
)

// DomainError is a custom error type that wraps errors with additional context.
// This allows us to add domain-specific information while maintaining the error chain.
//
// Pattern: Error Wrapping with Context
type DomainError struct {
	Code    string // Machine-readable error code (e.g., "INSUFFICIENT_FUNDS")
	Message string // Human-readable message
	Err     error  // Underlying error (for error chains)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAssetNotFound creates an ASSET_NOT_FOUND error for the given code.
// Raised both for missing rows and for assets with is_active = false.
func NewAssetNotFound(assetCode string) *DomainError {
	return &DomainError{
		Code:    CodeAssetNotFound,
		Message: fmt.Sprintf("asset type '%s' does not exist or is not active", assetCode),
		Err:     ErrAssetNotFound,
	}
}

// NewWalletNotFound creates a WALLET_NOT_FOUND error.
func NewWalletNotFound(userID, assetCode string) *DomainError {
	return &DomainError{
		Code:    CodeWalletNotFound,
		Message: fmt.Sprintf("wallet not found for user '%s' and asset '%s'", userID, assetCode),
		Err:     ErrWalletNotFound,
	}
}

// NewInsufficientFunds creates an INSUFFICIENT_FUNDS error.
// The message format mirrors what clients already parse:
// "Insufficient balance. Available: X, Required: Y".
func NewInsufficientFunds(available, required string) *DomainError {
	return &DomainError{
		Code:    CodeInsufficientFunds,
		Message: fmt.Sprintf("Insufficient balance. Available: %s, Required: %s", available, required),
		Err:     ErrInsufficientBalance,
	}
}

// NewDuplicateIdempotencyRace signals that a concurrent request holding the
// same idempotency key committed first. Never surfaced to HTTP clients;
// the caller re-reads the winner's stored response instead.
func NewDuplicateIdempotencyRace(key string) *DomainError {
	return &DomainError{
		Code:    CodeDuplicateIdempotencyRace,
		Message: fmt.Sprintf("idempotency key '%s' was recorded by a concurrent request", key),
		Err:     ErrDuplicateIdempotencyKey,
	}
}

// ValidationError represents validation failures with field-level details.
// Useful for returning multiple validation errors at once.
//
// Pattern: Composite Error for Multiple Validations
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // What went wrong
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(e))
}

// Add appends a validation error.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// BusinessRuleViolation represents a violation of a business rule.
// Unlike validation errors (which are about data format), these are about business logic.
//
// Example: "Cannot spend from a wallet that does not exist" is a business rule.
type BusinessRuleViolation struct {
	Rule    string                 // Rule that was violated (e.g., "INSUFFICIENT_FUNDS")
	Message string                 // Human-readable explanation
	Context map[string]interface{} // Additional context (e.g., {"available": "10.00", "required": "25.00"})
}

// Error implements the error interface.
func (e BusinessRuleViolation) Error() string {
	return fmt.Sprintf("business rule violation [%s]: %s", e.Rule, e.Message)
}

// NewBusinessRuleViolation creates a new business rule violation error.
func NewBusinessRuleViolation(rule, message string, context map[string]interface{}) *BusinessRuleViolation {
	return &BusinessRuleViolation{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// ConcurrencyError represents errors from concurrent access (optimistic locking).
// Row locks make these rare, but the version guard on wallet updates keeps
// them as a second line of defense.
type ConcurrencyError struct {
	EntityType string // e.g., "Wallet"
	EntityID   string // ID of the entity
	Message    string
}

// Error implements the error interface.
func (e ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency error on %s [%s]: %s", e.EntityType, e.EntityID, e.Message)
}

// NewConcurrencyError creates a new concurrency error.
func NewConcurrencyError(entityType, entityID, message string) *ConcurrencyError {
	return &ConcurrencyError{
		EntityType: entityType,
		EntityID:   entityID,
		Message:    message,
	}
}

// Helper functions for common error checking

// IsNotFound checks if an error is an "entity not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound) ||
		errors.Is(err, ErrAssetNotFound) ||
		errors.Is(err, ErrWalletNotFound)
}

// IsAlreadyExists checks for unique constraint conflicts.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrEntityAlreadyExists)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var valErr ValidationError
	var valErrs ValidationErrors
	return errors.As(err, &valErr) || errors.As(err, &valErrs)
}

// IsValidation is an alias for IsValidationError (для совместимости).
func IsValidation(err error) bool {
	return IsValidationError(err)
}

// IsInsufficientFunds checks if an error signals a failed funds check.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsDuplicateIdempotencyRace checks for the lost-the-race marker.
func IsDuplicateIdempotencyRace(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsBusinessRuleViolation checks if an error is a business rule violation.
func IsBusinessRuleViolation(err error) bool {
	var brv *BusinessRuleViolation
	return errors.As(err, &brv)
}

// IsConcurrencyError checks if an error is a concurrency error.
func IsConcurrencyError(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}

// CodeOf extracts the machine-readable code from a domain error chain.
// Returns CodeInternal for unrecognized errors.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	if IsValidationError(err) {
		return CodeValidation
	}
	return CodeInternal
}
