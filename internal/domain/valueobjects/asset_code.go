// Package valueobjects - AssetCode identifies a virtual currency (e.g., GOLD_COIN).
package valueobjects

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors for asset codes
var (
	ErrEmptyAssetCode   = errors.New("asset code cannot be empty")
	ErrAssetCodeTooLong = errors.New("asset code cannot exceed 50 characters")
	ErrAssetCodeFormat  = errors.New("asset code must contain only A-Z, 0-9 and underscores")
)

// System wallet prefixes. System wallets are addressed by reserved user IDs
// built from these prefixes plus the asset code, e.g. SYSTEM_TREASURY_GOLD_COIN.
const (
	SystemTreasuryPrefix  = "SYSTEM_TREASURY_"
	SystemBonusPoolPrefix = "SYSTEM_BONUS_POOL_"
	SystemRevenuePrefix   = "SYSTEM_REVENUE_"
)

// AssetCode is the unique, human-assigned identifier of an asset type.
//
// Value Object Pattern:
// - Immutable and self-validating
// - Normalized to upper case on construction
type AssetCode struct {
	code string
}

// NewAssetCode validates and normalizes an asset code.
func NewAssetCode(code string) (AssetCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return AssetCode{}, ErrEmptyAssetCode
	}
	if len(normalized) > 50 {
		return AssetCode{}, ErrAssetCodeTooLong
	}
	for _, r := range normalized {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return AssetCode{}, fmt.Errorf("%w: %q", ErrAssetCodeFormat, code)
		}
	}
	return AssetCode{code: normalized}, nil
}

// String returns the normalized code.
func (c AssetCode) String() string {
	return c.code
}

// IsZero reports whether the code is unset.
func (c AssetCode) IsZero() bool {
	return c.code == ""
}

// Equals checks code equality.
func (c AssetCode) Equals(other AssetCode) bool {
	return c.code == other.code
}

// TreasuryUserID returns the reserved user ID of the treasury wallet
// for this asset. Treasury is the source of topup transfers.
func (c AssetCode) TreasuryUserID() string {
	return SystemTreasuryPrefix + c.code
}

// BonusPoolUserID returns the reserved user ID of the bonus pool wallet.
// Bonus pool is the source of bonus transfers.
func (c AssetCode) BonusPoolUserID() string {
	return SystemBonusPoolPrefix + c.code
}

// RevenueUserID returns the reserved user ID of the revenue wallet.
// Revenue is the destination of spend transfers.
func (c AssetCode) RevenueUserID() string {
	return SystemRevenuePrefix + c.code
}

// IsSystemUserID reports whether a user ID belongs to a system wallet.
func IsSystemUserID(userID string) bool {
	return strings.HasPrefix(userID, SystemTreasuryPrefix) ||
		strings.HasPrefix(userID, SystemBonusPoolPrefix) ||
		strings.HasPrefix(userID, SystemRevenuePrefix)
}
