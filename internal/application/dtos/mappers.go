// Package dtos - мапперы entity -> DTO.
// DTO не содержат доменной логики, только сериализуемое представление.
package dtos

import (
	"github.com/coinvault/coinvault/internal/domain/entities"
)

// MapTransactionToDTO конвертирует Transaction entity в DTO.
func MapTransactionToDTO(tx *entities.Transaction) TransactionDTO {
	return TransactionDTO{
		TransactionID:   tx.TransactionID(),
		TransactionType: string(tx.Type()),
		Status:          string(tx.Status()),
		FromWalletID:    tx.FromWalletID(),
		ToWalletID:      tx.ToWalletID(),
		Amount:          tx.Amount().String(),
		Description:     tx.Description(),
		CreatedAt:       tx.CreatedAt(),
		CompletedAt:     tx.CompletedAt(),
	}
}

// MapTransactionsToDTO конвертирует срез транзакций.
func MapTransactionsToDTO(txs []*entities.Transaction) []TransactionDTO {
	result := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		result = append(result, MapTransactionToDTO(tx))
	}
	return result
}

// MapWalletToBalanceDTO конвертирует Wallet entity в balance DTO.
// AssetCode приходит снаружи: кошелёк хранит только asset_type_id.
func MapWalletToBalanceDTO(wallet *entities.Wallet, assetCode string) WalletBalanceDTO {
	return WalletBalanceDTO{
		WalletID:  wallet.ID(),
		UserID:    wallet.UserID(),
		AssetCode: assetCode,
		Balance:   wallet.Balance().StringFixed(2),
		IsSystem:  wallet.IsSystem(),
		UpdatedAt: wallet.UpdatedAt(),
	}
}

// MapAssetTypeToDTO конвертирует AssetType entity в DTO.
func MapAssetTypeToDTO(asset *entities.AssetType) AssetTypeDTO {
	return AssetTypeDTO{
		ID:          asset.ID(),
		Code:        asset.Code().String(),
		Name:        asset.Name(),
		Description: asset.Description(),
		IsActive:    asset.IsActive(),
		CreatedAt:   asset.CreatedAt(),
		UpdatedAt:   asset.UpdatedAt(),
	}
}

// MapLedgerEntryToDTO конвертирует LedgerEntry entity в DTO.
func MapLedgerEntryToDTO(entry *entities.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:           entry.ID(),
		WalletID:     entry.WalletID(),
		EntryType:    string(entry.EntryType()),
		Amount:       entry.Amount().StringFixed(2),
		BalanceAfter: entry.BalanceAfter().StringFixed(2),
		CreatedAt:    entry.CreatedAt(),
	}
}
