// Package transfer - Spend use case: списание кредитов за покупку.
package transfer

import (
	"context"
	"fmt"

	"github.com/coinvault/coinvault/internal/application/dtos"
)

// SpendUseCase - списание с кошелька пользователя в revenue.
//
// В отличие от topup и bonus, spend никогда не создаёт кошелёк:
// если пользователь ни разу не пополнялся, получит WALLET_NOT_FOUND.
type SpendUseCase struct {
	engine *UseCase
}

// NewSpendUseCase создаёт use case поверх движка переводов.
func NewSpendUseCase(engine *UseCase) *SpendUseCase {
	return &SpendUseCase{engine: engine}
}

// Execute выполняет списание.
func (uc *SpendUseCase) Execute(ctx context.Context, cmd dtos.SpendCommand) (*dtos.TransferResult, error) {
	description := cmd.Description
	if description == "" {
		description = fmt.Sprintf("Purchase by %s", cmd.UserID)
	}

	metadata := map[string]string{"flow": FlowSpend}
	if cmd.ItemID != "" {
		metadata["item_id"] = cmd.ItemID
	}

	return uc.engine.Execute(ctx, dtos.TransferCommand{
		Flow:           FlowSpend,
		UserID:         cmd.UserID,
		AssetCode:      cmd.AssetCode,
		Amount:         cmd.Amount,
		Description:    description,
		Metadata:       metadata,
		IdempotencyKey: cmd.IdempotencyKey,
		RequestPath:    cmd.RequestPath,
		RequestMethod:  cmd.RequestMethod,
	})
}
