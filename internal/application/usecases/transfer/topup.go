// Package transfer - Topup use case: пополнение кошелька за реальные деньги.
package transfer

import (
	"context"
	"fmt"

	"github.com/coinvault/coinvault/internal/application/dtos"
)

// TopupUseCase - пополнение кошелька пользователя из treasury.
// Кошелёк получателя создаётся лениво, если его ещё нет.
type TopupUseCase struct {
	engine *UseCase
}

// NewTopupUseCase создаёт use case поверх движка переводов.
func NewTopupUseCase(engine *UseCase) *TopupUseCase {
	return &TopupUseCase{engine: engine}
}

// Execute выполняет topup.
func (uc *TopupUseCase) Execute(ctx context.Context, cmd dtos.TopupCommand) (*dtos.TransferResult, error) {
	description := cmd.Description
	if description == "" {
		description = fmt.Sprintf("Wallet top-up for %s", cmd.UserID)
	}

	metadata := map[string]string{"flow": FlowTopup}
	if cmd.PaymentReference != "" {
		metadata["payment_reference"] = cmd.PaymentReference
	}

	return uc.engine.Execute(ctx, dtos.TransferCommand{
		Flow:           FlowTopup,
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
