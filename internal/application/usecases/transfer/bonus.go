// Package transfer - Bonus use case: начисление бонусных кредитов.
package transfer

import (
	"context"
	"fmt"

	"github.com/coinvault/coinvault/internal/application/dtos"
	"github.com/coinvault/coinvault/internal/domain/errors"
)

// BonusUseCase - начисление бонуса пользователю из bonus pool.
// Причина начисления обязательна: она попадает в metadata и описание.
type BonusUseCase struct {
	engine *UseCase
}

// NewBonusUseCase создаёт use case поверх движка переводов.
func NewBonusUseCase(engine *UseCase) *BonusUseCase {
	return &BonusUseCase{engine: engine}
}

// Execute выполняет начисление бонуса.
func (uc *BonusUseCase) Execute(ctx context.Context, cmd dtos.BonusCommand) (*dtos.TransferResult, error) {
	if cmd.Reason == "" {
		return nil, errors.ValidationError{
			Field:   "reason",
			Message: "bonus reason is required",
		}
	}

	description := cmd.Description
	if description == "" {
		description = fmt.Sprintf("Bonus: %s", cmd.Reason)
	}

	metadata := map[string]string{
		"flow":         FlowBonus,
		"bonus_reason": cmd.Reason,
	}

	return uc.engine.Execute(ctx, dtos.TransferCommand{
		Flow:           FlowBonus,
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
