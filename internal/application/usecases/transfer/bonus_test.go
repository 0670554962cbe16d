package transfer

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/coinvault/coinvault/internal/application/dtos"
	domainErrors "github.com/coinvault/coinvault/internal/domain/errors"
)

// TestBonusUseCase_Success тестирует начисление бонуса через обёртку.
func TestBonusUseCase_Success(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	useCase := NewBonusUseCase(f.engine)

	result, err := useCase.Execute(ctx, dtos.BonusCommand{
		UserID:         "bob",
		AssetCode:      "GOLD_COIN",
		Amount:         "25.00",
		Reason:         "Weekly login streak",
		IdempotencyKey: "key-bonus-wrap",
		RequestPath:    "/api/v1/wallets/bonus",
		RequestMethod:  "POST",
	})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.ResponseStatus != 201 {
		t.Errorf("Expected status 201, got %d", result.ResponseStatus)
	}

	// Причина попадает и в описание, и в metadata
	if f.txRepo.savedTx.Description() != "Bonus: Weekly login streak" {
		t.Errorf("Description: got %q", f.txRepo.savedTx.Description())
	}
	metadata := f.txRepo.savedTx.Metadata()
	if !strings.Contains(metadata, `"bonus_reason":"Weekly login streak"`) {
		t.Errorf("Metadata must carry the bonus reason, got %q", metadata)
	}
	if !strings.Contains(metadata, `"flow":"bonus"`) {
		t.Errorf("Metadata must tag the flow, got %q", metadata)
	}
}

// TestBonusUseCase_RequiresReason тестирует обязательность причины начисления.
func TestBonusUseCase_RequiresReason(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	useCase := NewBonusUseCase(f.engine)

	result, err := useCase.Execute(ctx, dtos.BonusCommand{
		UserID:         "bob",
		AssetCode:      "GOLD_COIN",
		Amount:         "25.00",
		IdempotencyKey: "key-bonus-noreason",
	})

	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if result != nil {
		t.Errorf("Expected no result, got: %v", result)
	}

	var valErr domainErrors.ValidationError
	if !stderrors.As(err, &valErr) {
		t.Fatalf("Expected ValidationError, got: %v", err)
	}
	if valErr.Field != "reason" {
		t.Errorf("Field: got %q, want %q", valErr.Field, "reason")
	}

	// Обёртка отклоняет команду до обращения к движку
	if f.uow.executeCalls != 0 {
		t.Error("Missing reason must be rejected before the transfer engine runs")
	}
}
