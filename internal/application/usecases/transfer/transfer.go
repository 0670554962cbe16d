// Package transfer - ядро переводов: один атомарный double-entry перевод
// между двумя кошельками одного asset type.
//
// Все три публичных операции (topup, bonus, spend) сводятся к этому use case,
// различаясь только выбором кошельков:
//   - topup: SYSTEM_TREASURY_<ASSET>  -> user
//   - bonus: SYSTEM_BONUS_POOL_<ASSET> -> user
//   - spend: user -> SYSTEM_REVENUE_<ASSET>
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coinvault/coinvault/internal/application/dtos"
	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/entities"
	"github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/events"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// Flow идентификаторы для metadata и событий.
const (
	FlowTopup = "topup"
	FlowBonus = "bonus"
	FlowSpend = "spend"
)

// raceReplayAttempts - сколько раз перечитываем запись победителя,
// если мы проиграли гонку за idempotency key. Победитель мог ещё
// не закоммитить свою транзакцию в момент нашего rollback.
const (
	raceReplayAttempts = 3
	raceReplayDelay    = 50 * time.Millisecond
)

// IdempotencyLookup - fast-path проверка idempotency key до открытия
// БД-транзакции. Реализуется Redis read-through кэшем; Store best-effort.
type IdempotencyLookup interface {
	Find(ctx context.Context, key string) (*entities.IdempotencyRecord, error)
	Store(ctx context.Context, record *entities.IdempotencyRecord)
}

// UseCase - движок переводов.
//
// Сценарий (всё внутри одной БД-транзакции):
// 1. Fast-path: проверить idempotency key, replay если запрос повторный
// 2. Разрешить asset type по коду (только активные)
// 3. Разрешить source/destination кошельки по flow
// 4. Заблокировать оба кошелька FOR UPDATE в порядке возрастания id
// 5. Записать PENDING заголовок транзакции
// 6. Debit source / Credit destination
// 7. Записать пару ledger entries (DEBIT/CREDIT) со снимками баланса
// 8. Перевести заголовок в COMPLETED
// 9. Сохранить idempotency record с сериализованным ответом
// 10. Сохранить событие в outbox
//
// Бизнес-правила:
// - spend никогда не создаёт кошелёк пользователя (WALLET_NOT_FOUND)
// - topup/bonus лениво создают кошелёк получателя
// - системные кошельки могут уходить в минус, пользовательские - нет
// - клиентские ошибки не оставляют idempotency записей
type UseCase struct {
	assetRepo       ports.AssetTypeRepository
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	ledgerRepo      ports.LedgerEntryRepository
	idempotencyRepo ports.IdempotencyRepository
	lookup          IdempotencyLookup
	eventPublisher  ports.EventPublisher
	uow             ports.UnitOfWork
}

// NewUseCase создаёт движок переводов.
func NewUseCase(
	assetRepo ports.AssetTypeRepository,
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	ledgerRepo ports.LedgerEntryRepository,
	idempotencyRepo ports.IdempotencyRepository,
	lookup IdempotencyLookup,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *UseCase {
	return &UseCase{
		assetRepo:       assetRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		ledgerRepo:      ledgerRepo,
		idempotencyRepo: idempotencyRepo,
		lookup:          lookup,
		eventPublisher:  eventPublisher,
		uow:             uow,
	}
}

// Execute выполняет один перевод.
func (uc *UseCase) Execute(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
	// 1. Валидация команды. Клиентские ошибки не должны оставлять
	// никаких следов в БД, поэтому проверяем всё до открытия транзакции.
	txType, err := transactionType(cmd.Flow)
	if err != nil {
		return nil, err
	}

	if cmd.IdempotencyKey == "" {
		return nil, errors.ValidationError{
			Field:   "Idempotency-Key",
			Message: "Idempotency-Key header is required",
		}
	}

	if cmd.UserID == "" {
		return nil, errors.ValidationError{Field: "user_id", Message: "user_id is required"}
	}
	if valueobjects.IsSystemUserID(cmd.UserID) {
		return nil, errors.ValidationError{
			Field:   "user_id",
			Message: "system wallets cannot be addressed directly",
		}
	}

	assetCode, err := valueobjects.NewAssetCode(cmd.AssetCode)
	if err != nil {
		return nil, errors.ValidationError{
			Field:   "asset_code",
			Message: err.Error(),
		}
	}

	amount, err := valueobjects.NewAmountFromString(cmd.Amount)
	if err != nil {
		return nil, errors.ValidationError{
			Field:   "amount",
			Message: err.Error(),
		}
	}

	metadata, err := encodeMetadata(cmd.Metadata)
	if err != nil {
		return nil, err
	}

	// 2. Fast-path replay: если ключ уже обработан, возвращаем
	// сохранённый ответ без открытия транзакции.
	if record, err := uc.lookup.Find(ctx, cmd.IdempotencyKey); err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	} else if record != nil {
		return replayResult(record)
	}

	var result *dtos.TransferResult
	var record *entities.IdempotencyRecord

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// 3. Asset: только активные участвуют в переводах.
		asset, err := uc.assetRepo.FindActiveByCode(txCtx, assetCode)
		if err != nil {
			return err
		}

		// 4. Разрешаем кошельки по flow.
		fromWallet, toWallet, err := uc.resolveWallets(txCtx, txType, cmd.UserID, assetCode, asset.ID())
		if err != nil {
			return err
		}

		// 5. Блокируем оба кошелька строго в порядке возрастания id.
		// Единый порядок блокировок исключает deadlock между
		// конкурентными переводами, затрагивающими одни и те же кошельки.
		locked, err := uc.walletRepo.LockByIDs(txCtx, []int64{fromWallet.ID(), toWallet.ID()})
		if err != nil {
			return fmt.Errorf("failed to lock wallets: %w", err)
		}
		for _, w := range locked {
			switch w.ID() {
			case fromWallet.ID():
				fromWallet = w
			case toWallet.ID():
				toWallet = w
			}
		}

		// 6. PENDING заголовок. Unique constraint на idempotency_key -
		// вторая линия защиты от гонки двух конкурентных запросов.
		transaction, err := entities.NewTransaction(
			txType,
			asset.ID(),
			fromWallet.ID(),
			toWallet.ID(),
			amount,
			cmd.IdempotencyKey,
			cmd.Description,
			metadata,
		)
		if err != nil {
			return err
		}
		if err := uc.transactionRepo.Save(txCtx, transaction); err != nil {
			return err
		}

		// 7. Мутируем балансы. Debit проверяет достаточность средств
		// для пользовательских кошельков; системные проходят всегда.
		if err := fromWallet.Debit(amount); err != nil {
			return err
		}
		toWallet.Credit(amount)

		if err := uc.walletRepo.Save(txCtx, fromWallet); err != nil {
			return fmt.Errorf("failed to save source wallet: %w", err)
		}
		if err := uc.walletRepo.Save(txCtx, toWallet); err != nil {
			return fmt.Errorf("failed to save destination wallet: %w", err)
		}

		// 8. Двойная запись: DEBIT(-A) и CREDIT(+A) со снимками баланса
		// после мутации. Сумма ног всегда ноль.
		debitEntry, err := entities.NewDebitEntry(transaction.ID(), fromWallet.ID(), amount, fromWallet.Balance())
		if err != nil {
			return err
		}
		creditEntry, err := entities.NewCreditEntry(transaction.ID(), toWallet.ID(), amount, toWallet.Balance())
		if err != nil {
			return err
		}
		if err := uc.ledgerRepo.SaveBatch(txCtx, []*entities.LedgerEntry{debitEntry, creditEntry}); err != nil {
			return fmt.Errorf("failed to save ledger entries: %w", err)
		}

		// 9. Завершаем транзакцию.
		if err := transaction.Complete(); err != nil {
			return err
		}
		if err := uc.transactionRepo.Update(txCtx, transaction); err != nil {
			return fmt.Errorf("failed to complete transaction: %w", err)
		}

		// 10. Idempotency record с готовым ответом - в той же транзакции,
		// что и перевод: либо закоммитятся оба, либо ни одного.
		dto := dtos.MapTransactionToDTO(transaction)
		body, err := json.Marshal(dto)
		if err != nil {
			return fmt.Errorf("failed to serialize response: %w", err)
		}

		record, err = entities.NewIdempotencyRecord(
			cmd.IdempotencyKey,
			cmd.RequestPath,
			cmd.RequestMethod,
			http.StatusCreated,
			string(body),
		)
		if err != nil {
			return err
		}
		if err := uc.idempotencyRepo.Save(txCtx, record); err != nil {
			return err
		}

		// 11. Событие в outbox (публикуется relay'ем после коммита).
		event := events.NewTransferCompleted(
			transaction.TransactionID(),
			cmd.Flow,
			cmd.UserID,
			assetCode.String(),
			amount.String(),
			fromWallet.ID(),
			toWallet.ID(),
			*transaction.CompletedAt(),
		)
		if err := uc.eventPublisher.PublishBatch(txCtx, []events.DomainEvent{event}); err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}

		result = &dtos.TransferResult{
			Transaction:    dto,
			ResponseBody:   string(body),
			ResponseStatus: http.StatusCreated,
		}
		return nil
	})

	if err != nil {
		// Проиграли гонку за idempotency key: наша транзакция откатилась,
		// победитель записал свой ответ. Перечитываем и replay'им его.
		if errors.IsDuplicateIdempotencyRace(err) {
			return uc.replayWinner(ctx, cmd.IdempotencyKey)
		}
		return nil, err
	}

	// Кэшируем запись для fast-path последующих retry. Строго после
	// коммита: запись в кэше до коммита могла бы replay'ить перевод,
	// которого в БД нет.
	uc.lookup.Store(ctx, record)

	return result, nil
}

// resolveWallets возвращает (from, to) кошельки для flow.
// spend никогда не создаёт кошелёк пользователя; topup и bonus создают лениво.
func (uc *UseCase) resolveWallets(
	ctx context.Context,
	txType entities.TransactionType,
	userID string,
	assetCode valueobjects.AssetCode,
	assetTypeID int64,
) (from, to *entities.Wallet, err error) {
	switch txType {
	case entities.TransactionTypeTopup:
		from, err = uc.walletRepo.GetOrCreate(ctx, assetCode.TreasuryUserID(), assetTypeID)
		if err != nil {
			return nil, nil, err
		}
		to, err = uc.walletRepo.GetOrCreate(ctx, userID, assetTypeID)
		if err != nil {
			return nil, nil, err
		}

	case entities.TransactionTypeBonus:
		from, err = uc.walletRepo.GetOrCreate(ctx, assetCode.BonusPoolUserID(), assetTypeID)
		if err != nil {
			return nil, nil, err
		}
		to, err = uc.walletRepo.GetOrCreate(ctx, userID, assetTypeID)
		if err != nil {
			return nil, nil, err
		}

	case entities.TransactionTypeSpend:
		from, err = uc.walletRepo.FindByUserAndAsset(ctx, userID, assetTypeID)
		if err != nil {
			if errors.IsNotFound(err) {
				return nil, nil, errors.NewWalletNotFound(userID, assetCode.String())
			}
			return nil, nil, err
		}
		to, err = uc.walletRepo.GetOrCreate(ctx, assetCode.RevenueUserID(), assetTypeID)
		if err != nil {
			return nil, nil, err
		}

	default:
		return nil, nil, errors.ErrInvalidTransactionType
	}

	return from, to, nil
}

// replayWinner перечитывает запись конкурента, победившего в гонке за ключ.
// Несколько попыток: победитель мог ещё не закоммитить в момент нашего отката.
func (uc *UseCase) replayWinner(ctx context.Context, key string) (*dtos.TransferResult, error) {
	for attempt := 0; attempt < raceReplayAttempts; attempt++ {
		record, err := uc.idempotencyRepo.Find(ctx, key)
		if err != nil {
			return nil, err
		}
		if record != nil {
			return replayResult(record)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(raceReplayDelay):
		}
	}

	return nil, errors.NewDuplicateIdempotencyRace(key)
}

// replayResult восстанавливает ответ из сохранённой idempotency записи.
func replayResult(record *entities.IdempotencyRecord) (*dtos.TransferResult, error) {
	var dto dtos.TransactionDTO
	if err := json.Unmarshal([]byte(record.ResponseBody()), &dto); err != nil {
		return nil, fmt.Errorf("corrupt idempotency record %q: %w", record.IdempotencyKey(), err)
	}

	return &dtos.TransferResult{
		Transaction:    dto,
		ResponseBody:   record.ResponseBody(),
		ResponseStatus: record.ResponseStatus(),
		Replayed:       true,
	}, nil
}

// transactionType мапит flow на тип транзакции.
func transactionType(flow string) (entities.TransactionType, error) {
	switch flow {
	case FlowTopup:
		return entities.TransactionTypeTopup, nil
	case FlowBonus:
		return entities.TransactionTypeBonus, nil
	case FlowSpend:
		return entities.TransactionTypeSpend, nil
	default:
		return "", errors.ErrInvalidTransactionType
	}
}

// encodeMetadata сериализует metadata в JSON-строку для колонки meta_data.
// Колонка JSONB NOT NULL, поэтому пустая map кодируется как "{}".
func encodeMetadata(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to serialize metadata: %w", err)
	}
	if len(raw) > 1000 {
		return "", errors.ValidationError{
			Field:   "metadata",
			Message: "metadata cannot exceed 1000 characters",
		}
	}

	return string(raw), nil
}
