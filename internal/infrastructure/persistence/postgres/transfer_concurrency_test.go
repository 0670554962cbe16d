package postgres

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinvault/coinvault/internal/application/dtos"
	"github.com/coinvault/coinvault/internal/application/usecases/transfer"
	domerrors "github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/infrastructure/cache"
)

// newTransferEngine собирает движок переводов поверх реальных репозиториев.
// Idempotency lookup без Redis идёт напрямую в PostgreSQL.
func newTransferEngine(tc *testContainer) *transfer.UseCase {
	idempotencyRepo := NewIdempotencyRepository(tc.pool)

	return transfer.NewUseCase(
		NewAssetTypeRepository(tc.pool),
		NewWalletRepository(tc.pool),
		NewTransactionRepository(tc.pool),
		NewLedgerEntryRepository(tc.pool),
		idempotencyRepo,
		cache.NewIdempotencyCache(nil, idempotencyRepo, nil),
		NewOutboxRepository(tc.pool),
		NewUnitOfWork(tc.pool),
	)
}

// executeWithRetry повторяет перевод при serialization failure.
// REPEATABLE READ откатывает транзакцию, чья заблокированная строка
// была изменена конкурентом; на проде retry делает клиент.
func executeWithRetry(ctx context.Context, engine *transfer.UseCase, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
	var result *dtos.TransferResult
	var err error

	for attempt := 0; attempt < 5; attempt++ {
		result, err = engine.Execute(ctx, cmd)
		if err == nil {
			return result, nil
		}
		if !isSerializationConflict(err) {
			return nil, err
		}
		time.Sleep(time.Duration(attempt+1) * 20 * time.Millisecond)
	}

	return result, err
}

// Deadlock (40P01) намеренно не считается retryable: порядок блокировок
// по возрастанию id исключает deadlock, и retry замаскировал бы регрессию.
func isSerializationConflict(err error) bool {
	if domerrors.IsConcurrencyError(err) {
		return true
	}
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure
}

func countRows(t *testing.T, tc *testContainer, table string) int {
	t.Helper()
	var count int
	err := tc.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&count)
	require.NoError(t, err)
	return count
}

// ledgerSum возвращает сумму всех ledger entries.
// В закрытой системе кошельков она всегда ноль.
func ledgerSum(t *testing.T, tc *testContainer) decimal.Decimal {
	t.Helper()
	var sum decimal.Decimal
	err := tc.pool.QueryRow(context.Background(), "SELECT COALESCE(SUM(amount), 0) FROM ledger_entries").Scan(&sum)
	require.NoError(t, err)
	return sum
}

// TestTransferEngine_Integration_ConcurrentTopups тестирует два конкурентных
// пополнения одного кошелька с разными ключами: оба проходят, баланс
// учитывает оба, по две ноги на перевод, без deadlock.
func TestTransferEngine_Integration_ConcurrentTopups(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()

	asset := createTestAsset(t, tc, "GOLD_COIN")
	createTestWallet(t, tc, asset.Code().TreasuryUserID(), asset.ID(), "1000.00")
	alice := createTestWallet(t, tc, "alice", asset.ID(), "70.00")

	engine := newTransferEngine(tc)

	commands := []dtos.TransferCommand{
		{Flow: transfer.FlowTopup, UserID: "alice", AssetCode: "GOLD_COIN", Amount: "10.00", IdempotencyKey: "k4"},
		{Flow: transfer.FlowTopup, UserID: "alice", AssetCode: "GOLD_COIN", Amount: "10.00", IdempotencyKey: "k5"},
	}

	results := make([]*dtos.TransferResult, len(commands))
	errs := make([]error, len(commands))

	var wg sync.WaitGroup
	for i, cmd := range commands {
		wg.Add(1)
		go func(i int, cmd dtos.TransferCommand) {
			defer wg.Done()
			results[i], errs[i] = executeWithRetry(ctx, engine, cmd)
		}(i, cmd)
	}
	wg.Wait()

	for i := range commands {
		require.NoError(t, errs[i], "transfer %d", i)
		assert.Equal(t, http.StatusCreated, results[i].ResponseStatus)
		assert.False(t, results[i].Replayed)
	}

	walletRepo := NewWalletRepository(tc.pool)
	reloaded, err := walletRepo.FindByID(ctx, alice.ID())
	require.NoError(t, err)
	assert.True(t, reloaded.Balance().Equal(decimal.RequireFromString("90.00")),
		"alice balance: got %s", reloaded.Balance())

	// Два заголовка, четыре ноги, сумма всех ног - ноль
	assert.Equal(t, 2, countRows(t, tc, "transactions"))
	assert.Equal(t, 4, countRows(t, tc, "ledger_entries"))
	assert.True(t, ledgerSum(t, tc).IsZero())
}

// TestTransferEngine_Integration_ConcurrentMixedFlows тестирует смешанную
// конкурентную нагрузку: пополнения и списания одного пользователя.
func TestTransferEngine_Integration_ConcurrentMixedFlows(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()

	asset := createTestAsset(t, tc, "GOLD_COIN")
	createTestWallet(t, tc, asset.Code().TreasuryUserID(), asset.ID(), "1000.00")
	createTestWallet(t, tc, asset.Code().RevenueUserID(), asset.ID(), "")
	alice := createTestWallet(t, tc, "alice", asset.ID(), "70.00")

	engine := newTransferEngine(tc)

	commands := []dtos.TransferCommand{
		{Flow: transfer.FlowTopup, UserID: "alice", AssetCode: "GOLD_COIN", Amount: "10.00", IdempotencyKey: "mix-1"},
		{Flow: transfer.FlowTopup, UserID: "alice", AssetCode: "GOLD_COIN", Amount: "10.00", IdempotencyKey: "mix-2"},
		{Flow: transfer.FlowTopup, UserID: "alice", AssetCode: "GOLD_COIN", Amount: "10.00", IdempotencyKey: "mix-3"},
		{Flow: transfer.FlowTopup, UserID: "alice", AssetCode: "GOLD_COIN", Amount: "10.00", IdempotencyKey: "mix-4"},
		{Flow: transfer.FlowSpend, UserID: "alice", AssetCode: "GOLD_COIN", Amount: "10.00", IdempotencyKey: "mix-5"},
		{Flow: transfer.FlowSpend, UserID: "alice", AssetCode: "GOLD_COIN", Amount: "10.00", IdempotencyKey: "mix-6"},
	}

	errs := make([]error, len(commands))

	var wg sync.WaitGroup
	for i, cmd := range commands {
		wg.Add(1)
		go func(i int, cmd dtos.TransferCommand) {
			defer wg.Done()
			_, errs[i] = executeWithRetry(ctx, engine, cmd)
		}(i, cmd)
	}
	wg.Wait()

	for i := range commands {
		require.NoError(t, errs[i], "transfer %d", i)
	}

	// 70 + 4*10 - 2*10 = 90
	walletRepo := NewWalletRepository(tc.pool)
	reloaded, err := walletRepo.FindByID(ctx, alice.ID())
	require.NoError(t, err)
	assert.True(t, reloaded.Balance().Equal(decimal.RequireFromString("90.00")),
		"alice balance: got %s", reloaded.Balance())

	assert.Equal(t, 6, countRows(t, tc, "transactions"))
	assert.Equal(t, 12, countRows(t, tc, "ledger_entries"))
	assert.True(t, ledgerSum(t, tc).IsZero())
}

// TestTransferEngine_Integration_ConcurrentSameKey тестирует гонку двух
// запросов с одним ключом: ровно один перевод, второй ответ - replay
// байт-в-байт.
func TestTransferEngine_Integration_ConcurrentSameKey(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()

	asset := createTestAsset(t, tc, "GOLD_COIN")
	createTestWallet(t, tc, asset.Code().TreasuryUserID(), asset.ID(), "1000.00")
	alice := createTestWallet(t, tc, "alice", asset.ID(), "")

	engine := newTransferEngine(tc)

	cmd := dtos.TransferCommand{
		Flow:           transfer.FlowTopup,
		UserID:         "alice",
		AssetCode:      "GOLD_COIN",
		Amount:         "25.00",
		IdempotencyKey: "same-key",
	}

	results := make([]*dtos.TransferResult, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = executeWithRetry(ctx, engine, cmd)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Ровно один перевод и одна пара ног
	assert.Equal(t, 1, countRows(t, tc, "transactions"))
	assert.Equal(t, 2, countRows(t, tc, "ledger_entries"))

	walletRepo := NewWalletRepository(tc.pool)
	reloaded, err := walletRepo.FindByID(ctx, alice.ID())
	require.NoError(t, err)
	assert.True(t, reloaded.Balance().Equal(decimal.RequireFromString("25.00")))

	// Оба ответа несут одни и те же байты
	assert.Equal(t, results[0].ResponseBody, results[1].ResponseBody)
	assert.Equal(t, results[0].Transaction.TransactionID, results[1].Transaction.TransactionID)
}
