// Команда seed наполняет базу стартовыми данными для разработки:
// три asset types с системными кошельками и демо-пользователи
// с начальными балансами.
//
// Запуск повторно безопасен: существующие asset types пропускаются,
// демо-балансы начисляются только пользователям без кошелька.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinvault/coinvault/internal/application/dtos"
	"github.com/coinvault/coinvault/internal/application/usecases/asset"
	"github.com/coinvault/coinvault/internal/application/usecases/transfer"
	"github.com/coinvault/coinvault/internal/config"
	"github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
	"github.com/coinvault/coinvault/internal/infrastructure/cache"
	"github.com/coinvault/coinvault/internal/infrastructure/persistence/postgres"
)

// seedAsset - asset type для наполнения.
type seedAsset struct {
	code        string
	name        string
	description string
}

// seedBalance - стартовый баланс демо-пользователя.
type seedBalance struct {
	userID string
	asset  string
	amount string
}

var seedAssets = []seedAsset{
	{"GOLD_COIN", "Gold Coin", "Primary premium currency"},
	{"DIAMOND", "Diamond", "Rare premium currency"},
	{"LOYALTY_POINT", "Loyalty Point", "Earned through activity"},
}

var seedBalances = []seedBalance{
	{"alice", "GOLD_COIN", "1000.00"},
	{"alice", "DIAMOND", "50.00"},
	{"alice", "LOYALTY_POINT", "500.00"},
	{"bob", "GOLD_COIN", "750.00"},
	{"bob", "DIAMOND", "25.00"},
	{"bob", "LOYALTY_POINT", "300.00"},
	{"charlie", "GOLD_COIN", "2500.00"},
	{"charlie", "DIAMOND", "100.00"},
	{"charlie", "LOYALTY_POINT", "1200.00"},
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	if err := run(ctx, pool); err != nil {
		log.Fatal("Seed failed:", err)
	}

	slog.Info("Seed complete")
}

func run(ctx context.Context, pool *pgxpool.Pool) error {
	assetRepo := postgres.NewAssetTypeRepository(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	ledgerRepo := postgres.NewLedgerEntryRepository(pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	uow := postgres.NewUnitOfWork(pool)

	createAsset := asset.NewCreateAssetUseCase(assetRepo, walletRepo, outboxRepo, uow)
	topup := transfer.NewTopupUseCase(transfer.NewUseCase(
		assetRepo,
		walletRepo,
		transactionRepo,
		ledgerRepo,
		idempotencyRepo,
		cache.NewIdempotencyCache(nil, idempotencyRepo, nil),
		outboxRepo,
		uow,
	))

	// 1. Asset types + системные кошельки
	for _, sa := range seedAssets {
		_, err := createAsset.Execute(ctx, dtos.CreateAssetCommand{
			Code:        sa.code,
			Name:        sa.name,
			Description: sa.description,
		})
		switch {
		case err == nil:
			slog.Info("asset created", slog.String("code", sa.code))
		case errors.IsAlreadyExists(err):
			slog.Info("asset already exists, skipping", slog.String("code", sa.code))
		default:
			return fmt.Errorf("failed to create asset %s: %w", sa.code, err)
		}
	}

	// 2. Демо-балансы. Начисляются через обычный topup из treasury,
	// чтобы ledger оставался консистентным. Пользователь с уже
	// существующим кошельком пропускается: seed не должен удваивать
	// балансы при повторном запуске.
	for _, sb := range seedBalances {
		exists, err := walletExists(ctx, assetRepo, walletRepo, sb.userID, sb.asset)
		if err != nil {
			return err
		}
		if exists {
			slog.Info("wallet already seeded, skipping",
				slog.String("user_id", sb.userID),
				slog.String("asset", sb.asset),
			)
			continue
		}

		_, err = topup.Execute(ctx, dtos.TopupCommand{
			UserID:         sb.userID,
			AssetCode:      sb.asset,
			Amount:         sb.amount,
			Description:    fmt.Sprintf("Initial demo balance for %s", sb.userID),
			IdempotencyKey: fmt.Sprintf("seed-%s-%s", sb.userID, sb.asset),
			RequestPath:    "/seed",
			RequestMethod:  "SEED",
		})
		if err != nil {
			return fmt.Errorf("failed to seed %s/%s: %w", sb.userID, sb.asset, err)
		}

		slog.Info("demo balance seeded",
			slog.String("user_id", sb.userID),
			slog.String("asset", sb.asset),
			slog.String("amount", sb.amount),
		)
	}

	return nil
}

// walletExists проверяет, есть ли у пользователя кошелёк по asset коду.
func walletExists(
	ctx context.Context,
	assetRepo *postgres.AssetTypeRepository,
	walletRepo *postgres.WalletRepository,
	userID, assetCode string,
) (bool, error) {
	code, err := valueobjects.NewAssetCode(assetCode)
	if err != nil {
		return false, err
	}

	at, err := assetRepo.FindActiveByCode(ctx, code)
	if err != nil {
		return false, err
	}

	_, err = walletRepo.FindByUserAndAsset(ctx, userID, at.ID())
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
