// Package postgres - AssetTypeRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/entities"
	domainErrors "github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.AssetTypeRepository = (*AssetTypeRepository)(nil)

const assetColumns = `id, code, name, description, is_active, created_at, updated_at`

// AssetTypeRepository реализует ports.AssetTypeRepository.
type AssetTypeRepository struct {
	pool *pgxpool.Pool
}

// NewAssetTypeRepository создаёт новый AssetTypeRepository.
func NewAssetTypeRepository(pool *pgxpool.Pool) *AssetTypeRepository {
	return &AssetTypeRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *AssetTypeRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save вставляет новый asset type.
func (r *AssetTypeRepository) Save(ctx context.Context, asset *entities.AssetType) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO asset_types (code, name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		asset.Code().String(),
		asset.Name(),
		asset.Description(),
		asset.IsActive(),
		asset.CreatedAt(),
		asset.UpdatedAt(),
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err, "asset_types_code") {
			return domainErrors.ErrEntityAlreadyExists
		}
		return fmt.Errorf("failed to insert asset type: %w", err)
	}

	asset.SetID(id)
	return nil
}

// Update сохраняет изменения существующего asset type.
func (r *AssetTypeRepository) Update(ctx context.Context, asset *entities.AssetType) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE asset_types
		SET name = $2, description = $3, is_active = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		asset.ID(),
		asset.Name(),
		asset.Description(),
		asset.IsActive(),
		asset.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update asset type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrEntityNotFound
	}

	return nil
}

// FindActiveByCode находит активный asset type по коду.
// Неактивная запись неотличима от отсутствующей: ASSET_NOT_FOUND.
func (r *AssetTypeRepository) FindActiveByCode(ctx context.Context, code valueobjects.AssetCode) (*entities.AssetType, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + assetColumns + ` FROM asset_types WHERE code = $1 AND is_active = TRUE`

	asset, err := r.scanAssetType(q.QueryRow(ctx, query, code.String()))
	if err != nil {
		if errors.Is(err, domainErrors.ErrEntityNotFound) {
			return nil, domainErrors.NewAssetNotFound(code.String())
		}
		return nil, err
	}
	return asset, nil
}

// FindByCode находит asset type по коду независимо от is_active.
func (r *AssetTypeRepository) FindByCode(ctx context.Context, code valueobjects.AssetCode) (*entities.AssetType, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + assetColumns + ` FROM asset_types WHERE code = $1`

	return r.scanAssetType(q.QueryRow(ctx, query, code.String()))
}

// FindByID загружает asset type по ID.
func (r *AssetTypeRepository) FindByID(ctx context.Context, id int64) (*entities.AssetType, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + assetColumns + ` FROM asset_types WHERE id = $1`

	return r.scanAssetType(q.QueryRow(ctx, query, id))
}

// List возвращает все asset types.
func (r *AssetTypeRepository) List(ctx context.Context) ([]*entities.AssetType, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + assetColumns + ` FROM asset_types ORDER BY code`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset types: %w", err)
	}
	defer rows.Close()

	var assets []*entities.AssetType
	for rows.Next() {
		var (
			id                      int64
			codeStr, name, desc     string
			isActive                bool
			createdAt, updatedAt    time.Time
		)
		if err := rows.Scan(&id, &codeStr, &name, &desc, &isActive, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset type row: %w", err)
		}

		code, err := valueobjects.NewAssetCode(codeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid asset code in database: %w", err)
		}

		assets = append(assets, entities.ReconstructAssetType(id, code, name, desc, isActive, createdAt, updatedAt))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset type rows: %w", err)
	}

	return assets, nil
}

// scanAssetType сканирует одну строку в AssetType entity.
func (r *AssetTypeRepository) scanAssetType(row pgx.Row) (*entities.AssetType, error) {
	var (
		id                   int64
		codeStr, name, desc  string
		isActive             bool
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&id, &codeStr, &name, &desc, &isActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan asset type: %w", err)
	}

	code, err := valueobjects.NewAssetCode(codeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid asset code in database: %w", err)
	}

	return entities.ReconstructAssetType(id, code, name, desc, isActive, createdAt, updatedAt), nil
}
