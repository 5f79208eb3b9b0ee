package store

import (
	"context"
	"fmt"
	"time"

	"aidlink/internal/utils"
	"aidlink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const materialTableName = "aidlink.aid_materials"

var materialColumns = utils.StructTagValues(types.AidMaterial{})

type MaterialRepository struct {
	pool *pgxpool.Pool
}

func NewMaterialRepository(pool *pgxpool.Pool) *MaterialRepository {
	return &MaterialRepository{pool: pool}
}

func (r *MaterialRepository) Material(ctx context.Context, materialID string) (*types.AidMaterial, error) {
	query, args, err := psql().
		Select(materialColumns...).
		From(materialTableName).
		Where(sq.Eq{"id": materialID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate material query: %w", err)
	}

	var material types.AidMaterial
	err = pgxscan.Get(ctx, r.pool, &material, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to fetch material: %w", err)
	}

	return &material, nil
}

func (r *MaterialRepository) Materials(ctx context.Context) ([]*types.AidMaterial, error) {
	query, args, err := psql().
		Select(materialColumns...).
		From(materialTableName).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate materials query: %w", err)
	}

	var materials = make([]*types.AidMaterial, 0)
	err = pgxscan.Select(ctx, r.pool, &materials, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch materials: %w", err)
	}

	return materials, nil
}

func (r *MaterialRepository) CreateMaterial(ctx context.Context, material *types.AidMaterial) error {
	now := time.Now()
	material.ID = utils.NanoID()
	material.CreatedAt = now
	material.UpdatedAt = now

	query, args, err := psql().
		Insert(materialTableName).
		SetMap(utils.StructToMap(material)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert material query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create material")
}

func (r *MaterialRepository) UpdateMaterial(ctx context.Context, materialID string, material *types.AidMaterial) error {
	query, args, err := psql().
		Update(materialTableName).
		Set("name", material.Name).
		Set("description", material.Description).
		Set("quantity", material.Quantity).
		Set("image", material.Image).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": materialID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update material query for material %s: %w", materialID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrMaterialNotFound
	}

	return nil
}

// DeleteMaterial removes a material together with any reservation
// edges that reference it, in one transaction.
func (r *MaterialRepository) DeleteMaterial(ctx context.Context, materialID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query, args, err := psql().
		Delete(reservationTableName).
		Where(sq.Eq{"aid_material_id": materialID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete reservations query: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete reservations for material %s: %w", materialID, err)
	}

	query, args, err = psql().
		Delete(materialTableName).
		Where(sq.Eq{"id": materialID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete material query: %w", err)
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete material %s: %w", materialID, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrMaterialNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// reserveStock decrements a material's quantity by qty, guarded so the
// quantity can never go negative. Runs on the caller's transaction.
func reserveStock(ctx context.Context, q Querier, materialID string, qty int) error {
	query, args, err := psql().
		Update(materialTableName).
		Set("quantity", sq.Expr("quantity - ?", qty)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": materialID}).
		Where(sq.GtOrEq{"quantity": qty}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate reserve stock query: %w", err)
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to reserve stock for material %s: %w", materialID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Zero rows means the material is missing or the stock is short.
	query, args, err = psql().
		Select("quantity").
		From(materialTableName).
		Where(sq.Eq{"id": materialID}).
		Limit(1).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate stock lookup query: %w", err)
	}

	var quantity int
	err = pgxscan.Get(ctx, q, &quantity, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return types.ErrMaterialNotFound
		}
		return fmt.Errorf("failed to check stock for material %s: %w", materialID, err)
	}

	return types.ErrInsufficientStock
}

// releaseStock returns qty units to a material's quantity. Runs on the
// caller's transaction.
func releaseStock(ctx context.Context, q Querier, materialID string, qty int) error {
	query, args, err := psql().
		Update(materialTableName).
		Set("quantity", sq.Expr("quantity + ?", qty)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": materialID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate release stock query: %w", err)
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to release stock for material %s: %w", materialID, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrMaterialNotFound
	}

	return nil
}
