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

const (
	programTableName     = "aidlink.programs"
	reservationTableName = "aidlink.program_aid_materials"
)

var (
	programColumns     = utils.StructTagValues(types.Program{})
	reservationColumns = utils.StructTagValues(types.ProgramAidMaterial{})
)

type ProgramRepository struct {
	pool *pgxpool.Pool
}

func NewProgramRepository(pool *pgxpool.Pool) *ProgramRepository {
	return &ProgramRepository{pool: pool}
}

func (r *ProgramRepository) Program(ctx context.Context, programID string) (*types.Program, error) {
	query, args, err := psql().
		Select(programColumns...).
		From(programTableName).
		Where(sq.Eq{"id": programID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate program query: %w", err)
	}

	var program types.Program
	err = pgxscan.Get(ctx, r.pool, &program, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrProgramNotFound
		}
		return nil, fmt.Errorf("failed to fetch program: %w", err)
	}

	return &program, nil
}

func (r *ProgramRepository) Programs(ctx context.Context) ([]*types.Program, error) {
	query, args, err := psql().
		Select(programColumns...).
		From(programTableName).
		OrderBy("start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate programs query: %w", err)
	}

	var programs = make([]*types.Program, 0)
	err = pgxscan.Select(ctx, r.pool, &programs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch programs: %w", err)
	}

	return programs, nil
}

func (r *ProgramRepository) Reservations(ctx context.Context, programID string) ([]*types.ProgramAidMaterial, error) {
	return fetchReservations(ctx, r.pool, programID)
}

// CreateProgram inserts the program and reserves stock for each
// requested material in a single transaction. Either the program and
// all of its reservations commit, or nothing does.
func (r *ProgramRepository) CreateProgram(ctx context.Context, program *types.Program, requests []types.MaterialRequest) error {
	now := time.Now()
	program.ID = utils.NanoID()
	program.CreatedAt = now
	program.UpdatedAt = now

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query, args, err := psql().
		Insert(programTableName).
		SetMap(utils.StructToMap(program)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert program query: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert program: %w", err)
	}

	for _, req := range requests {
		if err := reserveStock(ctx, tx, req.AidMaterialID, req.Quantity); err != nil {
			return err
		}
		if err := insertReservation(ctx, tx, program.ID, req); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateProgram rewrites the program's scalar fields and replaces its
// reservations: availability is validated against current stock before
// any write, then the previous holdings are restored and the new
// requests applied. An unchanged request list therefore leaves every
// stock level exactly where it was.
func (r *ProgramRepository) UpdateProgram(ctx context.Context, program *types.Program, requests []types.MaterialRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Validate every request against stock as it stands, holding row
	// locks so a concurrent reservation cannot invalidate the check.
	for _, req := range requests {
		query, args, err := psql().
			Select("quantity").
			From(materialTableName).
			Where(sq.Eq{"id": req.AidMaterialID}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to generate stock check query: %w", err)
		}

		var quantity int
		err = pgxscan.Get(ctx, tx, &quantity, query, args...)
		if err != nil {
			if pgxscan.NotFound(err) {
				return types.ErrMaterialNotFound
			}
			return fmt.Errorf("failed to check stock for material %s: %w", req.AidMaterialID, err)
		}
		if quantity < req.Quantity {
			return types.ErrInsufficientStock
		}
	}

	program.UpdatedAt = time.Now()

	query, args, err := psql().
		Update(programTableName).
		Set("name", program.Name).
		Set("description", program.Description).
		Set("start_date", program.StartDate).
		Set("start_time", program.StartTime).
		Set("end_time", program.EndTime).
		Set("location", program.Location).
		Set("max_volunteer", program.MaxVolunteer).
		Set("coordinator_id", program.CoordinatorID).
		Set("image", program.Image).
		Set("updated_at", program.UpdatedAt).
		Where(sq.Eq{"id": program.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update program query for program %s: %w", program.ID, err)
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update program: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrProgramNotFound
	}

	if err := releaseHoldings(ctx, tx, program.ID); err != nil {
		return err
	}

	for _, req := range requests {
		if err := reserveStock(ctx, tx, req.AidMaterialID, req.Quantity); err != nil {
			return err
		}
		if err := insertReservation(ctx, tx, program.ID, req); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteProgram tears a program down in one transaction: reserved
// stock is returned to the materials, then the reservation edges,
// registration edges and forms go before the program row itself.
func (r *ProgramRepository) DeleteProgram(ctx context.Context, programID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := releaseHoldings(ctx, tx, programID); err != nil {
		return err
	}

	for _, table := range []string{registrationTableName, formTableName} {
		query, args, err := psql().
			Delete(table).
			Where(sq.Eq{"program_id": programID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to generate cascade delete query: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to cascade delete from %s: %w", table, err)
		}
	}

	query, args, err := psql().
		Delete(programTableName).
		Where(sq.Eq{"id": programID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete program query: %w", err)
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete program %s: %w", programID, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrProgramNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// releaseHoldings restores the program's reserved stock and drops its
// reservation edges. Runs on the caller's transaction.
func releaseHoldings(ctx context.Context, q Querier, programID string) error {
	reservations, err := fetchReservations(ctx, q, programID)
	if err != nil {
		return err
	}

	for _, res := range reservations {
		if err := releaseStock(ctx, q, res.AidMaterialID, res.QuantityUsed); err != nil {
			return err
		}
	}

	query, args, err := psql().
		Delete(reservationTableName).
		Where(sq.Eq{"program_id": programID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete reservations query: %w", err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete reservations for program %s: %w", programID, err)
	}

	return nil
}

func fetchReservations(ctx context.Context, q Querier, programID string) ([]*types.ProgramAidMaterial, error) {
	query, args, err := psql().
		Select(reservationColumns...).
		From(reservationTableName).
		Where(sq.Eq{"program_id": programID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reservations query: %w", err)
	}

	var reservations = make([]*types.ProgramAidMaterial, 0)
	err = pgxscan.Select(ctx, q, &reservations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reservations for program %s: %w", programID, err)
	}

	return reservations, nil
}

func insertReservation(ctx context.Context, q Querier, programID string, req types.MaterialRequest) error {
	query, args, err := psql().
		Insert(reservationTableName).
		Columns("program_id", "aid_material_id", "quantity_used").
		Values(programID, req.AidMaterialID, req.Quantity).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert reservation query: %w", err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert reservation for program %s: %w", programID, err)
	}

	return nil
}
