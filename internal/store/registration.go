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

const registrationTableName = "aidlink.volunteer_programs"

type RegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

// Register adds a registration edge for the volunteer. The capacity
// check and the insert run in one transaction holding a lock on the
// program row, so two concurrent registrations cannot both pass a
// stale count and jointly exceed maxVolunteer.
func (r *RegistrationRepository) Register(ctx context.Context, programID, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query, args, err := psql().
		Select("max_volunteer").
		From(programTableName).
		Where(sq.Eq{"id": programID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate program lock query: %w", err)
	}

	var maxVolunteer int
	err = pgxscan.Get(ctx, tx, &maxVolunteer, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return types.ErrProgramNotFound
		}
		return fmt.Errorf("failed to lock program %s: %w", programID, err)
	}

	query, args, err = psql().
		Select("COUNT(*)").
		From(registrationTableName).
		Where(sq.Eq{"program_id": programID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate duplicate check query: %w", err)
	}

	var existing int
	if err := pgxscan.Get(ctx, tx, &existing, query, args...); err != nil {
		return fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing > 0 {
		return types.ErrAlreadyRegistered
	}

	count, err := countRegistrations(ctx, tx, programID)
	if err != nil {
		return err
	}
	if count >= maxVolunteer {
		return types.ErrCapacityExceeded
	}

	query, args, err = psql().
		Insert(registrationTableName).
		Columns("user_id", "program_id", "created_at").
		Values(userID, programID, time.Now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert registration query: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Unregister removes the volunteer's edge for the program. Removing an
// edge that does not exist is a no-op.
func (r *RegistrationRepository) Unregister(ctx context.Context, programID, userID string) error {
	query, args, err := psql().
		Delete(registrationTableName).
		Where(sq.Eq{"program_id": programID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete registration query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to delete registration")
}

func (r *RegistrationRepository) ProgramsByVolunteer(ctx context.Context, userID string) ([]*types.Program, error) {
	columns := utils.PrefixSliceOfStrings("p", programColumns)

	query, args, err := psql().
		Select(columns...).
		From(registrationTableName + " vp").
		Join(programTableName + " p ON p.id = vp.program_id").
		Where(sq.Eq{"vp.user_id": userID}).
		OrderBy("p.start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate volunteer programs query: %w", err)
	}

	var programs = make([]*types.Program, 0)
	err = pgxscan.Select(ctx, r.pool, &programs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteer programs: %w", err)
	}

	return programs, nil
}

func (r *RegistrationRepository) CountVolunteers(ctx context.Context, programID string) (int, error) {
	return countRegistrations(ctx, r.pool, programID)
}

func (r *RegistrationRepository) IsRegistered(ctx context.Context, programID, userID string) (bool, error) {
	query, args, err := psql().
		Select("COUNT(*)").
		From(registrationTableName).
		Where(sq.Eq{"program_id": programID, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate registration lookup query: %w", err)
	}

	var count int
	if err := pgxscan.Get(ctx, r.pool, &count, query, args...); err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}

	return count > 0, nil
}

func countRegistrations(ctx context.Context, q Querier, programID string) (int, error) {
	query, args, err := psql().
		Select("COUNT(*)").
		From(registrationTableName).
		Where(sq.Eq{"program_id": programID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate registration count query: %w", err)
	}

	var count int
	if err := pgxscan.Get(ctx, q, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	return count, nil
}
