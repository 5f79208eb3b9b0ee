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

const formTableName = "aidlink.forms"

var formColumns = utils.StructTagValues(types.Form{})

type FormRepository struct {
	pool *pgxpool.Pool
}

func NewFormRepository(pool *pgxpool.Pool) *FormRepository {
	return &FormRepository{pool: pool}
}

func (r *FormRepository) Form(ctx context.Context, formID string) (*types.Form, error) {
	query, args, err := psql().
		Select(formColumns...).
		From(formTableName).
		Where(sq.Eq{"id": formID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate form query: %w", err)
	}

	var form types.Form
	err = pgxscan.Get(ctx, r.pool, &form, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to fetch form: %w", err)
	}

	return &form, nil
}

// CreateForm inserts the volunteer's submission in state SUBMITTED.
// The uniqueness check and the insert share a transaction so at most
// one form can exist per (volunteer, program) pair.
func (r *FormRepository) CreateForm(ctx context.Context, form *types.Form) error {
	now := time.Now()
	form.ID = utils.NanoID()
	form.Status = types.FormStatusSubmitted
	form.CreatedAt = now
	form.UpdatedAt = now

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query, args, err := psql().
		Select("COUNT(*)").
		From(formTableName).
		Where(sq.Eq{"volunteer_id": form.VolunteerID, "program_id": form.ProgramID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate duplicate form query: %w", err)
	}

	var existing int
	if err := pgxscan.Get(ctx, tx, &existing, query, args...); err != nil {
		return fmt.Errorf("failed to check existing form: %w", err)
	}
	if existing > 0 {
		return types.ErrDuplicateSubmission
	}

	query, args, err = psql().
		Insert(formTableName).
		SetMap(utils.StructToMap(form)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert form query: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert form: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *FormRepository) FormsByProgram(ctx context.Context, programID string) ([]*types.Form, error) {
	query, args, err := psql().
		Select(formColumns...).
		From(formTableName).
		Where(sq.Eq{"program_id": programID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate forms query: %w", err)
	}

	var forms = make([]*types.Form, 0)
	err = pgxscan.Select(ctx, r.pool, &forms, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forms for program %s: %w", programID, err)
	}

	return forms, nil
}

// FormByVolunteerAndProgram returns the volunteer's form for the
// program, or ErrFormNotFound when nothing has been submitted.
func (r *FormRepository) FormByVolunteerAndProgram(ctx context.Context, volunteerID, programID string) (*types.Form, error) {
	query, args, err := psql().
		Select(formColumns...).
		From(formTableName).
		Where(sq.Eq{"volunteer_id": volunteerID, "program_id": programID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate form lookup query: %w", err)
	}

	var form types.Form
	err = pgxscan.Get(ctx, r.pool, &form, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to fetch form: %w", err)
	}

	return &form, nil
}

func (r *FormRepository) UpdateFormStatus(ctx context.Context, formID string, status types.FormStatus) error {
	query, args, err := psql().
		Update(formTableName).
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": formID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update form status query for form %s: %w", formID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update form status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrFormNotFound
	}

	return nil
}
