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

const userTableName = "aidlink.users"

var userColumns = utils.StructTagValues(types.User{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) User(ctx context.Context, userID string) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) Users(ctx context.Context) ([]*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate users query: %w", err)
	}

	var users = make([]*types.User, 0)
	err = pgxscan.Select(ctx, r.pool, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *types.User) error {
	now := time.Now()
	if user.ID == "" {
		user.ID = utils.NanoID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	query, args, err := psql().
		Insert(userTableName).
		SetMap(utils.StructToMap(user)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert user query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create user")
}

func (r *UserRepository) UpdateUser(ctx context.Context, userID string, user *types.User) error {
	query, args, err := psql().
		Update(userTableName).
		Set("name", user.Name).
		Set("email", user.Email).
		Set("role", user.Role).
		Set("contact_number", user.ContactNumber).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update user query for user %s: %w", userID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}

	return nil
}
