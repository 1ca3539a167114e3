package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anyulbade/annotation-payouts/internal/model"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, email, display_name, role, created_at
		FROM users WHERE id = $1::uuid`, id).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *UserRepository) Insert(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, display_name, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING id::text, role, created_at`,
		u.Email, u.DisplayName, u.Role,
	).Scan(&u.ID, &u.Role, &u.CreatedAt)
	return translate(err)
}
