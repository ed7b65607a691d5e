package pgstore

import (
	"context"

	"settlement-engine/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	u := &domain.User{}
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT id, email, role, tags, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Role, &u.Tags, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}
