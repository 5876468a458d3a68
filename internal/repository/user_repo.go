package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"studycards/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	// Save inserta si user.ID es 0 (completando ID y CreatedAt) o actualiza por id.
	Save(ctx context.Context, user *domain.User) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, password, email_verified, created_at`

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
		LIMIT 1
	`
	return r.getOne(ctx, query, email)
}

func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *PgUserRepository) Save(ctx context.Context, user *domain.User) error {
	if user.ID == 0 {
		const insert = `
			INSERT INTO users (email, password, email_verified)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`
		err := r.pool.QueryRow(ctx, insert,
			user.Email,
			user.PasswordHash,
			user.EmailVerified,
		).Scan(&user.ID, &user.CreatedAt)
		return mapError(err)
	}

	const update = `
		UPDATE users
		SET email = $1, password = $2, email_verified = $3
		WHERE id = $4
	`
	tag, err := r.pool.Exec(ctx, update,
		user.Email,
		user.PasswordHash,
		user.EmailVerified,
		user.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, arg any) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.EmailVerified,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return u, nil
}
