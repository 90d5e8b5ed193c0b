package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haitrvn/gutcare/internal/domain/entity"
	"github.com/haitrvn/gutcare/internal/domain/repository"
)

// uniqueViolation is the postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `
		SELECT email, password_hash, user_profile, encrypted_gemini_key
		FROM users
		WHERE email = $1
	`, email)

	if err := row.Scan(&u.Email, &u.PasswordHash, &u.Profile, &u.EncryptedGeminiKey); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (email, password_hash, user_profile)
		VALUES ($1, $2, $3)
	`, u.Email, u.PasswordHash, u.Profile)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, email string, profile json.RawMessage) (json.RawMessage, error) {
	var stored json.RawMessage
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET user_profile = $1
		WHERE email = $2
		RETURNING user_profile
	`, profile, email)
	if err := row.Scan(&stored); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return stored, nil
}

func (r *UserRepository) UpdateEncryptedKey(ctx context.Context, email string, blob string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET encrypted_gemini_key = $1
		WHERE email = $2
	`, blob, email)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
