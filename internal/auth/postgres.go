package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *User, passwordHash []byte) error {
	query := `INSERT INTO profiles (id, email, full_name, password_hash, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $5)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		passwordHash,
		time.Now().UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*User, []byte, error) {
	query := `SELECT id, email, full_name, password_hash FROM profiles WHERE email = $1`

	var user User
	var hash []byte
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &user.FullName, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrUserNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query profile by email: %w", err)
	}

	return &user, hash, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	query := `SELECT id, email, full_name FROM profiles WHERE id = $1`

	var user User
	err = r.db.QueryRowContext(ctx, query, userID).Scan(&user.ID, &user.Email, &user.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile by id: %w", err)
	}

	return &user, nil
}
