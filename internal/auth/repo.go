package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) CreateUser(ctx context.Context, u *User) (*User, error) {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(name, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.Name, u.Email, u.Password, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, email, password, role, created_at
		FROM users WHERE email=$1`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE email=$1`, email).Scan(&n)
	return n > 0, err
}
