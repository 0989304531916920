package members

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const uniqueViolation = "23505"

func (r *Repo) Create(ctx context.Context, m *Member) (int64, error) {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO members(name, email, password_hash, address, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		m.Name, m.Email, m.PasswordHash, m.Address, string(m.Role),
	).Scan(&m.ID, &m.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return 0, ErrDuplicateEmail
	}
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*Member, error) {
	return r.get(ctx, `WHERE email=$1`, email)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Member, error) {
	return r.get(ctx, `WHERE id=$1`, id)
}

func (r *Repo) get(ctx context.Context, cond string, arg any) (*Member, error) {
	var m Member
	var role string
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, email, password_hash, address, role, created_at
		FROM members `+cond, arg,
	).Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Address, &role, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Role = Role(role)
	return &m, nil
}

func (r *Repo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE email=$1)`, email).Scan(&exists)
	return exists, err
}
