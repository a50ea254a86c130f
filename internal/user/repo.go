package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound     = errors.New("customer not found")
	ErrAlreadyExist = errors.New("customer already exists")
)

const Schema = `
CREATE TABLE IF NOT EXISTS customers (
	id               BIGINT PRIMARY KEY,
	name             TEXT        NOT NULL,
	email            TEXT        NOT NULL UNIQUE,
	discount_availed BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

type Customer struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	DiscountAvailed bool      `json:"discount_availed"`
	CreatedAt       time.Time `json:"-"`
}

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id int64) (*Customer, error)
	SetDiscountAvailed(ctx context.Context, id int64, availed bool) error
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, c *Customer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (id, name, email, discount_availed, created_at, updated_at)
		VALUES ($1,$2,$3,FALSE,NOW(),NOW())
		RETURNING created_at
	`, c.ID, c.Name, c.Email).Scan(&c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExist
		}
		return fmt.Errorf("create customer: %w", err)
	}
	c.DiscountAvailed = false
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Customer
	err := r.db.QueryRow(ctx, `
		SELECT id, name, email, discount_availed, created_at
		FROM customers WHERE id=$1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.DiscountAvailed, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return &c, nil
}

func (r *PGRepo) SetDiscountAvailed(ctx context.Context, id int64, availed bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE customers SET discount_availed = $2, updated_at = NOW() WHERE id = $1
	`, id, availed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) DeleteAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM customers`)
	return err
}
