package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"learnhub/internal/account/migrations"

	"learnhub/pkg/domain"
	"learnhub/pkg/platform/sentinel"
)

const selectColumns = `id, email, name, password_hash, role, verified, avatar_public_id, avatar_url, created_at, updated_at`

// PostgresStore persists accounts in PostgreSQL. The pool is owned by the
// caller; the store never closes it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies the embedded goose migrations. It is safe to run on every
// start; applied versions are skipped.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("select migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply account migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, a *Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (`+selectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(a.ID), a.Email, a.Name, nullableHash(a.passwordHash), string(a.Role), a.Verified,
		a.Avatar.PublicID, a.Avatar.URL, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM accounts WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	return scanAccount(row)
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AccountID) (*Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM accounts WHERE id = $1`,
		uuid.UUID(id),
	)
	return scanAccount(row)
}

func (s *PostgresStore) Update(ctx context.Context, a *Account) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts
		    SET email = $2, name = $3, password_hash = $4, role = $5, verified = $6,
		        avatar_public_id = $7, avatar_url = $8, updated_at = $9
		  WHERE id = $1`,
		uuid.UUID(a.ID), a.Email, a.Name, nullableHash(a.passwordHash), string(a.Role), a.Verified,
		a.Avatar.PublicID, a.Avatar.URL, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM accounts ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		a    Account
		id   uuid.UUID
		role string
	)
	err := row.Scan(&id, &a.Email, &a.Name, &a.passwordHash, &role, &a.Verified,
		&a.Avatar.PublicID, &a.Avatar.URL, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.ID = domain.AccountID(id)
	a.Role, err = domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("scan account %s: %w", id, err)
	}
	return &a, nil
}

func nullableHash(h []byte) any {
	if len(h) == 0 {
		return nil
	}
	return h
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
