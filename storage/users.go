package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DevADOBAN/Taskhub/domain"
)

// CreateUser inserts u and returns it with its assigned id. A registered
// email yields domain.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.CreatedAt = s.now().UTC()
	err := s.withTx(ctx, "create user", func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, u.Email).Scan(&exists)
		switch {
		case err == nil:
			return fmt.Errorf("%w: email already registered", domain.ErrConflict)
		case !errors.Is(err, sql.ErrNoRows):
			return storageErr("create user: lookup", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)`,
			u.Email, u.Name, u.PasswordHash, toMillis(u.CreatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email already registered", domain.ErrConflict)
			}
			return storageErr("create user: insert", err)
		}
		u.ID, err = res.LastInsertId()
		if err != nil {
			return storageErr("create user: last insert id", err)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// UserByEmail looks up a user by exact email.
func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`, email))
}

// UserByID looks up a user by id.
func (s *Store) UserByID(ctx context.Context, id int64) (domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (domain.User, error) {
	var (
		u       domain.User
		created int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return domain.User{}, storageErr("load user", err)
	}
	u.CreatedAt = fromMillis(created)
	return u, nil
}
