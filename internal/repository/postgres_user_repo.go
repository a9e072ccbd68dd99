package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/taskman/internal/model"
)

const selectUser = `SELECT id, name, email, password_hash, created_at, updated_at FROM users`

// PostgresUserRepo はusersテーブルに対するUserRepositoryの実装。
type PostgresUserRepo struct {
	db *sql.DB
}

func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーを1行挿入する。
// 同じメールアドレスの同時登録はusers.emailのUNIQUE制約で片方だけが成功し、
// もう片方はErrDuplicateEmailになる。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	var pqErr *pq.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation":
		return ErrDuplicateEmail
	default:
		return fmt.Errorf("failed to insert user: %w", err)
	}
}

// FindByID は見つからなければ (nil, nil) を返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "ID", selectUser+` WHERE id = $1`, id)
}

// FindByEmail は小文字化して比較する。見つからなければ (nil, nil) を返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email", selectUser+` WHERE email = lower($1)`, email)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, by, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to find user by %s: %w", by, err)
	}
	return &u, nil
}

var _ UserRepository = (*PostgresUserRepo)(nil)
