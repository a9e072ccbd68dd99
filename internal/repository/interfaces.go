// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/taskman/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
// 重複チェックと挿入は単一のINSERT文で原子的に行われる。
var ErrDuplicateEmail = errors.New("email already exists")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレスが既に登録済みの場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// List は全タスクを作成順（created_at, id の昇順）で返す。
	// 0件の場合は空スライスを返す。
	List(ctx context.Context) ([]*model.Task, error)

	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// Update はタスクのタイトルと説明を更新する。
	// 対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, task *model.Task) (bool, error)

	// Delete は指定IDのタスクを削除する。
	// 対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// HealthChecker はデータベースの疎通確認インターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}
