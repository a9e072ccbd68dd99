// Package user はユーザー資格情報の登録と検索を提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/password"
	"github.com/hitoshi/taskman/internal/repository"
)

// PasswordHasher はパスワードのハッシュ化インターフェース。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// CreateUserInput はユーザー作成の入力。
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
}

// Service はユーザー資格情報ストアのサービス層。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, hasher PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		now:      time.Now,
	}
}

// NormalizeEmail はメールアドレスを比較用の正規形（前後空白除去・小文字）にする。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail はメールアドレスが表示名なしの単一アドレスであるかを返す。
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == email
}

// CreateUser は新しいユーザーを登録する。
// 入力不備はVALIDATION_FAILED、登録済みのメールアドレスはDUPLICATE_EMAILを返す。
// パスワードはハッシュ化して保存し、平文は保持しない。
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)

	errs := model.ValidationErrors{}
	if name == "" {
		errs.Add("name", "The name field is required.")
	}
	switch {
	case email == "":
		errs.Add("email", "The email field is required.")
	case !ValidEmail(email):
		errs.Add("email", "The email must be a valid email address.")
	}
	switch {
	case in.Password == "":
		errs.Add("password", "The password field is required.")
	case len(in.Password) > password.MaxLength:
		errs.Add("password", fmt.Sprintf("The password may not be greater than %d bytes.", password.MaxLength))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := s.now().UTC()
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateEmailError()
		}
		return nil, fmt.Errorf("ユーザーの登録に失敗しました: %w", err)
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", u.ID),
	)

	return u, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。大文字小文字は区別しない。
// 見つからない場合はnil, nilを返す。
func (s *Service) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}
	u, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, nil
}

// FindByID はIDでユーザーを検索する。見つからない場合はnil, nilを返す。
// IDはUUID形式でなければ未登録として扱う。
func (s *Service) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, nil
}
