// Package auth は登録・ログイン・ログアウト・トークン再発行の認証フローを提供する。
//
// 資格情報の誤りは、メールアドレス未登録とパスワード不一致のどちらでも
// 同一のUnauthorizedエラーとして返す。未登録の場合もダミーのbcrypt照合を行い、
// 応答時間からアカウントの有無を推測されないようにする。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/token"
	"github.com/hitoshi/taskman/internal/user"
)

// CredentialStore はユーザー資格情報ストアのインターフェース。
type CredentialStore interface {
	CreateUser(ctx context.Context, in user.CreateUserInput) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// PasswordVerifier はパスワード照合のインターフェース。
type PasswordVerifier interface {
	Verify(hash, plain string) bool
	VerifyDecoy(plain string) bool
}

// TokenIssuer はトークン発行・再発行・無効化のインターフェース。
type TokenIssuer interface {
	Issue(userID string) (*token.Token, error)
	Refresh(raw string) (*token.Token, error)
	Invalidate(raw string)
	ExpiresIn() int
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// LoginInput はログインの入力。
type LoginInput struct {
	Email    string
	Password string
}

// TokenResult はクライアントに返すトークンと有効期間（秒）。
type TokenResult struct {
	Token     string
	ExpiresIn int
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	store     CredentialStore
	passwords PasswordVerifier
	tokens    TokenIssuer
	metrics   metrics.MetricsCollector
}

// NewService はServiceを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(store CredentialStore, passwords PasswordVerifier, tokens TokenIssuer, mc metrics.MetricsCollector) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		store:     store,
		passwords: passwords,
		tokens:    tokens,
		metrics:   mc,
	}
}

// Register は新しいユーザーを登録する。トークンは発行しない。
// パスワードと確認用パスワードが一致しない場合はpasswordフィールドのバリデーションエラーを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if in.Password != "" && in.Password != in.PasswordConfirmation {
		s.metrics.RecordRegistration(metrics.OutcomeInvalid)
		return nil, model.NewValidationError(map[string]string{
			"password": "The password confirmation does not match.",
		})
	}

	u, err := s.store.CreateUser(ctx, user.CreateUserInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		if model.IsCode(err, model.ErrCodeValidation) || model.IsCode(err, model.ErrCodeDuplicateEmail) {
			s.metrics.RecordRegistration(metrics.OutcomeInvalid)
			return nil, err
		}
		s.metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.metrics.RecordRegistration(metrics.OutcomeSuccess)
	return u, nil
}

// Login はメールアドレスとパスワードを照合し、トークンを発行する。
// 入力欠落はバリデーションエラー、照合失敗は常に同一のUnauthorizedを返す。
func (s *Service) Login(ctx context.Context, in LoginInput) (*TokenResult, error) {
	errs := model.ValidationErrors{}
	if strings.TrimSpace(in.Email) == "" {
		errs.Add("email", "The email field is required.")
	}
	if in.Password == "" {
		errs.Add("password", "The password field is required.")
	}
	if err := errs.Err(); err != nil {
		s.metrics.RecordLogin(metrics.OutcomeInvalid)
		return nil, err
	}

	u, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to look up credentials: %w", err)
	}

	if u == nil {
		s.passwords.VerifyDecoy(in.Password)
		s.metrics.RecordLogin(metrics.OutcomeFailure)
		slog.Info("login rejected")
		return nil, model.NewUnauthorizedError()
	}
	if !s.passwords.Verify(u.PasswordHash, in.Password) {
		s.metrics.RecordLogin(metrics.OutcomeFailure)
		slog.Info("login rejected")
		return nil, model.NewUnauthorizedError()
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	s.metrics.RecordTokenIssued()
	slog.Info("user logged in", slog.String("user_id", u.ID))

	return &TokenResult{Token: tok.Raw, ExpiresIn: s.tokens.ExpiresIn()}, nil
}

// Logout はトークンを論理的に無効化する。
// サーバー側に状態を持たないため、トークン自体は有効期限まで検証に成功する。
func (s *Service) Logout(ctx context.Context, identity model.UserIdentity, raw string) {
	s.tokens.Invalidate(raw)
	slog.Info("user logged out", slog.String("user_id", identity.ID))
}

// RefreshToken は提示されたトークンと同じユーザーに、より遅い有効期限のトークンを発行する。
// トークンの検証に失敗した場合は理由を問わずUnauthorizedを返す。
func (s *Service) RefreshToken(ctx context.Context, raw string) (*TokenResult, error) {
	tok, err := s.tokens.Refresh(raw)
	if err != nil {
		s.metrics.RecordTokenRefresh(metrics.OutcomeFailure)
		slog.Debug("token refresh rejected", slog.String("reason", err.Error()))
		return nil, model.NewUnauthorizedError()
	}

	s.metrics.RecordTokenRefresh(metrics.OutcomeSuccess)
	s.metrics.RecordTokenIssued()

	return &TokenResult{Token: tok.Raw, ExpiresIn: s.tokens.ExpiresIn()}, nil
}

// Profile は認証済みユーザーの情報を返す。
// ユーザーが既に存在しない場合はUnauthorizedを返す。
func (s *Service) Profile(ctx context.Context, identity model.UserIdentity) (*model.User, error) {
	u, err := s.store.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if u == nil {
		return nil, model.NewUnauthorizedError()
	}
	return u, nil
}
