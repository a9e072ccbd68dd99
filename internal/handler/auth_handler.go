package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.TokenResult, error)
	Logout(ctx context.Context, identity model.UserIdentity, raw string)
	RefreshToken(ctx context.Context, raw string) (*auth.TokenResult, error)
	Profile(ctx context.Context, identity model.UserIdentity) (*model.User, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type profileResponse struct {
	Status  bool         `json:"status"`
	Message string       `json:"message"`
	User    userResponse `json:"user"`
	UserID  string       `json:"user_id"`
	Email   string       `json:"email"`
}

// Register はユーザー登録を処理する。トークンは発行しない。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	_, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, "User successfully registered", struct{}{})
}

// Login は資格情報を照合してトークンを発行する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	res, err := h.service.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tokenResponse{
		Status:    true,
		Message:   "Successfully logged in",
		Token:     res.Token,
		ExpiresIn: res.ExpiresIn,
	})
}

// Logout は提示されたトークンを論理的に無効化する。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	raw, hasToken := middleware.TokenFromContext(r.Context())
	if !ok || !hasToken {
		middleware.WriteUnauthorized(w)
		return
	}

	h.service.Logout(r.Context(), identity, raw)

	writeData(w, http.StatusOK, "Successfully logged out", []any{})
}

// Profile は認証済みユーザーの情報を返す。
// GET /profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}

	u, err := h.service.Profile(r.Context(), identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, profileResponse{
		Status:  true,
		Message: "User profile",
		User:    toUserResponse(u),
		UserID:  u.ID,
		Email:   u.Email,
	})
}

// RefreshToken は同じユーザーに新しいトークンを発行する。
// GET /refresh-token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	raw, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}

	res, err := h.service.RefreshToken(r.Context(), raw)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tokenResponse{
		Status:    true,
		Message:   "Token successfully refreshed",
		Token:     res.Token,
		ExpiresIn: res.ExpiresIn,
	})
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
