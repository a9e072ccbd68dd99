// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/taskman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	identityContextKey = contextKey("identity")
	tokenContextKey    = contextKey("token")
)

// TokenVerifier はトークン検証のインターフェース。成功時はユーザーIDを返す。
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// UserFinder はユーザー検索のインターフェース。見つからない場合はnil, nilを返す。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 検証に成功した場合はユーザーの識別情報をリクエストコンテキストに注入する。
// ヘッダー欠落、形式不正、検証失敗、ユーザー未登録はすべて同一の401を返す。
func NewAuthMiddleware(verifier TokenVerifier, users UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				WriteUnauthorized(w)
				return
			}

			userID, err := verifier.Verify(raw)
			if err != nil {
				slog.Debug("token rejected", slog.String("reason", err.Error()))
				WriteUnauthorized(w)
				return
			}

			u, err := users.FindByID(r.Context(), userID)
			if err != nil {
				slog.Error("failed to load token subject",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				WriteUnauthorized(w)
				return
			}
			if u == nil {
				WriteUnauthorized(w)
				return
			}

			identity := u.Identity()
			recordIdentity(r.Context(), identity)

			ctx := ContextWithIdentity(r.Context(), identity)
			ctx = context.WithValue(ctx, tokenContextKey, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}
	return raw, true
}

// ContextWithIdentity はコンテキストに認証済みユーザーの識別情報を注入する。
func ContextWithIdentity(ctx context.Context, identity model.UserIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext はリクエストコンテキストから認証済みユーザーの識別情報を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (model.UserIdentity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.UserIdentity)
	if !ok || identity.ID == "" {
		return model.UserIdentity{}, false
	}
	return identity, true
}

// TokenFromContext は認証に使われた生のトークンを取得する。
func TokenFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(tokenContextKey).(string)
	return raw, ok && raw != ""
}
