// Package token はユーザーに紐づくベアラートークンの発行・検証・再発行・無効化を提供する。
//
// トークンはHS256署名のJWTで、サーバー側にはいっさい保存しない（ステートレス）。
// 有効性は署名の検証と埋め込まれた有効期限のみで判定する。
//
// 既知の制約: 失効リストを持たないため、ログアウトや再発行の後も
// 旧トークンは本来の有効期限まで検証に成功し続ける。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 検証失敗の分類。クライアントへは区別せず401として返す。
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token is expired")
)

// Token は発行済みトークンを表す。
type Token struct {
	Raw       string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims はトークンに埋め込むクレーム。
// sub にユーザーID、iat/exp に発行・失効時刻、jti に一意なトークンIDを持つ。
type Claims struct {
	jwt.RegisteredClaims
}

// Service はトークンの発行と検証を行う。
// 署名鍵は起動時に一度だけ設定され以後変更されないため、ロックなしで並行利用できる。
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option はServiceの生成オプション。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService はServiceを生成する。
// ttlは発行から失効までの期間。
func NewService(secret []byte, ttl time.Duration, opts ...Option) *Service {
	key := make([]byte, len(secret))
	copy(key, secret)
	s := &Service{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL はトークンの有効期間を返す。
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// ExpiresIn はトークンの有効期間を秒単位で返す。
func (s *Service) ExpiresIn() int {
	return int(s.ttl / time.Second)
}

// Issue は指定ユーザーのトークンを発行する。
// exp = iat + TTL。JWTの時刻精度に合わせて秒単位に切り捨てる。
func (s *Service) Issue(userID string) (*Token, error) {
	return s.issueAt(userID, s.now().Truncate(time.Second))
}

// Verify は生トークンを検証し、主体のユーザーIDを返す。
func (s *Service) Verify(raw string) (string, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Refresh は提示されたトークンを検証し、同じ主体に新しいトークンを発行する。
// 新トークンの有効期限は必ず旧トークンより後になる。
// 旧トークンは失効させない（本来の有効期限まで有効のまま）。
func (s *Service) Refresh(raw string) (*Token, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return nil, err
	}

	issuedAt := s.now().Truncate(time.Second)
	if prev := claims.IssuedAt; prev != nil && !issuedAt.After(prev.Time) {
		issuedAt = prev.Time.Add(time.Second)
	}

	return s.issueAt(claims.Subject, issuedAt)
}

// Invalidate は論理的なログアウトを表す。
// ステートレスな設計のため検証結果には影響しない。
// 即時失効が必要な場合は失効リストを別途用意する必要がある。
func (s *Service) Invalidate(raw string) {}

func (s *Service) issueAt(userID string, issuedAt time.Time) (*Token, error) {
	if userID == "" {
		return nil, errors.New("token subject is required")
	}

	expiresAt := issuedAt.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{
		Raw:       raw,
		Subject:   userID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// parse は署名と有効期限を検証してクレームを返す。
// 有効期限は now >= exp で失効とみなす。
func (s *Service) parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMalformed
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classify(err)
	}

	if claims.Subject == "" {
		return nil, ErrMalformed
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}

	return claims, nil
}

// classify はjwtライブラリのエラーを本パッケージの分類に変換する。
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
