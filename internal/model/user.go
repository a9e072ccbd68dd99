package model

import "time"

// User はサービス利用ユーザーを表す。
// Emailは小文字に正規化された状態で保持される。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcryptハッシュ。APIレスポンスには含めない
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserIdentity はアクセスガードが解決した認証済みユーザーの最小情報を表す。
// リクエストコンテキスト経由でハンドラーに明示的に渡され、1リクエストの間だけ有効。
type UserIdentity struct {
	ID    string
	Email string
}

// Identity はUserからUserIdentityを生成する。
func (u *User) Identity() UserIdentity {
	return UserIdentity{ID: u.ID, Email: u.Email}
}
