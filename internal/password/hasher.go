// Package password はパスワードの一方向ハッシュ化と照合を提供する。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength はbcryptが扱える入力の最大バイト数。
// これを超えるパスワードはバリデーションで拒否する。
const MaxLength = 72

// decoyPassword はダミー照合用のハッシュ元。実ユーザーの照合には使われない。
const decoyPassword = "taskman-decoy-password"

// Hasher はbcryptによるパスワードハッシュ化を行う。
// 生成後は不変のため、複数goroutineから安全に利用できる。
type Hasher struct {
	cost int
	// decoyHash は実ユーザーと同じcostで生成済みのダミーハッシュ。
	decoyHash []byte
}

// NewHasher はHasherを生成する。
// costがbcryptの許容範囲外の場合はbcrypt.DefaultCostを使用する。
// ダミー照合用のハッシュもここで生成し、最初のログイン試行から照合コストを揃える。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// 長さとcostは検証済みのため失敗しない
	decoy, _ := bcrypt.GenerateFromPassword([]byte(decoyPassword), cost)
	return &Hasher{cost: cost, decoyHash: decoy}
}

// Hash は平文パスワードのbcryptハッシュを返す。
func (h *Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Verify はハッシュと平文パスワードが一致するかを返す。
// ハッシュが不正な形式の場合も不一致として扱う。
func (h *Hasher) Verify(hash, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	return err == nil
}

// VerifyDecoy は存在しないユーザーに対するログイン試行で呼び出すダミー照合。
// 実ユーザーの照合と同じく1回のbcrypt比較を行い、常にfalseを返す。
func (h *Hasher) VerifyDecoy(plain string) bool {
	_ = bcrypt.CompareHashAndPassword(h.decoyHash, []byte(plain))
	return false
}
