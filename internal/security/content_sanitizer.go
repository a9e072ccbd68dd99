// Package security はユーザー入力テキストの無害化を提供する。
//
// タスクのタイトルと説明はプレーンテキストとして保存する。
// bluemondayのStrictPolicyでマークアップを全て除去し、
// script, styleなどの要素は中身ごと取り除く。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize は入力からHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(raw string) string
}

type plainTextSanitizer struct {
	policy *bluemonday.Policy
}

// NewPlainTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
// bluemondayのポリシーはスレッドセーフなので共有して使える。
func NewPlainTextSanitizer() TextSanitizer {
	return &plainTextSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses はエンティティの多重エスケープを剥がす回数の上限。
const maxSanitizePasses = 8

// Sanitize はタグを除去したプレーンテキストを返す。
// StrictPolicyはテキストをHTMLエスケープして返すため元の文字に戻すが、
// 戻した結果に新たなタグが現れうるので、出力が変化しなくなるまで繰り返す。
// 上限回数で収束しない入力は空文字列とする。
func (s *plainTextSanitizer) Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	for range maxSanitizePasses {
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
		if next == text {
			return text
		}
		text = next
	}
	return ""
}
