// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// Fieldsにはバリデーションエラー時のフィールド名と違反理由の対応を保持する。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, task, system
	Fields   map[string]string // フィールド別の違反理由（validationのみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("[%s] %s %v", e.Code, e.Message, e.Fields)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation     = "VALIDATION_FAILED"
	ErrCodeDuplicateEmail = "DUPLICATE_EMAIL"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeTaskNotFound   = "TASK_NOT_FOUND"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// UnauthorizedMessage は401応答で常に返す固定メッセージ。
// どの検査で失敗したかはクライアントに開示しない。
const UnauthorizedMessage = "Unauthorized"

// ValidationErrors はフィールド名から違反理由へのマッピング。
// バリデーション関数が違反を蓄積するために使用する。
type ValidationErrors map[string]string

// Add は最初の違反理由のみを保持する。
func (v ValidationErrors) Add(field, reason string) {
	if _, exists := v[field]; !exists {
		v[field] = reason
	}
}

// Err は違反が存在する場合にバリデーションエラーを返す。存在しない場合はnilを返す。
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return NewValidationError(v)
}

// NewValidationError は入力値のバリデーションエラーを生成する。
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "The given data was invalid.",
		Category: "validation",
		Fields:   fields,
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
// バリデーションエラーの一種としてemailフィールドの違反を含む。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "The given data was invalid.",
		Category: "validation",
		Fields:   map[string]string{"email": "The email has already been taken."},
	}
}

// NewUnauthorizedError は認証エラーを生成する。
// 資格情報の誤り、トークンの欠落・不正・期限切れのいずれでも同一の内容を返す。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  UnauthorizedMessage,
		Category: "auth",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  "Task not found",
		Category: "task",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
	}
}

// IsCode はerrがAPIErrorであり、指定のコードを持つかを判定する。
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
