// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

// maxBodyBytes はリクエストボディの上限。
const maxBodyBytes = 1 << 20

// dataResponse はdataフィールドを持つ成功レスポンス。
type dataResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// tokenResponse はトークンを返す成功レスポンス。
type tokenResponse struct {
	Status    bool   `json:"status"`
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func writeData(w http.ResponseWriter, statusCode int, message string, data any) {
	middleware.WriteJSON(w, statusCode, dataResponse{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// decodeJSON はリクエストボディを1つのJSON値としてデコードする。
// 空ボディはゼロ値として扱い、後続のバリデーションに任せる。
// 値の後に続くデータがある場合は不正なボディとする。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) *model.APIError {
	invalid := model.NewValidationError(map[string]string{
		"body": "The request body must be a valid JSON object.",
	})

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalid
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalid
	}
	return nil
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
