package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/taskman/internal/model"
)

// requestInfo は内側のミドルウェアが外側のロガーに伝える情報。
// 認証ミドルウェアはコンテキストを差し替えて次へ渡すため、
// 外側からは差し替え後のコンテキストが見えない。
type requestInfo struct {
	identity model.UserIdentity
}

var requestInfoContextKey = contextKey("request_info")

// recordIdentity はロギングミドルウェア配下であれば識別情報を書き戻す。
func recordIdentity(ctx context.Context, identity model.UserIdentity) {
	if info, ok := ctx.Value(requestInfoContextKey).(*requestInfo); ok {
		info.identity = identity
	}
}

// NewLoggingMiddleware はリクエストごとにhttp_requestレコードを出力するミドルウェアを返す。
// method、path、status、bytes、duration_msに加え、
// chiのRequestIDミドルウェア配下ではrequest_id、認証済みならuser_idを含む。
// Authorizationヘッダーの値は出力しない。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := newStatusRecorder(w)
			info := &requestInfo{}
			if identity, ok := IdentityFromContext(r.Context()); ok {
				info.identity = identity
			}
			ctx := context.WithValue(r.Context(), requestInfoContextKey, info)

			next.ServeHTTP(rec, r.WithContext(ctx))

			elapsed := time.Since(start)
			attrs := make([]slog.Attr, 0, 7)
			attrs = append(attrs,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Int("bytes", rec.bytes),
				slog.Float64("duration_ms", float64(elapsed.Microseconds())/1000),
			)
			if id := chimw.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if info.identity.ID != "" {
				attrs = append(attrs, slog.String("user_id", info.identity.ID))
			}

			logger.LogAttrs(r.Context(), levelForStatus(rec.statusCode), "http_request", attrs...)
		})
	}
}

// levelForStatus は5xxをError、4xxをWarn、それ以外をInfoとする。
func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
