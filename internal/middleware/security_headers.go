package middleware

import "net/http"

// securityHeaders はすべてのレスポンスに付与するヘッダー。
// APIはJSONのみを返すため、CSPはあらゆるリソースの読み込みとフレーム埋め込みを拒否する。
var securityHeaders = [...]struct{ name, value string }{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "no-referrer"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	// トークンを含むレスポンスを中間キャッシュに残さない
	{"Cache-Control", "no-store"},
}

// NewSecurityHeadersMiddleware はsecurityHeadersを後続ハンドラーの実行前に設定する。
// 後続ハンドラーが同名ヘッダーを設定した場合はそちらが優先される。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, sh := range securityHeaders {
				h.Set(sh.name, sh.value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
