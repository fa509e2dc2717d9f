package httpx

import "net/http"

// WithCORS adds permissive CORS headers so browser-based clients can read subscriptions,
// and answers OPTIONS preflight requests directly.
// WithCORS 는 브라우저 기반 클라이언트가 구독을 읽을 수 있도록 CORS 헤더를 추가하고
// OPTIONS 사전 요청에 직접 응답합니다.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("Access-Control-Allow-Origin", "*")
		headers.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		headers.Set("Access-Control-Allow-Headers", "*")
		headers.Set("Access-Control-Expose-Headers", RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
