package server

import (
	"net/http"

	"github.com/ilcm96/sub-relay/internal/httpx"
)

// Routes returns the HTTP routing configuration with access control, CORS and logging applied.
// Routes 는 접근 제어, CORS, 로깅이 적용된 HTTP 라우팅 구성을 반환합니다.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", s.withAccessKey(s.linkHandler()))
	mux.Handle("GET /res", s.withAccessKey(s.contentHandler()))

	return httpx.WithRequestLogging(httpx.WithCORS(mux))
}
