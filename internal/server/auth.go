package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authorize checks the access key from the key query parameter or a Bearer Authorization header.
// authorize 는 key 쿼리 파라미터 또는 Bearer Authorization 헤더의 접근 키를 확인합니다.
func (s *Server) authorize(r *http.Request) (viaHeader bool, ok bool) {
	if key := r.URL.Query().Get("key"); key != "" {
		return false, s.matches(key)
	}
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return false, false
	}
	return true, s.matches(strings.TrimSpace(parts[1]))
}

func (s *Server) matches(key string) bool {
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.accessKey)) == 1
}

// withAccessKey returns middleware that rejects requests without the configured access key.
// The consumed Authorization header is removed so it is never relayed upstream.
// withAccessKey 는 설정된 접근 키가 없는 요청을 거부하는 미들웨어를 반환합니다.
// 검증에 사용한 Authorization 헤더는 업스트림으로 중계되지 않도록 제거합니다.
func (s *Server) withAccessKey(next http.Handler) http.Handler {
	if s.accessKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viaHeader, ok := s.authorize(r)
		if !ok {
			http.Error(w, "Invalid access key", http.StatusForbidden)
			return
		}
		if viaHeader {
			r = r.Clone(r.Context())
			r.Header.Del("Authorization")
		}
		next.ServeHTTP(w, r)
	})
}
