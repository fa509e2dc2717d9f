package httpx

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the per-request correlation ID.
// RequestIDHeader 는 요청별 상관관계 ID 를 담는 헤더입니다.
const RequestIDHeader = "X-Request-Id"

// statusRecorder remembers the status code written by the wrapped handler.
// statusRecorder 는 감싼 핸들러가 기록한 상태 코드를 기억합니다.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

// WriteHeader records status before passing it on.
// WriteHeader 는 상태 코드를 기록한 뒤 그대로 전달합니다.
func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Write counts the bytes written, defaulting the status to 200.
// Write 는 기록된 바이트 수를 세며, 상태 코드가 없으면 200 으로 간주합니다.
func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// WithRequestLogging tags every request with an ID, stores a child logger in the
// request context, and writes one access log line when the handler returns.
// WithRequestLogging 는 요청마다 ID 를 부여하고 요청 컨텍스트에 하위 로거를 저장하며,
// 핸들러가 끝나면 접근 로그 한 줄을 기록합니다.
func WithRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := log.Logger.With().Str("request_id", requestID).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
