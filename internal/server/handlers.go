package server

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ilcm96/sub-relay/internal/apperr"
)

// linkHandler returns the resolved subscribe URL as plain text.
// linkHandler 는 조회한 구독 URL 을 일반 텍스트로 반환합니다.
func (s *Server) linkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := s.subscriber.GetSubscriptionLink(r.Context())
		if err != nil {
			writeError(w, r, "failed to get subscription link", err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, link)
	}
}

// contentHandler relays the subscribe URL's content verbatim.
// contentHandler 는 구독 URL 의 내용을 그대로 중계합니다.
func (s *Server) contentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := s.subscriber.GetSubscriptionMessage(r.Context(), r.Header)
		if err != nil {
			writeError(w, r, "failed to get subscription message", err)
			return
		}
		contentType := content.ContentType
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content.Body)
	}
}

// writeError logs err and renders it with the status its kind maps to.
// writeError 는 err 을 기록하고 해당 유형에 매핑된 상태 코드로 응답합니다.
func writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperr.HTTPStatus(err)
	zerolog.Ctx(r.Context()).Error().
		Err(err).
		Stringer("kind", apperr.KindOf(err)).
		Int("status", status).
		Msg(msg)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, err.Error())
}
