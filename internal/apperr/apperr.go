package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure so the HTTP boundary can pick a status code.
// Kind 는 HTTP 경계에서 상태 코드를 고를 수 있도록 실패 유형을 분류합니다.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfigMissing
	KindNetwork
	KindLoginFailed
	KindAuthDataNotFound
	KindSubscribeFailed
	KindSubscribeURLNotFound
	KindInvalidHeaderValue
	KindMalformedResponse
	KindRelayFailed
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindConfigMissing:        "config_missing",
	KindNetwork:              "network_error",
	KindLoginFailed:          "login_failed",
	KindAuthDataNotFound:     "auth_data_not_found",
	KindSubscribeFailed:      "subscribe_failed",
	KindSubscribeURLNotFound: "subscribe_url_not_found",
	KindInvalidHeaderValue:   "invalid_header_value",
	KindMalformedResponse:    "malformed_response",
	KindRelayFailed:          "relay_failed",
}

var kindStatus = map[Kind]int{
	KindConfigMissing:        http.StatusInternalServerError,
	KindNetwork:              http.StatusServiceUnavailable,
	KindLoginFailed:          http.StatusUnauthorized,
	KindAuthDataNotFound:     http.StatusInternalServerError,
	KindSubscribeFailed:      http.StatusUnauthorized,
	KindSubscribeURLNotFound: http.StatusInternalServerError,
	KindInvalidHeaderValue:   http.StatusInternalServerError,
	KindMalformedResponse:    http.StatusInternalServerError,
	KindRelayFailed:          http.StatusInternalServerError,
}

// String returns the snake_case name used in logs.
// String 는 로그에 사용되는 snake_case 이름을 반환합니다.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure of one orchestration hop.
// Status and Body hold the upstream response for the auth-failure kinds;
// RelayFailed carries Status only.
// Error 는 오케스트레이션 단계 하나의 분류된 실패입니다.
type Error struct {
	Kind   Kind
	Status int
	Body   string
	Err    error
}

// Error renders a human-readable message for the failure.
// Error 는 실패에 대한 사람이 읽을 수 있는 메시지를 만듭니다.
func (e *Error) Error() string {
	switch e.Kind {
	case KindConfigMissing:
		return "configuration error: " + e.cause()
	case KindNetwork:
		return "HTTP request error: " + e.cause()
	case KindLoginFailed:
		return fmt.Sprintf("login failed. status: %d. body: %s", e.Status, strings.TrimSpace(e.Body))
	case KindSubscribeFailed:
		return fmt.Sprintf("subscribe failed. status: %d. body: %s", e.Status, strings.TrimSpace(e.Body))
	case KindAuthDataNotFound:
		return "'auth_data' not found in the login response"
	case KindSubscribeURLNotFound:
		return "'subscribe_url' not found in the response"
	case KindInvalidHeaderValue:
		return "invalid header value: " + e.cause()
	case KindMalformedResponse:
		return "malformed upstream response: " + e.cause()
	case KindRelayFailed:
		return fmt.Sprintf("failed to fetch subscription content. status: %d", e.Status)
	}
	return e.cause()
}

func (e *Error) cause() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

// Unwrap exposes the underlying cause.
// Unwrap 는 내부 원인 오류를 노출합니다.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code the caller should see for this failure.
// HTTPStatus 는 이 실패에 대해 호출자에게 보여줄 상태 코드를 반환합니다.
func (e *Error) HTTPStatus() int {
	if status, ok := kindStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// New returns an Error of the given kind wrapping err.
// New 는 err 을 감싼 지정 유형의 Error 를 반환합니다.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Upstream returns an Error carrying a raw upstream status and body.
// Upstream 는 업스트림 상태 코드와 본문을 그대로 담은 Error 를 반환합니다.
func Upstream(kind Kind, status int, body string) *Error {
	return &Error{Kind: kind, Status: status, Body: body}
}

// KindOf reports the kind of the first *Error in err's chain.
// KindOf 는 err 체인에서 첫 번째 *Error 의 유형을 알려줍니다.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// HTTPStatus maps any error to a response status; unclassified errors become 500.
// HTTPStatus 는 임의의 오류를 응답 상태 코드로 매핑하며, 분류되지 않은 오류는 500 이 됩니다.
func HTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
