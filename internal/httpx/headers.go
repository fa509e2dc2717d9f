package httpx

import (
	"net/http"
	"strings"
)

// RelayExcludedHeaders lists caller headers that are never forwarded to the subscription URL.
// Keys are lower-case.
// RelayExcludedHeaders 는 구독 URL 로 전달하지 않는 호출자 헤더 목록입니다. 키는 소문자입니다.
var RelayExcludedHeaders = map[string]struct{}{
	"host":              {},
	"connection":        {},
	"content-length":    {},
	"transfer-encoding": {},
}

// FilterHeaders returns a copy of src without the keys in exclude.
// Matching is case-insensitive and repeated values are kept in order.
// FilterHeaders 는 exclude 에 포함된 키를 제외한 src 의 복사본을 반환합니다.
// 대소문자를 구분하지 않으며 중복 값은 순서대로 유지됩니다.
func FilterHeaders(src http.Header, exclude map[string]struct{}) http.Header {
	dst := make(http.Header, len(src))
	for key, values := range src {
		if _, skip := exclude[strings.ToLower(key)]; skip {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
	return dst
}
