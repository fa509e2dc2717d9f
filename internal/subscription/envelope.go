package subscription

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/ilcm96/sub-relay/internal/apperr"
)

// envelope is an upstream reply shaped {"data": {...}}.
// envelope 는 {"data": {...}} 형태의 업스트림 응답입니다.
type envelope struct {
	data gjson.Result
}

// parseEnvelope only rejects syntactically invalid JSON. A valid document that lacks
// the data object still parses; missing fields are reported by stringField.
// parseEnvelope 는 문법적으로 잘못된 JSON 만 거부합니다. data 객체가 없는 유효한 문서도
// 파싱되며, 누락된 필드는 stringField 가 알려줍니다.
func parseEnvelope(body []byte) (envelope, error) {
	if !gjson.ValidBytes(body) {
		return envelope{}, apperr.New(apperr.KindMalformedResponse, errors.New("body is not valid JSON"))
	}
	return envelope{data: gjson.GetBytes(body, "data")}, nil
}

// stringField returns data.<name> when it is a JSON string, including "".
// stringField 는 data.<name> 이 JSON 문자열이면 ("" 포함) 그 값을 반환합니다.
func (e envelope) stringField(name string) (string, bool) {
	if !e.data.IsObject() {
		return "", false
	}
	field := e.data.Get(gjson.Escape(name))
	if field.Type != gjson.String {
		return "", false
	}
	return field.Str, true
}
