package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindConfigMissing, http.StatusInternalServerError},
		{KindNetwork, http.StatusServiceUnavailable},
		{KindLoginFailed, http.StatusUnauthorized},
		{KindAuthDataNotFound, http.StatusInternalServerError},
		{KindSubscribeFailed, http.StatusUnauthorized},
		{KindSubscribeURLNotFound, http.StatusInternalServerError},
		{KindInvalidHeaderValue, http.StatusInternalServerError},
		{KindMalformedResponse, http.StatusInternalServerError},
		{KindRelayFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			err := &Error{Kind: tc.kind}
			assert.Equal(t, tc.want, HTTPStatus(err))
		})
	}
}

func TestHTTPStatusSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("get link: %w", Upstream(KindLoginFailed, 401, "nope"))

	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(err))
	assert.Equal(t, KindLoginFailed, KindOf(err))
}

func TestForeignErrorsAreInternal(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestMessages(t *testing.T) {
	login := Upstream(KindLoginFailed, 401, `{"error":"bad creds"}`+"\n")
	assert.Equal(t, `login failed. status: 401. body: {"error":"bad creds"}`, login.Error())

	relay := &Error{Kind: KindRelayFailed, Status: 502, Body: "secret upstream page"}
	assert.Equal(t, "failed to fetch subscription content. status: 502", relay.Error())
	assert.NotContains(t, relay.Error(), "secret")

	cause := errors.New("dial tcp: refused")
	network := New(KindNetwork, cause)
	assert.Contains(t, network.Error(), "dial tcp: refused")
	assert.ErrorIs(t, network, cause)
}
