package subscription

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ilcm96/sub-relay/internal/apperr"
	"github.com/ilcm96/sub-relay/internal/config"
	"github.com/ilcm96/sub-relay/internal/upstream"
)

// mockUpstream serves /login, /sub and /content with swappable handlers.
type mockUpstream struct {
	srv *httptest.Server

	login   http.HandlerFunc
	lookup  http.HandlerFunc
	content http.HandlerFunc

	loginCalls   atomic.Int32
	lookupCalls  atomic.Int32
	contentCalls atomic.Int32

	loginBody     []byte
	lookupAuth    string
	contentHeader http.Header
	contentHost   string
}

func newMockUpstream(t *testing.T) *mockUpstream {
	t.Helper()
	m := &mockUpstream{}
	m.login = func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"auth_data":"tok123"}}`)
	}
	m.lookup = func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "tok123" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"subscribe_url":"`+m.srv.URL+`/content"}}`)
	}
	m.content = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "PROXY-CONTENT")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		m.loginCalls.Add(1)
		m.loginBody, _ = io.ReadAll(r.Body)
		m.login(w, r)
	})
	mux.HandleFunc("GET /sub", func(w http.ResponseWriter, r *http.Request) {
		m.lookupCalls.Add(1)
		m.lookupAuth = r.Header.Get("Authorization")
		m.lookup(w, r)
	})
	mux.HandleFunc("GET /content", func(w http.ResponseWriter, r *http.Request) {
		m.contentCalls.Add(1)
		m.contentHeader = r.Header.Clone()
		m.contentHost = r.Host
		m.content(w, r)
	})
	m.srv = httptest.NewServer(mux)
	t.Cleanup(m.srv.Close)
	return m
}

func (m *mockUpstream) service(t *testing.T) *Service {
	t.Helper()
	client, err := upstream.New(0)
	require.NoError(t, err)
	creds := config.Credentials{Email: "user@example.com", Password: "hunter2"}
	return New(client, creds, m.srv.URL+"/login", m.srv.URL+"/sub")
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestGetSubscriptionLink(t *testing.T) {
	m := newMockUpstream(t)

	link, err := m.service(t).GetSubscriptionLink(context.Background())
	require.NoError(t, err)

	assert.Equal(t, m.srv.URL+"/content", link)
	assert.Equal(t, "tok123", m.lookupAuth)
	assert.Equal(t, "user@example.com", gjson.GetBytes(m.loginBody, "email").String())
	assert.Equal(t, "hunter2", gjson.GetBytes(m.loginBody, "password").String())
}

func TestGetSubscriptionLinkLogsInEveryCall(t *testing.T) {
	m := newMockUpstream(t)
	svc := m.service(t)

	_, err := svc.GetSubscriptionLink(context.Background())
	require.NoError(t, err)
	_, err = svc.GetSubscriptionLink(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), m.loginCalls.Load())
	assert.Equal(t, int32(2), m.lookupCalls.Load())
}

func TestLoginFailedKeepsStatusAndBody(t *testing.T) {
	m := newMockUpstream(t)
	m.login = respond(http.StatusUnauthorized, `{"error":"bad creds"}`)

	_, err := m.service(t).GetSubscriptionLink(context.Background())
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindLoginFailed, appErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, `{"error":"bad creds"}`, appErr.Body)
	assert.Zero(t, m.lookupCalls.Load())
}

func TestLoginResponseClassification(t *testing.T) {
	cases := []struct {
		name string
		body string
		want apperr.Kind
	}{
		{"missing field", `{"data":{}}`, apperr.KindAuthDataNotFound},
		{"missing data", `{"message":"ok"}`, apperr.KindAuthDataNotFound},
		{"non-string field", `{"data":{"auth_data":42}}`, apperr.KindAuthDataNotFound},
		{"invalid json", `{"data":`, apperr.KindMalformedResponse},
		{"html", `<html>maintenance</html>`, apperr.KindMalformedResponse},
		{"empty body", ``, apperr.KindMalformedResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newMockUpstream(t)
			m.login = respond(http.StatusOK, tc.body)

			_, err := m.service(t).login(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.want, apperr.KindOf(err))
		})
	}
}

func TestInvalidTokenFailsBeforeLookup(t *testing.T) {
	m := newMockUpstream(t)
	m.login = respond(http.StatusOK, `{"data":{"auth_data":"tok\n123"}}`)

	_, err := m.service(t).GetSubscriptionLink(context.Background())
	require.Error(t, err)

	assert.Equal(t, apperr.KindInvalidHeaderValue, apperr.KindOf(err))
	assert.Zero(t, m.lookupCalls.Load())
}

func TestSubscribeFailedKeepsStatusAndBody(t *testing.T) {
	m := newMockUpstream(t)
	m.lookup = respond(http.StatusForbidden, `{"message":"expired"}`)

	_, err := m.service(t).GetSubscriptionLink(context.Background())
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindSubscribeFailed, appErr.Kind)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, `{"message":"expired"}`, appErr.Body)
	assert.Equal(t, http.StatusUnauthorized, apperr.HTTPStatus(err))
}

func TestSubscribeURLNotFound(t *testing.T) {
	m := newMockUpstream(t)
	m.lookup = respond(http.StatusOK, `{"data":{"token":"abc"}}`)

	_, err := m.service(t).GetSubscriptionLink(context.Background())
	assert.Equal(t, apperr.KindSubscribeURLNotFound, apperr.KindOf(err))
}

func TestEmptyAuthDataIsUsedAsToken(t *testing.T) {
	m := newMockUpstream(t)
	m.login = respond(http.StatusOK, `{"data":{"auth_data":""}}`)

	token, err := m.service(t).login(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)

	_, err = m.service(t).GetSubscriptionLink(context.Background())
	assert.Equal(t, apperr.KindSubscribeFailed, apperr.KindOf(err))
	assert.Equal(t, int32(1), m.lookupCalls.Load())
}

func TestEmptySubscribeURLIsNotFound(t *testing.T) {
	m := newMockUpstream(t)
	m.lookup = respond(http.StatusOK, `{"data":{"subscribe_url":""}}`)

	_, err := m.service(t).GetSubscriptionLink(context.Background())
	assert.Equal(t, apperr.KindSubscribeURLNotFound, apperr.KindOf(err))
}

func TestSubscribeResponseMalformed(t *testing.T) {
	m := newMockUpstream(t)
	m.lookup = respond(http.StatusOK, `not json`)

	_, err := m.service(t).GetSubscriptionLink(context.Background())
	assert.Equal(t, apperr.KindMalformedResponse, apperr.KindOf(err))
}

func TestUnreachableUpstreamIsNetworkError(t *testing.T) {
	m := newMockUpstream(t)
	svc := m.service(t)
	m.srv.Close()

	_, err := svc.GetSubscriptionLink(context.Background())
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
	assert.Equal(t, http.StatusServiceUnavailable, apperr.HTTPStatus(err))
}

func TestGetSubscriptionMessageForwardsFilteredHeaders(t *testing.T) {
	m := newMockUpstream(t)

	caller := http.Header{
		"Host":       {"x"},
		"Cookie":     {"sid=1"},
		"User-Agent": {"z"},
		"Connection": {"keep-alive"},
	}
	content, err := m.service(t).GetSubscriptionMessage(context.Background(), caller)
	require.NoError(t, err)

	assert.Equal(t, "PROXY-CONTENT", string(content.Body))
	assert.Equal(t, "text/plain; charset=utf-8", content.ContentType)
	assert.Equal(t, "sid=1", m.contentHeader.Get("Cookie"))
	assert.Equal(t, "z", m.contentHeader.Get("User-Agent"))
	assert.Empty(t, m.contentHeader.Get("Connection"))
	assert.NotEqual(t, "x", m.contentHost)
}

func TestGetSubscriptionMessageWithoutCallerHeaders(t *testing.T) {
	m := newMockUpstream(t)

	content, err := m.service(t).GetSubscriptionMessage(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "PROXY-CONTENT", string(content.Body))
	assert.Empty(t, m.contentHeader.Get("Cookie"))
}

func TestGetSubscriptionMessageAlwaysResolvesLink(t *testing.T) {
	m := newMockUpstream(t)
	svc := m.service(t)

	for i := 0; i < 3; i++ {
		_, err := svc.GetSubscriptionMessage(context.Background(), nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), m.loginCalls.Load())
	assert.Equal(t, int32(3), m.lookupCalls.Load())
	assert.Equal(t, int32(3), m.contentCalls.Load())
}

func TestRelayFailedCarriesStatusOnly(t *testing.T) {
	m := newMockUpstream(t)
	m.content = respond(http.StatusBadGateway, "upstream internals")

	_, err := m.service(t).GetSubscriptionMessage(context.Background(), nil)
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindRelayFailed, appErr.Kind)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.NotContains(t, err.Error(), "upstream internals")
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
}

func TestRelayStopsAfterLoginFailure(t *testing.T) {
	m := newMockUpstream(t)
	m.login = respond(http.StatusInternalServerError, "down")

	_, err := m.service(t).GetSubscriptionMessage(context.Background(), nil)

	assert.Equal(t, apperr.KindLoginFailed, apperr.KindOf(err))
	assert.Zero(t, m.lookupCalls.Load())
	assert.Zero(t, m.contentCalls.Load())
}
