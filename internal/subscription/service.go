package subscription

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/tidwall/sjson"
	"golang.org/x/net/http/httpguts"

	"github.com/ilcm96/sub-relay/internal/apperr"
	"github.com/ilcm96/sub-relay/internal/config"
	"github.com/ilcm96/sub-relay/internal/httpx"
	"github.com/ilcm96/sub-relay/internal/upstream"
)

// Upstream performs the raw calls the orchestrator sequences.
// Upstream 는 오케스트레이터가 순서대로 수행하는 원시 호출을 담당합니다.
type Upstream interface {
	Post(ctx context.Context, url, contentType string, body []byte) (*upstream.Response, error)
	Get(ctx context.Context, url string, header http.Header) (*upstream.Response, error)
}

// Content is the relayed body of the subscribe URL.
// Content 는 구독 URL 에서 중계한 본문입니다.
type Content struct {
	Body        []byte
	ContentType string
}

// Service runs login, subscribe-URL lookup and optional content relay against the
// upstream API. It keeps no per-request state; every call logs in again.
// Service 는 업스트림 API 에 대해 로그인, 구독 URL 조회, 선택적 내용 중계를 수행합니다.
// 요청 간 상태를 보관하지 않으며 매 호출마다 다시 로그인합니다.
type Service struct {
	client       Upstream
	creds        config.Credentials
	loginURL     string
	subscribeURL string
}

// New returns a Service bound to one account and the two upstream endpoints.
// New 는 하나의 계정과 두 업스트림 엔드포인트에 묶인 Service 를 반환합니다.
func New(client Upstream, creds config.Credentials, loginURL, subscribeURL string) *Service {
	return &Service{
		client:       client,
		creds:        creds,
		loginURL:     loginURL,
		subscribeURL: subscribeURL,
	}
}

// GetSubscriptionLink logs in and resolves the account's subscribe URL.
// GetSubscriptionLink 는 로그인한 뒤 계정의 구독 URL 을 조회합니다.
func (s *Service) GetSubscriptionLink(ctx context.Context) (string, error) {
	token, err := s.login(ctx)
	if err != nil {
		return "", err
	}
	return s.fetchSubscribeURL(ctx, token)
}

// GetSubscriptionMessage resolves the subscribe URL and fetches it, forwarding
// callerHeaders minus httpx.RelayExcludedHeaders. A nil callerHeaders forwards nothing.
// GetSubscriptionMessage 는 구독 URL 을 조회해 가져오며, httpx.RelayExcludedHeaders 를 제외한
// callerHeaders 를 전달합니다. callerHeaders 가 nil 이면 아무 헤더도 전달하지 않습니다.
func (s *Service) GetSubscriptionMessage(ctx context.Context, callerHeaders http.Header) (*Content, error) {
	link, err := s.GetSubscriptionLink(ctx)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx)

	var header http.Header
	if callerHeaders != nil {
		header = httpx.FilterHeaders(callerHeaders, httpx.RelayExcludedHeaders)
		logger.Debug().Int("headers", len(header)).Msg("forwarding caller headers")
	}

	logger.Debug().Msg("fetching subscription content")
	resp, err := s.client.Get(ctx, link, header)
	if err != nil {
		return nil, fmt.Errorf("fetch subscription content: %w", err)
	}
	if !resp.OK() {
		return nil, &apperr.Error{Kind: apperr.KindRelayFailed, Status: resp.StatusCode}
	}

	return &Content{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// login exchanges the stored credentials for the auth_data token.
// login 은 저장된 자격 증명을 auth_data 토큰으로 교환합니다.
func (s *Service) login(ctx context.Context) (string, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("url", s.loginURL).Msg("logging in")

	body, err := sjson.SetBytes([]byte(`{}`), "email", s.creds.Email)
	if err == nil {
		body, err = sjson.SetBytes(body, "password", s.creds.Password)
	}
	if err != nil {
		return "", fmt.Errorf("build login body: %w", err)
	}

	resp, err := s.client.Post(ctx, s.loginURL, "application/json", body)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if !resp.OK() {
		return "", apperr.Upstream(apperr.KindLoginFailed, resp.StatusCode, string(resp.Body))
	}

	env, err := parseEnvelope(resp.Body)
	if err != nil {
		return "", fmt.Errorf("login response: %w", err)
	}
	token, ok := env.stringField("auth_data")
	if !ok {
		return "", apperr.New(apperr.KindAuthDataNotFound, nil)
	}

	logger.Info().Msg("login successful")
	return token, nil
}

// fetchSubscribeURL looks up subscribe_url using token as the Authorization value.
// fetchSubscribeURL 은 token 을 Authorization 값으로 사용해 subscribe_url 을 조회합니다.
func (s *Service) fetchSubscribeURL(ctx context.Context, token string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if !httpguts.ValidHeaderFieldValue(token) {
		return "", apperr.New(apperr.KindInvalidHeaderValue, errors.New("auth_data is not a valid Authorization value"))
	}

	logger.Info().Str("url", s.subscribeURL).Msg("fetching subscribe url")
	header := http.Header{}
	header.Set("Authorization", token)

	resp, err := s.client.Get(ctx, s.subscribeURL, header)
	if err != nil {
		return "", fmt.Errorf("subscribe lookup: %w", err)
	}
	if !resp.OK() {
		return "", apperr.Upstream(apperr.KindSubscribeFailed, resp.StatusCode, string(resp.Body))
	}

	env, err := parseEnvelope(resp.Body)
	if err != nil {
		return "", fmt.Errorf("subscribe response: %w", err)
	}
	link, ok := env.stringField("subscribe_url")
	if !ok || link == "" {
		return "", apperr.New(apperr.KindSubscribeURLNotFound, nil)
	}

	logger.Info().Msg("subscribe url fetched")
	return link, nil
}
