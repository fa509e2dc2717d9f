package server

import (
	"context"
	"net/http"

	"github.com/ilcm96/sub-relay/internal/subscription"
)

// Subscriber resolves and relays subscriptions.
// Subscriber 는 구독 링크를 조회하고 내용을 중계합니다.
type Subscriber interface {
	GetSubscriptionLink(ctx context.Context) (string, error)
	GetSubscriptionMessage(ctx context.Context, callerHeaders http.Header) (*subscription.Content, error)
}

// Server exposes the subscription endpoints over HTTP.
// Server 는 구독 엔드포인트를 HTTP 로 노출합니다.
type Server struct {
	subscriber Subscriber
	accessKey  string
}

// New creates a Server. An empty accessKey disables the access gate.
// New 는 Server 를 생성합니다. accessKey 가 비어 있으면 접근 검사를 하지 않습니다.
func New(subscriber Subscriber, accessKey string) *Server {
	return &Server{
		subscriber: subscriber,
		accessKey:  accessKey,
	}
}
