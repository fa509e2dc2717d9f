package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/ilcm96/sub-relay/internal/apperr"
)

const defaultTimeout = 30 * time.Second

// Response is a fully read upstream response.
// Response 는 본문까지 모두 읽은 업스트림 응답입니다.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
// OK 는 상태 코드가 2xx 인지 알려줍니다.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client performs raw calls to the upstream API with a shared cookie jar.
// Client 는 공유 쿠키 저장소를 사용해 업스트림 API 를 호출합니다.
type Client struct {
	http *http.Client
}

// New creates a Client whose cookies persist across calls.
// New 는 호출 간 쿠키가 유지되는 Client 를 생성합니다.
func New(timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewWithHTTPClient(&http.Client{
		Jar:     jar,
		Timeout: timeout,
	}), nil
}

// NewWithHTTPClient wraps a prepared *http.Client.
// NewWithHTTPClient 는 미리 구성된 *http.Client 를 감쌉니다.
func NewWithHTTPClient(hc *http.Client) *Client {
	return &Client{http: hc}
}

// Post sends body to url. Non-2xx statuses are returned, not treated as errors.
// Post 는 url 로 body 를 전송합니다. 2xx 가 아닌 상태도 오류가 아닌 응답으로 반환합니다.
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, fmt.Errorf("build request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// Get fetches url with the given headers. Non-2xx statuses are returned, not treated as errors.
// Get 는 주어진 헤더로 url 을 가져옵니다. 2xx 가 아닌 상태도 오류가 아닌 응답으로 반환합니다.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, fmt.Errorf("build request: %w", err))
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, err)
	}
	defer resp.Body.Close()

	reader, decoded, err := decompressBody(resp)
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, fmt.Errorf("decode %s body: %w", resp.Header.Get("Content-Encoding"), err))
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, fmt.Errorf("read response body: %w", err))
	}

	header := resp.Header.Clone()
	if decoded {
		header.Del("Content-Encoding")
		header.Del("Content-Length")
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       body,
	}, nil
}
