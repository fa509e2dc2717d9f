package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilcm96/sub-relay/internal/apperr"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 3000
	defaultLoginURL        = "https://xcvpn.us/api/v1/passport/auth/login"
	defaultSubscribeURL    = "https://xcvpn.us/api/v1/user/getSubscribe"
	defaultUpstreamTimeout = 30 * time.Second
	defaultLogLevel        = "debug"
)

// Credentials is the upstream account used for every login.
// Credentials 는 매 로그인에 사용되는 업스트림 계정입니다.
type Credentials struct {
	Email    string
	Password string
}

// String hides the password so credentials can't leak through formatting.
// String 는 포맷 출력으로 자격 증명이 새지 않도록 비밀번호를 숨깁니다.
func (c Credentials) String() string {
	return c.Email + ":****"
}

// Config holds process settings read from the environment.
// Config 는 환경 변수에서 읽은 프로세스 설정을 보관합니다.
type Config struct {
	Credentials Credentials

	Host string
	Port uint16

	LoginURL     string
	SubscribeURL string

	UpstreamTimeout time.Duration
	LogLevel        string
	AccessKey       string
}

// Load reads the configuration from environment variables, applying defaults.
// Load 는 환경 변수에서 설정을 읽고 기본값을 적용합니다.
func Load() (*Config, error) {
	email, err := required("XCVPN_EMAIL")
	if err != nil {
		return nil, err
	}
	password, err := required("XCVPN_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Credentials:     Credentials{Email: email, Password: password},
		Host:            lookup("SERVER_HOST", defaultHost),
		Port:            defaultPort,
		LoginURL:        lookup("LOGIN_URL", defaultLoginURL),
		SubscribeURL:    lookup("SUBSCRIBE_URL", defaultSubscribeURL),
		UpstreamTimeout: defaultUpstreamTimeout,
		LogLevel:        lookup("LOG_LEVEL", defaultLogLevel),
		AccessKey:       strings.TrimSpace(os.Getenv("ACCESS_KEY")),
	}

	portName := "SERVER_PORT"
	rawPort := strings.TrimSpace(os.Getenv(portName))
	if rawPort == "" {
		portName = "PORT"
		rawPort = strings.TrimSpace(os.Getenv(portName))
	}
	if rawPort != "" {
		port, err := strconv.ParseUint(rawPort, 10, 16)
		if err != nil || port == 0 {
			return nil, apperr.New(apperr.KindConfigMissing, fmt.Errorf("invalid %s %q", portName, rawPort))
		}
		cfg.Port = uint16(port)
	}

	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return nil, apperr.New(apperr.KindConfigMissing, fmt.Errorf("invalid UPSTREAM_TIMEOUT %q", raw))
		}
		cfg.UpstreamTimeout = timeout
	}

	return cfg, nil
}

// Addr returns the host:port the server binds to.
// Addr 는 서버가 바인딩할 host:port 를 반환합니다.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

func required(name string) (string, error) {
	value, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", apperr.New(apperr.KindConfigMissing, fmt.Errorf("environment variable %s is not set", name))
	}
	return value, nil
}

func lookup(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}
