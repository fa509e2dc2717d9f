package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/ilcm96/sub-relay/internal/config"
	"github.com/ilcm96/sub-relay/internal/server"
	"github.com/ilcm96/sub-relay/internal/subscription"
	"github.com/ilcm96/sub-relay/internal/upstream"
)

// setupLogger configures the global zerolog logger.
// setupLogger 는 전역 zerolog 로거를 구성합니다.
func setupLogger(level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		log.Warn().Str("level", level).Msg("unknown LOG_LEVEL, using debug")
		parsed = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(parsed)
	zerolog.DefaultContextLogger = &log.Logger
}

// logStartup records where the server listens and which upstream it talks to.
// Account credentials are left out.
// logStartup 는 서버 주소와 업스트림 정보를 기록합니다. 계정 자격 증명은 기록하지 않습니다.
func logStartup(logger zerolog.Logger, cfg *config.Config) {
	logger.Info().
		Str("addr", cfg.Addr()).
		Str("login_url", cfg.LoginURL).
		Str("subscribe_url", cfg.SubscribeURL).
		Bool("access_key", cfg.AccessKey != "").
		Msg("listening")
}

// main initializes and runs the subscription relay server.
// main 는 구독 중계 서버를 초기화하고 실행합니다.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := upstream.New(cfg.UpstreamTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("init upstream client")
	}
	svc := subscription.New(client, cfg.Credentials, cfg.LoginURL, cfg.SubscribeURL)
	srv := server.New(svc, cfg.AccessKey)
	if cfg.AccessKey == "" {
		log.Warn().Msg("ACCESS_KEY is empty, endpoints are unauthenticated")
	}

	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(srv.Routes(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	logStartup(log.Logger, cfg)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
}
