package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/dtroode/chatstation-server/database"
	httpctx "github.com/dtroode/chatstation-server/internal/api/http/context"
	"github.com/dtroode/chatstation-server/internal/api/http/handler"
	"github.com/dtroode/chatstation-server/internal/api/http/router"
	httpServer "github.com/dtroode/chatstation-server/internal/api/http/server"
	"github.com/dtroode/chatstation-server/internal/cipher"
	"github.com/dtroode/chatstation-server/internal/config"
	"github.com/dtroode/chatstation-server/internal/logger"
	"github.com/dtroode/chatstation-server/internal/model"
	"github.com/dtroode/chatstation-server/internal/notifier"
	"github.com/dtroode/chatstation-server/internal/presence"
	"github.com/dtroode/chatstation-server/internal/repository/badger"
	"github.com/dtroode/chatstation-server/internal/repository/postgres"
	"github.com/dtroode/chatstation-server/internal/server"
	"github.com/dtroode/chatstation-server/internal/service"
	"github.com/dtroode/chatstation-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const (
	shutdownTimeout = 10 * time.Second
	healthTimeout   = 2 * time.Second
)

// stores bundles the persistence contracts served by one backend.
type stores struct {
	users         model.UserStore
	conversations model.ConversationStore
	pinger        handler.Pinger
	close         func() error
}

func main() {
	envFile := pflag.String("env-file", ".env", "path to an optional dotenv file")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load env file %s: %v", *envFile, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", "driver", cfg.StoreDriver, "error", err)
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	codec, err := cipher.NewCodec([]byte(cfg.Cipher.Key))
	if err != nil {
		logger.Fatal("failed to initialize message cipher", "error", err)
	}

	registry := presence.NewRegistry()
	chatService := service.NewChat(st.conversations, codec, notifier.NewLive(registry, logger), logger, cfg.Chat.PageSize)
	identityService := service.NewIdentity(token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL), st.users, logger)

	ctxMgr := httpctx.NewManager()
	live := handler.NewLive(registry, ctxMgr, handler.LiveConfig{
		QueueSize:     cfg.Chat.PushQueueSize,
		PingInterval:  cfg.WebSocket.PingInterval,
		PongWait:      cfg.WebSocket.PongWait,
		WriteWait:     cfg.WebSocket.WriteWait,
		AllowedOrigin: cfg.HTTP.AllowedOrigin,
	}, logger)
	health := handler.NewHealth(st.pinger, healthTimeout, logger)

	r := router.New(chatService, identityService, live, health, ctxMgr, cfg.HTTP.AllowedOrigin, logger)
	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port), live.CloseAll)
	sl := server.NewSecurityLayer(cfg.HTTP)

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS, "store", cfg.StoreDriver)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverBadger:
		store, err := badger.Open(badger.Options{Dir: cfg.Badger.Dir, InMemory: cfg.Badger.InMemory})
		if err != nil {
			return nil, err
		}
		return &stores{users: store, conversations: store, pinger: store, close: store.Close}, nil
	default:
		conn, err := postgres.NewConection(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:         postgres.NewUserRepository(conn),
			conversations: postgres.NewConversationRepository(conn),
			pinger:        database.NewChecker(conn.SQL(), healthTimeout),
			close:         conn.Close,
		}, nil
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
