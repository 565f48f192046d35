package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"tourhub/internal/adapter/api/handler"
	apimiddleware "tourhub/internal/adapter/api/middleware"
	"tourhub/internal/adapter/api/router"
	"tourhub/internal/infrastructure/ratelimit"
	"tourhub/internal/infrastructure/token"
	"tourhub/internal/infrastructure/websocket"
	"tourhub/internal/usecase"
	"tourhub/pkg/config"
	"tourhub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l, _ := zap.NewProduction()
		l.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := logger.Init(cfg.Environment); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.L().Fatal("Failed to initialize store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.close()

	if err := seedAdmin(ctx, cfg, st); err != nil {
		logger.L().Fatal("Failed to seed admin user", zap.Error(err))
	}

	verifier, err := newTokenVerifier(ctx, cfg)
	if err != nil {
		logger.L().Fatal("Failed to initialize authentication", zap.String("provider", cfg.AuthProvider), zap.Error(err))
	}

	sendLimiter := newSendLimiter(ctx, cfg, st)

	conversationUseCase := usecase.NewConversationUseCase(st.conversations, st.messages, st.users)
	messageUseCase := usecase.NewMessageUseCase(st.conversations, st.messages, st.users, sendLimiter)
	authUseCase := usecase.NewAuthUseCase(st.users, verifier)

	wsManager := websocket.NewManager(messageUseCase, websocket.Options{AuthorizeJoins: cfg.AuthorizeJoins})
	wsManager.Start(ctx)
	if !cfg.AuthorizeJoins {
		logger.Warn("WS_AUTHORIZE_JOINS is disabled: any authenticated connection may join any conversation room")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.L().Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	authMiddleware := apimiddleware.NewAuthMiddleware(authUseCase)

	handlers := router.Handlers{
		Chat:      handler.NewChatHandler(conversationUseCase, messageUseCase, wsManager),
		WebSocket: handler.NewWebSocketHandler(wsManager, authMiddleware, cfg.AllowedOrigins),
		Health:    handler.NewHealthHandler(st.readiness),
		Admin:     handler.NewAdminHandler(wsManager),
	}
	if jwtVerifier, ok := verifier.(*token.JWTVerifier); ok && cfg.Environment == "development" {
		logger.Warn("Development token routes are enabled under /_dev")
		handlers.DevToken = handler.NewDevTokenHandler(jwtVerifier, st.users)
	}

	var wsMiddleware []echo.MiddlewareFunc
	if cfg.WSConnectsPerMinute > 0 {
		connectLimiter := ratelimit.NewRateLimiter(cfg.WSConnectsPerMinute)
		connectLimiter.StartCleanupRoutine(ctx)
		wsMiddleware = append(wsMiddleware, apimiddleware.RateLimitByIP(connectLimiter))
	}

	router.Setup(e, handlers, authMiddleware, wsMiddleware...)

	go func() {
		logger.Info("Server starting on port %s (store=%s, auth=%s)", cfg.ServerPort, cfg.StoreDriver, cfg.AuthProvider)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.L().Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsManager.Shutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown: %v", err)
	}
}
