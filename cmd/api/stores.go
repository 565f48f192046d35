package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"google.golang.org/api/iterator"

	"tourhub/internal/adapter/api/handler"
	"tourhub/internal/adapter/repository"
	"tourhub/internal/domain/entity"
	domainrepo "tourhub/internal/domain/repository"
	"tourhub/internal/infrastructure/database"
	"tourhub/internal/infrastructure/firebase"
	"tourhub/internal/infrastructure/ratelimit"
	"tourhub/internal/infrastructure/token"
	"tourhub/internal/usecase"
	"tourhub/pkg/config"
	"tourhub/pkg/errors"
	"tourhub/pkg/logger"
)

// stores holds the repositories for the configured driver and the
// process-wide clients behind them.
type stores struct {
	conversations domainrepo.ConversationRepository
	messages      domainrepo.MessageRepository
	users         domainrepo.UserRepository

	redis     *redis.Client
	readiness map[string]handler.ReadinessCheck
	closers   []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{readiness: make(map[string]handler.ReadinessCheck)}

	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("Using the in-memory store: data is lost on restart")
		st.conversations = repository.NewMemoryConversationRepository()
		st.messages = repository.NewMemoryMessageRepository()
		st.users = repository.NewMemoryUserRepository()

	case config.StoreFirestore:
		opts, err := database.FirebaseCredentials(cfg)
		if err != nil {
			return nil, err
		}
		client, err := database.NewFirestoreClient(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		st.conversations = repository.NewFirestoreConversationRepository(client)
		st.messages = repository.NewFirestoreMessageRepository(client)
		st.users = repository.NewFirestoreUserRepository(client)
		st.readiness["firestore"] = func(ctx context.Context) error {
			iter := client.Collection("users").Limit(1).Documents(ctx)
			defer iter.Stop()
			_, err := iter.Next()
			if err == iterator.Done {
				return nil
			}
			return err
		}

	case config.StoreMongo:
		client, db, err := database.NewMongoDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		})
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			st.close()
			return nil, err
		}
		st.conversations = repository.NewMongoConversationRepository(db)
		st.messages = repository.NewMongoMessageRepository(db)
		st.users = repository.NewMongoUserRepository(db)
		st.readiness["mongo"] = func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}

	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)
		if err := repository.MigratePostgres(ctx, pool); err != nil {
			st.close()
			return nil, err
		}
		st.conversations = repository.NewPostgresConversationRepository(pool)
		st.messages = repository.NewPostgresMessageRepository(pool)
		st.users = repository.NewPostgresUserRepository(pool)
		st.readiness["postgres"] = pool.Ping
	}

	redisClient, err := database.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-process rate limiting: %v", err)
	} else if redisClient != nil {
		st.redis = redisClient
		st.closers = append(st.closers, func() { _ = redisClient.Close() })
		st.readiness["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	return st, nil
}

// seedAdmin provisions the admin user named by SEED_ADMIN_ID when it does not
// exist yet. Without it the support conversation cannot be created on a
// fresh store.
func seedAdmin(ctx context.Context, cfg *config.Config, st *stores) error {
	if cfg.SeedAdminID == "" {
		if cfg.StoreDriver == config.StoreMemory {
			logger.Warn("SEED_ADMIN_ID is not set: conversation listing will fail until an admin exists")
		}
		return nil
	}

	_, err := st.users.GetByID(ctx, cfg.SeedAdminID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return err
	}

	logger.Info("Seeding admin user %s", cfg.SeedAdminID)
	return st.users.Create(ctx, &entity.User{
		ID:    cfg.SeedAdminID,
		Role:  entity.RoleAdmin,
		Name:  cfg.SeedAdminName,
		Email: cfg.SeedAdminEmail,
	})
}

func newTokenVerifier(ctx context.Context, cfg *config.Config) (usecase.TokenVerifier, error) {
	if cfg.AuthProvider == config.AuthJWT {
		return token.NewJWTVerifier(cfg.JWTSecret, "tourhub"), nil
	}

	opts, err := database.FirebaseCredentials(cfg)
	if err != nil {
		return nil, err
	}
	app, err := database.NewFirebaseApp(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return firebase.NewFirebaseAuthClient(authClient), nil
}

// newSendLimiter returns nil when sending is unlimited.
func newSendLimiter(ctx context.Context, cfg *config.Config, st *stores) usecase.RateLimiter {
	if cfg.MessagesPerMinute == 0 {
		return nil
	}
	if st.redis != nil {
		return ratelimit.NewRedisRateLimiter(st.redis, time.Minute, cfg.MessagesPerMinute)
	}
	limiter := ratelimit.NewRateLimiter(cfg.MessagesPerMinute)
	limiter.StartCleanupRoutine(ctx)
	return limiter
}
