package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	pgrepo "github.com/playtube/user-service/internal/adapters/db/postgres"
	redisrepo "github.com/playtube/user-service/internal/adapters/db/redis"
	"github.com/playtube/user-service/internal/adapters/media"
	transport "github.com/playtube/user-service/internal/adapters/transport/http"
	"github.com/playtube/user-service/internal/app/user/password"
	appsvc "github.com/playtube/user-service/internal/app/user/service"
	apptoken "github.com/playtube/user-service/internal/app/user/token"
	"github.com/playtube/user-service/internal/infra/config"
	lg "github.com/playtube/user-service/internal/infra/log"
	"github.com/playtube/user-service/internal/infra/migrate"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()

	uploader, err := media.NewS3Uploader(context.Background(), cfg)
	if err != nil {
		zapLog.Fatal("failed to init media uploader", zap.Error(err))
	}

	issuer, err := apptoken.NewJWTIssuer(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token issuer", zap.Error(err))
	}

	userRepo := pgrepo.NewUserRepo(db, cfg.StoreTimeout)
	profileCache := redisrepo.NewProfileCache(redisCli, cfg.ProfileCacheTTL)
	hasher := password.NewArgon2(cfg.PasswordPepper)

	svc := appsvc.New(userRepo, profileCache, issuer, hasher, uploader, validator.New())
	router := transport.NewRouter(svc, issuer, cfg, zapLog)

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}

	rootCtx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			zapLog.Info("shutdown signal received")
		case <-ctx.Done():
		}
		cancel()

		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(ctxShutdown)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
