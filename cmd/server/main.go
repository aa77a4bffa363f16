package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/news-api/internal/auth"
	"github.com/iliyamo/news-api/internal/config"
	"github.com/iliyamo/news-api/internal/database"
	"github.com/iliyamo/news-api/internal/handler"
	"github.com/iliyamo/news-api/internal/middleware"
	"github.com/iliyamo/news-api/internal/queue"
	"github.com/iliyamo/news-api/internal/repository"
	"github.com/iliyamo/news-api/internal/router"
	"github.com/iliyamo/news-api/internal/service"
	"github.com/iliyamo/news-api/internal/storage"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		log.WithError(err).Fatal("mysql: open failed")
	}
	defer db.Close()

	// The revocation ledger lives in redis; without it no token can be
	// admitted, so startup stops here.
	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.WithError(err).Fatal("redis: connect failed")
	}
	defer rdb.Close()

	users := repository.NewUserRepo(db)
	topics := repository.NewTopicRepo(db)
	articles := repository.NewArticleRepo(db)
	comments := repository.NewCommentRepo(db)
	owners := repository.NewOwnerRepo(db)
	ledger := repository.NewRevocationRepo(rdb, cfg.RevocationPrefix)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	hasher := auth.NewPasswordHasher(cfg.PBKDF2Iterations)
	authn := auth.NewAuthenticator(issuer, ledger, cfg.LedgerTimeout, auth.BootstrapRoutes...)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.AMQPURL != "" {
		events = service.NewAMQPPublisher(cfg.AMQPURL)
	}
	accounts := service.NewAccountService(users, ledger, hasher, issuer, events, log, cfg.CredentialRevokeTTL)

	var avatars storage.AvatarStore
	if sc := config.LoadStorageConfig(); sc.Enabled() {
		store, err := storage.NewS3AvatarStore(context.Background(), sc)
		if err != nil {
			log.WithError(err).Fatal("s3: avatar store init failed")
		}
		avatars = store
	} else {
		log.Info("S3_BUCKET not set, avatar uploads disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))
	e.Use(metrics.Middleware())
	e.Use(echomw.BodyLimit("4M"))

	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb), metrics)
	router.RegisterAPI(e, router.API{
		Authenticator: authn,
		Log:           log,
		Metrics:       metrics,
		RateLimit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:         cache,
		Auth:          handler.NewAuthHandler(accounts),
		Users:         handler.NewUserHandler(users, accounts, avatars),
		Topics:        handler.NewTopicHandler(topics, cache),
		Articles:      handler.NewArticleHandler(articles, comments, topics, users, owners),
		Comments:      handler.NewCommentHandler(comments, owners),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AuditConsumer {
		consumer := &queue.AuditConsumer{URL: cfg.AMQPURL, Dir: cfg.AuditLogDir, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("audit consumer stopped")
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}
