package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chefbazar/auth"
	"chefbazar/checkout"
	"chefbazar/config"
	"chefbazar/db"
	"chefbazar/middleware"
	"chefbazar/mq"
	"chefbazar/ratelim"
	"chefbazar/rdx"
	"chefbazar/routes"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)

	startCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store, err := db.Connect(startCtx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("mongo connection failed")
	}
	if err := store.EnsureIndexes(startCtx); err != nil {
		logrus.WithError(err).Fatal("index creation failed")
	}

	account, err := auth.DecodeServiceAccount(cfg.FirebaseKey)
	if err != nil {
		logrus.WithError(err).Fatal("FB_SERVICE_KEY is not a usable service account")
	}

	deps := routes.Deps{
		Store:        store,
		Verifier:     auth.NewFirebaseVerifier(account.ProjectID),
		Payments:     checkout.NewStripeProvider(cfg.StripeKey),
		ClientDomain: cfg.ClientDomain,
	}

	// Redis adds a per-session lock on payment confirmation and order events
	var redisConn *redis.Client
	if cfg.RedisURL != "" {
		redisConn, err = rdx.Connect(startCtx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			logrus.WithError(err).Fatal("redis connection failed")
		}
		deps.Locker = rdx.NewLocker(redisConn)
		deps.Events = mq.NewRedisPublisher(redisConn)
		logrus.Info("redis payment lock and order events enabled")
	}

	rateLimiter := ratelim.NewRateLimiter(30, 10)
	stopSweep := make(chan struct{})
	go rateLimiter.Run(time.Minute, stopSweep)

	router := httprouter.New()
	routes.RoutesWrapper(router, deps, rateLimiter)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := middleware.Logging(middleware.SecurityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		close(stopSweep)
	})

	go func() {
		logrus.WithField("addr", cfg.Addr()).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logrus.Info("shutdown signal received; shutting down gracefully")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	if redisConn != nil {
		if err := redisConn.Close(); err != nil {
			logrus.WithError(err).Warn("closing redis")
		}
	}
	if err := store.Close(ctx); err != nil {
		logrus.WithError(err).Warn("closing mongo")
	}

	logrus.Info("server stopped cleanly")
}
