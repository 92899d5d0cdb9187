package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"spacerental/internal/config"
	"spacerental/internal/database"
	"spacerental/internal/events"
	"spacerental/internal/middleware"
	"spacerental/internal/modules/booking"
	"spacerental/internal/modules/catalog"
	"spacerental/internal/modules/health"
	"spacerental/internal/modules/live"
	jwtsvc "spacerental/internal/pkg/jwt"
	"spacerental/internal/pkg/logger"
	"spacerental/internal/repository"
	"spacerental/internal/server"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()
	zap.ReplaceGlobals(logg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, logg)
	if err != nil {
		logg.Fatal("database connect failed", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		logg.Fatal("migration failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logg.Fatal("database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	var durable booking.DurableStore = repository.NewBookingRepository(db)
	if cfg.BookingsFile != "" {
		durable = repository.NewBookingFile(cfg.BookingsFile)
		logg.Info("bookings stored in file", zap.String("path", cfg.BookingsFile))
	}

	store, err := booking.OpenStore(ctx, durable)
	if err != nil {
		logg.Fatal("open booking store", zap.Error(err))
	}

	hub := live.NewHub(logg)
	defer hub.Close()
	publishers := events.Multi{hub}

	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.BookingEventsQueue, logg)
		if err != nil {
			logg.Warn("booking events broker unavailable, continuing without it", zap.Error(err))
		} else {
			defer amqpPub.Close()
			publishers = append(publishers, amqpPub)
		}
	}

	rdb := config.NewRedisClient(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	} else if cfg.RedisAddr != "" {
		logg.Warn("redis unavailable, rate limiting per process", zap.String("addr", cfg.RedisAddr))
	}

	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	rooms := repository.NewRoomRepository(db)

	bookingService := booking.NewService(store, rooms, publishers, logg)
	scheduler := booking.NewScheduler(store, publishers, logg, cfg.StatusTickInterval)

	r := server.NewRouter(server.Deps{
		Logger:         logg,
		Tokens:         tokens,
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimit, rdb, logg),
		AllowedOrigins: cfg.AllowedOrigins,
		Health:         health.NewHandler(sqlDB, version),
		Catalog:        catalog.NewHandler(catalog.NewService(rooms, store)),
		Booking:        booking.NewHandler(bookingService),
		Live:           live.NewHandler(hub, cfg.AllowedOrigins, logg),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	schedCtx, stopScheduler := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(schedCtx)
	}()

	go func() {
		logg.Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("http shutdown", zap.Error(err))
	}

	stopScheduler()
	wg.Wait()

	if err := store.Close(shutdownCtx); err != nil {
		logg.Error("booking store close", zap.Error(err))
	}
	logg.Info("shutdown complete")
}
