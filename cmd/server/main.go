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

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/spa-booking-deposits/internal/config"
	"github.com/iliyamo/spa-booking-deposits/internal/database"
	"github.com/iliyamo/spa-booking-deposits/internal/handler"
	"github.com/iliyamo/spa-booking-deposits/internal/middleware"
	"github.com/iliyamo/spa-booking-deposits/internal/payment"
	"github.com/iliyamo/spa-booking-deposits/internal/queue"
	"github.com/iliyamo/spa-booking-deposits/internal/realtime"
	"github.com/iliyamo/spa-booking-deposits/internal/reminder"
	"github.com/iliyamo/spa-booking-deposits/internal/repository"
	"github.com/iliyamo/spa-booking-deposits/internal/router"
	"github.com/iliyamo/spa-booking-deposits/internal/service"
	"github.com/iliyamo/spa-booking-deposits/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()
	depCfg, err := config.LoadDepositConfig()
	if err != nil {
		log.Fatalf("deposit config: %v", err)
	}
	storeCfg, err := config.LoadStorageConfig()
	if err != nil {
		log.Fatalf("storage config: %v", err)
	}
	checkoutCfg, err := config.LoadCheckoutConfig()
	if err != nil {
		log.Fatalf("checkout config: %v", err)
	}
	loc, err := time.LoadLocation(depCfg.Location)
	if err != nil {
		log.Fatalf("invalid BOOKING_TIMEZONE %q: %v", depCfg.Location, err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.MigrationsPath != "" {
		mctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(mctx, db, cfg.MigrationsPath)
		cancel()
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: in-process rate limiting, response cache off")
	} else {
		defer rdb.Close()
	}

	proofs, err := storage.New(storeCfg, depCfg.MaxProofBytes)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	therapists := repository.NewTherapistRepo(db)
	bookings := repository.NewScheduledBookingRepo(db)
	payouts := repository.NewPayoutRepo(db)
	notes := repository.NewNotificationRepo(db)

	hub := realtime.NewHub()
	events := queue.NewPublisher(cfg.RabbitURL)
	defer events.Close()
	notifier := service.NewNotifier(notes, hub)

	deposits := service.NewDepositService(service.Deps{
		Bookings:   bookings,
		Therapists: therapists,
		Proofs:     proofs,
		Events:     events,
		Notifier:   notifier,
		Policy: service.Policy{
			Percent:       depCfg.Percent,
			MinPercent:    depCfg.MinPercent,
			MaxPercent:    depCfg.MaxPercent,
			MaxProofBytes: proofs.MaxBytes(),
			Location:      loc,
		},
	})
	scheduler := reminder.New(reminder.Config{
		Store:    bookings,
		Notifier: notifier,
		Events:   events,
		Lead:     depCfg.ReminderLead,
		Interval: depCfg.ReminderInterval,
		Location: loc,
	})
	audit := &queue.AuditConsumer{URL: cfg.RabbitURL, Dir: "logs"}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for name, run := range map[string]func(context.Context) error{
		"reminder scheduler": scheduler.Run,
		"audit consumer":     audit.Run,
	} {
		wg.Add(1)
		go func(name string, run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("%s exited: %v", name, err)
			}
		}(name, run)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.BodyLimit("8M"))
	e.Use(middleware.NewTokenBucket(ctx, config.LoadRateLimitConfig(), rdb, cfg.JWTSecret))

	router.RegisterRoutes(e, handler.DepositPolicy(deposits, depCfg.Currency),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, therapists), cfg.JWTSecret)
	router.RegisterAccount(e,
		handler.NewNotificationHandler(notes),
		handler.LiveUpdates(hub),
		handler.NewCheckoutHandler(payment.NewCheckout(checkoutCfg), users),
		cfg.JWTSecret)
	router.RegisterCustomer(e, handler.NewBookingHandler(deposits, users), cfg.JWTSecret)
	router.RegisterDashboard(e, handler.NewDashboardHandler(deposits, scheduler, payouts),
		handler.NewProfileHandler(therapists), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	wg.Wait()
}
