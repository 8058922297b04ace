package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"wallet/internal/amqp"
	"wallet/internal/cache"
	"wallet/internal/cli"
	apphttp "wallet/internal/http"
	"wallet/internal/log"
	"wallet/internal/rates"
	"wallet/internal/services"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(nil))
	logger := cli.SetupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg)

	caches := cache.NewManager(logger)
	provider := rates.NewProvider(cfg.RateURL, cfg.Rate(), cfg.RateCacheTTL, rates.WithLogger(logger))
	caches.Register(provider.Cache())
	caches.StartCleanup(10 * time.Minute)

	// Warm the rate cache.
	if err := provider.Refresh(ctx); err != nil {
		logger.Warn("Initial rate fetch failed, using fallback",
			log.FieldError, err, "fallback", cfg.Rate().String())
	}

	sched := cron.New()
	if cfg.RateRefreshSchedule != "" {
		if _, err := sched.AddFunc(cfg.RateRefreshSchedule, func() {
			if err := provider.Refresh(ctx); err != nil {
				logger.Warn("Scheduled rate refresh failed", log.FieldError, err)
			}
		}); err != nil {
			logger.Error("Invalid rate refresh schedule", log.FieldError, err)
			os.Exit(1)
		}
	}
	sched.Start()

	opts := []services.WalletOption{
		services.WithRates(provider),
		services.WithClosePolicy(services.NewClosePolicy(cfg.BoundaryDay())),
		services.WithLogger(logger),
	}

	var (
		amqpClient *amqp.Client
		relay      *services.EventRelay
	)
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		relay = services.NewEventRelay(amqpClient, services.DefaultEventRelayConfig(), logger)
		if err := relay.Start(ctx); err != nil {
			logger.Error("Failed to start event relay", log.FieldError, err)
			os.Exit(1)
		}
		opts = append(opts, services.WithPublisher(relay))
	} else {
		logger.Info("Week closed events disabled - no AMQP_URL provided")
	}

	wallet, receipt := services.OpenWallet(ctx, be.Store, opts...)
	state := receipt.State
	logger.Info("Wallet opened",
		log.FieldWeekID, state.CurrentWeek.ID,
		"history", len(state.History),
		"notice", receipt.Notice)

	var ready []apphttp.ReadyCheck
	if p, ok := be.Store.(pinger); ok {
		ready = append(ready, apphttp.ReadyCheck{Name: "storage", Check: p.Ping})
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Wallet:             wallet,
		Rates:              provider,
		Caches:             caches,
		Ready:              ready,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		sdCtx, sdCancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer sdCancel()

		if err := srv.Shutdown(sdCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		<-sched.Stop().Done()
		if relay != nil {
			if err := relay.Stop(sdCtx); err != nil {
				logger.Error("Event relay shutdown error", log.FieldError, err)
			}
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err)
			}
		}
		caches.Stop()
		if err := wallet.Close(); err != nil {
			logger.Error("Wallet close error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error {
		logger.Info("Starting wallet server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
