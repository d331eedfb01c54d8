package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meal-kart/internal/config"
	"meal-kart/internal/database"
	"meal-kart/internal/fulfillment"
	"meal-kart/internal/handler"
	"meal-kart/internal/notify"
	"meal-kart/internal/payment"
	"meal-kart/internal/repository"
	"meal-kart/internal/router"
	"meal-kart/internal/scheduler"
	"meal-kart/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting meal-kart API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	loc, err := cfg.Fulfillment.Location()
	if err != nil {
		return fmt.Errorf("failed to load fulfillment timezone: %w", err)
	}

	// Repositories
	mealRepo := repository.NewMealRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	planRepo := repository.NewPlanRepository(pool, logger)
	scheduleRepo := repository.NewScheduleRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	transactionRepo := repository.NewTransactionRepository(pool, logger)
	requestRepo := repository.NewPlanRequestRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)

	notifier := notify.NewNotifier(newMailer(cfg.Email, logger), cfg.Email.AdminAddress, logger)
	gateway, err := newGateway(cfg.Stripe, logger)
	if err != nil {
		return err
	}

	orchestrator := fulfillment.NewOrchestrator(planRepo, userRepo, mealRepo, scheduleRepo, orderRepo, loc, logger)
	statusManager := fulfillment.NewStatusManager(orderRepo, userRepo, notifier, loc, logger)

	// Services
	catalogService := service.NewCatalogService(mealRepo, productRepo, logger)
	userService := service.NewUserService(userRepo, logger)
	planService := service.NewPlanService(planRepo, userRepo, logger)
	scheduleService := service.NewScheduleService(scheduleRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, mealRepo, userRepo, orchestrator, statusManager, logger)
	requestService := service.NewPlanRequestService(requestRepo, planRepo, orderRepo, transactionRepo, userRepo, gateway, notifier, logger)
	paymentService := service.NewPaymentService(gateway, planRepo, transactionRepo, userRepo, orchestrator, cfg.Stripe, logger)
	cartService := service.NewCartService(cartRepo, productRepo, userRepo, logger)

	mux := router.New(router.Handlers{
		Products: handler.NewProductHandler(catalogService, logger),
		Meals:    handler.NewMealHandler(catalogService, logger),
		Users:    handler.NewUserHandler(userService, logger),
		Plans:    handler.NewPlanHandler(planService, scheduleService, orderService, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Requests: handler.NewRequestHandler(requestService, logger),
		Payments: handler.NewPaymentHandler(paymentService, logger),
		Carts:    handler.NewCartHandler(cartService, logger),
	}, cfg.Auth.APIKey, logger)

	var sched *scheduler.Scheduler
	if cfg.Fulfillment.SchedulerEnabled {
		sched, err = scheduler.New(cfg.Fulfillment.PopulateSchedule, loc, orchestrator, logger)
		if err != nil {
			return err
		}
		sched.Start()
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if sched != nil {
			sched.Stop(shutdownCtx)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newMailer sends through SendGrid when email is enabled and logs messages
// otherwise.
func newMailer(cfg config.EmailConfig, logger zerolog.Logger) notify.Mailer {
	if !cfg.Enabled {
		logger.Info().Msg("email disabled, notifications will be logged only")
		return notify.NewLogMailer(logger)
	}
	return notify.NewSendGridMailer(cfg, logger)
}

func newGateway(cfg config.StripeConfig, logger zerolog.Logger) (payment.Gateway, error) {
	if cfg.SecretKey == "" {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, checkout and refunds are disabled")
		return payment.Disabled{}, nil
	}
	gateway, err := payment.NewStripeGateway(cfg.SecretKey, cfg.WebhookSecret, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment gateway: %w", err)
	}
	return gateway, nil
}
