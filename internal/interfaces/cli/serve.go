package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appintegration "github.com/boodo/silvasync/internal/application/integration"
	"github.com/boodo/silvasync/internal/domain/shared"
	"github.com/boodo/silvasync/internal/infrastructure/cache"
	"github.com/boodo/silvasync/internal/infrastructure/event"
	"github.com/boodo/silvasync/internal/infrastructure/logger"
	"github.com/boodo/silvasync/internal/infrastructure/scheduler"
	"github.com/boodo/silvasync/internal/interfaces/http/handler"
	"github.com/boodo/silvasync/internal/interfaces/http/router"
)

const shutdownTimeout = 30 * time.Second

// ServeOptions holds flags for the serve command
type ServeOptions struct {
	Port        string
	NoScheduler bool
}

func newServeCommand(opts *RootOptions) *cobra.Command {
	sopts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive store webhooks and run the periodic sync tasks",
		Long: `Start the webhook server. Store notifications posted to /api/v1/webhooks/*
are published on the event bus and synced to Silvasoft in the background.
Unless disabled, unsynced orders and stock are also synced on a timer.

/health and /metrics are served without the webhook secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if sopts.Port != "" {
					a.cfg.App.Port = sopts.Port
				}
				if sopts.NoScheduler {
					a.cfg.Scheduler.Enabled = false
				}
				return serve(ctx, a)
			})
		},
	}

	cmd.Flags().StringVarP(&sopts.Port, "port", "p", "", "listen port (default app.port)")
	cmd.Flags().BoolVar(&sopts.NoScheduler, "no-scheduler", false, "do not run the periodic tasks")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	if err := a.connect(ctx, true); err != nil {
		return err
	}
	cfg := a.cfg
	log := a.log

	builder := a.builder()
	products := appintegration.NewProductExportService(a.api, a.repos.Products, builder,
		a.serviceOptions(logger.ChannelProductSync, nil)...)
	customers := appintegration.NewCustomerExportService(a.api, a.repos.Customers, builder,
		a.serviceOptions(logger.ChannelCustomerSync, nil)...)
	orders := appintegration.NewOrderExportService(a.api, a.repos.Orders, builder,
		a.serviceOptions(logger.ChannelOrderSync, nil)...)
	stock := appintegration.NewStockSyncService(a.api, a.repos.Products, a.repos.Categories, builder,
		cfg.Silvasoft.PageSize, a.serviceOptions(logger.ChannelStockSync, nil)...)

	store, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		return err
	}
	a.onClose(func(context.Context) error { return store.Close() })

	eventLog := a.channels.For(logger.ChannelEventSync)
	bus := event.NewInMemoryEventBus(eventLog)
	subscribers := appintegration.NewSubscribers(orders, customers, products, stock, eventLog)
	for _, h := range event.WrapHandlers(subscribers, store, eventLog,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: true, TTL: cfg.Sync.IdempotencyTTL}),
		event.WithDeliveryRecorder(a.metrics),
	) {
		bus.Subscribe(h)
	}
	if err := bus.Start(ctx); err != nil {
		return err
	}

	sched := scheduler.New(a.channels.For(logger.ChannelTaskSync),
		scheduler.WithTaskTimeout(cfg.Scheduler.TaskTimeout),
		scheduler.WithObserver(a.metrics),
	)
	if cfg.Scheduler.Enabled {
		taskLog := a.channels.For(logger.ChannelTaskSync)
		if err := sched.Register(scheduler.NewOrderUpdateTask(orders, cfg.Sync.OrderLookback, cfg.Scheduler.OrderBatchSize, taskLog), cfg.Scheduler.OrderInterval); err != nil {
			return err
		}
		if err := sched.Register(scheduler.NewStockUpdateTask(stock, taskLog), cfg.Scheduler.StockInterval); err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        a.tracer.IsEnabled(),
		TrustedProxies: cfg.HTTP.TrustedProxies,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		WebhookSecret:  cfg.HTTP.WebhookSecret,
		Health: handler.NewHealthHandler(func(ctx context.Context) error {
			sqlDB, err := a.db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}).Health,
		Metrics: a.metrics.Handler(),
	}, log, handler.NewWebhookHandler(bus))
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
			zap.Strings("tasks", sched.Tasks()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	// Stop intake first so queued events can drain
	errs := []error{runErr}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	log.Info("Server exited")
	return errors.Join(errs...)
}
