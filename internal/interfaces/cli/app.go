package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appintegration "github.com/boodo/silvasync/internal/application/integration"
	"github.com/boodo/silvasync/internal/infrastructure/config"
	"github.com/boodo/silvasync/internal/infrastructure/logger"
	"github.com/boodo/silvasync/internal/infrastructure/metrics"
	"github.com/boodo/silvasync/internal/infrastructure/persistence"
	"github.com/boodo/silvasync/internal/infrastructure/silvasoft"
	"github.com/boodo/silvasync/internal/infrastructure/telemetry"
)

// app holds what the commands share. Commands connect only what they need
// and close releases everything in reverse order.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	channels *logger.Channels
	metrics  *metrics.Metrics
	tracer   *telemetry.TracerProvider

	db    *persistence.Database
	repos *persistence.Repositories
	api   *silvasoft.Client

	closers []func(context.Context) error
}

// withApp builds the app for cmd, runs fn and closes the app afterwards
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(context.WithoutCancel(ctx)); cerr != nil {
			a.log.Warn("Shutdown incomplete", zap.Error(cerr))
		}
	}()
	return fn(ctx, a)
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	base, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, log: base, metrics: metrics.New()}
	a.onClose(func(context.Context) error {
		_ = base.Sync()
		return nil
	})

	telCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    opts.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}
	a.tracer, err = telemetry.NewTracerProvider(ctx, telCfg, base)
	if err != nil {
		return nil, a.abort(err)
	}
	a.onClose(a.tracer.Shutdown)

	logs, err := telemetry.NewLoggerProvider(ctx, telCfg, base)
	if err != nil {
		return nil, a.abort(err)
	}
	a.onClose(logs.Shutdown)

	level := logger.ParseLevel(cfg.Log.Level)
	a.log = logs.Bridge(base, level)
	a.channels = logger.NewChannels(a.log, cfg.Log.Dir, level)
	a.onClose(func(context.Context) error { return a.channels.Close() })

	return a, nil
}

// connect opens the store database and, when remote is set, the Silvasoft
// client. Missing Silvasoft credentials fail before the database is touched.
func (a *app) connect(ctx context.Context, remote bool) error {
	if remote {
		if err := a.cfg.RequireSilvasoft(); err != nil {
			return err
		}
	}

	db, err := persistence.NewDatabase(&a.cfg.Database, persistence.Options{
		Logger:   a.log,
		LogLevel: logger.MapGormLogLevel(a.cfg.Log.Level),
		Tracing: telemetry.DBTracingConfig{
			Enabled:         a.cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      a.cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: logger.DefaultSlowThreshold,
			DBName:          a.cfg.Database.DBName,
		},
	})
	if err != nil {
		return err
	}
	a.db = db
	a.onClose(func(context.Context) error { return db.Close() })
	a.repos = persistence.NewRepositories(db.DB)
	a.log.Debug("Database connected", zap.String("host", a.cfg.Database.Host), zap.String("db", a.cfg.Database.DBName))

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := a.metrics.RegisterDB(sqlDB, a.cfg.Database.DBName); err != nil {
		return fmt.Errorf("failed to register database metrics: %w", err)
	}

	if !remote {
		return nil
	}

	s := a.cfg.Silvasoft
	client, err := silvasoft.NewClient(&silvasoft.Config{
		BaseURL:           s.APIURL,
		APIKey:            s.APIKey,
		Username:          s.APIUser,
		Timeout:           s.Timeout,
		RequestsPerSecond: s.RequestsPerSecond,
		Burst:             s.Burst,
		RetryAttempts:     s.RetryAttempts,
		RetryDelay:        s.RetryDelay,
		PageSize:          s.PageSize,
	},
		silvasoft.WithLogger(a.log),
		silvasoft.WithObserver(a.metrics),
		silvasoft.WithTracer(a.tracer.Tracer("github.com/boodo/silvasync/silvasoft")),
	)
	if err != nil {
		return fmt.Errorf("failed to create silvasoft client: %w", err)
	}
	a.api = client
	return nil
}

func (a *app) builder() *appintegration.PayloadBuilder {
	return appintegration.NewPayloadBuilder(decimal.NewFromFloat(a.cfg.Sync.DefaultTaxRate))
}

// serviceOptions routes a service's logs to channel and its items to the
// metrics and, when p is set, to the terminal.
func (a *app) serviceOptions(channel string, p *printer) []appintegration.Option {
	opts := []appintegration.Option{
		appintegration.WithLogger(a.channels.For(channel)),
		appintegration.WithRecorder(a.metrics),
	}
	if p != nil {
		opts = append(opts, appintegration.WithProgress(p.progress))
	}
	return opts
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// abort releases what was built so far and returns err
func (a *app) abort(err error) error {
	return errors.Join(err, a.close(context.Background()))
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
