package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/storefront-ingest/internal/clock"
	"github.com/xenking/storefront-ingest/internal/domain/order"
	"github.com/xenking/storefront-ingest/internal/domain/product"
	"github.com/xenking/storefront-ingest/internal/domain/store"
	"github.com/xenking/storefront-ingest/internal/events"
	"github.com/xenking/storefront-ingest/internal/handler"
	"github.com/xenking/storefront-ingest/internal/storage/postgres"
	"github.com/xenking/storefront-ingest/pkg/health"
	"github.com/xenking/storefront-ingest/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.Ready("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.Live("goroutines", time.Second, health.GoroutineCountCheck(10000))

	publisher, closePublisher := newPublisher(lg, cfg.Redis, healthSvc)
	defer closePublisher()

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, m, cfg, pool, publisher, healthSvc),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newHandler builds the domain services over pool and returns the complete
// HTTP handler: probes, channel endpoints and the middleware chain.
func newHandler(
	ctx context.Context,
	m httpmiddleware.Telemetry,
	cfg *Config,
	pool *pgxpool.Pool,
	publisher order.Publisher,
	healthSvc *health.Health,
) http.Handler {
	clk := clock.NewSystem()
	products := postgres.NewProductRepository(pool)

	orderService := order.NewService(order.ServiceDeps{
		Lookup:     store.NewGateway(postgres.NewStoreRepository(pool), []byte(cfg.StoreTokenPepper)),
		Customers:  postgres.NewCustomerRepository(pool),
		Orders:     postgres.NewOrderRepository(pool),
		Products:   products,
		Inventory:  product.NewAdjuster(products, clk),
		Activities: postgres.NewActivityRepository(pool),
		Publisher:  publisher,
		Clock:      clk,
	},
		order.WithTracerProvider(m.TracerProvider()),
		order.WithMeterProvider(m.MeterProvider()),
		order.WithNumberFormatter(order.MaskFormatter{Mask: cfg.OrderNumberMask}),
	)

	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		IPMax:  cfg.RateLimit.IPMax,
		Window: cfg.RateLimit.Window,
		Header: handler.TokenHeader,
	})
	limiter.SweepEvery(ctx, 2*cfg.RateLimit.Window)

	// Probes bypass the rate limiter; channel endpoints do not.
	r := chi.NewRouter()
	r.Use(httpmiddleware.LogRequests(), httpmiddleware.Labeler())
	healthSvc.Mount(r)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware())
		handler.NewHandler(orderService).Mount(r)
	})

	return wrapServer(r, zctx.From(ctx), m)
}

// wrapServer applies the outer middleware chain. RequestID runs before
// Recovery so panic logs carry the request id.
func wrapServer(h http.Handler, lg *zap.Logger, m httpmiddleware.Telemetry) http.Handler {
	return httpmiddleware.Wrap(h,
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.RequestID(),
		httpmiddleware.Recovery(),
		httpmiddleware.Instrument("storefront-ingest", m),
	)
}

// newPublisher returns the Redis publisher when configured, registering its
// readiness probe, and the log-only publisher otherwise.
func newPublisher(lg *zap.Logger, cfg RedisConfig, h *health.Health) (order.Publisher, func()) {
	if cfg.Addr == "" {
		lg.Info("Redis not configured, order-placed events are logged only")
		return events.LogPublisher{}, func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	h.Ready("redis", 2*time.Second, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	lg.Info("Publishing order-placed events",
		zap.String("redis_addr", cfg.Addr),
		zap.String("channel", cfg.Channel),
	)
	return events.NewRedisPublisher(client, cfg.Channel), func() {
		if err := client.Close(); err != nil {
			lg.Warn("Close redis client", zap.Error(err))
		}
	}
}
