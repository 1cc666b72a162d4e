package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/toko-storefront/internal/config"
	"github.com/noah-isme/toko-storefront/internal/events"
	"github.com/noah-isme/toko-storefront/internal/health"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/ratelimit"
	"github.com/noah-isme/toko-storefront/internal/resilience"
	"github.com/noah-isme/toko-storefront/internal/security"
	"github.com/noah-isme/toko-storefront/internal/session"
	"github.com/noah-isme/toko-storefront/internal/storefront"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracingEnabled := cfg.Obs.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "toko-storefront",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	var (
		httpMetrics *obs.HTTPMetrics
		shopMetrics *obs.StorefrontMetrics
		readyChecks []health.Check
	)
	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	limiterStore := "memory"
	if cfg.Obs.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
		shopMetrics = obs.NewStorefrontMetrics(cfg.Obs.MetricsNamespace, nil)
	}

	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, contact rate limit falls back to memory")
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Error().Err(err).Msg("close redis")
				}
			}()
			breaker := resilience.NewBreaker("redis", 5, 0.5, 30*time.Second)
			breaker.OnTransition = func(target string, from, to resilience.State) {
				logger.Warn().Str("target", target).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker transition")
				if shopMetrics != nil {
					shopMetrics.BreakerTransitionsTotal.WithLabelValues(target, to.String()).Inc()
				}
			}
			limiter = ratelimit.FailoverLimiter{
				Primary:  ratelimit.RedisLimiter{Client: redisClient, Prefix: "toko:ratelimit:"},
				Fallback: limiter,
				Breaker:  breaker,
				OnFailover: func(err error) {
					logger.Warn().Err(err).Msg("redis rate limit failed, using memory store")
				},
			}
			limiterStore = "redis"
			readyChecks = append(readyChecks, health.Check{
				Name:    "redis",
				Timeout: 300 * time.Millisecond,
				Probe:   func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			})
		}
	}

	eventLog := events.NewMemoryLog(cfg.EventLogSize)
	bus := &events.Bus{
		Store:     eventLog,
		Notifiers: []events.Notifier{obs.EventLogger{Logger: logger}},
	}
	if shopMetrics != nil {
		bus.Notifiers = append(bus.Notifiers, obs.EventMetrics{Metrics: shopMetrics})
	}

	sessions := session.NewStore(cfg.SessionTTL)
	if cfg.SessionCreateMax > 0 {
		sessions.CreateGuard = func(r *http.Request) bool {
			allowed, _, _, err := limiter.Allow(r.Context(), "session:"+ratelimit.KeyByIP(r), time.Minute, cfg.SessionCreateMax)
			if err != nil {
				logger.Error().Err(err).Msg("session creation limit")
				return true
			}
			return allowed
		}
	}
	go sessions.RunSweeper(ctx, cfg.SessionSweepInterval, func(removed int) {
		if removed == 0 {
			return
		}
		if shopMetrics != nil {
			shopMetrics.SessionsSweptTotal.Add(float64(removed))
		}
		logger.Debug().Int("removed", removed).Int("live", sessions.Len()).Msg("sessions swept")
	})

	contactLimit := ratelimit.Handler{
		Limiter: limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.KeyBySessionOrIP(session.EstablishedID),
			Window: cfg.ContactRateLimitWindow,
			Max:    cfg.ContactRateLimitMax,
		},
		OnError: func(err error) {
			logger.Error().Err(err).Str("store", limiterStore).Msg("contact rate limit")
		},
	}

	shopHandler := &storefront.Handler{
		Svc:         storefront.NewService(bus, logger),
		Events:      eventLog,
		SubmitLimit: contactLimit.Middleware,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.Tracing{SessionHeader: session.HeaderName}.Middleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger, SessionHeader: session.HeaderName}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", session.HeaderName},
		ExposedHeaders:   []string{session.HeaderName, "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.IsProduction()}.Middleware)

	if cfg.Obs.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{Checks: readyChecks}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	if cfg.Obs.DebugEvents {
		r.Get("/debug/events", shopHandler.RecentEvents)
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
		v.Use(sessions.Middleware)
		shopHandler.Routes(v)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           otelhttp.NewHandler(r, "toko-storefront"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("rate_limit_store", limiterStore).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	}

	health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Int("sessions", sessions.Len()).Msg("server stopped")
}

func connectRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
