package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rakhimart/internal/app"
	"github.com/noah-isme/rakhimart/internal/auth"
	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/catalog"
	"github.com/noah-isme/rakhimart/internal/checkout"
	"github.com/noah-isme/rakhimart/internal/common"
	"github.com/noah-isme/rakhimart/internal/config"
	"github.com/noah-isme/rakhimart/internal/health"
	"github.com/noah-isme/rakhimart/internal/lock"
	"github.com/noah-isme/rakhimart/internal/media"
	"github.com/noah-isme/rakhimart/internal/notify"
	"github.com/noah-isme/rakhimart/internal/obs"
	"github.com/noah-isme/rakhimart/internal/order"
	"github.com/noah-isme/rakhimart/internal/pricing"
	"github.com/noah-isme/rakhimart/internal/ratelimit"
	"github.com/noah-isme/rakhimart/internal/resilience"
	"github.com/noah-isme/rakhimart/internal/security"
	"github.com/noah-isme/rakhimart/internal/settings"
)

const metricsNamespace = "rakhimart"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := cfg.TracingExporter != "none"
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   cfg.ServiceName,
			Endpoint:      cfg.TracingEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := app.Open(startCtx, cfg, "api", logger)
	if err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()
	if envBool("DB_AUTO_SCHEMA", false) {
		if err := deps.Queries.EnsureSchema(startCtx); err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("apply schema")
		}
		logger.Info().Msg("schema applied")
	}
	cancel()

	router, err := newRouter(cfg, deps, logger, tracingEnabled)
	if err != nil {
		logger.Fatal().Err(err).Msg("build router")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func newRouter(cfg *config.Config, deps *app.Dependencies, logger zerolog.Logger, tracingEnabled bool) (http.Handler, error) {
	fallback := pricing.Config{
		DeliveryFee:           pricing.Money(cfg.DefaultDeliveryFee),
		FreeDeliveryThreshold: pricing.Money(cfg.DefaultFreeDeliveryMinimum),
	}
	settingsService, err := settings.NewService(settings.ServiceConfig{
		Queries: deps.Queries,
		Defaults: settings.Settings{
			DeliveryCharges:     fmtMoney(cfg.DefaultDeliveryFee),
			FreeDeliveryMinimum: fmtMoney(cfg.DefaultFreeDeliveryMinimum),
			ContactPhone:        cfg.WhatsAppPhone,
			ContactEmail:        cfg.DefaultContactEmail,
			SiteTitle:           cfg.StoreName,
			SiteDescription:     cfg.DefaultSiteDescription,
		},
		Fallback: fallback,
		Logger:   logger.With().Str("component", "settings").Logger(),
	})
	if err != nil {
		return nil, err
	}

	var uploader catalog.ImageUploader
	if cfg.MediaConfigured() {
		uploader = media.NewUploader(media.Config{
			BaseURL:   cfg.MediaBaseURL,
			CloudName: cfg.MediaCloudName,
			APIKey:    cfg.MediaAPIKey,
			APISecret: cfg.MediaAPISecret,
		}, resilience.NewHTTPClient(resilience.ClientOptions{
			Target:        "media",
			Timeout:       cfg.OutboundTimeout,
			MaxAttempts:   cfg.RetryMaxAttempts,
			BaseBackoff:   cfg.RetryBase,
			JitterPercent: cfg.RetryJitterPercent,
			Logger:        logger,
		}), logger.With().Str("component", "media").Logger())
	} else {
		logger.Warn().Msg("media credentials missing; product image upload disabled")
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Queries:      deps.Queries,
		Cache:        catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL),
		Uploader:     uploader,
		Logger:       logger.With().Str("component", "catalog").Logger(),
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
		MaxImages:    cfg.UploadMaxFiles,
	})
	if err != nil {
		return nil, err
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{
		Service:       catalogService,
		MaxImageBytes: cfg.UploadMaxBytes,
		MaxImages:     cfg.UploadMaxFiles,
	})

	authService, err := auth.NewService(auth.Config{
		Secret:       cfg.JWTSecret,
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
		TokenTTL:     cfg.AdminTokenTTL,
		Issuer:       cfg.TokenIssuer,
		Audience:     cfg.TokenAudience,
	})
	if err != nil {
		return nil, err
	}
	authHandler := &auth.Handler{Service: authService}
	requireAdmin := auth.Middleware{Service: authService}.RequireAdmin
	loginLimiter, err := ratelimit.NewLoginLimiter(deps.LimiterStore, cfg.LoginRateLimit, logger)
	if err != nil {
		return nil, err
	}

	sessions := &cart.Sessions{
		Redis:   deps.Redis,
		Locker:  lock.Locker{R: deps.Redis, MaxWait: cfg.CartLockWait},
		TTL:     cfg.CartTTL,
		LockTTL: cfg.CartLockTTL,
		Diag:    cart.LogDiagnostics{Logger: logger.With().Str("component", "cart").Logger()},
	}
	cartHandler := &cart.Handler{
		Sessions: sessions,
		Products: catalogService,
		Pricing:  settingsService,
		Currency: "INR",
	}

	orderService := order.NewService(deps.Queries, logger.With().Str("component", "order").Logger())
	checkoutHandler := &checkout.Handler{Svc: &checkout.Service{
		Sessions: sessions,
		Pricing:  settingsService,
		Composer: checkout.Composer{StoreName: cfg.StoreName, Phone: cfg.WhatsAppPhone},
		Orders:   orderService,
		Notifier: notify.Enqueuer{Client: deps.TaskClient, Queue: cfg.OrderNotificationQueue},
		Logger:   logger.With().Str("component", "checkout").Logger(),
	}}
	orderHandler := &order.Handler{Service: orderService}
	settingsHandler := &settings.Handler{Service: settingsService}

	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}
	apiLimit := ratelimit.Handler{
		Limiter: ratelimit.SlidingWindow{Client: deps.Redis, Prefix: "rakhimart:rl:"},
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("api"), Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}
	cartWriteLimit := ratelimit.Handler{
		Limiter: ratelimit.SlidingWindow{Client: deps.Redis, Prefix: "rakhimart:rl:"},
		Config:  ratelimit.Config{Key: ratelimit.ByCartSession("cart-write"), Window: cfg.RateLimitWindow, Max: cfg.CartWriteLimitMax},
		OnError: func(err error) { logger.Warn().Err(err).Msg("cart rate limiter unavailable") },
	}
	jsonLimit := security.BodyLimit{Max: 64 << 10}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	buckets := obs.ParseBucketsCSV(cfg.MetricsBucketsMS)
	r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics(metricsNamespace, buckets, nil)}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger, Quiet: []string{"/health/live", "/health/ready", "/metrics"}}.Middleware)
	r.Use(security.Headers{EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Cart-Persistence"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	if envBool("PPROF_ENABLED", false) {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), envOrDefault("PPROF_BASIC_AUTH_USER", ""), envOrDefault("PPROF_BASIC_AUTH_PASS", "")))
	}

	healthHandler := health.Handler{Checker: deps}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.With(loginLimiter, jsonLimit.Middleware).Post("/auth/login", authHandler.Login)
		v.With(requireAdmin).Get("/auth/session", authHandler.Session)

		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{id}", catalogHandler.ProductDetail)
		v.Get("/categories", catalogHandler.Categories)
		v.Get("/settings", settingsHandler.Get)

		v.Group(func(admin chi.Router) {
			admin.Use(requireAdmin)
			admin.Post("/products", catalogHandler.CreateProduct)
			admin.Put("/products/{id}", catalogHandler.UpdateProduct)
			admin.Delete("/products/{id}", catalogHandler.DeleteProduct)
			admin.Patch("/products/{id}/toggle-stock", catalogHandler.ToggleStock)
			admin.With(jsonLimit.Middleware).Post("/categories", catalogHandler.CreateCategory)
			admin.With(jsonLimit.Middleware).Put("/categories/{id}", catalogHandler.UpdateCategory)
			admin.Delete("/categories/{id}", catalogHandler.DeleteCategory)
			admin.With(jsonLimit.Middleware).Put("/settings", settingsHandler.Update)
			admin.Get("/admin/orders", orderHandler.List)
			admin.Get("/admin/orders/{id}", orderHandler.Get)
		})

		v.Route("/carts", func(c chi.Router) {
			c.Use(apiLimit.Middleware)
			c.Get("/{session}", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(jsonLimit.Middleware)
				g.Use(cartWriteLimit.Middleware)
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Create)
				g.Post("/{session}/items", cartHandler.AddItem)
				g.Patch("/{session}/items/{productId}", cartHandler.UpdateItem)
				g.Delete("/{session}/items/{productId}", cartHandler.RemoveItem)
				g.Delete("/{session}", cartHandler.Clear)
				g.Post("/{session}/checkout", checkoutHandler.Checkout)
			})
		})
	})
	return r, nil
}

func fmtMoney(v int64) string {
	return strconv.FormatInt(v, 10)
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
