package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/aryavratstudios/edgeguard/internal/access"
	"github.com/aryavratstudios/edgeguard/internal/actions"
	"github.com/aryavratstudios/edgeguard/internal/api"
	"github.com/aryavratstudios/edgeguard/internal/audit"
	"github.com/aryavratstudios/edgeguard/internal/config"
	"github.com/aryavratstudios/edgeguard/internal/gateway"
	"github.com/aryavratstudios/edgeguard/internal/identity"
	"github.com/aryavratstudios/edgeguard/internal/obs"
	"github.com/aryavratstudios/edgeguard/internal/profile"
	"github.com/aryavratstudios/edgeguard/internal/ratelimit"
	"github.com/aryavratstudios/edgeguard/internal/ratelimit/memory"
	"github.com/aryavratstudios/edgeguard/internal/store"
)

func main() {
	confPath := flag.String("c", "./config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*confPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := obs.SetupLogger(cfg.Observability.LogLevel)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
	_, err = rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	// limiter + policy table
	policies := make(map[string]ratelimit.Policy, len(cfg.Limits.Categories))
	for name, p := range cfg.Limits.Categories {
		policies[name] = ratelimit.Policy{MaxCalls: p.MaxCalls, Window: p.Window()}
	}
	limiter := memory.New(policies)
	limiter.StartJanitor(rootCtx)

	sessions := map[string]identity.Identity{}
	for _, s := range cfg.Security.Sessions {
		if s.Token != "" && s.ID != "" {
			sessions[s.Token] = identity.Identity{ID: s.ID, Email: s.Email}
		}
	}
	sessionStore := identity.NewStatic(cfg.Security.SessionCookie, sessions)

	profiles := profile.NewRedisStore(rdb, cfg.Redis.Prefix)
	gate := access.NewGate(cfg.Security.AdminEmails, profiles)
	data := store.NewRedisStore(rdb, cfg.Redis.Prefix)

	var recorder audit.Recorder = audit.Nop{}
	if cfg.Audit.Enabled {
		recorder = audit.NewRedisRecorder(rdb,
			audit.WithPrefix(cfg.Audit.Prefix),
			audit.WithTTL(cfg.Audit.TTL()),
		)
	}

	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics(reg)

	srv := api.NewServer(actions.New(limiter, gate, profiles, data, recorder), gate, logger)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("v0.1.0"))
	})
	r.Handle(cfg.Observability.PrometheusPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv.RegisterRoutes(r, cfg.Security.AdminPathPrefix)

	skip := map[string]struct{}{
		"/health":                        {},
		"/version":                       {},
		cfg.Observability.PrometheusPath: {},
	}

	handler := gateway.Chain(
		r,
		obs.Logger(logger),
		gateway.SecurityHeaders(),
		gateway.BodyLimit(int(cfg.Server.MaxBody())),
		sessionStore.Middleware(),
		gateway.Firewall(limiter, skip, func(key string) {
			metrics.RateLimited.WithLabelValues(ratelimit.CategoryFirewall).Inc()
			logger.Warn().Str("client", key).Msg("firewall blocked")
		}),
		gateway.AdminGate(
			cfg.Security.AdminPathPrefix,
			gate,
			cfg.Security.LoginPath,
			cfg.Security.HomePath,
			func(err error) {
				kind := "forbidden"
				if access.IsUnauthorized(err) {
					kind = "unauthorized"
				}
				metrics.AccessDenied.WithLabelValues(kind).Inc()
				logger.Warn().Str("deny", err.Error()).Msg("admin route denied")
			},
		),
		metrics.Middleware(skip),
	)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout(),
		IdleTimeout:       cfg.Server.IdleTimeout(),
		ReadTimeout:       cfg.Server.ReadTimeout(),
	}

	go func() {
		logger.Info().Str("addr", httpSrv.Addr).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelRoot()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("bye")
}
