// Command server runs the tasuki companion API.
//
// Startup order: .env → config → logging → tracing → SQLite → relationship
// store → upstream client → event hub → router → HTTP server. SIGINT/SIGTERM
// trigger a graceful shutdown that drains in-flight requests, closes
// websocket subscribers and flushes traces.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-tasuki-companion/docs"
	"github.com/tbourn/go-tasuki-companion/internal/config"
	httpapi "github.com/tbourn/go-tasuki-companion/internal/http"
	"github.com/tbourn/go-tasuki-companion/internal/http/ws"
	"github.com/tbourn/go-tasuki-companion/internal/observability"
	"github.com/tbourn/go-tasuki-companion/internal/repo"
	"github.com/tbourn/go-tasuki-companion/internal/store"
	"github.com/tbourn/go-tasuki-companion/internal/sysutil"
	"github.com/tbourn/go-tasuki-companion/internal/tasuki"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const idempotencySweep = 15 * time.Minute

func main() {
	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg := config.MustLoad()
	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	sysutil.SetupLogging(sysutil.LogOptions{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		Service: cfg.OTEL.ServiceName,
		Version: appVersion,
	})
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded")
	}
	log.Info().Str("upstream", cfg.Upstream.BaseURL).Str("store", cfg.Store.Backend).Msg("starting")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(rootCtx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	relStore, closeStore, err := openStore(rootCtx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("open relationship store")
	}

	api := tasuki.New(cfg.Upstream.BaseURL, cfg.Upstream.Token, cfg.Upstream.Timeout)
	hub := ws.NewHub(cfg.WSPingInterval, originChecker(cfg.CORS.AllowedOrigins))

	gin.SetMode(cfg.Server.GinMode)
	if cfg.Server.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.Server.APIBasePath
		docs.SwaggerInfo.Version = appVersion
	}
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, API: api, Store: relStore, Hub: hub}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	go sweepIdempotency(rootCtx, db, idempotencySweep)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	hub.Close()
	if err := closeStore(); err != nil {
		log.Warn().Err(err).Msg("close relationship store")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(ctx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("server exited")
}

// openStore builds the relationship store selected by RELATIONSHIP_STORE.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.RelationshipStore, func() error, error) {
	switch cfg.Backend {
	case "redis":
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	default:
		return store.NewMemoryStore(cfg.TTL), func() error { return nil }, nil
	}
}

// originChecker restricts websocket upgrades to the CORS allowlist. An empty
// list allows any origin, matching the HTTP CORS posture.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// sweepIdempotency deletes expired idempotency records until ctx is done.
func sweepIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, time.Now().UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency records")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("purged idempotency records")
			}
		}
	}
}
