// Package httpapi assembles the BFF's Gin engine: the middleware chain, the
// versioned character/relationship API, the progression event stream and the
// ops endpoints (/health, /metrics, /swagger).
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-tasuki-companion/internal/config"
	"github.com/tbourn/go-tasuki-companion/internal/http/handlers"
	"github.com/tbourn/go-tasuki-companion/internal/http/middleware"
	"github.com/tbourn/go-tasuki-companion/internal/http/ws"
	"github.com/tbourn/go-tasuki-companion/internal/repo"
	"github.com/tbourn/go-tasuki-companion/internal/roster"
	"github.com/tbourn/go-tasuki-companion/internal/services"
	"github.com/tbourn/go-tasuki-companion/internal/store"
)

// Upstream is everything the services need from the remote API.
// *tasuki.Client implements it.
type Upstream interface {
	services.CharacterAPI
	services.ChatAPI
	services.FavoriteAPI
	services.UnlockAPI
	services.CatalogAPI
}

// Deps are the long-lived collaborators the routes are built from.
type Deps struct {
	DB    *gorm.DB
	API   Upstream
	Store store.RelationshipStore
	// Hub receives progression events; nil disables GET /events/ws.
	Hub *ws.Hub
}

// RegisterRoutes installs the middleware chain and every endpoint on r.
//
// The chain runs, outermost first: tracing, request id, caller credentials,
// redacting access log, panic recovery, body cap, metrics, idempotency replay
// detection, rate limiting, CORS, security headers, gzip. Idempotency sits before the rate
// limiter so that replays are not charged against the caller's bucket.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.Server.APIBasePath

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.Credentials(),
		middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders:     []string{"X-API-Key"},
			MaskQueryParams: []string{"uuid", middleware.AccessTokenParam}, // NFC tag payloads are bearer secrets too
		}),
		middleware.Recovery(),
		limitBody(maxBodyBytes),
		middleware.Metrics("/metrics"),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(deps.DB)),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.Rate.RPS, cfg.Rate.Burst, middleware.KeyByUserOrIP()).
		Limit(http.MethodPost, joinPath(apiBase, "/characters/:id/chat"), cfg.Rate.ChatRPS, cfg.Rate.ChatBurst).
		Limit(http.MethodPost, joinPath(apiBase, "/unlock"), cfg.Rate.UnlockRPS, cfg.Rate.UnlockBurst)
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		PrivatePrefixes: privatePrefixes(apiBase),
		EnablePolicy:    true,
	}))
	// hijacked websocket connections must not be wrapped
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		"/metrics",
		joinPath(apiBase, "/events/ws"),
	})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.Server.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	mountAPI(groupWithPrefix(r, apiBase), newHandler(deps, cfg))
}

// newHandler builds the services over the shared upstream, store and DB.
func newHandler(deps Deps, cfg config.Config) *handlers.Handlers {
	var pub services.Publisher = services.NopPublisher{}
	if deps.Hub != nil {
		pub = deps.Hub
	}

	chat := services.NewChatService(deps.API, deps.Store, pub)
	if cfg.Chat.MaxMessageRunes > 0 {
		chat.MaxMessageRunes = cfg.Chat.MaxMessageRunes
	}
	h := handlers.New(
		&services.CharacterService{
			DB:           deps.DB,
			API:          deps.API,
			Store:        deps.Store,
			Sorter:       roster.Sorter{Locale: sortLocale(cfg.Roster.SortLocale)},
			PrefectureID: cfg.Roster.PrefectureID,
		},
		chat,
		&services.FavoriteService{DB: deps.DB, API: deps.API, Store: deps.Store},
		&services.UnlockService{DB: deps.DB, API: deps.API, Store: deps.Store, Publisher: pub},
		&services.CatalogService{API: deps.API},
	).WithIdempotency(deps.DB, cfg.Chat.IdempotencyTTL)
	if deps.Hub != nil {
		h.WithEvents(deps.Hub)
	}
	return h
}

func mountAPI(api *gin.RouterGroup, h *handlers.Handlers) {
	api.GET("/characters", h.ListCharacters)
	api.GET("/characters/locked", h.ListLockedCharacters)
	api.GET("/characters/:id", h.GetCharacter)
	api.GET("/characters/:id/stories", h.ListStories)
	api.GET("/characters/:id/chat", h.OpenChat)
	api.POST("/characters/:id/chat", h.SendMessage)
	api.PUT("/characters/:id/favorite", h.UpdateFavorite)
	api.GET("/favorites", h.ListFavorites)

	api.POST("/unlock", h.Unlock)
	api.GET("/unlocks/new", h.ListNewUnlocks)
	api.POST("/session/bootstrap", h.Bootstrap)

	api.GET("/municipalities/:prefectureId", h.ListMunicipalities)
	api.GET("/occupations", h.ListOccupations)
	api.GET("/events", h.ListEvents)
	api.GET("/events/fukushima-weeks", h.ListFukushimaWeeksEvents)
	api.GET("/achievements/unlocked", h.ListUnlockedAchievements)
	api.GET("/achievements/locked", h.ListLockedAchievements)
	api.GET("/events/ws", h.StreamEvents)
}

// sortLocale parses a BCP 47 tag, falling back to Japanese.
func sortLocale(tag string) language.Tag {
	t, err := language.Parse(tag)
	if err != nil {
		return language.Japanese
	}
	return t
}

const maxBodyBytes = 1 << 20

var (
	corsMethods       = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	corsAllowHeaders  = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExposeHeaders = []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"}
)

// corsMiddleware allows every origin when the allowlist is empty. In that
// mode ACAO: * is also set on requests without an Origin header so plain
// health probes see it; credentials stay off.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:    corsMethods,
		AllowHeaders:    corsAllowHeaders,
		ExposeHeaders:   corsExposeHeaders,
		AllowWebSockets: true,
		MaxAge:          12 * time.Hour,
	}
	if len(origins) > 0 {
		cc.AllowOrigins = origins
		return []gin.HandlerFunc{cors.New(cc)}
	}
	cc.AllowAllOrigins = true
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Next()
		},
		cors.New(cc),
	}
}

// idempotencyLookup reports whether a live chat turn is recorded under key.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID, characterID, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, db, userID, characterID, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}
}

// privatePrefixes are the per-user route trees that must not be stored by
// shared caches.
func privatePrefixes(apiBase string) []string {
	out := make([]string, 0, 5)
	for _, p := range []string{"/characters", "/favorites", "/unlock", "/unlocks", "/session"} {
		out = append(out, joinPath(apiBase, p))
	}
	return out
}

// limitBody caps request bodies; reads past maxBytes fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath appends p to a base path that may be empty or "/".
func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
