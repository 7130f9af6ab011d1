package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nsreddit/internal/config"
	"nsreddit/internal/db"
	"nsreddit/internal/handlers"
	"nsreddit/internal/identity"
	"nsreddit/internal/media"
	"nsreddit/internal/middleware"
	"nsreddit/internal/router"
	"nsreddit/internal/store"
	"nsreddit/internal/utils"
	"nsreddit/internal/votes"
	"nsreddit/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	pageCacheSize   = 256
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Development() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := router.Deps{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		Registry:       votes.NewRegistry(cfg.Votes.EngineCacheSize, cfg.VoteEngineTTL()),
		AuthClient:     handlers.AuthClientConfig{URL: cfg.Supabase.URL, AnonKey: cfg.Supabase.AnonKey},
		Log:            logger,
	}

	deps.Cache, err = utils.NewCache(pageCacheSize)
	if err != nil {
		logger.Fatal("init page cache", zap.Error(err))
	}

	// Database
	conn, err := db.Open(cfg.Database.URL, logger)
	switch {
	case err == nil:
		st := store.New(conn, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := st.Ping(ctx); err != nil {
			logger.Warn("database ping failed", zap.Error(err))
		}
		cancel()
		deps.Forum, deps.Moderation, deps.Profiles = st, st, st
	case errors.Is(err, db.ErrNoDSN):
		logger.Warn("DATABASE_URL is not set; pages that need the database will answer 500")
	default:
		logger.Fatal("connect database", zap.Error(err))
	}

	// Identity
	wireIdentity(cfg, logger, &deps)

	// Object storage
	uploader, err := media.NewUploader(media.Config{
		Endpoint:        cfg.R2.Endpoint,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		Bucket:          cfg.R2.BucketName,
		PublicBaseURL:   cfg.R2.PublicBaseURL,
	})
	switch {
	case err == nil:
		deps.Uploader = uploader
	case errors.Is(err, media.ErrNotConfigured):
		logger.Warn("R2 is not configured; uploads will answer 500")
	default:
		logger.Fatal("init uploader", zap.Error(err))
	}

	if cfg.Session.Secret == config.DefaultSessionSecret {
		logger.Warn("SESSION_SECRET is not set; using the built-in default")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	// Setup Sessions
	cookieStore := cookie.NewStore([]byte(cfg.Session.Secret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   !cfg.Development(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("nsreddit_session", cookieStore))

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Fatal("load templates", zap.Error(err))
	}
	r.HTMLRender = renderer
	r.MaxMultipartMemory = cfg.Upload.MaxBytes + 1<<20

	r.Use(middleware.LoadSession(deps.SessionAuth, logger))

	router.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	go func() {
		logger.Info("nsreddit server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// wireIdentity picks the token resolvers. Bearer calls of the JSON API are
// verified locally when the JWT secret is known and by the auth API
// otherwise. Cookie sessions go through the Redis cache when one is set up.
func wireIdentity(cfg *config.Config, logger *zap.Logger, deps *router.Deps) {
	client := identity.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.ServiceRoleKey)

	var direct identity.Authenticator
	switch {
	case cfg.Supabase.JWTSecret != "":
		direct = identity.NewJWTVerifier(cfg.Supabase.JWTSecret)
	case client.Configured():
		direct = client
	default:
		logger.Warn("SUPABASE_URL / SUPABASE_ANON_KEY are not set; sign-in and the JSON API will answer 500")
		return
	}
	deps.APIAuth = direct
	deps.SessionAuth = direct

	if client.CanDeleteUsers() {
		deps.Deleter = client
	} else {
		logger.Warn("SUPABASE_SERVICE_ROLE_KEY is not set; account deletion will answer 500")
	}

	if cfg.Redis.URL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := identity.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn("redis unavailable; sessions resolve without a cache", zap.Error(err))
		return
	}
	cached := identity.NewCachedAuthenticator(direct, rdb, cfg.IdentityCacheTTL(), logger)
	deps.SessionAuth = cached
	deps.Tokens = cached
}
