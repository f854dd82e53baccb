package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"leetclone/configs"
	"leetclone/internal/dbs"
	"leetclone/internal/gateway"
	"leetclone/internal/handlers"
	"leetclone/internal/logger"
	"leetclone/internal/middlewares"
	"leetclone/internal/repositories"
	"leetclone/internal/services"
	"leetclone/internal/workerpool"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	upstreamGraphQL  = "graphql"
	upstreamComments = "comments"
)

// StartGinServer wires every component from the environment and serves
// until SIGINT or SIGTERM.
func StartGinServer() error {
	config := configs.LoadConfig()

	logger.InitLogger(config.LogLevel, config.LogFormat)
	defer logger.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := dbs.NewRedis(ctx, config)
	if err != nil {
		return err
	}
	defer rdb.Close()

	store, closeStore, err := newDocStore(ctx, config, rdb)
	if err != nil {
		return err
	}
	defer closeStore.Close()

	fixtures, err := services.LoadFixtures(config.FixturesPath)
	if err != nil {
		return err
	}
	logger.Log.Info("Fixtures loaded",
		zap.String("path", config.FixturesPath),
		zap.Int("problems", fixtures.Len()))

	progressRepo := repositories.NewProgressRepository(store)
	pool := workerpool.NewProgressPool(config.NumberOfWorkers, rdb, config.ProgressStream, config.ProgressGroup, progressRepo)
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	defer pool.Stop()

	app, err := newApp(config, rdb, store, fixtures)
	if err != nil {
		return err
	}
	defer app.evaluator.Wait()

	srv := &http.Server{
		Addr:              ":" + config.ServerPort,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Log.Info("Server stopped")
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newDocStore(ctx context.Context, config *configs.Config, rdb redis.UniversalClient) (repositories.DocStore, io.Closer, error) {
	switch config.DocStoreDriver {
	case "", "redis":
		return repositories.NewRedisDocStore(rdb, ""), nopCloser{}, nil
	case "mysql":
		db, err := dbs.NewMySQL(ctx, config)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.MigrateDocuments(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repositories.NewMySQLDocStore(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown docstore driver %q", config.DocStoreDriver)
	}
}

type app struct {
	router    *gin.Engine
	evaluator *services.Evaluator
}

func newApp(config *configs.Config, rdb redis.UniversalClient, store repositories.DocStore, fixtures *services.FixtureSet) (*app, error) {
	cache := services.NewRedisCache(rdb, "")
	tokens := services.NewTokenService(config.JWTSecret)
	chat := services.NewChatService(services.ChatConfig{
		BaseURL: config.ChatBaseURL,
		Token:   config.ChatToken,
		Model:   config.ChatModel,
	})
	piston := services.NewPistonClient(services.PistonConfig{
		BaseURL:        config.PistonURL,
		CompileTimeout: config.PistonCompileTimeout,
		RunTimeout:     config.PistonRunTimeout,
		HTTPTimeout:    config.UpstreamTimeout,
	})
	leetcode := services.NewLeetCodeClient(config.GraphQLURL, config.UpstreamTimeout)

	submissionRepo := repositories.NewSubmissionRepository(store)
	progressRepo := repositories.NewProgressRepository(store)

	auth := services.NewAuthService(repositories.NewUserRepository(store), tokens, cache)
	problems := services.NewProblemService(leetcode, cache, fixtures)
	evaluator := services.NewEvaluator(
		services.NewCodeRunnerService(piston),
		submissionRepo,
		workerpool.NewStreamPublisher(rdb, config.ProgressStream),
	)
	forum := services.NewForumService(repositories.NewPostRepository(store))
	doubts := services.NewDoubtService(repositories.NewDoubtRepository(store), repositories.NewThreadRepository(store), chat)
	notes := services.NewNoteService(repositories.NewNoteRepository(store))

	proxies, err := newProxyFactory(config)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		middlewares.TraceMiddleware(),
		middlewares.ErrorHandlerMiddleware(),
		cors.New(cors.Config{
			AllowOrigins:     config.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
			ExposeHeaders:    []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	router.GET("/health", func(c *gin.Context) {
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	requireAuth := middlewares.AuthMiddleware(tokens)
	optionalAuth := middlewares.OptionalAuthMiddleware(tokens)

	handlers.NewAuthHandler(auth).RegisterRoutes(router, requireAuth)
	handlers.NewProblemHandler(problems).RegisterRoutes(router)
	handlers.NewSubmissionHandler(problems, evaluator, submissionRepo, progressRepo, chat).RegisterRoutes(router, requireAuth)
	handlers.NewDoubtHandler(doubts, auth).RegisterRoutes(router, requireAuth)
	handlers.NewNoteHandler(notes).RegisterRoutes(router, requireAuth)
	handlers.NewUpstreamHandler(piston, chat, leetcode).RegisterRoutes(router)

	graphqlProxy, err := proxies.Get(upstreamGraphQL)
	if err != nil {
		return nil, err
	}
	router.POST("/graphql", optionalAuth, gateway.ProxyHandler(graphqlProxy, upstreamGraphQL, config.UpstreamTimeout, "/graphql"))

	if config.CommentsBackendURL != "" {
		commentsProxy, err := proxies.Get(upstreamComments)
		if err != nil {
			return nil, err
		}
		forward := gateway.ProxyHandler(commentsProxy, upstreamComments, config.UpstreamTimeout, "")
		postGroup := router.Group("/api/posts", optionalAuth)
		postGroup.Any("", forward)
		postGroup.Any("/*path", forward)
		logger.Log.Info("Forum routes forwarded", zap.String("backend", config.CommentsBackendURL))
	} else {
		handlers.NewForumHandler(forum, auth).RegisterRoutes(router, optionalAuth)
	}

	return &app{router: router, evaluator: evaluator}, nil
}

func newProxyFactory(config *configs.Config) (*gateway.ProxyFactory, error) {
	graphqlURL, err := url.Parse(config.GraphQLURL)
	if err != nil {
		return nil, fmt.Errorf("invalid graphql url: %w", err)
	}
	origin := services.OriginOf(config.GraphQLURL)
	upstreams := map[string]gateway.Upstream{
		upstreamGraphQL: {
			URL:         graphqlURL,
			SetHeaders:  map[string]string{"Origin": origin, "Referer": origin},
			DropHeaders: []string{"Cookie", "Authorization"},
		},
	}

	if config.CommentsBackendURL != "" {
		commentsURL, err := url.Parse(config.CommentsBackendURL)
		if err != nil {
			return nil, fmt.Errorf("invalid comments backend url: %w", err)
		}
		upstreams[upstreamComments] = gateway.Upstream{URL: commentsURL}
	}

	proxyConfig := gateway.DefaultProxyConfig()
	proxyConfig.ResponseHeaderTimeout = config.UpstreamTimeout
	return gateway.NewProxyFactory(proxyConfig, upstreams), nil
}
