package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-rbac-admin/bootstrap"
	"go-rbac-admin/common"
	"go-rbac-admin/config"
	"go-rbac-admin/database"
	"go-rbac-admin/domain"
	"go-rbac-admin/middleware"
	accessAPI "go-rbac-admin/modules/access/delivery/api"
	accessRepo "go-rbac-admin/modules/access/repository"
	accessUC "go-rbac-admin/modules/access/usecase"
	moduleAPI "go-rbac-admin/modules/module/delivery/api"
	moduleRepo "go-rbac-admin/modules/module/repository"
	moduleUC "go-rbac-admin/modules/module/usecase"
	roleAPI "go-rbac-admin/modules/role/delivery/api"
	roleRepo "go-rbac-admin/modules/role/repository"
	roleUC "go-rbac-admin/modules/role/usecase"
	userAPI "go-rbac-admin/modules/user/delivery/api"
	userRepo "go-rbac-admin/modules/user/repository"
	userUC "go-rbac-admin/modules/user/usecase"
	"go-rbac-admin/pkg/cache"
	"go-rbac-admin/pkg/log"
	"go-rbac-admin/pkg/metrics"
	"go-rbac-admin/validator"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	envPath := flag.String("env-file", "", "ENV config file path")
	yamlPath := flag.String("config", "./config/config.yml", "YAML config file path")
	tokenFor := flag.String("token", "", "print an access token for the user with this email and exit")
	flag.Parse()

	configPaths := []string{*yamlPath}
	if *envPath == "" {
		fmt.Printf("App is starting with config path is '%s' and no load env file\n", *yamlPath)
	} else {
		fmt.Printf("App is starting with config path is '%s' and env path is '%s'...\n", *yamlPath, *envPath)
		configPaths = append(configPaths, *envPath)
	}

	cfg, err := config.Load(configPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	if err = config.Validate(cfg); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(fmt.Errorf("failed to create logger: %w", err))
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Printf("Failed to sync logger: %v\n", err)
		}
	}()

	// Set logger for common package using adapter and as default logger
	loggerAdapter := common.NewLoggerAdapter(logger)
	common.SetLogger(loggerAdapter)
	log.SetDefaultLogger(logger)

	logger.Info("Application starting",
		log.String("name", cfg.App().Name()),
		log.String("version", cfg.App().Version()),
		log.String("environment", cfg.App().Environment()),
		log.String("config_path", *yamlPath),
	)

	db, err := database.Connect(cfg.Database(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", log.Error(err))
	}

	if err = database.MigrateDB(db); err != nil {
		logger.Fatal("Failed to migrate database", log.Error(err))
	}

	logger.Info("Database connected and migrated successfully",
		log.String("driver", cfg.Database().Driver()),
	)

	m := metrics.New()

	// Initialize repositories
	userRepository := userRepo.NewUserRepository(db, m)
	roleRepository := roleRepo.NewRoleRepository(db, m)
	moduleRepository := moduleRepo.NewModuleRepository(db, m)
	accessRepository := accessRepo.NewAccessRepository(db)

	bcryptHasher := common.NewBcryptHasher(cfg.App().BcryptCost())

	seeder := bootstrap.NewSeeder(moduleRepository, userRepository, bcryptHasher, bootstrap.AdminConfig{
		Name:     cfg.App().SystemAdminDefaultName(),
		Email:    cfg.App().SystemAdminDefaultEmail(),
		Password: cfg.App().SystemAdminDefaultPassword(),
	}, logger)
	if err := seeder.Seed(context.Background()); err != nil {
		logger.Fatal("Failed to seed default data", log.Error(err))
	}

	jwtProvider := common.NewJWTProvider(cfg.App())

	if *tokenFor != "" {
		token, err := issueToken(context.Background(), userRepository, jwtProvider, *tokenFor)
		if err != nil {
			logger.Fatal("Failed to issue token", log.String("email", *tokenFor), log.Error(err))
		}
		fmt.Println(token)
		return
	}

	rateLimitCache, err := newCache(cfg, loggerAdapter)
	if err != nil {
		logger.Fatal("Failed to create cache for rate limiting", log.Error(err))
	}
	defer rateLimitCache.Close()

	policy, err := domain.ParseUntaggedPolicy(cfg.Access().UntaggedPolicy())
	if err != nil {
		logger.Fatal("Invalid untagged policy", log.Error(err))
	}
	gate := accessUC.NewAccessGate(accessRepository, logger, m)
	guard := accessUC.NewRouteGuard(gate, domain.DefaultActionTable(), policy, logger, m)

	// Initialize usecases
	userUsecase := userUC.NewUserUsecase(userRepository, bcryptHasher, logger)
	roleUsecase := roleUC.NewRoleUsecase(roleRepository, logger)
	moduleUsecase := moduleUC.NewModuleUsecase(moduleRepository, logger)

	middlewares := middleware.NewMiddlewares(middleware.Dependencies{
		Cache:       rateLimitCache,
		Logger:      logger,
		JwtProvider: jwtProvider,
		UserRepo:    userRepository,
		Guard:       guard,
		Access:      cfg.Access(),
	})

	// Disable Gin's default logger and recovery
	gin.DisableConsoleColor()
	gin.SetMode(gin.ReleaseMode)
	validator.RegisterValidatorWithGin()

	r := gin.New()

	corsConfig := middleware.DefaultCORSConfig()
	if origins := cfg.Server().AllowedOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	}

	// Add custom middleware in order
	r.Use(middlewares.CORS(corsConfig))
	r.Use(middlewares.RequestIDMiddleware())
	r.Use(m.GinMiddleware())
	r.Use(middlewares.RateLimit(middleware.RateLimitConfig{
		Name:        "global",
		WindowSize:  cfg.RateLimit().Window(),
		MaxRequests: int64(cfg.RateLimit().GlobalMaxRequests()),
		SkipPaths:   []string{"/health", "/metrics"},
	}))
	r.Use(middlewares.LoggingMiddleware(middleware.LoggerConfig{
		SkipPaths: []string{"/health", "/metrics"},
	}))
	r.Use(gin.Recovery())

	// Register routes
	apiGroup := r.Group("/api/v1")
	accessAPI.NewAccessHandler(gate, middlewares).RegisterRoutes(apiGroup)
	roleAPI.NewRoleHandler(roleUsecase, middlewares).RegisterRoutes(apiGroup)
	moduleAPI.NewModuleHandler(moduleUsecase, middlewares).RegisterRoutes(apiGroup)
	userAPI.NewUserHandler(userUsecase, middlewares).RegisterRoutes(apiGroup)

	if untagged := guard.UntaggedActions(middlewares.RegisteredActions()); len(untagged) > 0 {
		logger.Warn("Routes registered with actions missing from the action table",
			log.Any("actions", lo.Map(untagged, func(a domain.ActionID, _ int) string { return string(a) })),
			log.String("policy", string(policy)),
		)
	}

	r.GET("/health", healthHandler(db, rateLimitCache))
	r.GET("/metrics", gin.WrapH(m.Handler()))

	srv := &http.Server{
		Addr:           cfg.Server().Address(),
		Handler:        r,
		ReadTimeout:    cfg.Server().ReadTimeout(),
		WriteTimeout:   cfg.Server().WriteTimeout(),
		IdleTimeout:    cfg.Server().IdleTimeout(),
		MaxHeaderBytes: cfg.Server().MaxHeaderBytes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", log.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server().ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited gracefully")
}

func newLogger(cfg config.Config) (log.Logger, error) {
	lc := log.DefaultConfig()
	lc.Level = cfg.Logger().Level()
	lc.Format = cfg.Logger().Format()
	lc.OutputPath = cfg.Logger().OutputPath()
	lc.FileMaxSizeInMB = cfg.Logger().MaxFileSizeMB()
	lc.FileMaxAgeInDays = cfg.Logger().MaxFileAgeDays()
	lc.FileMaxBackups = cfg.Logger().MaxBackupFiles()
	lc.CompressRotated = cfg.Logger().IsCompressEnabled()
	lc.ServiceName = cfg.App().Name()
	lc.Version = cfg.App().Version()
	lc.Environment = cfg.App().Environment()
	if cfg.App().IsProduction() {
		lc.DisableStacktrace = true
	}
	return log.NewZapLogger(lc)
}

func newCache(cfg config.Config, logger cache.Logger) (cache.Client, error) {
	return cache.New(cache.Provider(cfg.Cache().Provider()), cache.Config{
		Host:          cfg.Redis().Host(),
		Port:          cfg.Redis().Port(),
		Password:      cfg.Redis().Password(),
		DB:            cfg.Redis().DB(),
		DefaultWindow: cfg.Cache().DefaultTTL(),
	}, logger)
}

func issueToken(ctx context.Context, repo *userRepo.UserRepository, jwt *common.JWTProvider, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := repo.FindOne(ctx, &domain.UserFilter{Email: &email}, nil)
	if err != nil {
		return "", err
	}
	return jwt.Generate(user.ID)
}

func healthHandler(db *gorm.DB, counters cache.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err == nil {
			err = counters.Ping(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "timestamp": time.Now().Unix()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().Unix()})
	}
}
