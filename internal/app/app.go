package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formcraft_backend/internal/config"
	"formcraft_backend/internal/controller"
	"formcraft_backend/internal/repository"
	"formcraft_backend/internal/service"
	"formcraft_backend/pkg/configwatcher"
	"formcraft_backend/pkg/database"
	"formcraft_backend/pkg/logger"
	"formcraft_backend/pkg/monitoring"
	"formcraft_backend/pkg/security"
	"formcraft_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Services        *Services
	origins         *security.OriginList
	rateLimit       *security.RateLimit
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	template *repository.TemplateRepository
	form     *repository.FormRepository
}

// Services 也供命令行工具（seed、fill）直接使用
type Services struct {
	Auth       *service.AuthService
	User       *service.UserService
	Template   *service.TemplateService
	Form       *service.FormService
	Statistics *service.StatisticsService
	Storage    *service.StorageService
}

type controllers struct {
	auth     *controller.AuthController
	template *controller.TemplateController
	form     *controller.FormController
	user     *controller.UserController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置文件变化后依次执行已注册的回调
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		template: repository.NewTemplateRepository(db),
		form:     repository.NewFormRepository(db),
	}
}

func newServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *Services {
	s := &Services{}

	s.Storage = service.NewStorageService(cfg)
	s.Auth = service.NewAuthService(repos.user, cfg)
	s.User = service.NewUserService(repos.user)
	s.Statistics = service.NewStatisticsService(repos.form, rdb, cfg.Statistics.CacheTTL())
	s.Template = service.NewTemplateService(repos.template, s.User, s.Statistics)
	s.Form = service.NewFormService(repos.form, s.Template, s.Statistics)

	return s
}

// NewServices rdb 可以为 nil，此时统计不走缓存
func NewServices(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Services {
	return newServices(initRepositories(db), cfg, rdb)
}

func initControllers(s *Services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.Auth, s.User),
		template: controller.NewTemplateController(s.Template, s.Storage),
		form:     controller.NewFormController(s.Form),
		user:     controller.NewUserController(s.User),
		health:   controller.NewHealthController(db, rdb),
	}
}

// rateLimitOf 未配置时默认每分钟 6000 次
func rateLimitOf(cfg *config.Config) (int, time.Duration) {
	maxRequests, window := cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute
	if maxRequests <= 0 || window <= 0 {
		maxRequests, window = 6000, time.Minute
	}
	return maxRequests, window
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(a.origins))
	router.Use(security.Secure())

	router.Use(a.rateLimit.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// Connect 打开数据库和（可选的）redis，按需迁移
func Connect(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, nil, fmt.Errorf("initialize database: %w", err)
	}

	// release 模式默认不自动迁移
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	if !cfg.Redis.Enabled {
		return db, nil, nil
	}
	rdb, err := database.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		// 缓存不可用时统计直接计算
		logger.Log.Warn("Redis unavailable, statistics cache disabled", zap.Error(err))
		return db, nil, nil
	}
	return db, rdb, nil
}

// New 组装路由，不负责连接外部资源；测试中直接传入内存 sqlite
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	gin.SetMode(cfg.Server.Mode)

	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		origins: security.NewOriginList(cfg.CORS.AllowedOrigins),
	}
	app.rateLimit = security.NewRateLimit(rateLimitOf(cfg))

	repos := initRepositories(db)
	app.Services = newServices(repos, cfg, rdb)
	controllers := initControllers(app.Services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == "debug" {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.origins.Update(newCfg.CORS.AllowedOrigins)
		logger.Log.Info("CORS origins updated", zap.Strings("origins", newCfg.CORS.AllowedOrigins))

		maxRequests, window := rateLimitOf(newCfg)
		app.rateLimit.Update(maxRequests, window)
		logger.Log.Info("Rate limit updated", zap.Int("max_requests", maxRequests), zap.Duration("window", window))
	})

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, rdb, err := Connect(context.Background(), cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize storage", zap.Error(err))
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("formcraft", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

// Run configFile 非空时监听配置变更
func (a *App) Run(configFile string) {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	if configFile != "" {
		go func() {
			err := configwatcher.WatchConfig(watchCtx, configFile, a.ApplyConfig)
			if err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(ctx)

	logger.Log.Info("Server exiting")
	logger.Log.Sync()
}

func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
