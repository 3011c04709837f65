package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stride_backend/internal/config"
	"stride_backend/internal/controller"
	"stride_backend/internal/repository"
	"stride_backend/internal/service"
	"stride_backend/pkg/configwatcher"
	"stride_backend/pkg/database"
	"stride_backend/pkg/logger"
	"stride_backend/pkg/monitoring"
	"stride_backend/pkg/security"
	"stride_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	goal       *repository.GoalRepository
	progress   *repository.ProgressRepository
	event      *repository.AcademicEventRepository
	commitment *repository.CommitmentRepository
	energy     *repository.EnergyRepository
	profile    *repository.ProfileRepository
}

type services struct {
	goal      *service.GoalService
	retroplan *service.RetroplanService
	calendar  *service.CalendarService
	energy    *service.EnergyService
	profile   *service.ProfileService
	jobs      *service.JobService
}

type controllers struct {
	goal      *controller.GoalController
	retroplan *controller.RetroplanController
	calendar  *controller.CalendarController
	energy    *controller.EnergyController
	profile   *controller.ProfileController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// applyConfig 配置文件变更后依次通知回调
func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
	logger.Log.Info("Config reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		goal:       repository.NewGoalRepository(db),
		progress:   repository.NewProgressRepository(db),
		event:      repository.NewAcademicEventRepository(db),
		commitment: repository.NewCommitmentRepository(db),
		energy:     repository.NewEnergyRepository(db),
		profile:    repository.NewProfileRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.retroplan = service.NewRetroplanService(
		repos.goal,
		repos.event,
		repos.commitment,
		repos.energy,
		repos.profile,
		rdb,
		cfg.Scheduler,
	)
	s.goal = service.NewGoalService(repos.goal, repos.progress, s.retroplan)
	s.calendar = service.NewCalendarService(repos.event, repos.commitment)
	s.energy = service.NewEnergyService(repos.energy, s.retroplan)
	s.profile = service.NewProfileService(repos.profile)
	s.jobs = service.NewJobService(repos.goal, s.goal, s.retroplan, cfg.Jobs)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.retroplan.UpdateSettings(newCfg.Scheduler)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		goal:      controller.NewGoalController(s.goal),
		retroplan: controller.NewRetroplanController(s.retroplan),
		calendar:  controller.NewCalendarController(s.calendar),
		energy:    controller.NewEnergyController(s.energy),
		profile:   controller.NewProfileController(s.profile),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if maxRequests > 0 && window > 0 {
		router.Use(security.RateLimiter(maxRequests, window))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	if cfg.Jobs.Enabled {
		if err := s.jobs.Start(); err != nil {
			logger.Log.Error("Failed to start background jobs", zap.Error(err))
		}
	}
}

// NewApp 完整启动：日志、数据库、可选 Redis、路由、后台任务、配置热更新
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// release 模式默认不自动迁移，需要 -migrate 显式开启
	if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
		if err := database.AutoMigrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			// 缓存不是必需的，降级为每次重新计算
			logger.Log.Warn("Redis unavailable, retroplan cache disabled", zap.Error(err))
			rdb = nil
		}
	}
	app.Redis = rdb

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	app.Router = app.buildRouter(cfg, db, rdb)
	app.startBackgroundTasks(app.services, cfg)

	return app
}

// buildRouter 装配仓储、服务、控制器和路由；测试里直接用它构造引擎
func (a *App) buildRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	repos := a.initRepositories(db)
	a.services = a.initServices(repos, cfg, rdb)
	controllers := a.initControllers(a.services, db, rdb)

	router := gin.New()
	router.Use(gin.Recovery())
	a.setupMiddlewares(router, cfg)
	a.registerRoutes(router, controllers, cfg)
	return router
}

func (a *App) Run(configDir string) {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 配置热更新
	go configwatcher.WatchConfig(filepath.Join(configDir, "config.yaml"), func(newCfg *config.Config) {
		a.applyConfig(newCfg)
	})

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.services != nil && a.Config.Jobs.Enabled {
		a.services.jobs.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
