package config

import (
	"fmt"
	"time"

	"stride_backend/internal/scheduler"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Jobs      JobsConfig      `mapstructure:"jobs"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// DatabaseConfig driver 为 mysql 时使用 host/port 等字段，为 sqlite 时只看 sqlite_path
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	Charset    string
	ParseTime  bool   `mapstructure:"parsetime"`
	SQLitePath string `mapstructure:"sqlite_path"`
	Debug      bool
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
	ServiceName       string `mapstructure:"service_name"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SchedulerConfig 计划算法的可调参数，热更新后推给 RetroplanService
type SchedulerConfig struct {
	Capacity         scheduler.CapacityConfig `mapstructure:"capacity"`
	Debt             scheduler.DebtConfig     `mapstructure:"debt"`
	Comeback         scheduler.ComebackConfig `mapstructure:"comeback"`
	FrontLoadPercent float64                  `mapstructure:"front_load_percent"`
	DebtReliefWeeks  int                      `mapstructure:"debt_relief_weeks"`
	CacheTTLMinutes  int                      `mapstructure:"cache_ttl_minutes"`
}

// JobsConfig cron 表达式（带秒）
type JobsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Timezone    string `mapstructure:"timezone"`
	EnergySweep string `mapstructure:"energy_sweep"`
	GoalStarter string `mapstructure:"goal_starter"`
}

// Settings 转换成 scheduler 使用的参数，未配置的字段取默认值
func (s SchedulerConfig) Settings() scheduler.Settings {
	out := scheduler.DefaultSettings()
	out.Capacity = s.Capacity
	out.Debt = s.Debt
	out.Comeback = s.Comeback
	if s.FrontLoadPercent > 0 {
		out.FrontLoadPercent = s.FrontLoadPercent
	}
	if s.DebtReliefWeeks > 0 {
		out.DebtReliefWeeks = s.DebtReliefWeeks
	}
	return out
}

func (s SchedulerConfig) CacheTTL() time.Duration {
	if s.CacheTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.CacheTTLMinutes) * time.Minute
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("STRIDE")
	v.AutomaticEnv()

	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")
	v.BindEnv("database.sqlite_path", "DATABASE_SQLITE_PATH")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}
	if cfg.Scheduler.FrontLoadPercent < 0 || cfg.Scheduler.FrontLoadPercent > scheduler.MaxFrontLoadPercent {
		return nil, fmt.Errorf("scheduler.front_load_percent must be within [0, %.0f]", scheduler.MaxFrontLoadPercent)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite_path", "data/stride.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("tracing.service_name", "stride-planner")
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("jobs.timezone", "UTC")
	v.SetDefault("jobs.energy_sweep", "0 0 8 * * MON")
	v.SetDefault("jobs.goal_starter", "0 5 0 * * *")

	// 计划参数逐项给默认值，只覆盖部分字段时其余字段不会变成 0
	capacity := scheduler.DefaultCapacityConfig()
	v.SetDefault("scheduler.capacity.total_weekly_hours", capacity.TotalWeeklyHours)
	v.SetDefault("scheduler.capacity.sleep_hours_weekly", capacity.SleepHoursWeekly)
	v.SetDefault("scheduler.capacity.study_hours_weekly", capacity.StudyHoursWeekly)
	v.SetDefault("scheduler.capacity.reference_weekly_hours", capacity.ReferenceWeeklyHours)
	v.SetDefault("scheduler.capacity.min_capacity_score", capacity.MinCapacityScore)
	v.SetDefault("scheduler.capacity.energy_window", capacity.EnergyWindow)
	v.SetDefault("scheduler.capacity.energy_decay", capacity.EnergyDecay)
	v.SetDefault("scheduler.capacity.energy_floor", capacity.EnergyFloor)
	v.SetDefault("scheduler.capacity.energy_ceiling", capacity.EnergyCeiling)
	v.SetDefault("scheduler.capacity.energy_horizon_weeks", capacity.EnergyHorizonWeeks)
	debt := scheduler.DefaultDebtConfig()
	v.SetDefault("scheduler.debt.low_energy_threshold", debt.LowEnergyThreshold)
	v.SetDefault("scheduler.debt.max_history", debt.MaxHistory)
	comeback := scheduler.DefaultComebackConfig()
	v.SetDefault("scheduler.comeback.low_threshold", comeback.LowThreshold)
	v.SetDefault("scheduler.comeback.recovered_threshold", comeback.RecoveredThreshold)
	v.SetDefault("scheduler.comeback.recent_low_threshold", comeback.RecentLowThreshold)
	v.SetDefault("scheduler.comeback.max_history", comeback.MaxHistory)
}
