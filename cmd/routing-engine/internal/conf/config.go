package conf

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Nacos         NacosConfig         `mapstructure:"nacos"`
	Routing       RoutingConfig       `mapstructure:"routing"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	MetricsPort     int           `mapstructure:"metrics_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置（画像存储）
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DBName          string        `mapstructure:"dbname"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// NacosConfig Nacos 配置中心（提供商表热更新）
type NacosConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Port      uint64 `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Group     string `mapstructure:"group"`
	DataID    string `mapstructure:"data_id"`
}

// ProviderConfig 提供商条目
type ProviderConfig struct {
	Name         string   `mapstructure:"name" json:"name"`
	Capabilities []string `mapstructure:"capabilities" json:"capabilities"`
	DefaultModel string   `mapstructure:"default_model" json:"default_model"`
	Priority     int      `mapstructure:"priority" json:"priority"`
	Enabled      bool     `mapstructure:"enabled" json:"enabled"`
	HealthURL    string   `mapstructure:"health_url" json:"health_url"`
}

// RoutingConfig 路由引擎配置
type RoutingConfig struct {
	CacheTTL              time.Duration    `mapstructure:"cache_ttl"`
	CacheMaxSize          int              `mapstructure:"cache_max_size"`
	ProbeTimeout          time.Duration    `mapstructure:"probe_timeout"`
	ProbeFailureThreshold int              `mapstructure:"probe_failure_threshold"`
	ProbeRecoveryTimeout  time.Duration    `mapstructure:"probe_recovery_timeout"`
	FailureMeansUnhealthy bool             `mapstructure:"failure_means_unhealthy"`
	ProfileLookupTimeout  time.Duration    `mapstructure:"profile_lookup_timeout"`
	RateLimitWindow       time.Duration    `mapstructure:"rate_limit_window"`
	RateLimitMaxCalls     int              `mapstructure:"rate_limit_max_calls"`
	DecisionLogCapacity   int              `mapstructure:"decision_log_capacity"`
	Providers             []ProviderConfig `mapstructure:"providers"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTExpiry time.Duration `mapstructure:"jwt_expiry"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	Environment    string  `mapstructure:"environment"`
	OTELEndpoint   string  `mapstructure:"otel_endpoint"`
	EnableTrace    bool    `mapstructure:"enable_trace"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
	LogLevel       string  `mapstructure:"log_level"`
	LogFormat      string  `mapstructure:"log_format"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("routing-engine")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	// 自动从环境变量读取
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时依赖默认值与环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// 从环境变量覆盖敏感配置
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if endpoint := os.Getenv("OTEL_ENDPOINT"); endpoint != "" {
		config.Observability.OTELEndpoint = endpoint
	}

	return &config, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.dbname", "kire")
	v.SetDefault("database.user", "kire")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")

	v.SetDefault("nacos.enabled", false)
	v.SetDefault("nacos.addr", "localhost")
	v.SetDefault("nacos.port", 8848)
	v.SetDefault("nacos.group", "DEFAULT_GROUP")
	v.SetDefault("nacos.data_id", "routing-providers")

	v.SetDefault("routing.cache_ttl", "5m")
	v.SetDefault("routing.cache_max_size", 10000)
	v.SetDefault("routing.probe_timeout", "2s")
	v.SetDefault("routing.probe_failure_threshold", 5)
	v.SetDefault("routing.probe_recovery_timeout", "60s")
	v.SetDefault("routing.failure_means_unhealthy", false)
	v.SetDefault("routing.profile_lookup_timeout", "2s")
	v.SetDefault("routing.rate_limit_window", "1m")
	v.SetDefault("routing.rate_limit_max_calls", 100)
	v.SetDefault("routing.decision_log_capacity", 10000)

	v.SetDefault("auth.jwt_expiry", "1h")

	v.SetDefault("observability.service_name", "routing-engine")
	v.SetDefault("observability.service_version", "1.0.0")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.otel_endpoint", "localhost:4317")
	v.SetDefault("observability.enable_trace", false)
	v.SetDefault("observability.sampling_rate", 1.0)
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")
}
