package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Cache      CacheConfig      `mapstructure:"cache"`
	MarketData MarketDataConfig `mapstructure:"market_data"`
	Cron       CronConfig       `mapstructure:"cron"`
	Report     ReportConfig     `mapstructure:"report"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	QuoteTTL      time.Duration `mapstructure:"quote_ttl"`
}

type MarketDataConfig struct {
	Provider string        `mapstructure:"provider"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	PriceRefresh string `mapstructure:"price_refresh"`
	AutoSnapshot string `mapstructure:"auto_snapshot"`
}

type ReportConfig struct {
	Title string `mapstructure:"title"`
}

// AuthConfig gates the gateway bearer check. Off by default so demo mode and
// local runs need no credentials; IT_AUTH_ENABLED=true turns it on.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DemoMode reports whether the service should run against the built-in
// in-memory store and synthetic market data. An absent or placeholder
// database DSN selects demo mode instead of failing at boot.
func (c Config) DemoMode() bool {
	dsn := strings.ToLower(strings.TrimSpace(c.DB.DSN))
	if dsn == "" || dsn == "demo" {
		return true
	}
	return strings.Contains(dsn, "changeme") || strings.Contains(dsn, "<password>")
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.quote_ttl", "60s")
	v.SetDefault("market_data.provider", "yahoo")
	v.SetDefault("market_data.base_url", "https://query2.finance.yahoo.com")
	v.SetDefault("market_data.timeout", "8s")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.price_refresh", "@every 15m")
	v.SetDefault("cron.auto_snapshot", "0 0 22 * * MON-FRI")
	v.SetDefault("report.title", "Portfolio Snapshot Report")
	v.SetDefault("auth.enabled", false)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
