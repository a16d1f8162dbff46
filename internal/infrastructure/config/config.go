package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
}

// AppConfig identifies the service and where it listens.
type AppConfig struct {
	Name string
	Env  string
	Port string
	// CallbackBaseURL is the externally reachable base URL of this server,
	// used as the prefix of webhook delivery URLs registered on stores
	CallbackBaseURL string
}

// DatabaseConfig describes the PostgreSQL connection and pool limits.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig tunes the gin server.
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// SyncConfig holds synchronization pipeline settings
type SyncConfig struct {
	// BatchSize is the number of storefront records per queue batch
	BatchSize int
	// CommitEvery flushes queue line state to storage after this many
	// lines during a processing run
	CommitEvery int
	// ProductRetryLimit bounds retries of failed product queue lines
	ProductRetryLimit int
	// InventoryRetryLimit bounds retries of failed inventory queue lines
	InventoryRetryLimit int
	// RequestTimeout is the default per-call timeout against store APIs
	RequestTimeout time.Duration
	// PageSize is the number of records requested per store API page
	PageSize int
}

// SchedulerConfig holds background scheduler configuration
type SchedulerConfig struct {
	Enabled          bool
	OrderInterval    time.Duration
	ProductInterval  time.Duration
	CustomerInterval time.Duration
	StockInterval    time.Duration
	QueueInterval    time.Duration
}

// Load reads config.toml and the environment. Environment variables use
// the WC_ prefix (WC_DATABASE_PASSWORD) and override the file, which in
// turn overrides the built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Missing file is fine, defaults and env vars cover it
	}

	v.SetEnvPrefix("WC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:            v.GetString("app.name"),
			Env:             v.GetString("app.env"),
			Port:            v.GetString("app.port"),
			CallbackBaseURL: v.GetString("app.callback_base_url"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Sync: SyncConfig{
			BatchSize:           v.GetInt("sync.batch_size"),
			CommitEvery:         v.GetInt("sync.commit_every"),
			ProductRetryLimit:   v.GetInt("sync.product_retry_limit"),
			InventoryRetryLimit: v.GetInt("sync.inventory_retry_limit"),
			RequestTimeout:      v.GetDuration("sync.request_timeout"),
			PageSize:            v.GetInt("sync.page_size"),
		},
		Scheduler: SchedulerConfig{
			Enabled:          v.GetBool("scheduler.enabled"),
			OrderInterval:    v.GetDuration("scheduler.order_interval"),
			ProductInterval:  v.GetDuration("scheduler.product_interval"),
			CustomerInterval: v.GetDuration("scheduler.customer_interval"),
			StockInterval:    v.GetDuration("scheduler.stock_interval"),
			QueueInterval:    v.GetDuration("scheduler.queue_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills every unset field.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "woocommerce-connector"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "woocommerce"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Sync.BatchSize == 0 {
		cfg.Sync.BatchSize = 50
	}
	if cfg.Sync.CommitEvery == 0 {
		cfg.Sync.CommitEvery = 10
	}
	if cfg.Sync.ProductRetryLimit == 0 {
		cfg.Sync.ProductRetryLimit = 3
	}
	if cfg.Sync.InventoryRetryLimit == 0 {
		cfg.Sync.InventoryRetryLimit = 3
	}
	if cfg.Sync.RequestTimeout == 0 {
		cfg.Sync.RequestTimeout = 30 * time.Second
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 100
	}
	if cfg.Scheduler.OrderInterval == 0 {
		cfg.Scheduler.OrderInterval = 10 * time.Minute
	}
	if cfg.Scheduler.ProductInterval == 0 {
		cfg.Scheduler.ProductInterval = time.Hour
	}
	if cfg.Scheduler.CustomerInterval == 0 {
		cfg.Scheduler.CustomerInterval = time.Hour
	}
	if cfg.Scheduler.StockInterval == 0 {
		cfg.Scheduler.StockInterval = 30 * time.Minute
	}
	if cfg.Scheduler.QueueInterval == 0 {
		cfg.Scheduler.QueueInterval = 5 * time.Minute
	}
}

// validate enforces cross-field constraints before startup.
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync.batch_size must be positive")
	}
	if c.Sync.CommitEvery <= 0 {
		return fmt.Errorf("sync.commit_every must be positive")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN builds the connection URL with credentials escaped.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
