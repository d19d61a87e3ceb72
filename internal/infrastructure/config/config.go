package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const envPrefix = "FOLIO_"

type Config struct {
	App struct {
		Name string `toml:"name"`
		Env  string `toml:"env" validate:"omitempty,oneof=dev prod test"`
	} `toml:"app"`

	Log struct {
		Level      string `toml:"level" validate:"oneof=trace debug info warn error"`
		Pretty     bool   `toml:"pretty"`
		File       string `toml:"file"`
		MaxSizeMB  int    `toml:"max_size_mb" validate:"min=0"`
		MaxBackups int    `toml:"max_backups" validate:"min=0"`
		MaxAgeDays int    `toml:"max_age_days" validate:"min=0"`
	} `toml:"log"`

	HTTP struct {
		Addr         string        `toml:"addr" validate:"required"`
		CORSOrigins  []string      `toml:"cors_origins"`
		ReadTimeout  time.Duration `toml:"read_timeout"`
		WriteTimeout time.Duration `toml:"write_timeout"`
		MaxUploadMB  int64         `toml:"max_upload_mb" validate:"min=1"`
	} `toml:"http"`

	Storage struct {
		Primary string   `toml:"primary" validate:"oneof=csv sqlite postgres memory"`
		Mirrors []string `toml:"mirrors" validate:"dive,oneof=csv sqlite postgres memory"`
	} `toml:"storage"`

	CSV struct {
		TransactionsPath string `toml:"transactions_path"`
	} `toml:"csv"`

	SQLite struct {
		Path string `toml:"path"`
	} `toml:"sqlite"`

	Postgres struct {
		DSN string `toml:"dsn"`
	} `toml:"postgres"`

	Redis struct {
		Enabled  bool          `toml:"enabled"`
		Addr     string        `toml:"addr"`
		Password string        `toml:"password"`
		DB       int           `toml:"db" validate:"min=0"`
		Prefix   string        `toml:"prefix"`
		QuoteTTL time.Duration `toml:"quote_ttl"`
	} `toml:"redis"`

	Names struct {
		Path string `toml:"path"`
	} `toml:"names"`

	Prices struct {
		Sources     []string      `toml:"sources" validate:"min=1,dive,required"`
		CacheTTL    time.Duration `toml:"cache_ttl"`
		Timeout     time.Duration `toml:"timeout"`
		RatePerSec  float64       `toml:"rate_per_sec" validate:"gte=0"`
		Burst       int           `toml:"burst" validate:"gte=0"`
		Concurrency int           `toml:"concurrency" validate:"min=1"`

		Breaker struct {
			MinRequests  uint32        `toml:"min_requests"`
			FailureRatio float64       `toml:"failure_ratio" validate:"gte=0,lte=1"`
			OpenTimeout  time.Duration `toml:"open_timeout"`
		} `toml:"breaker"`
	} `toml:"prices"`

	TWSE struct {
		BaseURL string `toml:"base_url"`
	} `toml:"twse"`

	Yahoo struct {
		BaseURL string `toml:"base_url"`
	} `toml:"yahoo"`

	Sheet struct {
		Source string        `toml:"source"`
		Reload time.Duration `toml:"reload"`
	} `toml:"sheet"`

	Summary struct {
		CacheTTL time.Duration `toml:"cache_ttl"`
	} `toml:"summary"`

	Refresh struct {
		Enabled  bool          `toml:"enabled"`
		Schedule string        `toml:"schedule"`
		Timeout  time.Duration `toml:"timeout"`
	} `toml:"refresh"`

	Stream struct {
		Enabled bool   `toml:"enabled"`
		URL     string `toml:"url"`
	} `toml:"stream"`

	Watch struct {
		SnapshotInterval time.Duration `toml:"snapshot_interval"`
	} `toml:"watch"`
}

// Load 读取 TOML 配置，然后依次应用默认值、环境变量覆盖和校验
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 不读取文件，只返回默认配置
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "folio"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = 28
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxUploadMB <= 0 {
		cfg.HTTP.MaxUploadMB = 10
	}

	if cfg.Storage.Primary == "" {
		cfg.Storage.Primary = "csv"
	}
	if cfg.CSV.TransactionsPath == "" {
		cfg.CSV.TransactionsPath = "stock_transactions.csv"
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "data/folio.db"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "folio"
	}
	if cfg.Redis.QuoteTTL <= 0 {
		cfg.Redis.QuoteTTL = 10 * time.Minute
	}
	if cfg.Names.Path == "" {
		cfg.Names.Path = "stock_names.csv"
	}

	if len(cfg.Prices.Sources) == 0 {
		cfg.Prices.Sources = []string{"twse", "yahoo"}
	}
	if cfg.Prices.CacheTTL <= 0 {
		cfg.Prices.CacheTTL = 10 * time.Minute
	}
	if cfg.Prices.Timeout <= 0 {
		cfg.Prices.Timeout = 10 * time.Second
	}
	if cfg.Prices.RatePerSec <= 0 {
		cfg.Prices.RatePerSec = 3
	}
	if cfg.Prices.Burst <= 0 {
		cfg.Prices.Burst = 5
	}
	if cfg.Prices.Concurrency <= 0 {
		cfg.Prices.Concurrency = 4
	}
	if cfg.Prices.Breaker.MinRequests == 0 {
		cfg.Prices.Breaker.MinRequests = 5
	}
	if cfg.Prices.Breaker.FailureRatio <= 0 {
		cfg.Prices.Breaker.FailureRatio = 0.6
	}
	if cfg.Prices.Breaker.OpenTimeout <= 0 {
		cfg.Prices.Breaker.OpenTimeout = 30 * time.Second
	}

	if cfg.TWSE.BaseURL == "" {
		cfg.TWSE.BaseURL = "https://mis.twse.com.tw"
	}
	if cfg.Yahoo.BaseURL == "" {
		cfg.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Sheet.Reload <= 0 {
		cfg.Sheet.Reload = time.Minute
	}

	if cfg.Summary.CacheTTL <= 0 {
		cfg.Summary.CacheTTL = time.Minute
	}
	if cfg.Refresh.Schedule == "" {
		cfg.Refresh.Schedule = "0 */5 * * * *"
	}
	if cfg.Refresh.Timeout <= 0 {
		cfg.Refresh.Timeout = 45 * time.Second
	}
	if cfg.Watch.SnapshotInterval <= 0 {
		cfg.Watch.SnapshotInterval = time.Minute
	}
}

// applyEnv 用 FOLIO_* 环境变量覆盖敏感信息和地址
func applyEnv(cfg *Config) error {
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Storage.Primary, "STORAGE_PRIMARY")
	setString(&cfg.CSV.TransactionsPath, "CSV_TRANSACTIONS_PATH")
	setString(&cfg.SQLite.Path, "SQLITE_PATH")
	setString(&cfg.Postgres.DSN, "POSTGRES_DSN")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Sheet.Source, "SHEET_SOURCE")

	if v, ok := lookupEnv("REDIS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_ENABLED: %w", envPrefix, err)
		}
		cfg.Redis.Enabled = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := lookupEnv(key); ok {
		*dst = v
	}
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

var structValidator = validator.New()

func validate(cfg *Config) error {
	cfg.Storage.Primary = strings.ToLower(strings.TrimSpace(cfg.Storage.Primary))
	cfg.Storage.Mirrors = normalizeNames(cfg.Storage.Mirrors)
	cfg.Prices.Sources = normalizeNames(cfg.Prices.Sources)

	if err := structValidator.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for _, backend := range cfg.Backends() {
		switch backend {
		case "postgres":
			if cfg.Postgres.DSN == "" {
				return errors.New("postgres.dsn empty but postgres storage selected")
			}
		}
	}
	for _, m := range cfg.Storage.Mirrors {
		if m == cfg.Storage.Primary {
			return fmt.Errorf("storage.mirrors contains primary backend %q", m)
		}
	}
	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("redis.addr empty but enabled")
	}
	if cfg.Stream.Enabled && strings.TrimSpace(cfg.Stream.URL) == "" {
		return errors.New("stream.url empty but enabled")
	}
	for _, s := range cfg.Prices.Sources {
		if s == "sheet" && strings.TrimSpace(cfg.Sheet.Source) == "" {
			return errors.New("sheet.source empty but sheet price source enabled")
		}
	}
	return nil
}

// Backends 主存储在前，镜像在后
func (c *Config) Backends() []string {
	out := make([]string, 0, 1+len(c.Storage.Mirrors))
	out = append(out, c.Storage.Primary)
	return append(out, c.Storage.Mirrors...)
}

func normalizeNames(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToLower(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
