package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"RankPulse/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	SERanking struct {
		APIKey         string        `yaml:"api_key"`
		BaseURL        string        `yaml:"base_url"`
		EngineID       int           `yaml:"engine_id"`
		MinInterval    time.Duration `yaml:"min_interval"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		PollInterval   time.Duration `yaml:"poll_interval"`
		PollTimeout    time.Duration `yaml:"poll_timeout"`
		MaxRetries     int           `yaml:"max_retries"`
		RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
		RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`
	} `yaml:"seranking"`
	Cache struct {
		Enabled bool   `yaml:"enabled"`
		Prefix  string `yaml:"prefix"`
		Version string `yaml:"version"`
		Redis   struct {
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			PoolSize     int           `yaml:"pool_size"`
			PoolTimeout  time.Duration `yaml:"pool_timeout"`
			MinIdleConns int           `yaml:"min_idle_conns"`
		} `yaml:"redis"`
		TTL map[string]time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Analysis struct {
		TopN             int     `yaml:"top_n"`
		MinHistoryPoints int     `yaml:"min_history_points"`
		ZScoreMedium     float64 `yaml:"z_score_medium"`
		ZScoreHigh       float64 `yaml:"z_score_high"`
	} `yaml:"analysis"`
	Report struct {
		Domain      string   `yaml:"domain"`
		Market      string   `yaml:"market"`
		Keywords    []string `yaml:"keywords"`
		Competitors []string `yaml:"competitors"`
	} `yaml:"report"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SERANKING_API_KEY"); v != "" {
		c.SERanking.APIKey = v
	}
	if v := os.Getenv("TARGET_DOMAIN"); v != "" {
		c.Report.Domain = v
	}
	if v := os.Getenv("KEYWORDS"); v != "" {
		c.Report.Keywords = strings.Split(v, ",")
	}
	if v := os.Getenv("COMPETITOR_DOMAINS"); v != "" {
		c.Report.Competitors = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.Cache.Redis.Port = util.ParseIntDefault(v, c.Cache.Redis.Port)
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10 * time.Minute
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.SERanking.BaseURL == "" {
		c.SERanking.BaseURL = "https://api.seranking.com/v1"
	}
	if c.SERanking.EngineID <= 0 {
		c.SERanking.EngineID = 368 // Google UK desktop
	}
	if c.SERanking.MinInterval <= 0 {
		c.SERanking.MinInterval = 100 * time.Millisecond
	}
	if c.SERanking.RequestTimeout <= 0 {
		c.SERanking.RequestTimeout = 300 * time.Second
	}
	if c.SERanking.PollInterval <= 0 {
		c.SERanking.PollInterval = time.Second
	}
	if c.SERanking.PollTimeout <= 0 {
		c.SERanking.PollTimeout = 300 * time.Second
	}
	if c.SERanking.MaxRetries <= 0 {
		c.SERanking.MaxRetries = 5
	}
	if c.SERanking.RetryBaseDelay <= 0 {
		c.SERanking.RetryBaseDelay = time.Second
	}
	if c.SERanking.RetryMaxDelay <= 0 {
		c.SERanking.RetryMaxDelay = 30 * time.Second
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "seo"
	}
	if c.Cache.Version == "" {
		c.Cache.Version = "v1.0"
	}
	if c.Analysis.TopN <= 0 {
		c.Analysis.TopN = 10
	}
	if c.Analysis.MinHistoryPoints <= 0 {
		c.Analysis.MinHistoryPoints = 7
	}
	if c.Analysis.ZScoreMedium <= 0 {
		c.Analysis.ZScoreMedium = 2.0
	}
	if c.Analysis.ZScoreHigh <= 0 {
		c.Analysis.ZScoreHigh = 3.0
	}
	if c.Report.Market == "" {
		c.Report.Market = "uk"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.SERanking.APIKey == "" && os.Getenv("SERANKING_API_KEY") == "" {
		return fmt.Errorf("seranking.api_key is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}
	return nil
}

// CacheTTL returns the configured TTL for a query type, falling back to the
// built-in policy when the config omits it.
func (c *Config) CacheTTL(queryType string) time.Duration {
	if ttl, ok := c.Cache.TTL[queryType]; ok && ttl > 0 {
		return ttl
	}
	switch queryType {
	case "rankings", "competitor_rankings":
		return time.Hour
	case "keyword_metrics", "competitor_summary":
		return 24 * time.Hour
	case "backlinks":
		return 12 * time.Hour
	default:
		return 30 * time.Minute
	}
}
