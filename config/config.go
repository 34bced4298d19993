package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Heatmapflow HeatmapflowConfig `yaml:"heatmapflow"`
	Source      SourceConfig      `yaml:"source"`
	Details     DetailsConfig     `yaml:"details"`
	Output      OutputConfig      `yaml:"output"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type HeatmapflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// SourceConfig drives the browser extraction of the heatmap page.
type SourceConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Market       string        `yaml:"market"`
	Screener     string        `yaml:"screener"`
	Group        string        `yaml:"group"`
	SizeBy       string        `yaml:"size_by"`
	Headless     bool          `yaml:"headless"`
	WaitSelector string        `yaml:"wait_selector"`
	WaitTimeout  time.Duration `yaml:"wait_timeout"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
	WindowWidth  int           `yaml:"window_width"`
	WindowHeight int           `yaml:"window_height"`
	UserAgent    string        `yaml:"user_agent"`
	ChromePath   string        `yaml:"chrome_path"`
}

// DetailsConfig configures the auxiliary per-symbol scanner lookup.
type DetailsConfig struct {
	URL       string        `yaml:"url"`
	Fields    []string      `yaml:"fields"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type OutputConfig struct {
	Dir        string        `yaml:"dir"`
	HTML       string        `yaml:"html"`
	NoDataHTML string        `yaml:"no_data_html"`
	CSV        string        `yaml:"csv"`
	Title      string        `yaml:"title"`
	SymbolURL  string        `yaml:"symbol_url"`
	Parquet    ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	File        string `yaml:"file"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
	Dashboard string `yaml:"dashboard"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// Default returns the built-in configuration. Every run works without a config file.
func Default() *Config {
	return &Config{
		Heatmapflow: HeatmapflowConfig{
			Name:    "heatmapflow",
			Version: "1.0.0",
		},
		Source: SourceConfig{
			BaseURL:      "https://www.tradingview.com",
			Market:       "stock",
			Screener:     "america",
			Group:        "sector",
			SizeBy:       "market_cap_basic",
			Headless:     true,
			WaitSelector: ".heatmap-container",
			WaitTimeout:  20 * time.Second,
			SettleDelay:  5 * time.Second,
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Details: DetailsConfig{
			URL:       "https://scanner.tradingview.com/symbol",
			Fields:    []string{"name", "close", "change", "change_abs", "volume", "market_cap_basic"},
			Timeout:   30 * time.Second,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
		Output: OutputConfig{
			HTML:       "heatmap_output.html",
			NoDataHTML: "heatmap_no_data.html",
			CSV:        "heatmap_data.csv",
			Title:      "Stock Market Heatmap",
			SymbolURL:  "https://www.tradingview.com/symbols/",
			Parquet: ParquetConfig{
				File:        "heatmap_data.parquet",
				Compression: "snappy",
			},
		},
		Storage: StorageConfig{
			S3: S3Config{Prefix: "heatmaps"},
		},
		Metrics: MetricsConfig{
			CloudWatch: CloudWatchConfig{
				Namespace: "Heatmapflow",
				Dashboard: "Heatmapflow",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// LoadConfig overlays the YAML file at path onto Default, applies environment
// overrides and validates the result. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(config)

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("HEATMAP_MARKET"); v != "" {
		config.Source.Market = strings.TrimSpace(v)
	}
	if v := os.Getenv("HEATMAP_SCREENER"); v != "" {
		config.Source.Screener = strings.TrimSpace(v)
	}
	if v := os.Getenv("HEATMAP_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			config.Source.Headless = b
		}
	}
	if v := os.Getenv("HEATMAP_CHROME_PATH"); v != "" {
		config.Source.ChromePath = strings.TrimSpace(v)
	}

	// S3 settings from environment variables when available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Heatmapflow.Name == "" {
		return fmt.Errorf("heatmapflow.name is required")
	}

	if cfg.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if cfg.Source.Market == "" {
		return fmt.Errorf("source.market is required")
	}
	if cfg.Source.Screener == "" {
		return fmt.Errorf("source.screener is required")
	}
	if cfg.Source.WaitSelector == "" {
		return fmt.Errorf("source.wait_selector is required")
	}
	if cfg.Source.WaitTimeout <= 0 {
		return fmt.Errorf("source.wait_timeout must be greater than 0")
	}
	if cfg.Source.SettleDelay < 0 {
		return fmt.Errorf("source.settle_delay must not be negative")
	}

	if cfg.Output.HTML == "" {
		return fmt.Errorf("output.html is required")
	}
	if cfg.Output.NoDataHTML == "" {
		return fmt.Errorf("output.no_data_html is required")
	}
	if cfg.Output.CSV == "" {
		return fmt.Errorf("output.csv is required")
	}
	if cfg.Output.Parquet.Enabled && cfg.Output.Parquet.File == "" {
		return fmt.Errorf("output.parquet.file is required when parquet is enabled")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
