package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	AI       AIConfig       `mapstructure:"ai"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type StorageConfig struct {
	UploadPath     string `mapstructure:"upload_path"`
	RetentionHours int    `mapstructure:"retention_hours"`
	SweepSchedule  string `mapstructure:"sweep_schedule"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AnalysisConfig carries the analytic tuning constants. These were
// hard-coded in earlier revisions; they change behavior deterministically
// and are deliberately configuration now.
type AnalysisConfig struct {
	// TablesPath optionally points at a YAML file overriding the
	// built-in counter mappings and threshold table.
	TablesPath string `mapstructure:"tables_path"`

	// SeverityDeviation is the relative deviation above which a
	// threshold violation is classified high instead of medium.
	SeverityDeviation float64 `mapstructure:"severity_deviation"`

	Outlier OutlierConfig `mapstructure:"outlier"`
	Drift   DriftConfig   `mapstructure:"drift"`
}

type OutlierConfig struct {
	Trees         int     `mapstructure:"trees"`
	SubSample     int     `mapstructure:"sub_sample"`
	Contamination float64 `mapstructure:"contamination"`
	Seed          int64   `mapstructure:"seed"`
}

type DriftConfig struct {
	// Significance is the per-KPI normalized deviation above which a
	// KPI is listed as a parameter of interest.
	Significance float64 `mapstructure:"significance"`
	// FullScale is the mean normalized deviation that maps to a drift
	// score of 1.0; larger means are clamped.
	FullScale float64 `mapstructure:"full_scale"`
	Epsilon   float64 `mapstructure:"epsilon"`
}

// AIConfig contains LLM provider configuration for the summary and NLQ
// collaborators. The core analysis never depends on these.
type AIConfig struct {
	AllowCloud bool   `mapstructure:"allow_cloud"`
	Provider   string `mapstructure:"provider"`
	APIKey     string `mapstructure:"api_key"`
	URL        string `mapstructure:"url"`
	Model      string `mapstructure:"model"`
	MaxTokens  int    `mapstructure:"max_tokens"`
	Timeout    string `mapstructure:"timeout"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("storage.upload_path", "RCA_UPLOAD_PATH")
	viper.BindEnv("analysis.tables_path", "RCA_TABLES_PATH")
	viper.BindEnv("ai.allow_cloud", "RCA_ALLOW_CLOUD")
	viper.BindEnv("ai.api_key", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine, defaults plus env cover everything.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "production")

	viper.SetDefault("database.path", "./data/ranalyzer.db")
	viper.SetDefault("database.migrations_path", "./migrations")
	viper.SetDefault("database.max_connections", 10)

	viper.SetDefault("storage.upload_path", "./data/uploads")
	viper.SetDefault("storage.retention_hours", 24)
	viper.SetDefault("storage.sweep_schedule", "@hourly")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("analysis.tables_path", "")
	viper.SetDefault("analysis.severity_deviation", 0.20)
	viper.SetDefault("analysis.outlier.trees", 100)
	viper.SetDefault("analysis.outlier.sub_sample", 256)
	viper.SetDefault("analysis.outlier.contamination", 0.10)
	viper.SetDefault("analysis.outlier.seed", 42)
	viper.SetDefault("analysis.drift.significance", 2.0)
	viper.SetDefault("analysis.drift.full_scale", 4.0)
	viper.SetDefault("analysis.drift.epsilon", 1e-6)

	viper.SetDefault("ai.allow_cloud", false)
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.url", "https://api.openai.com/v1")
	viper.SetDefault("ai.model", "gpt-4o")
	viper.SetDefault("ai.max_tokens", 500)
	viper.SetDefault("ai.timeout", "30s")
}
