// Package config handles application configuration.
package config

import (
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config defines the structure for all harness configuration.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Source   SourceConfig   `yaml:"source"`
	Database DBConfig       `yaml:"database"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Training TrainingConfig `yaml:"training"`
	Output   OutputConfig   `yaml:"output"`
}

// SourceConfig selects where examples are read from.
type SourceConfig struct {
	// Kind is "postgres" or "csv".
	Kind string `yaml:"kind"`
	// CSVPath is the aggregated pickups export used when Kind is "csv".
	CSVPath string `yaml:"csv_path"`
}

// DBConfig holds Postgres connection settings. All fields can be overridden
// from the environment.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// URL renders the connection settings as a database URL.
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// DatasetConfig holds the split and streaming parameters.
type DatasetConfig struct {
	TableName string `yaml:"table_name"`
	// Size is the total number of examples; 0 means derive it by counting
	// the source table.
	Size           int64   `yaml:"size"`
	TrainFraction  float64 `yaml:"train_fraction"`
	TrainBatchSize int     `yaml:"train_batch_size"`
}

// TrainingConfig holds training diagnostics parameters.
type TrainingConfig struct {
	// TopFeatures is how many best/worst feature weights to report after a
	// fit, when the regressor exposes coefficients.
	TopFeatures int `yaml:"top_features"`
}

// OutputConfig holds result export settings.
type OutputConfig struct {
	// ResultsCSV is an optional path for the per-example results export.
	ResultsCSV string `yaml:"results_csv"`
}

// LoadConfig loads configuration from the specified YAML file path and
// environment variables.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{
		// Default values
		LogLevel: "info",
		Source:   SourceConfig{Kind: "postgres"},
		Database: DBConfig{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
		Dataset: DatasetConfig{
			TableName:      "pickups_aggregated",
			TrainFraction:  0.7,
			TrainBatchSize: 100,
		},
		Training: TrainingConfig{TopFeatures: 15},
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, err
	}

	// Load sensitive data and overrides from environment variables
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		cfg.Database.Port = dbPort
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		cfg.Database.Password = dbPassword
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.Name = dbName
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level %q is not a valid level: %w", c.LogLevel, err)
	}
	if c.Source.Kind != "postgres" && c.Source.Kind != "csv" {
		return fmt.Errorf("source kind must be \"postgres\" or \"csv\", got %q", c.Source.Kind)
	}
	if c.Source.Kind == "csv" && c.Source.CSVPath == "" {
		return fmt.Errorf("source kind csv requires csv_path")
	}
	if c.Dataset.TrainFraction <= 0 || c.Dataset.TrainFraction > 1 {
		return fmt.Errorf("dataset train_fraction must be in (0, 1], got %v", c.Dataset.TrainFraction)
	}
	if c.Dataset.Size < 0 {
		return fmt.Errorf("dataset size must be non-negative, got %d", c.Dataset.Size)
	}
	if c.Dataset.TrainBatchSize < 1 {
		return fmt.Errorf("dataset train_batch_size must be at least 1, got %d", c.Dataset.TrainBatchSize)
	}
	if c.Dataset.TableName == "" {
		return fmt.Errorf("dataset table_name must not be empty")
	}
	return nil
}
