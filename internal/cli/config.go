package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// StoreConfig names the backend enact should open its content store on.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "memory" | "file" | "postgres" | "minio"
	Path    string `yaml:"path"`    // FileBackend root
	DSN     string `yaml:"dsn"`     // PgBackend connection string

	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`

	CacheSize int `yaml:"cache_size"` // in-memory LRU layered over Backend, 0 disables
}

// IndexConfig names the SQLite journal index database.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// SchemaConfig names a directory of CUE schema files for validate.
type SchemaConfig struct {
	Dir string `yaml:"dir"`
}

// Config is enact's top-level configuration, loaded from a YAML file and
// then overlaid with environment variables (themselves possibly loaded
// from a .env file), which take precedence over the file.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Index  IndexConfig  `yaml:"index"`
	Schema SchemaConfig `yaml:"schema"`
}

// DefaultConfig returns the configuration used when no config file is
// present and no overrides apply.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{Backend: "memory"},
		Index: IndexConfig{Path: "enact-journal.db"},
	}
}

// LoadConfig reads path (if non-empty and present) as YAML, then applies
// ENACT_*-prefixed environment variables on top, having first loaded
// envFile (if non-empty) into the process environment via godotenv.
func LoadConfig(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("cli: load env file %q: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load() // best effort .env in cwd
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("cli: read config %q: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cli: parse config %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("ENACT_STORE_BACKEND")); v != "" {
		cfg.Store.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("ENACT_STORE_PATH")); v != "" {
		cfg.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("ENACT_STORE_DSN")); v != "" {
		cfg.Store.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("ENACT_MINIO_ENDPOINT")); v != "" {
		cfg.Store.MinioEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("ENACT_MINIO_BUCKET")); v != "" {
		cfg.Store.MinioBucket = v
	}
	if v := strings.TrimSpace(os.Getenv("ENACT_MINIO_ACCESS_KEY")); v != "" {
		cfg.Store.MinioAccessKey = v
	}
	if v := strings.TrimSpace(os.Getenv("ENACT_MINIO_SECRET_KEY")); v != "" {
		cfg.Store.MinioSecretKey = v
	}
	if v := strings.TrimSpace(os.Getenv("ENACT_INDEX_PATH")); v != "" {
		cfg.Index.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("ENACT_SCHEMA_DIR")); v != "" {
		cfg.Schema.Dir = v
	}
}
