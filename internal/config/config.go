package config

import (
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/cache"
	"github.com/satishbabariya/sqlbridge/query/rewrite"
)

var AppFs = afero.NewOsFs()

// Connection is a named database connection.
type Connection struct {
	Type     string `mapstructure:"type"`
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// DatabaseType parses the connection's type field.
func (c Connection) DatabaseType() (query.DatabaseType, error) {
	return query.ParseDatabaseType(c.Type)
}

// Config holds the application configuration
type Config struct {
	AutoLimit         bool
	AutoLimitRows     uint64
	CacheSize         int
	DefaultConnection string
	Connections       map[string]Connection
}

// LoadConfig loads configuration from various sources
func LoadConfig() (*Config, error) {
	// Find home directory
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	// Set config file paths
	viper.SetConfigName(".sqlbridge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "sqlbridge"))

	// Set environment variable prefix
	viper.SetEnvPrefix("SQLBRIDGE")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("auto_limit", true)
	viper.SetDefault("auto_limit_rows", rewrite.DefaultAutoLimit)
	viper.SetDefault("cache_size", cache.DefaultMaxSize)
	viper.SetDefault("default_connection", "")

	// Try to read config file (ignore if not found)
	_ = viper.ReadInConfig()

	// Load .env file if it exists
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	// Load .env.local if it exists (higher priority)
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	cfg := &Config{
		AutoLimit:         viper.GetBool("auto_limit"),
		AutoLimitRows:     viper.GetUint64("auto_limit_rows"),
		CacheSize:         viper.GetInt("cache_size"),
		DefaultConnection: viper.GetString("default_connection"),
		Connections:       map[string]Connection{},
	}
	if err := viper.UnmarshalKey("connections", &cfg.Connections); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Connection resolves a named connection, falling back to the default when
// name is empty.
func (c *Config) Connection(name string) (Connection, bool) {
	if name == "" {
		name = c.DefaultConnection
	}
	conn, ok := c.Connections[strings.ToLower(name)]
	return conn, ok
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config) error {
	viper.Set("auto_limit", cfg.AutoLimit)
	viper.Set("auto_limit_rows", cfg.AutoLimitRows)
	viper.Set("cache_size", cfg.CacheSize)
	viper.Set("default_connection", cfg.DefaultConnection)
	viper.Set("connections", cfg.Connections)

	home, err := homedir.Dir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(home, ".config", "sqlbridge")
	if err := AppFs.MkdirAll(configPath, 0755); err != nil {
		return err
	}

	configFile := filepath.Join(configPath, ".sqlbridge.yaml")
	return viper.WriteConfigAs(configFile)
}
