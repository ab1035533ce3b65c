package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// CatalogConfig controls where the bundled corpus comes from and how
// queries are paged.
type CatalogConfig struct {
	// BundledSource is empty for the embedded dataset, a file path, or
	// s3://bucket/key.
	BundledSource  string        `mapstructure:"bundled_source"`
	MediaPath      string        `mapstructure:"media_path"`
	TaxonomyPath   string        `mapstructure:"taxonomy_path"`
	PageSize       int           `mapstructure:"page_size"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	Watch          bool          `mapstructure:"watch"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // file or mongo
	Path   string `mapstructure:"path"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig guards the custom exercise mutation routes. An empty secret
// leaves them open.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

const (
	StoreDriverFile  = "file"
	StoreDriverMongo = "mongo"
)

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// No file; defaults and env vars only.
		err = nil
	} else if err != nil {
		return
	}

	// Duration strings ("275ms", "10s") decode straight into time.Duration.
	err = v.Unmarshal(&config)
	if err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("catalog.bundled_source", "")
	v.SetDefault("catalog.media_path", "")
	v.SetDefault("catalog.taxonomy_path", "")
	v.SetDefault("catalog.page_size", 50)
	v.SetDefault("catalog.search_debounce", "275ms")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.path", "custom_exercises.json")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "exercise_catalog")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
}
