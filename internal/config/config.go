// Package config loads pantry settings from an optional YAML file, PANTRY_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configFileName = "pantry"
	configFileType = "yaml"
	envPrefix      = "PANTRY"

	KeyBackend       = "store.backend"
	KeyBadgerPath    = "store.badger_path"
	KeySQLitePath    = "store.sqlite_path"
	KeyMySQLDSN      = "store.mysql_dsn"
	KeyRedisAddr     = "store.redis_addr"
	KeyRedisPassword = "store.redis_password"
	KeyRedisDB       = "store.redis_db"
	KeyHTTPAddr      = "http.addr"
	KeyGRPCAddr      = "grpc.addr"
	KeyLogLevel      = "log.level"
	KeyLogDev        = "log.development"
)

// Backends accepted for store.backend.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

type Config struct {
	Store StoreConfig `mapstructure:"store"`
	HTTP  HTTPConfig  `mapstructure:"http"`
	GRPC  GRPCConfig  `mapstructure:"grpc"`
	Log   LogConfig   `mapstructure:"log"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	// BadgerPath is a directory; empty or ":memory:" keeps data in memory.
	BadgerPath    string `mapstructure:"badger_path"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MySQLDSN      string `mapstructure:"mysql_dsn"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// New returns a viper instance with defaults, environment binding and, when
// present, the config file. path may name a file explicitly; otherwise
// pantry.yaml is looked up in the working directory. A missing file is not an error.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// Decode unmarshals v and validates the result.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load is New followed by Decode.
func Load(path string) (Config, error) {
	v, err := New(path)
	if err != nil {
		return Config{}, err
	}
	return Decode(v)
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendBadger, BackendSQLite:
	case BackendMySQL:
		if c.Store.MySQLDSN == "" {
			return fmt.Errorf("store.mysql_dsn is required for the mysql backend")
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackend, BackendBadger)
	v.SetDefault(KeyBadgerPath, "")
	v.SetDefault(KeySQLitePath, "pantry.db")
	v.SetDefault(KeyMySQLDSN, "")
	v.SetDefault(KeyRedisAddr, "localhost:6379")
	v.SetDefault(KeyRedisPassword, "")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyGRPCAddr, ":50051")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogDev, false)
}
