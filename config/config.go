package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Log     LogConfig     `mapstructure:"log"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	HealthAddress  string `mapstructure:"health_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type GameConfig struct {
	CodeLength        int           `mapstructure:"code_length"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	MaxUsernameLength int           `mapstructure:"max_username_length"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ArchiveConfig controls where finished game results are written. Live
// games are never persisted.
type ArchiveConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // gorm or sql
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.health_address", ":8082")
	v.SetDefault("server.metrics_address", ":9090")

	v.SetDefault("game.code_length", 6)
	v.SetDefault("game.idle_timeout", 30*time.Minute)
	v.SetDefault("game.sweep_interval", 60*time.Second)
	v.SetDefault("game.max_username_length", 20)

	v.SetDefault("log.level", "info")

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.driver", "gorm")
	v.SetDefault("archive.postgres.host", "localhost")
	v.SetDefault("archive.postgres.port", 5432)
	v.SetDefault("archive.postgres.user", "trivia")
	v.SetDefault("archive.postgres.dbname", "trivia")
}

// LoadConfig reads config.yaml from path, overlays TRIVIA_* environment
// variables and fills in defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("trivia")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Game.CodeLength < 4 {
		return errors.New("game.code_length must be at least 4")
	}
	if c.Game.IdleTimeout <= 0 {
		return errors.New("game.idle_timeout must be positive")
	}
	if c.Game.SweepInterval <= 0 {
		return errors.New("game.sweep_interval must be positive")
	}
	if c.Game.MaxUsernameLength <= 0 {
		return errors.New("game.max_username_length must be positive")
	}
	if c.Archive.Enabled && c.Archive.Driver != "gorm" && c.Archive.Driver != "sql" {
		return errors.New("archive.driver must be gorm or sql")
	}
	return nil
}
