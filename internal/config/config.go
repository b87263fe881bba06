package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Twitch   TwitchConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type TwitchConfig struct {
	ClientID     string        `envconfig:"TWITCH_CLIENT_ID" required:"true"`
	ClientSecret string        `envconfig:"TWITCH_CLIENT_SECRET" required:"true"`
	TokenURL     string        `envconfig:"TWITCH_TOKEN_URL" default:"https://id.twitch.tv/oauth2/token"`
	APIURL       string        `envconfig:"TWITCH_API_URL" default:"https://api.twitch.tv/helix"`
	HTTPTimeout  time.Duration `envconfig:"TWITCH_HTTP_TIMEOUT" default:"10s"`
}

type DatabaseConfig struct {
	Host            string        `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port            int           `envconfig:"POSTGRES_PORT" default:"5432"`
	User            string        `envconfig:"POSTGRES_USER" default:"vodsearch"`
	Password        string        `envconfig:"POSTGRES_PASSWORD" default:"vodsearch"`
	DBName          string        `envconfig:"POSTGRES_DB" default:"vodsearch"`
	SSLMode         string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxConns        int32         `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
	MinConns        int32         `envconfig:"POSTGRES_MIN_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POSTGRES_CONN_MAX_IDLE_TIME" default:"30m"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type CacheConfig struct {
	AutocompleteTTL time.Duration `envconfig:"CACHE_AUTOCOMPLETE_TTL" default:"5m"`
	GameIDTTL       time.Duration `envconfig:"CACHE_GAME_ID_TTL" default:"1h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
