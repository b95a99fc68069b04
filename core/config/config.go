package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"duet-api/core/logger"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret      string `mapstructure:"jwt_secret"`
	InternalAPIKey string `mapstructure:"internal_api_key"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type JobsConfig struct {
	// Cron specs consumed by the asynq periodic scheduler.
	ProcessQueuesSpec string `mapstructure:"process_queues_spec"`
	SendRemindersSpec string `mapstructure:"send_reminders_spec"`
}

// VenueConfig is one candidate venue for an event type.
type VenueConfig struct {
	Name     string   `mapstructure:"name"`
	Address  string   `mapstructure:"address"`
	Location string   `mapstructure:"location"`
	Photos   []string `mapstructure:"photos"`
}

// EventTemplateConfig describes one configured event template. Templates and
// venues are static configuration, not user data; they are loaded once and
// handed to the event module as a read-only provider.
type EventTemplateConfig struct {
	EventType   string        `mapstructure:"event_type"`
	Title       string        `mapstructure:"title"`
	Description string        `mapstructure:"description"`
	Category    string        `mapstructure:"category"`
	Location    string        `mapstructure:"location"`
	Photos      []string      `mapstructure:"photos"`
	GroupSize   int           `mapstructure:"group_size"`
	Venue       *VenueConfig  `mapstructure:"venue"`
	Venues      []VenueConfig `mapstructure:"venues"`
}

type EventsConfig struct {
	Templates []EventTemplateConfig `mapstructure:"templates"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Events   EventsConfig   `mapstructure:"events"`
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads config.yaml (working directory or ./config) plus environment
// overrides and caches the result for Get/GetSafe.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Warn("config file not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	mu.Lock()
	instance = &cfg
	mu.Unlock()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "duet")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")

	v.SetDefault("jobs.process_queues_spec", "@every 5m")
	v.SetDefault("jobs.send_reminders_spec", "@every 15m")
}

// Get returns the loaded config. It panics when called before Load; use
// GetSafe where startup ordering is not guaranteed.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("config.Get called before config.Load")
	}
	return instance
}

// GetSafe returns the loaded config and whether Load has run.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
