package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	LogFile   string          `mapstructure:"log_file"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Reporting ReportingConfig `mapstructure:"reporting"`
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

type AgentConfig struct {
	Token             string        `mapstructure:"token"`
	Block             bool          `mapstructure:"block"`
	Serverless        bool          `mapstructure:"serverless"`
	Env               string        `mapstructure:"env"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	Workers           int           `mapstructure:"workers"`
	QueueSize         int           `mapstructure:"queue_size"`
}

type ReportingConfig struct {
	// Transport is "http", "kafka" or "none".
	Transport            string        `mapstructure:"transport"`
	Endpoint             string        `mapstructure:"endpoint"`
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxEventsPerInterval int           `mapstructure:"max_events_per_interval"`
	Interval             time.Duration `mapstructure:"interval"`
	SharedWindow         bool          `mapstructure:"shared_window"`
	BreakerMaxFailures   uint32        `mapstructure:"breaker_max_failures"`
	BreakerTimeout       time.Duration `mapstructure:"breaker_timeout"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	AdminPort   int    `mapstructure:"admin_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	SecretKey   string `mapstructure:"secret_key"`
	// AdminTokenTTL bounds tokens issued for the admin API.
	AdminTokenTTL time.Duration `mapstructure:"admin_token_ttl"`
}

type MetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	EnableSinkCalls bool `mapstructure:"enable_sink_calls"`
	EnableReports   bool `mapstructure:"enable_reports"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type KafkaConfig struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Topic string `mapstructure:"topic"`
}

var globalConfig Config

func Load(configPath string) error {
	v := viper.New()
	setDefaultValues(v)
	if err := loadConfigFile(v, configPath, "config", &globalConfig); err != nil {
		return fmt.Errorf("could not load main config file: %w", err)
	}
	return nil
}

func loadConfigFile(v *viper.Viper, configPath, fileName string, out interface{}) error {
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}
	return nil
}

// Defaults are registered on viper so AutomaticEnv can override every key
// even without a config file.
func setDefaultValues(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("agent.block", false)
	v.SetDefault("agent.heartbeat_interval", 10*time.Minute)
	v.SetDefault("agent.workers", 2)
	v.SetDefault("agent.queue_size", 1000)
	v.SetDefault("agent.token", "")
	v.SetDefault("agent.serverless", false)
	v.SetDefault("agent.env", "production")
	v.SetDefault("reporting.transport", "none")
	v.SetDefault("reporting.endpoint", "")
	v.SetDefault("reporting.timeout", 5*time.Second)
	v.SetDefault("reporting.max_events_per_interval", 100)
	v.SetDefault("reporting.interval", time.Hour)
	v.SetDefault("reporting.shared_window", false)
	v.SetDefault("reporting.breaker_max_failures", 5)
	v.SetDefault("reporting.breaker_timeout", 30*time.Second)
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.admin_port", 4001)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.secret_key", "")
	v.SetDefault("server.admin_token_ttl", 24*time.Hour)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.enable_sink_calls", true)
	v.SetDefault("metrics.enable_reports", true)
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.host", "")
	v.SetDefault("kafka.port", "9092")
	v.SetDefault("kafka.topic", "trustshield.events")
}

func GetConfig() *Config {
	return &globalConfig
}
