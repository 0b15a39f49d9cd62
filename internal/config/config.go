package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Workers   WorkersConfig   `mapstructure:"workers"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Environment string `mapstructure:"environment"`
	Port        string `mapstructure:"port"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WhatsAppConfig struct {
	Token         string        `mapstructure:"token"`
	PhoneNumberID string        `mapstructure:"phone_number_id"`
	TemplateName  string        `mapstructure:"template_name"`
	TemplateLang  string        `mapstructure:"template_lang"`
	GraphVersion  string        `mapstructure:"graph_version"`
	SenderName    string        `mapstructure:"sender_name"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// QueueConfig supplies throughput defaults used when the rate_limit_config
// table is empty, plus the retry ceiling applied to new queue rows.
// ErrorThreshold and CircuitBreakDuration are recognized but carry no
// processor behavior.
type QueueConfig struct {
	MessagesPerSecond    int           `mapstructure:"messages_per_second"`
	BatchSize            int           `mapstructure:"batch_size"`
	BatchDelayMs         int           `mapstructure:"batch_delay_ms"`
	RetryDelayBaseMs     int           `mapstructure:"retry_delay_base_ms"`
	RetryDelayMaxMs      int           `mapstructure:"retry_delay_max_ms"`
	MaxRetries           int           `mapstructure:"max_retries"`
	ErrorThreshold       int           `mapstructure:"error_threshold"`
	CircuitBreakDuration time.Duration `mapstructure:"circuit_break_duration"`
}

type WorkersConfig struct {
	ProcessInterval time.Duration `mapstructure:"process_interval"`
	StaleTimeout    time.Duration `mapstructure:"stale_timeout"`
}

type AuthConfig struct {
	SigningKey      string        `mapstructure:"signing_key"`
	AdminUsername   string        `mapstructure:"admin_username"`
	AdminPassword   string        `mapstructure:"admin_password"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("WSP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

func setDefaults() {
	viper.SetDefault("server.port", ":8080")
	viper.SetDefault("server.environment", "dev")

	viper.SetDefault("whatsapp.template_name", "shipment_notification")
	viper.SetDefault("whatsapp.template_lang", "es_CO")
	viper.SetDefault("whatsapp.graph_version", "v19.0")
	viper.SetDefault("whatsapp.sender_name", "Import Corporal Medical")
	viper.SetDefault("whatsapp.timeout", 15*time.Second)

	viper.SetDefault("queue.messages_per_second", 80)
	viper.SetDefault("queue.batch_size", 20)
	viper.SetDefault("queue.batch_delay_ms", 250)
	viper.SetDefault("queue.retry_delay_base_ms", 1000)
	viper.SetDefault("queue.retry_delay_max_ms", 60000)
	viper.SetDefault("queue.max_retries", 3)
	viper.SetDefault("queue.error_threshold", 10)
	viper.SetDefault("queue.circuit_break_duration", 5*time.Minute)

	viper.SetDefault("workers.process_interval", 30*time.Second)
	viper.SetDefault("workers.stale_timeout", 10*time.Minute)

	viper.SetDefault("auth.access_token_ttl", 15*time.Minute)
	viper.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)

	viper.SetDefault("ratelimit.requests_per_second", 5)
}
