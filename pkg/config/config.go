package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type ProviderConfig struct {
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`
	PublicKeyURL  string `mapstructure:"PUBLIC_KEY_URL"`
	ChatProxyURL  string `mapstructure:"CHAT_PROXY_URL"`
	ChatToken     string `mapstructure:"CHAT_TOKEN"`
}

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConn     int           `mapstructure:"MAX_OPEN_CONN"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Webhook struct {
		ReplayWindow time.Duration `mapstructure:"REPLAY_WINDOW"`
	} `mapstructure:"WEBHOOK"`
	Providers map[string]ProviderConfig `mapstructure:"PROVIDERS"`
	Outbox    struct {
		PollInterval    time.Duration `mapstructure:"POLL_INTERVAL"`
		BatchSize       int           `mapstructure:"BATCH_SIZE"`
		MaxSendAttempts int           `mapstructure:"MAX_SEND_ATTEMPTS"`
		StaleWindow     time.Duration `mapstructure:"STALE_WINDOW"`
		SendTimeout     time.Duration `mapstructure:"SEND_TIMEOUT"`
		LeaseTTL        time.Duration `mapstructure:"LEASE_TTL"`
		SendsPerSecond  float64       `mapstructure:"SENDS_PER_SECOND"`
		Concurrency     int           `mapstructure:"CONCURRENCY"`
	} `mapstructure:"OUTBOX"`
	Command struct {
		CacheTTL time.Duration `mapstructure:"CACHE_TTL"`
	} `mapstructure:"COMMAND"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// A config file is optional; env vars alone are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "memealerts-eventplane")

	v.SetDefault("HTTP_SERVER.ADDR", ":8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 60*time.Second)

	v.SetDefault("REDIS.ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS.POOL_SIZE", 10)
	v.SetDefault("REDIS.POOL_TIMEOUT", 30*time.Second)

	v.SetDefault("WEBHOOK.REPLAY_WINDOW", 10*time.Minute)

	v.SetDefault("OUTBOX.POLL_INTERVAL", 2*time.Second)
	v.SetDefault("OUTBOX.BATCH_SIZE", 25)
	v.SetDefault("OUTBOX.MAX_SEND_ATTEMPTS", 3)
	v.SetDefault("OUTBOX.STALE_WINDOW", 60*time.Second)
	v.SetDefault("OUTBOX.SEND_TIMEOUT", 5*time.Second)
	v.SetDefault("OUTBOX.LEASE_TTL", 30*time.Second)
	v.SetDefault("OUTBOX.SENDS_PER_SECOND", 10)
	v.SetDefault("OUTBOX.CONCURRENCY", 10)

	v.SetDefault("COMMAND.CACHE_TTL", 30*time.Second)
}
