package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/Rendezvous/internal/adapters/rtc"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type RateLimit struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	Window        time.Duration `mapstructure:"window"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	LogLevel   string        `mapstructure:"log_level"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	TLSCert        string   `mapstructure:"tls_cert"`
	TLSKey         string   `mapstructure:"tls_key"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// TrustedProxies may set the client address through X-Forwarded-For.
	// Empty means the TCP peer address is always used.
	TrustedProxies []string `mapstructure:"trusted_proxies"`

	RateLimit      RateLimit     `mapstructure:"rate_limit"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	JoinTimeout    time.Duration `mapstructure:"join_timeout"`
	MessagesPerSec float64       `mapstructure:"messages_per_sec"`
	MessageBurst   int           `mapstructure:"message_burst"`
	AuditFile      string        `mapstructure:"audit_file"`

	ICEServers []rtc.ICEServer `mapstructure:"ice_servers"`
}

func (c *Config) TLSEnabled() bool { return c.TLSCert != "" && c.TLSKey != "" }

func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads configuration into v, which may already carry bound
// command-line flags. Precedence: flags, SIGNAL_* env, file, defaults.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := v.GetString("config_file")
	if fileName == "" {
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("SIGNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8443)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("trusted_proxies", []string{})
	v.SetDefault("rate_limit.max_attempts", 5)
	v.SetDefault("rate_limit.window", "60s")
	v.SetDefault("rate_limit.sweep_interval", "5m")
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("join_timeout", "10s")
	v.SetDefault("messages_per_sec", 50)
	v.SetDefault("message_burst", 100)
	v.SetDefault("audit_file", "")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Bool("tls", cfg.TLSEnabled()).
		Int("max_attempts", cfg.RateLimit.MaxAttempts).
		Dur("window", cfg.RateLimit.Window).
		Msg("config")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	if c.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("rate_limit.max_attempts must be positive, got %d", c.RateLimit.MaxAttempts)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window)
	}
	return nil
}
