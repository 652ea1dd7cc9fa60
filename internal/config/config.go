package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type StorageConfig struct {
	// Driver selects the store implementation: "memory" or "postgres".
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type RegistrarConfig struct {
	// Principal is the administrative registrar allowed to register
	// doctors, insurers and auditors.
	Principal string `mapstructure:"principal"`
	// KeyHash is the bcrypt hash of the registrar API key. Empty disables
	// the key check; the principal check always applies.
	KeyHash string `mapstructure:"key_hash"`
}

type AuditConfig struct {
	// Admin is the principal allowed to perform the one-time records
	// writer binding.
	Admin string `mapstructure:"admin"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	AlertTo  string `mapstructure:"alert_to"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Registrar RegistrarConfig `mapstructure:"registrar"`
	Audit     AuditConfig     `mapstructure:"audit"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// secretOverrides lets secrets come from the environment instead of the
// config file.
type secretOverrides struct {
	JWTSecret        string `envconfig:"JWT_SECRET"`
	DBPassword       string `envconfig:"DB_PASSWORD"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
	RegistrarKeyHash string `envconfig:"REGISTRAR_KEY_HASH"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets secretOverrides
	if err := envconfig.Process("records", &secrets); err != nil {
		return nil, fmt.Errorf("failed to read env overrides: %w", err)
	}
	if secrets.JWTSecret != "" {
		config.Auth.JWTSecret = secrets.JWTSecret
	}
	if secrets.DBPassword != "" {
		config.Database.Password = secrets.DBPassword
	}
	if secrets.SMTPPassword != "" {
		config.SMTP.Password = secrets.SMTPPassword
	}
	if secrets.RegistrarKeyHash != "" {
		config.Registrar.KeyHash = secrets.RegistrarKeyHash
	}

	return &config, nil
}
