package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Token     TokenConfig
	Password  PasswordConfig
	Client    ClientConfig
	SMTP      SMTPConfig
	MQTT      MQTTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	Environment    string
	MaxRequestSize int64
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// TokenConfig holds one secret and one lifetime per token purpose.
type TokenConfig struct {
	Issuer string

	ActivationSecret string
	AccessSecret     string
	RefreshSecret    string
	ResetSecret      string

	ActivationTTL time.Duration
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

type PasswordConfig struct {
	HashCost int
}

type ClientConfig struct {
	// BaseURL is where emailed links point, e.g. BaseURL + "/reset-password?verify=..."
	BaseURL string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
	AuthRPS      float64 // Credential endpoints: login, register, activate, password recovery
	AuthBurst    int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("MAX_REQUEST_SIZE", 1<<20)

	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("TOKEN_ISSUER", "identity-service")
	v.SetDefault("ACTIVATION_TTL", "5m")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "72h")
	v.SetDefault("RESET_PASSWORD_TTL", "5m")

	v.SetDefault("PASSWORD_HASH_COST", 10)
	v.SetDefault("CLIENT_SIDE_URI", "http://localhost:3000")

	v.SetDefault("SMTP_PORT", 587)

	v.SetDefault("MQTT_CLIENT_ID", "identity-service")
	v.SetDefault("MQTT_TOPIC_PREFIX", "identity/events")

	v.SetDefault("RATE_LIMIT_GENERAL_RPS", 20)
	v.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)
	v.SetDefault("RATE_LIMIT_AUTH_RPS", 1)
	v.SetDefault("RATE_LIMIT_AUTH_BURST", 5)

	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Authorization,accesstoken,refreshtoken,X-Request-ID")
	v.SetDefault("CORS_EXPOSED_HEADERS", "X-Request-ID")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)
	v.SetDefault("CORS_MAX_AGE", "12h")
}

// Load reads ./.env when present and lets environment variables override it.
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			log.Printf("Warning: config file %s not found. Falling back to environment variables only.", path)
		}
	}

	clientURI := strings.TrimRight(v.GetString("CLIENT_SIDE_URI"), "/")

	config := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Host:           v.GetString("SERVER_HOST"),
			Environment:    v.GetString("ENVIRONMENT"),
			MaxRequestSize: v.GetInt64("MAX_REQUEST_SIZE"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			DBName:      v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Token: TokenConfig{
			Issuer:           v.GetString("TOKEN_ISSUER"),
			ActivationSecret: v.GetString("ACTIVATION_SECRET"),
			AccessSecret:     v.GetString("ACCESS_TOKEN_SECRET"),
			RefreshSecret:    v.GetString("REFRESH_TOKEN_SECRET"),
			ResetSecret:      v.GetString("FORGOT_PASSWORD_SECRET"),
			ActivationTTL:    v.GetDuration("ACTIVATION_TTL"),
			AccessTTL:        v.GetDuration("ACCESS_TOKEN_TTL"),
			RefreshTTL:       v.GetDuration("REFRESH_TOKEN_TTL"),
			ResetTTL:         v.GetDuration("RESET_PASSWORD_TTL"),
		},
		Password: PasswordConfig{
			HashCost: v.GetInt("PASSWORD_HASH_COST"),
		},
		Client: ClientConfig{
			BaseURL: clientURI,
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		MQTT: MQTTConfig{
			Broker:      v.GetString("MQTT_BROKER"),
			ClientID:    v.GetString("MQTT_CLIENT_ID"),
			Username:    v.GetString("MQTT_USERNAME"),
			Password:    v.GetString("MQTT_PASSWORD"),
			TopicPrefix: strings.Trim(v.GetString("MQTT_TOPIC_PREFIX"), "/"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   v.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: v.GetInt("RATE_LIMIT_GENERAL_BURST"),
			AuthRPS:      v.GetFloat64("RATE_LIMIT_AUTH_RPS"),
			AuthBurst:    v.GetInt("RATE_LIMIT_AUTH_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods:   splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders:   splitList(v.GetString("CORS_ALLOWED_HEADERS")),
			ExposedHeaders:   splitList(v.GetString("CORS_EXPOSED_HEADERS")),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetDuration("CORS_MAX_AGE"),
		},
	}

	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{clientURI}
	}

	return config, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Host == "" || c.Database.DBName == "" {
		errs = append(errs, errors.New("database configuration is missing: set DB_HOST and DB_NAME"))
	}

	secrets := []struct {
		key   string
		value string
	}{
		{"ACTIVATION_SECRET", c.Token.ActivationSecret},
		{"ACCESS_TOKEN_SECRET", c.Token.AccessSecret},
		{"REFRESH_TOKEN_SECRET", c.Token.RefreshSecret},
		{"FORGOT_PASSWORD_SECRET", c.Token.ResetSecret},
	}
	seen := make(map[string]string, len(secrets))
	for _, s := range secrets {
		if s.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", s.key))
			continue
		}
		if other, dup := seen[s.value]; dup {
			errs = append(errs, fmt.Errorf("%s must differ from %s", s.key, other))
		}
		seen[s.value] = s.key
	}

	ttls := []struct {
		key   string
		value time.Duration
	}{
		{"ACTIVATION_TTL", c.Token.ActivationTTL},
		{"ACCESS_TOKEN_TTL", c.Token.AccessTTL},
		{"REFRESH_TOKEN_TTL", c.Token.RefreshTTL},
		{"RESET_PASSWORD_TTL", c.Token.ResetTTL},
	}
	for _, ttl := range ttls {
		if ttl.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", ttl.key))
		}
	}
	if c.Token.AccessTTL > 0 && c.Token.RefreshTTL <= c.Token.AccessTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL"))
	}

	if u, err := url.Parse(c.Client.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("CLIENT_SIDE_URI must be an absolute URL, got %q", c.Client.BaseURL))
	}

	return errors.Join(errs...)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
