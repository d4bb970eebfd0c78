package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Host: "localhost", DBName: "identity"},
		Token: TokenConfig{
			ActivationSecret: "a",
			AccessSecret:     "b",
			RefreshSecret:    "c",
			ResetSecret:      "d",
			ActivationTTL:    5 * time.Minute,
			AccessTTL:        15 * time.Minute,
			RefreshTTL:       72 * time.Hour,
			ResetTTL:         5 * time.Minute,
		},
		Client: ClientConfig{BaseURL: "http://localhost:3000"},
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "identity-service", cfg.Token.Issuer)
	assert.Equal(t, 5*time.Minute, cfg.Token.ActivationTTL)
	assert.Equal(t, 15*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, 72*time.Hour, cfg.Token.RefreshTTL)
	assert.Equal(t, 5*time.Minute, cfg.Token.ResetTTL)
	assert.Equal(t, 10, cfg.Password.HashCost)
	assert.Equal(t, "http://localhost:3000", cfg.Client.BaseURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, 12*time.Hour, cfg.CORS.MaxAge)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoadFile_ReadsEnvFile(t *testing.T) {
	path := writeEnvFile(t,
		"DB_HOST=db.internal",
		"DB_NAME=identity",
		"ACTIVATION_SECRET=act",
		"ACCESS_TOKEN_SECRET=acc",
		"REFRESH_TOKEN_SECRET=ref",
		"FORGOT_PASSWORD_SECRET=fgt",
		"ACCESS_TOKEN_TTL=1m",
		"CLIENT_SIDE_URI=https://app.example.com/",
		"CORS_ALLOWED_ORIGINS=https://app.example.com, https://admin.example.com",
	)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "act", cfg.Token.ActivationSecret)
	assert.Equal(t, "fgt", cfg.Token.ResetSecret)
	assert.Equal(t, time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, "https://app.example.com", cfg.Client.BaseURL)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_EnvironmentOverridesFile(t *testing.T) {
	path := writeEnvFile(t, "SERVER_PORT=9000", "TOKEN_ISSUER=from-file")
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Token.Issuer)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := []struct {
		name    string
		mutate  func(c *Config)
		message string
	}{
		{"missing database", func(c *Config) { c.Database.Host = "" }, "DB_HOST"},
		{"missing secret", func(c *Config) { c.Token.RefreshSecret = "" }, "REFRESH_TOKEN_SECRET is required"},
		{"shared secret", func(c *Config) { c.Token.ResetSecret = c.Token.AccessSecret }, "FORGOT_PASSWORD_SECRET must differ from ACCESS_TOKEN_SECRET"},
		{"zero ttl", func(c *Config) { c.Token.ActivationTTL = 0 }, "ACTIVATION_TTL must be positive"},
		{"refresh not longer", func(c *Config) { c.Token.RefreshTTL = c.Token.AccessTTL }, "REFRESH_TOKEN_TTL must be longer"},
		{"relative client uri", func(c *Config) { c.Client.BaseURL = "/app" }, "CLIENT_SIDE_URI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", db.DSN())
}
