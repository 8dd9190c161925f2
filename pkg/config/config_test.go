package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "translatron.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": 9090, "webhook_path": "/sms"},
		"translator": {"provider": "argos", "base_url": "http://argos:5000"},
		"languages": ["en", "es"],
		"actions": ["redis"],
		"twilio": {"auth_token": "file-token"}
	}`)
	t.Setenv(envTargetLanguages, " en, fr ,,fa ")
	t.Setenv(envTwilioAuthToken, "env-token")
	t.Setenv(envConfigPath, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, defaultGRPCPort, cfg.Server.GRPCPort)
	assert.Equal(t, "/sms", cfg.Server.WebhookPath)
	assert.Equal(t, "https", cfg.Server.PublicScheme)
	assert.Equal(t, "argos", cfg.Translator.Provider)
	assert.Equal(t, []string{"en", "fr", "fa"}, cfg.Languages)
	assert.Equal(t, "env-token", cfg.Twilio.Token)
}

func TestLoadUsesConfigPathEnv(t *testing.T) {
	path := writeConfig(t, `{"languages": ["de"]}`)
	t.Setenv(envConfigPath, path)
	t.Setenv(envTargetLanguages, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"de"}, cfg.Languages)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(envConfigPath, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{not json`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"server": {"webhook_path": "sms"}}`))
	assert.ErrorContains(t, err, "webhook_path")
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	err := cfg.applyEnv(mapLookup(map[string]string{
		envActions:          "redis, sms",
		envTwilioAccountSID: "AC123",
		envTwilioNumber:     "+15550000000",
		envUserInfo:         `{"+15550000000": {"+15551111111": {"name": "Ana", "lang": "es"}}}`,
		envRedisDB:          "3",
		envKafkaBrokers:     "k1:9092,k2:9092",
		envMinIOUseTLS:      "true",
		envLogLevel:         "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"redis", "sms"}, cfg.Actions)
	assert.Equal(t, "AC123", cfg.Twilio.AccountSID)
	assert.Equal(t, UserInfo{Name: "Ana", Lang: "es"}, cfg.Users["+15550000000"]["+15551111111"])
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.MinIO.UseTLS)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	for key, value := range map[string]string{
		envUserInfo:    "[]",
		envRedisDB:     "zero",
		envMinIOUseTLS: "maybe",
	} {
		err := (&Config{}).applyEnv(mapLookup(map[string]string{key: value}))
		assert.ErrorContains(t, err, key)
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, "/", cfg.Server.WebhookPath)
	assert.Equal(t, "libretranslate", cfg.Translator.Provider)
	assert.Equal(t, []string{"log"}, cfg.Actions)
	assert.Equal(t, "translatron", cfg.Redis.KeyPrefix)
	assert.Equal(t, "sms", cfg.MinIO.Prefix)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.applyDefaults()
		return cfg
	}

	cfg := base()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Server.PublicScheme = "ftp"
	assert.Error(t, cfg.Validate())

	for _, path := range []string{"/health", "/metrics"} {
		cfg = base()
		cfg.Server.WebhookPath = path
		assert.ErrorContains(t, cfg.Validate(), "reserved", path)
	}

	cfg = base()
	cfg.Server.WebhookPath = "/metrics/sms"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Languages = []string{"en", ""}
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Users = UserDirectory{"+1": {"+2": {Name: "Bo"}}}
	assert.ErrorContains(t, cfg.Validate(), "lang is required")
}

func TestAuthToken(t *testing.T) {
	token, err := TwilioConfig{Token: "secret"}.AuthToken()
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	_, err = TwilioConfig{Token: "  "}.AuthToken()
	assert.ErrorIs(t, err, ErrMissingAuthToken)
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseCSV(" a ,, b,"))
	assert.Empty(t, parseCSV(" , "))
}
