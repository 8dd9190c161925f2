package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

const (
	defaultPort         = 8080
	defaultGRPCPort     = 50051
	defaultWebhookPath  = "/"
	defaultScheme       = "https"
	defaultProvider     = "libretranslate"
	defaultRedisPrefix  = "translatron"
	defaultKafkaTopic   = "translatron.messages"
	defaultMinIOBucket  = "translatron"
	defaultMinIOPrefix  = "sms"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultActionLogger = "log"
)

// reservedPaths are served by the HTTP server itself and cannot host the webhook.
var reservedPaths = []string{"/health", "/metrics"}

// Load reads configuration from path, falling back to $TRANSLATRON_CONFIG.
// A missing path means defaults only. Environment variables override file
// values, then defaults fill whatever is still unset.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(envConfigPath)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	setList := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = parseCSV(v)
		}
	}

	setList(envTargetLanguages, &c.Languages)
	setList(envActions, &c.Actions)
	setString(envTranslatorProvider, &c.Translator.Provider)
	setString(envTranslatorURL, &c.Translator.BaseURL)
	setString(envTranslatorAPIKey, &c.Translator.APIKey)

	setString(envTwilioAccountSID, &c.Twilio.AccountSID)
	setString(envTwilioAuthToken, &c.Twilio.Token)
	setString(envTwilioNumber, &c.Twilio.Number)

	if v, ok := lookup(envUserInfo); ok && strings.TrimSpace(v) != "" {
		var users UserDirectory
		if err := json.Unmarshal([]byte(v), &users); err != nil {
			return fmt.Errorf("parse %s: %w", envUserInfo, err)
		}
		c.Users = users
	}

	setString(envRedisAddr, &c.Redis.Addr)
	setString(envRedisPassword, &c.Redis.Password)
	if v, ok := lookup(envRedisDB); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", envRedisDB, err)
		}
		c.Redis.DB = db
	}

	setList(envKafkaBrokers, &c.Kafka.Brokers)
	setString(envKafkaTopic, &c.Kafka.Topic)

	setString(envMinIOEndpoint, &c.MinIO.Endpoint)
	setString(envMinIOAccessKey, &c.MinIO.AccessKey)
	setString(envMinIOSecretKey, &c.MinIO.SecretKey)
	setString(envMinIOBucket, &c.MinIO.Bucket)
	if v, ok := lookup(envMinIOUseTLS); ok && v != "" {
		useTLS, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", envMinIOUseTLS, err)
		}
		c.MinIO.UseTLS = useTLS
	}

	setString(envLogLevel, &c.Logging.Level)
	setString(envLogFormat, &c.Logging.Format)
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = defaultGRPCPort
	}
	if c.Server.WebhookPath == "" {
		c.Server.WebhookPath = defaultWebhookPath
	}
	if c.Server.PublicScheme == "" {
		c.Server.PublicScheme = defaultScheme
	}
	if c.Translator.Provider == "" {
		c.Translator.Provider = defaultProvider
	}
	if len(c.Actions) == 0 {
		c.Actions = []string{defaultActionLogger}
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = defaultRedisPrefix
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = defaultKafkaTopic
	}
	if c.MinIO.Bucket == "" {
		c.MinIO.Bucket = defaultMinIOBucket
	}
	if c.MinIO.Prefix == "" {
		c.MinIO.Prefix = defaultMinIOPrefix
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

// Validate checks values that would otherwise fail at request time.
// Backend-specific requirements are checked when actions are built.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d out of range", c.Server.GRPCPort)
	}
	if !strings.HasPrefix(c.Server.WebhookPath, "/") {
		return fmt.Errorf("server.webhook_path %q must start with /", c.Server.WebhookPath)
	}
	if slices.Contains(reservedPaths, c.Server.WebhookPath) {
		return fmt.Errorf("server.webhook_path %q is reserved", c.Server.WebhookPath)
	}
	switch c.Server.PublicScheme {
	case "http", "https":
	default:
		return fmt.Errorf("server.public_scheme %q must be http or https", c.Server.PublicScheme)
	}
	for _, lang := range c.Languages {
		if lang == "" {
			return fmt.Errorf("languages: empty language code")
		}
	}
	for number, members := range c.Users {
		for phone, info := range members {
			if info.Lang == "" {
				return fmt.Errorf("users[%s][%s]: lang is required", number, phone)
			}
		}
	}
	return nil
}

// parseCSV splits a comma-separated list, trimming blanks and dropping
// empty entries.
func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
