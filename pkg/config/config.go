package config

import (
	"errors"
	"strings"
)

const (
	envConfigPath = "TRANSLATRON_CONFIG"

	envTargetLanguages    = "TARGET_LANGUAGES"
	envTranslatorProvider = "TRANSLATOR_PROVIDER"
	envTranslatorURL      = "TRANSLATOR_URL"
	envTranslatorAPIKey   = "TRANSLATOR_API_KEY"
	envActions            = "TRANSLATRON_ACTIONS"

	envTwilioAccountSID = "TWILIO_ACCOUNT_SID"
	envTwilioAuthToken  = "TWILIO_AUTH_TOKEN"
	envTwilioNumber     = "TWILIO_NUMBER"
	envUserInfo         = "USER_INFO"

	envRedisAddr     = "REDIS_ADDR"
	envRedisPassword = "REDIS_PASSWORD"
	envRedisDB       = "REDIS_DB"

	envKafkaBrokers = "KAFKA_BROKERS"
	envKafkaTopic   = "KAFKA_TOPIC"

	envMinIOEndpoint  = "MINIO_ENDPOINT"
	envMinIOAccessKey = "MINIO_ACCESS_KEY"
	envMinIOSecretKey = "MINIO_SECRET_KEY"
	envMinIOBucket    = "MINIO_BUCKET"
	envMinIOUseTLS    = "MINIO_USE_TLS"

	envLogLevel  = "LOG_LEVEL"
	envLogFormat = "LOG_FORMAT"
)

// ErrMissingAuthToken is returned by AuthToken when no Twilio auth token is configured.
var ErrMissingAuthToken = errors.New(envTwilioAuthToken + " is not set")

// Config is the root runtime configuration.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Translator TranslatorConfig `json:"translator"`
	// Languages are the translation targets, in output order.
	Languages []string `json:"languages"`
	// Actions names the actions to run for every message, in order.
	Actions []string      `json:"actions"`
	Twilio  TwilioConfig  `json:"twilio"`
	Users   UserDirectory `json:"users,omitempty"`
	Redis   RedisConfig   `json:"redis"`
	Kafka   KafkaConfig   `json:"kafka"`
	MinIO   MinIOConfig   `json:"minio"`
	Logging LoggingConfig `json:"logging,omitempty"`
}

// ServerConfig controls the HTTP webhook and gRPC health listeners.
type ServerConfig struct {
	Port     int `json:"port"`
	GRPCPort int `json:"grpc_port"`
	// WebhookPath is where Twilio posts messages. It is also the path the
	// request signature is computed over.
	WebhookPath string `json:"webhook_path"`
	// PublicScheme is the scheme Twilio uses to reach the webhook, which
	// differs from the listener's when TLS ends at a proxy.
	PublicScheme string `json:"public_scheme"`
}

// TranslatorConfig selects and configures the translation backend.
type TranslatorConfig struct {
	Provider      string `json:"provider"`
	BaseURL       string `json:"base_url"`
	APIKey        string `json:"api_key,omitempty"`
	FixedLanguage string `json:"fixed_language,omitempty"`
}

// TwilioConfig holds Twilio account credentials and the messaging number.
type TwilioConfig struct {
	AccountSID string `json:"account_sid"`
	Token      string `json:"auth_token"`
	Number     string `json:"number"`
}

// UserInfo describes one phone in a conversation group.
type UserInfo struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// UserDirectory maps a Twilio number to the phones that share it, keyed by
// phone number.
type UserDirectory map[string]map[string]UserInfo

// RedisConfig configures the record store.
type RedisConfig struct {
	Addr       string `json:"addr"`
	Password   string `json:"password,omitempty"`
	DB         int    `json:"db"`
	KeyPrefix  string `json:"key_prefix"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

// KafkaConfig configures the record stream.
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// MinIOConfig configures the JSON archive bucket.
type MinIOConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	UseTLS    bool   `json:"use_tls"`
	Prefix    string `json:"prefix"`
}

// LoggingConfig controls log output format and verbosity.
type LoggingConfig struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

// AuthToken returns the Twilio auth token used to verify webhook signatures.
func (c TwilioConfig) AuthToken() (string, error) {
	if strings.TrimSpace(c.Token) == "" {
		return "", ErrMissingAuthToken
	}
	return c.Token, nil
}
