package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/translatron/pkg/config"
	"github.com/dasmlab/translatron/pkg/translatron"
)

const redisTimeout = 5 * time.Second

// RedisClient is the subset of *redis.Client used by RedisStore.
type RedisClient interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// NewRedisClient opens a client for cfg. Connections are established on
// first use.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  redisTimeout,
		ReadTimeout:  redisTimeout,
		WriteTimeout: redisTimeout,
	})
}

// RedisStore persists records as JSON under <prefix>:message:<id> and
// appends each id to the <prefix>:conversation:<conversation_id> list.
// Both writes share one MULTI, and with a TTL set the list expires along
// with its newest message.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRedisStore(client RedisClient, cfg config.RedisConfig, logger *logrus.Logger) *RedisStore {
	if logger == nil {
		logger = logrus.New()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "translatron"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
		logger: logger,
	}
}

func (s *RedisStore) Name() string { return string(ActionRedis) }

// MessageKey returns the key a record is stored under.
func (s *RedisStore) MessageKey(messageID string) string {
	return fmt.Sprintf("%s:message:%s", s.prefix, messageID)
}

// ConversationKey returns the key of the list of message ids in a conversation.
func (s *RedisStore) ConversationKey(conversationID string) string {
	return fmt.Sprintf("%s:conversation:%s", s.prefix, conversationID)
}

func (s *RedisStore) Handle(ctx context.Context, record *translatron.TextRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	key := s.MessageKey(record.MessageID)
	convKey := s.ConversationKey(record.ConversationID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, s.ttl)
		pipe.RPush(ctx, convKey, record.MessageID)
		if s.ttl > 0 {
			pipe.Expire(ctx, convKey, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store %s: %w", key, err)
	}

	s.logger.WithFields(logrus.Fields{
		"message_id": record.MessageID,
		"key":        key,
		"list":       convKey,
		"bytes":      len(payload),
	}).Debug("Stored record in Redis")
	return nil
}
