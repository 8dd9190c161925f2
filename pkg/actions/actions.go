// Package actions provides the post-translation actions that receive every
// completed TextRecord: structured logging, Redis storage, a Kafka stream,
// a MinIO archive and SMS forwarding through Twilio.
package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/translatron/pkg/config"
	"github.com/dasmlab/translatron/pkg/translatron"
)

// ActionType names an action that can be enabled in configuration.
type ActionType string

const (
	ActionLog   ActionType = "log"
	ActionRedis ActionType = "redis"
	ActionKafka ActionType = "kafka"
	ActionMinIO ActionType = "minio"
	ActionSMS   ActionType = "sms"
)

// ParseActionType resolves a configured action name, case-insensitively.
func ParseActionType(s string) (ActionType, error) {
	switch t := ActionType(strings.ToLower(strings.TrimSpace(s))); t {
	case ActionLog, ActionRedis, ActionKafka, ActionMinIO, ActionSMS:
		return t, nil
	default:
		return "", fmt.Errorf("unknown action %q (supported: log, redis, kafka, minio, sms)", s)
	}
}

// Set is the ordered list of configured actions together with the clients
// they own.
type Set struct {
	Actions []translatron.Action
	closers []io.Closer
}

// Close releases every backend client opened by Build.
func (s *Set) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build constructs the actions named in cfg.Actions, in order. Clients are
// created lazily by their libraries except the MinIO bucket, which is
// created here if missing.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Set, error) {
	if logger == nil {
		logger = logrus.New()
	}

	set := &Set{}
	seen := make(map[ActionType]bool, len(cfg.Actions))
	for _, name := range cfg.Actions {
		t, err := ParseActionType(name)
		if err != nil {
			_ = set.Close()
			return nil, err
		}
		if seen[t] {
			_ = set.Close()
			return nil, fmt.Errorf("action %q listed more than once", t)
		}
		seen[t] = true

		action, closer, err := build(ctx, t, cfg, logger)
		if err != nil {
			_ = set.Close()
			return nil, fmt.Errorf("build %s action: %w", t, err)
		}
		set.Actions = append(set.Actions, action)
		if closer != nil {
			set.closers = append(set.closers, closer)
		}

		logger.WithField("action", t).Info("Action enabled")
	}
	return set, nil
}

func build(ctx context.Context, t ActionType, cfg *config.Config, logger *logrus.Logger) (translatron.Action, io.Closer, error) {
	switch t {
	case ActionLog:
		return NewLogRecord(logger), nil, nil

	case ActionRedis:
		if cfg.Redis.Addr == "" {
			return nil, nil, errors.New("redis.addr is required")
		}
		client := NewRedisClient(cfg.Redis)
		return NewRedisStore(client, cfg.Redis, logger), client, nil

	case ActionKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, nil, errors.New("kafka.brokers is required")
		}
		writer := NewKafkaWriter(cfg.Kafka)
		return NewKafkaPublisher(writer, logger), writer, nil

	case ActionMinIO:
		if cfg.MinIO.Endpoint == "" {
			return nil, nil, errors.New("minio.endpoint is required")
		}
		client, err := NewMinIOClient(cfg.MinIO)
		if err != nil {
			return nil, nil, err
		}
		archive := NewObjectArchive(client, cfg.MinIO, logger)
		if err := archive.EnsureBucket(ctx, client); err != nil {
			return nil, nil, err
		}
		return archive, nil, nil

	case ActionSMS:
		if cfg.Twilio.AccountSID == "" {
			return nil, nil, errors.New("twilio.account_sid is required")
		}
		token, err := cfg.Twilio.AuthToken()
		if err != nil {
			return nil, nil, err
		}
		sender := NewTwilioSender(cfg.Twilio.AccountSID, token)
		return NewSMSForwarder(sender, cfg.Users, cfg.Twilio.Number, logger), nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported action %q", t)
}
