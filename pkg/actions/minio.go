package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/translatron/pkg/config"
	"github.com/dasmlab/translatron/pkg/translatron"
)

// ObjectPutter is the subset of *minio.Client used by ObjectArchive.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// BucketMaker is the subset of *minio.Client used to create the archive bucket.
type BucketMaker interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// ObjectArchive writes each record to <prefix>/<YYYY-MM-DD>/<message_id>.json.
type ObjectArchive struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *logrus.Logger
}

func NewObjectArchive(client ObjectPutter, cfg config.MinIOConfig, logger *logrus.Logger) *ObjectArchive {
	if logger == nil {
		logger = logrus.New()
	}
	return &ObjectArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger,
	}
}

func (a *ObjectArchive) Name() string { return string(ActionMinIO) }

// EnsureBucket creates the archive bucket if it does not exist.
func (a *ObjectArchive) EnsureBucket(ctx context.Context, mk BucketMaker) error {
	exists, err := mk.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := mk.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket %s: %w", a.bucket, err)
	}
	a.logger.WithField("bucket", a.bucket).Info("Created archive bucket")
	return nil
}

// ObjectName returns the object key for record. Records whose timestamp
// cannot be parsed are filed under the current UTC date.
func (a *ObjectArchive) ObjectName(record *translatron.TextRecord) string {
	ts, err := time.Parse(translatron.TimestampLayout, record.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	return path.Join(a.prefix, ts.UTC().Format("2006-01-02"), record.MessageID+".json")
}

func (a *ObjectArchive) Handle(ctx context.Context, record *translatron.TextRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	name := a.ObjectName(record)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", a.bucket, name, err)
	}

	a.logger.WithFields(logrus.Fields{
		"message_id": record.MessageID,
		"bucket":     a.bucket,
		"object":     name,
	}).Debug("Archived record")
	return nil
}
