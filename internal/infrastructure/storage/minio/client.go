// Package minio mirrors job inputs and result archives to an S3-compatible
// object store and hands out presigned download links.
package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/af3-portal/internal/domain/job"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/pkg/errors"
)

// MinIOAPI is the subset of *minio.Client the mirror uses.
type MinIOAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

type MinIOConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

// ArchiveMirror stores copies of job files and resolves archive links.
type ArchiveMirror interface {
	PutInput(ctx context.Context, dirName string, data []byte) error
	ArchiveURL(ctx context.Context, dirName string) (string, error)
}

var (
	ErrMinIOClientClosed  = errors.New(errors.ErrCodeInternal, "minio client is closed")
	ErrArchiveNotMirrored = errors.New(errors.ErrCodeArchiveNotFound, "archive not found in object store")
)

// MinIOClient is the MinIO-backed ArchiveMirror.
type MinIOClient struct {
	client MinIOAPI
	config *MinIOConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewMinIOClient connects to the object store and makes sure the bucket exists.
func NewMinIOClient(cfg *MinIOConfig, log logging.Logger) (*MinIOClient, error) {
	applyDefaults(cfg)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClient := newWithAPI(client, cfg, log)
	if err := mClient.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	log.Info("MinIO client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return mClient, nil
}

func newWithAPI(api MinIOAPI, cfg *MinIOConfig, log logging.Logger) *MinIOClient {
	applyDefaults(cfg)
	return &MinIOClient{client: api, config: cfg, logger: log}
}

func applyDefaults(cfg *MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "af3-jobs"
	}
	if cfg.PresignExpiry == 0 {
		cfg.PresignExpiry = 15 * time.Minute
	}
}

// EnsureBucket creates the configured bucket when it is missing.
func (c *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, c.config.Bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create bucket").WithDetail("bucket=" + c.config.Bucket)
	}
	c.logger.Info("Created bucket", logging.String("bucket", c.config.Bucket))
	return nil
}

// InputKey is the object key of a job's mirrored input document.
func InputKey(dirName string) string {
	return path.Join(dirName, job.InputFileName)
}

// ArchiveKey is the object key of a job's result archive.
func ArchiveKey(dirName string) string {
	return path.Join(dirName, job.ArchiveName(dirName))
}

// PutInput uploads input.json for the job directory dirName.
func (c *MinIOClient) PutInput(ctx context.Context, dirName string, data []byte) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	key := InputKey(dirName)
	_, err := c.client.PutObject(ctx, c.config.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to mirror job input").WithDetail("key=" + key)
	}
	c.logger.Debug("job input mirrored", logging.String("bucket", c.config.Bucket), logging.String("key", key))
	return nil
}

// ArchiveURL returns a presigned GET link for the job's result archive.
func (c *MinIOClient) ArchiveURL(ctx context.Context, dirName string) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}
	key := ArchiveKey(dirName)
	if _, err := c.client.StatObject(ctx, c.config.Bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", ErrArchiveNotMirrored.WithDetail("key=" + key)
		}
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to stat archive").WithDetail("key=" + key)
	}

	params := url.Values{}
	params.Set("response-content-disposition", `attachment; filename="`+job.ArchiveName(dirName)+`"`)
	u, err := c.client.PresignedGetObject(ctx, c.config.Bucket, key, c.config.PresignExpiry, params)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to presign archive").WithDetail("key=" + key)
	}
	return u.String(), nil
}

func (c *MinIOClient) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrMinIOClientClosed
	}
	return nil
}

func (c *MinIOClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type noopMirror struct{}

// NewNoopMirror returns the mirror used when object storage is disabled.
// ArchiveURL always reports the archive as missing.
func NewNoopMirror() ArchiveMirror { return noopMirror{} }

func (noopMirror) PutInput(context.Context, string, []byte) error { return nil }

func (noopMirror) ArchiveURL(_ context.Context, dirName string) (string, error) {
	return "", ErrArchiveNotMirrored.WithDetail("key=" + ArchiveKey(dirName))
}
