package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JaimeStill/herbarium/pkg/lifecycle"
)

const minioNoSuchKey = "NoSuchKey"

type minioStore struct {
	locator
	client *minio.Client
	region string
	logger *slog.Logger
}

// newMinio addresses objects path-style: {endpoint}/{bucket}/{key}.
func newMinio(cfg *Config, bucket string, logger *slog.Logger) (*minioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	loc, err := newLocator(bucket, client.EndpointURL().String())
	if err != nil {
		return nil, err
	}

	return &minioStore{
		locator: loc,
		client:  client,
		region:  cfg.Region,
		logger:  logger,
	}, nil
}

func (m *minioStore) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("starting storage system")

	lc.OnStartup("storage:"+m.container, func() error {
		ctx := lc.Context()

		exists, err := m.client.BucketExists(ctx, m.container)
		if err != nil {
			m.logger.Error("storage bucket check failed", "error", err)
			return classify("bucket_exists", m.container, err)
		}

		if !exists {
			if err := m.client.MakeBucket(ctx, m.container, minio.MakeBucketOptions{Region: m.region}); err != nil {
				m.logger.Error("storage bucket initialization failed", "error", err)
				return classify("make_bucket", m.container, err)
			}
		}

		m.logger.Info("storage bucket ready")
		return nil
	})

	return nil
}

func (m *minioStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	u, err := m.client.PresignedGetObject(ctx, m.container, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("sign %s: %w: %w", key, ErrSigningUnsupported, err)
	}
	return u.String(), nil
}

func (m *minioStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := m.client.PutObject(ctx, m.container, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return classify("upload", key, err)
	}
	return nil
}

func (m *minioStore) Download(ctx context.Context, key string) (*Blob, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, m.container, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.mapErr("download", key, err)
	}

	// GetObject is lazy; Stat surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, m.mapErr("download", key, err)
	}

	return &Blob{
		Body:          obj,
		ContentType:   info.ContentType,
		ContentLength: info.Size,
	}, nil
}

func (m *minioStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	// S3 deletes are silent for missing keys; stat first to report absence.
	if _, err := m.client.StatObject(ctx, m.container, key, minio.StatObjectOptions{}); err != nil {
		return m.mapErr("delete", key, err)
	}

	if err := m.client.RemoveObject(ctx, m.container, key, minio.RemoveObjectOptions{}); err != nil {
		return m.mapErr("delete", key, err)
	}
	return nil
}

func (m *minioStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	if _, err := m.client.StatObject(ctx, m.container, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == minioNoSuchKey {
			return false, nil
		}
		return false, classify("exists", key, err)
	}
	return true, nil
}

func (m *minioStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects := make([]ObjectInfo, 0)

	for obj := range m.client.ListObjects(ctx, m.container, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, classify("list", m.container, obj.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return objects, nil
}

func (m *minioStore) Ping(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.container)
	if err != nil {
		return classify("ping", m.container, err)
	}
	if !exists {
		return notFound("ping", m.container)
	}
	return nil
}

func (m *minioStore) mapErr(op, key string, err error) error {
	if minio.ToErrorResponse(err).Code == minioNoSuchKey {
		return notFound(op, key)
	}
	return classify(op, key, err)
}
