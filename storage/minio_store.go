package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"NovaFM/config"
	"NovaFM/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/notification"
)

// minioStore keeps one JSON document per object in a MinIO bucket.
type minioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the sync bucket exists.
func NewMinioStore(cfg *config.Config) (Store, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check sync bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create sync bucket: %w", err)
		}
		logger.Info("sync bucket created", logger.String("bucket", cfg.MinioBucket))
	}

	return &minioStore{client: client, bucket: cfg.MinioBucket}, nil
}

func (s *minioStore) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to get document %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to read document %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode document %s: %w", key, err)
	}
	return true, nil
}

// SetMerge implements merge as read-modify-write on the JSON object. Two
// devices merging different fields concurrently can race; the last writer
// wins, which matches the reconciliation engine's conflict model.
func (s *minioStore) SetMerge(ctx context.Context, key string, fields map[string]interface{}) error {
	doc := map[string]interface{}{}
	if _, err := s.Get(ctx, key, &doc); err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}
	return s.put(ctx, key, doc)
}

func (s *minioStore) Update(ctx context.Context, key string, fields map[string]interface{}) error {
	doc := map[string]interface{}{}
	found, err := s.Get(ctx, key, &doc)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("document %s does not exist", key)
	}
	for k, v := range fields {
		doc[k] = v
	}
	return s.put(ctx, key, doc)
}

func (s *minioStore) put(ctx context.Context, key string, doc map[string]interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", key, err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to put document %s: %w", key, err)
	}
	return nil
}

func (s *minioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}

func (s *minioStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list documents under %s: %w", prefix, obj.Err)
		}
		// Direct children only; nested collections have their own prefix.
		if strings.Contains(strings.TrimPrefix(obj.Key, prefix), "/") {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *minioStore) Listen(ctx context.Context, prefix string) (<-chan Event, error) {
	events := make(chan Event)

	notifications := s.client.ListenBucketNotification(ctx, s.bucket, prefix, "", []string{
		string(notification.ObjectCreatedAll),
		string(notification.ObjectRemovedAll),
	})

	go func() {
		defer close(events)
		for info := range notifications {
			if info.Err != nil {
				logger.Warn("sync backend listen error", logger.ErrorField(info.Err))
				return
			}
			for _, rec := range info.Records {
				ev := Event{
					Key:     rec.S3.Object.Key,
					Deleted: strings.HasPrefix(rec.EventName, "s3:ObjectRemoved"),
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
