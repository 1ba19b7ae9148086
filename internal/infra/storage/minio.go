package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/sparklens/internal/domain/analysis"
	"github.com/bryanwahyu/sparklens/internal/infra/sink"
)

// Store writes run records as objects in a MinIO/S3 bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string

	mu          sync.Mutex
	bucketReady bool
}

// New buat koneksi MinIO. The bucket is created on first write.
func New(endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}
	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// pastikan bucket ada
func (s *Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	s.bucketReady = true
	return nil
}

// Write implements analysis.Sink. Keys that already exist are left untouched
// and reported as analysis.ErrRecordExists.
func (s *Store) Write(ctx context.Context, rec analysis.Record) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucketName, err)
	}
	docs, err := sink.Render(rec)
	if err != nil {
		return err
	}
	for _, d := range docs {
		exists, err := s.exists(ctx, d.Key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s: %w", d.Key, analysis.ErrRecordExists)
		}
		_, err = s.client.PutObject(ctx, s.bucketName, d.Key, bytes.NewReader(d.Body), int64(len(d.Body)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", d.Key, err)
		}
	}
	return nil
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", key, err)
}

// Ping checks the endpoint is reachable and the bucket can be queried.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}
