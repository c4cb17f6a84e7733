package repository

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

type LogoStorage interface {
	// UploadLogo сохраняет изображение и возвращает публичный URL объекта.
	UploadLogo(ctx context.Context, objectName, contentType string, content io.Reader, size int64) (string, error)
}

type minioLogoStorage struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
	logger    zerolog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

func NewMinIOLogoStorage(endpoint, accessKey, secretKey, bucket, region, publicURL string, useSSL bool, connectTimeout time.Duration, logger zerolog.Logger) (LogoStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	storage := &minioLogoStorage{
		client:    client,
		bucket:    bucket,
		region:    region,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}

	// MinIO может подняться позже сервиса, бакет тогда создается при первой загрузке
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := storage.ensureBucket(ctx); err != nil {
		logger.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Str("bucket", bucket).
			Msg("MinIO not ready during startup, will retry on upload")
	}

	return storage, nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

func (s *minioLogoStorage) ensureBucket(ctx context.Context) error {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	if s.bucketEnsured {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		if err := s.client.SetBucketPolicy(ctx, s.bucket, publicReadPolicy(s.bucket)); err != nil {
			return fmt.Errorf("failed to set bucket policy: %w", err)
		}
		s.logger.Info().Str("bucket", s.bucket).Msg("Created logo bucket")
	}

	s.bucketEnsured = true
	return nil
}

func (s *minioLogoStorage) UploadLogo(ctx context.Context, objectName, contentType string, content io.Reader, size int64) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	info, err := s.client.PutObject(ctx, s.bucket, objectName, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload logo: %w", err)
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Str("object", objectName).
		Str("etag", info.ETag).
		Int64("size", size).
		Msg("Logo uploaded to MinIO")

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName), nil
}
