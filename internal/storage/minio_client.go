package storage

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"inventory-service/internal/config"
)

// NewMinioClient initializes a MinIO client and ensures the bucket exists.
func NewMinioClient(cfg *config.Config) (*minio.Client, error) {
	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSSL,
	})
	if err != nil {
		return nil, err
	}
	// Ensure the bucket exists (create if not present)
	ctx := context.Background()
	exists, errBucket := minioClient.BucketExists(ctx, cfg.MinioBucket)
	if errBucket != nil {
		return nil, errBucket
	}
	if !exists {
		err = minioClient.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: ""})
		if err != nil {
			return nil, err
		}
		log.Printf("Created bucket %s\n", cfg.MinioBucket)
	}
	return minioClient, nil
}

// MediaStore stores item images, attachments and QR labels in a MinIO
// bucket and renders the public URLs handed back to clients.
type MediaStore struct {
	Client        *minio.Client
	Bucket        string
	PublicBaseURL string
}

// NewMediaStore creates a MediaStore over an initialized MinIO client.
func NewMediaStore(client *minio.Client, bucket, publicBaseURL string) *MediaStore {
	return &MediaStore{
		Client:        client,
		Bucket:        bucket,
		PublicBaseURL: publicBaseURL,
	}
}

// Put uploads one object under the given key.
func (s *MediaStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.Client.PutObject(ctx, s.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// URL returns the public URL for a stored object.
func (s *MediaStore) URL(key string) string {
	return fmt.Sprintf("%s/media/%s", s.PublicBaseURL, key)
}

// ItemURL returns the frontend detail page URL encoded into an item's QR label.
func (s *MediaStore) ItemURL(itemID uuid.UUID) string {
	return fmt.Sprintf("%s/inventory/%s", s.PublicBaseURL, itemID)
}
