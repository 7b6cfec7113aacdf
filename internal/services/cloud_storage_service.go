package services

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
)

// CloudStorageManager stores generated artifacts (resume PDFs).
type CloudStorageManager interface {
	UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader) error
	DownloadFile(ctx context.Context, bucketName, objectName string) ([]byte, error)
	DeleteFile(ctx context.Context, bucketName, objectName string) error
}

type GCSService struct {
	client *storage.Client
}

func NewGCSService(ctx context.Context) (*GCSService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSService{client: client}, nil
}

func (s *GCSService) UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader) error {
	bucket := s.client.Bucket(bucketName)
	obj := bucket.Object(objectName)
	writer := obj.NewWriter(ctx)
	if _, err := io.Copy(writer, content); err != nil {
		return err
	}
	return writer.Close()
}

func (s *GCSService) DownloadFile(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	bucket := s.client.Bucket(bucketName)
	obj := bucket.Object(objectName)
	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (s *GCSService) DeleteFile(ctx context.Context, bucketName, objectName string) error {
	bucket := s.client.Bucket(bucketName)
	obj := bucket.Object(objectName)
	return obj.Delete(ctx)
}
