package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appConfig "github.com/icaffe-pos/pos-device-api/config"
)

// ScreenshotStorage stores payment confirmation screenshots. Orders keep
// only the object key; read paths resolve it to a short-lived presigned URL.
type ScreenshotStorage interface {
	UploadScreenshot(orderID string, fileHeader *multipart.FileHeader) (string, error)
	GetPresignedURL(key string) (string, error)
	DeleteScreenshot(key string) error
}

// S3ScreenshotStorage is the S3-backed implementation.
type S3ScreenshotStorage struct {
	client *s3.Client
	bucket string
}

var screenshotStorageInstance ScreenshotStorage

// InitScreenshotStorage initializes the S3-backed storage from app config.
func InitScreenshotStorage() (ScreenshotStorage, error) {
	cfg := appConfig.GetConfig()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	screenshotStorageInstance = &S3ScreenshotStorage{
		client: client,
		bucket: cfg.AWSS3Bucket,
	}
	return screenshotStorageInstance, nil
}

// GetScreenshotStorage returns the initialized storage instance.
func GetScreenshotStorage() ScreenshotStorage {
	return screenshotStorageInstance
}

// SetScreenshotStorage sets the storage instance (primarily for testing).
func SetScreenshotStorage(s ScreenshotStorage) {
	screenshotStorageInstance = s
}

// UploadScreenshot stores the file and returns its object key.
// Format: screenshots/{orderID}/{timestamp}_{filename}
func (s *S3ScreenshotStorage) UploadScreenshot(orderID string, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close file: %v", closeErr)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	timestamp := time.Now().Unix()
	filename := filepath.Base(fileHeader.Filename)
	key := fmt.Sprintf("screenshots/%s/%d_%s", orderID, timestamp, filename)

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	_, err = s.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return key, nil
}

// GetPresignedURL generates a presigned URL for a stored screenshot.
// The URL expires after 1 hour.
func (s *S3ScreenshotStorage) GetPresignedURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	presignClient := s3.NewPresignClient(s.client)
	request, err := presignClient.PresignGetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = time.Hour
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return request.URL, nil
}

// DeleteScreenshot removes a stored screenshot.
func (s *S3ScreenshotStorage) DeleteScreenshot(key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete screenshot from S3: %w", err)
	}
	return nil
}
