package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icaffe-pos/pos-device-api/config"
)

func TestInitScreenshotStorageFromConfig(t *testing.T) {
	config.SetConfig(&config.Config{
		AWSRegion:          "us-east-1",
		AWSS3Bucket:        "test-bucket",
		AWSAccessKeyID:     "test-key",
		AWSSecretAccessKey: "test-secret",
	})

	storage, err := InitScreenshotStorage()
	require.NoError(t, err)
	require.NotNil(t, storage)
	assert.Equal(t, storage, GetScreenshotStorage())

	s3Storage, ok := storage.(*S3ScreenshotStorage)
	require.True(t, ok)
	assert.Equal(t, "test-bucket", s3Storage.bucket)
}

func TestSetScreenshotStorageInstallsMock(t *testing.T) {
	mock := NewMockScreenshotStorage()
	mock.SetAsMockForTesting()

	assert.Equal(t, ScreenshotStorage(mock), GetScreenshotStorage())

	url, err := mock.GetPresignedURL("")
	require.NoError(t, err)
	assert.Empty(t, url)
}
