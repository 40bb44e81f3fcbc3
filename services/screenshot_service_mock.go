package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"sync"
)

// MockScreenshotStorage is an in-memory ScreenshotStorage for testing.
type MockScreenshotStorage struct {
	uploaded map[string][]byte // object key -> content
	mu       sync.RWMutex
}

// NewMockScreenshotStorage creates an empty mock storage.
func NewMockScreenshotStorage() *MockScreenshotStorage {
	return &MockScreenshotStorage{
		uploaded: make(map[string][]byte),
	}
}

// SetAsMockForTesting installs this mock as the global storage instance.
func (m *MockScreenshotStorage) SetAsMockForTesting() {
	SetScreenshotStorage(m)
}

// UploadScreenshot simulates an upload and records the content.
func (m *MockScreenshotStorage) UploadScreenshot(orderID string, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := fmt.Sprintf("screenshots/%s/mock_%s", orderID, fileHeader.Filename)

	m.mu.Lock()
	m.uploaded[key] = content
	m.mu.Unlock()

	return key, nil
}

// GetPresignedURL returns a fake URL for a stored key.
func (m *MockScreenshotStorage) GetPresignedURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.uploaded[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("screenshot not found in mock storage: %s", key)
	}
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// DeleteScreenshot removes a stored key.
func (m *MockScreenshotStorage) DeleteScreenshot(key string) error {
	if key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.uploaded, key)
	m.mu.Unlock()
	return nil
}

// HasScreenshot checks whether a key exists (for testing assertions).
func (m *MockScreenshotStorage) HasScreenshot(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploaded[key]
	return exists
}
