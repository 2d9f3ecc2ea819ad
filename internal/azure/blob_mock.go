package azure

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MockBlobStorageClient is an in-memory implementation of BlobStorage for testing
type MockBlobStorageClient struct {
	Storage map[string][]byte
	// FailUploads makes every upload return an error
	FailUploads bool
	mu          sync.RWMutex
	logger      *zap.Logger
}

// NewMockBlobStorageClient creates a new mock blob storage client
func NewMockBlobStorageClient(logger *zap.Logger) *MockBlobStorageClient {
	return &MockBlobStorageClient{
		Storage: make(map[string][]byte),
		logger:  logger,
	}
}

// Upload stores data under blobName
func (c *MockBlobStorageClient) Upload(ctx context.Context, blobName, contentType string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailUploads {
		return fmt.Errorf("mock: upload of %s rejected", blobName)
	}

	c.Storage[blobName] = bytes.Clone(data)

	if c.logger != nil {
		c.logger.Info("mock: blob uploaded",
			zap.String("blob_name", blobName),
			zap.String("content_type", contentType),
			zap.Int("size_bytes", len(data)),
		)
	}

	return nil
}

// Download returns a copy of the stored blob
func (c *MockBlobStorageClient) Download(ctx context.Context, blobName string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, exists := c.Storage[blobName]
	if !exists {
		return nil, ErrBlobNotFound
	}

	return bytes.Clone(data), nil
}

// ArchiveReport stores a report under ReportPrefix
func (c *MockBlobStorageClient) ArchiveReport(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	blobName := ReportBlobName(filename)
	if err := c.Upload(ctx, blobName, contentType, data); err != nil {
		return "", err
	}
	return blobName, nil
}

// ListBlobs returns all blob names in storage
func (c *MockBlobStorageClient) ListBlobs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blobs := make([]string, 0, len(c.Storage))
	for name := range c.Storage {
		blobs = append(blobs, name)
	}

	return blobs
}

var _ BlobStorage = (*MockBlobStorageClient)(nil)
