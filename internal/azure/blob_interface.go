package azure

import (
	"context"
)

// BlobStorage defines the blob operations used by the durable slot and report archiving
type BlobStorage interface {
	Upload(ctx context.Context, blobName, contentType string, data []byte) error
	Download(ctx context.Context, blobName string) ([]byte, error)
	ArchiveReport(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// Ensure BlobStorageClient implements BlobStorage interface
var _ BlobStorage = (*BlobStorageClient)(nil)
