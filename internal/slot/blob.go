package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/songkhoe/backend/internal/azure"
)

// BlobSlot keeps the value in one Azure block blob named <key>.json
type BlobSlot struct {
	storage  azure.BlobStorage
	blobName string
}

// NewBlobSlot creates a blob-backed slot
func NewBlobSlot(storage azure.BlobStorage, key string) (*BlobSlot, error) {
	if key == "" {
		return nil, fmt.Errorf("slot key is required")
	}
	return &BlobSlot{storage: storage, blobName: key + ".json"}, nil
}

func (s *BlobSlot) Read(ctx context.Context) ([]byte, error) {
	data, err := s.storage.Download(ctx, s.blobName)
	if err != nil {
		if errors.Is(err, azure.ErrBlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *BlobSlot) Write(ctx context.Context, data []byte) error {
	return s.storage.Upload(ctx, s.blobName, "application/json", data)
}

func (s *BlobSlot) Describe() string {
	return "blob:" + s.blobName
}
