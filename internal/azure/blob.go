package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// ErrBlobNotFound is returned when a requested blob does not exist
var ErrBlobNotFound = errors.New("blob not found")

// clientOptions caps SDK retries and per-try time
func clientOptions() *azblob.ClientOptions {
	return &azblob.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries: 3,
				TryTimeout: 30 * time.Second,
			},
			Telemetry: policy.TelemetryOptions{
				ApplicationID: "songkhoe-backend",
			},
		},
	}
}

// BlobStorageClient wraps Azure Blob Storage SDK for a single container
type BlobStorageClient struct {
	client        *azblob.Client
	containerName string
	logger        *zap.Logger
}

// NewBlobStorageClient creates a new Azure Blob Storage client using a shared key
func NewBlobStorageClient(accountName, accountKey, containerName string, logger *zap.Logger) (*BlobStorageClient, error) {
	if accountName == "" || accountKey == "" || containerName == "" {
		return nil, fmt.Errorf("accountName, accountKey, and containerName are required")
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobStorageClient{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// NewBlobStorageClientFromConnectionString creates a client from a connection string (Azurite, SAS)
func NewBlobStorageClientFromConnectionString(connectionString, containerName string, logger *zap.Logger) (*BlobStorageClient, error) {
	if connectionString == "" || containerName == "" {
		return nil, fmt.Errorf("connectionString and containerName are required")
	}

	client, err := azblob.NewClientFromConnectionString(connectionString, clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobStorageClient{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// EnsureContainer creates the container if it does not exist yet
func (c *BlobStorageClient) EnsureContainer(ctx context.Context) error {
	_, err := c.client.CreateContainer(ctx, c.containerName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		c.logger.Error("failed to create container",
			zap.String("container", c.containerName),
			zap.Error(err),
		)
		return fmt.Errorf("failed to create container %s: %w", c.containerName, err)
	}
	return nil
}

// Upload overwrites a block blob with data
func (c *BlobStorageClient) Upload(ctx context.Context, blobName, contentType string, data []byte) error {
	c.logger.Debug("uploading blob",
		zap.String("blob_name", blobName),
		zap.Int("size_bytes", len(data)),
	)

	_, err := c.client.UploadBuffer(ctx, c.containerName, blobName, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: toPtr(contentType),
		},
	})
	if err != nil {
		c.logger.Error("failed to upload blob",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload blob %s: %w", blobName, err)
	}

	return nil
}

// Download reads a whole blob. A missing blob yields ErrBlobNotFound.
func (c *BlobStorageClient) Download(ctx context.Context, blobName string) ([]byte, error) {
	resp, err := c.client.DownloadStream(ctx, c.containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, ErrBlobNotFound
		}
		c.logger.Error("failed to download blob",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download blob %s: %w", blobName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", blobName, err)
	}

	c.logger.Debug("blob downloaded",
		zap.String("blob_name", blobName),
		zap.Int("size_bytes", len(data)),
	)

	return data, nil
}

// ReportPrefix is the virtual directory archived reports are written under
const ReportPrefix = "reports/"

// ReportBlobName returns the blob a report file is archived as
func ReportBlobName(filename string) string {
	return ReportPrefix + filename
}

// ArchiveReport stores a generated history report and returns its blob name
func (c *BlobStorageClient) ArchiveReport(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	blobName := ReportBlobName(filename)
	if err := c.Upload(ctx, blobName, contentType, data); err != nil {
		return "", err
	}

	c.logger.Info("report archived",
		zap.String("blob_name", blobName),
		zap.String("content_type", contentType),
		zap.Int("size_bytes", len(data)),
	)

	return blobName, nil
}

// toPtr is a helper function to convert a value to a pointer
func toPtr(s string) *string {
	return &s
}
