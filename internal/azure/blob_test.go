package azure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewBlobStorageClient(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name          string
		accountName   string
		accountKey    string
		containerName string
		wantErr       bool
	}{
		{
			name:          "valid configuration",
			accountName:   "testaccount",
			accountKey:    "dGVzdGtleQ==", // base64 encoded "testkey"
			containerName: "health-logs",
			wantErr:       false,
		},
		{
			name:          "missing account name",
			accountName:   "",
			accountKey:    "dGVzdGtleQ==",
			containerName: "health-logs",
			wantErr:       true,
		},
		{
			name:          "missing account key",
			accountName:   "testaccount",
			accountKey:    "",
			containerName: "health-logs",
			wantErr:       true,
		},
		{
			name:          "missing container name",
			accountName:   "testaccount",
			accountKey:    "dGVzdGtleQ==",
			containerName: "",
			wantErr:       true,
		},
		{
			name:          "invalid account key format",
			accountName:   "testaccount",
			accountKey:    "invalid-key-format",
			containerName: "health-logs",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewBlobStorageClient(tt.accountName, tt.accountKey, tt.containerName, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.containerName, client.containerName)
		})
	}
}

func TestNewBlobStorageClientFromConnectionString_Validation(t *testing.T) {
	_, err := NewBlobStorageClientFromConnectionString("", "health-logs", zap.NewNop())
	assert.Error(t, err)

	_, err = NewBlobStorageClientFromConnectionString("UseDevelopmentStorage=true", "", zap.NewNop())
	assert.Error(t, err)
}

func TestMockBlobStorageClient(t *testing.T) {
	ctx := context.Background()
	mock := NewMockBlobStorageClient(zap.NewNop())

	_, err := mock.Download(ctx, "health_logs_v1.json")
	assert.True(t, errors.Is(err, ErrBlobNotFound))

	require.NoError(t, mock.Upload(ctx, "health_logs_v1.json", "application/json", []byte("[]")))
	data, err := mock.Download(ctx, "health_logs_v1.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	name, err := mock.ArchiveReport(ctx, "history.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "reports/history.pdf", name)
	assert.ElementsMatch(t, []string{"health_logs_v1.json", "reports/history.pdf"}, mock.ListBlobs())

	mock.FailUploads = true
	assert.Error(t, mock.Upload(ctx, "x", "application/json", nil))
}
