package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobStore stores objects in Azure Blob Storage. A bucket maps to a
// container and a key to a blob name.
type BlobStore struct {
	client *azblob.Client
}

// NewBlobStore creates a BlobStore from a storage account connection string.
func NewBlobStore(connectionString string) (*BlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}
	return NewBlobStoreWithClient(client), nil
}

// NewBlobStoreWithClient wraps an existing client.
func NewBlobStoreWithClient(client *azblob.Client) *BlobStore {
	return &BlobStore{client: client}
}

// Fetch downloads container/blob into dst.
func (s *BlobStore) Fetch(ctx context.Context, bucket, key, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fetchError(bucket, key, err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fetchError(bucket, key, err)
	}
	defer f.Close()

	if _, err := s.client.DownloadFile(ctx, bucket, key, f, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			err = fmt.Errorf("%w: %v", ErrObjectNotFound, err)
		}
		return fetchError(bucket, key, err)
	}
	return nil
}

// Store uploads src to container/blob, replacing any existing blob.
func (s *BlobStore) Store(ctx context.Context, bucket, key, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return storeError(bucket, key, err)
	}
	defer f.Close()

	if _, err := s.client.UploadFile(ctx, bucket, key, f, nil); err != nil {
		return storeError(bucket, key, err)
	}
	return nil
}
