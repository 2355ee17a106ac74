package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobAPI is the part of *azblob.Client the store uses
type BlobAPI interface {
	URL() string
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// AzureStore uploads images to an Azure Blob Storage container
type AzureStore struct {
	client    BlobAPI
	container string
}

func NewAzureStore(accountName, accountKey, container string) (*AzureStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return NewAzureStoreWithClient(client, container), nil
}

func NewAzureStoreWithClient(client BlobAPI, container string) *AzureStore {
	return &AzureStore{client: client, container: container}
}

func (s *AzureStore) Name() string { return "azure" }

// EnsureContainer creates the container if it does not exist
func (s *AzureStore) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", s.container, err)
	}
	return nil
}

func (s *AzureStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyObject
	}

	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}

	if _, err := s.client.UploadBuffer(ctx, s.container, key, data, opts); err != nil {
		return "", fmt.Errorf("upload blob %s: %w", key, err)
	}

	return strings.TrimSuffix(s.client.URL(), "/") + "/" + s.container + "/" + key, nil
}
