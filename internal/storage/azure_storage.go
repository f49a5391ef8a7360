package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type AzureConfig struct {
	AccountName string
	AccountKey  string
	Container   string
	// ServiceURL overrides the public endpoint, e.g. for Azurite.
	ServiceURL string
}

// AzureStorage archives evidence as block blobs in a single container.
type AzureStorage struct {
	client    *azblob.Client
	container string
}

func NewAzureStorage(cfg AzureConfig) (*AzureStorage, error) {
	if cfg.Container == "" {
		return nil, fmt.Errorf("azure container name is required")
	}

	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureStorage{client: client, container: cfg.Container}, nil
}

func (s *AzureStorage) Save(ctx context.Context, data []byte, info FileInfo) (string, error) {
	name := ObjectName(info)

	opts := &azblob.UploadBufferOptions{}
	if info.ContentType != "" {
		contentType := info.ContentType
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if info.Fingerprint != "" {
		fingerprint := info.Fingerprint
		opts.Metadata = map[string]*string{"fingerprint": &fingerprint}
	}

	if _, err := s.client.UploadBuffer(ctx, s.container, name, data, opts); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return name, nil
}

func (s *AzureStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, s.container, clean, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return resp.Body, nil
}

func (s *AzureStorage) Delete(ctx context.Context, name string) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteBlob(ctx, s.container, clean, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}
