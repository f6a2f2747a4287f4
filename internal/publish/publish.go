// Package publish uploads generated notebooks to shared storage so they can be
// opened without downloading from the local server.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// Publisher stores a named artifact and returns a URL for it.
type Publisher interface {
	Publish(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// ErrNotConfigured is returned by NewAzureBlobPublisher without an account or container.
var ErrNotConfigured = errors.New("publish: azure blob account url and container are required")

// blobUploader is the subset of *azblob.Client used here.
type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

var _ blobUploader = (*azblob.Client)(nil)

// AzureBlobPublisher uploads artifacts as block blobs in one container.
type AzureBlobPublisher struct {
	client     blobUploader
	accountURL string
	container  string
	prefix     string
}

var _ Publisher = (*AzureBlobPublisher)(nil)

// NewAzureBlobPublisher authenticates with DefaultAzureCredential.
func NewAzureBlobPublisher(accountURL, container string) (*AzureBlobPublisher, error) {
	if accountURL == "" || container == "" {
		return nil, ErrNotConfigured
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("publish: azure credential: %w", err)
	}
	return NewAzureBlobPublisherWithCredential(accountURL, container, cred)
}

// NewAzureBlobPublisherWithCredential builds a publisher from an explicit credential.
func NewAzureBlobPublisherWithCredential(accountURL, container string, cred azcore.TokenCredential) (*AzureBlobPublisher, error) {
	if accountURL == "" || container == "" {
		return nil, ErrNotConfigured
	}
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("publish: azure blob client: %w", err)
	}
	return newAzureBlobPublisher(client, accountURL, container), nil
}

func newAzureBlobPublisher(client blobUploader, accountURL, container string) *AzureBlobPublisher {
	return &AzureBlobPublisher{
		client:     client,
		accountURL: strings.TrimRight(accountURL, "/"),
		container:  container,
		prefix:     "notebooks",
	}
}

// Publish uploads data as <prefix>/<name> and returns the blob URL.
func (p *AzureBlobPublisher) Publish(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if name == "" {
		return "", errors.New("publish: blob name is required")
	}
	if len(data) == 0 {
		return "", errors.New("publish: refusing to upload empty artifact")
	}
	blobName := path.Join(p.prefix, path.Base(name))

	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)}
	}
	if _, err := p.client.UploadBuffer(ctx, p.container, blobName, data, opts); err != nil {
		return "", fmt.Errorf("publish: upload %s: %w", blobName, err)
	}

	u := p.BlobURL(blobName)
	slog.Info("Published artifact", "container", p.container, "blob", blobName, "bytes", len(data))
	return u, nil
}

// BlobURL returns the public URL of a blob in the publisher's container.
func (p *AzureBlobPublisher) BlobURL(blobName string) string {
	return p.accountURL + "/" + url.PathEscape(p.container) + "/" + escapeBlobPath(blobName)
}

func escapeBlobPath(name string) string {
	parts := strings.Split(name, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
