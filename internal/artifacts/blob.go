package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobStore keeps artifacts as blobs in one Azure Storage container, so a
// training machine can publish them and contest machines can fetch them.
type BlobStore struct {
	client    *azblob.Client
	container string
}

// NewBlobStore connects to the container at containerURL
// (https://<account>.blob.core.windows.net/<container>) using the default
// Azure credential chain.
func NewBlobStore(containerURL string) (*BlobStore, error) {
	serviceURL, container, err := splitContainerURL(containerURL)
	if err != nil {
		return nil, err
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure credential: %w", err)
	}
	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}
	return &BlobStore{client: client, container: container}, nil
}

func (s *BlobStore) Read(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s/%s: %w", s.container, name, ErrNotFound)
		}
		return nil, fmt.Errorf("downloading %s/%s: %w", s.container, name, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", s.container, name, err)
	}
	return data, nil
}

func (s *BlobStore) Write(ctx context.Context, name string, data []byte) error {
	if _, err := s.client.UploadBuffer(ctx, s.container, name, data, nil); err != nil {
		return fmt.Errorf("uploading %s/%s: %w", s.container, name, err)
	}
	return nil
}

// splitContainerURL separates the storage service URL from the container name.
func splitContainerURL(containerURL string) (string, string, error) {
	u, err := url.Parse(containerURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing container URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("container URL %q must be absolute", containerURL)
	}
	container := strings.Trim(u.Path, "/")
	if container == "" || strings.Contains(container, "/") {
		return "", "", fmt.Errorf("container URL %q must name exactly one container", containerURL)
	}
	return u.Scheme + "://" + u.Host + "/", container, nil
}
