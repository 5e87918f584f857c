package rest

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"context"
	"fmt"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
)

const imagePath = "/api/image"

// BlobStore keeps fetched protected assets for the lifetime of the process.
type BlobStore interface {
	Lookup(imageID string) (domain.Blob, bool, error)
	Store(imageID string, data []byte, mimeType string) (domain.Blob, error)
}

// MediaClient resolves protected images on demand.
type MediaClient struct {
	client *Client
	blobs  BlobStore
}

func NewMediaClient(client *Client, blobs BlobStore) MediaClient {
	return MediaClient{client: client, blobs: blobs}
}

// ImageURL is the list-view locator for ref, see domain.ImageURL.
func (m MediaClient) ImageURL(ref string) string {
	return domain.ImageURL(m.client.BaseURL(), ref)
}

// FetchProtectedImage downloads the image with the caller's token and returns
// a local handle. An image already fetched is served from the blob store.
func (m MediaClient) FetchProtectedImage(ctx context.Context, imageID, token string) (domain.Blob, error) {
	if imageID == "" {
		return domain.Blob{}, fmt.Errorf("%w: empty image id", errors.ErrImageFetch)
	}
	blob, found, err := m.blobs.Lookup(imageID)
	if err != nil {
		return domain.Blob{}, fmt.Errorf("%w: %w", errors.ErrImageFetch, err)
	}
	if found {
		return blob, nil
	}

	query := url.Values{}
	query.Set("id", imageID)
	data, err := m.client.get(ctx, token, imagePath, query, errors.ErrImageFetch)
	if err != nil {
		return domain.Blob{}, err
	}
	if len(data) == 0 {
		return domain.Blob{}, fmt.Errorf("%w: image %s is empty", errors.ErrImageFetch, imageID)
	}

	blob, err = m.blobs.Store(imageID, data, mimetype.Detect(data).String())
	if err != nil {
		return domain.Blob{}, fmt.Errorf("%w: %w", errors.ErrImageFetch, err)
	}
	m.client.log.Debug("Protected image fetched", "image_id", imageID, "mime", blob.MimeType, "size", blob.Size)
	return blob, nil
}
