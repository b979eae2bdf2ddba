// Package uploadclient wraps the Cloudinary uploader used for donor ID card
// photos, employee documents, and profile pictures.
package uploadclient

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/donorlink/plasma-center/pkg/core/model"
)

// defaultFolder is where uploads land when the caller names no folder.
const defaultFolder = "plasma-center"

// Client uploads images to Cloudinary.
type Client struct {
	cld *cloudinary.Cloudinary
}

// New builds an upload client from Cloudinary credentials.
func New(cloudName, apiKey, apiSecret string) (*Client, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloudinary client: %w", err)
	}
	return &Client{cld: cld}, nil
}

// UploadResult identifies a stored image.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// UploadImage stores one image and returns its public URL. Provider failures
// surface as ErrProvider with the provider's message intact.
func (c *Client) UploadImage(ctx context.Context, file io.Reader, folder string) (*UploadResult, error) {
	if folder == "" {
		folder = defaultFolder
	}

	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrProvider, err.Error())
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s", model.ErrProvider, resp.Error.Message)
	}

	return &UploadResult{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}
