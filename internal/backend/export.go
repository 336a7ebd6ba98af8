package backend

import (
	"context"
	"mime"
	"net/http"
	"strings"

	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/security"
	"github.com/gabriel-vasile/mimetype"
)

// Download is a file produced by the backend
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Export fetches GET /{resource}/export. The content type is taken from the response
// when it is specific, otherwise it is detected from the bytes.
func (c *Client) Export(ctx context.Context, resource string) (*Download, error) {
	if err := security.ValidateSegment(resource); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/" + resource + "/export"})
	if err != nil {
		return nil, err
	}

	detected := mimetype.Detect(resp.Body)
	contentType := resp.Headers.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = detected.String()
	}

	filename := resource + detected.Extension()
	if _, params, err := mime.ParseMediaType(resp.Headers.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}

	return &Download{Filename: filename, ContentType: contentType, Body: resp.Body}, nil
}
