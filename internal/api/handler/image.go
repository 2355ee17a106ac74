package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

// DefaultMaxImageBytes applies when a handler is built without an explicit limit
const DefaultMaxImageBytes = 10 * 1024 * 1024

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// extractImage reads the "image" multipart field. The declared content type
// must be jpeg, png or webp; a generic or missing one is sniffed from the bytes.
func extractImage(c *fiber.Ctx, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}

	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(errors.New("image is required"))
	}

	if file.Size > int64(maxBytes) {
		return nil, domain.ErrImageTooLarge.WithError(fmt.Errorf("%d bytes", file.Size))
	}
	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(errors.New("empty file"))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)+1))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	if len(data) > maxBytes {
		return nil, domain.ErrImageTooLarge
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	if !validImageTypes[contentType] {
		sniffed := http.DetectContentType(data)
		if !validImageTypes[sniffed] {
			return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("unsupported content type %q", contentType))
		}
	}

	return data, nil
}
