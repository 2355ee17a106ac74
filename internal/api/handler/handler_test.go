package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/api/middleware"
)

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(testLogger()),
	})
}

// solidPNG encodes a w x h image filled with c
func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// newMultipart builds a multipart body with the given fields and an
// optional image part
func newMultipart(t *testing.T, fields map[string]string, imageContent []byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}

	if imageContent != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="selfie.png"`)
		h.Set("Content-Type", contentType)

		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(imageContent)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, r io.Reader) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}
