package web

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/gofiber/fiber/v2"

	"github.com/labelscan/allergen-scanner/internal/domain"
)

// decodeImagePayload accepts either a bare base64 string or a data URL
// with an image media type.
func decodeImagePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, domain.ErrEmptyImage
	}

	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid data URL")
		}
		meta := parts[0]
		payload = parts[1]

		switch {
		case strings.Contains(meta, "image/jpeg"),
			strings.Contains(meta, "image/png"),
			strings.Contains(meta, "image/gif"),
			strings.Contains(meta, "image/webp"):
		default:
			return nil, fiber.NewError(fiber.StatusUnsupportedMediaType, "unsupported image type")
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid base64 image: "+err.Error())
	}
	return decoded, nil
}

// sniffImage confirms the bytes decode as a known image format before we
// spend an upstream OCR call on them.
func sniffImage(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fiber.NewError(fiber.StatusUnsupportedMediaType, "unrecognized image format")
	}
	return format, nil
}
