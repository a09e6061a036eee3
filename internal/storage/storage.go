package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"stockapi/internal/model"

	"github.com/gabriel-vasile/mimetype"
)

// ImageStore persists uploaded product images and returns a reference that
// is saved on the product.
type ImageStore interface {
	// Put stores the image and returns its reference.
	Put(ctx context.Context, img *Image) (string, error)

	// Delete removes the image behind ref. Deleting a missing image is not
	// an error.
	Delete(ctx context.Context, ref string) error
}

// Image is an upload whose size and content type have been checked.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// allowedTypes are the image types accepted for products.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Prepare reads the upload and checks it against maxBytes and the accepted
// image types, which are sniffed from the content rather than trusted from
// the client. Violations are returned as a validation error on "image".
func Prepare(upload *model.Upload, maxBytes int64) (*Image, error) {
	if upload == nil || upload.Body == nil {
		return nil, nil
	}

	if upload.Size > maxBytes {
		return nil, tooLarge(maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(maxBytes)
	}
	if len(data) == 0 {
		return nil, invalidImage("The image field must be a file.")
	}

	mt := mimetype.Detect(data)
	if !allowedTypes[mt.String()] {
		return nil, invalidImage("The image field must be a file of type: jpeg, png, gif, webp.")
	}

	return &Image{
		Data:        data,
		ContentType: mt.String(),
		Extension:   mt.Extension(),
	}, nil
}

// Reader returns a fresh reader over the image bytes.
func (i *Image) Reader() io.ReadSeeker {
	return bytes.NewReader(i.Data)
}

func tooLarge(maxBytes int64) error {
	return invalidImage(fmt.Sprintf("The image field must not be greater than %d kilobytes.", maxBytes/1024))
}

func invalidImage(msg string) error {
	return model.NewValidationError(map[string][]string{"image": {msg}})
}
