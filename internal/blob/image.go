package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// SaveImage decodes the payload as an image, center-crops it to the
// largest square, downsamples it to fit a size x size bounding box
// (never upscaling), re-encodes as JPEG and stores the result. The
// transform is lossy and one-way: replacements must always start from
// fresh original bytes, never from the stored thumbnail.
func SaveImage(ctx context.Context, store Store, id string, r io.Reader, size int) error {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}

	img = imaging.CropCenter(img, side, side)
	if side > size {
		img = imaging.Resize(img, size, size, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	return store.Save(ctx, id, &buf)
}
