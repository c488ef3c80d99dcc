package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrDegenerateRegion marks a bounding box whose intersection with the
// image has zero or negative area.
var ErrDegenerateRegion = errors.New("bounding box has no overlap with image")

const jpegCropQuality = 95

// subImager is satisfied by the concrete image types that can share pixels
// with a sub-rectangle.
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop decodes data, clamps box to the image bounds, and re-encodes the
// clamped region. Boxes partially outside the image shrink to the border;
// a box with no remaining area is ErrDegenerateRegion. The returned
// extension is the format actually encoded: the source format where an
// encoder exists, otherwise PNG as the lossless fallback.
func Crop(data []byte, box image.Rectangle) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("cannot decode image for cropping: %v", err)
	}

	region := box.Intersect(img.Bounds())
	if region.Empty() {
		return nil, "", ErrDegenerateRegion
	}

	var cropped image.Image
	if si, ok := img.(subImager); ok {
		cropped = si.SubImage(region)
	} else {
		dst := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
		draw.Draw(dst, dst.Bounds(), img, region.Min, draw.Src)
		cropped = dst
	}

	return encode(cropped, format)
}

// encode writes img in the requested format, falling back to PNG for
// formats without an encoder (webp).
func encode(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegCropQuality})
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		format = "png"
		err = png.Encode(&buf, img)
	}

	if err != nil {
		return nil, "", fmt.Errorf("failed to encode cropped %s image: %v", format, err)
	}

	return buf.Bytes(), format, nil
}
