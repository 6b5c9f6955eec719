package blob

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// MaxImageBytes is the largest accepted upload.
	MaxImageBytes = 1 << 20
	// ThumbnailWidth is the width of generated thumbnails; height keeps the
	// aspect ratio.
	ThumbnailWidth = 320
)

var (
	ErrImageType     = errors.New("image must be png, jpg or jpeg")
	ErrImageTooLarge = errors.New("image exceeds 1 MiB")
	ErrImageCorrupt  = errors.New("image cannot be decoded")
)

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Image is a validated upload ready to be stored.
type Image struct {
	Name        string
	Ext         string
	ContentType string
	Data        []byte
	Thumbnail   []byte
}

// PrepareImage checks name and data and renders the JPEG thumbnail.
func PrepareImage(name string, data []byte) (Image, error) {
	ext := strings.ToLower(filepath.Ext(name))
	ct, ok := contentTypes[ext]
	if !ok {
		return Image{}, fmt.Errorf("%w: %s", ErrImageType, name)
	}
	if len(data) > MaxImageBytes {
		return Image{}, fmt.Errorf("%w: %s", ErrImageTooLarge, name)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s", ErrImageCorrupt, name)
	}
	thumb, err := Thumbnail(img)
	if err != nil {
		return Image{}, err
	}

	return Image{
		Name:        name,
		Ext:         ext,
		ContentType: ct,
		Data:        data,
		Thumbnail:   thumb,
	}, nil
}

// Thumbnail scales img to ThumbnailWidth and encodes it as JPEG. Images
// narrower than ThumbnailWidth are encoded as they are.
func Thumbnail(img image.Image) ([]byte, error) {
	if img.Bounds().Dx() > ThumbnailWidth {
		img = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
