package httpapi

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/blob"
	"github.com/MrEthical07/roomrent/listing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Room forms carry up to listing.MaxImages images plus fields.
	maxRoomForm    = listing.MaxImages*blob.MaxImageBytes + 1<<20
	maxProfileForm = blob.MaxImageBytes + 1<<20
	formMemory     = 8 << 20
)

func isMultipart(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "multipart/form-data"
}

func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		return invalid("malformed or oversized form")
	}
	return nil
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// optionalField returns nil when key is absent from the form.
func optionalField(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := strings.TrimSpace(vals[0])
	return &v
}

// formList accepts repeated keys or a single comma-separated value.
func formList(r *http.Request, key string) []string {
	if r.MultipartForm == nil {
		return nil
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func readUploads(r *http.Request, field string) ([]listing.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	out := make([]listing.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, listing.Upload{Name: fh.Filename, Data: data})
	}
	return out, nil
}

// readPart reads at most one byte past the image limit so oversized files
// still fail validation with ErrImageTooLarge.
func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, blob.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

func parsePrice(raw string) (float64, error) {
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || p < 0 {
		return 0, invalid("price must be a non-negative number")
	}
	return p, nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// storePicture validates and uploads a profile picture under
// users/<owner>/. It returns "" when the form has no file for field.
func (h *handler) storePicture(r *http.Request, owner, field string) (string, string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return "", "", nil
	}
	if h.blobs == nil {
		return "", "", invalid("image uploads are not enabled")
	}
	fh := r.MultipartForm.File[field][0]
	data, err := readPart(fh)
	if err != nil {
		return "", "", err
	}
	img, err := blob.PrepareImage(fh.Filename, data)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", roomrent.ErrValidation, err)
	}
	key := path.Join("users", owner, uuid.NewString()+img.Ext)
	url, err := h.blobs.Put(r.Context(), key, img.ContentType, img.Data)
	if err != nil {
		return "", "", fmt.Errorf("store profile picture: %w", err)
	}
	return url, key, nil
}

func (h *handler) discardPicture(r *http.Request, key string) {
	if key == "" {
		return
	}
	if err := h.blobs.Delete(r.Context(), key); err != nil {
		h.logger.Warn("profile picture cleanup failed", zap.String("key", key), zap.Error(err))
	}
}
