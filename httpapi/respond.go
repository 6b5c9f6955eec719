package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/enquiry"
	"github.com/MrEthical07/roomrent/listing"
	"go.uber.org/zap"
)

const maxJSONBody = 64 << 10

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type failure struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// domainCodes refine roomrent.CodeOf for errors defined outside the auth
// core.
var domainCodes = []struct {
	err  error
	code string
}{
	{listing.ErrRoomNotFound, "room_not_found"},
	{listing.ErrRoomHasEnquiries, "room_has_enquiries"},
	{listing.ErrNoImages, "images_required"},
	{listing.ErrTooManyImages, "too_many_images"},
	{enquiry.ErrRoomUnavailable, "room_unavailable"},
	{enquiry.ErrOwnRoom, "own_room"},
}

func codeOf(err error) string {
	for _, c := range domainCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return roomrent.CodeOf(err)
}

func statusOf(err error) int {
	switch roomrent.KindOf(err) {
	case roomrent.KindValidation, roomrent.KindConflict:
		return http.StatusBadRequest
	case roomrent.KindNotFound:
		return http.StatusNotFound
	case roomrent.KindUnauthorized:
		return http.StatusUnauthorized
	case roomrent.KindForbidden:
		return http.StatusForbidden
	case roomrent.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.failWithStatus(w, r, statusOf(err), err)
}

// failWithStatus hides the message of internal errors from the client and
// logs them instead.
func (h *handler) failWithStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	if roomrent.KindOf(err) == roomrent.KindInternal {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("route", routePattern(r)),
			zap.Error(err),
		)
		msg = "internal server error"
	}
	writeJSON(w, status, failure{Success: false, Code: codeOf(err), Message: msg})
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", roomrent.ErrValidation, fmt.Sprintf(format, args...))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return invalid("request body is empty")
		}
		return invalid("malformed JSON body")
	}
	return nil
}
