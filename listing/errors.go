package listing

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/roomrent"
)

var (
	// ErrRoomNotFound is returned for a missing room and for a room the
	// caller does not own.
	ErrRoomNotFound = fmt.Errorf("room %w", roomrent.ErrNotFound)
	// ErrRoomHasEnquiries blocks deleting a room that customers asked about.
	ErrRoomHasEnquiries = fmt.Errorf("room has enquiries: %w", roomrent.ErrForbidden)
	// ErrNoImages is returned when a new room comes without images.
	ErrNoImages = fmt.Errorf("%w: at least one image is required", roomrent.ErrValidation)
	// ErrTooManyImages is returned when a room would hold more than MaxImages.
	ErrTooManyImages = fmt.Errorf("%w: at most %d images per room", roomrent.ErrValidation, MaxImages)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", roomrent.ErrValidation, fmt.Sprintf(format, args...))
}

// IsRoomNotFound reports whether err is ErrRoomNotFound.
func IsRoomNotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound)
}
