package notify

import (
	"errors"
	"strings"

	"github.com/MrEthical07/roomrent"
)

var (
	_ roomrent.Notifier = (*SMTP)(nil)
	_ roomrent.Notifier = (*Brevo)(nil)
	_ roomrent.Notifier = (*Log)(nil)
)

// ErrInvalidMessage is returned for an empty recipient, subject or body, or
// for header values containing line breaks.
var ErrInvalidMessage = errors.New("notify: invalid message")

func checkMessage(to, subject, body string) error {
	if to == "" || subject == "" || body == "" {
		return ErrInvalidMessage
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return ErrInvalidMessage
	}
	return nil
}
