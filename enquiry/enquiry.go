// Package enquiry lets customers ask about a room. The owner gets an email
// with the customer's details.
package enquiry

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/listing"
	"go.uber.org/zap"
)

var (
	// ErrRoomUnavailable is returned for rooms that are not open for
	// enquiries.
	ErrRoomUnavailable = fmt.Errorf("%w: room is not available for enquiry", roomrent.ErrValidation)
	// ErrOwnRoom is returned when an owner enquires about their own room.
	ErrOwnRoom = fmt.Errorf("%w: cannot enquire about your own room", roomrent.ErrValidation)
)

// Enquiry is a stored customer request.
type Enquiry struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"room"`
	CustomerEmail string    `json:"customer_email"`
	Name          string    `json:"name"`
	MobileNo      string    `json:"mobile_no"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Input struct {
	RoomID   string
	Name     string
	MobileNo string
	Message  string
}

// Store persists enquiries. ListByCustomer returns newest first.
type Store interface {
	InsertEnquiry(ctx context.Context, e Enquiry) (Enquiry, error)
	ListEnquiriesByCustomer(ctx context.Context, customerEmail string) ([]Enquiry, error)
}

type Rooms interface {
	Get(ctx context.Context, roomID string) (listing.Room, error)
}

type Accounts interface {
	Profile(ctx context.Context, accountID string) (roomrent.Profile, error)
}

// Mailer queues a notification. *roomrent.Engine implements it.
type Mailer interface {
	Enqueue(ctx context.Context, n roomrent.Notification) bool
}

const ownerSubject = "Room Enquiry"

var ownerMail = template.Must(template.New("enquiry").Parse(
	`<h1>{{.Owner}}</h1><p>Someone asked about <strong>{{.Title}}</strong>.</p>` +
		`<ul><li>Customer email: {{.Email}}</li><li>Customer name: {{.Name}}</li>` +
		`<li>Mobile number: {{.Mobile}}</li><li>Message: {{.Message}}</li></ul>`))

type Service struct {
	store    Store
	rooms    Rooms
	accounts Accounts
	mailer   Mailer
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, rooms Rooms, accounts Accounts, mailer Mailer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		rooms:    rooms,
		accounts: accounts,
		mailer:   mailer,
		logger:   logger.Named("enquiry"),
		now:      time.Now,
	}
}

// Submit records an enquiry from customerID and emails the room owner. The
// email is queued; a failed send does not fail the enquiry.
func (s *Service) Submit(ctx context.Context, customerID string, in Input) (Enquiry, error) {
	if customerID == "" {
		return Enquiry{}, roomrent.ErrUnauthorized
	}
	in.RoomID = strings.TrimSpace(in.RoomID)
	in.Name = strings.TrimSpace(in.Name)
	in.MobileNo = strings.TrimSpace(in.MobileNo)
	switch {
	case in.RoomID == "":
		return Enquiry{}, fmt.Errorf("%w: roomId is required", roomrent.ErrValidation)
	case in.Name == "":
		return Enquiry{}, fmt.Errorf("%w: name is required", roomrent.ErrValidation)
	case in.MobileNo == "":
		return Enquiry{}, fmt.Errorf("%w: mobile_no is required", roomrent.ErrValidation)
	}

	customer, err := s.accounts.Profile(ctx, customerID)
	if err != nil {
		return Enquiry{}, err
	}
	room, err := s.rooms.Get(ctx, in.RoomID)
	if err != nil {
		return Enquiry{}, err
	}
	if !room.Available {
		return Enquiry{}, ErrRoomUnavailable
	}
	if room.OwnerID == customerID {
		return Enquiry{}, ErrOwnRoom
	}

	saved, err := s.store.InsertEnquiry(ctx, Enquiry{
		RoomID:        room.ID,
		CustomerEmail: customer.Email,
		Name:          in.Name,
		MobileNo:      in.MobileNo,
		Message:       strings.TrimSpace(in.Message),
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		return Enquiry{}, err
	}

	s.notifyOwner(ctx, room, saved)
	return saved, nil
}

// ListByCustomer returns the enquiries made by customerID.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Enquiry, error) {
	if customerID == "" {
		return nil, roomrent.ErrUnauthorized
	}
	customer, err := s.accounts.Profile(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListEnquiriesByCustomer(ctx, customer.Email)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Enquiry{}
	}
	return out, nil
}

func (s *Service) notifyOwner(ctx context.Context, room listing.Room, e Enquiry) {
	owner, err := s.accounts.Profile(ctx, room.OwnerID)
	if err != nil {
		s.logger.Warn("owner lookup failed", zap.String("room_id", room.ID), zap.Error(err))
		return
	}

	var body bytes.Buffer
	err = ownerMail.Execute(&body, map[string]string{
		"Owner":   owner.Name,
		"Title":   room.Title,
		"Email":   e.CustomerEmail,
		"Name":    e.Name,
		"Mobile":  e.MobileNo,
		"Message": e.Message,
	})
	if err != nil {
		s.logger.Error("render enquiry mail", zap.Error(err))
		return
	}

	if !s.mailer.Enqueue(ctx, roomrent.Notification{
		To:      owner.Email,
		Subject: ownerSubject,
		Body:    body.String(),
		Kind:    "enquiry",
	}) {
		s.logger.Warn("enquiry mail dropped", zap.String("room_id", room.ID))
	}
}
