package httpapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/enquiry"
	"github.com/MrEthical07/roomrent/listing"
)

const goodToken = "good-token"

type fakeAuth struct {
	mu        sync.Mutex
	profiles  map[string]roomrent.Profile
	passwords map[string]string
	err       error

	registered []roomrent.RegisterInput
	updated    []roomrent.ProfileUpdate
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		profiles: map[string]roomrent.Profile{
			"acc1": {ID: "acc1", Email: "a@x.com", Name: "Alice", Verified: true},
		},
		passwords: map[string]string{"a@x.com": "secret1"},
	}
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*roomrent.AuthResult, error) {
	if token != goodToken {
		return nil, roomrent.ErrInvalidCredential
	}
	return &roomrent.AuthResult{AccountID: "acc1", IssuedAt: time.Now()}, nil
}

func (f *fakeAuth) Register(_ context.Context, in roomrent.RegisterInput) (roomrent.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return roomrent.Profile{}, f.err
	}
	if _, exists := f.passwords[in.Email]; exists {
		return roomrent.Profile{}, roomrent.ErrDuplicateIdentity
	}
	f.registered = append(f.registered, in)
	return roomrent.Profile{ID: "acc2", Email: in.Email, Name: in.Name, ProfilePicture: in.ProfilePicture}, nil
}

func (f *fakeAuth) ConfirmVerification(_ context.Context, accountID, token string) error {
	if accountID != "acc1" {
		return roomrent.ErrVerificationNotFound
	}
	if token != "tok" {
		return roomrent.ErrVerificationTokenMismatch
	}
	return nil
}

func (f *fakeAuth) ResendVerification(context.Context, string) error { return f.err }

func (f *fakeAuth) Login(_ context.Context, email, password string) (roomrent.LoginResult, error) {
	want, ok := f.passwords[email]
	switch {
	case !ok:
		return roomrent.LoginResult{}, roomrent.ErrAccountNotFound
	case want != password:
		return roomrent.LoginResult{}, roomrent.ErrBadCredential
	}
	return roomrent.LoginResult{Credential: goodToken, Profile: f.profiles["acc1"]}, nil
}

func (f *fakeAuth) RequestRecovery(context.Context, string) error { return f.err }

func (f *fakeAuth) VerifyRecovery(_ context.Context, _, otp string) (string, error) {
	if otp != "1234" {
		return "", roomrent.ErrOTPMismatch
	}
	return "exchange-token", nil
}

func (f *fakeAuth) ResetPassword(_ context.Context, token, pw, confirm string) error {
	if pw != confirm {
		return roomrent.ErrMismatchedConfirmation
	}
	if token != "exchange-token" {
		return roomrent.ErrInvalidOrExpiredToken
	}
	return nil
}

func (f *fakeAuth) ChangePassword(_ context.Context, accountID, old, _, _ string) error {
	if accountID != "acc1" {
		return roomrent.ErrAccountNotFound
	}
	if old != "secret1" {
		return roomrent.ErrBadCredential
	}
	return nil
}

func (f *fakeAuth) Profile(_ context.Context, accountID string) (roomrent.Profile, error) {
	p, ok := f.profiles[accountID]
	if !ok {
		return roomrent.Profile{}, roomrent.ErrAccountNotFound
	}
	return p, nil
}

func (f *fakeAuth) ListAccounts(context.Context) ([]roomrent.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []roomrent.Profile{f.profiles["acc1"]}, nil
}

func (f *fakeAuth) UpdateProfile(_ context.Context, accountID string, upd roomrent.ProfileUpdate) (roomrent.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, upd)
	p := f.profiles[accountID]
	if upd.Name != "" {
		p.Name = upd.Name
	}
	if upd.ProfilePicture != "" {
		p.ProfilePicture = upd.ProfilePicture
	}
	return p, nil
}

type fakeRooms struct {
	lastQuery  listing.Query
	lastCreate listing.CreateRoomInput
	lastUpdate listing.UpdateRoomInput
	uploads    []listing.Upload
	deleteErr  error
}

func (f *fakeRooms) Create(_ context.Context, ownerID string, in listing.CreateRoomInput, uploads []listing.Upload) (listing.Room, error) {
	f.lastCreate = in
	f.uploads = uploads
	if len(uploads) == 0 {
		return listing.Room{}, listing.ErrNoImages
	}
	return listing.Room{ID: "room1", OwnerID: ownerID, Title: in.Title, Price: in.Price, Available: true}, nil
}

func (f *fakeRooms) Update(_ context.Context, ownerID, roomID string, in listing.UpdateRoomInput, uploads []listing.Upload) (listing.Room, error) {
	f.lastUpdate = in
	f.uploads = uploads
	if roomID != "room1" || ownerID != "acc1" {
		return listing.Room{}, listing.ErrRoomNotFound
	}
	return listing.Room{ID: roomID, OwnerID: ownerID}, nil
}

func (f *fakeRooms) Delete(_ context.Context, _, roomID string) error {
	if roomID != "room1" {
		return listing.ErrRoomNotFound
	}
	return f.deleteErr
}

func (f *fakeRooms) Get(_ context.Context, roomID string) (listing.Room, error) {
	if roomID != "room1" {
		return listing.Room{}, listing.ErrRoomNotFound
	}
	return listing.Room{ID: "room1", Title: "Sunny"}, nil
}

func (f *fakeRooms) List(_ context.Context, q listing.Query) (listing.Page, error) {
	f.lastQuery = q
	if q.Price == "9-1" {
		return listing.Page{}, errors.Join(roomrent.ErrValidation, errors.New("inverted price range"))
	}
	return listing.Page{Rooms: []listing.Room{{ID: "room1"}}, TotalCount: 1, CurrentPage: 1, TotalPages: 1}, nil
}

func (f *fakeRooms) RecentlyAdded(context.Context) ([]listing.Room, error) {
	return []listing.Room{}, nil
}

func (f *fakeRooms) ListByOwner(_ context.Context, ownerID string, page, _ int) (listing.OwnerPage, error) {
	return listing.OwnerPage{Result: []listing.Room{{ID: "room1", OwnerID: ownerID}}, Count: 1}, nil
}

type fakeEnquiries struct{}

func (fakeEnquiries) Submit(_ context.Context, customerID string, in enquiry.Input) (enquiry.Enquiry, error) {
	if in.RoomID == "mine" {
		return enquiry.Enquiry{}, enquiry.ErrOwnRoom
	}
	return enquiry.Enquiry{ID: "e1", RoomID: in.RoomID, Name: in.Name}, nil
}

func (fakeEnquiries) ListByCustomer(context.Context, string) ([]enquiry.Enquiry, error) {
	return []enquiry.Enquiry{{ID: "e1"}}, nil
}
