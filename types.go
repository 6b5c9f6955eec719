package roomrent

import (
	"context"
	"time"
)

// Account is the persisted user record. RecoveryCode holds the hex SHA-256
// of the outstanding OTP, never the code itself.
type Account struct {
	ID                string
	Email             string
	Name              string
	Address           string
	MobileNo          string
	ProfilePicture    string
	PasswordHash      string
	Verified          bool
	RecoveryCode      string
	RecoveryExpiresAt time.Time
	RecoveryAttempts  int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Profile is the public projection of an Account.
type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Address        string    `json:"address,omitempty"`
	MobileNo       string    `json:"mobileNo,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Verified       bool      `json:"verified"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Profile returns the public fields of a.
func (a Account) Profile() Profile {
	return Profile{
		ID:             a.ID,
		Email:          a.Email,
		Name:           a.Name,
		Address:        a.Address,
		MobileNo:       a.MobileNo,
		ProfilePicture: a.ProfilePicture,
		Verified:       a.Verified,
		CreatedAt:      a.CreatedAt,
	}
}

// AccountUpdate is a partial account update. Nil fields are left untouched.
// ClearRecovery unsets the recovery code, its expiry and the attempt counter.
type AccountUpdate struct {
	Name              *string
	Address           *string
	MobileNo          *string
	ProfilePicture    *string
	PasswordHash      *string
	Verified          *bool
	RecoveryCode      *string
	RecoveryExpiresAt *time.Time
	RecoveryAttempts  *int
	ClearRecovery     bool
}

// VerificationRecord links an unverified account to its verification token.
type VerificationRecord struct {
	AccountID string
	Token     string
	CreatedAt time.Time
}

// AccountStore persists accounts and verification records.
//
// Implementations return ErrAccountNotFound, ErrVerificationNotFound and
// ErrDuplicateIdentity for the matching conditions. Email lookups are exact;
// the engine normalizes emails before calling the store.
type AccountStore interface {
	FindAccountByEmail(ctx context.Context, email string) (Account, error)
	FindAccountByID(ctx context.Context, id string) (Account, error)
	// InsertAccount stores a and returns it with ID assigned.
	InsertAccount(ctx context.Context, a Account) (Account, error)
	UpdateAccount(ctx context.Context, id string, update AccountUpdate) error
	// IncrementRecoveryAttempts atomically bumps the OTP attempt counter and
	// returns the new value.
	IncrementRecoveryAttempts(ctx context.Context, id string) (int, error)
	ListAccounts(ctx context.Context) ([]Account, error)

	// InsertVerification replaces any existing record for the account.
	InsertVerification(ctx context.Context, rec VerificationRecord) error
	FindVerificationByAccount(ctx context.Context, accountID string) (VerificationRecord, error)
	DeleteVerification(ctx context.Context, accountID string) error
}

// Notifier delivers one HTML email.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, to, subject, htmlBody string) error

// Send calls f.
func (f NotifierFunc) Send(ctx context.Context, to, subject, htmlBody string) error {
	return f(ctx, to, subject, htmlBody)
}

// Notification is a queued email.
type Notification struct {
	To      string
	Subject string
	Body    string
	Kind    string
}

// AuthResult is the identity established by a verified bearer credential.
type AuthResult struct {
	AccountID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RegisterInput carries the fields accepted by Register.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
	Address         string
	MobileNo        string
	ProfilePicture  string
}

// ProfileUpdate carries the user-editable profile fields. Empty strings are
// ignored.
type ProfileUpdate struct {
	Name           string
	Address        string
	MobileNo       string
	ProfilePicture string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Credential string
	Profile    Profile
}
