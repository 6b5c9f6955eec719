package flows

import (
	"time"

	"github.com/MrEthical07/roomrent/jwt"
)

// AuthenticateDeps captures what bearer credential verification needs. It
// never touches the account store.
type AuthenticateDeps struct {
	ParseAccess func(string) (*jwt.AccountClaims, error)
	Now         func() time.Time
	Observe     func(time.Duration)
	MetricInc   func(int)

	FailureMetric int
	Invalid       error
}

// AuthenticateResult carries the identity proven by a credential.
type AuthenticateResult struct {
	AccountID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RunAuthenticate verifies tokenStr and returns the account it names.
func RunAuthenticate(tokenStr string, deps AuthenticateDeps) (AuthenticateResult, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	start := deps.Now()
	if deps.Observe != nil {
		defer func() { deps.Observe(deps.Now().Sub(start)) }()
	}

	if tokenStr == "" || deps.ParseAccess == nil {
		deps.MetricInc(deps.FailureMetric)
		return AuthenticateResult{}, deps.Invalid
	}

	claims, err := deps.ParseAccess(tokenStr)
	if err != nil {
		deps.MetricInc(deps.FailureMetric)
		return AuthenticateResult{}, deps.Invalid
	}

	res := AuthenticateResult{AccountID: claims.Subject}
	if res.AccountID == "" {
		res.AccountID = claims.UID
	}
	if claims.IssuedAt != nil {
		res.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		res.ExpiresAt = claims.ExpiresAt.Time
	}
	return res, nil
}
