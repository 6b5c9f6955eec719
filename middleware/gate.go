package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrEthical07/roomrent"
)

// Authenticator verifies a bearer credential. *roomrent.Engine implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*roomrent.AuthResult, error)
}

// ErrorWriter renders a rejected request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, err error)

type authResultContextKey struct{}

// AuthResultFromContext returns the identity attached by [Gate], if any.
func AuthResultFromContext(ctx context.Context) (*roomrent.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*roomrent.AuthResult)
	return res, ok && res != nil
}

// AccountIDFromContext returns the authenticated account id, or "" for
// anonymous requests.
func AccountIDFromContext(ctx context.Context) string {
	if res, ok := AuthResultFromContext(ctx); ok {
		return res.AccountID
	}
	return ""
}

// WithAuthResult attaches res to ctx the way [Gate] does.
func WithAuthResult(ctx context.Context, res *roomrent.AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

// Gate reads the Authorization header of every request. Requests without one
// pass through anonymously. A malformed header is rejected with
// ErrMalformedCredential and a credential that fails verification with
// ErrInvalidCredential, both as 401.
func Gate(auth Authenticator) func(http.Handler) http.Handler {
	return GateWithErrorWriter(auth, WriteError)
}

// GateWithErrorWriter is [Gate] with a custom rejection renderer.
func GateWithErrorWriter(auth Authenticator, write ErrorWriter) func(http.Handler) http.Handler {
	if write == nil {
		write = WriteError
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				write(w, r, http.StatusUnauthorized, roomrent.ErrMalformedCredential)
				return
			}
			if auth == nil || token == "" {
				write(w, r, http.StatusUnauthorized, roomrent.ErrInvalidCredential)
				return
			}

			res, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				write(w, r, http.StatusUnauthorized, roomrent.ErrInvalidCredential)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthResult(r.Context(), res)))
		})
	}
}

// RequireAccount rejects anonymous requests with ErrUnauthorized. It must run
// after [Gate].
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if AccountIDFromContext(r.Context()) == "" {
			WriteError(w, r, http.StatusUnauthorized, roomrent.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteError renders err as the standard JSON failure envelope.
func WriteError(w http.ResponseWriter, _ *http.Request, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Success: false,
		Code:    roomrent.CodeOf(err),
		Message: err.Error(),
	})
}

// bearerToken splits "Bearer <token>". Any other scheme, or a token with
// spaces in it, is malformed. The Bearer scheme with no token is well formed
// and yields "", which the gate treats as an invalid credential.
func bearerToken(value string) (string, bool) {
	scheme, token, _ := strings.Cut(value, " ")
	if scheme != "Bearer" || strings.Contains(token, " ") {
		return "", false
	}
	return token, true
}
