package httpapi

import (
	"context"
	"net/http"

	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/blob"
	"github.com/MrEthical07/roomrent/enquiry"
	"github.com/MrEthical07/roomrent/listing"
	"github.com/MrEthical07/roomrent/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Auth is the account surface. *roomrent.Engine implements it.
type Auth interface {
	middleware.Authenticator
	Register(ctx context.Context, in roomrent.RegisterInput) (roomrent.Profile, error)
	ConfirmVerification(ctx context.Context, accountID, token string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (roomrent.LoginResult, error)
	RequestRecovery(ctx context.Context, email string) error
	VerifyRecovery(ctx context.Context, email, otp string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword, confirmPassword string) error
	Profile(ctx context.Context, accountID string) (roomrent.Profile, error)
	ListAccounts(ctx context.Context) ([]roomrent.Profile, error)
	UpdateProfile(ctx context.Context, accountID string, upd roomrent.ProfileUpdate) (roomrent.Profile, error)
}

// Rooms is the listing surface. *listing.Service implements it.
type Rooms interface {
	Create(ctx context.Context, ownerID string, in listing.CreateRoomInput, uploads []listing.Upload) (listing.Room, error)
	Update(ctx context.Context, ownerID, roomID string, in listing.UpdateRoomInput, uploads []listing.Upload) (listing.Room, error)
	Delete(ctx context.Context, ownerID, roomID string) error
	Get(ctx context.Context, roomID string) (listing.Room, error)
	List(ctx context.Context, q listing.Query) (listing.Page, error)
	RecentlyAdded(ctx context.Context) ([]listing.Room, error)
	ListByOwner(ctx context.Context, ownerID string, page, limit int) (listing.OwnerPage, error)
}

// Enquiries is the enquiry surface. *enquiry.Service implements it.
type Enquiries interface {
	Submit(ctx context.Context, customerID string, in enquiry.Input) (enquiry.Enquiry, error)
	ListByCustomer(ctx context.Context, customerID string) ([]enquiry.Enquiry, error)
}

var (
	_ Auth      = (*roomrent.Engine)(nil)
	_ Rooms     = (*listing.Service)(nil)
	_ Enquiries = (*enquiry.Service)(nil)
)

// Deps wires the router. Metrics and Health are optional.
type Deps struct {
	Auth      Auth
	Rooms     Rooms
	Enquiries Enquiries
	// Blobs stores profile pictures.
	Blobs   blob.Store
	Metrics http.Handler
	Health  func(ctx context.Context) error
	Logger  *zap.Logger
	// AllowedOrigins defaults to "*".
	AllowedOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxy bool
}

type handler struct {
	auth      Auth
	rooms     Rooms
	enquiries Enquiries
	blobs     blob.Store
	health    func(ctx context.Context) error
	logger    *zap.Logger
}

// NewRouter returns the HTTP handler for every route.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h := &handler{
		auth:      d.Auth,
		rooms:     d.Rooms,
		enquiries: d.Enquiries,
		blobs:     d.Blobs,
		health:    d.Health,
		logger:    logger.Named("http"),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(requestLogger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(clientIP)

	r.Get("/healthz", h.healthz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	// Credentials on these routes are never inspected.
	r.Post("/register", h.register)
	r.Get("/verify/{accountId}/{token}", h.verify)
	r.Post("/verify/resend", h.resendVerification)
	r.Post("/login", h.login)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/verify-otp", h.verifyOTP)
	r.Post("/reset-password", h.resetPassword)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Gate(d.Auth))

		r.Get("/rooms", h.listRooms)
		r.Get("/rooms/recently-added", h.recentRooms)
		r.Get("/rooms/{roomId}", h.getRoom)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAccount)

			r.Put("/change-password", h.changePassword)
			r.Get("/user", h.listUsers)
			r.Get("/user/me", h.me)
			r.Put("/user/update", h.updateProfile)

			r.Post("/rooms", h.createRoom)
			r.Put("/rooms/{roomId}", h.updateRoom)
			r.Delete("/rooms/{roomId}", h.deleteRoom)

			r.Get("/profile/room", h.ownRooms)
			r.Post("/profile/enquiry", h.submitEnquiry)
			r.Get("/profile/enquiryList", h.listEnquiries)
		})
	})

	return r
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ok"})
}
