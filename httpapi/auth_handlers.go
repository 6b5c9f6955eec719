package httpapi

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type registerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	Address   string `json:"address"`
	MobileNo  string `json:"mobile_no"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	var pictureURL, pictureKey string

	if isMultipart(r) {
		if err := parseMultipart(w, r, maxProfileForm); err != nil {
			h.fail(w, r, err)
			return
		}
		req = registerRequest{
			Name:      formValue(r, "name"),
			Email:     formValue(r, "email"),
			Password:  r.FormValue("password"),
			Password2: r.FormValue("password2"),
			Address:   formValue(r, "address"),
			MobileNo:  formValue(r, "mobile_no"),
		}
		var err error
		pictureURL, pictureKey, err = h.storePicture(r, "pending-"+uuid.NewString(), "profile_picture")
		if err != nil {
			h.fail(w, r, err)
			return
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	profile, err := h.auth.Register(r.Context(), roomrent.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.Password2,
		Name:            req.Name,
		Address:         req.Address,
		MobileNo:        req.MobileNo,
		ProfilePicture:  pictureURL,
	})
	if err != nil {
		h.discardPicture(r, pictureKey)
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Registered. Check your email to verify the account.", profile)
}

func (h *handler) verify(w http.ResponseWriter, r *http.Request) {
	err := h.auth.ConfirmVerification(r.Context(), chi.URLParam(r, "accountId"), chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Email verified. You can now log in.", nil)
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.auth.ResendVerification(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "If the account needs verification, a new link has been sent.", nil)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string           `json:"token"`
	User  roomrent.Profile `json:"user"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, roomrent.ErrBadCredential) {
		h.failWithStatus(w, r, http.StatusNotAcceptable, err)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusAccepted, "Login successful", loginResponse{Token: res.Credential, User: res.Profile})
}

func (h *handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.auth.RequestRecovery(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "If the email is registered, a reset code has been sent.", nil)
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	token, err := h.auth.VerifyRecovery(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Code verified", map[string]string{"token": token})
}

type resetPasswordRequest struct {
	Token     string `json:"token"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password, req.Password2); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Password has been reset", nil)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	Password    string `json:"password"`
	Password2   string `json:"password2"`
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	err := h.auth.ChangePassword(r.Context(), middleware.AccountIDFromContext(r.Context()),
		req.OldPassword, req.Password, req.Password2)
	if errors.Is(err, roomrent.ErrBadCredential) {
		// A wrong old password is a bad request here, not a failed login.
		h.failWithStatus(w, r, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Password changed", nil)
}
