package httpapi

import (
	"net/http"

	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/middleware"
)

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.auth.ListAccounts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", profiles)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.auth.Profile(r.Context(), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", profile)
}

type profileRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	MobileNo string `json:"mobile_no"`
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	var req profileRequest
	var pictureURL, pictureKey string

	if isMultipart(r) {
		if err := parseMultipart(w, r, maxProfileForm); err != nil {
			h.fail(w, r, err)
			return
		}
		req = profileRequest{
			Name:     formValue(r, "name"),
			Address:  formValue(r, "address"),
			MobileNo: formValue(r, "mobile_no"),
		}
		var err error
		pictureURL, pictureKey, err = h.storePicture(r, accountID, "image")
		if err != nil {
			h.fail(w, r, err)
			return
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	profile, err := h.auth.UpdateProfile(r.Context(), accountID, roomrent.ProfileUpdate{
		Name:           req.Name,
		Address:        req.Address,
		MobileNo:       req.MobileNo,
		ProfilePicture: pictureURL,
	})
	if err != nil {
		h.discardPicture(r, pictureKey)
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Profile updated", profile)
}
