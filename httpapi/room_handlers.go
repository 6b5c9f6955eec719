package httpapi

import (
	"net/http"
	"strconv"

	"github.com/MrEthical07/roomrent/enquiry"
	"github.com/MrEthical07/roomrent/listing"
	"github.com/MrEthical07/roomrent/middleware"
	"github.com/go-chi/chi/v5"
)

func (h *handler) listRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.rooms.List(r.Context(), listing.Query{
		Search:    q.Get("search"),
		Category:  q.Get("category"),
		Price:     q.Get("price"),
		Available: q.Get("is_available"),
		City:      q.Get("city"),
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", page)
}

func (h *handler) recentRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.RecentlyAdded(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", rooms)
}

func (h *handler) getRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.Get(r.Context(), chi.URLParam(r, "roomId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", room)
}

func (h *handler) createRoom(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		h.fail(w, r, invalid("rooms must be submitted as multipart/form-data"))
		return
	}
	if err := parseMultipart(w, r, maxRoomForm); err != nil {
		h.fail(w, r, err)
		return
	}
	in := listing.CreateRoomInput{
		Category:    formValue(r, "category"),
		Title:       formValue(r, "title"),
		Description: formValue(r, "description"),
		Location:    formValue(r, "location"),
		City:        formValue(r, "city"),
		Amenities:   formList(r, "amenities"),
	}
	if raw := formValue(r, "price"); raw != "" {
		price, err := parsePrice(raw)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		in.Price = price
	}
	uploads, err := readUploads(r, "images")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	room, err := h.rooms.Create(r.Context(), middleware.AccountIDFromContext(r.Context()), in, uploads)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Room added", room)
}

func (h *handler) updateRoom(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		h.fail(w, r, invalid("rooms must be submitted as multipart/form-data"))
		return
	}
	if err := parseMultipart(w, r, maxRoomForm); err != nil {
		h.fail(w, r, err)
		return
	}
	in := listing.UpdateRoomInput{
		Category:    optionalField(r, "category"),
		Title:       optionalField(r, "title"),
		Description: optionalField(r, "description"),
		Location:    optionalField(r, "location"),
		City:        optionalField(r, "city"),
		Amenities:   formList(r, "amenities"),
	}
	if raw := optionalField(r, "price"); raw != nil {
		price, err := parsePrice(*raw)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		in.Price = &price
	}
	if raw := optionalField(r, "is_available"); raw != nil {
		avail, err := strconv.ParseBool(*raw)
		if err != nil {
			h.fail(w, r, invalid("is_available must be true or false"))
			return
		}
		in.Available = &avail
	}
	uploads, err := readUploads(r, "images")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	room, err := h.rooms.Update(r.Context(), middleware.AccountIDFromContext(r.Context()),
		chi.URLParam(r, "roomId"), in, uploads)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Room updated", room)
}

func (h *handler) deleteRoom(w http.ResponseWriter, r *http.Request) {
	err := h.rooms.Delete(r.Context(), middleware.AccountIDFromContext(r.Context()), chi.URLParam(r, "roomId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Room deleted", nil)
}

func (h *handler) ownRooms(w http.ResponseWriter, r *http.Request) {
	page, err := h.rooms.ListByOwner(r.Context(), middleware.AccountIDFromContext(r.Context()),
		queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", page)
}

type enquiryRequest struct {
	RoomID   string `json:"roomId"`
	Name     string `json:"name"`
	MobileNo string `json:"mobile_no"`
	Message  string `json:"message"`
}

func (h *handler) submitEnquiry(w http.ResponseWriter, r *http.Request) {
	var req enquiryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.enquiries.Submit(r.Context(), middleware.AccountIDFromContext(r.Context()), enquiry.Input{
		RoomID:   req.RoomID,
		Name:     req.Name,
		MobileNo: req.MobileNo,
		Message:  req.Message,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Enquiry sent", e)
}

func (h *handler) listEnquiries(w http.ResponseWriter, r *http.Request) {
	list, err := h.enquiries.ListByCustomer(r.Context(), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", list)
}
