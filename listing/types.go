package listing

import (
	"context"
	"time"

	"github.com/MrEthical07/roomrent"
)

// MaxImages is the per-room image limit.
const MaxImages = 4

// Image is one stored room picture and its thumbnail.
type Image struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Key          string `json:"-"`
	ThumbnailKey string `json:"-"`
}

// Room is a rentable listing.
type Room struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	OwnerName   string    `json:"userName"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Location    string    `json:"location"`
	City        string    `json:"city"`
	Available   bool      `json:"is_available"`
	Images      []Image   `json:"images"`
	Amenities   []string  `json:"amenities"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateRoomInput struct {
	Category    string
	Title       string
	Description string
	Price       float64
	Location    string
	City        string
	Amenities   []string
}

// UpdateRoomInput holds the fields to change. Nil fields are kept.
type UpdateRoomInput struct {
	Category    *string
	Title       *string
	Description *string
	Price       *float64
	Location    *string
	City        *string
	Available   *bool
	Amenities   []string
}

// Upload is a raw image file from the client.
type Upload struct {
	Name string
	Data []byte
}

// RoomPatch is the store-level update. Nil fields are kept; a non-nil
// Images replaces the image list.
type RoomPatch struct {
	UpdateRoomInput
	Images []Image
}

// Filter selects rooms. Zero fields do not filter.
type Filter struct {
	Search       string
	Category     string
	MinPrice     *float64
	MaxPrice     *float64
	Available    *bool
	City         string
	OwnerID      string
	CreatedSince time.Time
}

// FindOptions pages a FindRooms call. Limit 0 returns everything.
type FindOptions struct {
	Skip  int64
	Limit int64
}

// Query is the raw search request from the HTTP layer.
type Query struct {
	Search    string
	Category  string
	Price     string
	Available string
	City      string
	Page      int
	Limit     int
}

// Page is a search result page.
type Page struct {
	Rooms       []Room `json:"rooms"`
	TotalCount  int64  `json:"totalCount"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
}

// OwnerPage lists an owner's rooms with neighbouring page numbers.
type OwnerPage struct {
	Result   []Room `json:"result"`
	Count    int64  `json:"count"`
	Previous *int   `json:"previous"`
	Next     *int   `json:"next"`
}

// Store persists rooms. Implementations return ErrRoomNotFound for missing
// rooms and sort FindRooms newest first.
type Store interface {
	InsertRoom(ctx context.Context, room Room) (Room, error)
	FindRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, id string, patch RoomPatch) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
	FindRooms(ctx context.Context, f Filter, opts FindOptions) ([]Room, error)
	CountRooms(ctx context.Context, f Filter) (int64, error)
	CountEnquiries(ctx context.Context, roomID string) (int64, error)
}

// Owners resolves the public profile of a room owner.
type Owners interface {
	Profile(ctx context.Context, accountID string) (roomrent.Profile, error)
}
