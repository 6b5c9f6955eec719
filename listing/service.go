package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/blob"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecentWindow is how far back RecentlyAdded looks.
const RecentWindow = 48 * time.Hour

// Service implements the listing operations. It is safe for concurrent use.
type Service struct {
	store  Store
	blobs  blob.Store
	owners Owners
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, blobs blob.Store, owners Owners, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		blobs:  blobs,
		owners: owners,
		logger: logger.Named("listing"),
		now:    time.Now,
	}
}

// Create stores a new room for ownerID with 1 to MaxImages images.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateRoomInput, uploads []Upload) (Room, error) {
	if ownerID == "" {
		return Room{}, roomrent.ErrUnauthorized
	}
	if err := validateCreate(in); err != nil {
		return Room{}, err
	}
	switch {
	case len(uploads) == 0:
		return Room{}, ErrNoImages
	case len(uploads) > MaxImages:
		return Room{}, ErrTooManyImages
	}
	images, err := prepareAll(uploads)
	if err != nil {
		return Room{}, err
	}

	owner, err := s.owners.Profile(ctx, ownerID)
	if err != nil {
		return Room{}, err
	}

	now := s.now().UTC()
	room, err := s.store.InsertRoom(ctx, Room{
		OwnerID:     ownerID,
		OwnerName:   owner.Name,
		Category:    strings.TrimSpace(in.Category),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Location:    strings.TrimSpace(in.Location),
		City:        strings.TrimSpace(in.City),
		Available:   true,
		Images:      []Image{},
		Amenities:   cleanAmenities(in.Amenities),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Room{}, err
	}

	stored, err := s.upload(ctx, room.ID, images)
	if err != nil {
		if delErr := s.store.DeleteRoom(ctx, room.ID); delErr != nil {
			s.logger.Warn("rollback room insert failed", zap.String("room_id", room.ID), zap.Error(delErr))
		}
		return Room{}, err
	}

	return s.store.UpdateRoom(ctx, room.ID, RoomPatch{Images: stored})
}

// Update changes an owned room. New uploads are appended to the existing
// images.
func (s *Service) Update(ctx context.Context, ownerID, roomID string, in UpdateRoomInput, uploads []Upload) (Room, error) {
	room, err := s.owned(ctx, ownerID, roomID)
	if err != nil {
		return Room{}, err
	}
	if err := validateUpdate(in); err != nil {
		return Room{}, err
	}
	if len(room.Images)+len(uploads) > MaxImages {
		return Room{}, ErrTooManyImages
	}

	patch := RoomPatch{UpdateRoomInput: trimUpdate(in)}
	if len(uploads) > 0 {
		images, err := prepareAll(uploads)
		if err != nil {
			return Room{}, err
		}
		stored, err := s.upload(ctx, room.ID, images)
		if err != nil {
			return Room{}, err
		}
		patch.Images = append(append([]Image{}, room.Images...), stored...)
	}

	return s.store.UpdateRoom(ctx, room.ID, patch)
}

// Delete removes an owned room unless it has enquiries. Image cleanup is
// best effort.
func (s *Service) Delete(ctx context.Context, ownerID, roomID string) error {
	room, err := s.owned(ctx, ownerID, roomID)
	if err != nil {
		return err
	}

	n, err := s.store.CountEnquiries(ctx, room.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrRoomHasEnquiries
	}

	if err := s.store.DeleteRoom(ctx, room.ID); err != nil {
		return err
	}
	s.removeImages(ctx, room.Images)
	return nil
}

// Get returns one room.
func (s *Service) Get(ctx context.Context, roomID string) (Room, error) {
	if strings.TrimSpace(roomID) == "" {
		return Room{}, ErrRoomNotFound
	}
	return s.store.FindRoom(ctx, roomID)
}

// List searches rooms, newest first.
func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	page, limit := normalizePage(q.Page, q.Limit)
	f := BuildFilter(q)
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return Page{}, invalid("price range %q is inverted", q.Price)
	}

	rooms, err := s.store.FindRooms(ctx, f, FindOptions{
		Skip:  int64((page - 1) * limit),
		Limit: int64(limit),
	})
	if err != nil {
		return Page{}, err
	}
	count, err := s.store.CountRooms(ctx, f)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Rooms:       nonNil(rooms),
		TotalCount:  count,
		CurrentPage: page,
		TotalPages:  totalPages(count, limit),
	}, nil
}

// RecentlyAdded returns the rooms created within RecentWindow.
func (s *Service) RecentlyAdded(ctx context.Context) ([]Room, error) {
	rooms, err := s.store.FindRooms(ctx, Filter{CreatedSince: s.now().Add(-RecentWindow)}, FindOptions{})
	if err != nil {
		return nil, err
	}
	return nonNil(rooms), nil
}

// ListByOwner pages through ownerID's rooms.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, page, limit int) (OwnerPage, error) {
	if ownerID == "" {
		return OwnerPage{}, roomrent.ErrUnauthorized
	}
	page, limit = normalizePage(page, limit)
	f := Filter{OwnerID: ownerID}

	rooms, err := s.store.FindRooms(ctx, f, FindOptions{
		Skip:  int64((page - 1) * limit),
		Limit: int64(limit),
	})
	if err != nil {
		return OwnerPage{}, err
	}
	count, err := s.store.CountRooms(ctx, f)
	if err != nil {
		return OwnerPage{}, err
	}

	out := OwnerPage{Result: nonNil(rooms), Count: count}
	if page > 1 {
		prev := page - 1
		out.Previous = &prev
	}
	if page < totalPages(count, limit) {
		next := page + 1
		out.Next = &next
	}
	return out, nil
}

func (s *Service) owned(ctx context.Context, ownerID, roomID string) (Room, error) {
	if ownerID == "" {
		return Room{}, roomrent.ErrUnauthorized
	}
	room, err := s.Get(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	if room.OwnerID != ownerID {
		return Room{}, ErrRoomNotFound
	}
	return room, nil
}

// upload writes images and thumbnails under rooms/<roomID>/. On failure the
// objects already written are removed.
func (s *Service) upload(ctx context.Context, roomID string, images []blob.Image) ([]Image, error) {
	out := make([]Image, 0, len(images))
	for _, img := range images {
		id := uuid.NewString()
		stored := Image{
			ID:           id,
			Key:          fmt.Sprintf("rooms/%s/%s%s", roomID, id, img.Ext),
			ThumbnailKey: fmt.Sprintf("rooms/%s/%s_thumb.jpg", roomID, id),
		}

		url, err := s.blobs.Put(ctx, stored.Key, img.ContentType, img.Data)
		if err != nil {
			s.removeImages(ctx, out)
			return nil, err
		}
		stored.URL = url

		thumbURL, err := s.blobs.Put(ctx, stored.ThumbnailKey, "image/jpeg", img.Thumbnail)
		if err != nil {
			s.removeImages(ctx, append(out, Image{Key: stored.Key}))
			return nil, err
		}
		stored.ThumbnailURL = thumbURL
		out = append(out, stored)
	}
	return out, nil
}

func (s *Service) removeImages(ctx context.Context, images []Image) {
	for _, img := range images {
		for _, key := range []string{img.Key, img.ThumbnailKey} {
			if key == "" {
				continue
			}
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.logger.Warn("delete image failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

func prepareAll(uploads []Upload) ([]blob.Image, error) {
	out := make([]blob.Image, 0, len(uploads))
	for _, u := range uploads {
		img, err := blob.PrepareImage(u.Name, u.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", roomrent.ErrValidation, err)
		}
		out = append(out, img)
	}
	return out, nil
}

func validateCreate(in CreateRoomInput) error {
	required := []struct{ name, value string }{
		{"title", in.Title},
		{"description", in.Description},
		{"category", in.Category},
		{"location", in.Location},
		{"city", in.City},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid("%s is required", r.name)
		}
	}
	if in.Price <= 0 {
		return invalid("price must be positive")
	}
	return nil
}

func validateUpdate(in UpdateRoomInput) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"title", in.Title},
		{"description", in.Description},
		{"category", in.Category},
		{"location", in.Location},
		{"city", in.City},
	}
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return invalid("%s cannot be empty", f.name)
		}
	}
	if in.Price != nil && *in.Price <= 0 {
		return invalid("price must be positive")
	}
	return nil
}

func trimUpdate(in UpdateRoomInput) UpdateRoomInput {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	in.Title = trim(in.Title)
	in.Description = trim(in.Description)
	in.Category = trim(in.Category)
	in.Location = trim(in.Location)
	in.City = trim(in.City)
	if in.Amenities != nil {
		in.Amenities = cleanAmenities(in.Amenities)
	}
	return in
}

func cleanAmenities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func nonNil(rooms []Room) []Room {
	if rooms == nil {
		return []Room{}
	}
	return rooms
}
