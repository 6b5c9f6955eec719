package listing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/MrEthical07/roomrent"
)

// memStore is a Store over a map, applying Filter the way the Mongo store
// does.
type memStore struct {
	mu        sync.Mutex
	rooms     map[string]Room
	enquiries map[string]int64
	seq       int
}

func newMemStore() *memStore {
	return &memStore{rooms: map[string]Room{}, enquiries: map[string]int64{}}
}

func (m *memStore) InsertRoom(_ context.Context, r Room) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.ID = fmt.Sprintf("room%d", m.seq)
	m.rooms[r.ID] = r
	return r, nil
}

func (m *memStore) FindRoom(_ context.Context, id string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	return r, nil
}

func (m *memStore) UpdateRoom(_ context.Context, id string, p RoomPatch) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&r.Title, p.Title)
	set(&r.Description, p.Description)
	set(&r.Category, p.Category)
	set(&r.Location, p.Location)
	set(&r.City, p.City)
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.Available != nil {
		r.Available = *p.Available
	}
	if p.Amenities != nil {
		r.Amenities = p.Amenities
	}
	if p.Images != nil {
		r.Images = p.Images
	}
	m.rooms[id] = r
	return r, nil
}

func (m *memStore) DeleteRoom(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return ErrRoomNotFound
	}
	delete(m.rooms, id)
	return nil
}

func (m *memStore) match(r Room, f Filter) bool {
	if f.Search != "" {
		s := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Title), s) && !strings.Contains(strings.ToLower(r.Description), s) {
			return false
		}
	}
	switch {
	case f.Category != "" && r.Category != f.Category,
		f.City != "" && r.City != f.City,
		f.OwnerID != "" && r.OwnerID != f.OwnerID,
		f.MinPrice != nil && r.Price < *f.MinPrice,
		f.MaxPrice != nil && r.Price > *f.MaxPrice,
		f.Available != nil && r.Available != *f.Available,
		!f.CreatedSince.IsZero() && r.CreatedAt.Before(f.CreatedSince):
		return false
	}
	return true
}

func (m *memStore) FindRooms(_ context.Context, f Filter, opts FindOptions) ([]Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Room
	for _, r := range m.rooms {
		if m.match(r, f) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if opts.Skip >= int64(len(out)) {
		return nil, nil
	}
	out = out[opts.Skip:]
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memStore) CountRooms(ctx context.Context, f Filter) (int64, error) {
	rooms, _ := m.FindRooms(ctx, f, FindOptions{})
	return int64(len(rooms)), nil
}

func (m *memStore) CountEnquiries(_ context.Context, roomID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enquiries[roomID], nil
}

type fakeOwners map[string]string

func (f fakeOwners) Profile(_ context.Context, id string) (roomrent.Profile, error) {
	name, ok := f[id]
	if !ok {
		return roomrent.Profile{}, roomrent.ErrAccountNotFound
	}
	return roomrent.Profile{ID: id, Name: name}, nil
}

func seedRoom(t *testing.T, s *memStore, r Room) Room {
	t.Helper()
	out, err := s.InsertRoom(context.Background(), r)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return out
}
