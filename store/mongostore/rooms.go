package mongostore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/MrEthical07/roomrent/listing"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type imageDoc struct {
	ID           string `bson:"id"`
	URL          string `bson:"url"`
	ThumbnailURL string `bson:"thumbnail_url"`
	Key          string `bson:"key"`
	ThumbnailKey string `bson:"thumbnail_key"`
}

type roomDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     string             `bson:"owner_id"`
	OwnerName   string             `bson:"owner_name"`
	Category    string             `bson:"category"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Location    string             `bson:"location"`
	City        string             `bson:"city"`
	Available   bool               `bson:"is_available"`
	Images      []imageDoc         `bson:"images"`
	Amenities   []string           `bson:"amenities"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func toImageDocs(images []listing.Image) []imageDoc {
	out := make([]imageDoc, 0, len(images))
	for _, img := range images {
		out = append(out, imageDoc(img))
	}
	return out
}

func (d roomDoc) room() listing.Room {
	images := make([]listing.Image, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, listing.Image(img))
	}
	amenities := d.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return listing.Room{
		ID:          d.ID.Hex(),
		OwnerID:     d.OwnerID,
		OwnerName:   d.OwnerName,
		Category:    d.Category,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Location:    d.Location,
		City:        d.City,
		Available:   d.Available,
		Images:      images,
		Amenities:   amenities,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (s *Store) InsertRoom(ctx context.Context, r listing.Room) (listing.Room, error) {
	now := s.now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	doc := roomDoc{
		ID:          primitive.NewObjectID(),
		OwnerID:     r.OwnerID,
		OwnerName:   r.OwnerName,
		Category:    r.Category,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Location:    r.Location,
		City:        r.City,
		Available:   r.Available,
		Images:      toImageDocs(r.Images),
		Amenities:   r.Amenities,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   now,
	}
	if _, err := s.rooms.InsertOne(ctx, doc); err != nil {
		return listing.Room{}, fmt.Errorf("mongostore: insert room: %w", err)
	}
	return doc.room(), nil
}

func (s *Store) FindRoom(ctx context.Context, id string) (listing.Room, error) {
	oid, ok := objectID(id)
	if !ok {
		return listing.Room{}, listing.ErrRoomNotFound
	}
	var doc roomDoc
	err := s.rooms.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if isNoDocuments(err) {
		return listing.Room{}, listing.ErrRoomNotFound
	}
	if err != nil {
		return listing.Room{}, fmt.Errorf("mongostore: find room: %w", err)
	}
	return doc.room(), nil
}

func (s *Store) UpdateRoom(ctx context.Context, id string, p listing.RoomPatch) (listing.Room, error) {
	oid, ok := objectID(id)
	if !ok {
		return listing.Room{}, listing.ErrRoomNotFound
	}
	var doc roomDoc
	err := s.rooms.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": roomPatchDoc(p, s.now().UTC())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if isNoDocuments(err) {
		return listing.Room{}, listing.ErrRoomNotFound
	}
	if err != nil {
		return listing.Room{}, fmt.Errorf("mongostore: update room: %w", err)
	}
	return doc.room(), nil
}

func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return listing.ErrRoomNotFound
	}
	res, err := s.rooms.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongostore: delete room: %w", err)
	}
	if res.DeletedCount == 0 {
		return listing.ErrRoomNotFound
	}
	return nil
}

// FindRooms returns matching rooms, newest first.
func (s *Store) FindRooms(ctx context.Context, f listing.Filter, opts listing.FindOptions) ([]listing.Room, error) {
	find := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Skip > 0 {
		find.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		find.SetLimit(opts.Limit)
	}
	cur, err := s.rooms.Find(ctx, roomFilter(f), find)
	if err != nil {
		return nil, fmt.Errorf("mongostore: find rooms: %w", err)
	}
	var docs []roomDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: find rooms: %w", err)
	}
	out := make([]listing.Room, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.room())
	}
	return out, nil
}

func (s *Store) CountRooms(ctx context.Context, f listing.Filter) (int64, error) {
	n, err := s.rooms.CountDocuments(ctx, roomFilter(f))
	if err != nil {
		return 0, fmt.Errorf("mongostore: count rooms: %w", err)
	}
	return n, nil
}

func (s *Store) CountEnquiries(ctx context.Context, roomID string) (int64, error) {
	n, err := s.enquiries.CountDocuments(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return 0, fmt.Errorf("mongostore: count enquiries: %w", err)
	}
	return n, nil
}

// roomFilter builds the query document for f. Search is matched literally
// and case-insensitively against title or description.
func roomFilter(f listing.Filter) bson.M {
	q := bson.M{}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.City != "" {
		q["city"] = f.City
	}
	if f.OwnerID != "" {
		q["owner_id"] = f.OwnerID
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		q["price"] = price
	}
	if f.Available != nil {
		q["is_available"] = *f.Available
	}
	if !f.CreatedSince.IsZero() {
		q["created_at"] = bson.M{"$gte": f.CreatedSince.UTC()}
	}
	return q
}

func roomPatchDoc(p listing.RoomPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.City != nil {
		set["city"] = *p.City
	}
	if p.Available != nil {
		set["is_available"] = *p.Available
	}
	if p.Amenities != nil {
		set["amenities"] = p.Amenities
	}
	if p.Images != nil {
		set["images"] = toImageDocs(p.Images)
	}
	return set
}
