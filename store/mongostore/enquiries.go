package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/roomrent/enquiry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type enquiryDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	RoomID        string             `bson:"room_id"`
	CustomerEmail string             `bson:"customer_email"`
	Name          string             `bson:"name"`
	MobileNo      string             `bson:"mobile_no"`
	Message       string             `bson:"message"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func (d enquiryDoc) enquiry() enquiry.Enquiry {
	return enquiry.Enquiry{
		ID:            d.ID.Hex(),
		RoomID:        d.RoomID,
		CustomerEmail: d.CustomerEmail,
		Name:          d.Name,
		MobileNo:      d.MobileNo,
		Message:       d.Message,
		CreatedAt:     d.CreatedAt,
	}
}

func (s *Store) InsertEnquiry(ctx context.Context, e enquiry.Enquiry) (enquiry.Enquiry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	doc := enquiryDoc{
		ID:            primitive.NewObjectID(),
		RoomID:        e.RoomID,
		CustomerEmail: e.CustomerEmail,
		Name:          e.Name,
		MobileNo:      e.MobileNo,
		Message:       e.Message,
		CreatedAt:     e.CreatedAt.UTC(),
	}
	if _, err := s.enquiries.InsertOne(ctx, doc); err != nil {
		return enquiry.Enquiry{}, fmt.Errorf("mongostore: insert enquiry: %w", err)
	}
	return doc.enquiry(), nil
}

func (s *Store) ListEnquiriesByCustomer(ctx context.Context, customerEmail string) ([]enquiry.Enquiry, error) {
	cur, err := s.enquiries.Find(ctx,
		bson.M{"customer_email": customerEmail},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongostore: list enquiries: %w", err)
	}
	var docs []enquiryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: list enquiries: %w", err)
	}
	out := make([]enquiry.Enquiry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.enquiry())
	}
	return out, nil
}
