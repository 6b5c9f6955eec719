package mongostore

import (
	"testing"
	"time"

	"github.com/MrEthical07/roomrent"
	"github.com/MrEthical07/roomrent/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptr[T any](v T) *T { return &v }

func TestRoomFilterEmpty(t *testing.T) {
	assert.Empty(t, roomFilter(listing.Filter{}))
}

func TestRoomFilterQuotesSearch(t *testing.T) {
	q := roomFilter(listing.Filter{Search: "2 bhk (near) station"})

	or, ok := q["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	re := or[0].(bson.M)["title"].(primitive.Regex)
	assert.Equal(t, `2 bhk \(near\) station`, re.Pattern)
	assert.Equal(t, "i", re.Options)
	assert.Equal(t, re, or[1].(bson.M)["description"])
}

func TestRoomFilterAllFields(t *testing.T) {
	since := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("IST", 19800))
	q := roomFilter(listing.Filter{
		Category:     "pg",
		City:         "Pune",
		OwnerID:      "owner1",
		MinPrice:     ptr(1000.0),
		MaxPrice:     ptr(5000.0),
		Available:    ptr(false),
		CreatedSince: since,
	})

	assert.Equal(t, "pg", q["category"])
	assert.Equal(t, "Pune", q["city"])
	assert.Equal(t, "owner1", q["owner_id"])
	assert.Equal(t, bson.M{"$gte": 1000.0, "$lte": 5000.0}, q["price"])
	assert.Equal(t, false, q["is_available"])
	assert.Equal(t, bson.M{"$gte": since.UTC()}, q["created_at"])
}

func TestRoomFilterOpenPriceRange(t *testing.T) {
	q := roomFilter(listing.Filter{MinPrice: ptr(300.0)})
	assert.Equal(t, bson.M{"$gte": 300.0}, q["price"])
}

func TestAccountUpdateDoc(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	exp := now.Add(10 * time.Minute)

	doc := accountUpdateDoc(roomrent.AccountUpdate{
		Name:              ptr("Alice"),
		RecoveryCode:      ptr("abc"),
		RecoveryExpiresAt: &exp,
		RecoveryAttempts:  ptr(0),
	}, now)
	assert.Equal(t, bson.M{
		"updated_at":          now,
		"name":                "Alice",
		"recovery_code":       "abc",
		"recovery_expires_at": exp,
		"recovery_attempts":   0,
	}, doc["$set"])
	assert.NotContains(t, doc, "$unset")
}

func TestAccountUpdateDocClearRecovery(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	doc := accountUpdateDoc(roomrent.AccountUpdate{
		PasswordHash:  ptr("$argon2id$..."),
		RecoveryCode:  ptr("ignored"),
		ClearRecovery: true,
	}, now)
	assert.Equal(t, bson.M{
		"updated_at":        now,
		"password_hash":     "$argon2id$...",
		"recovery_attempts": 0,
	}, doc["$set"])
	assert.Equal(t, bson.M{"recovery_code": "", "recovery_expires_at": ""}, doc["$unset"])
}

func TestRoomPatchDoc(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	set := roomPatchDoc(listing.RoomPatch{
		UpdateRoomInput: listing.UpdateRoomInput{Title: ptr("New"), Price: ptr(99.5)},
		Images:          []listing.Image{{ID: "i1", URL: "u", ThumbnailURL: "t", Key: "k", ThumbnailKey: "tk"}},
	}, now)
	assert.Equal(t, "New", set["title"])
	assert.Equal(t, 99.5, set["price"])
	assert.Equal(t, []imageDoc{{ID: "i1", URL: "u", ThumbnailURL: "t", Key: "k", ThumbnailKey: "tk"}}, set["images"])
	assert.NotContains(t, set, "amenities")
	assert.NotContains(t, set, "is_available")
}
