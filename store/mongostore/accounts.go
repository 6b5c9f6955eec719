package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/roomrent"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type accountDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Email             string             `bson:"email"`
	Name              string             `bson:"name"`
	Address           string             `bson:"address,omitempty"`
	MobileNo          string             `bson:"mobile_no,omitempty"`
	ProfilePicture    string             `bson:"profile_picture,omitempty"`
	PasswordHash      string             `bson:"password_hash"`
	Verified          bool               `bson:"verified"`
	RecoveryCode      string             `bson:"recovery_code,omitempty"`
	RecoveryExpiresAt time.Time          `bson:"recovery_expires_at,omitempty"`
	RecoveryAttempts  int                `bson:"recovery_attempts"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

func (d accountDoc) account() roomrent.Account {
	return roomrent.Account{
		ID:                d.ID.Hex(),
		Email:             d.Email,
		Name:              d.Name,
		Address:           d.Address,
		MobileNo:          d.MobileNo,
		ProfilePicture:    d.ProfilePicture,
		PasswordHash:      d.PasswordHash,
		Verified:          d.Verified,
		RecoveryCode:      d.RecoveryCode,
		RecoveryExpiresAt: d.RecoveryExpiresAt,
		RecoveryAttempts:  d.RecoveryAttempts,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (roomrent.Account, error) {
	return s.findAccount(ctx, bson.M{"email": email})
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (roomrent.Account, error) {
	oid, ok := objectID(id)
	if !ok {
		return roomrent.Account{}, roomrent.ErrAccountNotFound
	}
	return s.findAccount(ctx, bson.M{"_id": oid})
}

func (s *Store) findAccount(ctx context.Context, filter bson.M) (roomrent.Account, error) {
	var doc accountDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if isNoDocuments(err) {
		return roomrent.Account{}, roomrent.ErrAccountNotFound
	}
	if err != nil {
		return roomrent.Account{}, fmt.Errorf("mongostore: find account: %w", err)
	}
	return doc.account(), nil
}

// InsertAccount stores a. A duplicate email maps to ErrDuplicateIdentity.
func (s *Store) InsertAccount(ctx context.Context, a roomrent.Account) (roomrent.Account, error) {
	now := s.now().UTC()
	doc := accountDoc{
		ID:             primitive.NewObjectID(),
		Email:          a.Email,
		Name:           a.Name,
		Address:        a.Address,
		MobileNo:       a.MobileNo,
		ProfilePicture: a.ProfilePicture,
		PasswordHash:   a.PasswordHash,
		Verified:       a.Verified,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return roomrent.Account{}, roomrent.ErrDuplicateIdentity
		}
		return roomrent.Account{}, fmt.Errorf("mongostore: insert account: %w", err)
	}
	return doc.account(), nil
}

func (s *Store) UpdateAccount(ctx context.Context, id string, u roomrent.AccountUpdate) error {
	oid, ok := objectID(id)
	if !ok {
		return roomrent.ErrAccountNotFound
	}
	res, err := s.users.UpdateByID(ctx, oid, accountUpdateDoc(u, s.now().UTC()))
	if err != nil {
		return fmt.Errorf("mongostore: update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return roomrent.ErrAccountNotFound
	}
	return nil
}

// IncrementRecoveryAttempts bumps the counter server-side so concurrent OTP
// guesses each count.
func (s *Store) IncrementRecoveryAttempts(ctx context.Context, id string) (int, error) {
	oid, ok := objectID(id)
	if !ok {
		return 0, roomrent.ErrAccountNotFound
	}
	var doc accountDoc
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"recovery_attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if isNoDocuments(err) {
		return 0, roomrent.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("mongostore: increment attempts: %w", err)
	}
	return doc.RecoveryAttempts, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]roomrent.Account, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongostore: list accounts: %w", err)
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: list accounts: %w", err)
	}
	out := make([]roomrent.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.account())
	}
	return out, nil
}

// accountUpdateDoc translates a partial update into $set and $unset
// operators. ClearRecovery wins over any recovery field in the same update.
func accountUpdateDoc(u roomrent.AccountUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Address != nil {
		set["address"] = *u.Address
	}
	if u.MobileNo != nil {
		set["mobile_no"] = *u.MobileNo
	}
	if u.ProfilePicture != nil {
		set["profile_picture"] = *u.ProfilePicture
	}
	if u.PasswordHash != nil {
		set["password_hash"] = *u.PasswordHash
	}
	if u.Verified != nil {
		set["verified"] = *u.Verified
	}

	update := bson.M{}
	if u.ClearRecovery {
		set["recovery_attempts"] = 0
		update["$unset"] = bson.M{"recovery_code": "", "recovery_expires_at": ""}
	} else {
		if u.RecoveryCode != nil {
			set["recovery_code"] = *u.RecoveryCode
		}
		if u.RecoveryExpiresAt != nil {
			set["recovery_expires_at"] = *u.RecoveryExpiresAt
		}
		if u.RecoveryAttempts != nil {
			set["recovery_attempts"] = *u.RecoveryAttempts
		}
	}
	update["$set"] = set
	return update
}

type verificationDoc struct {
	AccountID string    `bson:"account_id"`
	Token     string    `bson:"token"`
	CreatedAt time.Time `bson:"created_at"`
}

// InsertVerification upserts on account_id, replacing any live record.
func (s *Store) InsertVerification(ctx context.Context, rec roomrent.VerificationRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	doc := verificationDoc{AccountID: rec.AccountID, Token: rec.Token, CreatedAt: created.UTC()}
	_, err := s.verifications.ReplaceOne(ctx,
		bson.M{"account_id": rec.AccountID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongostore: insert verification: %w", err)
	}
	return nil
}

func (s *Store) FindVerificationByAccount(ctx context.Context, accountID string) (roomrent.VerificationRecord, error) {
	var doc verificationDoc
	err := s.verifications.FindOne(ctx, bson.M{"account_id": accountID}).Decode(&doc)
	if isNoDocuments(err) {
		return roomrent.VerificationRecord{}, roomrent.ErrVerificationNotFound
	}
	if err != nil {
		return roomrent.VerificationRecord{}, fmt.Errorf("mongostore: find verification: %w", err)
	}
	return roomrent.VerificationRecord{AccountID: doc.AccountID, Token: doc.Token, CreatedAt: doc.CreatedAt}, nil
}

func (s *Store) DeleteVerification(ctx context.Context, accountID string) error {
	res, err := s.verifications.DeleteOne(ctx, bson.M{"account_id": accountID})
	if err != nil {
		return fmt.Errorf("mongostore: delete verification: %w", err)
	}
	if res.DeletedCount == 0 {
		return roomrent.ErrVerificationNotFound
	}
	return nil
}
