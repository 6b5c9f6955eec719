package stores

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	exchangeRecordVersionV1 = 1
	maxEmailBytes           = 320
)

var (
	ErrExchangeNotFound         = errors.New("exchange token not found")
	ErrExchangeRedisUnavailable = errors.New("exchange redis unavailable")
)

// ExchangeRecord binds a single-use reset exchange token to the email it was
// issued for.
type ExchangeRecord struct {
	Email     string
	ExpiresAt int64
}

// ExchangeTokenStore keeps exchange tokens in redis under the SHA-256 of the
// token, so a redis dump never reveals a redeemable value.
type ExchangeTokenStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewExchangeTokenStore(redisClient redis.UniversalClient, prefix string) *ExchangeTokenStore {
	if prefix == "" {
		prefix = "rxt"
	}
	return &ExchangeTokenStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *ExchangeTokenStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

// Save stores record under token. The redis TTL and the embedded ExpiresAt
// both bound the record's life.
func (s *ExchangeTokenStore) Save(ctx context.Context, token string, record *ExchangeRecord, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("exchange ttl must be > 0")
	}
	encoded, err := encodeExchangeRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(token), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrExchangeRedisUnavailable, err)
	}

	return nil
}

// Consume atomically reads and deletes the record for token. Expired records
// are purged on this path and reported as ErrExchangeNotFound.
func (s *ExchangeTokenStore) Consume(ctx context.Context, token string) (*ExchangeRecord, error) {
	const maxRetries = 4
	key := s.key(token)

	for i := 0; i < maxRetries; i++ {
		var matched *ExchangeRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, decodeErr := decodeExchangeRecord(data)

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}

			if decodeErr != nil {
				return ErrExchangeNotFound
			}
			if s.now().Unix() > record.ExpiresAt {
				return ErrExchangeNotFound
			}

			matched = record
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil), errors.Is(err, ErrExchangeNotFound):
				return nil, ErrExchangeNotFound
			default:
				return nil, fmt.Errorf("%w: %v", ErrExchangeRedisUnavailable, err)
			}
		}

		return matched, nil
	}

	return nil, ErrExchangeNotFound
}

// Restore puts a consumed record back for whatever lifetime it had left. It
// is used when the operation that redeemed the token fails afterwards.
func (s *ExchangeTokenStore) Restore(ctx context.Context, token string, record *ExchangeRecord) error {
	ttl := time.Unix(record.ExpiresAt, 0).Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	encoded, err := encodeExchangeRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.SetNX(ctx, s.key(token), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrExchangeRedisUnavailable, err)
	}
	return nil
}

func encodeExchangeRecord(record *ExchangeRecord) ([]byte, error) {
	if record == nil {
		return nil, errors.New("nil exchange record")
	}
	if len(record.Email) == 0 || len(record.Email) > maxEmailBytes {
		return nil, errors.New("exchange record email length invalid")
	}

	var buf bytes.Buffer
	buf.WriteByte(exchangeRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Email))); err != nil {
		return nil, err
	}
	buf.WriteString(record.Email)

	return buf.Bytes(), nil
}

func decodeExchangeRecord(data []byte) (*ExchangeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != exchangeRecordVersionV1 {
		return nil, errors.New("invalid exchange record version")
	}

	record := &ExchangeRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var emailLen uint16
	if err := binary.Read(reader, binary.BigEndian, &emailLen); err != nil {
		return nil, err
	}
	if emailLen == 0 || int(emailLen) > maxEmailBytes {
		return nil, errors.New("invalid exchange record email length")
	}
	email := make([]byte, emailLen)
	if _, err := io.ReadFull(reader, email); err != nil {
		return nil, err
	}
	record.Email = string(email)

	return record, nil
}
