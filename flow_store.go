package eventgate

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eventra/eventgate/internal/flows"
)

const flowRecordVersion1 = 1

type flowRecord struct {
	Step      flows.Step
	Email     string
	ExpiresAt int64
}

// flowStore keeps sign-in flow records in redis. Each record carries the
// wizard step and the email the OTP step operates on; the submit guard key
// serializes backend exchanges per flow.
type flowStore struct {
	redis  redis.UniversalClient
	prefix string
}

func newFlowStore(redisClient redis.UniversalClient, prefix string) *flowStore {
	return &flowStore{redis: redisClient, prefix: prefix}
}

func (s *flowStore) key(flowID string) string {
	return s.prefix + ":" + flowID
}

func (s *flowStore) guardKey(flowID string) string {
	return s.prefix + ":l:" + flowID
}

func (s *flowStore) Save(ctx context.Context, flowID string, record *flowRecord, ttl time.Duration) error {
	encoded, err := encodeFlowRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(flowID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrFlowUnavailable, err)
	}
	return nil
}

func (s *flowStore) Get(ctx context.Context, flowID string) (*flowRecord, error) {
	data, err := s.redis.Get(ctx, s.key(flowID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrFlowNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFlowUnavailable, err)
	}

	record, err := decodeFlowRecord(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() > record.ExpiresAt {
		_, _ = s.redis.Del(ctx, s.key(flowID)).Result()
		return nil, ErrFlowExpired
	}
	return record, nil
}

// Delete is idempotent: removing an absent flow reports false, nil.
func (s *flowStore) Delete(ctx context.Context, flowID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(flowID), s.guardKey(flowID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFlowUnavailable, err)
	}
	return n > 0, nil
}

// AcquireGuard takes the single-exchange lock for the flow. A second submit
// while one is in flight reports false.
func (s *flowStore) AcquireGuard(ctx context.Context, flowID string, ttl time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, s.guardKey(flowID), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFlowUnavailable, err)
	}
	return ok, nil
}

func (s *flowStore) ReleaseGuard(ctx context.Context, flowID string) {
	_, _ = s.redis.Del(ctx, s.guardKey(flowID)).Result()
}

func encodeFlowRecord(record *flowRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(flowRecordVersion1)
	buf.WriteByte(byte(record.Step))

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.Email) > 65535 {
		return nil, errors.New("flow email length exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Email))); err != nil {
		return nil, err
	}
	buf.WriteString(record.Email)

	return buf.Bytes(), nil
}

func decodeFlowRecord(data []byte) (*flowRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != flowRecordVersion1 {
		return nil, errors.New("invalid flow record version")
	}

	stepByte, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	record := &flowRecord{Step: flows.Step(stepByte)}
	if !record.Step.Valid() {
		return nil, errors.New("invalid flow record step")
	}

	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var emailLen uint16
	if err := binary.Read(reader, binary.BigEndian, &emailLen); err != nil {
		return nil, err
	}
	email := make([]byte, emailLen)
	if _, err := io.ReadFull(reader, email); err != nil {
		return nil, err
	}
	record.Email = string(email)

	return record, nil
}
