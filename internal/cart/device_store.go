package cart

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type keyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DeviceCartKey(deviceID string) string
}

// DeviceStore keeps a guest cart as one Redis value holding the JSON array of
// raw lines, refreshed to ttl on every write.
type DeviceStore struct {
	kv   keyValue
	ttl  time.Duration
	logg *logger.Logger
}

func NewDeviceStore(kv keyValue, ttl time.Duration, logg *logger.Logger) *DeviceStore {
	return &DeviceStore{kv: kv, ttl: ttl, logg: logg}
}

func (s *DeviceStore) List(ctx context.Context, deviceID string) ([]RawLine, error) {
	if deviceID == "" {
		return []RawLine{}, nil
	}
	raw, err := s.kv.Get(ctx, s.kv.DeviceCartKey(deviceID))
	if redis.IsNil(err) {
		return []RawLine{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read device cart")
	}

	var lines []RawLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		// A corrupt entry is unrecoverable; treat it as an empty cart.
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(s.logg.WithDeviceID(ctx, deviceID), "error", err.Error()), "discarding unreadable device cart")
		}
		return []RawLine{}, nil
	}
	return sanitize(lines), nil
}

func (s *DeviceStore) Upsert(ctx context.Context, deviceID, productID string, quantity int) error {
	lines, err := s.List(ctx, deviceID)
	if err != nil {
		return err
	}
	replaced := false
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, RawLine{ProductID: productID, Quantity: quantity})
	}
	return s.write(ctx, deviceID, lines)
}

func (s *DeviceStore) Remove(ctx context.Context, deviceID, productID string) error {
	lines, err := s.List(ctx, deviceID)
	if err != nil {
		return err
	}
	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	return s.write(ctx, deviceID, kept)
}

func (s *DeviceStore) Clear(ctx context.Context, deviceID string) error {
	if err := s.kv.Del(ctx, s.kv.DeviceCartKey(deviceID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear device cart")
	}
	return nil
}

func (s *DeviceStore) write(ctx context.Context, deviceID string, lines []RawLine) error {
	if len(lines) == 0 {
		return s.Clear(ctx, deviceID)
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode device cart")
	}
	if err := s.kv.Set(ctx, s.kv.DeviceCartKey(deviceID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write device cart")
	}
	return nil
}

// sanitize drops non-positive quantities and collapses duplicate product ids,
// keeping the first occurrence's position and the last quantity.
func sanitize(lines []RawLine) []RawLine {
	out := make([]RawLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			continue
		}
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity = line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}
	return out
}
