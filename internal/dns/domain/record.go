package domain

import (
	"fmt"
	"time"
)

// ResourceRecord is one answer, authority or additional entry. The expiry is
// derived when the record is decoded or built and is never serialized.
type ResourceRecord struct {
	Name  Name
	Type  RRType
	Class RRClass
	TTL   int32
	Data  []byte

	expiresAt time.Time
}

// NewResourceRecord builds a record whose expiry is now + ttl seconds.
// Negative TTLs expire immediately.
func NewResourceRecord(name Name, rrtype RRType, class RRClass, ttl int32, data []byte, now time.Time) ResourceRecord {
	life := time.Duration(ttl) * time.Second
	if ttl < 0 {
		life = 0
	}
	return ResourceRecord{
		Name:      name,
		Type:      rrtype,
		Class:     class,
		TTL:       ttl,
		Data:      data,
		expiresAt: now.Add(life),
	}
}

// RestoreResourceRecord rebuilds a record with a known absolute expiry, as
// read back from a cache snapshot.
func RestoreResourceRecord(name Name, rrtype RRType, class RRClass, ttl int32, data []byte, expiresAt time.Time) ResourceRecord {
	return ResourceRecord{Name: name, Type: rrtype, Class: class, TTL: ttl, Data: data, expiresAt: expiresAt}
}

// ExpiresAt returns the absolute expiry instant.
func (rr ResourceRecord) ExpiresAt() time.Time {
	return rr.expiresAt
}

// ValidAt reports whether now is strictly before the expiry.
func (rr ResourceRecord) ValidAt(now time.Time) bool {
	return now.Before(rr.expiresAt)
}

// Remaining returns the lifetime left at now, never negative.
func (rr ResourceRecord) Remaining(now time.Time) time.Duration {
	d := rr.expiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// RemainingTTL is Remaining truncated to whole seconds.
func (rr ResourceRecord) RemainingTTL(now time.Time) int32 {
	secs := rr.Remaining(now) / time.Second
	if secs > 1<<31-1 {
		return 1<<31 - 1
	}
	return int32(secs)
}

// Clone returns a deep copy so callers may mutate fields without touching
// shared cache state.
func (rr ResourceRecord) Clone() ResourceRecord {
	out := rr
	out.Name = append(Name(nil), rr.Name...)
	out.Data = append([]byte(nil), rr.Data...)
	return out
}

func (rr ResourceRecord) String() string {
	return fmt.Sprintf("%s %d %s %s rdlen=%d", rr.Name, rr.TTL, rr.Class, rr.Type, len(rr.Data))
}
