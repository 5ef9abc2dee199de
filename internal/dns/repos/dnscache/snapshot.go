package dnscache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/rr-fwd/internal/dns/domain"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
	keySavedAt    = []byte("saved_at")
)

// snapshotRecord is the stored form of one Entry. Names are kept as label
// lists so labels containing dots survive the round trip.
type snapshotRecord struct {
	QName     []string       `json:"qname"`
	QType     domain.RRType  `json:"qtype"`
	QClass    domain.RRClass `json:"qclass"`
	Name      []string       `json:"name"`
	Type      domain.RRType  `json:"type"`
	Class     domain.RRClass `json:"class"`
	TTL       int32          `json:"ttl"`
	Data      []byte         `json:"data"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func openSnapshot(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	return db, nil
}

// SaveSnapshot replaces the snapshot at path with every entry still live at
// the current time. Keys are sequence numbers in recency order so a restore
// rebuilds the same LRU ordering. It returns the number of entries written.
func (c *dnsCache) SaveSnapshot(path string) (int, error) {
	now := c.clock.Now()
	entries := c.Entries()

	db, err := openSnapshot(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	written := 0
	err = db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketEntries) != nil {
			if err := tx.DeleteBucket(bucketEntries); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(bucketEntries)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if !e.Record.ValidAt(now) {
				continue
			}
			v, err := json.Marshal(snapshotRecord{
				QName:     e.Question.Name,
				QType:     e.Question.Type,
				QClass:    e.Question.Class,
				Name:      e.Record.Name,
				Type:      e.Record.Type,
				Class:     e.Record.Class,
				TTL:       e.Record.TTL,
				Data:      e.Record.Data,
				ExpiresAt: e.Record.ExpiresAt(),
			})
			if err != nil {
				return err
			}
			seq, _ := b.NextSequence()
			if err := b.Put(binary.BigEndian.AppendUint64(nil, seq), v); err != nil {
				return err
			}
			written++
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		return meta.Put(keySavedAt, binary.BigEndian.AppendUint64(nil, uint64(now.Unix())))
	})
	if err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	return written, nil
}

// LoadSnapshot restores entries from the snapshot at path, skipping any that
// have expired since it was written. A missing snapshot file is created empty.
// It returns the number of entries restored.
func (c *dnsCache) LoadSnapshot(path string) (int, error) {
	db, err := openSnapshot(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	now := c.clock.Now()
	restored := 0
	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var sr snapshotRecord
			if err := json.Unmarshal(v, &sr); err != nil {
				return fmt.Errorf("entry %x: %w", k, err)
			}
			rr := domain.RestoreResourceRecord(domain.Name(sr.Name), sr.Type, sr.Class, sr.TTL, sr.Data, sr.ExpiresAt)
			if !rr.ValidAt(now) {
				return nil
			}
			q := domain.Question{Name: domain.Name(sr.QName), Type: sr.QType, Class: sr.QClass}
			c.Put(q, rr)
			restored++
			return nil
		})
	})
	if err != nil {
		return restored, fmt.Errorf("read snapshot: %w", err)
	}
	return restored, nil
}
