// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xtocstore

import (
	"encoding/binary"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/wavelink-radio/xtoc-core/xtoccore"
)

var (
	bucketPackets      = []byte("packets")
	bucketByReceivedAt = []byte("idx_receivedAt")
	bucketByTemplateID = []byte("idx_templateId")
	bucketByMode       = []byte("idx_mode")
	bucketBySource     = []byte("idx_source")
	bucketByHasGeo     = []byte("idx_hasGeo")
)

var allBuckets = [][]byte{
	bucketPackets, bucketByReceivedAt, bucketByTemplateID,
	bucketByMode, bucketBySource, bucketByHasGeo,
}

// EventKind distinguishes the single notification emitted per mutation.
type EventKind int

const (
	EventPut EventKind = iota
	EventClear
)

// Event is published on the store's Events channel after every
// successful mutating transaction. Consumers interested in exactly what
// changed should re-run List; Event only signals that something did.
type Event struct {
	Kind  EventKind
	Count int // number of records touched by this transaction
}

// Store is a packet store backed by a single bbolt file.
type Store struct {
	db     *bolt.DB
	events chan Event
}

// Open opens or creates the bbolt file at path and ensures every bucket
// this store needs exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &xtoccore.StoreFailureError{Op: "open", Reason: err.Error()}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, &xtoccore.StoreFailureError{Op: "init", Reason: err.Error()}
	}
	return &Store{db: db, events: make(chan Event, 8)}, nil
}

// Close releases the underlying bbolt file handle.
func (s *Store) Close() error { return s.db.Close() }

// Events returns the channel Put/PutMany/Clear publish a single
// notification to per call. The channel buffers 8 events; once the
// buffer is full, further notifications are dropped (with a warning
// log) until the consumer drains it.
func (s *Store) Events() <-chan Event { return s.events }

func (s *Store) notify(ev Event) {
	select {
	case s.events <- ev:
	default:
		log.Warn().Msg("xtocstore: event channel full, dropping notification")
	}
}

// Put upserts a single record. See PutMany for merge semantics.
func (s *Store) Put(rec *Record) error {
	_, err := s.PutMany([]*Record{rec})
	return err
}

// PutMany upserts many records inside a single transaction. When a
// record's key already exists, its Sources list is merged (set union)
// with the stored one rather than overwritten, so re-ingesting the same
// packet from a second backup or relay never loses a source id. It
// returns the number of records written and notifies exactly once.
func (s *Store) PutMany(recs []*Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, rec := range recs {
			if err := s.putOne(tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, &xtoccore.StoreFailureError{Op: "putMany", Reason: err.Error()}
	}
	s.notify(Event{Kind: EventPut, Count: len(recs)})
	return len(recs), nil
}

func (s *Store) putOne(tx *bolt.Tx, rec *Record) error {
	packets := tx.Bucket(bucketPackets)
	key := rec.Key()

	if existing := packets.Get(key); existing != nil {
		var prev Record
		if err := json.Unmarshal(existing, &prev); err == nil {
			rec.Sources = mergeSources(prev.Sources, rec.Sources)
			rec.StoreUID = prev.StoreUID
			if rec.StoredAtMs == 0 {
				rec.StoredAtMs = prev.StoredAtMs
			}
		}
		if err := removeIndexEntries(tx, key, &prev); err != nil {
			return err
		}
	} else if rec.StoreUID == "" {
		rec.StoreUID = newStoreUID()
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := packets.Put(key, raw); err != nil {
		return err
	}
	return addIndexEntries(tx, key, rec)
}

func addIndexEntries(tx *bolt.Tx, key []byte, rec *Record) error {
	if err := tx.Bucket(bucketByReceivedAt).Put(receivedAtIndexKey(rec.ReceivedAtMs, key), key); err != nil {
		return err
	}
	if err := tx.Bucket(bucketByTemplateID).Put(compoundKey(strconv.Itoa(rec.TemplateID), key), key); err != nil {
		return err
	}
	if err := tx.Bucket(bucketByMode).Put(compoundKey(rec.Mode, key), key); err != nil {
		return err
	}
	if rec.HasGeo {
		if err := tx.Bucket(bucketByHasGeo).Put(compoundKey("1", key), key); err != nil {
			return err
		}
	}
	srcIdx := tx.Bucket(bucketBySource)
	for _, src := range rec.Sources {
		if err := srcIdx.Put(compoundKey(strconv.Itoa(int(src)), key), key); err != nil {
			return err
		}
	}
	return nil
}

func removeIndexEntries(tx *bolt.Tx, key []byte, rec *Record) error {
	if err := tx.Bucket(bucketByReceivedAt).Delete(receivedAtIndexKey(rec.ReceivedAtMs, key)); err != nil {
		return err
	}
	if err := tx.Bucket(bucketByTemplateID).Delete(compoundKey(strconv.Itoa(rec.TemplateID), key)); err != nil {
		return err
	}
	if err := tx.Bucket(bucketByMode).Delete(compoundKey(rec.Mode, key)); err != nil {
		return err
	}
	if rec.HasGeo {
		if err := tx.Bucket(bucketByHasGeo).Delete(compoundKey("1", key)); err != nil {
			return err
		}
	}
	srcIdx := tx.Bucket(bucketBySource)
	for _, src := range rec.Sources {
		if err := srcIdx.Delete(compoundKey(strconv.Itoa(int(src)), key)); err != nil {
			return err
		}
	}
	return nil
}

// receivedAtIndexKey sorts descending by receivedAt (via bitwise
// complement), with the primary key appended as a tiebreaker so two
// packets that arrive in the same millisecond still sort deterministically.
func receivedAtIndexKey(receivedAtMs int64, primaryKey []byte) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], ^uint64(receivedAtMs))
	return append(tmp[:], primaryKey...)
}

func compoundKey(prefix string, primaryKey []byte) []byte {
	return append([]byte(prefix+"\x00"), primaryKey...)
}

// Get fetches a single record by its primary key.
func (s *Store) Get(key []byte) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketPackets).Get(key)
		if raw == nil {
			return nil
		}
		rec = &Record{}
		return json.Unmarshal(raw, rec)
	})
	if err != nil {
		return nil, &xtoccore.StoreFailureError{Op: "get", Reason: err.Error()}
	}
	return rec, nil
}

// Count returns the total number of stored records.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketPackets).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, &xtoccore.StoreFailureError{Op: "count", Reason: err.Error()}
	}
	return n, nil
}

// ListFilter narrows a List call. Zero values mean "no filter" for that
// dimension.
type ListFilter struct {
	TemplateID int
	Mode       string
	Source     uint16
	HasSource  bool
	HasGeo     bool
	Query      string // case-insensitive substring match against Summary or RawEnvelope
	Limit      int    // capped at 5000; 0 or negative means the default of 200
}

const (
	defaultListLimit = 200
	maxListLimit     = 5000
)

// List returns records newest-first (by ReceivedAtMs, primary key as
// tiebreaker), applying every non-zero filter field.
func (s *Store) List(f ListFilter) ([]*Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	out := make([]*Record, 0, limit)
	err := s.db.View(func(tx *bolt.Tx) error {
		packets := tx.Bucket(bucketPackets)
		c := tx.Bucket(bucketByReceivedAt).Cursor()
		for idxKey, primaryKey := c.First(); idxKey != nil && len(out) < limit; idxKey, primaryKey = c.Next() {
			raw := packets.Get(primaryKey)
			if raw == nil {
				continue
			}
			var rec Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}
			if !matchesFilter(&rec, f) {
				continue
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, &xtoccore.StoreFailureError{Op: "list", Reason: err.Error()}
	}
	return out, nil
}

func matchesFilter(rec *Record, f ListFilter) bool {
	if f.TemplateID != 0 && rec.TemplateID != f.TemplateID {
		return false
	}
	if f.Mode != "" && rec.Mode != f.Mode {
		return false
	}
	if f.HasSource {
		found := false
		for _, s := range rec.Sources {
			if s == f.Source {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.HasGeo && !rec.HasGeo {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(rec.Summary), q) &&
			!strings.Contains(strings.ToLower(rec.RawEnvelope), q) {
			return false
		}
	}
	return true
}

// Clear removes every stored record and index entry.
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if err := tx.DeleteBucket(b); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &xtoccore.StoreFailureError{Op: "clear", Reason: err.Error()}
	}
	s.notify(Event{Kind: EventClear})
	return nil
}

// Stats summarizes the store's contents for a diagnostics panel.
type Stats struct {
	TotalPackets   int            `json:"totalPackets"`
	ByTemplateID   map[int]int    `json:"byTemplateId"`
	ByMode         map[string]int `json:"byMode"`
	WithGeo        int            `json:"withGeo"`
	OldestReceived int64          `json:"oldestReceived"`
	NewestReceived int64          `json:"newestReceived"`
}

// Stats scans every record once to build an aggregate summary.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{ByTemplateID: map[int]int{}, ByMode: map[string]int{}}
	var receivedTimes []int64
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPackets).ForEach(func(_, raw []byte) error {
			var rec Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}
			st.TotalPackets++
			st.ByTemplateID[rec.TemplateID]++
			st.ByMode[rec.Mode]++
			if rec.HasGeo {
				st.WithGeo++
			}
			receivedTimes = append(receivedTimes, rec.ReceivedAtMs)
			return nil
		})
	})
	if err != nil {
		return nil, &xtoccore.StoreFailureError{Op: "stats", Reason: err.Error()}
	}
	if len(receivedTimes) > 0 {
		sort.Slice(receivedTimes, func(i, j int) bool { return receivedTimes[i] < receivedTimes[j] })
		st.OldestReceived = receivedTimes[0]
		st.NewestReceived = receivedTimes[len(receivedTimes)-1]
	}
	return st, nil
}
