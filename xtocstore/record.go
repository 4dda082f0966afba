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

// Package xtocstore implements the local, bbolt-backed packet store: a
// primary bucket of decoded packets plus secondary index buckets by
// receivedAt, template, mode, source, and hasGeo. List walks the
// receivedAt index newest-first and applies the template, mode, source,
// geo, and query filters to each record it visits; the other index
// buckets are maintained on every write but List does not read them.
package xtocstore

import (
	"fmt"

	"github.com/google/uuid"
)

// Record is one stored packet: the decoded template payload plus the
// wrapper framing fields that named it.
type Record struct {
	// StoreUID identifies this record independently of PacketID, which a
	// backup merge can legitimately collide on across two different
	// teams' devices; it is assigned once, on first insert, and survives
	// later merges of the same PacketID.
	StoreUID     string   `json:"storeUid"`
	TemplateID   int      `json:"templateId"`
	Mode         string   `json:"mode"`
	PacketID     string   `json:"packetId"`
	Kid          int      `json:"kid,omitempty"`
	ReceivedAtMs int64    `json:"receivedAt"`
	StoredAtMs   int64    `json:"storedAt"`
	Sources      []uint16 `json:"sources"`
	Summary      string   `json:"summary"`
	RawEnvelope  string   `json:"rawEnvelope"`
	PayloadJSON  []byte   `json:"payload"`
	// DecodeError carries the decode/decrypt failure reason when the
	// packet could not be turned into PayloadJSON; the record is still
	// stored with its raw envelope intact so the batch never drops it.
	DecodeError string    `json:"decodeError,omitempty"`
	HasGeo      bool      `json:"hasGeo"`
	Features    []Feature `json:"features,omitempty"`
}

// Feature is a minimal GeoJSON-shaped geometry derived from a decoded
// packet: "Point" carries a single [lon, lat] pair in Coordinates[0],
// "Polygon" one closed linear ring, "LineString" an open point sequence.
type Feature struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
	Centroid    *[2]float64  `json:"centroid,omitempty"`
}

// newStoreUID mints a fresh v4 identifier for a record being inserted
// for the first time.
func newStoreUID() string { return uuid.NewString() }

// Key returns the record's primary-bucket key: "X1:<templateId>:<mode>:<id>"
// for CLEAR packets, with a trailing ":<kid>" for SECURE packets, since
// the same packet id can otherwise be reused across key rotations.
func (r *Record) Key() []byte {
	if r.Mode == "S" {
		return []byte(fmt.Sprintf("X1:%d:%s:%s:%d", r.TemplateID, r.Mode, r.PacketID, r.Kid))
	}
	return []byte(fmt.Sprintf("X1:%d:%s:%s", r.TemplateID, r.Mode, r.PacketID))
}

// mergeSources returns the union of a and b, sorted ascending, used when
// the same packet id is re-ingested (e.g. from a second backup) carrying
// a different relay's source id.
func mergeSources(a, b []uint16) []uint16 {
	seen := make(map[uint16]bool, len(a)+len(b))
	out := make([]uint16, 0, len(a)+len(b))
	add := func(ids []uint16) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	add(a)
	add(b)
	sortUint16(out)
	return out
}

func sortUint16(s []uint16) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
