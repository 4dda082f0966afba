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

// Package xtoctemplate implements the eleven XTOC template codecs: one
// encoder/decoder pair per templateId, each owning a version byte and a
// flag-driven optional-field layout over a big-endian binary payload.
package xtoctemplate

import (
	"errors"

	"github.com/wavelink-radio/xtoc-core/xtoccore"
)

// ID identifies a template's binary schema (the wrapper's templateId).
type ID int

const (
	SITREP    ID = 1
	CONTACT   ID = 2
	TASK      ID = 3
	CHECKIN   ID = 4
	RESOURCE  ID = 5
	ASSET     ID = 6
	ZONE      ID = 7
	MISSION   ID = 8
	EVENT     ID = 9
	PHASELINE ID = 10
	SENTINEL  ID = 11
)

// Known reports whether id names one of the eleven defined templates.
func Known(id ID) bool {
	return id >= SITREP && id <= SENTINEL
}

// Location is a decoded latitude/longitude pair, degrees.
type Location struct {
	Lat float64
	Lon float64
}

// Payload is implemented by every decoded template value.
type Payload interface {
	TemplateID() ID
	Encode() ([]byte, error)
}

// DecodeFunc decodes a template's binary payload.
type DecodeFunc func([]byte) (Payload, error)

var registry = map[ID]DecodeFunc{
	SITREP:    func(b []byte) (Payload, error) { v, err := DecodeSitrep(b); return v, err },
	CONTACT:   func(b []byte) (Payload, error) { v, err := DecodeContact(b); return v, err },
	TASK:      func(b []byte) (Payload, error) { v, err := DecodeTask(b); return v, err },
	CHECKIN:   func(b []byte) (Payload, error) { v, err := DecodeCheckin(b); return v, err },
	RESOURCE:  func(b []byte) (Payload, error) { v, err := DecodeResource(b); return v, err },
	ASSET:     func(b []byte) (Payload, error) { v, err := DecodeAsset(b); return v, err },
	ZONE:      func(b []byte) (Payload, error) { v, err := DecodeZone(b); return v, err },
	MISSION:   func(b []byte) (Payload, error) { v, err := DecodeMission(b); return v, err },
	EVENT:     func(b []byte) (Payload, error) { v, err := DecodeEvent(b); return v, err },
	PHASELINE: func(b []byte) (Payload, error) { v, err := DecodePhaseLine(b); return v, err },
	SENTINEL:  func(b []byte) (Payload, error) { v, err := DecodeSentinel(b); return v, err },
}

// ErrUnknownTemplate is returned by Decode for a templateId with no codec.
var ErrUnknownTemplate = errors.New("unknown template id")

// Decode dispatches to the codec registered for id.
func Decode(id ID, data []byte) (Payload, error) {
	fn, ok := registry[id]
	if !ok {
		return nil, ErrUnknownTemplate
	}
	return fn(data)
}

// Checksum encodes payload and returns the CRC16-MODBUS checksum of the
// result, for a caller that wants to detect local storage corruption
// independent of the wrapper's own transport and any AEAD tag.
func Checksum(payload Payload) (uint16, error) {
	raw, err := payload.Encode()
	if err != nil {
		return 0, err
	}
	return xtoccore.Checksum16(raw), nil
}

func hasBit(flags byte, bit byte) bool { return flags&bit != 0 }

func wrapTruncated(id ID, field string) error {
	return &xtoccore.TruncatedError{Template: int(id), Field: field}
}

func wrapInvalid(id ID, field, reason string) error {
	return &xtoccore.InvalidFieldError{Template: int(id), Field: field, Reason: reason}
}

func wrapUnsupportedVersion(id ID, seen byte) error {
	return &xtoccore.UnsupportedVersionError{Template: int(id), Seen: seen}
}

// asTruncated maps an xtoccore.ErrTooSmall sentinel from a Reader method
// into a field-named TruncatedError; any other error passes through.
func asTruncated(err error, id ID, field string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, xtoccore.ErrTooSmall) {
		return wrapTruncated(id, field)
	}
	return err
}

// dedupSrcIDs merges a primary source id with extra ids, preserving the
// primary first, dropping duplicates, and capping the result at 32
// entries total.
func dedupSrcIDs(primary uint16, extra []uint16) []uint16 {
	seen := make(map[uint16]bool, len(extra)+1)
	out := make([]uint16, 0, len(extra)+1)
	add := func(v uint16) {
		if seen[v] || len(out) >= 32 {
			return
		}
		seen[v] = true
		out = append(out, v)
	}
	add(primary)
	for _, v := range extra {
		add(v)
	}
	return out
}

// writeExtraSrcIDs writes the "srcIds" optional trailer: a u8 count
// followed by that many u16 ids. Extra is truncated to 255 entries.
func writeExtraSrcIDs(w *xtoccore.Writer, extra []uint16) {
	if len(extra) > 255 {
		extra = extra[:255]
	}
	w.WriteU8(uint8(len(extra)))
	for _, id := range extra {
		w.WriteU16(id)
	}
}

// readExtraSrcIDs reads the "srcIds" optional trailer.
func readExtraSrcIDs(r *xtoccore.Reader, id ID) ([]uint16, error) {
	n, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(id, "srcIdsCount")
	}
	out := make([]uint16, 0, n)
	for i := 0; i < int(n); i++ {
		v, err := r.ReadU16()
		if err != nil {
			return nil, wrapTruncated(id, "srcIds")
		}
		out = append(out, v)
	}
	return out, nil
}
