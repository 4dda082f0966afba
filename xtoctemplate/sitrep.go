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

package xtoctemplate

import "github.com/wavelink-radio/xtoc-core/xtoccore"

const sitrepVersion1 = 1

const (
	sitrepFlagLoc = 1 << iota
	sitrepFlagNote
	sitrepFlagSrcIDs
)

// SitrepNoteCap is the maximum byte length of a SITREP note.
const SitrepNoteCap = 120

// Sitrep is a situation report: a unit's status at a point in time.
type Sitrep struct {
	Src      uint16
	Dst      uint16
	Priority uint8
	Status   uint8
	AtMs     int64
	Loc      *Location
	Note     string
	SrcIDs   []uint16 // primary Src followed by deduplicated extras
}

func (s *Sitrep) TemplateID() ID { return SITREP }

// Encode serializes s into its version-1 binary payload.
func (s *Sitrep) Encode() ([]byte, error) {
	w := xtoccore.NewWriter(32)
	w.WriteU8(sitrepVersion1)
	w.WriteU16(s.Src)
	w.WriteU16(s.Dst)
	w.WriteU8(s.Priority)
	w.WriteU8(s.Status)
	w.WriteUnixMinutes(s.AtMs)

	var flags byte
	if s.Loc != nil {
		flags |= sitrepFlagLoc
	}
	if s.Note != "" {
		flags |= sitrepFlagNote
	}
	extra := extraOf(s.SrcIDs, s.Src)
	if len(extra) > 0 {
		flags |= sitrepFlagSrcIDs
	}
	w.WriteU8(flags)

	if s.Loc != nil {
		w.WriteCoord(s.Loc.Lat)
		w.WriteCoord(s.Loc.Lon)
	}
	if s.Note != "" {
		w.WriteString8(s.Note, SitrepNoteCap)
	}
	if len(extra) > 0 {
		writeExtraSrcIDs(w, extra)
	}
	return w.Bytes(), nil
}

// DecodeSitrep parses a SITREP binary payload.
func DecodeSitrep(data []byte) (*Sitrep, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(SITREP, "version")
	}
	if ver != sitrepVersion1 {
		return nil, wrapUnsupportedVersion(SITREP, ver)
	}
	s := &Sitrep{}
	if s.Src, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, SITREP, "src")
	}
	if s.Dst, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, SITREP, "dst")
	}
	if s.Priority, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, SITREP, "priority")
	}
	if s.Status, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, SITREP, "status")
	}
	if s.AtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, SITREP, "t")
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, SITREP, "flags")
	}

	if hasBit(flags, sitrepFlagLoc) {
		loc, err := readLocation(r, SITREP)
		if err != nil {
			return nil, err
		}
		s.Loc = loc
	}
	if hasBit(flags, sitrepFlagNote) {
		if s.Note, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, SITREP, "note")
		}
	}
	var extra []uint16
	if hasBit(flags, sitrepFlagSrcIDs) {
		if extra, err = readExtraSrcIDs(r, SITREP); err != nil {
			return nil, err
		}
	}
	s.SrcIDs = dedupSrcIDs(s.Src, extra)
	return s, nil
}

func readLocation(r *xtoccore.Reader, id ID) (*Location, error) {
	lat, err := r.ReadCoord()
	if err != nil {
		return nil, asTruncated(err, id, "lat")
	}
	lon, err := r.ReadCoord()
	if err != nil {
		return nil, asTruncated(err, id, "lon")
	}
	return &Location{Lat: lat, Lon: lon}, nil
}

// extraOf returns ids minus the primary value, for re-encoding a
// previously decoded (primary-prefixed) SrcIDs list.
func extraOf(ids []uint16, primary uint16) []uint16 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint16, 0, len(ids))
	for i, v := range ids {
		if i == 0 && v == primary {
			continue
		}
		out = append(out, v)
	}
	return out
}
