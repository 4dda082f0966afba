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

const eventVersion1 = 1

const (
	eventFlagLoc = 1 << iota
	eventFlagLabel
	eventFlagLocationLabel
	eventFlagNote
	eventFlagStartAt
	eventFlagEndAt
	eventFlagSrcIDs
)

// Event label/location-label/note caps.
const (
	EventLabelCap         = 48
	EventLocationLabelCap = 48
	EventNoteCap          = 160
)

// Event is a scheduled or logged occurrence, optionally spanning a
// start/end window.
type Event struct {
	Src           uint16
	Dst           uint16
	Priority      uint8
	Status        uint8
	AtMs          int64
	TypeCode      uint8
	Loc           *Location
	Label         string
	LocationLabel string
	Note          string
	StartAtMs     int64 // 0 when absent
	EndAtMs       int64 // 0 when absent
	SrcIDs        []uint16
}

func (e *Event) TemplateID() ID { return EVENT }

func (e *Event) Encode() ([]byte, error) {
	w := xtoccore.NewWriter(40)
	w.WriteU8(eventVersion1)
	w.WriteU16(e.Src)
	w.WriteU16(e.Dst)
	w.WriteU8(e.Priority)
	w.WriteU8(e.Status)
	w.WriteUnixMinutes(e.AtMs)
	w.WriteU8(e.TypeCode)

	var flags byte
	if e.Loc != nil {
		flags |= eventFlagLoc
	}
	if e.Label != "" {
		flags |= eventFlagLabel
	}
	if e.LocationLabel != "" {
		flags |= eventFlagLocationLabel
	}
	if e.Note != "" {
		flags |= eventFlagNote
	}
	if e.StartAtMs != 0 {
		flags |= eventFlagStartAt
	}
	if e.EndAtMs != 0 {
		flags |= eventFlagEndAt
	}
	extra := extraOf(e.SrcIDs, e.Src)
	if len(extra) > 0 {
		flags |= eventFlagSrcIDs
	}
	w.WriteU8(flags)

	if e.Loc != nil {
		w.WriteCoord(e.Loc.Lat)
		w.WriteCoord(e.Loc.Lon)
	}
	if e.Label != "" {
		w.WriteString8(e.Label, EventLabelCap)
	}
	if e.LocationLabel != "" {
		w.WriteString8(e.LocationLabel, EventLocationLabelCap)
	}
	if e.Note != "" {
		w.WriteString8(e.Note, EventNoteCap)
	}
	if e.StartAtMs != 0 {
		w.WriteUnixMinutes(e.StartAtMs)
	}
	if e.EndAtMs != 0 {
		w.WriteUnixMinutes(e.EndAtMs)
	}
	if len(extra) > 0 {
		writeExtraSrcIDs(w, extra)
	}
	return w.Bytes(), nil
}

func DecodeEvent(data []byte) (*Event, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(EVENT, "version")
	}
	if ver != eventVersion1 {
		return nil, wrapUnsupportedVersion(EVENT, ver)
	}
	e := &Event{}
	if e.Src, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, EVENT, "src")
	}
	if e.Dst, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, EVENT, "dst")
	}
	if e.Priority, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, EVENT, "priority")
	}
	if e.Status, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, EVENT, "status")
	}
	if e.AtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, EVENT, "t")
	}
	if e.TypeCode, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, EVENT, "typeCode")
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, EVENT, "flags")
	}

	if hasBit(flags, eventFlagLoc) {
		loc, err := readLocation(r, EVENT)
		if err != nil {
			return nil, err
		}
		e.Loc = loc
	}
	if hasBit(flags, eventFlagLabel) {
		if e.Label, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, EVENT, "label")
		}
	}
	if hasBit(flags, eventFlagLocationLabel) {
		if e.LocationLabel, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, EVENT, "locationLabel")
		}
	}
	if hasBit(flags, eventFlagNote) {
		if e.Note, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, EVENT, "note")
		}
	}
	if hasBit(flags, eventFlagStartAt) {
		if e.StartAtMs, err = r.ReadUnixMinutes(); err != nil {
			return nil, asTruncated(err, EVENT, "startAt")
		}
	}
	if hasBit(flags, eventFlagEndAt) {
		if e.EndAtMs, err = r.ReadUnixMinutes(); err != nil {
			return nil, asTruncated(err, EVENT, "endAt")
		}
	}
	var extra []uint16
	if hasBit(flags, eventFlagSrcIDs) {
		if extra, err = readExtraSrcIDs(r, EVENT); err != nil {
			return nil, err
		}
	}
	e.SrcIDs = dedupSrcIDs(e.Src, extra)
	return e, nil
}
