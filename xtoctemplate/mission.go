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

const missionVersion1 = 1

const (
	missionFlagAssignees = 1 << iota
	missionFlagLoc
	missionFlagLocationLabel
	missionFlagDueAt
	missionFlagNotes
)

// Mission id/title/label/notes caps.
const (
	MissionIDCap            = 32
	MissionTitleCap         = 96
	MissionLocationLabelCap = 48
	MissionNotesCap         = 600
)

// MissionExtraAssigneesMax is the most additional unit ids a MISSION's
// assignees trailer carries beyond the primary AssignedTo.
const MissionExtraAssigneesMax = 31

// MissionStatus is a mission's lifecycle status code (0..5).
type MissionStatus uint8

const (
	MissionStatusDraft MissionStatus = iota
	MissionStatusAssigned
	MissionStatusActive
	MissionStatusBlocked
	MissionStatusComplete
	MissionStatusCancelled
)

// Mission is a tracked operational task, assignable to one primary unit
// plus up to MissionExtraAssigneesMax additional units.
type Mission struct {
	UpdatedAtMs     int64
	CreatedAtMs     int64
	Status          MissionStatus
	Priority        uint8 // 0..3
	ID              string
	Title           string
	AssignedTo      uint16 // 0 when unassigned
	ExtraAssignees  []uint16
	Loc             *Location
	LocationLabel   string
	DueAtMs         int64 // 0 when absent
	Notes           string
}

func (m *Mission) TemplateID() ID { return MISSION }

func (m *Mission) Encode() ([]byte, error) {
	w := xtoccore.NewWriter(64)
	w.WriteU8(missionVersion1)
	w.WriteUnixMinutes(m.UpdatedAtMs)
	w.WriteUnixMinutes(m.CreatedAtMs)
	w.WriteU8((uint8(m.Status) & 0x07) | ((m.Priority & 0x03) << 3))

	hasAssignees := m.AssignedTo != 0 || len(m.ExtraAssignees) > 0
	var flags byte
	if hasAssignees {
		flags |= missionFlagAssignees
	}
	if m.Loc != nil {
		flags |= missionFlagLoc
	}
	if m.LocationLabel != "" {
		flags |= missionFlagLocationLabel
	}
	if m.DueAtMs != 0 {
		flags |= missionFlagDueAt
	}
	if m.Notes != "" {
		flags |= missionFlagNotes
	}
	w.WriteU8(flags)

	w.WriteString8(m.ID, MissionIDCap)
	w.WriteString8(m.Title, MissionTitleCap)

	if hasAssignees {
		w.WriteU16(m.AssignedTo)
		extra := m.ExtraAssignees
		if len(extra) > MissionExtraAssigneesMax {
			extra = extra[:MissionExtraAssigneesMax]
		}
		w.WriteU8(uint8(len(extra)))
		for _, id := range extra {
			w.WriteU16(id)
		}
	}
	if m.Loc != nil {
		w.WriteCoord(m.Loc.Lat)
		w.WriteCoord(m.Loc.Lon)
	}
	if m.LocationLabel != "" {
		w.WriteString8(m.LocationLabel, MissionLocationLabelCap)
	}
	if m.DueAtMs != 0 {
		w.WriteUnixMinutes(m.DueAtMs)
	}
	if m.Notes != "" {
		w.WriteString16(m.Notes, MissionNotesCap)
	}
	return w.Bytes(), nil
}

func DecodeMission(data []byte) (*Mission, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(MISSION, "version")
	}
	if ver != missionVersion1 {
		return nil, wrapUnsupportedVersion(MISSION, ver)
	}
	m := &Mission{}
	if m.UpdatedAtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, MISSION, "updatedAt")
	}
	if m.CreatedAtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, MISSION, "createdAt")
	}
	packed, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, MISSION, "statusPriority")
	}
	m.Status = MissionStatus(packed & 0x07)
	m.Priority = (packed >> 3) & 0x03

	flags, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, MISSION, "flags")
	}
	if m.ID, err = r.ReadString8(); err != nil {
		return nil, asTruncated(err, MISSION, "id")
	}
	if m.Title, err = r.ReadString8(); err != nil {
		return nil, asTruncated(err, MISSION, "title")
	}

	if hasBit(flags, missionFlagAssignees) {
		if m.AssignedTo, err = r.ReadU16(); err != nil {
			return nil, asTruncated(err, MISSION, "assignedTo")
		}
		count, err := r.ReadU8()
		if err != nil {
			return nil, asTruncated(err, MISSION, "extraAssigneesCount")
		}
		if int(count) > MissionExtraAssigneesMax {
			return nil, wrapInvalid(MISSION, "extraAssigneesCount", "more than 31 extra assignees")
		}
		m.ExtraAssignees = make([]uint16, 0, count)
		for i := 0; i < int(count); i++ {
			id, err := r.ReadU16()
			if err != nil {
				return nil, asTruncated(err, MISSION, "extraAssignees")
			}
			m.ExtraAssignees = append(m.ExtraAssignees, id)
		}
	}
	if hasBit(flags, missionFlagLoc) {
		loc, err := readLocation(r, MISSION)
		if err != nil {
			return nil, err
		}
		m.Loc = loc
	}
	if hasBit(flags, missionFlagLocationLabel) {
		if m.LocationLabel, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, MISSION, "locationLabel")
		}
	}
	if hasBit(flags, missionFlagDueAt) {
		if m.DueAtMs, err = r.ReadUnixMinutes(); err != nil {
			return nil, asTruncated(err, MISSION, "dueAt")
		}
	}
	if hasBit(flags, missionFlagNotes) {
		if m.Notes, err = r.ReadString16(); err != nil {
			return nil, asTruncated(err, MISSION, "notes")
		}
	}
	return m, nil
}
