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

const contactVersion1 = 1

const (
	contactFlagLoc = 1 << iota
	contactFlagNote
	contactFlagSrcIDs
)

// ContactNoteCap is the maximum byte length of a CONTACT note.
const ContactNoteCap = 120

// Contact is a sighting or detection of a number of entities.
type Contact struct {
	Src       uint16
	Priority  uint8
	AtMs      int64
	TypeCode  uint8
	Count     uint16
	Direction uint8
	Loc       *Location
	Note      string
	SrcIDs    []uint16
}

func (c *Contact) TemplateID() ID { return CONTACT }

func (c *Contact) Encode() ([]byte, error) {
	w := xtoccore.NewWriter(32)
	w.WriteU8(contactVersion1)
	w.WriteU16(c.Src)
	w.WriteU8(c.Priority)
	w.WriteUnixMinutes(c.AtMs)
	w.WriteU8(c.TypeCode)
	w.WriteU16(c.Count)
	w.WriteU8(c.Direction)

	var flags byte
	if c.Loc != nil {
		flags |= contactFlagLoc
	}
	if c.Note != "" {
		flags |= contactFlagNote
	}
	extra := extraOf(c.SrcIDs, c.Src)
	if len(extra) > 0 {
		flags |= contactFlagSrcIDs
	}
	w.WriteU8(flags)

	if c.Loc != nil {
		w.WriteCoord(c.Loc.Lat)
		w.WriteCoord(c.Loc.Lon)
	}
	if c.Note != "" {
		w.WriteString8(c.Note, ContactNoteCap)
	}
	if len(extra) > 0 {
		writeExtraSrcIDs(w, extra)
	}
	return w.Bytes(), nil
}

func DecodeContact(data []byte) (*Contact, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(CONTACT, "version")
	}
	if ver != contactVersion1 {
		return nil, wrapUnsupportedVersion(CONTACT, ver)
	}
	c := &Contact{}
	if c.Src, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, CONTACT, "src")
	}
	if c.Priority, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, CONTACT, "priority")
	}
	if c.AtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, CONTACT, "t")
	}
	if c.TypeCode, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, CONTACT, "typeCode")
	}
	if c.Count, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, CONTACT, "count")
	}
	if c.Direction, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, CONTACT, "direction")
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, CONTACT, "flags")
	}

	if hasBit(flags, contactFlagLoc) {
		loc, err := readLocation(r, CONTACT)
		if err != nil {
			return nil, err
		}
		c.Loc = loc
	}
	if hasBit(flags, contactFlagNote) {
		if c.Note, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, CONTACT, "note")
		}
	}
	var extra []uint16
	if hasBit(flags, contactFlagSrcIDs) {
		if extra, err = readExtraSrcIDs(r, CONTACT); err != nil {
			return nil, err
		}
	}
	c.SrcIDs = dedupSrcIDs(c.Src, extra)
	return c, nil
}
