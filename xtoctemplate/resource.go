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

const resourceVersion1 = 1

const (
	resourceFlagLoc = 1 << iota
	resourceFlagNote
	resourceFlagSrcIDs
)

// ResourceNoteCap is the maximum byte length of a RESOURCE note.
const ResourceNoteCap = 120

// Resource reports on-hand or needed supply quantities.
type Resource struct {
	Src      uint16
	Priority uint8
	AtMs     int64
	ItemCode uint8
	Quantity uint16
	Loc      *Location
	Note     string
	SrcIDs   []uint16
}

func (r *Resource) TemplateID() ID { return RESOURCE }

func (res *Resource) Encode() ([]byte, error) {
	w := xtoccore.NewWriter(32)
	w.WriteU8(resourceVersion1)
	w.WriteU16(res.Src)
	w.WriteU8(res.Priority)
	w.WriteUnixMinutes(res.AtMs)
	w.WriteU8(res.ItemCode)
	w.WriteU16(res.Quantity)

	var flags byte
	if res.Loc != nil {
		flags |= resourceFlagLoc
	}
	if res.Note != "" {
		flags |= resourceFlagNote
	}
	extra := extraOf(res.SrcIDs, res.Src)
	if len(extra) > 0 {
		flags |= resourceFlagSrcIDs
	}
	w.WriteU8(flags)

	if res.Loc != nil {
		w.WriteCoord(res.Loc.Lat)
		w.WriteCoord(res.Loc.Lon)
	}
	if res.Note != "" {
		w.WriteString8(res.Note, ResourceNoteCap)
	}
	if len(extra) > 0 {
		writeExtraSrcIDs(w, extra)
	}
	return w.Bytes(), nil
}

func DecodeResource(data []byte) (*Resource, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(RESOURCE, "version")
	}
	if ver != resourceVersion1 {
		return nil, wrapUnsupportedVersion(RESOURCE, ver)
	}
	res := &Resource{}
	if res.Src, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, RESOURCE, "src")
	}
	if res.Priority, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, RESOURCE, "priority")
	}
	if res.AtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, RESOURCE, "t")
	}
	if res.ItemCode, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, RESOURCE, "itemCode")
	}
	if res.Quantity, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, RESOURCE, "quantity")
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, RESOURCE, "flags")
	}

	if hasBit(flags, resourceFlagLoc) {
		loc, err := readLocation(r, RESOURCE)
		if err != nil {
			return nil, err
		}
		res.Loc = loc
	}
	if hasBit(flags, resourceFlagNote) {
		if res.Note, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, RESOURCE, "note")
		}
	}
	var extra []uint16
	if hasBit(flags, resourceFlagSrcIDs) {
		if extra, err = readExtraSrcIDs(r, RESOURCE); err != nil {
			return nil, err
		}
	}
	res.SrcIDs = dedupSrcIDs(res.Src, extra)
	return res, nil
}
