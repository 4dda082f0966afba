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

const assetVersion1 = 1

const (
	assetFlagLoc = 1 << iota
	assetFlagNote
	assetFlagSrcIDs
)

// AssetNoteCap is the maximum byte length of an ASSET note.
const AssetNoteCap = 120

// Asset reports the condition of a piece of equipment or a vehicle.
type Asset struct {
	Src       uint16
	Condition uint8
	AtMs      int64
	TypeCode  uint8
	Loc       *Location
	Note      string
	SrcIDs    []uint16
}

func (a *Asset) TemplateID() ID { return ASSET }

func (a *Asset) Encode() ([]byte, error) {
	w := xtoccore.NewWriter(24)
	w.WriteU8(assetVersion1)
	w.WriteU16(a.Src)
	w.WriteU8(a.Condition)
	w.WriteUnixMinutes(a.AtMs)
	w.WriteU8(a.TypeCode)

	var flags byte
	if a.Loc != nil {
		flags |= assetFlagLoc
	}
	if a.Note != "" {
		flags |= assetFlagNote
	}
	extra := extraOf(a.SrcIDs, a.Src)
	if len(extra) > 0 {
		flags |= assetFlagSrcIDs
	}
	w.WriteU8(flags)

	if a.Loc != nil {
		w.WriteCoord(a.Loc.Lat)
		w.WriteCoord(a.Loc.Lon)
	}
	if a.Note != "" {
		w.WriteString8(a.Note, AssetNoteCap)
	}
	if len(extra) > 0 {
		writeExtraSrcIDs(w, extra)
	}
	return w.Bytes(), nil
}

func DecodeAsset(data []byte) (*Asset, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(ASSET, "version")
	}
	if ver != assetVersion1 {
		return nil, wrapUnsupportedVersion(ASSET, ver)
	}
	a := &Asset{}
	if a.Src, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, ASSET, "src")
	}
	if a.Condition, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, ASSET, "condition")
	}
	if a.AtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, ASSET, "t")
	}
	if a.TypeCode, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, ASSET, "typeCode")
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, ASSET, "flags")
	}

	if hasBit(flags, assetFlagLoc) {
		loc, err := readLocation(r, ASSET)
		if err != nil {
			return nil, err
		}
		a.Loc = loc
	}
	if hasBit(flags, assetFlagNote) {
		if a.Note, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, ASSET, "note")
		}
	}
	var extra []uint16
	if hasBit(flags, assetFlagSrcIDs) {
		if extra, err = readExtraSrcIDs(r, ASSET); err != nil {
			return nil, err
		}
	}
	a.SrcIDs = dedupSrcIDs(a.Src, extra)
	return a, nil
}
