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

const (
	checkinVersion1 = 1 // single unit
	checkinVersion2 = 2 // batch of units sharing one location/time/status
)

// CheckinMaxUnits is the most unit ids a single v2 CHECKIN batch carries.
const CheckinMaxUnits = 32

// CheckIn is a unit's (or batch of units') position report.
type CheckIn struct {
	UnitIDs []uint16 // 0 or 1 entries encodes as v1; 2+ as v2
	Loc     Location
	AtMs    int64
	Status  uint8
}

func (c *CheckIn) TemplateID() ID { return CHECKIN }

func (c *CheckIn) Encode() ([]byte, error) {
	w := xtoccore.NewWriter(24)
	if len(c.UnitIDs) <= 1 {
		w.WriteU8(checkinVersion1)
		var id uint16
		if len(c.UnitIDs) == 1 {
			id = c.UnitIDs[0]
		}
		w.WriteU16(id)
		w.WriteCoord(c.Loc.Lat)
		w.WriteCoord(c.Loc.Lon)
		w.WriteUnixMinutes(c.AtMs)
		w.WriteU8(c.Status)
		return w.Bytes(), nil
	}

	ids := c.UnitIDs
	if len(ids) > CheckinMaxUnits {
		ids = ids[:CheckinMaxUnits]
	}
	w.WriteU8(checkinVersion2)
	w.WriteU8(uint8(len(ids)))
	for _, id := range ids {
		w.WriteU16(id)
	}
	w.WriteCoord(c.Loc.Lat)
	w.WriteCoord(c.Loc.Lon)
	w.WriteUnixMinutes(c.AtMs)
	w.WriteU8(c.Status)
	return w.Bytes(), nil
}

func DecodeCheckin(data []byte) (*CheckIn, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(CHECKIN, "version")
	}

	c := &CheckIn{}
	switch ver {
	case checkinVersion1:
		id, err := r.ReadU16()
		if err != nil {
			return nil, asTruncated(err, CHECKIN, "unitId")
		}
		c.UnitIDs = []uint16{id}
	case checkinVersion2:
		count, err := r.ReadU8()
		if err != nil {
			return nil, asTruncated(err, CHECKIN, "unitCount")
		}
		if int(count) > CheckinMaxUnits {
			return nil, wrapInvalid(CHECKIN, "unitCount", "more than 32 units")
		}
		c.UnitIDs = make([]uint16, 0, count)
		for i := 0; i < int(count); i++ {
			id, err := r.ReadU16()
			if err != nil {
				return nil, asTruncated(err, CHECKIN, "unitIds")
			}
			c.UnitIDs = append(c.UnitIDs, id)
		}
	default:
		return nil, wrapUnsupportedVersion(CHECKIN, ver)
	}

	lat, err := r.ReadCoord()
	if err != nil {
		return nil, asTruncated(err, CHECKIN, "lat")
	}
	lon, err := r.ReadCoord()
	if err != nil {
		return nil, asTruncated(err, CHECKIN, "lon")
	}
	c.Loc = Location{Lat: lat, Lon: lon}
	if c.AtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, CHECKIN, "t")
	}
	if c.Status, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, CHECKIN, "status")
	}
	return c, nil
}
