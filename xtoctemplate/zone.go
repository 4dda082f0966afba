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

const zoneVersion1 = 1

const (
	zoneFlagCircle = 1 << iota
	zoneFlagNote
	zoneFlagSrcIDs
)

// ZoneNoteCap is the maximum byte length of a ZONE note.
const ZoneNoteCap = 120

// ZonePolygonMin and ZonePolygonMax bound a polygon ZONE's vertex count.
const (
	ZonePolygonMin = 3
	ZonePolygonMax = 32
)

// ZoneRadiusMax is the largest radius, in metres, a circle ZONE carries;
// larger values saturate to this rather than overflow the u16 field.
const ZoneRadiusMax = 65535

// Zone describes a geographic area of interest: either a polygon or a
// circle, carrying a threat level and a meaning code.
type Zone struct {
	Src          uint16
	Threat       uint8
	MeaningCode  uint8
	AtMs         int64
	Polygon      []Location // nil when Circle != nil
	Circle       *ZoneCircle
	Note         string
	SrcIDs       []uint16
}

// ZoneCircle is a circular ZONE shape.
type ZoneCircle struct {
	Center      Location
	RadiusMetre uint16
}

func (z *Zone) TemplateID() ID { return ZONE }

func (z *Zone) Encode() ([]byte, error) {
	w := xtoccore.NewWriter(48)
	w.WriteU8(zoneVersion1)
	w.WriteU16(z.Src)
	w.WriteU8(z.Threat)
	w.WriteU8(z.MeaningCode)
	w.WriteUnixMinutes(z.AtMs)

	var flags byte
	isCircle := z.Circle != nil
	if isCircle {
		flags |= zoneFlagCircle
	}
	if z.Note != "" {
		flags |= zoneFlagNote
	}
	extra := extraOf(z.SrcIDs, z.Src)
	if len(extra) > 0 {
		flags |= zoneFlagSrcIDs
	}
	w.WriteU8(flags)

	if isCircle {
		radius := z.Circle.RadiusMetre
		w.WriteCoord(z.Circle.Center.Lat)
		w.WriteCoord(z.Circle.Center.Lon)
		w.WriteU16(radius)
	} else {
		poly := z.Polygon
		if len(poly) > ZonePolygonMax {
			poly = poly[:ZonePolygonMax]
		}
		w.WriteU8(uint8(len(poly)))
		for _, pt := range poly {
			w.WriteCoord(pt.Lat)
			w.WriteCoord(pt.Lon)
		}
	}

	if z.Note != "" {
		w.WriteString8(z.Note, ZoneNoteCap)
	}
	if len(extra) > 0 {
		writeExtraSrcIDs(w, extra)
	}
	return w.Bytes(), nil
}

func DecodeZone(data []byte) (*Zone, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(ZONE, "version")
	}
	if ver != zoneVersion1 {
		return nil, wrapUnsupportedVersion(ZONE, ver)
	}
	z := &Zone{}
	if z.Src, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, ZONE, "src")
	}
	if z.Threat, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, ZONE, "threat")
	}
	if z.MeaningCode, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, ZONE, "meaningCode")
	}
	if z.AtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, ZONE, "t")
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, ZONE, "flags")
	}

	if hasBit(flags, zoneFlagCircle) {
		lat, err := r.ReadCoord()
		if err != nil {
			return nil, asTruncated(err, ZONE, "centerLat")
		}
		lon, err := r.ReadCoord()
		if err != nil {
			return nil, asTruncated(err, ZONE, "centerLon")
		}
		radius, err := r.ReadU16()
		if err != nil {
			return nil, asTruncated(err, ZONE, "radiusMetres")
		}
		z.Circle = &ZoneCircle{Center: Location{Lat: lat, Lon: lon}, RadiusMetre: radius}
	} else {
		count, err := r.ReadU8()
		if err != nil {
			return nil, asTruncated(err, ZONE, "polygonCount")
		}
		if int(count) < ZonePolygonMin {
			return nil, wrapInvalid(ZONE, "polygonCount", "fewer than 3 vertices")
		}
		if int(count) > ZonePolygonMax {
			return nil, wrapInvalid(ZONE, "polygonCount", "more than 32 vertices")
		}
		z.Polygon = make([]Location, 0, count)
		for i := 0; i < int(count); i++ {
			lat, err := r.ReadCoord()
			if err != nil {
				return nil, asTruncated(err, ZONE, "polygon")
			}
			lon, err := r.ReadCoord()
			if err != nil {
				return nil, asTruncated(err, ZONE, "polygon")
			}
			z.Polygon = append(z.Polygon, Location{Lat: lat, Lon: lon})
		}
	}

	if hasBit(flags, zoneFlagNote) {
		if z.Note, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, ZONE, "note")
		}
	}
	var extra []uint16
	if hasBit(flags, zoneFlagSrcIDs) {
		if extra, err = readExtraSrcIDs(r, ZONE); err != nil {
			return nil, err
		}
	}
	z.SrcIDs = dedupSrcIDs(z.Src, extra)
	return z, nil
}
