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

package xtocimport

import (
	"math"

	"github.com/wavelink-radio/xtoc-core/xtocstore"
	"github.com/wavelink-radio/xtoc-core/xtoctemplate"
)

// earthRadiusMetres is the WGS84 equatorial radius, accurate enough for
// the short-range circle approximations a ZONE report draws.
const earthRadiusMetres = 6378137.0

// circlePolygonVertices scales the approximation's vertex count with
// radius so a small circle isn't over-tessellated and a large one isn't
// visibly faceted, clamped to the [12, 180] range a ZONE polygon allows
// downstream consumers to assume.
func circlePolygonVertices(radiusMetres uint16) int {
	n := int(radiusMetres) / 50
	if n < 12 {
		n = 12
	}
	if n > 180 {
		n = 180
	}
	return n
}

// circleToPolygon approximates a circle as a closed polygon ring by
// walking the destination-point formula around the compass, and uses the
// circle's own center as the feature's centroid.
func circleToPolygon(center xtoctemplate.Location, radiusMetres uint16) *xtocstore.Feature {
	n := circlePolygonVertices(radiusMetres)
	ring := make([][2]float64, 0, n+1)

	latRad := center.Lat * math.Pi / 180
	angularDist := float64(radiusMetres) / earthRadiusMetres

	for i := 0; i < n; i++ {
		bearing := 2 * math.Pi * float64(i) / float64(n)
		lat2 := math.Asin(math.Sin(latRad)*math.Cos(angularDist) +
			math.Cos(latRad)*math.Sin(angularDist)*math.Cos(bearing))
		lon2 := center.Lon*math.Pi/180 + math.Atan2(
			math.Sin(bearing)*math.Sin(angularDist)*math.Cos(latRad),
			math.Cos(angularDist)-math.Sin(latRad)*math.Sin(lat2))
		ring = append(ring, [2]float64{lon2 * 180 / math.Pi, lat2 * 180 / math.Pi})
	}
	ring = append(ring, ring[0])

	return &xtocstore.Feature{
		Type:        "Polygon",
		Coordinates: ring,
		Centroid:    &[2]float64{center.Lon, center.Lat},
	}
}

// polygonToRing closes poly into a GeoJSON ring (appending the first
// point again if the caller didn't) and computes its unweighted centroid.
func polygonToRing(poly []xtoctemplate.Location) *xtocstore.Feature {
	if len(poly) == 0 {
		return nil
	}
	ring := make([][2]float64, 0, len(poly)+1)
	var sumLon, sumLat float64
	for _, pt := range poly {
		ring = append(ring, [2]float64{pt.Lon, pt.Lat})
		sumLon += pt.Lon
		sumLat += pt.Lat
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	centroid := [2]float64{sumLon / float64(len(poly)), sumLat / float64(len(poly))}
	return &xtocstore.Feature{Type: "Polygon", Coordinates: ring, Centroid: &centroid}
}

// pointGeometry wraps a single location as a GeoJSON-shaped point.
func pointGeometry(loc xtoctemplate.Location) *xtocstore.Feature {
	return &xtocstore.Feature{Type: "Point", Coordinates: [][2]float64{{loc.Lon, loc.Lat}}}
}

// pointFromPacket builds a point feature straight from a backup packet's
// own lat/lon metadata, the fallback every non-ZONE template uses: the
// exporting device already resolved the coordinate at export time, which
// is the only geometry source available for a SECURE packet this import
// can't decrypt.
func pointFromPacket(lat, lon *float64) *xtocstore.Feature {
	if lat == nil || lon == nil {
		return nil
	}
	return &xtocstore.Feature{Type: "Point", Coordinates: [][2]float64{{*lon, *lat}}}
}

// polylineGeometry wraps an open point sequence (a PHASELINE's vertices)
// as a GeoJSON-shaped line string, with its midpoint vertex as centroid.
func polylineGeometry(points []xtoctemplate.Location) *xtocstore.Feature {
	if len(points) == 0 {
		return nil
	}
	coords := make([][2]float64, len(points))
	for i, pt := range points {
		coords[i] = [2]float64{pt.Lon, pt.Lat}
	}
	mid := points[len(points)/2]
	return &xtocstore.Feature{Type: "LineString", Coordinates: coords, Centroid: &[2]float64{mid.Lon, mid.Lat}}
}

// deriveZoneGeometry extracts the circle-or-polygon geometry a fully
// decoded ZONE payload carries.
func deriveZoneGeometry(z *xtoctemplate.Zone) *xtocstore.Feature {
	if z.Circle != nil {
		return circleToPolygon(z.Circle.Center, z.Circle.RadiusMetre)
	}
	return polygonToRing(z.Polygon)
}

// deriveGeometry computes the geometry feature for one packet. ZONE is
// the one template whose geometry comes from a full decode first
// (circle/polygon can't be recovered any other way); an undecoded ZONE
// gets only a point from the packet's own lat/lon, if any. Every other
// template prefers the backup packet's own lat/lon, since that field
// survives even when the payload couldn't be decrypted or decoded, and
// only falls back to the decoded payload's own location when the packet
// carries no lat/lon of its own.
func deriveGeometry(templateID int, payload xtoctemplate.Payload, lat, lon *float64) *xtocstore.Feature {
	if templateID == int(xtoctemplate.ZONE) {
		if z, ok := payload.(*xtoctemplate.Zone); ok {
			return deriveZoneGeometry(z)
		}
		return pointFromPacket(lat, lon)
	}

	if feat := pointFromPacket(lat, lon); feat != nil {
		return feat
	}
	switch p := payload.(type) {
	case *xtoctemplate.Sitrep:
		if p.Loc != nil {
			return pointGeometry(*p.Loc)
		}
	case *xtoctemplate.Contact:
		if p.Loc != nil {
			return pointGeometry(*p.Loc)
		}
	case *xtoctemplate.Task:
		if p.Loc != nil {
			return pointGeometry(*p.Loc)
		}
	case *xtoctemplate.CheckIn:
		return pointGeometry(p.Loc)
	case *xtoctemplate.Resource:
		if p.Loc != nil {
			return pointGeometry(*p.Loc)
		}
	case *xtoctemplate.Asset:
		if p.Loc != nil {
			return pointGeometry(*p.Loc)
		}
	case *xtoctemplate.Mission:
		if p.Loc != nil {
			return pointGeometry(*p.Loc)
		}
	case *xtoctemplate.Event:
		if p.Loc != nil {
			return pointGeometry(*p.Loc)
		}
	case *xtoctemplate.PhaseLine:
		return polylineGeometry(p.Points)
	case *xtoctemplate.Sentinel:
		return pointGeometry(p.Loc)
	}
	return nil
}
