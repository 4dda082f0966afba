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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZoneCircleRoundTrip(t *testing.T) {
	z := &Zone{
		Src: 3, Threat: 2, MeaningCode: 1, AtMs: 60000,
		Circle: &ZoneCircle{Center: Location{Lat: 12.5, Lon: -71.25}, RadiusMetre: 500},
		Note:   "keep clear",
	}
	raw, err := z.Encode()
	require.NoError(t, err)

	got, err := DecodeZone(raw)
	require.NoError(t, err)
	require.NotNil(t, got.Circle)
	require.Nil(t, got.Polygon)
	require.Equal(t, z.Circle.RadiusMetre, got.Circle.RadiusMetre)
	require.InDelta(t, z.Circle.Center.Lat, got.Circle.Center.Lat, 1e-4)
	require.Equal(t, z.Note, got.Note)
}

func TestZonePolygonRoundTrip(t *testing.T) {
	z := &Zone{
		Src: 3, Threat: 1, MeaningCode: 2, AtMs: 60000,
		Polygon: []Location{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 1, Lon: 0}},
	}
	raw, err := z.Encode()
	require.NoError(t, err)

	got, err := DecodeZone(raw)
	require.NoError(t, err)
	require.Nil(t, got.Circle)
	require.Len(t, got.Polygon, 4)
}

func TestZonePolygonRejectsFewerThanMinVertices(t *testing.T) {
	z := &Zone{Src: 1, AtMs: 60000, Polygon: []Location{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}}
	raw, err := z.Encode()
	require.NoError(t, err)

	_, err = DecodeZone(raw)
	require.Error(t, err)
}

func TestZonePolygonTruncatesAtMaxVertices(t *testing.T) {
	poly := make([]Location, ZonePolygonMax+5)
	for i := range poly {
		poly[i] = Location{Lat: float64(i), Lon: float64(i)}
	}
	z := &Zone{Src: 1, AtMs: 60000, Polygon: poly}
	raw, err := z.Encode()
	require.NoError(t, err)

	got, err := DecodeZone(raw)
	require.NoError(t, err)
	require.Len(t, got.Polygon, ZonePolygonMax)
}

func TestZoneSrcIDsDedupeWithPrimary(t *testing.T) {
	z := &Zone{Src: 5, AtMs: 60000, Polygon: []Location{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 0}}, SrcIDs: []uint16{5, 7, 7}}
	raw, err := z.Encode()
	require.NoError(t, err)

	got, err := DecodeZone(raw)
	require.NoError(t, err)
	require.Equal(t, []uint16{5, 7}, got.SrcIDs)
}
