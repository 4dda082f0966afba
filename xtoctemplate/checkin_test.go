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

func TestCheckinSingleUnitUsesVersion1(t *testing.T) {
	c := &CheckIn{UnitIDs: []uint16{42}, Loc: Location{Lat: 1.5, Lon: -2.5}, AtMs: 60000, Status: 1}
	raw, err := c.Encode()
	require.NoError(t, err)
	require.Equal(t, byte(checkinVersion1), raw[0])

	got, err := DecodeCheckin(raw)
	require.NoError(t, err)
	require.Equal(t, []uint16{42}, got.UnitIDs)
	require.InDelta(t, c.Loc.Lat, got.Loc.Lat, 1e-4)
	require.InDelta(t, c.Loc.Lon, got.Loc.Lon, 1e-4)
	require.Equal(t, c.AtMs, got.AtMs)
	require.Equal(t, c.Status, got.Status)
}

func TestCheckinBatchUsesVersion2(t *testing.T) {
	c := &CheckIn{UnitIDs: []uint16{1, 2, 3}, Loc: Location{Lat: 10, Lon: 20}, AtMs: 120000, Status: 2}
	raw, err := c.Encode()
	require.NoError(t, err)
	require.Equal(t, byte(checkinVersion2), raw[0])

	got, err := DecodeCheckin(raw)
	require.NoError(t, err)
	require.Equal(t, []uint16{1, 2, 3}, got.UnitIDs)
}

func TestCheckinBatchTruncatesAtMaxUnits(t *testing.T) {
	ids := make([]uint16, CheckinMaxUnits+10)
	for i := range ids {
		ids[i] = uint16(i + 1)
	}
	c := &CheckIn{UnitIDs: ids, Loc: Location{Lat: 0, Lon: 0}, AtMs: 60000}
	raw, err := c.Encode()
	require.NoError(t, err)

	got, err := DecodeCheckin(raw)
	require.NoError(t, err)
	require.Len(t, got.UnitIDs, CheckinMaxUnits)
}

func TestCheckinEmptyUnitsEncodesAsUnitZero(t *testing.T) {
	c := &CheckIn{Loc: Location{Lat: 5, Lon: 6}, AtMs: 60000}
	raw, err := c.Encode()
	require.NoError(t, err)
	require.Equal(t, byte(checkinVersion1), raw[0])

	got, err := DecodeCheckin(raw)
	require.NoError(t, err)
	require.Equal(t, []uint16{0}, got.UnitIDs)
}

func TestCheckinRejectsUnsupportedVersion(t *testing.T) {
	_, err := DecodeCheckin([]byte{9, 0, 0})
	require.Error(t, err)
}
