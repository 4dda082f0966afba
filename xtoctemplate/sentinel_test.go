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

func TestSentinelRoundTripWithIOAndReadings(t *testing.T) {
	s := &Sentinel{
		AtMs: 60000, Loc: Location{Lat: 45.1, Lon: -93.2}, NodeID: 7,
		HasIO: true, InMask: 0b0101, OutMask: 0b1010,
		Label: "gate-3", Alert: true,
		Readings: []SentinelReading{{TypeCode: 1, Value: -40}, {TypeCode: 2, Value: 212}},
	}
	raw, err := s.Encode()
	require.NoError(t, err)

	got, err := DecodeSentinel(raw)
	require.NoError(t, err)
	require.Equal(t, s.NodeID, got.NodeID)
	require.True(t, got.HasIO)
	require.Equal(t, s.InMask, got.InMask)
	require.Equal(t, s.OutMask, got.OutMask)
	require.Equal(t, s.Label, got.Label)
	require.True(t, got.Alert)
	require.Equal(t, s.Readings, got.Readings)
}

func TestSentinelLocationIsUnconditional(t *testing.T) {
	s := &Sentinel{AtMs: 60000, Loc: Location{Lat: 1, Lon: 2}, NodeID: 1}
	raw, err := s.Encode()
	require.NoError(t, err)
	require.Len(t, raw, 19)

	got, err := DecodeSentinel(raw)
	require.NoError(t, err)
	require.InDelta(t, s.Loc.Lat, got.Loc.Lat, 1e-4)
	require.InDelta(t, s.Loc.Lon, got.Loc.Lon, 1e-4)
	require.False(t, got.HasIO)
	require.False(t, got.Alert)
	require.Empty(t, got.Readings)
}

func TestSentinelReadingsTruncateAtSensorMax(t *testing.T) {
	readings := make([]SentinelReading, SentinelSensorMax+5)
	for i := range readings {
		readings[i] = SentinelReading{TypeCode: uint8(i), Value: int16(i)}
	}
	s := &Sentinel{AtMs: 60000, Loc: Location{Lat: 0, Lon: 0}, NodeID: 1, Readings: readings}
	raw, err := s.Encode()
	require.NoError(t, err)

	got, err := DecodeSentinel(raw)
	require.NoError(t, err)
	require.Len(t, got.Readings, SentinelSensorMax)
}

func TestSentinelRejectsUnsupportedVersion(t *testing.T) {
	_, err := DecodeSentinel([]byte{9, 0})
	require.Error(t, err)
}
