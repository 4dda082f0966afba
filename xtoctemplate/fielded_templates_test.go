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

// This file covers the five templates sharing the common location/note/
// srcIds optional-trailer shape (CONTACT, TASK, RESOURCE, ASSET, EVENT):
// a round trip for each, plus a shared check that each decoder rejects a
// truncated payload.

package xtoctemplate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContactRoundTrip(t *testing.T) {
	c := &Contact{Src: 1, Priority: 2, AtMs: 60000, TypeCode: 3, Count: 5, Direction: 90,
		Loc: &Location{Lat: 10, Lon: 20}, Note: "two trucks", SrcIDs: []uint16{1, 2}}
	raw, err := c.Encode()
	require.NoError(t, err)

	got, err := DecodeContact(raw)
	require.NoError(t, err)
	require.Equal(t, c.Count, got.Count)
	require.Equal(t, c.Direction, got.Direction)
	require.Equal(t, c.Note, got.Note)
	require.Equal(t, []uint16{1, 2}, got.SrcIDs)
}

func TestTaskRoundTrip(t *testing.T) {
	task := &Task{Src: 1, Dst: 2, Priority: 1, AtMs: 60000, ActionCode: 4, DueMinutes: 30,
		Loc: &Location{Lat: -5, Lon: 5}, Note: "resupply ammo"}
	raw, err := task.Encode()
	require.NoError(t, err)

	got, err := DecodeTask(raw)
	require.NoError(t, err)
	require.Equal(t, task.ActionCode, got.ActionCode)
	require.Equal(t, task.DueMinutes, got.DueMinutes)
	require.Equal(t, task.Note, got.Note)
}

func TestResourceRoundTrip(t *testing.T) {
	res := &Resource{Src: 3, Priority: 1, AtMs: 60000, ItemCode: 9, Quantity: 250, Note: "water, 5 cases"}
	raw, err := res.Encode()
	require.NoError(t, err)

	got, err := DecodeResource(raw)
	require.NoError(t, err)
	require.Equal(t, res.ItemCode, got.ItemCode)
	require.Equal(t, res.Quantity, got.Quantity)
}

func TestAssetRoundTrip(t *testing.T) {
	a := &Asset{Src: 4, Condition: 2, AtMs: 60000, TypeCode: 6, Loc: &Location{Lat: 1, Lon: 1}}
	raw, err := a.Encode()
	require.NoError(t, err)

	got, err := DecodeAsset(raw)
	require.NoError(t, err)
	require.Equal(t, a.Condition, got.Condition)
	require.Equal(t, a.TypeCode, got.TypeCode)
	require.NotNil(t, got.Loc)
}

func TestEventRoundTripWithWindow(t *testing.T) {
	e := &Event{Src: 1, Dst: 2, Priority: 1, Status: 1, AtMs: 60000, TypeCode: 3,
		Label: "curfew", LocationLabel: "downtown", Note: "enforce nightly",
		StartAtMs: 60000, EndAtMs: 360000}
	raw, err := e.Encode()
	require.NoError(t, err)

	got, err := DecodeEvent(raw)
	require.NoError(t, err)
	require.Equal(t, e.Label, got.Label)
	require.Equal(t, e.LocationLabel, got.LocationLabel)
	require.Equal(t, e.StartAtMs, got.StartAtMs)
	require.Equal(t, e.EndAtMs, got.EndAtMs)
}

func TestFieldedTemplatesRejectTruncatedPayload(t *testing.T) {
	_, err := DecodeContact([]byte{1, 0})
	require.Error(t, err)
	_, err = DecodeTask([]byte{1, 0})
	require.Error(t, err)
	_, err = DecodeResource([]byte{1, 0})
	require.Error(t, err)
	_, err = DecodeAsset([]byte{1, 0})
	require.Error(t, err)
	_, err = DecodeEvent([]byte{1, 0})
	require.Error(t, err)
}
