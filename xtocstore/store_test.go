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

package xtocstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "packets.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	s := openTestStore(t)
	rec := &Record{TemplateID: 1, Mode: "C", PacketID: "ABCD1234", ReceivedAtMs: 1000, Sources: []uint16{7}}
	require.NoError(t, s.Put(rec))

	got, err := s.Get(rec.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, []uint16{7}, got.Sources)
}

func TestPutMergesSourcesOnReingest(t *testing.T) {
	s := openTestStore(t)
	first := &Record{TemplateID: 1, Mode: "C", PacketID: "ABCD1234", ReceivedAtMs: 1000, Sources: []uint16{7}}
	require.NoError(t, s.Put(first))
	require.NotEmpty(t, first.StoreUID)

	again := &Record{TemplateID: 1, Mode: "C", PacketID: "ABCD1234", ReceivedAtMs: 1000, Sources: []uint16{9}}
	require.NoError(t, s.Put(again))

	got, err := s.Get(again.Key())
	require.NoError(t, err)
	require.Equal(t, []uint16{7, 9}, got.Sources)
	require.Equal(t, first.StoreUID, got.StoreUID)
}

func TestListOrdersNewestFirst(t *testing.T) {
	s := openTestStore(t)
	_, err := s.PutMany([]*Record{
		{TemplateID: 1, Mode: "C", PacketID: "AAAA0001", ReceivedAtMs: 1000},
		{TemplateID: 1, Mode: "C", PacketID: "AAAA0002", ReceivedAtMs: 3000},
		{TemplateID: 1, Mode: "C", PacketID: "AAAA0003", ReceivedAtMs: 2000},
	})
	require.NoError(t, err)

	recs, err := s.List(ListFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "AAAA0002", recs[0].PacketID)
	require.Equal(t, "AAAA0003", recs[1].PacketID)
	require.Equal(t, "AAAA0001", recs[2].PacketID)
}

func TestListFiltersByTemplateAndSource(t *testing.T) {
	s := openTestStore(t)
	_, err := s.PutMany([]*Record{
		{TemplateID: 1, Mode: "C", PacketID: "BBBB0001", ReceivedAtMs: 1000, Sources: []uint16{5}},
		{TemplateID: 2, Mode: "C", PacketID: "BBBB0002", ReceivedAtMs: 2000, Sources: []uint16{6}},
	})
	require.NoError(t, err)

	recs, err := s.List(ListFilter{TemplateID: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "BBBB0001", recs[0].PacketID)

	recs, err = s.List(ListFilter{Source: 6, HasSource: true})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "BBBB0002", recs[0].PacketID)
}

func TestClearRemovesEverything(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put(&Record{TemplateID: 1, Mode: "C", PacketID: "CCCC0001", ReceivedAtMs: 1000}))

	require.NoError(t, s.Clear())

	n, err := s.Count()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestStatsAggregates(t *testing.T) {
	s := openTestStore(t)
	_, err := s.PutMany([]*Record{
		{TemplateID: 1, Mode: "C", PacketID: "DDDD0001", ReceivedAtMs: 1000, HasGeo: true},
		{TemplateID: 2, Mode: "S", PacketID: "DDDD0002", ReceivedAtMs: 2000},
	})
	require.NoError(t, err)

	st, err := s.Stats()
	require.NoError(t, err)
	require.Equal(t, 2, st.TotalPackets)
	require.Equal(t, 1, st.WithGeo)
	require.Equal(t, int64(1000), st.OldestReceived)
	require.Equal(t, int64(2000), st.NewestReceived)
}
