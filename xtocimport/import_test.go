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
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wavelink-radio/xtoc-core/xtoccore"
	"github.com/wavelink-radio/xtoc-core/xtoccrypto"
	"github.com/wavelink-radio/xtoc-core/xtocstore"
	"github.com/wavelink-radio/xtoc-core/xtoctemplate"
)

func clearEnvelope(t *testing.T, id string, s *xtoctemplate.Sitrep) string {
	t.Helper()
	raw, err := s.Encode()
	require.NoError(t, err)
	return xtoccore.BuildWrapper(&xtoccore.Wrapper{
		TemplateID: int(xtoctemplate.SITREP),
		Mode:       xtoccore.ModeClear,
		ID:         id,
		Part:       1,
		Total:      1,
		Payload:    xtoccore.EncodeBase64URL(raw),
	})
}

func secureEnvelope(t *testing.T, kr *xtoccrypto.StaticKeyring, id string, s *xtoctemplate.Sitrep) string {
	t.Helper()
	raw, err := s.Encode()
	require.NoError(t, err)

	aad := xtoccrypto.AAD{TemplateID: int(xtoctemplate.SITREP), Mode: xtoccore.ModeSecure, ID: id, Part: 1, Total: 1}
	kid, block, err := xtoccrypto.Seal(kr, xtoccrypto.SecureVersionXChaCha20, aad, raw)
	require.NoError(t, err)

	return xtoccore.BuildWrapper(&xtoccore.Wrapper{
		TemplateID: int(xtoctemplate.SITREP),
		Mode:       xtoccore.ModeSecure,
		ID:         id,
		Part:       1,
		Total:      1,
		Kid:        kid,
		Payload:    xtoccore.EncodeBase64URL(block),
	})
}

func TestImportClearAndSecurePackets(t *testing.T) {
	kr, err := xtoccrypto.NewStaticKeyring(1, map[int][]byte{1: bytes.Repeat([]byte{0x09}, xtoccrypto.KeyLen)})
	require.NoError(t, err)

	clear := clearEnvelope(t, "CLEAR0001", &xtoctemplate.Sitrep{Src: 4, Dst: 5, Priority: 1, Status: 2, AtMs: 60000})
	secure := secureEnvelope(t, kr, "SECURE001", &xtoctemplate.Sitrep{Src: 6, Dst: 7, Priority: 2, Status: 1, AtMs: 120000})

	doc := &BackupDocument{
		V:   1,
		App: "xtoc",
		TeamKeys: []BackupTeamKey{
			{TeamID: "alpha", Kid: 1, KeyB64URL: xtoccore.EncodeBase64URL(bytes.Repeat([]byte{0x09}, xtoccrypto.KeyLen))},
		},
		Packets: []BackupPacket{
			{Envelope: clear, CreatedAtMs: 1000},
			{Envelope: secure, CreatedAtMs: 2000},
		},
	}

	store, err := xtocstore.Open(filepath.Join(t.TempDir(), "packets.db"))
	require.NoError(t, err)
	defer store.Close()

	sum, err := Import(store, doc)
	require.NoError(t, err)
	require.Equal(t, 2, sum.PacketsTotal)
	require.Equal(t, 2, sum.PacketsImported)
	require.Equal(t, 0, sum.PacketsFailed)

	n, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestImportSkipsMalformedPacketWithoutAbortingBatch(t *testing.T) {
	doc := &BackupDocument{
		V:   1,
		App: "xtoc",
		Packets: []BackupPacket{
			{Envelope: "not a valid envelope", CreatedAtMs: 1000},
			{Envelope: clearEnvelope(t, "OK000001", &xtoctemplate.Sitrep{Src: 1, Dst: 2, AtMs: 60000}), CreatedAtMs: 2000},
		},
	}

	store, err := xtocstore.Open(filepath.Join(t.TempDir(), "packets.db"))
	require.NoError(t, err)
	defer store.Close()

	sum, err := Import(store, doc)
	require.NoError(t, err)
	require.Equal(t, 1, sum.PacketsFailed)
	require.Equal(t, 1, sum.PacketsImported)
	require.Len(t, sum.Errors, 1)

	n, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 1, n, "the envelope that never parsed has no key to store under")
}

func TestImportStoresPacketWithDecodeErrorInsteadOfDroppingIt(t *testing.T) {
	w := &xtoccore.Wrapper{
		TemplateID: int(xtoctemplate.SITREP),
		Mode:       xtoccore.ModeSecure,
		ID:         "NOKEY0001",
		Part:       1,
		Total:      1,
		Kid:        9,
		Payload:    xtoccore.EncodeBase64URL([]byte("not actually ciphertext, just filler bytes")),
	}
	envelope := xtoccore.BuildWrapper(w)

	doc := &BackupDocument{
		V:   1,
		App: "xtoc",
		Packets: []BackupPacket{
			{Envelope: envelope, CreatedAtMs: 1500, Lat: floatPtr(12.5), Lon: floatPtr(-45.5), Summary: "relayed sitrep"},
		},
	}

	store, err := xtocstore.Open(filepath.Join(t.TempDir(), "packets.db"))
	require.NoError(t, err)
	defer store.Close()

	sum, err := Import(store, doc)
	require.NoError(t, err)
	require.Equal(t, 1, sum.PacketsTotal)
	require.Equal(t, 1, sum.PacketsFailed)
	require.Equal(t, 1, sum.PacketsImported)
	require.Len(t, sum.Errors, 1)

	recs, err := store.List(xtocstore.ListFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	require.NotEmpty(t, rec.DecodeError)
	require.Equal(t, envelope, rec.RawEnvelope)
	require.Equal(t, "relayed sitrep", rec.Summary)
	require.True(t, rec.HasGeo)
	require.Len(t, rec.Features, 1)
	require.Equal(t, "Point", rec.Features[0].Type)
	require.Equal(t, [2]float64{-45.5, 12.5}, rec.Features[0].Coordinates[0])
}

func floatPtr(f float64) *float64 { return &f }

func TestImportRejectsUnsupportedDocument(t *testing.T) {
	store, err := xtocstore.Open(filepath.Join(t.TempDir(), "packets.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = Import(store, &BackupDocument{V: 2, App: "xtoc"})
	require.ErrorIs(t, err, ErrUnsupportedDocument)
}
