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

package xtoccrypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wavelink-radio/xtoc-core/xtoccore"
)

func testKeyring(t *testing.T, activeKid int) *StaticKeyring {
	t.Helper()
	keys := map[int][]byte{
		1: bytes.Repeat([]byte{0x11}, KeyLen),
		2: bytes.Repeat([]byte{0x22}, KeyLen),
	}
	kr, err := NewStaticKeyring(activeKid, keys)
	require.NoError(t, err)
	return kr
}

func TestSealOpenRoundTrip(t *testing.T) {
	for _, ver := range []SecureVersion{SecureVersionXChaCha20, SecureVersionChaCha20} {
		kr := testKeyring(t, 1)
		aad := AAD{TemplateID: 1, Mode: xtoccore.ModeSecure, ID: "ABCD1234", Part: 1, Total: 1}
		plaintext := []byte("a sitrep payload")

		kid, block, err := Seal(kr, ver, aad, plaintext)
		require.NoError(t, err)
		require.Equal(t, 1, kid)

		got, err := Open(kr, kid, aad, block)
		require.NoError(t, err)
		require.Equal(t, plaintext, got)
	}
}

func TestOpenFallsBackToKeyTable(t *testing.T) {
	kr := testKeyring(t, 2)
	aad := AAD{TemplateID: 4, Mode: xtoccore.ModeSecure, ID: "ZZZZ0000", Part: 1, Total: 1}

	sealKr := testKeyring(t, 1)
	kid, block, err := Seal(sealKr, SecureVersionXChaCha20, aad, []byte("checkin"))
	require.NoError(t, err)

	got, err := Open(kr, kid, aad, block)
	require.NoError(t, err)
	require.Equal(t, []byte("checkin"), got)
}

func TestOpenUnknownKid(t *testing.T) {
	kr := testKeyring(t, 1)
	aad := AAD{TemplateID: 1, Mode: xtoccore.ModeSecure, ID: "AAAA0000", Part: 1, Total: 1}
	_, block, err := Seal(kr, SecureVersionXChaCha20, aad, []byte("x"))
	require.NoError(t, err)

	_, err = Open(kr, 99, aad, block)
	require.ErrorIs(t, err, xtoccore.ErrNoKeyForKid)
}

func TestOpenTamperedCiphertextFails(t *testing.T) {
	kr := testKeyring(t, 1)
	aad := AAD{TemplateID: 1, Mode: xtoccore.ModeSecure, ID: "AAAA0000", Part: 1, Total: 1}
	kid, block, err := Seal(kr, SecureVersionXChaCha20, aad, []byte("tamper me"))
	require.NoError(t, err)

	block[len(block)-1] ^= 0xFF
	_, err = Open(kr, kid, aad, block)
	require.ErrorIs(t, err, xtoccore.ErrAuthenticationFailed)
}

func TestOpenMismatchedAADFails(t *testing.T) {
	kr := testKeyring(t, 1)
	aad := AAD{TemplateID: 1, Mode: xtoccore.ModeSecure, ID: "AAAA0000", Part: 1, Total: 1}
	kid, block, err := Seal(kr, SecureVersionXChaCha20, aad, []byte("bound"))
	require.NoError(t, err)

	wrongAAD := aad
	wrongAAD.ID = "BBBB0000"
	_, err = Open(kr, kid, wrongAAD, block)
	require.ErrorIs(t, err, xtoccore.ErrAuthenticationFailed)
}

func TestAADBytesCanonicalForm(t *testing.T) {
	aad := AAD{TemplateID: 7, Mode: xtoccore.ModeSecure, ID: "ABCD1234", Part: 1, Total: 2, Kid: 3}
	require.Equal(t, "X1|7|S|ABCD1234|1|2|3", string(aad.Bytes()))
}

func TestNewStaticKeyringRejectsBadKeyLength(t *testing.T) {
	_, err := NewStaticKeyring(1, map[int][]byte{1: {0x01, 0x02}})
	require.Error(t, err)
	var kerr *KeyLengthError
	require.ErrorAs(t, err, &kerr)
	require.Equal(t, 1, kerr.Kid)
}
