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
	"crypto/cipher"
	crand "crypto/rand"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/wavelink-radio/xtoc-core/xtoccore"
)

// SecureVersion is the AEAD cipher suite a SECURE payload was sealed
// under. The wrapper's kid names the key; this byte names the cipher.
type SecureVersion uint8

const (
	// SecureVersionXChaCha20 uses XChaCha20-Poly1305 with a 24-byte
	// random nonce, safe for fully random nonces at high message volume.
	SecureVersionXChaCha20 SecureVersion = 1

	// SecureVersionChaCha20 uses ChaCha20-Poly1305 with a 12-byte random
	// nonce. Kept for interoperability with constrained senders that
	// cannot generate the larger nonce economically.
	SecureVersionChaCha20 SecureVersion = 2
)

func newAEAD(ver SecureVersion, key []byte) (cipher.AEAD, error) {
	switch ver {
	case SecureVersionXChaCha20:
		return chacha20poly1305.NewX(key)
	case SecureVersionChaCha20:
		return chacha20poly1305.New(key)
	default:
		return nil, &xtoccore.UnsupportedSecureVersionError{Seen: byte(ver)}
	}
}

// AAD carries the wrapper framing fields an AEAD seal authenticates but
// does not encrypt, binding the ciphertext to the envelope it travels in
// so a part cannot be replayed under a different id, template, or kid.
type AAD struct {
	TemplateID int
	Mode       xtoccore.Mode
	ID         string
	Part       int
	Total      int
	Kid        int
}

// aadWrapperVersion is the leading segment of the canonical AAD string,
// matching the wrapper's own "X1" version token.
const aadWrapperVersion = "X1"

// Bytes renders the AAD in the canonical pipe-joined form sealed and
// verified on both ends: "X1|<T>|<mode>|<ID>|<P>|<N>|<KID>".
func (a AAD) Bytes() []byte {
	var b strings.Builder
	b.WriteString(aadWrapperVersion)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(a.TemplateID))
	b.WriteByte('|')
	b.WriteString(a.Mode.String())
	b.WriteByte('|')
	b.WriteString(a.ID)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(a.Part))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(a.Total))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(a.Kid))
	return []byte(b.String())
}

// Seal encrypts plaintext under the keyring's active key, producing a
// version-tagged block: ver(1) || nonce || ciphertext||tag. The caller
// reads the returned kid back out of the keyring to fill the wrapper's
// SECURE kid segment.
func Seal(kr Keyring, ver SecureVersion, aad AAD, plaintext []byte) (kid int, block []byte, err error) {
	kid, key, ok := kr.Active()
	if !ok {
		return 0, nil, &xtoccore.NoKeyForKidError{Kid: kid}
	}
	aad.Kid = kid

	aeadCipher, err := newAEAD(ver, key)
	if err != nil {
		return 0, nil, err
	}
	nonce := make([]byte, aeadCipher.NonceSize())
	if _, err := crand.Read(nonce); err != nil {
		return 0, nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+aeadCipher.Overhead())
	out = append(out, byte(ver))
	out = append(out, nonce...)
	out = aeadCipher.Seal(out, nonce, plaintext, aad.Bytes())
	return kid, out, nil
}

// Open decrypts and authenticates a block produced by Seal. aad.Kid is
// overwritten with the kid the caller observed in the wrapper, since the
// AAD must match exactly what Seal bound it to.
func Open(kr Keyring, kid int, aad AAD, block []byte) ([]byte, error) {
	if len(block) < 1 {
		return nil, xtoccore.ErrTruncated
	}
	ver := SecureVersion(block[0])

	key, err := lookupForOpen(kr, kid)
	if err != nil {
		return nil, err
	}
	aeadCipher, err := newAEAD(ver, key)
	if err != nil {
		return nil, err
	}

	nlen := aeadCipher.NonceSize()
	if len(block) < 1+nlen {
		return nil, xtoccore.ErrTruncated
	}
	nonce := block[1 : 1+nlen]
	ciphertext := block[1+nlen:]

	aad.Kid = kid
	plaintext, err := aeadCipher.Open(nil, nonce, ciphertext, aad.Bytes())
	if err != nil {
		return nil, xtoccore.ErrAuthenticationFailed
	}
	return plaintext, nil
}
