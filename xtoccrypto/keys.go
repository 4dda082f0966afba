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

// Package xtoccrypto implements the SECURE wrapper's AEAD layer: sealing
// and opening a template payload under a team key identified by kid.
package xtoccrypto

import (
	"errors"
	"fmt"

	"github.com/wavelink-radio/xtoc-core/xtoccore"
)

// KeyLen is the only key length this package accepts.
const KeyLen = 32

// ErrInvalidKeyLength is returned when a key is supplied that is not
// exactly KeyLen bytes.
var ErrInvalidKeyLength = errors.New("team key must be exactly 32 bytes")

// Keyring looks up team keys by kid, the way the wrapper's SECURE segment
// names them, and reports which kid a new SECURE message should seal
// under.
//
// Lookup order when opening a message: the active key is tried first if
// its kid matches, then the full team key table is scanned. This mirrors
// an operator who just rotated keys but still has team members sending
// under the previous kid.
type Keyring interface {
	// Active returns the kid and key a new message should seal under.
	Active() (kid int, key []byte, ok bool)

	// Lookup returns the key registered for kid, if any.
	Lookup(kid int) (key []byte, ok bool)
}

// StaticKeyring is a Keyring backed by an in-memory map, suitable for a
// team roster loaded from a key bundle.
type StaticKeyring struct {
	ActiveKid int
	Keys      map[int][]byte
}

// NewStaticKeyring validates every key's length up front.
func NewStaticKeyring(activeKid int, keys map[int][]byte) (*StaticKeyring, error) {
	for kid, key := range keys {
		if len(key) != KeyLen {
			return nil, &KeyLengthError{Kid: kid, Len: len(key)}
		}
	}
	return &StaticKeyring{ActiveKid: activeKid, Keys: keys}, nil
}

func (k *StaticKeyring) Active() (int, []byte, bool) {
	key, ok := k.Keys[k.ActiveKid]
	return k.ActiveKid, key, ok
}

func (k *StaticKeyring) Lookup(kid int) ([]byte, bool) {
	key, ok := k.Keys[kid]
	return key, ok
}

// lookupForOpen implements the active-first, then full-scan order.
func lookupForOpen(kr Keyring, kid int) ([]byte, error) {
	if activeKid, key, ok := kr.Active(); ok && activeKid == kid {
		return key, nil
	}
	if key, ok := kr.Lookup(kid); ok {
		return key, nil
	}
	return nil, &xtoccore.NoKeyForKidError{Kid: kid}
}

// KeyLengthError is returned by NewStaticKeyring for a malformed key.
type KeyLengthError struct {
	Kid int
	Len int
}

func (e *KeyLengthError) Error() string {
	return fmt.Sprintf("kid %d: key is %d bytes, want %d", e.Kid, e.Len, KeyLen)
}

func (e *KeyLengthError) Unwrap() error { return ErrInvalidKeyLength }
