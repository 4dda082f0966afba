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

package xtoccore

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

const (
	keyBundlePrefix    = "XTOC-KEY."
	rosterBundlePrefix = "XTOC-TEAM."
)

var (
	ErrMalformedKeyBundle    = errors.New("malformed key bundle")
	ErrMalformedRosterBundle = errors.New("malformed roster bundle")
)

// KeyBundleEntry is one team key carried in a key bundle.
type KeyBundleEntry struct {
	Kid       int    `json:"kid"`
	KeyB64URL string `json:"keyB64Url"`
	CreatedAt int64  `json:"createdAt"`
}

// KeyBundle is the payload of an "XTOC-KEY." bundle.
type KeyBundle struct {
	TeamID string           `json:"teamId"`
	Keys   []KeyBundleEntry `json:"keys"`
}

// DecodeKeyBundle parses an "XTOC-KEY."-prefixed, base64-wrapped JSON key
// bundle. It rejects bundles missing a team id, missing keys, or any key
// entry missing its kid/key material.
func DecodeKeyBundle(text string) (*KeyBundle, error) {
	rest, ok := cutPrefix(text, keyBundlePrefix)
	if !ok {
		return nil, ErrMalformedKeyBundle
	}
	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, ErrMalformedKeyBundle
	}
	var bundle KeyBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, ErrMalformedKeyBundle
	}
	if bundle.TeamID == "" || len(bundle.Keys) == 0 {
		return nil, ErrMalformedKeyBundle
	}
	for _, k := range bundle.Keys {
		if k.Kid <= 0 || k.KeyB64URL == "" {
			return nil, ErrMalformedKeyBundle
		}
	}
	return &bundle, nil
}

// EncodeKeyBundle renders a KeyBundle into its "XTOC-KEY." wire form.
func EncodeKeyBundle(bundle *KeyBundle) (string, error) {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return "", err
	}
	return keyBundlePrefix + base64.StdEncoding.EncodeToString(raw), nil
}

// RosterMember is one member entry in a roster bundle.
type RosterMember struct {
	ID       string `json:"id"`
	Callsign string `json:"callsign,omitempty"`
	Name     string `json:"name,omitempty"`
	SquadID  string `json:"squadId,omitempty"`
}

// RosterSquad is one squad entry in a roster bundle.
type RosterSquad struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// RosterBundle is the payload of an "XTOC-TEAM." bundle.
type RosterBundle struct {
	V       int            `json:"v"`
	Members []RosterMember `json:"members"`
	Squads  []RosterSquad  `json:"squads,omitempty"`
}

// DecodeRosterBundle parses an "XTOC-TEAM."-prefixed, base64-wrapped JSON
// roster bundle. It rejects any bundle whose version is not 1.
func DecodeRosterBundle(text string) (*RosterBundle, error) {
	rest, ok := cutPrefix(text, rosterBundlePrefix)
	if !ok {
		return nil, ErrMalformedRosterBundle
	}
	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, ErrMalformedRosterBundle
	}
	var bundle RosterBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, ErrMalformedRosterBundle
	}
	if bundle.V != 1 {
		return nil, ErrMalformedRosterBundle
	}
	return &bundle, nil
}

// EncodeRosterBundle renders a RosterBundle into its "XTOC-TEAM." wire form.
func EncodeRosterBundle(bundle *RosterBundle) (string, error) {
	bundle.V = 1
	raw, err := json.Marshal(bundle)
	if err != nil {
		return "", err
	}
	return rosterBundlePrefix + base64.StdEncoding.EncodeToString(raw), nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}
