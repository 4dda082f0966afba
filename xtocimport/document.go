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

// Package xtocimport implements the backup importer pipeline: validating
// a backup document, loading its roster and team keys, then decoding and
// bulk-upserting every packet it carries into a packet store.
package xtocimport

import (
	"errors"

	"github.com/wavelink-radio/xtoc-core/xtoccore"
)

// BackupDocument is the top-level shape of an exported backup file.
type BackupDocument struct {
	V            int                     `json:"v"`
	App          string                  `json:"app"`
	ExportedAtMs int64                   `json:"exportedAt,omitempty"`
	Members      []xtoccore.RosterMember `json:"members,omitempty"`
	Squads       []xtoccore.RosterSquad  `json:"squads,omitempty"`
	TeamKeys     []BackupTeamKey         `json:"teamKeys,omitempty"`
	Packets      []BackupPacket          `json:"packets"`
	// LocalStorage carries the exporting device's preferred active key,
	// consulted when the import doesn't otherwise have one selected.
	LocalStorage *BackupLocalStorage `json:"localStorage,omitempty"`
}

// BackupTeamKey is one team key entry in a backup document. Unlike a
// bare key-bundle entry, it carries its own team id, since a backup can
// bundle keys from more than one team's roster.
type BackupTeamKey struct {
	TeamID    string `json:"teamId"`
	Kid       int    `json:"kid"`
	KeyB64URL string `json:"keyB64Url"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// BackupLocalStorage is the document's localStorage-style preference for
// which team key becomes active once its keys are imported.
type BackupLocalStorage struct {
	PreferredTeamID string `json:"preferredTeamId,omitempty"`
	PreferredKid    int    `json:"preferredKid,omitempty"`
}

// BackupPacket is one archived wrapper plus the local metadata the
// original device recorded alongside it.
type BackupPacket struct {
	Envelope    string   `json:"raw"` // the full "X1...." wrapper text
	CreatedAtMs int64    `json:"createdAt,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Summary     string   `json:"summary,omitempty"`
}

const supportedVersion = 1
const supportedApp = "xtoc"

// ErrUnsupportedDocument is returned when the backup's v/app header does
// not match what this importer understands.
var ErrUnsupportedDocument = errors.New("unsupported backup document")

func validateHeader(doc *BackupDocument) error {
	if doc.V != supportedVersion || doc.App != supportedApp {
		return ErrUnsupportedDocument
	}
	return nil
}
