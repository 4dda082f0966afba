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
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/wavelink-radio/xtoc-core/xtoccore"
	"github.com/wavelink-radio/xtoc-core/xtoccrypto"
	"github.com/wavelink-radio/xtoc-core/xtocstore"
	"github.com/wavelink-radio/xtoc-core/xtoctemplate"
)

// PacketError records why one archived envelope failed to import,
// without aborting the rest of the batch.
type PacketError struct {
	Index    int    `json:"index"`
	Envelope string `json:"envelope"`
	Reason   string `json:"reason"`
}

// Summary reports what an Import call did.
type Summary struct {
	MembersImported int           `json:"membersImported"`
	SquadsImported  int           `json:"squadsImported"`
	KeysImported    int           `json:"keysImported"`
	PacketsTotal    int           `json:"packetsTotal"`
	PacketsImported int           `json:"packetsImported"`
	PacketsFailed   int           `json:"packetsFailed"`
	Errors          []PacketError `json:"errors,omitempty"`
}

// Import validates doc's header, builds a keyring from its team keys,
// then decodes and bulk-upserts every packet into store. A per-packet
// decode or decrypt failure is captured on that packet's stored record
// (DecodeError) and never aborts the rest of the batch; only a malformed
// document header, a malformed team key, or a store-level transaction
// failure returns an error.
func Import(store *xtocstore.Store, doc *BackupDocument) (*Summary, error) {
	if err := validateHeader(doc); err != nil {
		return nil, err
	}

	sum := &Summary{
		MembersImported: len(doc.Members),
		SquadsImported:  len(doc.Squads),
		KeysImported:    len(doc.TeamKeys),
		PacketsTotal:    len(doc.Packets),
	}

	kr, err := buildKeyring(doc)
	if err != nil {
		return nil, err
	}

	records := make([]*xtocstore.Record, 0, len(doc.Packets))
	for i, bp := range doc.Packets {
		rec, err := importOne(kr, bp)
		if err != nil {
			sum.PacketsFailed++
			sum.Errors = append(sum.Errors, PacketError{Index: i, Envelope: bp.Envelope, Reason: err.Error()})
			log.Debug().Int("index", i).Err(err).Msg("xtocimport: skipping packet")
			continue
		}
		if rec.DecodeError != "" {
			sum.PacketsFailed++
			sum.Errors = append(sum.Errors, PacketError{Index: i, Envelope: bp.Envelope, Reason: rec.DecodeError})
			log.Debug().Int("index", i).Str("decodeError", rec.DecodeError).Msg("xtocimport: storing packet with decode error")
		}
		records = append(records, rec)
	}

	n, err := store.PutMany(records)
	if err != nil {
		return nil, err
	}
	sum.PacketsImported = n
	return sum, nil
}

// buildKeyring decodes every team key in doc, collecting every malformed
// entry into a single aggregated error rather than bailing at the first
// one: a backup with several corrupted key entries reports all of them
// at once, not one per re-run. Once every
// key is imported, it selects the active kid per the document's
// preference, falling back to the highest kid in the preferred team,
// then the highest kid overall.
func buildKeyring(doc *BackupDocument) (*xtoccrypto.StaticKeyring, error) {
	var result *multierror.Error
	keys := make(map[int][]byte, len(doc.TeamKeys))
	teamOfKid := make(map[int]string, len(doc.TeamKeys))
	for _, entry := range doc.TeamKeys {
		if entry.TeamID == "" || entry.Kid <= 0 || entry.KeyB64URL == "" {
			result = multierror.Append(result, fmt.Errorf("team key kid %d: missing teamId, kid, or key", entry.Kid))
			continue
		}
		key, err := xtoccore.DecodeBase64URL(entry.KeyB64URL)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("team key kid %d: %w", entry.Kid, err))
			continue
		}
		keys[entry.Kid] = key
		teamOfKid[entry.Kid] = entry.TeamID
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return xtoccrypto.NewStaticKeyring(selectActiveKid(doc.LocalStorage, keys, teamOfKid), keys)
}

// selectActiveKid prefers the (teamId,kid) pair the document names as
// preferred, provided that kid was actually imported; otherwise it picks
// the highest kid within the preferred team, or the highest kid overall
// if no team preference matches anything imported.
func selectActiveKid(pref *BackupLocalStorage, keys map[int][]byte, teamOfKid map[int]string) int {
	if pref != nil && pref.PreferredKid != 0 {
		if _, ok := keys[pref.PreferredKid]; ok {
			if pref.PreferredTeamID == "" || teamOfKid[pref.PreferredKid] == pref.PreferredTeamID {
				return pref.PreferredKid
			}
		}
	}
	if pref != nil && pref.PreferredTeamID != "" {
		if kid, ok := highestKidInTeam(keys, teamOfKid, pref.PreferredTeamID); ok {
			return kid
		}
	}
	kid, _ := highestKid(keys)
	return kid
}

func highestKidInTeam(keys map[int][]byte, teamOfKid map[int]string, teamID string) (int, bool) {
	best, found := 0, false
	for kid := range keys {
		if teamOfKid[kid] != teamID {
			continue
		}
		if !found || kid > best {
			best, found = kid, true
		}
	}
	return best, found
}

func highestKid(keys map[int][]byte) (int, bool) {
	best, found := 0, false
	for kid := range keys {
		if !found || kid > best {
			best, found = kid, true
		}
	}
	return best, found
}

// decodePlaintext decrypts (if SECURE) and returns a wrapper's payload
// bytes.
func decodePlaintext(kr xtoccrypto.Keyring, w *xtoccore.Wrapper) ([]byte, error) {
	switch w.Mode {
	case xtoccore.ModeClear:
		return xtoccore.DecodeBase64URL(w.Payload)
	case xtoccore.ModeSecure:
		ciphertext, err := xtoccore.DecodeBase64URL(w.Payload)
		if err != nil {
			return nil, err
		}
		aad := xtoccrypto.AAD{
			TemplateID: w.TemplateID,
			Mode:       w.Mode,
			ID:         w.ID,
			Part:       w.Part,
			Total:      w.Total,
		}
		return xtoccrypto.Open(kr, w.Kid, aad, ciphertext)
	default:
		return nil, xtoccore.ErrInvalidEnvelope
	}
}

// importOne always returns a record once the envelope itself parses,
// even when decrypting or decoding the payload fails: the record's
// DecodeError carries the failure reason and its RawEnvelope the
// original text, so a bad packet is stored rather than dropped. Only an
// envelope that fails to parse at all — with no templateId/mode/id to
// key a record on — is reported as an error and excluded from the batch.
func importOne(kr xtoccrypto.Keyring, bp BackupPacket) (*xtocstore.Record, error) {
	w := xtoccore.ParseWrapper(bp.Envelope)
	if w == nil {
		return nil, xtoccore.ErrInvalidEnvelope
	}

	rec := &xtocstore.Record{
		TemplateID:   w.TemplateID,
		Mode:         w.Mode.String(),
		PacketID:     w.ID,
		Kid:          w.Kid,
		RawEnvelope:  bp.Envelope,
		ReceivedAtMs: bp.CreatedAtMs,
	}

	var payload xtoctemplate.Payload
	raw, err := decodePlaintext(kr, w)
	if err != nil {
		rec.DecodeError = err.Error()
	} else if payload, err = xtoctemplate.Decode(xtoctemplate.ID(w.TemplateID), raw); err != nil {
		rec.DecodeError = err.Error()
	} else if payloadJSON, err := json.Marshal(payload); err != nil {
		rec.DecodeError = err.Error()
		payload = nil
	} else {
		rec.PayloadJSON = payloadJSON
	}

	finishRecord(rec, w.TemplateID, payload, bp)
	return rec, nil
}

// finishRecord fills in the geometry and summary every record carries
// regardless of decode outcome: ZONE geometry comes from a full decode
// (falling back to the packet's own lat/lon point when the ZONE could
// not be decoded), while every other template prefers the backup
// packet's own lat/lon, which survives even a decrypt or decode failure.
func finishRecord(rec *xtocstore.Record, templateID int, payload xtoctemplate.Payload, bp BackupPacket) {
	geom := deriveGeometry(templateID, payload, bp.Lat, bp.Lon)
	if geom != nil {
		rec.HasGeo = true
		rec.Features = []xtocstore.Feature{*geom}
	}

	switch {
	case bp.Summary != "":
		rec.Summary = bp.Summary
	case payload != nil && geom != nil:
		rec.Summary = fmt.Sprintf("%s %s", geom.Type, summaryLabel(payload))
	case payload != nil:
		rec.Summary = summaryLabel(payload)
	case rec.DecodeError != "":
		rec.Summary = fmt.Sprintf("template %d (decode failed)", templateID)
	default:
		rec.Summary = fmt.Sprintf("template %d", templateID)
	}
}

func summaryLabel(payload xtoctemplate.Payload) string {
	return fmt.Sprintf("template %d", int(payload.TemplateID()))
}
