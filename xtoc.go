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

// Package xtoc is the top-level facade over the XTOC wire format: it
// combines the wrapper grammar, the eleven template codecs, and the
// AEAD layer into one Encode/Decode entry point, the way Secoap combines
// its per-version coders behind a single Marshal/Unmarshal pair.
package xtoc

import (
	"fmt"

	"github.com/wavelink-radio/xtoc-core/xtoccore"
	"github.com/wavelink-radio/xtoc-core/xtoccrypto"
	"github.com/wavelink-radio/xtoc-core/xtoctemplate"
)

// Decoded is the result of decoding a single wrapper segment.
type Decoded struct {
	TemplateID xtoctemplate.ID
	Mode       xtoccore.Mode
	ID         string
	Part       int
	Total      int
	Kid        int
	Payload    xtoctemplate.Payload
}

// Codec binds a keyring to the wrapper+template+AEAD pipeline.
type Codec struct {
	Keyring xtoccrypto.Keyring
}

// EncodeClear renders payload as a CLEAR wrapper.
func EncodeClear(id string, part, total int, payload xtoctemplate.Payload) (string, error) {
	raw, err := payload.Encode()
	if err != nil {
		return "", err
	}
	return xtoccore.BuildWrapper(&xtoccore.Wrapper{
		TemplateID: int(payload.TemplateID()),
		Mode:       xtoccore.ModeClear,
		ID:         id,
		Part:       part,
		Total:      total,
		Payload:    xtoccore.EncodeBase64URL(raw),
	}), nil
}

// EncodeSecure seals payload under the codec's active key and renders it
// as a SECURE wrapper.
func (c *Codec) EncodeSecure(ver xtoccrypto.SecureVersion, id string, part, total int, payload xtoctemplate.Payload) (string, error) {
	raw, err := payload.Encode()
	if err != nil {
		return "", err
	}
	aad := xtoccrypto.AAD{
		TemplateID: int(payload.TemplateID()),
		Mode:       xtoccore.ModeSecure,
		ID:         id,
		Part:       part,
		Total:      total,
	}
	kid, block, err := xtoccrypto.Seal(c.Keyring, ver, aad, raw)
	if err != nil {
		return "", err
	}
	return xtoccore.BuildWrapper(&xtoccore.Wrapper{
		TemplateID: int(payload.TemplateID()),
		Mode:       xtoccore.ModeSecure,
		ID:         id,
		Part:       part,
		Total:      total,
		Kid:        kid,
		Payload:    xtoccore.EncodeBase64URL(block),
	}), nil
}

// Decode parses envelope, decrypting it first if it is SECURE, then
// dispatches to the matching template decoder.
func (c *Codec) Decode(envelope string) (*Decoded, error) {
	w := xtoccore.ParseWrapper(envelope)
	if w == nil {
		return nil, xtoccore.ErrInvalidEnvelope
	}

	var raw []byte
	switch w.Mode {
	case xtoccore.ModeClear:
		decoded, err := xtoccore.DecodeBase64URL(w.Payload)
		if err != nil {
			return nil, err
		}
		raw = decoded
	case xtoccore.ModeSecure:
		if c.Keyring == nil {
			return nil, xtoccore.ErrNoKeyForKid
		}
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
		plain, err := xtoccrypto.Open(c.Keyring, w.Kid, aad, ciphertext)
		if err != nil {
			return nil, err
		}
		raw = plain
	}

	payload, err := xtoctemplate.Decode(xtoctemplate.ID(w.TemplateID), raw)
	if err != nil {
		return nil, err
	}
	return &Decoded{
		TemplateID: xtoctemplate.ID(w.TemplateID),
		Mode:       w.Mode,
		ID:         w.ID,
		Part:       w.Part,
		Total:      w.Total,
		Kid:        w.Kid,
		Payload:    payload,
	}, nil
}

// RoundTrip is a self-test helper: it encodes payload as CLEAR, decodes
// the result, and confirms the decoded template id matches. It exists so
// a CLI smoke test or a startup health check can prove the codec chain
// is wired correctly without a real packet in hand.
func RoundTrip(payload xtoctemplate.Payload) error {
	envelope, err := EncodeClear("SELFTEST", 1, 1, payload)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	c := &Codec{}
	decoded, err := c.Decode(envelope)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if decoded.TemplateID != payload.TemplateID() {
		return fmt.Errorf("round trip template mismatch: got %d, want %d", decoded.TemplateID, payload.TemplateID())
	}
	return nil
}
