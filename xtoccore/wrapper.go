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
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
)

// Mode is the wrapper's CLEAR/SECURE discriminator.
type Mode byte

const (
	ModeClear  Mode = 'C'
	ModeSecure Mode = 'S'
)

func (m Mode) String() string {
	switch m {
	case ModeClear:
		return "C"
	case ModeSecure:
		return "S"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// WrapperVersion is the only textual version tag the grammar accepts.
const WrapperVersion = "X1"

// packetIDAlphabet is a 32-character Crockford-style alphabet with the
// visually ambiguous I, L, O, U removed.
const packetIDAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// Wrapper is the parsed X1.* textual envelope.
type Wrapper struct {
	TemplateID int
	Mode       Mode
	ID         string
	Part       int
	Total      int
	Kid        int // 0 when Mode == ModeClear
	Payload    string
}

// ParseWrapper parses the X1.* textual envelope. It returns nil, rather
// than an error, on any structural problem: wrong version token, too few
// segments, a non-numeric templateId/part/total/kid, or an unknown mode.
// The payload is reassembled from every segment past the required
// prefix, since an embedded payload format may itself contain '.'.
func ParseWrapper(text string) *Wrapper {
	segs := strings.Split(text, ".")
	if len(segs) < 6 || segs[0] != WrapperVersion {
		return nil
	}

	templateID, err := strconv.Atoi(segs[1])
	if err != nil {
		return nil
	}

	var mode Mode
	switch segs[2] {
	case "C":
		mode = ModeClear
	case "S":
		mode = ModeSecure
	default:
		return nil
	}

	id := segs[3]

	partTotal := strings.SplitN(segs[4], "/", 2)
	if len(partTotal) != 2 {
		return nil
	}
	part, err := strconv.Atoi(partTotal[0])
	if err != nil || part < 1 {
		return nil
	}
	total, err := strconv.Atoi(partTotal[1])
	if err != nil || total < part {
		return nil
	}

	w := &Wrapper{
		TemplateID: templateID,
		Mode:       mode,
		ID:         id,
		Part:       part,
		Total:      total,
	}

	switch mode {
	case ModeClear:
		w.Payload = strings.Join(segs[5:], ".")
	case ModeSecure:
		if len(segs) < 7 {
			return nil
		}
		kid, err := strconv.Atoi(segs[5])
		if err != nil || kid <= 0 {
			return nil
		}
		w.Kid = kid
		w.Payload = strings.Join(segs[6:], ".")
	}

	if w.Payload == "" {
		return nil
	}

	return w
}

// BuildWrapper reconstructs the canonical textual form of a wrapper.
func BuildWrapper(w *Wrapper) string {
	base := fmt.Sprintf("%s.%d.%s.%s.%d/%d", WrapperVersion, w.TemplateID, w.Mode, w.ID, w.Part, w.Total)
	if w.Mode == ModeSecure {
		base = fmt.Sprintf("%s.%d", base, w.Kid)
	}
	return base + "." + w.Payload
}

// GeneratePacketId samples n cryptographically random characters from
// the fixed 32-character packet-id alphabet. n defaults to 8 when <= 0.
func GeneratePacketId(n int) (string, error) {
	if n <= 0 {
		n = 8
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = packetIDAlphabet[b&0x1f]
	}
	return string(out), nil
}
