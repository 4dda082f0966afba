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

package xtoctemplate

import "github.com/wavelink-radio/xtoc-core/xtoccore"

const phaselineVersion1 = 1

const (
	phaselineFlagLabel = 1 << iota
	phaselineFlagInstruction
	phaselineFlagStartAt
	phaselineFlagEndAt
	phaselineFlagSrcIDs
	phaselineFlagAutoDetectCross
)

// PhaseLine id/label/instruction caps and vertex bounds.
const (
	PhaseLineIDCap          = 32
	PhaseLineLabelCap       = 48
	PhaseLineInstructionCap = 160
	PhaseLinePointMin       = 2
	PhaseLinePointMax       = 32
)

// PhaseLine is a named polyline boundary units report crossing.
type PhaseLine struct {
	Src             uint16
	Status          uint8
	Kind            uint8
	Style           uint8
	Color           uint8
	UpdatedAtMs     int64
	CreatedAtMs     int64
	ID              string
	Points          []Location // first is the line's start, last its end
	Label           string
	Instruction     string
	StartAtMs       int64 // 0 when absent
	EndAtMs         int64 // 0 when absent
	SrcIDs          []uint16
	AutoDetectCross bool
}

func (p *PhaseLine) TemplateID() ID { return PHASELINE }

func (p *PhaseLine) Encode() ([]byte, error) {
	w := xtoccore.NewWriter(48)
	w.WriteU8(phaselineVersion1)
	w.WriteU16(p.Src)
	w.WriteU8(p.Status)
	w.WriteU8(p.Kind)
	w.WriteU8(p.Style)
	w.WriteU8(p.Color)

	var flags byte
	if p.Label != "" {
		flags |= phaselineFlagLabel
	}
	if p.Instruction != "" {
		flags |= phaselineFlagInstruction
	}
	if p.StartAtMs != 0 {
		flags |= phaselineFlagStartAt
	}
	if p.EndAtMs != 0 {
		flags |= phaselineFlagEndAt
	}
	extra := extraOf(p.SrcIDs, p.Src)
	if len(extra) > 0 {
		flags |= phaselineFlagSrcIDs
	}
	if p.AutoDetectCross {
		flags |= phaselineFlagAutoDetectCross
	}
	w.WriteU8(flags)

	w.WriteUnixMinutes(p.UpdatedAtMs)
	w.WriteUnixMinutes(p.CreatedAtMs)
	w.WriteString8(p.ID, PhaseLineIDCap)

	points := p.Points
	if len(points) > PhaseLinePointMax {
		points = points[:PhaseLinePointMax]
	}
	w.WriteU8(uint8(len(points)))
	for _, pt := range points {
		w.WriteCoord(pt.Lat)
		w.WriteCoord(pt.Lon)
	}

	if p.Label != "" {
		w.WriteString8(p.Label, PhaseLineLabelCap)
	}
	if p.Instruction != "" {
		w.WriteString8(p.Instruction, PhaseLineInstructionCap)
	}
	if p.StartAtMs != 0 {
		w.WriteUnixMinutes(p.StartAtMs)
	}
	if p.EndAtMs != 0 {
		w.WriteUnixMinutes(p.EndAtMs)
	}
	if len(extra) > 0 {
		writeExtraSrcIDs(w, extra)
	}
	return w.Bytes(), nil
}

func DecodePhaseLine(data []byte) (*PhaseLine, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(PHASELINE, "version")
	}
	if ver != phaselineVersion1 {
		return nil, wrapUnsupportedVersion(PHASELINE, ver)
	}
	p := &PhaseLine{}
	if p.Src, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, PHASELINE, "src")
	}
	if p.Status, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, PHASELINE, "status")
	}
	if p.Kind, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, PHASELINE, "kind")
	}
	if p.Style, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, PHASELINE, "style")
	}
	if p.Color, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, PHASELINE, "color")
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, PHASELINE, "flags")
	}
	if p.UpdatedAtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, PHASELINE, "updatedAt")
	}
	if p.CreatedAtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, PHASELINE, "createdAt")
	}
	if p.ID, err = r.ReadString8(); err != nil {
		return nil, asTruncated(err, PHASELINE, "id")
	}

	count, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, PHASELINE, "pointCount")
	}
	if int(count) < PhaseLinePointMin {
		return nil, wrapInvalid(PHASELINE, "pointCount", "fewer than 2 vertices")
	}
	if int(count) > PhaseLinePointMax {
		return nil, wrapInvalid(PHASELINE, "pointCount", "more than 32 vertices")
	}
	p.Points = make([]Location, 0, count)
	for i := 0; i < int(count); i++ {
		lat, err := r.ReadCoord()
		if err != nil {
			return nil, asTruncated(err, PHASELINE, "points")
		}
		lon, err := r.ReadCoord()
		if err != nil {
			return nil, asTruncated(err, PHASELINE, "points")
		}
		p.Points = append(p.Points, Location{Lat: lat, Lon: lon})
	}

	if hasBit(flags, phaselineFlagLabel) {
		if p.Label, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, PHASELINE, "label")
		}
	}
	if hasBit(flags, phaselineFlagInstruction) {
		if p.Instruction, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, PHASELINE, "instruction")
		}
	}
	if hasBit(flags, phaselineFlagStartAt) {
		if p.StartAtMs, err = r.ReadUnixMinutes(); err != nil {
			return nil, asTruncated(err, PHASELINE, "startAt")
		}
	}
	if hasBit(flags, phaselineFlagEndAt) {
		if p.EndAtMs, err = r.ReadUnixMinutes(); err != nil {
			return nil, asTruncated(err, PHASELINE, "endAt")
		}
	}
	var extra []uint16
	if hasBit(flags, phaselineFlagSrcIDs) {
		if extra, err = readExtraSrcIDs(r, PHASELINE); err != nil {
			return nil, err
		}
	}
	p.SrcIDs = dedupSrcIDs(p.Src, extra)
	p.AutoDetectCross = hasBit(flags, phaselineFlagAutoDetectCross)
	return p, nil
}
