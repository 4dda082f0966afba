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

const sentinelVersion1 = 1

const (
	sentinelFlagIO = 1 << iota
	sentinelFlagLabel
	sentinelFlagAlert
)

// SentinelSensorMax is the most sensor readings a SENTINEL frame carries.
const SentinelSensorMax = 32

// SentinelLabelCap is the maximum byte length of a SENTINEL label.
const SentinelLabelCap = 32

// SentinelReading is one fixed-point sensor value tagged with a type code.
type SentinelReading struct {
	TypeCode uint8
	Value    int16
}

// Sentinel is an unattended ground sensor's periodic report.
type Sentinel struct {
	AtMs     int64
	Loc      Location
	NodeID   uint32
	InMask   uint8 // valid only when IO fields are present
	OutMask  uint8
	HasIO    bool
	Label    string
	Alert    bool
	Readings []SentinelReading
}

func (s *Sentinel) TemplateID() ID { return SENTINEL }

func (s *Sentinel) Encode() ([]byte, error) {
	readings := s.Readings
	if len(readings) > SentinelSensorMax {
		readings = readings[:SentinelSensorMax]
	}

	w := xtoccore.NewWriter(32 + 3*len(readings))
	w.WriteU8(sentinelVersion1)
	w.WriteU8(uint8(len(readings)))
	w.WriteUnixMinutes(s.AtMs)
	w.WriteCoord(s.Loc.Lat)
	w.WriteCoord(s.Loc.Lon)
	w.WriteU32(s.NodeID)

	var flags byte
	if s.HasIO {
		flags |= sentinelFlagIO
	}
	if s.Label != "" {
		flags |= sentinelFlagLabel
	}
	if s.Alert {
		flags |= sentinelFlagAlert
	}
	w.WriteU8(flags)

	if s.HasIO {
		w.WriteU8(s.InMask)
		w.WriteU8(s.OutMask)
	}
	if s.Label != "" {
		w.WriteString8(s.Label, SentinelLabelCap)
	}
	for _, rd := range readings {
		w.WriteU8(rd.TypeCode)
		w.WriteI16(rd.Value)
	}
	return w.Bytes(), nil
}

func DecodeSentinel(data []byte) (*Sentinel, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(SENTINEL, "version")
	}
	if ver != sentinelVersion1 {
		return nil, wrapUnsupportedVersion(SENTINEL, ver)
	}
	s := &Sentinel{}
	count, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, SENTINEL, "sensorCount")
	}
	if count > SentinelSensorMax {
		return nil, wrapInvalid(SENTINEL, "sensorCount", "more than 32 sensors")
	}
	if s.AtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, SENTINEL, "t")
	}
	lat, err := r.ReadCoord()
	if err != nil {
		return nil, asTruncated(err, SENTINEL, "lat")
	}
	lon, err := r.ReadCoord()
	if err != nil {
		return nil, asTruncated(err, SENTINEL, "lon")
	}
	s.Loc = Location{Lat: lat, Lon: lon}
	if s.NodeID, err = r.ReadU32(); err != nil {
		return nil, asTruncated(err, SENTINEL, "nodeId")
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, SENTINEL, "flags")
	}

	s.HasIO = hasBit(flags, sentinelFlagIO)
	if s.HasIO {
		if s.InMask, err = r.ReadU8(); err != nil {
			return nil, asTruncated(err, SENTINEL, "inMask")
		}
		if s.OutMask, err = r.ReadU8(); err != nil {
			return nil, asTruncated(err, SENTINEL, "outMask")
		}
	}
	if hasBit(flags, sentinelFlagLabel) {
		if s.Label, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, SENTINEL, "label")
		}
	}
	s.Alert = hasBit(flags, sentinelFlagAlert)

	s.Readings = make([]SentinelReading, 0, count)
	for i := 0; i < int(count); i++ {
		typeCode, err := r.ReadU8()
		if err != nil {
			return nil, asTruncated(err, SENTINEL, "readings")
		}
		value, err := r.ReadI16()
		if err != nil {
			return nil, asTruncated(err, SENTINEL, "readings")
		}
		s.Readings = append(s.Readings, SentinelReading{TypeCode: typeCode, Value: value})
	}
	return s, nil
}
