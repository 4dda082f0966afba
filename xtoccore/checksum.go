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

import "github.com/GiterLab/crc16"

// Checksum16 computes the CRC16-MODBUS checksum of a decoded template's
// raw bytes. The wrapper's own integrity is carried by the AEAD tag on
// SECURE payloads or simply trusted on CLEAR ones, so nothing on the
// wire depends on this value; it exists for callers (template
// self-tests, a UI "verify packet" button) that want a cheap local
// corruption check independent of the wrapper's transport.
func Checksum16(data []byte) uint16 {
	table := crc16.MakeTable(crc16.CRC16_MODBUS)
	h := crc16.New(table)
	h.Write(data)
	return h.Sum16()
}
