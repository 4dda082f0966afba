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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum16StableAndSensitiveToTamper(t *testing.T) {
	data := []byte("a sitrep payload")
	a := Checksum16(data)
	b := Checksum16(data)
	require.Equal(t, a, b)

	tampered := append([]byte(nil), data...)
	tampered[0] ^= 0xFF
	require.NotEqual(t, a, Checksum16(tampered))
}
