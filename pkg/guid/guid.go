/*
Copyright © 2022 - 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package guid implements the mixed-endian GUID layout GPT stores on disk.
//
// The first three fields of an RFC4122 UUID are stored little-endian while
// the clock sequence and node keep their network byte order.
package guid

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Size of a GUID in bytes
const Size = 16

// GUID is a 128 bit identifier in the on-disk GPT layout
type GUID struct {
	TimeLow               uint32
	TimeMid               [2]byte
	TimeHighAndVersion    [2]byte
	ClockSeqHiAndReserved uint8
	ClockSeqLow           uint8
	Node                  [6]byte
}

// FromBytes maps 16 on-disk bytes to a GUID
func FromBytes(b [Size]byte) GUID {
	g := GUID{
		TimeLow:               binary.LittleEndian.Uint32(b[0:4]),
		ClockSeqHiAndReserved: b[8],
		ClockSeqLow:           b[9],
	}
	copy(g.TimeMid[:], b[4:6])
	copy(g.TimeHighAndVersion[:], b[6:8])
	copy(g.Node[:], b[10:16])
	return g
}

// Bytes returns the 16 byte on-disk representation
func (g GUID) Bytes() [Size]byte {
	var b [Size]byte
	binary.LittleEndian.PutUint32(b[0:4], g.TimeLow)
	copy(b[4:6], g.TimeMid[:])
	copy(b[6:8], g.TimeHighAndVersion[:])
	b[8] = g.ClockSeqHiAndReserved
	b[9] = g.ClockSeqLow
	copy(b[10:16], g.Node[:])
	return b
}

// NewV4 returns a random version 4 GUID
func NewV4() GUID {
	u := uuid.New()
	return randomToV4(u)
}

// NewV4FromReader returns a version 4 GUID using r as the source of randomness
func NewV4FromReader(r io.Reader) (GUID, error) {
	u, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return GUID{}, err
	}
	return randomToV4(u), nil
}

// randomToV4 lays a random UUID in GPT order and makes sure the version and
// variant bits sit where GPT readers expect them
func randomToV4(u uuid.UUID) GUID {
	g := FromUUID(u)
	g.ClockSeqHiAndReserved = (g.ClockSeqHiAndReserved & 0x3F) | 0x80
	g.TimeHighAndVersion[1] = (g.TimeHighAndVersion[1] & 0x0F) | 0x40
	return g
}

// Parse reads the canonical textual form, e.g. C12A7328-F81F-11D2-BA4B-00A0C93EC93B
func Parse(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, fmt.Errorf("invalid GUID '%s': %w", s, err)
	}
	return FromUUID(u), nil
}

// MustParse is like Parse but panics on invalid input. Meant for package level tables.
func MustParse(s string) GUID {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}

// FromUUID converts a network byte order UUID to the GPT layout
func FromUUID(u uuid.UUID) GUID {
	g := GUID{
		TimeLow:               binary.BigEndian.Uint32(u[0:4]),
		TimeMid:               [2]byte{u[5], u[4]},
		TimeHighAndVersion:    [2]byte{u[7], u[6]},
		ClockSeqHiAndReserved: u[8],
		ClockSeqLow:           u[9],
	}
	copy(g.Node[:], u[10:16])
	return g
}

// UUID returns the network byte order form of the GUID
func (g GUID) UUID() uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint32(u[0:4], g.TimeLow)
	u[4], u[5] = g.TimeMid[1], g.TimeMid[0]
	u[6], u[7] = g.TimeHighAndVersion[1], g.TimeHighAndVersion[0]
	u[8] = g.ClockSeqHiAndReserved
	u[9] = g.ClockSeqLow
	copy(u[10:16], g.Node[:])
	return u
}

// String returns the canonical upper case textual form
func (g GUID) String() string {
	b := g.Bytes()
	return fmt.Sprintf("%08X-%04X-%04X-%02X%02X-%012X",
		g.TimeLow,
		binary.LittleEndian.Uint16(b[4:6]),
		binary.LittleEndian.Uint16(b[6:8]),
		b[8], b[9],
		b[10:16],
	)
}

// IsZero reports whether all the GUID bytes are zero, the marker of an unused GPT entry
func (g GUID) IsZero() bool {
	return g == GUID{}
}

// Version returns the version number stored in the high nibble of TimeHighAndVersion
func (g GUID) Version() int {
	return int(g.TimeHighAndVersion[1] >> 4)
}

// IsRFC4122Variant reports whether the two top bits of the clock sequence are 10
func (g GUID) IsRFC4122Variant() bool {
	return g.ClockSeqHiAndReserved&0xC0 == 0x80
}
