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

// Package mbr writes the protective master boot record that precedes a GPT
package mbr

import (
	"encoding/binary"
	"io"

	"github.com/rancher-sandbox/bob/pkg/constants"
)

// CHS is a packed cylinder/head/sector address as stored in a partition record
type CHS [3]byte

// PartitionRecord is one of the four 16 byte MBR partition records
type PartitionRecord struct {
	BootIndicator uint8
	StartingCHS   CHS
	OSType        uint8
	EndingCHS     CHS
	StartingLBA   uint32
	SizeInLBA     uint32
}

// Record is the whole 512 bytes of LBA 0
type Record struct {
	BootCode      [constants.MBRBootCodeSize]byte
	DiskSignature uint32
	Unknown       uint16
	Partitions    [4]PartitionRecord
	Signature     [2]byte
}

// NewProtectiveMBR returns a record whose single 0xEE partition spans the whole disk
func NewProtectiveMBR(totalBlocks uint64) *Record {
	size := uint64(constants.MBRMaxLBA)
	if totalBlocks > 0 && totalBlocks-1 < size {
		size = totalBlocks - 1
	}
	var last uint64
	if totalBlocks > 0 {
		last = totalBlocks - 1
	}
	return &Record{
		Partitions: [4]PartitionRecord{{
			BootIndicator: 0,
			StartingCHS:   CHS{0x00, 0x02, 0x00},
			OSType:        constants.MBRProtectiveType,
			EndingCHS:     LBAToCHS(last),
			StartingLBA:   1,
			SizeInLBA:     uint32(size),
		}},
		Signature: [2]byte{constants.MBRBootSignature0, constants.MBRBootSignature1},
	}
}

// LBAToCHS converts an LBA to a CHS address on a 255 heads, 63 sectors per
// track geometry. Addresses beyond cylinder 1023 are saturated to FF FF FF.
func LBAToCHS(lba uint64) CHS {
	cylinder := lba / (constants.MBRHeads * constants.MBRSectorsPerTrack)
	if cylinder > constants.MBRMaxCylinder {
		return CHS{0xFF, 0xFF, 0xFF}
	}
	head := (lba / constants.MBRSectorsPerTrack) % constants.MBRHeads
	sector := lba%constants.MBRSectorsPerTrack + 1
	return CHS{
		byte(head),
		byte(sector) | byte((cylinder>>8)&0x03)<<6,
		byte(cylinder & 0xFF),
	}
}

// Bytes serializes the record to its 512 bytes
func (r *Record) Bytes() []byte {
	b := make([]byte, constants.MBRSize)
	copy(b, r.BootCode[:])
	binary.LittleEndian.PutUint32(b[constants.MBRBootCodeSize:], r.DiskSignature)
	binary.LittleEndian.PutUint16(b[constants.MBRBootCodeSize+4:], r.Unknown)
	for i, p := range r.Partitions {
		off := constants.MBRRecordsOffset + i*constants.MBRRecordSize
		b[off] = p.BootIndicator
		copy(b[off+1:off+4], p.StartingCHS[:])
		b[off+4] = p.OSType
		copy(b[off+5:off+8], p.EndingCHS[:])
		binary.LittleEndian.PutUint32(b[off+8:], p.StartingLBA)
		binary.LittleEndian.PutUint32(b[off+12:], p.SizeInLBA)
	}
	b[510] = r.Signature[0]
	b[511] = r.Signature[1]
	return b
}

// WriteTo writes the 512 serialized bytes to w
func (r *Record) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// WriteProtectiveMBR writes a protective MBR for a disk of totalBlocks blocks to w
func WriteProtectiveMBR(w io.Writer, totalBlocks uint64) error {
	_, err := NewProtectiveMBR(totalBlocks).WriteTo(w)
	return err
}
