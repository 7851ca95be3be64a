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

package gpt

import (
	"encoding/binary"

	"github.com/rancher-sandbox/bob/pkg/constants"
	"github.com/rancher-sandbox/bob/pkg/guid"
)

// Header is a GPT header, either the primary one at LBA 1 or the backup at the last LBA
type Header struct {
	Signature                [8]byte
	Revision                 uint32
	HeaderSize               uint32
	HeaderCRC32              uint32
	Reserved                 uint32
	MyLBA                    uint64
	AlternateLBA             uint64
	FirstUsableLBA           uint64
	LastUsableLBA            uint64
	DiskGUID                 guid.GUID
	PartitionEntryLBA        uint64
	NumPartitionEntries      uint32
	PartitionEntrySize       uint32
	PartitionEntryArrayCRC32 uint32
}

// NewPrimaryHeader returns the primary header of a disk with totalBlocks blocks
// whose entry array checksums to arrayCRC. The header CRC is already set.
func NewPrimaryHeader(totalBlocks uint64, disk guid.GUID, arrayCRC uint32) *Header {
	h := &Header{
		Revision:                 constants.GPTRevision,
		HeaderSize:               constants.GPTHeaderSize,
		MyLBA:                    constants.PrimaryHeaderLBA,
		AlternateLBA:             BackupHeaderLBA(totalBlocks),
		FirstUsableLBA:           constants.ReservedFrontBlocks,
		LastUsableLBA:            LastUsableLBA(totalBlocks),
		DiskGUID:                 disk,
		PartitionEntryLBA:        constants.PrimaryEntryLBA,
		NumPartitionEntries:      constants.GPTEntryCount,
		PartitionEntrySize:       constants.GPTEntrySize,
		PartitionEntryArrayCRC32: arrayCRC,
	}
	copy(h.Signature[:], constants.GPTSignature)
	h.UpdateCRC()
	return h
}

// Backup returns the backup counterpart of a primary header. Its CRC is
// computed again for its own fields.
func (h *Header) Backup() *Header {
	b := *h
	b.MyLBA, b.AlternateLBA = h.AlternateLBA, h.MyLBA
	b.PartitionEntryLBA = h.AlternateLBA - constants.ReservedBackBlocks + 1
	b.UpdateCRC()
	return &b
}

// UpdateCRC computes the header CRC32 with the CRC field zeroed and stores it
func (h *Header) UpdateCRC() {
	h.HeaderCRC32 = CRC32(h.serialize(0))
}

// ValidCRC reports whether the stored header CRC32 matches the header fields
func (h *Header) ValidCRC() bool {
	return h.HeaderCRC32 == CRC32(h.serialize(0))
}

// Bytes returns the header padded with zeros to a full logical block
func (h *Header) Bytes() []byte {
	b := make([]byte, constants.BlockSize)
	copy(b, h.serialize(h.HeaderCRC32))
	return b
}

func (h *Header) serialize(crc uint32) []byte {
	b := make([]byte, constants.GPTHeaderSize)
	copy(b[0:8], h.Signature[:])
	binary.LittleEndian.PutUint32(b[8:12], h.Revision)
	binary.LittleEndian.PutUint32(b[12:16], h.HeaderSize)
	binary.LittleEndian.PutUint32(b[16:20], crc)
	binary.LittleEndian.PutUint32(b[20:24], h.Reserved)
	binary.LittleEndian.PutUint64(b[24:32], h.MyLBA)
	binary.LittleEndian.PutUint64(b[32:40], h.AlternateLBA)
	binary.LittleEndian.PutUint64(b[40:48], h.FirstUsableLBA)
	binary.LittleEndian.PutUint64(b[48:56], h.LastUsableLBA)
	diskGUID := h.DiskGUID.Bytes()
	copy(b[56:72], diskGUID[:])
	binary.LittleEndian.PutUint64(b[72:80], h.PartitionEntryLBA)
	binary.LittleEndian.PutUint32(b[80:84], h.NumPartitionEntries)
	binary.LittleEndian.PutUint32(b[84:88], h.PartitionEntrySize)
	binary.LittleEndian.PutUint32(b[88:92], h.PartitionEntryArrayCRC32)
	return b
}

// LastUsableLBA is the last block partitions can use, right before the backup entry array
func LastUsableLBA(totalBlocks uint64) uint64 {
	return totalBlocks - constants.ReservedBackBlocks - 1
}

// BackupEntryLBA is where the backup entry array starts
func BackupEntryLBA(totalBlocks uint64) uint64 {
	return totalBlocks - constants.ReservedBackBlocks
}

// BackupHeaderLBA is the last block of the disk
func BackupHeaderLBA(totalBlocks uint64) uint64 {
	return totalBlocks - 1
}
