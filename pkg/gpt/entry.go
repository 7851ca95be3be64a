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
	"fmt"

	efi "github.com/canonical/go-efilib"

	"github.com/rancher-sandbox/bob/pkg/constants"
	bobErr "github.com/rancher-sandbox/bob/pkg/error"
	"github.com/rancher-sandbox/bob/pkg/guid"
)

// PartitionEntry is a single slot of the GPT partition entry array
type PartitionEntry struct {
	Type        PartitionType
	TypeGUID    guid.GUID
	UniqueGUID  guid.GUID
	StartingLBA uint64
	EndingLBA   uint64
	Attributes  uint64
	Name        string
}

// NewPartitionEntry derives the entry for spec. unique is the partition's own GUID,
// a fresh v4 one is expected. The name defaults to the type name.
func NewPartitionEntry(spec PartitionSpec, unique guid.GUID) (*PartitionEntry, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	name := spec.Name
	if name == "" {
		name = spec.Type.String()
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &PartitionEntry{
		Type:        spec.Type,
		TypeGUID:    spec.Type.GUID(),
		UniqueGUID:  unique,
		StartingLBA: spec.StartOffset / constants.BlockSize,
		EndingLBA:   spec.EndOffset / constants.BlockSize,
		Name:        name,
	}, nil
}

func validateName(name string) error {
	if size := len(efi.ConvertUTF8ToUTF16(name)) * 2; size > constants.GPTEntryNameBytes {
		return bobErr.New(
			fmt.Sprintf("partition name '%s' takes %d bytes as UTF-16LE, the limit is %d", name, size, constants.GPTEntryNameBytes),
			bobErr.PartitionNameTooLong,
		)
	}
	return nil
}

// Bytes serializes the entry to its 128 on-disk bytes
func (e *PartitionEntry) Bytes() [constants.GPTEntrySize]byte {
	var b [constants.GPTEntrySize]byte
	typeGUID := e.TypeGUID.Bytes()
	uniqueGUID := e.UniqueGUID.Bytes()
	copy(b[0:16], typeGUID[:])
	copy(b[16:32], uniqueGUID[:])
	binary.LittleEndian.PutUint64(b[32:40], e.StartingLBA)
	binary.LittleEndian.PutUint64(b[40:48], e.EndingLBA)
	binary.LittleEndian.PutUint64(b[48:56], e.Attributes)
	for i, u := range efi.ConvertUTF8ToUTF16(e.Name) {
		if 56+2*i+2 > constants.GPTEntrySize {
			break
		}
		binary.LittleEndian.PutUint16(b[56+2*i:], u)
	}
	return b
}

// UpdateCRC feeds the serialized entry into a running CRC32 of the entry array
func (e *PartitionEntry) UpdateCRC(crc uint32) uint32 {
	b := e.Bytes()
	return UpdateCRC32(crc, b[:])
}

// StartByte is the offset of the first byte of the partition
func (e *PartitionEntry) StartByte() uint64 {
	return e.StartingLBA * constants.BlockSize
}

// EndByte is the offset right after the last byte of the partition
func (e *PartitionEntry) EndByte() uint64 {
	return (e.EndingLBA + 1) * constants.BlockSize
}

// SizeInBytes is the partition size, the ending LBA being inclusive
func (e *PartitionEntry) SizeInBytes() uint64 {
	return e.EndByte() - e.StartByte()
}

func (e *PartitionEntry) overlaps(o *PartitionEntry) bool {
	return e.StartingLBA <= o.EndingLBA && o.StartingLBA <= e.EndingLBA
}

// EntryArray is the full partition entry array, unused slots are zeroed
type EntryArray []*PartitionEntry

// Bytes serializes all the slots of the array, used or not
func (a EntryArray) Bytes() []byte {
	b := make([]byte, constants.GPTEntryCount*constants.GPTEntrySize)
	for i, e := range a {
		if i >= constants.GPTEntryCount {
			break
		}
		eb := e.Bytes()
		copy(b[i*constants.GPTEntrySize:], eb[:])
	}
	return b
}

// CRC32 computes the checksum of the whole serialized array, empty slots included
func (a EntryArray) CRC32() uint32 {
	var crc uint32
	empty := make([]byte, constants.GPTEntrySize)
	for i := 0; i < constants.GPTEntryCount; i++ {
		if i < len(a) {
			crc = a[i].UpdateCRC(crc)
		} else {
			crc = UpdateCRC32(crc, empty)
		}
	}
	return crc
}
