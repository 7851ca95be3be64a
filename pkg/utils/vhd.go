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

package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
)

// This file contains utils to work with fixed VHD disks, a raw disk followed by a 512 bytes footer

const (
	vhdFooterSize = 512
	// seconds between the unix epoch and 2000-01-01 00:00:00 UTC
	vhdEpoch = 946684800
)

// VHDFooter is the big-endian trailer of a VHD file
type VHDFooter struct {
	Cookie             [8]byte   // "conectix"
	Features           uint32    // 0x00000002, the reserved bit is always set
	FileFormatVersion  uint32    // 0x00010000
	DataOffset         uint64    // 0xFFFFFFFFFFFFFFFF for fixed disks
	Timestamp          uint32    // seconds since 2000-01-01 00:00:00 UTC
	CreatorApplication [4]byte   // tool that created the disk
	CreatorVersion     uint32    // major/minor version of the creator application
	CreatorHostOS      [4]byte   // host OS the disk was created on
	OriginalSize       uint64    // virtual disk size at creation time
	CurrentSize        uint64    // current virtual disk size
	DiskGeometry       [4]byte   // cylinders (2 bytes), heads, sectors per track
	DiskType           uint32    // fixed = 2, dynamic = 3, differencing = 4
	Checksum           uint32    // one's complement of the byte sum of the footer without this field
	UniqueID           uuid.UUID // identifies the disk
	SavedState         uint8     // 1 if the VM was in saved state
	Reserved           [427]byte // zeroes
}

// NewFixedVHDFooter returns the footer of a fixed VHD of size bytes
func NewFixedVHDFooter(size uint64, created time.Time, id uuid.UUID) VHDFooter {
	footer := VHDFooter{
		Features:          0x00000002,
		FileFormatVersion: 0x00010000,
		DataOffset:        0xFFFFFFFFFFFFFFFF,
		Timestamp:         uint32(created.Unix() - vhdEpoch),
		CreatorVersion:    0x00010000,
		OriginalSize:      size,
		CurrentSize:       size,
		DiskType:          2,
		UniqueID:          id,
	}
	copy(footer.Cookie[:], "conectix")
	copy(footer.CreatorApplication[:], "bob ")
	copy(footer.CreatorHostOS[:], "suse")

	geometry := chsCalculation(size / 512)
	binary.BigEndian.PutUint16(footer.DiskGeometry[:2], uint16(geometry.cylinders))
	footer.DiskGeometry[2] = uint8(geometry.heads)
	footer.DiskGeometry[3] = uint8(geometry.sectorsPerTrack)

	footer.Checksum = footer.computeChecksum()
	return footer
}

// Bytes serializes the footer to its 512 big-endian bytes
func (f VHDFooter) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, vhdFooterSize))
	_ = binary.Write(buf, binary.BigEndian, f)
	return buf.Bytes()
}

// ValidChecksum reports whether the stored checksum matches the footer content
func (f VHDFooter) ValidChecksum() bool {
	return f.Checksum == f.computeChecksum()
}

func (f VHDFooter) computeChecksum() uint32 {
	f.Checksum = 0
	var sum uint32
	for _, b := range f.Bytes() {
		sum += uint32(b)
	}
	return ^sum
}

// ReadVHDFooter reads the footer from the last 512 bytes of r
func ReadVHDFooter(r io.ReadSeeker) (VHDFooter, error) {
	footer := VHDFooter{}
	if _, err := r.Seek(-vhdFooterSize, io.SeekEnd); err != nil {
		return footer, err
	}
	err := binary.Read(r, binary.BigEndian, &footer)
	return footer, err
}

// chs represents the cylinders/heads/sectors for a given sector count
type chs struct {
	cylinders       uint64
	heads           uint64
	sectorsPerTrack uint64
}

// chsCalculation implements the geometry algorithm of the VHD format specification
func chsCalculation(totalSectors uint64) chs {
	var sectorsPerTrack, heads, cylinderTimesHeads uint64

	if totalSectors > 65535*16*255 {
		totalSectors = 65535 * 16 * 255
	}

	if totalSectors >= 65535*16*63 {
		sectorsPerTrack = 255
		heads = 16
		cylinderTimesHeads = totalSectors / sectorsPerTrack
	} else {
		sectorsPerTrack = 17
		cylinderTimesHeads = totalSectors / sectorsPerTrack
		heads = (cylinderTimesHeads + 1023) / 1024
		if heads < 4 {
			heads = 4
		}
		if cylinderTimesHeads >= heads*1024 || heads > 16 {
			sectorsPerTrack = 31
			heads = 16
			cylinderTimesHeads = totalSectors / sectorsPerTrack
		}
		if cylinderTimesHeads >= heads*1024 {
			sectorsPerTrack = 63
			heads = 16
			cylinderTimesHeads = totalSectors / sectorsPerTrack
		}
	}

	return chs{
		cylinders:       cylinderTimesHeads / heads,
		heads:           heads,
		sectorsPerTrack: sectorsPerTrack,
	}
}

// AppendFixedVHDFooter turns a raw disk into a fixed VHD by appending the footer.
// The raw content is left untouched. It makes no effort into opening or closing the file.
func AppendFixedVHDFooter(diskFile *os.File) error {
	info, err := diskFile.Stat()
	if err != nil {
		return err
	}
	size := uint64(info.Size())
	if size%512 != 0 {
		return fmt.Errorf("disk size %d is not a multiple of 512 bytes", size)
	}
	footer := NewFixedVHDFooter(size, time.Now(), uuid.New())
	_, err = diskFile.WriteAt(footer.Bytes(), info.Size())
	return err
}
