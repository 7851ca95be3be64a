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
	"fmt"
	"io"

	bobErr "github.com/rancher-sandbox/bob/pkg/error"
)

// Partition is what filesystem formatters get to write a partition's content.
// Positions are relative to the partition start.
type Partition interface {
	io.Writer
	io.Seeker
	PartitionType() PartitionType
	Name() string
	Size() uint64
}

// PartitionView restricts writes to the byte range of a single partition.
// It does not own the underlying file.
type PartitionView struct {
	entry  *PartitionEntry
	cursor int64
	file   io.WriteSeeker
}

var _ Partition = (*PartitionView)(nil)

func newPartitionView(entry *PartitionEntry, file io.WriteSeeker) *PartitionView {
	return &PartitionView{entry: entry, file: file}
}

func (p *PartitionView) PartitionType() PartitionType {
	return p.entry.Type
}

func (p *PartitionView) Name() string {
	return p.entry.Name
}

// Size is the partition size in bytes
func (p *PartitionView) Size() uint64 {
	return p.entry.SizeInBytes()
}

// Write writes buf at the cursor. Nothing is written if buf does not fit
// before the partition end.
func (p *PartitionView) Write(buf []byte) (int, error) {
	if remaining := int64(p.Size()) - p.cursor; int64(len(buf)) > remaining {
		return 0, bobErr.New(
			fmt.Sprintf("writing %d bytes at offset %d overflows partition '%s' of %d bytes", len(buf), p.cursor, p.Name(), p.Size()),
			bobErr.PartitionBoundsExceeded,
		)
	}
	// other views may have moved the shared file position
	want := int64(p.entry.StartByte()) + p.cursor
	pos, err := p.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, bobErr.NewFromError(err, bobErr.IOFailure)
	}
	if pos != want {
		if _, err = p.file.Seek(want, io.SeekStart); err != nil {
			return 0, bobErr.NewFromError(err, bobErr.IOFailure)
		}
	}
	n, err := p.file.Write(buf)
	p.cursor += int64(n)
	if err != nil {
		return n, bobErr.NewFromError(err, bobErr.IOFailure)
	}
	return n, nil
}

// Seek moves the cursor, clamped to the partition bounds, and returns the new
// position relative to the partition start
func (p *PartitionView) Seek(offset int64, whence int) (int64, error) {
	size := int64(p.Size())
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = p.cursor + offset
	case io.SeekEnd:
		target = size + offset
	default:
		return p.cursor, bobErr.New(fmt.Sprintf("invalid whence %d", whence), bobErr.PartitionBoundsExceeded)
	}
	if target < 0 {
		target = 0
	}
	if target > size {
		target = size
	}
	if _, err := p.file.Seek(int64(p.entry.StartByte())+target, io.SeekStart); err != nil {
		return p.cursor, bobErr.NewFromError(err, bobErr.IOFailure)
	}
	p.cursor = target
	return target, nil
}
