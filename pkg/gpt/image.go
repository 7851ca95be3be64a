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
	"os"

	"github.com/rancher-sandbox/bob/pkg/constants"
	bobErr "github.com/rancher-sandbox/bob/pkg/error"
)

// GptImage is a built image. It owns the image file until Close is called.
type GptImage struct {
	path        string
	file        *os.File
	primary     *Header
	backup      *Header
	entries     EntryArray
	totalBlocks uint64
}

// Path returns the image file path
func (g *GptImage) Path() string {
	return g.path
}

// File returns the open image file
func (g *GptImage) File() *os.File {
	return g.file
}

// TotalBlocks returns the image size in logical blocks
func (g *GptImage) TotalBlocks() uint64 {
	return g.totalBlocks
}

// Size returns the addressable image size in bytes
func (g *GptImage) Size() uint64 {
	return g.totalBlocks * constants.BlockSize
}

func (g *GptImage) PrimaryHeader() *Header {
	return g.primary
}

func (g *GptImage) BackupHeader() *Header {
	return g.backup
}

// Partitions returns the used partition entries in table order
func (g *GptImage) Partitions() []*PartitionEntry {
	return append([]*PartitionEntry{}, g.entries...)
}

// PartitionView returns a bounded writer over the first partition named name
func (g *GptImage) PartitionView(name string) (*PartitionView, error) {
	for _, e := range g.entries {
		if e.Name == name {
			return newPartitionView(e, g.file), nil
		}
	}
	return nil, bobErr.New(fmt.Sprintf("no partition named '%s'", name), bobErr.NoSuchPartition)
}

// Close syncs and releases the image file
func (g *GptImage) Close() error {
	if g.file == nil {
		return nil
	}
	if err := g.file.Sync(); err != nil {
		_ = g.file.Close()
		g.file = nil
		return bobErr.NewFromError(err, bobErr.IOFailure)
	}
	err := g.file.Close()
	g.file = nil
	return bobErr.NewFromError(err, bobErr.IOFailure)
}
