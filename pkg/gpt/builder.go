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
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/docker/go-units"
	"github.com/hashicorp/go-multierror"
	"github.com/twpayne/go-vfs"

	"github.com/rancher-sandbox/bob/pkg/constants"
	bobErr "github.com/rancher-sandbox/bob/pkg/error"
	"github.com/rancher-sandbox/bob/pkg/guid"
	"github.com/rancher-sandbox/bob/pkg/mbr"
	v1 "github.com/rancher-sandbox/bob/pkg/types/v1"
	"github.com/rancher-sandbox/bob/pkg/utils"
)

// ImageConfig describes the image to build
type ImageConfig struct {
	Output     string
	Size       uint64
	Partitions []PartitionSpec
}

// Builder writes a protective MBR and both GPT tables to a new image file
type Builder struct {
	cfg        ImageConfig
	fs         v1.FS
	logger     v1.Logger
	clock      func() time.Time
	guidSource io.Reader
	built      bool
}

type BuilderOption func(b *Builder) error

func WithFs(fs v1.FS) BuilderOption {
	return func(b *Builder) error {
		b.fs = fs
		return nil
	}
}

func WithLogger(logger v1.Logger) BuilderOption {
	return func(b *Builder) error {
		b.logger = logger
		return nil
	}
}

// WithClock sets the time source used to derive the default output name
func WithClock(clock func() time.Time) BuilderOption {
	return func(b *Builder) error {
		b.clock = clock
		return nil
	}
}

// WithGUIDSource sets the randomness every disk and partition GUID is generated from
func WithGUIDSource(r io.Reader) BuilderOption {
	return func(b *Builder) error {
		b.guidSource = r
		return nil
	}
}

// NewBuilder validates cfg and returns a builder ready to run. All missing
// required settings are reported together as a MissingArgument error.
func NewBuilder(cfg ImageConfig, opts ...BuilderOption) (*Builder, error) {
	var errs error
	if cfg.Size == 0 {
		errs = multierror.Append(errs, errors.New("missing image size"))
	}
	if errs != nil {
		return nil, bobErr.NewFromError(errs, bobErr.MissingArgument)
	}

	b := &Builder{
		cfg:    cfg,
		fs:     vfs.OSFS,
		logger: v1.NewLogger(),
		clock:  time.Now,
	}
	for _, o := range opts {
		if err := o(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// OutputPath returns the configured output or a timestamped name when none was given
func (b *Builder) OutputPath() string {
	if b.cfg.Output != "" {
		return b.cfg.Output
	}
	return fmt.Sprintf("%s-%d.%s", constants.ImageNamePrefix, b.clock().Unix(), constants.ImageNameSuffix)
}

// Build writes the image. It can only run once per Builder. On failure the
// output file is removed.
func (b *Builder) Build() (img *GptImage, err error) {
	if b.built {
		return nil, bobErr.New("image already built", bobErr.AlreadyBuilt)
	}
	b.built = true

	totalBlocks := b.cfg.Size / constants.BlockSize
	if b.cfg.Size%constants.BlockSize != 0 {
		b.logger.Warnf("image size %d is not a multiple of %d, the trailing %d bytes are not addressable",
			b.cfg.Size, constants.BlockSize, b.cfg.Size%constants.BlockSize)
	}

	entries, err := b.deriveEntries()
	if err != nil {
		return nil, err
	}
	if totalBlocks >= constants.MinimumBlocks {
		if err = validateLayout(entries, totalBlocks); err != nil {
			return nil, err
		}
	}

	path := b.OutputPath()
	cleanup := utils.NewCleanStack()
	defer func() { err = cleanup.Cleanup(err) }()

	b.logger.Infof("Creating image %s of %s", path, units.BytesSize(float64(b.cfg.Size)))
	f, err := b.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, bobErr.NewFromError(err, bobErr.IOFailure)
	}
	cleanup.PushErrorOnly(func() error {
		_ = f.Close()
		return b.fs.Remove(path)
	})

	if err = f.Truncate(int64(b.cfg.Size)); err != nil {
		return nil, bobErr.NewFromError(err, bobErr.IOFailure)
	}

	if totalBlocks < constants.MinimumBlocks {
		return nil, bobErr.New(
			fmt.Sprintf("image of %d blocks can not hold a GPT, at least %d blocks (%d bytes) are required",
				totalBlocks, constants.MinimumBlocks, constants.MinimumBlocks*constants.BlockSize),
			bobErr.ImageTooSmall,
		)
	}

	b.logger.Debugf("Writing protective MBR for %d blocks", totalBlocks)
	if err = writeAt(f, 0, mbr.NewProtectiveMBR(totalBlocks).Bytes()); err != nil {
		return nil, err
	}

	diskGUID, err := b.newGUID()
	if err != nil {
		return nil, err
	}
	primary := NewPrimaryHeader(totalBlocks, diskGUID, entries.CRC32())
	backup := primary.Backup()
	array := entries.Bytes()

	b.logger.Debugf("Writing primary GPT header at LBA %d, disk GUID %s", primary.MyLBA, diskGUID)
	if err = writeAt(f, primary.MyLBA, primary.Bytes()); err != nil {
		return nil, err
	}
	if err = writeAt(f, primary.PartitionEntryLBA, array); err != nil {
		return nil, err
	}
	b.logger.Debugf("Writing backup GPT entries at LBA %d and header at LBA %d", backup.PartitionEntryLBA, backup.MyLBA)
	if err = writeAt(f, backup.PartitionEntryLBA, array); err != nil {
		return nil, err
	}
	if err = writeAt(f, backup.MyLBA, backup.Bytes()); err != nil {
		return nil, err
	}
	if err = f.Sync(); err != nil {
		return nil, bobErr.NewFromError(err, bobErr.IOFailure)
	}

	return &GptImage{
		path:        path,
		file:        f,
		primary:     primary,
		backup:      backup,
		entries:     entries,
		totalBlocks: totalBlocks,
	}, nil
}

// deriveEntries builds the partition entries before anything touches the disk
func (b *Builder) deriveEntries() (EntryArray, error) {
	entries := EntryArray{}
	if len(b.cfg.Partitions) > constants.GPTEntryCount {
		return nil, bobErr.New(
			fmt.Sprintf("%d partitions requested, a GPT holds at most %d", len(b.cfg.Partitions), constants.GPTEntryCount),
			bobErr.PartitionLayout,
		)
	}
	for _, spec := range b.cfg.Partitions {
		unique, err := b.newGUID()
		if err != nil {
			return nil, err
		}
		entry, err := NewPartitionEntry(spec, unique)
		if err != nil {
			return nil, err
		}
		b.logger.Debugf("Partition '%s' (%s) spans LBA %d to %d", entry.Name, spec.Type.Tag(), entry.StartingLBA, entry.EndingLBA)
		entries = append(entries, entry)
	}
	return entries, nil
}

func (b *Builder) newGUID() (guid.GUID, error) {
	if b.guidSource == nil {
		return guid.NewV4(), nil
	}
	g, err := guid.NewV4FromReader(b.guidSource)
	if err != nil {
		return g, bobErr.NewFromError(err, bobErr.IOFailure)
	}
	return g, nil
}

// validateLayout checks every entry sits in the usable blocks and none overlap
func validateLayout(entries EntryArray, totalBlocks uint64) error {
	first, last := uint64(constants.ReservedFrontBlocks), LastUsableLBA(totalBlocks)
	for _, e := range entries {
		if e.StartingLBA < first || e.EndingLBA > last {
			return bobErr.New(
				fmt.Sprintf("partition '%s' spans LBA %d to %d, outside of the usable range %d to %d",
					e.Name, e.StartingLBA, e.EndingLBA, first, last),
				bobErr.PartitionLayout,
			)
		}
	}

	sorted := make(EntryArray, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartingLBA < sorted[j].StartingLBA })
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].overlaps(sorted[i]) {
			return bobErr.New(
				fmt.Sprintf("partitions '%s' and '%s' overlap", sorted[i-1].Name, sorted[i].Name),
				bobErr.PartitionLayout,
			)
		}
	}
	return nil
}

func writeAt(w io.WriteSeeker, lba uint64, data []byte) error {
	if _, err := w.Seek(int64(lba*constants.BlockSize), io.SeekStart); err != nil {
		return bobErr.NewFromError(err, bobErr.IOFailure)
	}
	if _, err := w.Write(data); err != nil {
		return bobErr.NewFromError(err, bobErr.IOFailure)
	}
	return nil
}
