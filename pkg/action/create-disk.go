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

package action

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/rancher-sandbox/bob/pkg/constants"
	bobErr "github.com/rancher-sandbox/bob/pkg/error"
	"github.com/rancher-sandbox/bob/pkg/gpt"
	v1 "github.com/rancher-sandbox/bob/pkg/types/v1"
	"github.com/rancher-sandbox/bob/pkg/utils"
)

// Formatter fills a partition with a filesystem
type Formatter func(p gpt.Partition) error

type namedFormatter struct {
	partition string
	format    Formatter
}

type CreateDiskAction struct {
	cfg         *v1.CreateConfig
	specs       []gpt.PartitionSpec
	formatters  []namedFormatter
	summary     io.Writer
	builderOpts []gpt.BuilderOption
}

type CreateDiskActionOption func(c *CreateDiskAction) error

// WithFormatter registers a formatter for the partition with the given name
func WithFormatter(partition string, f Formatter) CreateDiskActionOption {
	return func(c *CreateDiskAction) error {
		c.formatters = append(c.formatters, namedFormatter{partition: partition, format: f})
		return nil
	}
}

// WithSummaryOutput sets where the layout summary is printed, stdout by default
func WithSummaryOutput(w io.Writer) CreateDiskActionOption {
	return func(c *CreateDiskAction) error {
		c.summary = w
		return nil
	}
}

// WithBuilderOptions passes extra options to the image builder
func WithBuilderOptions(opts ...gpt.BuilderOption) CreateDiskActionOption {
	return func(c *CreateDiskAction) error {
		c.builderOpts = append(c.builderOpts, opts...)
		return nil
	}
}

// NewCreateDiskAction validates the configured partitions and output settings
func NewCreateDiskAction(cfg *v1.CreateConfig, opts ...CreateDiskActionOption) (*CreateDiskAction, error) {
	c := &CreateDiskAction{cfg: cfg, summary: os.Stdout}

	for _, o := range opts {
		if err := o(c); err != nil {
			cfg.Logger.Errorf("error applying config option: %s", err.Error())
			return nil, err
		}
	}

	if !isOneOf(cfg.Format, constants.GetImageFormats()) {
		return nil, bobErr.New(fmt.Sprintf("invalid image format '%s'", cfg.Format), bobErr.ReadingCreateConfig)
	}
	if cfg.Summary == "" {
		cfg.Summary = constants.TableSummary
	}
	if !isOneOf(cfg.Summary, constants.GetSummaryFormats()) {
		return nil, bobErr.New(fmt.Sprintf("invalid summary format '%s'", cfg.Summary), bobErr.ReadingCreateConfig)
	}

	for i, in := range cfg.Partitions {
		spec, err := gpt.NewPartitionSpec(in)
		if err != nil {
			cfg.Logger.Errorf("invalid partition #%d: %s", i+1, err.Error())
			return nil, err
		}
		c.specs = append(c.specs, spec)
	}

	return c, nil
}

// CreateDiskRun builds the image, runs the registered formatters and reports the resulting layout
func (c *CreateDiskAction) CreateDiskRun() (err error) {
	opts := append([]gpt.BuilderOption{gpt.WithFs(c.cfg.Fs), gpt.WithLogger(c.cfg.Logger)}, c.builderOpts...)
	builder, err := gpt.NewBuilder(gpt.ImageConfig{
		Output:     c.cfg.Output,
		Size:       c.cfg.Size,
		Partitions: c.specs,
	}, opts...)
	if err != nil {
		return err
	}
	output := builder.OutputPath()

	exists, err := utils.Exists(c.cfg.Fs, output)
	if err != nil {
		return bobErr.NewFromError(err, bobErr.IOFailure)
	}
	if exists && !c.cfg.Force {
		return bobErr.New(fmt.Sprintf("output file %s already exists", output), bobErr.OutFileExists)
	}
	if err = utils.EnsureParentDir(c.cfg.Fs, output); err != nil {
		return bobErr.NewFromError(err, bobErr.IOFailure)
	}

	c.cfg.Logger.Infof("Creating %s disk image %s with %d partition(s)", c.cfg.Format, output, len(c.specs))

	cleanup := utils.NewCleanStack()
	defer func() { err = cleanup.Cleanup(err) }()

	img, err := builder.Build()
	if err != nil {
		c.cfg.Logger.Errorf("failed building image: %s", err.Error())
		return err
	}
	cleanup.PushErrorOnly(func() error { return c.cfg.Fs.Remove(output) })
	cleanup.Push(img.Close)

	for _, f := range c.formatters {
		view, err := img.PartitionView(f.partition)
		if err != nil {
			return err
		}
		c.cfg.Logger.Infof("Formatting partition '%s'", f.partition)
		if err = f.format(view); err != nil {
			c.cfg.Logger.Errorf("failed formatting partition '%s': %s", f.partition, err.Error())
			return err
		}
	}

	if c.cfg.Format == constants.VHDFormat {
		c.cfg.Logger.Infof("Appending fixed VHD footer to %s", output)
		if err = utils.AppendFixedVHDFooter(img.File()); err != nil {
			return bobErr.NewFromError(err, bobErr.VHDConversion)
		}
	}

	if err = c.printSummary(img); err != nil {
		return err
	}
	c.cfg.Logger.Infof("Disk image %s created", output)
	return nil
}

// LayoutSummary describes a created image
type LayoutSummary struct {
	Image      string             `yaml:"image"`
	Format     string             `yaml:"format"`
	Size       uint64             `yaml:"size"`
	DiskGUID   string             `yaml:"disk-guid"`
	Partitions []PartitionSummary `yaml:"partitions"`
}

// PartitionSummary describes a partition of a created image
type PartitionSummary struct {
	Name     string            `yaml:"name"`
	Type     gpt.PartitionType `yaml:"type"`
	GUID     string            `yaml:"guid"`
	StartLBA uint64            `yaml:"start-lba"`
	EndLBA   uint64            `yaml:"end-lba"`
	Size     uint64            `yaml:"size"`
}

// NewLayoutSummary collects the layout of img
func NewLayoutSummary(img *gpt.GptImage, format string) LayoutSummary {
	s := LayoutSummary{
		Image:    img.Path(),
		Format:   format,
		Size:     img.Size(),
		DiskGUID: img.PrimaryHeader().DiskGUID.String(),
	}
	for _, p := range img.Partitions() {
		s.Partitions = append(s.Partitions, PartitionSummary{
			Name:     p.Name,
			Type:     p.Type,
			GUID:     p.UniqueGUID.String(),
			StartLBA: p.StartingLBA,
			EndLBA:   p.EndingLBA,
			Size:     p.SizeInBytes(),
		})
	}
	return s
}

func (c *CreateDiskAction) printSummary(img *gpt.GptImage) error {
	summary := NewLayoutSummary(img, c.cfg.Format)
	switch c.cfg.Summary {
	case constants.YAMLSummary:
		out, err := yaml.Marshal(summary)
		if err != nil {
			return err
		}
		_, err = c.summary.Write(out)
		return err
	case constants.NoSummary:
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.summary)
	t.SetTitle("%s (%s, disk %s)", summary.Image, humanize.IBytes(summary.Size), summary.DiskGUID)
	t.AppendHeader(table.Row{"#", "NAME", "TYPE", "START LBA", "END LBA", "SIZE", "GUID"})
	for i, p := range summary.Partitions {
		t.AppendRow(table.Row{i + 1, p.Name, p.Type.Tag(), p.StartLBA, p.EndLBA, humanize.IBytes(p.Size), p.GUID})
	}
	text.DisableColors()
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func isOneOf(val string, opts []string) bool {
	for _, opt := range opts {
		if val == opt {
			return true
		}
	}
	return false
}
