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

package v1

import (
	"github.com/twpayne/go-vfs"

	"github.com/rancher-sandbox/bob/pkg/constants"
)

// Config holds the collaborators shared by every command
type Config struct {
	Logger Logger `yaml:"-"`
	Fs     FS     `yaml:"-"`
}

type GenericOptions func(c *Config) error

func WithFs(fs FS) func(c *Config) error {
	return func(c *Config) error {
		c.Fs = fs
		return nil
	}
}

func WithLogger(logger Logger) func(c *Config) error {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// NewConfig returns a Config with the real filesystem and a stdout logger unless overridden
func NewConfig(opts ...GenericOptions) *Config {
	log := NewLogger()
	c := &Config{
		Fs:     vfs.OSFS,
		Logger: log,
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			log.Errorf("error applying config option: %s", err.Error())
			return nil
		}
	}
	return c
}

// PartitionInput is a partition as read from flags or config files. Any field may be unset.
type PartitionInput struct {
	Type  string  `yaml:"type,omitempty" mapstructure:"type"`
	Name  string  `yaml:"name,omitempty" mapstructure:"name"`
	Start *uint64 `yaml:"start,omitempty" mapstructure:"start"`
	End   *uint64 `yaml:"end,omitempty" mapstructure:"end"`
}

// CreateConfig is the configuration of the create command
type CreateConfig struct {
	Config     `yaml:",inline" mapstructure:",squash"`
	Output     string           `yaml:"output,omitempty" mapstructure:"output"`
	Size       uint64           `yaml:"size,omitempty" mapstructure:"size"`
	Format     string           `yaml:"format,omitempty" mapstructure:"format"`
	Force      bool             `yaml:"force,omitempty" mapstructure:"force"`
	Summary    string           `yaml:"summary,omitempty" mapstructure:"summary"`
	Partitions []PartitionInput `yaml:"partitions,omitempty" mapstructure:"partitions"`
}

// NewCreateConfig returns a CreateConfig producing a raw image
func NewCreateConfig(opts ...GenericOptions) *CreateConfig {
	c := NewConfig(opts...)
	if c == nil {
		return nil
	}
	return &CreateConfig{
		Config:  *c,
		Format:  constants.RawFormat,
		Summary: constants.TableSummary,
	}
}
