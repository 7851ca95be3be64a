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
	"strings"

	"github.com/docker/go-units"
	"github.com/hashicorp/go-multierror"

	"github.com/rancher-sandbox/bob/pkg/constants"
	bobErr "github.com/rancher-sandbox/bob/pkg/error"
	v1 "github.com/rancher-sandbox/bob/pkg/types/v1"
)

// PartitionSpec describes a partition requested by the user. Offsets are
// bytes: StartOffset is the first byte of the partition and EndOffset the
// first byte of its last block.
type PartitionSpec struct {
	Type        PartitionType `yaml:"type"`
	Name        string        `yaml:"name,omitempty"`
	StartOffset uint64        `yaml:"start"`
	EndOffset   uint64        `yaml:"end"`
}

// NewPartitionSpec validates the input and returns the matching PartitionSpec.
// All missing fields are reported at once as a PartitionParse error.
func NewPartitionSpec(in v1.PartitionInput) (PartitionSpec, error) {
	var errs error
	if in.Type == "" {
		errs = multierror.Append(errs, errors.New("missing partition type"))
	}
	if in.Start == nil {
		errs = multierror.Append(errs, errors.New("missing partition start offset"))
	}
	if in.End == nil {
		errs = multierror.Append(errs, errors.New("missing partition end offset"))
	}
	if errs != nil {
		return PartitionSpec{}, bobErr.NewFromError(errs, bobErr.PartitionParse)
	}

	pType, err := ParsePartitionType(in.Type)
	if err != nil {
		return PartitionSpec{}, bobErr.NewFromError(err, bobErr.PartitionParse)
	}

	spec := PartitionSpec{Type: pType, Name: in.Name, StartOffset: *in.Start, EndOffset: *in.End}
	if err = spec.Validate(); err != nil {
		return PartitionSpec{}, err
	}
	return spec, nil
}

// Validate checks both offsets are block aligned and start is lower than end
func (p PartitionSpec) Validate() error {
	start, end := p.StartOffset, p.EndOffset
	if start%constants.BlockSize != 0 || end%constants.BlockSize != 0 {
		return bobErr.New(
			fmt.Sprintf("partition offsets %d and %d must be multiples of %d bytes", start, end, constants.BlockSize),
			bobErr.PartitionParse,
		)
	}
	if start >= end {
		return bobErr.New(
			fmt.Sprintf("partition start offset %d is not lower than its end offset %d", start, end),
			bobErr.PartitionParse,
		)
	}
	return nil
}

// ParsePartitionSpec parses the comma separated key=value syntax, e.g.
// "t=esp,so=1MiB,eo=2MiB,n=boot". Keys t, so and eo are required.
func ParsePartitionSpec(s string) (PartitionSpec, error) {
	in, err := ParsePartitionInput(s)
	if err != nil {
		return PartitionSpec{}, err
	}
	return NewPartitionSpec(in)
}

// ParsePartitionInput parses the key=value syntax without validating completeness
func ParsePartitionInput(s string) (v1.PartitionInput, error) {
	in := v1.PartitionInput{}
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			return in, bobErr.New(fmt.Sprintf("invalid partition field '%s', expected key=value", field), bobErr.PartitionParse)
		}
		key, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch key {
		case "t":
			in.Type = value
		case "n":
			in.Name = value
		case "so", "eo":
			offset, err := ParseBytes(value)
			if err != nil {
				return in, bobErr.NewFromError(fmt.Errorf("invalid offset for '%s': %w", key, err), bobErr.PartitionParse)
			}
			if key == "so" {
				in.Start = &offset
			} else {
				in.End = &offset
			}
		default:
			return in, bobErr.New(fmt.Sprintf("unknown partition field '%s'", key), bobErr.PartitionParse)
		}
	}
	return in, nil
}

// ParseBytes reads a byte count, either plain or with a binary unit suffix such as 4MiB
func ParseBytes(s string) (uint64, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size '%s'", s)
	}
	return uint64(n), nil
}

// String renders the spec back in the key=value syntax
func (p PartitionSpec) String() string {
	s := fmt.Sprintf("t=%s,so=%d,eo=%d", p.Type.Tag(), p.StartOffset, p.EndOffset)
	if p.Name != "" {
		s += ",n=" + p.Name
	}
	return s
}
