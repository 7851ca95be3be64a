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
	"sort"
	"strings"

	"github.com/rancher-sandbox/bob/pkg/guid"
)

// PartitionType identifies what a partition is meant for
type PartitionType int

const (
	EFISystem PartitionType = iota
	BIOSBoot
	LinuxFilesystem
	LinuxSwap
	BasicData
	MicrosoftReserved
)

type partitionTypeInfo struct {
	tag  string
	name string
	guid guid.GUID
}

var partitionTypes = map[PartitionType]partitionTypeInfo{
	EFISystem:         {"esp", "EFI system partition", guid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B")},
	BIOSBoot:          {"bios", "BIOS boot partition", guid.MustParse("21686148-6449-6E6F-744E-656564454649")},
	LinuxFilesystem:   {"linux", "Linux filesystem", guid.MustParse("0FC63DAF-8483-4772-8E79-3D69D8477DE4")},
	LinuxSwap:         {"swap", "Linux swap", guid.MustParse("0657FD6D-A4AB-43C4-84E5-0933C84B4F4F")},
	BasicData:         {"data", "Basic data partition", guid.MustParse("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7")},
	MicrosoftReserved: {"msr", "Microsoft reserved partition", guid.MustParse("E3C9E316-0B5C-4DB8-817D-F92DF00215AE")},
}

// tag aliases accepted on top of the canonical ones
var partitionTypeAliases = map[string]PartitionType{
	"efi": EFISystem,
}

// ParsePartitionType resolves a type tag such as "esp" or "linux"
func ParsePartitionType(tag string) (PartitionType, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if t, ok := partitionTypeAliases[tag]; ok {
		return t, nil
	}
	for t, info := range partitionTypes {
		if info.tag == tag {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown partition type '%s', valid types are: %s", tag, strings.Join(PartitionTypeTags(), ", "))
}

// PartitionTypeTags lists the canonical type tags
func PartitionTypeTags() []string {
	tags := []string{}
	for _, info := range partitionTypes {
		tags = append(tags, info.tag)
	}
	sort.Strings(tags)
	return tags
}

// GUID returns the partition type GUID stored in the entry
func (t PartitionType) GUID() guid.GUID {
	return partitionTypes[t].guid
}

// Tag returns the short name used in partition specifications
func (t PartitionType) Tag() string {
	return partitionTypes[t].tag
}

// String returns the human readable name, also used as default partition name
func (t PartitionType) String() string {
	if info, ok := partitionTypes[t]; ok {
		return info.name
	}
	return fmt.Sprintf("PartitionType(%d)", int(t))
}

// MarshalYAML renders the type by its tag
func (t PartitionType) MarshalYAML() (interface{}, error) {
	return t.Tag(), nil
}

// PartitionTypeFromGUID returns the known type carrying g, if any
func PartitionTypeFromGUID(g guid.GUID) (PartitionType, bool) {
	for t, info := range partitionTypes {
		if info.guid == g {
			return t, true
		}
	}
	return 0, false
}
