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

package constants

const (
	// BlockSize is the logical block size every LBA refers to
	BlockSize = 512

	// GPT header fields
	GPTSignature      = "EFI PART"
	GPTRevision       = uint32(0x00010000)
	GPTHeaderSize     = 92
	GPTEntryCount     = 128
	GPTEntrySize      = 128
	GPTEntryNameBytes = 72

	// Primary and backup header/entry positions
	PrimaryHeaderLBA = 1
	PrimaryEntryLBA  = 2
	// ReservedFrontBlocks are the blocks taken by the MBR, the primary header and the entry array
	ReservedFrontBlocks = 34
	// ReservedBackBlocks are the blocks taken by the backup entry array
	ReservedBackBlocks = 33
	// MinimumBlocks a disk needs to hold both tables and one usable block
	MinimumBlocks = ReservedFrontBlocks + ReservedBackBlocks + 1

	// Protective MBR
	MBRSize            = 512
	MBRBootCodeSize    = 440
	MBRRecordsOffset   = 446
	MBRRecordSize      = 16
	MBRProtectiveType  = 0xEE
	MBRMaxLBA          = 0xFFFFFFFF
	MBRBootSignature0  = 0x55
	MBRBootSignature1  = 0xAA
	MBRHeads           = 255
	MBRSectorsPerTrack = 63
	MBRMaxCylinder     = 1023

	// CLI defaults
	ImageNamePrefix = "bob"
	ImageNameSuffix = "img"
	ConfigFileName  = "bob.yaml"
	EnvPrefix       = "BOB"
	RawFormat       = "raw"
	VHDFormat       = "vhd"
	TableSummary    = "table"
	YAMLSummary     = "yaml"
	NoSummary       = "none"
)

// GetImageFormats returns the output formats the create command accepts
func GetImageFormats() []string {
	return []string{RawFormat, VHDFormat}
}

// GetSummaryFormats returns how the layout of a created image can be reported
func GetSummaryFormats() []string {
	return []string{TableSummary, YAMLSummary, NoSummary}
}
