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

// provides a custom error interface and exit codes to use on bob
package error

//
// Provided exit codes for bob

// To make it easy to generate them you have to respect the structure:
//
// comment that explains the error
// const NamedConstant = ERRORCODE
//
// This way the docs can list them as a Markdown list of EXITCODE -> COMMENT

// A partition specification is missing a field or carries an invalid one
const PartitionParse = 10

// A required image setting was not provided
const MissingArgument = 11

// The image size can not hold the protective MBR and both GPT tables
const ImageTooSmall = 12

// A partition name does not fit in the 72 bytes of UTF-16LE allowed by GPT
const PartitionNameTooLong = 13

// No partition in the image carries the requested name
const NoSuchPartition = 14

// A write does not fit between the partition cursor and the partition end
const PartitionBoundsExceeded = 15

// Error reading, writing, seeking or truncating the image file
const IOFailure = 16

// Partitions overlap, fall outside the usable blocks or exceed the entry count
const PartitionLayout = 17

// The image builder was already run
const AlreadyBuilt = 18

// Error reading the create config
const ReadingCreateConfig = 19

// Error appending the VHD footer to the image
const VHDConversion = 20

// Output file already exists
const OutFileExists = 21

// Unknown error
const Unknown int = 255
