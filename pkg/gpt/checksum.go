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
	"hash/crc32"
)

// CRC32 returns the IEEE CRC32 of b, the same checksum zlib and PNG use
func CRC32(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// UpdateCRC32 continues a running CRC32 computation with b
func UpdateCRC32(crc uint32, b []byte) uint32 {
	return crc32.Update(crc, crc32.IEEETable, b)
}
