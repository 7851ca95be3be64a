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

package mbr_test

import (
	"bytes"
	"encoding/binary"
	"errors"

	efimbr "github.com/canonical/go-efilib/mbr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rancher-sandbox/bob/pkg/mbr"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

var _ = Describe("Protective MBR", Label("mbr"), func() {
	It("writes exactly one sector", func() {
		buf := &bytes.Buffer{}
		Expect(mbr.WriteProtectiveMBR(buf, 8192)).To(Succeed())
		Expect(buf.Len()).To(Equal(512))
	})
	It("lays out boot code, record and signature", func() {
		b := mbr.NewProtectiveMBR(8192).Bytes()
		Expect(b[:446]).To(Equal(make([]byte, 446)))
		Expect(b[446]).To(Equal(byte(0x00)))
		Expect(b[447:450]).To(Equal([]byte{0x00, 0x02, 0x00}))
		Expect(b[450]).To(Equal(byte(0xEE)))
		Expect(b[451:454]).To(Equal([]byte{130, 2, 0}))
		Expect(binary.LittleEndian.Uint32(b[454:458])).To(Equal(uint32(1)))
		Expect(binary.LittleEndian.Uint32(b[458:462])).To(Equal(uint32(8191)))
		Expect(b[462:510]).To(Equal(make([]byte, 48)))
		Expect(b[510:]).To(Equal([]byte{0x55, 0xAA}))
	})
	It("is recognised as protective by go-efilib", func() {
		buf := &bytes.Buffer{}
		Expect(mbr.WriteProtectiveMBR(buf, 1<<20)).To(Succeed())
		rec, err := efimbr.ReadRecord(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(rec.Partitions[0].Type).To(Equal(uint8(0xEE)))
		Expect(rec.Partitions[0].StartingLBA).To(Equal(uint32(1)))
		Expect(rec.Partitions[0].NumberOfSectors).To(Equal(uint32(1<<20 - 1)))
		for _, p := range rec.Partitions[1:] {
			Expect(p).To(Equal(efimbr.PartitionEntry{}))
		}
	})
	It("saturates the size for disks larger than 2TiB", func() {
		r := mbr.NewProtectiveMBR(1 << 33)
		Expect(r.Partitions[0].SizeInLBA).To(Equal(uint32(0xFFFFFFFF)))
		Expect(r.Partitions[0].EndingCHS).To(Equal(mbr.CHS{0xFF, 0xFF, 0xFF}))
	})
	It("returns write errors", func() {
		Expect(mbr.WriteProtectiveMBR(failWriter{}, 8192)).ToNot(Succeed())
	})
	Describe("LBAToCHS", func() {
		It("converts the first sectors", func() {
			Expect(mbr.LBAToCHS(0)).To(Equal(mbr.CHS{0, 1, 0}))
			Expect(mbr.LBAToCHS(1)).To(Equal(mbr.CHS{0, 2, 0}))
			Expect(mbr.LBAToCHS(63)).To(Equal(mbr.CHS{1, 1, 0}))
		})
		It("packs the high cylinder bits into the sector byte", func() {
			// cylinder 256, head 0, sector 1
			Expect(mbr.LBAToCHS(256 * 255 * 63)).To(Equal(mbr.CHS{0, 0x41, 0x00}))
			// cylinder 1023, head 254, sector 63
			Expect(mbr.LBAToCHS(1024*255*63 - 1)).To(Equal(mbr.CHS{254, 0xFF, 0xFF}))
		})
		It("saturates past cylinder 1023", func() {
			Expect(mbr.LBAToCHS(1024 * 255 * 63)).To(Equal(mbr.CHS{0xFF, 0xFF, 0xFF}))
		})
	})
})
