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

package gpt_test

import (
	"bytes"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twpayne/go-vfs/vfst"

	bobErr "github.com/rancher-sandbox/bob/pkg/error"
	"github.com/rancher-sandbox/bob/pkg/gpt"
	v1 "github.com/rancher-sandbox/bob/pkg/types/v1"
)

// fakeFormatter stamps a recognisable boot sector and a trailer in a partition
func fakeFormatter(p gpt.Partition) error {
	if _, err := p.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := p.Write([]byte("FAT32   ")); err != nil {
		return err
	}
	if _, err := p.Seek(-4, io.SeekEnd); err != nil {
		return err
	}
	_, err := p.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	return err
}

var _ = Describe("PartitionView", Label("view"), func() {
	var fs *vfst.TestFS
	var cleanup func()
	var img *gpt.GptImage

	BeforeEach(func() {
		var err error
		fs, cleanup, err = vfst.NewTestFS(map[string]interface{}{"/out": &vfst.Dir{Perm: 0o755}})
		Expect(err).ShouldNot(HaveOccurred())
		b, err := gpt.NewBuilder(gpt.ImageConfig{
			Output: "/out/disk.img",
			Size:   4 * MiB,
			Partitions: []gpt.PartitionSpec{
				{Type: gpt.EFISystem, Name: "boot", StartOffset: 1 * MiB, EndOffset: 2 * MiB},
				{Type: gpt.LinuxFilesystem, Name: "root", StartOffset: 2*MiB + 512, EndOffset: 3 * MiB},
			},
		}, gpt.WithFs(fs), gpt.WithLogger(v1.NewNullLogger()))
		Expect(err).ShouldNot(HaveOccurred())
		img, err = b.Build()
		Expect(err).ShouldNot(HaveOccurred())
	})
	AfterEach(func() {
		_ = img.Close()
		cleanup()
	})

	readImage := func() []byte {
		Expect(img.Close()).To(Succeed())
		data, err := fs.ReadFile("/out/disk.img")
		Expect(err).ShouldNot(HaveOccurred())
		return data
	}

	It("looks partitions up by name", func() {
		view, err := img.PartitionView("boot")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(view.Name()).To(Equal("boot"))
		Expect(view.PartitionType()).To(Equal(gpt.EFISystem))
		Expect(view.Size()).To(Equal(uint64(1*MiB + 512)))
	})
	It("fails on unknown names", func() {
		_, err := img.PartitionView("home")
		Expect(bobErr.Code(err)).To(Equal(bobErr.NoSuchPartition))
	})
	It("writes at the partition start", func() {
		view, err := img.PartitionView("boot")
		Expect(err).ShouldNot(HaveOccurred())
		n, err := view.Write([]byte("hello"))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(n).To(Equal(5))
		n, err = view.Write([]byte(" world"))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(n).To(Equal(6))

		data := readImage()
		Expect(string(data[1*MiB : 1*MiB+11])).To(Equal("hello world"))
		Expect(data[1*MiB-1]).To(BeZero())
	})
	It("hands formatters a bounded partition", func() {
		view, err := img.PartitionView("root")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(fakeFormatter(view)).To(Succeed())

		data := readImage()
		start := 2*MiB + 512
		end := 3*MiB + 512
		Expect(string(data[start : start+8])).To(Equal("FAT32   "))
		Expect(data[end-4 : end]).To(Equal([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
		Expect(data[end : end+4]).To(Equal(make([]byte, 4)))
	})
	It("refuses writes past the partition end and writes nothing", func() {
		view, err := img.PartitionView("boot")
		Expect(err).ShouldNot(HaveOccurred())
		pos, err := view.Seek(-3, io.SeekEnd)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(pos).To(Equal(int64(view.Size() - 3)))

		n, err := view.Write([]byte{1, 2, 3, 4})
		Expect(n).To(BeZero())
		Expect(bobErr.Code(err)).To(Equal(bobErr.PartitionBoundsExceeded))

		n, err = view.Write([]byte{1, 2, 3})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(n).To(Equal(3))

		n, err = view.Write([]byte{4})
		Expect(n).To(BeZero())
		Expect(bobErr.Code(err)).To(Equal(bobErr.PartitionBoundsExceeded))

		data := readImage()
		end := 2*MiB + 512
		Expect(data[end-3 : end]).To(Equal([]byte{1, 2, 3}))
		Expect(data[end]).To(BeZero())
	})
	It("clamps seeks to the partition", func() {
		view, err := img.PartitionView("boot")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(view.Seek(-10, io.SeekStart)).To(Equal(int64(0)))
		Expect(view.Seek(10, io.SeekEnd)).To(Equal(int64(view.Size())))
		Expect(view.Seek(-6, io.SeekCurrent)).To(Equal(int64(view.Size() - 6)))
		Expect(view.Seek(2, io.SeekCurrent)).To(Equal(int64(view.Size() - 4)))
		_, err = view.Seek(0, 42)
		Expect(bobErr.Code(err)).To(Equal(bobErr.PartitionBoundsExceeded))
	})
	It("repositions when views share the file", func() {
		boot, err := img.PartitionView("boot")
		Expect(err).ShouldNot(HaveOccurred())
		root, err := img.PartitionView("root")
		Expect(err).ShouldNot(HaveOccurred())

		_, err = boot.Write([]byte("AAAA"))
		Expect(err).ShouldNot(HaveOccurred())
		_, err = root.Write([]byte("BBBB"))
		Expect(err).ShouldNot(HaveOccurred())
		_, err = boot.Write([]byte("CCCC"))
		Expect(err).ShouldNot(HaveOccurred())

		data := readImage()
		Expect(string(data[1*MiB : 1*MiB+8])).To(Equal("AAAACCCC"))
		Expect(string(data[2*MiB+512 : 2*MiB+516])).To(Equal("BBBB"))
	})
	It("leaves the partition tables alone", func() {
		view, err := img.PartitionView("root")
		Expect(err).ShouldNot(HaveOccurred())
		_, err = view.Write(bytes.Repeat([]byte{0xFF}, int(view.Size())))
		Expect(err).ShouldNot(HaveOccurred())
		data := readImage()
		Expect(string(data[512:520])).To(Equal("EFI PART"))
		Expect(string(data[8191*512 : 8191*512+8])).To(Equal("EFI PART"))
	})
})
