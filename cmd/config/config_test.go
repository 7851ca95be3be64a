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

package config_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	. "github.com/rancher-sandbox/bob/cmd/config"
	"github.com/rancher-sandbox/bob/pkg/constants"
	bobErr "github.com/rancher-sandbox/bob/pkg/error"
)

const MiB = 1024 * 1024

func createFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("testflags", pflag.ContinueOnError)
	flags.StringP("output", "o", "", "testing flag")
	flags.StringP("size", "s", "", "testing flag")
	flags.String("format", constants.RawFormat, "testing flag")
	flags.String("summary", constants.TableSummary, "testing flag")
	flags.Bool("force", false, "testing flag")
	flags.StringArrayP("partition", "p", []string{}, "testing flag")
	return flags
}

var _ = Describe("Config", Label("config"), func() {
	AfterEach(func() {
		viper.Reset()
		for _, env := range []string{"BOB_OUTPUT", "BOB_SIZE", "BOB_PARTITIONS"} {
			_ = os.Unsetenv(env)
		}
	})

	Describe("Create config", Label("create"), func() {
		It("uses defaults if no configs are provided", func() {
			cfg, err := ReadCreateConfig("", nil)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(cfg.Format).To(Equal(constants.RawFormat))
			Expect(cfg.Summary).To(Equal(constants.TableSummary))
			Expect(cfg.Size).To(BeZero())
			Expect(cfg.Output).To(BeEmpty())
			Expect(cfg.Partitions).To(BeEmpty())
		})
		It("uses defaults if the config dir has no bob.yaml", func() {
			cfg, err := ReadCreateConfig("fixtures/", createFlags())
			Expect(err).ShouldNot(HaveOccurred())
			Expect(cfg.Format).To(Equal(constants.RawFormat))
			Expect(cfg.Size).To(BeZero())
		})
		It("values filled if config path valid", Label("path", "values"), func() {
			cfg, err := ReadCreateConfig("fixtures/create/", nil)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(cfg.Output).To(Equal("build/disk.img"), litter.Sdump(cfg))
			Expect(cfg.Size).To(Equal(uint64(8 * MiB)))
			Expect(cfg.Format).To(Equal(constants.VHDFormat))
			Expect(cfg.Summary).To(Equal(constants.YAMLSummary))
			Expect(cfg.Partitions).To(HaveLen(2), litter.Sdump(cfg.Partitions))

			esp := cfg.Partitions[0]
			Expect(esp.Type).To(Equal("esp"))
			Expect(esp.Name).To(Equal("boot"))
			Expect(*esp.Start).To(Equal(uint64(1 * MiB)))
			Expect(*esp.End).To(Equal(uint64(3 * MiB)))

			root := cfg.Partitions[1]
			Expect(root.Type).To(Equal("linux"))
			Expect(root.Name).To(BeEmpty())
			Expect(*root.Start).To(Equal(uint64(4 * MiB)))
			Expect(*root.End).To(Equal(uint64(7 * MiB)))
		})
		It("overrides values with env values", Label("env", "values"), func() {
			Expect(os.Setenv("BOB_SIZE", "16MiB")).To(Succeed())
			cfg, err := ReadCreateConfig("fixtures/create/", nil)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(cfg.Size).To(Equal(uint64(16 * MiB)))
			Expect(cfg.Output).To(Equal("build/disk.img"))
		})
		It("reads partitions from the environment", Label("env"), func() {
			Expect(os.Setenv("BOB_PARTITIONS", "t=esp,so=1MiB,eo=2MiB;t=swap,so=3MiB,eo=4MiB,n=sw")).To(Succeed())
			cfg, err := ReadCreateConfig("", nil)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(cfg.Partitions).To(HaveLen(2), litter.Sdump(cfg.Partitions))
			Expect(cfg.Partitions[0].Type).To(Equal("esp"))
			Expect(*cfg.Partitions[0].End).To(Equal(uint64(2 * MiB)))
			Expect(cfg.Partitions[1].Name).To(Equal("sw"))
		})
		It("loads an env file when requested", Label("env"), func() {
			viper.Set("env-file", "fixtures/create.env")
			cfg, err := ReadCreateConfig("", createFlags())
			Expect(err).ShouldNot(HaveOccurred())
			Expect(cfg.Output).To(Equal("from-env-file.img"))
			Expect(cfg.Size).To(Equal(uint64(2 * MiB)))
		})
		It("fails on a missing env file", Label("env"), func() {
			viper.Set("env-file", "fixtures/missing.env")
			_, err := ReadCreateConfig("", nil)
			Expect(err).To(HaveOccurred())
			Expect(bobErr.Code(err)).To(Equal(bobErr.ReadingCreateConfig))
		})
		It("uses provided configs and flags, flags have priority", Label("flags"), func() {
			flags := createFlags()
			Expect(flags.Set("output", "flag.img")).To(Succeed())
			Expect(flags.Set("size", "32MiB")).To(Succeed())
			Expect(flags.Set("force", "true")).To(Succeed())
			Expect(flags.Set("partition", "t=data,so=1MiB,eo=30MiB,n=payload")).To(Succeed())

			cfg, err := ReadCreateConfig("fixtures/create/", flags)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(cfg.Output).To(Equal("flag.img"))
			Expect(cfg.Size).To(Equal(uint64(32 * MiB)))
			Expect(cfg.Force).To(BeTrue())
			// Unchanged flags keep the config file values
			Expect(cfg.Format).To(Equal(constants.VHDFormat))
			Expect(cfg.Summary).To(Equal(constants.YAMLSummary))
			Expect(cfg.Partitions).To(HaveLen(1))
			Expect(cfg.Partitions[0].Type).To(Equal("data"))
			Expect(cfg.Partitions[0].Name).To(Equal("payload"))
		})
		It("fails on an invalid partition flag", Label("flags"), func() {
			flags := createFlags()
			Expect(flags.Set("partition", "t=esp,so=1MiB,offset=2MiB")).To(Succeed())
			_, err := ReadCreateConfig("", flags)
			Expect(err).To(HaveOccurred())
			Expect(bobErr.Code(err)).To(Equal(bobErr.PartitionParse))
		})
		It("fails on bad yaml config file", func() {
			_, err := ReadCreateConfig("fixtures/broken/", nil)
			Expect(err).To(HaveOccurred())
			Expect(bobErr.Code(err)).To(Equal(bobErr.ReadingCreateConfig))
		})
		It("sets log level debug based on debug flag", func() {
			cfg, err := ReadCreateConfig("", nil)
			Expect(err).To(BeNil())
			Expect(cfg.Logger.GetLevel()).ToNot(Equal(logrus.DebugLevel))

			// Set it via viper, like the flag
			viper.Set("debug", true)
			cfg, err = ReadCreateConfig("", nil)
			Expect(err).To(BeNil())
			Expect(cfg.Logger.GetLevel()).To(Equal(logrus.DebugLevel))
		})
	})
})
