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

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rancher-sandbox/bob/cmd/config"
	"github.com/rancher-sandbox/bob/pkg/action"
	"github.com/rancher-sandbox/bob/pkg/constants"
)

// NewCreateCmd returns a new instance of the create subcommand and appends it to
// the root command.
func NewCreateCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "create",
		Short: "Create a GPT partitioned disk image",
		Long: "Create a GPT partitioned disk image.\n\n" +
			"Partitions are given as comma separated key=value pairs:\n" +
			"  t   partition type (bios, data, esp, linux, msr, swap)\n" +
			"  so  start offset in bytes, units such as MiB are accepted\n" +
			"  eo  end offset in bytes, addressing the last block of the partition\n" +
			"  n   optional partition name\n\n" +
			"e.g. bob create -s 64MiB -p t=esp,so=1MiB,eo=33MiB,n=boot",
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir := viper.GetString("config-dir")
			if configDir == "" {
				configDir = "."
			}

			cfg, err := config.ReadCreateConfig(configDir, cmd.Flags())
			if err != nil {
				return err
			}

			// Set this after parsing of the flags, so it fails on parsing and prints usage properly
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true // Do not propagate errors down the line, we control them

			create, err := action.NewCreateDiskAction(cfg, action.WithSummaryOutput(cmd.OutOrStdout()))
			if err != nil {
				cfg.Logger.Errorf("invalid create configuration: %v", err)
				return err
			}
			err = create.CreateDiskRun()
			if err != nil {
				cfg.Logger.Errorf("failed creating disk image: %v", err)
			}
			return err
		},
	}
	root.AddCommand(c)
	format := newEnumFlag(constants.GetImageFormats(), constants.RawFormat)
	summary := newEnumFlag(constants.GetSummaryFormats(), constants.TableSummary)
	c.Flags().StringP("output", "o", "", "Image file to write, defaults to bob-<unix time>.img")
	c.Flags().StringP("size", "s", "", "Total image size, e.g. 64MiB")
	c.Flags().StringArrayP("partition", "p", []string{}, "Partition to create, can be repeated (e.g. t=linux,so=1MiB,eo=8MiB)")
	c.Flags().Var(format, "format", "Image format")
	c.Flags().Var(summary, "summary", "Layout summary printed after creation")
	c.Flags().Bool("force", false, "Overwrite the output file if it exists")
	return c
}

// register the subcommand into rootCmd
var _ = NewCreateCmd(rootCmd)
