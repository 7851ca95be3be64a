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

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rancher-sandbox/bob/pkg/constants"
	bobErr "github.com/rancher-sandbox/bob/pkg/error"
	"github.com/rancher-sandbox/bob/pkg/gpt"
	v1 "github.com/rancher-sandbox/bob/pkg/types/v1"
)

// setupLogger applies the debug, logfile and quiet settings to the config logger
func setupLogger(cfg *v1.Config) {
	// Set debug level
	if viper.GetBool("debug") {
		cfg.Logger.SetLevel(v1.DebugLevel())
	}

	// Set formatter so both file and stdout format are equal
	cfg.Logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableColors:    false,
		DisableTimestamp: false,
		FullTimestamp:    true,
	})

	// Logfile
	logfile := viper.GetString("logfile")
	if logfile != "" {
		o, err := cfg.Fs.OpenFile(logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fs.ModePerm)

		if err != nil {
			cfg.Logger.Errorf("Could not open %s for logging to file: %s", logfile, err.Error())
		}

		if viper.GetBool("quiet") { // if quiet is set, only set the log to the file
			cfg.Logger.SetOutput(o)
		} else { // else set it to both stdout and the file
			mw := io.MultiWriter(os.Stdout, o)
			cfg.Logger.SetOutput(mw)
		}
	} else { // no logfile
		if viper.GetBool("quiet") { // quiet is enabled so discard all logging
			cfg.Logger.SetOutput(io.Discard)
		} else { // default to stdout
			cfg.Logger.SetOutput(os.Stdout)
		}
	}
}

// sizeHook reads byte counts given as strings, e.g. "4MiB"
func sizeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Uint64 {
		return data, nil
	}
	if data.(string) == "" {
		return uint64(0), nil
	}
	return gpt.ParseBytes(data.(string))
}

// partitionHook reads partitions given in the t=,so=,eo= syntax
func partitionHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(v1.PartitionInput{}) {
		return data, nil
	}
	in, err := gpt.ParsePartitionInput(data.(string))
	if err != nil {
		return nil, err
	}
	m := map[string]interface{}{"type": in.Type, "name": in.Name}
	if in.Start != nil {
		m["start"] = *in.Start
	}
	if in.End != nil {
		m["end"] = *in.End
	}
	return m, nil
}

// ReadCreateConfig reads the create configuration from the config dir, the
// environment and the given flags, in increasing order of precedence
func ReadCreateConfig(configDir string, flags *pflag.FlagSet) (*v1.CreateConfig, error) {
	cfg := v1.NewCreateConfig(v1.WithLogger(v1.NewLogger()))
	setupLogger(&cfg.Config)

	envFile := viper.GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return cfg, bobErr.NewFromError(fmt.Errorf("failed loading env file %s: %w", envFile, err), bobErr.ReadingCreateConfig)
		}
		cfg.Logger.Debugf("Loaded environment from %s", envFile)
	}

	if configDir != "" {
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName(constants.ConfigFileName)
		// If a config file is found, read it in.
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return cfg, bobErr.NewFromError(fmt.Errorf("failed reading %s: %w", constants.ConfigFileName, err), bobErr.ReadingCreateConfig)
			}
			cfg.Logger.Debugf("No %s found in %s", constants.ConfigFileName, configDir)
		} else {
			cfg.Logger.Debugf("Using config file %s", viper.ConfigFileUsed())
		}
	}

	// Set the prefix for vars so we get only the ones starting with BOB
	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
	// partitions has no flag binding, make it known so BOB_PARTITIONS is honoured
	_ = viper.BindEnv("partitions")

	if flags != nil {
		for _, name := range []string{"output", "size", "format", "force", "summary"} {
			if f := flags.Lookup(name); f != nil {
				_ = viper.BindPFlag(name, f)
			}
		}
	}

	// unmarshal all the vars into the config object
	err := viper.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		sizeHook,
		partitionHook,
		mapstructure.StringToSliceHookFunc(";"),
	)))
	if err != nil {
		return cfg, bobErr.NewFromError(fmt.Errorf("failed decoding config: %w", err), bobErr.ReadingCreateConfig)
	}

	if flags != nil && flags.Changed("partition") {
		specs, _ := flags.GetStringArray("partition")
		cfg.Partitions = []v1.PartitionInput{}
		for _, s := range specs {
			in, err := gpt.ParsePartitionInput(s)
			if err != nil {
				return cfg, err
			}
			cfg.Partitions = append(cfg.Partitions, in)
		}
	}

	cfg.Logger.Debugf("Create config: %s", litter.Sdump(cfg.Output, cfg.Size, cfg.Format, cfg.Partitions))
	return cfg, nil
}
