// SPDX-License-Identifier: MIT

// Package cli holds the YAML-loaded configuration shared by the pcapflow CLI
// commands, following the same gopkg.in/yaml.v3 idiom the teacher module
// used for its cluster/client configuration files.
package cli

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional on-disk configuration for the pcapflow CLI: any
// field left unset keeps its command-line flag default.
type FileConfig struct {
	RejectOld bool `yaml:"reject-old"`
	RejectNG  bool `yaml:"reject-ng"`
	Debug     bool `yaml:"debug"`
}

// LoadFileConfig reads and parses a FileConfig from path. A missing path is
// not an error: CLI flags alone are a complete configuration.
func LoadFileConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
