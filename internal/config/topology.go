package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ExpectConfig is a sink group's (or the global defaults') expectation
// check, per `topology/sinks/defaults.toml`'s `defaults.expect` table.
type ExpectConfig struct {
	Basis      string `toml:"basis"`
	Mode       string `toml:"mode"`
	MinSamples int    `toml:"min_samples"`
}

// SinkDefaultsConfig is `topology/sinks/defaults.toml`.
type SinkDefaultsConfig struct {
	Version  int `toml:"version"`
	Defaults struct {
		Expect ExpectConfig `toml:"expect"`
	} `toml:"defaults"`
}

// LoadSinkDefaults reads topology/sinks/defaults.toml.
func LoadSinkDefaults(path string) (*SinkDefaultsConfig, error) {
	b, err := readBounded(path)
	if err != nil {
		return nil, err
	}
	var cfg SinkDefaultsConfig
	if _, err := toml.Decode(string(b), &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &cfg, nil
}

// SinkEntry is one sink inside a sink_group's `sinks` list.
type SinkEntry struct {
	Name    string                 `toml:"name"`
	Connect string                 `toml:"connect"`
	Params  map[string]interface{} `toml:"params"`
	Expect  *ExpectConfig          `toml:"expect"`
}

// SinkGroupConfig is `topology/sinks/{business,infra}.d/*.toml`'s
// `[sink_group]` table.
type SinkGroupConfig struct {
	Version   int `toml:"version"`
	SinkGroup struct {
		Name   string      `toml:"name"`
		OML    []string    `toml:"oml"`
		Filter string      `toml:"filter"`
		Sinks  []SinkEntry `toml:"sinks"`
	} `toml:"sink_group"`
}

// LoadTopologyDir loads every `*.toml` file directly inside dir as a
// SinkGroupConfig, for either the business.d or infra.d directory.
func LoadTopologyDir(dir string) ([]SinkGroupConfig, error) {
	paths, err := globTOML(dir)
	if err != nil {
		return nil, err
	}
	var out []SinkGroupConfig
	for _, p := range paths {
		b, err := readBounded(p)
		if err != nil {
			return nil, err
		}
		var cfg SinkGroupConfig
		if _, err := toml.Decode(string(b), &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p, err)
		}
		out = append(out, cfg)
	}
	return out, nil
}
