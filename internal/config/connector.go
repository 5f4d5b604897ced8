package config

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// ConnectorConfig is one `[[connectors]]` entry from a
// connectors/{source,sink}.d/*.toml file.
type ConnectorConfig struct {
	ID            string                 `toml:"id"`
	Type          string                 `toml:"type"`
	AllowOverride []string               `toml:"allow_override"`
	Params        map[string]interface{} `toml:"params"`
}

type connectorsFile struct {
	Connectors []ConnectorConfig `toml:"connectors"`
}

// LoadConnectorDir loads and concatenates every `*.toml` file directly
// inside dir (not recursive), matching the `connectors/source.d/*.toml`
// / `connectors/sink.d/*.toml` glob. Files are processed in lexical
// order so duplicate connector IDs resolve deterministically (last file
// wins).
func LoadConnectorDir(dir string) ([]ConnectorConfig, error) {
	paths, err := globTOML(dir)
	if err != nil {
		return nil, err
	}
	var out []ConnectorConfig
	for _, p := range paths {
		b, err := readBounded(p)
		if err != nil {
			return nil, err
		}
		var cf connectorsFile
		if _, err := toml.Decode(string(b), &cf); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p, err)
		}
		out = append(out, cf.Connectors...)
	}
	return out, nil
}

func globTOML(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
