// Package config loads the TOML configuration surface: conf/engine.toml,
// connectors/{source,sink}.d/*.toml, and
// topology/sinks/{defaults,business.d,infra.d}/*.toml, plus an
// allow_override whitelist check and an fsnotify-driven hot-reload
// watcher.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// maxConfigSize bounds a single config file's size before decoding.
// Engine config files are small, so 1 MiB is generous headroom.
const maxConfigSize int64 = 1 << 20 // 1 MiB

var (
	ErrConfigFileTooLarge = errors.New("config file is too large")
	ErrFailedFileRead     = errors.New("failed to read entire config file")
)

// LogConfig is `conf/engine.toml`'s `[log]` section.
type LogConfig struct {
	Level    string `toml:"level"`
	Output   string `toml:"output"`
	FilePath string `toml:"file_path"`
}

// EngineConfig is `conf/engine.toml`.
type EngineConfig struct {
	InstanceID string    `toml:"instance_id"`
	RuleRoot   string    `toml:"rule_root"`
	OMLRoot    string    `toml:"oml_root"`
	SinkRoot   string    `toml:"sink_root"`
	SrcRoot    string    `toml:"src_root"`
	Log        LogConfig `toml:"log"`
}

// LoadEngineConfig reads and decodes conf/engine.toml. If the config
// doesn't carry an instance_id, one is minted here so every log line this
// process emits can be correlated back to a single run.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	b, err := readBounded(path)
	if err != nil {
		return nil, err
	}
	var cfg EngineConfig
	if _, err := toml.Decode(string(b), &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.New().String()
	}
	return &cfg, nil
}

// readBounded stats the file, rejects anything past maxConfigSize, then
// reads it whole.
func readBounded(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() > maxConfigSize {
		return nil, ErrConfigFileTooLarge
	}

	buf := bytes.NewBuffer(nil)
	n, err := io.Copy(buf, f)
	if err != nil {
		return nil, err
	}
	if n != fi.Size() {
		return nil, ErrFailedFileRead
	}
	return buf.Bytes(), nil
}
