package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoadEngineConfig(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "engine.toml", `
rule_root = "/etc/wplrouter/rules"
oml_root = "/etc/wplrouter/oml"
sink_root = "/etc/wplrouter/sinks"
src_root = "/etc/wplrouter/sources"

[log]
level = "info"
output = "file"
file_path = "/var/log/wplrouter.log"
`)
	cfg, err := LoadEngineConfig(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RuleRoot != "/etc/wplrouter/rules" || cfg.Log.Level != "info" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadEngineConfigMintsInstanceIDWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "engine.toml", `
rule_root = "/etc/wplrouter/rules"
`)
	cfg, err := LoadEngineConfig(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InstanceID == "" {
		t.Fatal("expected a minted instance_id")
	}

	p2 := writeFile(t, dir, "engine2.toml", `
instance_id = "fixed-id"
rule_root = "/etc/wplrouter/rules"
`)
	cfg2, err := LoadEngineConfig(p2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg2.InstanceID != "fixed-id" {
		t.Fatalf("expected configured instance_id to be preserved, got %q", cfg2.InstanceID)
	}
}

func TestLoadEngineConfigRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	big := make([]byte, maxConfigSize+1)
	p := writeFile(t, dir, "engine.toml", string(big))
	if _, err := LoadEngineConfig(p); err != ErrConfigFileTooLarge {
		t.Fatalf("expected ErrConfigFileTooLarge, got %v", err)
	}
}

func TestLoadConnectorDirConcatenatesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.toml", `
[[connectors]]
id = "tcp-main"
type = "tcp"
allow_override = ["timeout"]
`)
	writeFile(t, dir, "b.toml", `
[[connectors]]
id = "syslog-main"
type = "syslog"
allow_override = ["port"]
`)
	got, err := LoadConnectorDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 connectors, got %d", len(got))
	}
}

func TestLoadTopologyDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "errors.toml", `
version = 1
[sink_group]
name = "errors"
oml = ["*.error"]
[[sink_group.sinks]]
name = "error-file"
connect = "file-error"
`)
	groups, err := LoadTopologyDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(groups) != 1 || groups[0].SinkGroup.Name != "errors" {
		t.Fatalf("unexpected groups: %+v", groups)
	}
}

func TestValidateOverrideRejectsUnknownKey(t *testing.T) {
	err := ValidateOverride([]string{"timeout"}, map[string]interface{}{"timeout": 5, "secret": "x"})
	if err == nil {
		t.Fatal("expected override-not-allowed error")
	}
}

func TestValidateOverrideAllowsWhitelistedKeys(t *testing.T) {
	if err := ValidateOverride([]string{"timeout", "port"}, map[string]interface{}{"port": 514}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
