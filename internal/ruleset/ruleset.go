// Package ruleset loads compiled WPL rules from a directory and
// resolves a source key to its rule, satisfying worker.RuleSet.
// Resolution tries an exact source-key match first, then falls back to
// a glob match against each rule's file-name pattern, per the
// discipline documented on worker.RuleSet itself.
package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/gravwell/wplrouter/wpl/ast"
	"github.com/gravwell/wplrouter/wpl/parse"
)

type entry struct {
	key  string
	rule *ast.Rule
	g    glob.Glob // non-nil when key contains a glob meta character
}

// RuleSet resolves a source key to a compiled rule.
type RuleSet struct {
	exact map[string]*ast.Rule
	globs []entry
}

// LoadDir parses every `*.wpl` file directly under dir. A file's base
// name without extension is its source key — e.g. `web-access.wpl`
// resolves source key `web-access` exactly, while `web-*.wpl` is kept as
// a glob fallback for any source key not matched exactly.
func LoadDir(dir string) (*RuleSet, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.wpl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	rs := &RuleSet{exact: make(map[string]*ast.Rule)}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		rule, err := parse.ParseRuleSource(string(b))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		key := strings.TrimSuffix(filepath.Base(p), ".wpl")
		if strings.ContainsAny(key, "*?[") {
			g, err := glob.Compile(key)
			if err != nil {
				return nil, fmt.Errorf("compile glob rule key %q: %w", key, err)
			}
			rs.globs = append(rs.globs, entry{key: key, rule: rule, g: g})
			continue
		}
		rs.exact[key] = rule
	}
	return rs, nil
}

// RuleFor implements worker.RuleSet.
func (rs *RuleSet) RuleFor(sourceKey string) (*ast.Rule, bool) {
	if r, ok := rs.exact[sourceKey]; ok {
		return r, true
	}
	for _, e := range rs.globs {
		if e.g.Match(sourceKey) {
			return e.rule, true
		}
	}
	return nil, false
}
