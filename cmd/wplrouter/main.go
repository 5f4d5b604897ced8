// Command wplrouter is the long-running daemon entrypoint: it loads the
// TOML configuration surface, wires the collector, parser-worker pool,
// router, and sinks together, and runs until a SIGINT/SIGTERM/SIGQUIT
// shuts it down gracefully.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gravwell/wplrouter/collector"
	"github.com/gravwell/wplrouter/entry"
	"github.com/gravwell/wplrouter/internal/config"
	"github.com/gravwell/wplrouter/internal/lifecycle"
	"github.com/gravwell/wplrouter/internal/ruleset"
	"github.com/gravwell/wplrouter/internal/wlog"
	"github.com/gravwell/wplrouter/oml"
	"github.com/gravwell/wplrouter/router"
	"github.com/gravwell/wplrouter/router/filter"
	"github.com/gravwell/wplrouter/sink"
	"github.com/gravwell/wplrouter/sink/blackhole"
	sinkfile "github.com/gravwell/wplrouter/sink/file"
	"github.com/gravwell/wplrouter/sink/format"
	netsink "github.com/gravwell/wplrouter/sink/net"
	"github.com/gravwell/wplrouter/sink/testrescue"
	srcfile "github.com/gravwell/wplrouter/source/file"
	"github.com/gravwell/wplrouter/stats"
	"github.com/gravwell/wplrouter/worker"
)

const defaultWorkers = 4

func main() {
	configPath := flag.String("config", "conf/engine.toml", "path to engine.toml")
	workers := flag.Int("workers", defaultWorkers, "parser worker pool size")
	flag.Parse()

	if err := run(*configPath, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "wplrouter: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workers int) error {
	cfg, err := config.LoadEngineConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", configPath, err)
	}

	lg, err := buildLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer lg.Close()
	lg.Info("starting", wlog.KV("instance_id", cfg.InstanceID))

	rules, err := ruleset.LoadDir(cfg.RuleRoot)
	if err != nil {
		return fmt.Errorf("loading rules from %s: %w", cfg.RuleRoot, err)
	}

	ctx, stop := lifecycle.WithSignalShutdown(context.Background())
	defer stop()

	sinkConnectors, err := loadSinkConnectors(cfg.SrcRoot)
	if err != nil {
		return fmt.Errorf("loading sink connectors: %w", err)
	}

	var writers []sink.Writer
	groups, err := loadGroups(ctx, filepath.Join(cfg.SinkRoot, "business.d"), sinkConnectors, lg, &writers)
	if err != nil {
		return fmt.Errorf("loading business sink groups: %w", err)
	}
	infra, err := loadInfra(ctx, filepath.Join(cfg.SinkRoot, "infra.d"), sinkConnectors, lg, &writers)
	if err != nil {
		return fmt.Errorf("loading infra sink groups: %w", err)
	}

	sources, err := loadSources(cfg.SrcRoot)
	if err != nil {
		return fmt.Errorf("loading sources from %s: %w", cfg.SrcRoot, err)
	}

	statsCollector := stats.NewCollector(64)
	rt := router.New(groups, infra, statsCollector)

	if workers < 1 {
		workers = defaultWorkers
	}
	batchCh := make(chan entry.Batch, workers*4)
	pool := worker.New(workers, batchCh, rules, oml.Noop{}, rt, lg)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pool.Run(ctx)
	}()

	picker := collector.NewPicker(lg)
	disp := chanDispatcher{ch: batchCh}
	for _, src := range sources {
		src := src
		wg.Add(1)
		go func() {
			defer wg.Done()
			picker.Run(ctx, src, disp)
		}()
	}

	<-ctx.Done()
	lg.Info("shutdown signal received, draining")
	wg.Wait()
	close(batchCh)

	for _, w := range writers {
		if err := w.Close(); err != nil {
			lg.Warn("error closing sink", wlog.KV("sink", w.Name()), wlog.KVErr(err))
		}
	}
	return nil
}

// chanDispatcher adapts a channel to collector.Dispatcher.
type chanDispatcher struct {
	ch chan<- entry.Batch
}

func (d chanDispatcher) TrySend(b entry.Batch) bool {
	select {
	case d.ch <- b:
		return true
	default:
		return false
	}
}

func buildLogger(lc config.LogConfig) (*wlog.Logger, error) {
	switch lc.Output {
	case "file":
		if lc.FilePath == "" {
			return nil, fmt.Errorf("log.output is \"file\" but log.file_path is empty")
		}
		lg, err := wlog.NewFile(lc.FilePath)
		if err != nil {
			return nil, err
		}
		if lc.Level != "" {
			if err := lg.SetLevelString(lc.Level); err != nil {
				return nil, err
			}
		}
		return lg, nil
	case "discard":
		return wlog.NewDiscard(), nil
	default:
		lg := wlog.New(os.Stdout)
		if lc.Level != "" {
			if err := lg.SetLevelString(lc.Level); err != nil {
				return nil, err
			}
		}
		return lg, nil
	}
}

// loadSinkConnectors reads the sink-connector definitions that sit
// alongside the source connectors, keyed by id. Conventionally laid out
// as a `sink.d` sibling of `src_root`'s `source.d` directory (both under
// one `connectors/` root): `connectors/sink.d/*.toml`.
func loadSinkConnectors(srcRoot string) (map[string]config.ConnectorConfig, error) {
	sinkDir := filepath.Join(filepath.Dir(srcRoot), "sink.d")
	ccs, err := config.LoadConnectorDir(sinkDir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]config.ConnectorConfig, len(ccs))
	for _, c := range ccs {
		out[c.ID] = c
	}
	return out, nil
}

// loadSources builds one collector.Source per `file`-type source
// connector under srcRoot. Other connector kinds (`tcp`, `syslog`) are
// wired on the sink side (sink/net); a listening source counterpart is
// not implemented in this pass and is logged, not silently dropped.
func loadSources(srcRoot string) ([]collector.Source, error) {
	ccs, err := config.LoadConnectorDir(srcRoot)
	if err != nil {
		return nil, err
	}
	var out []collector.Source
	for _, c := range ccs {
		switch c.Type {
		case "file":
			path := paramString(c.Params, "path", "")
			if path == "" {
				return nil, fmt.Errorf("source connector %s: params.path is required", c.ID)
			}
			src, err := srcfile.Open(c.ID, path, paramStringMap(c.Params, "tags"))
			if err != nil {
				return nil, fmt.Errorf("source connector %s: %w", c.ID, err)
			}
			out = append(out, src)
		default:
			fmt.Fprintf(os.Stderr, "wplrouter: source connector %s: unsupported type %q, skipping\n", c.ID, c.Type)
		}
	}
	return out, nil
}

func loadGroups(ctx context.Context, dir string, connectors map[string]config.ConnectorConfig, lg *wlog.Logger, writers *[]sink.Writer) ([]router.SinkGroup, error) {
	// LoadTopologyDir globs dir for *.toml; a dir that doesn't exist yet
	// (e.g. no business groups configured) simply yields no matches.
	cfgs, err := config.LoadTopologyDir(dir)
	if err != nil {
		return nil, err
	}
	var out []router.SinkGroup
	for _, c := range cfgs {
		g, err := buildGroup(ctx, c, connectors, lg, writers)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func loadInfra(ctx context.Context, dir string, connectors map[string]config.ConnectorConfig, lg *wlog.Logger, writers *[]sink.Writer) (map[string]sink.Writer, error) {
	cfgs, err := config.LoadTopologyDir(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]sink.Writer, len(cfgs))
	for _, c := range cfgs {
		g, err := buildGroup(ctx, c, connectors, lg, writers)
		if err != nil {
			return nil, err
		}
		out[g.Name] = fanout(g.Writers)
	}
	return out, nil
}

func buildGroup(ctx context.Context, c config.SinkGroupConfig, connectors map[string]config.ConnectorConfig, lg *wlog.Logger, writers *[]sink.Writer) (router.SinkGroup, error) {
	g := router.SinkGroup{Name: c.SinkGroup.Name}
	if c.SinkGroup.Filter != "" {
		expr, err := filter.Compile(c.SinkGroup.Filter)
		if err != nil {
			return router.SinkGroup{}, fmt.Errorf("sink group %s: filter: %w", c.SinkGroup.Name, err)
		}
		g.Filter = expr
	}
	for _, se := range c.SinkGroup.Sinks {
		w, err := buildWriter(ctx, se, connectors, lg)
		if err != nil {
			return router.SinkGroup{}, fmt.Errorf("sink group %s: sink %s: %w", c.SinkGroup.Name, se.Name, err)
		}
		g.Writers = append(g.Writers, w)
		*writers = append(*writers, w)
	}
	return g, nil
}

func buildWriter(ctx context.Context, se config.SinkEntry, connectors map[string]config.ConnectorConfig, lg *wlog.Logger) (sink.Writer, error) {
	cc, ok := connectors[se.Connect]
	if !ok {
		return nil, fmt.Errorf("unknown connector %q", se.Connect)
	}
	if err := config.ValidateOverride(cc.AllowOverride, se.Params); err != nil {
		return nil, err
	}
	params := mergeParams(cc.Params, se.Params)

	fm := format.ByName(paramString(params, "format", format.Raw))
	policy := overflowPolicy(paramString(params, "overflow", "block"))
	chanCap := paramInt(params, "queue_size", 1024)

	switch cc.Type {
	case "file":
		path := paramString(params, "path", "")
		if path == "" {
			return nil, fmt.Errorf("connector %s: params.path is required", se.Connect)
		}
		return sinkfile.Open(se.Name, path, fm, policy, chanCap, lg)
	case "tcp":
		addr := paramString(params, "addr", "")
		if addr == "" {
			return nil, fmt.Errorf("connector %s: params.addr is required", se.Connect)
		}
		backoff := netsink.DefaultBackpressureCfg()
		if paramBool(params, "adaptive_backoff", false) {
			backoff = netsink.AdaptiveBackpressureCfg()
		}
		w := netsink.New(se.Name, addr, fm, policy, backoff, chanCap, lg)
		go w.Run(ctx)
		return w, nil
	case "syslog":
		addr := paramString(params, "addr", "")
		if addr == "" {
			return nil, fmt.Errorf("connector %s: params.addr is required", se.Connect)
		}
		backoff := netsink.DefaultBackpressureCfg()
		sfm := format.NewRFC3164(fm, "wplrouter")
		w := netsink.New(se.Name, addr, sfm, policy, backoff, chanCap, lg)
		go w.Run(ctx)
		return w, nil
	case "blackhole":
		return blackhole.New(se.Name), nil
	case "test_rescue":
		return testrescue.New(se.Name), nil
	default:
		return nil, fmt.Errorf("unsupported connector type %q", cc.Type)
	}
}

// fanout fans Send/Close out to every writer in ws, satisfying sink.Writer
// for an infra group (router.Infra is single-writer-keyed) that names
// more than one concrete sink.
type fanoutWriter struct {
	name string
	ws   []sink.Writer
}

func fanout(ws []sink.Writer) sink.Writer {
	if len(ws) == 1 {
		return ws[0]
	}
	name := "fanout"
	if len(ws) > 0 {
		name = ws[0].Name()
	}
	return fanoutWriter{name: name, ws: ws}
}

func (f fanoutWriter) Name() string { return f.name }

func (f fanoutWriter) Send(rec sink.Record) bool {
	ok := true
	for _, w := range f.ws {
		if !w.Send(rec) {
			ok = false
		}
	}
	return ok
}

func (f fanoutWriter) Close() error {
	var err error
	for _, w := range f.ws {
		if e := w.Close(); e != nil {
			err = e
		}
	}
	return err
}

func overflowPolicy(s string) sink.OverflowPolicy {
	switch s {
	case "drop_newest":
		return sink.DropNewest
	case "drop_oldest":
		return sink.DropOldest
	default:
		return sink.Block
	}
}

func mergeParams(base, override map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func paramString(m map[string]interface{}, key, def string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func paramBool(m map[string]interface{}, key string, def bool) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func paramInt(m map[string]interface{}, key string, def int) int {
	switch v := m[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func paramStringMap(m map[string]interface{}, key string) map[string]string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	raw, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, vv := range raw {
		if s, ok := vv.(string); ok {
			out[k] = s
		}
	}
	return out
}
