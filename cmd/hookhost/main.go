// Command hookhost is a small host simulator for exercising callback
// modules outside a real game server. It loads a TOML catalog and a
// directory of Lua callback modules, binds the hooks API into each, then
// dispatches every catalog function once with default arguments against a
// stub original, printing the final return values.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/hookchain/internal/abi"
	"github.com/dshills/hookchain/internal/catalog"
	"github.com/dshills/hookchain/internal/config"
	"github.com/dshills/hookchain/internal/dispatch"
	"github.com/dshills/hookchain/internal/hook"
	"github.com/dshills/hookchain/internal/natives"
	"github.com/dshills/hookchain/internal/script/luahost"
	"github.com/dshills/hookchain/internal/value"
)

func main() {
	configPath := flag.String("config", "hookhost.toml", "path to the host configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookhost: %v\n", err)
		os.Exit(1)
	}

	log, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookhost: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("hookhost failed", zap.Error(err))
		os.Exit(1)
	}
}

func buildLogger(lc config.Logging) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func run(cfg *config.Config, log *zap.Logger) error {
	cat, err := catalog.LoadFile(cfg.Catalog.Path, cfg.FeatureSet())
	if err != nil {
		return err
	}

	refs := catalog.NewRefTable()
	host := luahost.New(log)
	defer host.Close()

	reg := hook.NewRegistry(cat, log)
	driver := dispatch.NewDriver(reg, host, log)
	api := natives.New(natives.Config{
		Catalog:  cat,
		Registry: reg,
		Driver:   driver,
		Host:     host,
		Resolver: refs,
		Logger:   log,
	})

	if err := loadScripts(host, api, cfg.Scripts.Dir, log); err != nil {
		return err
	}

	// Dispatch every function once so registered chains run.
	for _, fn := range cat.Functions() {
		if !fn.IsAvailable() {
			log.Info("skipping unavailable function",
				zap.String("function", fn.Name),
				zap.String("requires", fn.Requires))
			continue
		}

		args := defaultArgs(fn)
		result, err := driver.Dispatch(fn.ID, args, stubOriginal(fn, log))
		if err != nil {
			log.Error("dispatch failed", zap.String("function", fn.Name), zap.Error(err))
			continue
		}
		fmt.Printf("%s -> %s\n", fn.Name, result)
	}
	return nil
}

// loadScripts creates one module per Lua file, binds the hooks API, then
// runs the file so it can register its callbacks.
func loadScripts(host *luahost.Host, api *natives.API, dir string, log *zap.Logger) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.Warn("no callback modules found", zap.String("dir", dir))
		return nil
	}

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".lua")
		mod, err := host.NewModule(name)
		if err != nil {
			return err
		}
		api.Bind(mod.State(), name)
		if err := mod.DoFile(path); err != nil {
			return fmt.Errorf("loading module %q: %w", name, err)
		}
		log.Info("callback module loaded",
			zap.String("module", name),
			zap.String("instance", mod.ID().String()))
	}
	return nil
}

// defaultArgs builds a zero-valued argument list for a signature.
func defaultArgs(fn *catalog.Function) []value.Value {
	args := make([]value.Value, len(fn.Args))
	for i, k := range fn.Args {
		args[i] = value.Zero(k)
	}
	return args
}

// stubOriginal stands in for the native implementation: it logs the
// arguments it observed and returns the return kind's default, so any
// value the caller sees beyond that came from a handler.
func stubOriginal(fn *catalog.Function, log *zap.Logger) dispatch.Original {
	return func(args *abi.Block) (value.Value, error) {
		fields := make([]zap.Field, 0, args.Len()+1)
		fields = append(fields, zap.String("function", fn.Name))
		for i := 0; i < args.Len(); i++ {
			v, err := args.Read(i)
			if err != nil {
				return value.Value{}, err
			}
			fields = append(fields, zap.String(fmt.Sprintf("arg%d", i+1), v.String()))
		}
		log.Info("original invoked", fields...)
		return value.Zero(fn.Return), nil
	}
}
