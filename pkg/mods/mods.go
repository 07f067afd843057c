// Package mods collects the API modules that can be served.
package mods

import (
	"fmt"
	"sort"
	"strings"

	"src.furver.dev/pkg/config"
	"src.furver.dev/pkg/errutil"
	"src.furver.dev/pkg/eval"
	"src.furver.dev/pkg/mods/core"
	"src.furver.dev/pkg/mods/kv"
)

// Opener opens a module. It returns the bindings of the module and a function
// that releases its resources, which may be nil.
type Opener func(cfg *config.Config) (*eval.Env, func() error, error)

var registry = map[string]Opener{
	"core": func(*config.Config) (*eval.Env, func() error, error) {
		return core.Env(), nil, nil
	},
	"kv": func(cfg *config.Config) (*eval.Env, func() error, error) {
		db, err := kv.Open(cfg.KV.Path)
		if err != nil {
			return nil, nil, err
		}
		return db.Env(), db.Close, nil
	},
}

// Names returns the names of all modules, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the named modules and merges their bindings into one Env, in the
// order of names. A later module overrides bindings of an earlier one with the
// same name. The returned function closes all opened modules.
//
// If any module fails to open, the modules opened so far are closed.
func Open(cfg *config.Config, names []string) (*eval.Env, func() error, error) {
	b := eval.BuildEnv()
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errutil.Multi(errs...)
	}
	for _, name := range names {
		open, ok := registry[name]
		if !ok {
			closeAll()
			return nil, nil, fmt.Errorf("unknown module %q, known modules are %s",
				name, strings.Join(Names(), ", "))
		}
		env, closer, err := open(cfg)
		if err != nil {
			return nil, nil, errutil.Multi(fmt.Errorf("open module %s: %w", name, err), closeAll())
		}
		b.AddEnv(env)
		if closer != nil {
			closers = append(closers, closer)
		}
	}
	return b.Env(), closeAll, nil
}

// ParseNames splits a comma-separated list of module names.
func ParseNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Select returns the names of the modules to open: args if there are any,
// otherwise the comma-separated names in flag if it is not empty, otherwise
// the modules of cfg.
func Select(cfg *config.Config, flag string, args []string) []string {
	switch {
	case len(args) > 0:
		return args
	case flag != "":
		return ParseNames(flag)
	default:
		return cfg.Modules
	}
}
