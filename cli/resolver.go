package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/log"
)

// baseConfig is the base name of the configuration file and of the optional
// global table holding settings.
const baseConfig = "config"

// configTimeout bounds the time spent running a configuration script.
const configTimeout = 5 * time.Second

// resolve returns a [kong.ConfigurationLoader] that runs a configuration
// script and exposes its globals as flag values.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx), "/path/to/config.lua")
//
// The script runs in a fresh interpreter. Afterwards:
//   - Each global names a flag. Flag names with hyphens (e.g., "log-level")
//     use underscores in the script (e.g., "log_level").
//   - Entries of a global table named "config" override top-level globals.
//   - Functions are ignored. Numbers are passed to Kong as strings.
//
// Example config script:
//
//	log_level = "debug"
//	config = { log_pretty = false }
//
// This configuration will be applied to Kong flags:
//
//	--log-level=debug
//	--no-log-pretty
//
// Command-line flags override config file values. A script that fails to
// parse or run is reported and otherwise ignored.
func resolve(ctx context.Context) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		name := baseConfig
		if f, ok := r.(interface{ Name() string }); ok {
			name = f.Name()
		}

		cfg, err := load(ctx, r, name)
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration",
				slog.String("file", name),
				slog.Any("error", err),
			)

			return config{}, nil
		}

		log.DebugContext(ctx, "configuration loaded",
			slog.String("file", name),
			slog.Int("settings", len(cfg)),
		)

		return cfg, nil
	}
}

// load runs the script read from r and collects its settings.
func load(ctx context.Context, r io.Reader, name string) (config, error) {
	ctx, cancel := context.WithTimeout(ctx, configTimeout)
	defer cancel()

	opts := []lang.Option{
		lang.WithCache(nil),
		lang.WithName(name),
		lang.WithLogger(log.Default()),
	}

	chunk, err := lang.ParseReader(ctx, r, opts...)
	if err != nil {
		return nil, err
	}

	in := lang.New(opts...)
	if _, err := in.Exec(ctx, chunk); err != nil {
		return nil, err
	}

	globals := in.GlobalsMap()

	cfg := make(config, len(globals))
	for key, val := range globals {
		cfg[key] = flagValue(val)
	}

	if nested, ok := globals[baseConfig].(map[string]any); ok {
		delete(cfg, baseConfig)

		for key, val := range nested {
			cfg[key] = flagValue(val)
		}
	}

	return cfg, nil
}

// flagValue converts a native value to a form Kong's mappers accept.
func flagValue(v any) any {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagValue(e)
		}

		return out
	default:
		return v
	}
}

// config implements [kong.Resolver] for configuration scripts.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	// Kong flags use hyphens (e.g., "log-level") but script names can't.
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}
