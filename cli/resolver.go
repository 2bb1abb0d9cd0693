package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nestex/log"
	"github.com/ardnew/nestex/props"
)

// resolve returns a [kong.ConfigurationLoader] for YAML configuration files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx), "/path/to/config.yaml")
//
// A flag is looked up by its name, by its name with hyphens replaced by
// underscores, and by its name with hyphens replaced by dots. So each of the
// following sets --log-level:
//
//	log-level: debug
//	log_level: debug
//	log:
//	  level: debug
//
// Command-line flags override configuration values. A file that cannot be
// decoded is logged and ignored.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		m, err := props.Load(ctx, r)
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration",
				slog.String("error", err.Error()),
			)

			return config{}, nil
		}

		return config(m), nil
	}
}

// config implements [kong.Resolver] for decoded YAML configuration.
type config props.Map

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	m := props.Map(c)

	for _, key := range []string{
		flag.Name,
		strings.ReplaceAll(flag.Name, "-", "_"),
		strings.ReplaceAll(flag.Name, "-", "."),
	} {
		if v, ok := m.Lookup(key); ok {
			return flagValue(v), nil
		}
	}

	// Let kong use the default.
	return nil, nil
}

// flagValue converts decoded YAML scalars into values kong can map. Kong
// parses numbers from strings, and nested mappings are not flag values.
func flagValue(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case props.Map:
		return nil
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
