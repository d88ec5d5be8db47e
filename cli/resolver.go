package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/johncclayton/rt-grammar/pkg"
)

// ErrConfig is returned for configuration files that are not valid YAML
// mappings.
var ErrConfig = pkg.NewError("invalid configuration file")

// resolveYAML is a [kong.ConfigurationLoader] for YAML configuration files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolveYAML, "/path/to/config.yaml")
//
// Keys are flag names. Nested mappings join their keys with "-", and
// underscores may stand in for hyphens, so these are equivalent:
//
//	log-level: debug
//	log_level: debug
//	log:
//	  level: debug
//
// Command-line flags and environment variables override file values.
func resolveYAML(r io.Reader) (kong.Resolver, error) {
	var root map[string]any

	err := yaml.NewDecoder(r).Decode(&root)
	if errors.Is(err, io.EOF) {
		return config{}, nil
	}

	if err != nil {
		return nil, ErrConfig.Wrap(err).With(slog.String("format", "yaml"))
	}

	cfg := config{}
	flatten(cfg, "", root)

	return cfg, nil
}

// config implements [kong.Resolver] over a flat map of flag names.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}

// flatten copies m into cfg, joining nested keys with "-". Kong parses
// scalars from strings, so numbers are formatted.
func flatten(cfg config, prefix string, m map[string]any) {
	for key, value := range m {
		name := key
		if prefix != "" {
			name = prefix + "-" + key
		}

		switch v := value.(type) {
		case map[string]any:
			flatten(cfg, name, v)
		case []any:
			items := make([]any, len(v))
			for i, item := range v {
				items[i] = scalar(item)
			}

			cfg[name] = items
		default:
			cfg[name] = scalar(v)
		}
	}
}

func scalar(v any) any {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case nil, bool, string:
		return n
	default:
		return fmt.Sprint(n)
	}
}
