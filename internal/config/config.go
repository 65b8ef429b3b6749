// Package config loads dexstr defaults from a YAML file.
//
// The file holds flag names as keys, for example:
//
//	output: reports
//	r2: /opt/radare2/bin/r2
//	preview: 10
//	exclude: ["^Landroid/", "^Ljava/"]
//
// Values from the file fill in flags that were not given on the command
// line.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// DefaultPaths are consulted when no --config flag is given. Missing files
// are ignored.
var DefaultPaths = []string{".dexstr.yaml", "~/.config/dexstr/config.yaml"}

// Loader is a kong.ConfigurationLoader for YAML files.
func Loader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	return Resolver(values), nil
}

// Resolver returns a kong.Resolver answering flags from values. Keys may
// use dashes or underscores.
func Resolver(values map[string]any) kong.Resolver {
	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		for _, key := range []string{flag.Name, strings.ReplaceAll(flag.Name, "-", "_")} {
			if raw, ok := values[key]; ok {
				return flagValue(raw), nil
			}
		}
		return nil, nil
	})
}

// flagValue renders scalars the way they would be typed on the command
// line so kong's own mappers do the conversion. Lists are passed through
// as []any, which kong decodes into slice flags element by element.
func flagValue(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = fmt.Sprint(item)
		}
		return items
	default:
		return fmt.Sprint(v)
	}
}
