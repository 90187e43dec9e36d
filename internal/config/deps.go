package config

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// RelPath normalizes a source path: paths already starting with ./ or ../
// are kept, absolute paths are made relative to the project dir and
// anything else is prefixed with ./.
func (c *Config) RelPath(path string) string {
	if dotted(path) {
		return path
	}
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(c.projectDir, path)
		if err != nil {
			return path
		}
		if dotted(rel) {
			return rel
		}
		path = rel
	}
	return "." + string(filepath.Separator) + path
}

func dotted(path string) bool {
	if path == "." || path == ".." {
		return true
	}
	for _, prefix := range []string{"./", "../", "." + string(filepath.Separator), ".." + string(filepath.Separator)} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// FilesDependencies records, for each source file, the files it must be
// compiled after. A value is one path or a list of paths; the last entry
// recorded for a file wins.
func (c *Config) FilesDependencies(deps map[string]any) error {
	keys := make([]string, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		list, err := toStrings(deps[k])
		if err != nil {
			return errors.Wrapf(err, "dependencies of %s", k)
		}
		c.SetFileDependencies(k, list...)
	}
	return nil
}

// SetFileDependencies replaces the dependencies of one source file.
func (c *Config) SetFileDependencies(file string, deps ...string) {
	norm := make([]string, len(deps))
	for i, d := range deps {
		norm[i] = c.RelPath(d)
	}
	c.dependencies[c.RelPath(file)] = norm
}

// Dependencies returns a copy of the recorded file dependencies.
func (c *Config) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(c.dependencies))
	for k, v := range c.dependencies {
		deps[k] = clone(v)
	}
	return deps
}

// toStrings coerces one value or a list of values to a list of strings.
func toStrings(v any) ([]string, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return clone(v), nil
	case []any:
		list := make([]string, len(v))
		for i, e := range v {
			s, err := cast.ToStringE(e)
			if err != nil {
				return nil, err
			}
			list[i] = s
		}
		return list, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}
