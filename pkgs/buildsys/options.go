package buildsys

import (
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Options holds the build-system specific settings of a vendor project.
// Values typically come straight from YAML, so they are coerced on read.
type Options map[string]any

// String returns the option key as a string, or def when it is unset.
func (o Options) String(key, def string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", errors.Wrapf(err, "option %s", key)
	}
	return s, nil
}

// Strings returns the option key as a list. A single value becomes a
// one-element list.
func (o Options) Strings(key string) ([]string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	ss, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, errors.Wrapf(err, "option %s", key)
	}
	return ss, nil
}

// StringMap returns the option key as a string-to-string mapping.
func (o Options) StringMap(key string) (map[string]string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapStringE(v)
	if err != nil {
		return nil, errors.Wrapf(err, "option %s", key)
	}
	return m, nil
}

// Map returns the option key as a mapping with its values left as decoded.
func (o Options) Map(key string) (map[string]any, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, errors.Wrapf(err, "option %s", key)
	}
	return m, nil
}
