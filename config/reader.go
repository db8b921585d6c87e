package config

import (
	"bytes"
	"io"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.viam.com/voxelnav/logging"
)

// Read loads parameters from a YAML file with environment variables expanded, applies the
// key=value overrides, and validates the result.
func Read(path string, logger logging.Logger, overrides ...string) (*Parameters, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading parameters %q", path)
	}
	params, err := FromReader(bytes.NewReader(buf), overrides...)
	if err != nil {
		return nil, errors.Wrapf(err, "parameters %q", path)
	}
	logger.Debugw("loaded parameters", "path", path, "overrides", overrides)
	return params, nil
}

// FromReader decodes a YAML document onto the defaults, applies overrides, and validates.
func FromReader(r io.Reader, overrides ...string) (*Parameters, error) {
	raw := map[string]interface{}{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decoding yaml")
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	if err := ApplyOverrides(raw, overrides); err != nil {
		return nil, err
	}
	return FromMap(raw)
}

// FromMap decodes a nested map onto the defaults and validates. Keys follow the json tag names and
// values are weakly typed, so "10" fills an int field. Unknown keys are rejected.
func FromMap(raw map[string]interface{}) (*Parameters, error) {
	params := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           params,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "decoding parameters")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// ApplyOverrides sets each "section.key=value" pair into raw, creating nested maps as needed.
func ApplyOverrides(raw map[string]interface{}, overrides []string) error {
	for _, o := range overrides {
		key, value, ok := strings.Cut(o, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return errors.Errorf("override %q is not key=value", o)
		}
		if err := setPath(raw, strings.Split(key, "."), strings.TrimSpace(value)); err != nil {
			return errors.Wrapf(err, "override %q", o)
		}
	}
	return nil
}

func setPath(m map[string]interface{}, path []string, value interface{}) error {
	for i, part := range path[:len(path)-1] {
		next, ok := m[part]
		if !ok {
			child := map[string]interface{}{}
			m[part] = child
			m = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return errors.Errorf("%q is not a section", strings.Join(path[:i+1], "."))
		}
		m = child
	}
	m[path[len(path)-1]] = value
	return nil
}
