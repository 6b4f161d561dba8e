package variables

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

// Map is one layer of variables. Values may be nested maps addressed with
// dot paths.
type Map map[string]any

// Maps is an ordered list of layers; later layers take precedence.
type Maps []Map

// Lookup resolves key against the layers from last to first. In each layer
// the full key is tried before the dot path. The first non-empty scalar wins.
func (ms Maps) Lookup(key string) (string, bool) {
	for i := len(ms) - 1; i >= 0; i-- {
		m := ms[i]
		if m == nil {
			continue
		}
		if v, ok := m[key]; ok {
			if s, ok := scalar(v); ok && s != "" {
				return s, true
			}
		}
		if !strings.Contains(key, ".") {
			continue
		}
		if v, ok := lookupPath(m, strings.Split(key, ".")); ok {
			if s, ok := scalar(v); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// With returns a copy of ms with extra layers appended above it.
func (ms Maps) With(layers ...Map) Maps {
	out := make(Maps, 0, len(ms)+len(layers))
	out = append(out, ms...)
	for _, l := range layers {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

// ReplaceAll returns a deep copy of ms with old replaced by repl in every
// string value.
func (ms Maps) ReplaceAll(old, repl string) Maps {
	out := make(Maps, len(ms))
	for i, m := range ms {
		if m != nil {
			out[i], _ = replaceValue(m, old, repl).(Map)
		}
	}
	return out
}

func replaceValue(v any, old, repl string) any {
	switch t := v.(type) {
	case string:
		return strings.ReplaceAll(t, old, repl)
	case Map:
		out := make(Map, len(t))
		for k, child := range t {
			out[k] = replaceValue(child, old, repl)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = replaceValue(child, old, repl)
		}
		return out
	default:
		return v
	}
}

func lookupPath(m Map, parts []string) (any, bool) {
	var cur any = m
	for _, p := range parts {
		switch node := cur.(type) {
		case Map:
			cur = node[p]
		case map[string]any:
			cur = node[p]
		case map[any]any:
			cur = node[p]
		default:
			return nil, false
		}
		if cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int, int64, int32, uint, uint64, uint32:
		return fmt.Sprint(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	default:
		return "", false
	}
}

// SiteData nests data under site.data, the namespace keyref files and
// conref sections are published in.
func SiteData(data map[string]any) Map {
	return Map{"site": map[string]any{"data": data}}
}

// LoadYAMLFile reads a keyref-style YAML document. A missing file yields a
// nil map and no error.
func LoadYAMLFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read variables file").
			WithContext("path", path).
			Build()
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "failed to parse variables file").
			WithContext("path", path).
			Warning().
			Build()
	}
	return out, nil
}
