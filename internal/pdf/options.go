package pdf

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

// LoadOptions reads a wkhtmltopdf options file, a YAML (or JSON) mapping of
// long option names to values, and returns command line arguments in key
// order. camelCase names are dashed ("pageSize" is --page-size). true becomes
// a bare flag, false and null drop the option.
func LoadOptions(path string) ([]string, error) {
	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read PDF options file").
			WithContext("path", path).
			Build()
	}
	var opts map[string]any
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid PDF options file").
			WithContext("path", path).
			Build()
	}
	return optionArgs(opts), nil
}

func optionArgs(opts map[string]any) []string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		name := "--" + dashed(k)
		switch v := opts[k].(type) {
		case nil:
		case bool:
			if v {
				args = append(args, name)
			}
		default:
			args = append(args, name, fmt.Sprint(v))
		}
	}
	return args
}

func dashed(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
