package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/okian/diabrisk/internal/domain/schema"
)

// Flags only replace config values the user actually set.

func overrideString(fs *pflag.FlagSet, name string, dst *string) {
	if fs.Changed(name) {
		*dst, _ = fs.GetString(name)
	}
}

func overrideInt(fs *pflag.FlagSet, name string, dst *int) {
	if fs.Changed(name) {
		*dst, _ = fs.GetInt(name)
	}
}

func overrideInt64(fs *pflag.FlagSet, name string, dst *int64) {
	if fs.Changed(name) {
		*dst, _ = fs.GetInt64(name)
	}
}

func overrideFloat(fs *pflag.FlagSet, name string, dst *float64) {
	if fs.Changed(name) {
		*dst, _ = fs.GetFloat64(name)
	}
}

// parseFields turns repeated key=value pairs into raw fields.
func parseFields(pairs []string) (schema.RawFields, error) {
	raw := make(schema.RawFields, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --field %q, want key=value", p)
		}
		raw[k] = strings.TrimSpace(v)
	}
	return raw, nil
}
