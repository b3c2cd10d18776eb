package usecases

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/mapcat/internal/core/domain"
)

type paramType int

const (
	paramString paramType = iota
	paramFloat
	paramInt
)

// numericParams are coerced whenever present, whatever the command.
var numericParams = map[string]paramType{
	"opacity":      paramFloat,
	"radius":       paramInt,
	"border":       paramInt,
	"width":        paramInt,
	"markers":      paramInt,
	"markerBorder": paramInt,
}

type paramDefault struct {
	key   string
	value any
}

const defaultColor = "#007cff"

var (
	pointDefaults = []paramDefault{
		{"color", defaultColor},
		{"opacity", 1.0},
		{"radius", 4},
		{"border", 2},
	}
	polylineDefaults = []paramDefault{
		{"color", defaultColor},
		{"opacity", 1.0},
		{"width", 2},
		{"markers", 0},
		{"markerBorder", 2},
	}
	polygonDefaults = []paramDefault{
		{"color", defaultColor},
		{"opacity", 0.3},
		{"border", 2},
	}
)

// resolveParams copies raw, coerces numeric fields and fills missing defaults.
// raw is never modified.
func resolveParams(cmd string, raw map[string]string, defaults []paramDefault) (domain.Params, error) {
	out := make(domain.Params, len(raw)+len(defaults))
	for key, value := range raw {
		v, err := coerce(key, value)
		if err != nil {
			return nil, newCommandError(cmd, ErrInvalidParameter, "%s: %v", key, err)
		}
		out[key] = v
	}
	for _, d := range defaults {
		if _, ok := out[d.key]; !ok {
			out[d.key] = d.value
		}
	}
	return out, nil
}

func coerce(key, value string) (any, error) {
	switch numericParams[key] {
	case paramFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, errNumber(value, "a number")
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errNumber(value, "a finite number")
		}
		return f, nil
	case paramInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, errNumber(value, "an integer")
		}
		return n, nil
	default:
		return value, nil
	}
}

func errNumber(value, want string) error {
	return fmt.Errorf("%q is not %s", value, want)
}

// FormatParam renders a resolved parameter value as text.
func FormatParam(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
