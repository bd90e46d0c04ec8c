package api

import (
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/settings"
)

// Params are the decoded request parameters of one call.
type Params map[string]interface{}

// Result is the response body of one call.
type Result map[string]interface{}

func missing(key string) error {
	return errors.Wrapf(settings.ErrInvalidParam, "missing parameter %s", key)
}

func badType(key string, v interface{}) error {
	return errors.Wrapf(settings.ErrInvalidParam, "parameter %s has unexpected value %v", key, v)
}

// String returns a required string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", missing(key)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	default:
		return "", badType(key, v)
	}
}

// OptString returns a string parameter or def when it is absent.
func (p Params) OptString(key, def string) (string, error) {
	if _, ok := p[key]; !ok {
		return def, nil
	}
	return p.String(key)
}

// Bool returns a required boolean. The strings "true" and "false" are
// accepted as well.
func (p Params) Bool(key string) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return false, missing(key)
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, badType(key, v)
		}
		return parsed, nil
	default:
		return false, badType(key, v)
	}
}

// OptBool returns a boolean parameter or def when it is absent.
func (p Params) OptBool(key string, def bool) (bool, error) {
	if _, ok := p[key]; !ok {
		return def, nil
	}
	return p.Bool(key)
}

// Int returns a required integer. JSON numbers and numeric strings are
// accepted; fractional values are rejected.
func (p Params) Int(key string) (int, error) {
	f, err := p.Float(key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, badType(key, p[key])
	}
	return int(f), nil
}

// Float returns a required number.
func (p Params) Float(key string) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, missing(key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, badType(key, v)
		}
		return f, nil
	default:
		return 0, badType(key, v)
	}
}
