// pkg/fiscal/fields.go
package fiscal

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fiscal-bridge/internal/model"
)

// Lookup resolves a dotted field path ("data.number") inside a payload.
// Providers are inconsistent about field names, so extraction walks a
// precedence list of such paths.
func Lookup(payload model.JSONObject, path string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(payload)

	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			if jo, isJO := current.(model.JSONObject); isJO {
				obj = map[string]interface{}(jo)
			} else {
				return nil, false
			}
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// FirstField returns the normalized text value of the first path in the
// precedence list that resolves to a usable value.
func FirstField(payload model.JSONObject, paths []string) (string, bool) {
	for _, path := range paths {
		raw, ok := Lookup(payload, path)
		if !ok {
			continue
		}
		if value, ok := NormalizeValue(raw); ok {
			return value, true
		}
	}
	return "", false
}

// NormalizeValue converts a JSON scalar to its uniform text form.
// Backends expect fiscal numbers as strings; numeric values must not
// pick up exponent notation or float drift on the way.
func NormalizeValue(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return decimal.NewFromFloat(v).String(), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// FirstBool resolves the first path that yields a boolean-like value.
// Accepts true/false, "open"/"closed", and 1/0 forms.
func FirstBool(payload model.JSONObject, paths []string) (bool, bool) {
	for _, path := range paths {
		raw, ok := Lookup(payload, path)
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			switch strings.ToLower(v) {
			case "true", "open", "opened", "1":
				return true, true
			case "false", "closed", "0":
				return false, true
			}
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n != 0, true
			}
		case float64:
			return v != 0, true
		}
	}
	return false, false
}

// FirstTime resolves the first path that parses as a timestamp
func FirstTime(payload model.JSONObject, paths []string) (*time.Time, bool) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, path := range paths {
		raw, ok := Lookup(payload, path)
		if !ok {
			continue
		}
		text, ok := raw.(string)
		if !ok || text == "" {
			continue
		}
		for _, layout := range layouts {
			if ts, err := time.Parse(layout, text); err == nil {
				return &ts, true
			}
		}
	}
	return nil, false
}
