package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TagError marks signals synthesized from a failed wave.
const TagError = "error"

type Signal struct {
	Key        string   `json:"key"`
	Value      any      `json:"value"`
	Confidence float32  `json:"confidence"`
	Source     string   `json:"source"`
	Tags       []string `json:"tags,omitempty"`
}

func NewSignal(key string, value any, confidence float32, source string, tags ...string) Signal {
	return Signal{
		Key:        key,
		Value:      value,
		Confidence: confidence,
		Source:     source,
		Tags:       tags,
	}
}

func (s Signal) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (s Signal) IsError() bool {
	return s.HasTag(TagError)
}

// NumericValue interprets a signal value as a number. Booleans map to 1/0,
// numeric strings are parsed. The second return is false when the value
// cannot be interpreted numerically.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// BoolValue interprets a signal value as a boolean. Numbers are true when
// non-zero, strings are parsed with strconv.ParseBool.
func BoolValue(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	case float64:
		return b != 0, true
	case float32:
		return b != 0, true
	case int:
		return b != 0, true
	}
	return false, false
}

// StringValue renders a signal value as a string. String slices join with
// a comma, nil renders empty.
func StringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []string:
		return strings.Join(s, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
