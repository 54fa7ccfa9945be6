package store

import (
	"fmt"
	"strconv"
)

// PositionalArgs orders params keyed "1", "2", ... into query arguments.
// Keys must be numbered from 1 without gaps.
func PositionalArgs(params map[string]any) ([]any, error) {
	args := make([]any, len(params))
	for key, val := range params {
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 || n > len(params) {
			return nil, fmt.Errorf("param %q: expected a position between 1 and %d", key, len(params))
		}
		args[n-1] = val
	}
	return args, nil
}

// TextValue returns byte slices as strings so raw rows encode as readable JSON.
func TextValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
