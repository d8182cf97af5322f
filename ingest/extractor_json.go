package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

var _ Extractor = JSONExtractor{}

// JSONExtractor walks arbitrary JSON structures producing readable
// dotted key-path text, one line per leaf value, keys in sorted order
// so output is deterministic.
type JSONExtractor struct{}

// maxJSONDepth bounds recursion for deeply nested input.
const maxJSONDepth = 100

func (JSONExtractor) Extract(content []byte) (string, error) {
	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return "", nil
	}
	var data any
	if err := json.Unmarshal(content, &data); err != nil {
		return "", fmt.Errorf("parse json: %w", err)
	}
	var lines []string
	flattenJSON("", data, &lines, 0)
	return strings.Join(lines, "\n"), nil
}

func flattenJSON(prefix string, v any, lines *[]string, depth int) {
	if depth >= maxJSONDepth {
		*lines = append(*lines, fmt.Sprintf("%s: <truncated>", orValue(prefix)))
		return
	}
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flattenJSON(key, val[k], lines, depth+1)
		}
	case []any:
		if allPrimitive(val) {
			strs := make([]string, len(val))
			for i, item := range val {
				strs[i] = formatJSONValue(item)
			}
			*lines = append(*lines, fmt.Sprintf("%s: %s", orValue(prefix), strings.Join(strs, ", ")))
		} else {
			for _, item := range val {
				flattenJSON(prefix, item, lines, depth+1)
			}
		}
	case nil:
		// skip nulls
	default:
		*lines = append(*lines, fmt.Sprintf("%s: %s", orValue(prefix), formatJSONValue(val)))
	}
}

func orValue(prefix string) string {
	if prefix == "" {
		return "value"
	}
	return prefix
}

func allPrimitive(arr []any) bool {
	for _, v := range arr {
		switch v.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func formatJSONValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", val)
	}
}
