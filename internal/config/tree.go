package config

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// deepMerge merges src into dst: scalars and lists replace, maps recurse.
func deepMerge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				dst[k] = deepMerge(cloneMap(dstMap), srcMap)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = cloneMap(sub)
		} else {
			out[k] = v
		}
	}
	return out
}

// treeJSON marshals the tree to JSON; used both to query with gjson and to
// round-trip into the typed Schema for validation.
func treeJSON(tree map[string]any) ([]byte, error) {
	return json.Marshal(tree)
}

// get reads a dotted path from the tree. Returns (value, true) if present.
func get(tree map[string]any, path string) (any, bool) {
	data, err := treeJSON(tree)
	if err != nil {
		return nil, false
	}
	result := gjson.GetBytes(data, gjsonPath(path))
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// gjsonPath converts our dotted-path convention directly into gjson's
// (which is also dot-separated, so this is an identity function kept as a
// seam in case the two conventions ever diverge).
func gjsonPath(path string) string { return path }

// set writes value at the dotted path, creating intermediate maps as
// needed. gjson is read-only, so the write path is a small hand-rolled
// walk over the map tree.
func set(tree map[string]any, path string, value any) map[string]any {
	segments := strings.Split(path, ".")
	cur := tree
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			return tree
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	return tree
}

// coerce parses an environment value: booleans first (true/yes/1/on and
// their negations), then integer and float literals, else the raw string.
func coerce(raw string) any {
	lower := strings.ToLower(raw)
	switch lower {
	case "true", "yes", "1", "on":
		return true
	case "false", "no", "0", "off":
		return false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return int(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
