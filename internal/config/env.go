package config

import (
	"strings"
)

// DefaultEnvPrefix is the environment variable prefix recognized when none
// is configured explicitly.
const DefaultEnvPrefix = "NEXUS_"

// envOverlay resolves the env-var path-split ambiguity (a single-underscore
// split cannot tell logging_level from logging_database_level): "__"
// (double underscore) is the reserved
// segment delimiter, e.g. NEXUS_SECURITY__JWT__ACCESS_TOKEN_EXPIRE_MINUTES
// maps to security.jwt.access_token_expire_minutes. Variables with no "__"
// are still accepted under the legacy every-underscore split, but only when
// that naive split resolves to a path that already exists in the tree —
// otherwise the ambiguous split is rejected rather than silently corrupting
// a multi-word leaf key, and the variable is skipped with a warning
// returned to the caller for logging.
func envOverlay(tree map[string]any, prefix string, environ []string) (map[string]any, []string) {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	upperPrefix := strings.ToUpper(prefix)

	var skipped []string
	for _, kv := range environ {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			continue
		}
		name, value := kv[:eq], kv[eq+1:]
		upperName := strings.ToUpper(name)
		if !strings.HasPrefix(upperName, upperPrefix) {
			continue
		}
		remainder := name[len(prefix):]
		if remainder == "" {
			continue
		}

		var segments []string
		if strings.Contains(remainder, "__") {
			for _, seg := range strings.Split(remainder, "__") {
				if seg == "" {
					continue
				}
				segments = append(segments, strings.ToLower(seg))
			}
		} else {
			raw := strings.Split(remainder, "_")
			for _, seg := range raw {
				segments = append(segments, strings.ToLower(seg))
			}
			path := strings.Join(segments, ".")
			if _, exists := get(tree, path); !exists {
				skipped = append(skipped, name)
				continue
			}
		}

		if len(segments) == 0 {
			continue
		}
		tree = set(tree, strings.Join(segments, "."), coerce(value))
	}

	return tree, skipped
}
