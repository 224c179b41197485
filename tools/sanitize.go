// Argument sanitization for logging.
//
// Capability arguments may contain user-provided free text and
// credentials; sanitized copies are what reaches the logs.

package tools

import "strings"

const (
	redactedPlaceholder = "[REDACTED]"
	maxLoggedStringLen  = 120
)

// sensitiveKeyParts flags argument names that must never be logged verbatim.
var sensitiveKeyParts = []string{"password", "token", "secret"}

// Sanitize returns a copy of args safe for logging: values under
// sensitive-looking keys are redacted and long strings truncated.
// The input map is never modified.
func Sanitize(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	out := make(map[string]any, len(args))
	for key, value := range args {
		if isSensitiveKey(key) {
			out[key] = redactedPlaceholder
			continue
		}
		out[key] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case string:
		if len(v) > maxLoggedStringLen {
			return v[:maxLoggedStringLen] + "...(truncated)"
		}
		return v
	case map[string]any:
		return Sanitize(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
