package logger

import (
	"regexp"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"passphrase",
	"credential",
	"authorization",
	"bearer",
	"cookie",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

const bearerPrefix = "Bearer "

// personalAccessToken matches "<id>|<secret>" tokens issued by the backend.
var personalAccessToken = regexp.MustCompile(`^(\d+\|)[A-Za-z0-9]{8,}$`)

// redactValue masks a string value logged under key. Recognisable
// credentials are partially masked; other values under a sensitive key are
// replaced entirely.
func redactValue(key, value string) string {
	if value == "" {
		return value
	}
	if masked, ok := maskCredential(value); ok {
		return masked
	}
	if IsSensitiveKey(key) {
		return redactedValue
	}
	return value
}

func maskCredential(value string) (string, bool) {
	if strings.HasPrefix(value, bearerPrefix) {
		inner := value[len(bearerPrefix):]
		if m, ok := maskCredential(inner); ok {
			return bearerPrefix + m, true
		}
		return bearerPrefix + maskValue(inner, ""), true
	}
	if m := personalAccessToken.FindStringSubmatch(value); m != nil {
		return maskValue(value, m[1]), true
	}
	return "", false
}

// maskValue partially masks a sensitive value, keeping prefix and hints.
// Format: prefix + first 3 chars + "..." + last 3 chars
func maskValue(value, prefix string) string {
	if len(value) <= len(prefix)+6 {
		return prefix + "***"
	}

	body := value[len(prefix):]
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString manually redacts a string value.
// Use this when you need to redact a value before logging.
func RedactString(value string) string {
	if masked, ok := maskCredential(value); ok {
		return masked
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value appears to be a credential.
func IsSensitiveValue(value string) bool {
	_, ok := maskCredential(value)
	return ok
}
