package providers

import (
	"strconv"
	"strings"
)

// ConfigString returns the trimmed string value for key from provider.Config or a fallback.
func ConfigString(cfg Provider, key, fallback string) string {
	if cfg.Config != nil {
		if raw, ok := cfg.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

// ConfigInt returns the integer value for key from provider.Config or a fallback.
// YAML decodes numbers as int, JSON as float64; numeric strings are accepted too.
func ConfigInt(cfg Provider, key string, fallback int) int {
	if cfg.Config == nil {
		return fallback
	}
	switch v := cfg.Config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCacheControlKey   = "cache_control"
	ConfigCookieKey         = "cookie"
)

// Headers builds the common request headers from a provider config (skips empty values).
func Headers(cfg Provider) map[string]string {
	headers := make(map[string]string, 5)

	pairs := []struct{ key, header string }{
		{ConfigUserAgentKey, "User-Agent"},
		{ConfigAcceptKey, "Accept"},
		{ConfigAcceptLanguageKey, "Accept-Language"},
		{ConfigCacheControlKey, "Cache-Control"},
		{ConfigCookieKey, "Cookie"},
	}
	for _, p := range pairs {
		if v := ConfigString(cfg, p.key, ""); v != "" {
			headers[p.header] = v
		}
	}

	return headers
}
