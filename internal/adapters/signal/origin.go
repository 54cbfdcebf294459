package signal

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// NewOriginChecker builds a websocket.Upgrader CheckOrigin func. An empty
// list or a "*" entry accepts every origin.
func NewOriginChecker(origins []string) func(*http.Request) bool {
	allowed, allowAll := normalizeOrigins(origins)
	if allowAll || len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin, ok := normalizeOrigin(r.Header.Get("Origin"))
		if ok {
			if _, exists := allowed[origin]; exists {
				return true
			}
		}
		log.Warn().Str("module", "signal").Str("origin", r.Header.Get("Origin")).Msg("blocked WebSocket origin")
		return false
	}
}

func normalizeOrigins(origins []string) (map[string]struct{}, bool) {
	out := make(map[string]struct{}, len(origins))
	allowAll := false
	for _, o := range origins {
		trimmed := strings.TrimSpace(o)
		switch {
		case trimmed == "":
		case trimmed == "*":
			allowAll = true
		default:
			n, ok := normalizeOrigin(trimmed)
			if !ok {
				log.Warn().Str("module", "signal").Str("origin", o).Msg("ignoring invalid origin")
				continue
			}
			out[n] = struct{}{}
		}
	}
	return out, allowAll
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
