package guard

import (
	"net/http"
	"strings"
)

const (
	// HeaderAccessToken is the fallback credential header
	HeaderAccessToken = "X-Access-Token"

	bearerPrefix = "Bearer "
)

// ExtractBearerToken returns the token from the Authorization header, falling
// back to X-Access-Token. A carrier whose value is not exactly
// "Bearer <token>" is treated as absent.
func ExtractBearerToken(header http.Header) (string, bool) {
	for _, name := range []string{"Authorization", HeaderAccessToken} {
		if token, ok := parseBearer(header.Get(name)); ok {
			return token, true
		}
	}
	return "", false
}

func parseBearer(value string) (string, bool) {
	token, ok := strings.CutPrefix(value, bearerPrefix)
	if !ok || token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
