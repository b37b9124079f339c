package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// HeaderAPIKey is the alternative to a bearer token for service callers.
const HeaderAPIKey = "X-API-Key"

// Probes and scrapers reach these paths without a key.
var openPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// APIKeyAuth admits requests carrying one of keys, either as
// "Authorization: Bearer <key>" or in the X-API-Key header. With no non-empty
// keys configured it returns next unchanged.
func APIKeyAuth(keys []string) func(http.Handler) http.Handler {
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, open := openPaths[r.URL.Path]; open {
				next.ServeHTTP(w, r)
				return
			}

			key, msg := presentedKey(r)
			if msg == "" && !knownKey(key, allowed) {
				msg = "invalid api key"
			}
			if msg != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="discovery"`)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// presentedKey extracts the caller's key. A non-empty msg explains why none
// could be read.
func presentedKey(r *http.Request) (key, msg string) {
	if k := r.Header.Get(HeaderAPIKey); k != "" {
		return k, ""
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing api key"
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", "authorization header must use the Bearer scheme"
	}
	return token, ""
}

// knownKey compares against every key so timing does not reveal which matched.
func knownKey(key string, allowed [][]byte) bool {
	match := 0
	for _, k := range allowed {
		match |= subtle.ConstantTimeCompare([]byte(key), k)
	}
	return match == 1
}
