package httpadapter

import (
	"net/http"
	"strings"
)

// adminOnly guards mutating and operational endpoints with the configured
// admin token. An empty configured token leaves the endpoint open, which is
// the local development mode.
func (rt *Router) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rt.adminKey == "" {
			next(w, r)
			return
		}
		if isAuthorizedBearerHeader(r.Header.Get("Authorization"), rt.adminKey) {
			next(w, r)
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
}

func isAuthorizedBearerHeader(headerValue, expectedToken string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" || expectedToken == "" {
		return false
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, bearerPrefix))
	return token == expectedToken
}
