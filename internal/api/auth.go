package api

import (
	"net/http"

	"github.com/cryowatch/cryowatch/internal/config"
)

// requireKey wraps next with API key authentication.
//
// Behaviour:
//   - If auth.Mode != "apikey" or the resolved key is empty, all requests
//     pass through.
//   - Otherwise the configured header must carry exactly the expected key;
//     anything else gets 401.
func requireKey(auth config.AuthConfig, next http.Handler) http.Handler {
	key := auth.Key()
	if auth.Mode != "apikey" || key == "" {
		return next
	}
	header := auth.EffectiveHeader()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(header) != key {
			jsonErr(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
