package middleware

import "net/http"

// ClearFlag redirects "?clear=true" requests of any method to the same path
// with no query, dropping the one-shot display flag.
func ClearFlag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("clear") == "true" {
			http.Redirect(w, r, r.URL.Path, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
