package server

import "net/http"

// ReadOnlyMiddleware enforces read-only access for viewer deployments.
// Only GET, HEAD, and OPTIONS requests are allowed; all other HTTP methods
// are rejected with 405 Method Not Allowed.
func ReadOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusMethodNotAllowed)
			_, _ = w.Write([]byte(`{"error":"read-only mode: write access disabled","code":405}`))
		}
	})
}
