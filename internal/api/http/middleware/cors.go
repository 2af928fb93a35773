package middleware

import "net/http"

// CORS sets cross-origin headers and answers preflight requests.
type CORS struct {
	allowedOrigin string
}

func NewCORS(allowedOrigin string) *CORS {
	return &CORS{allowedOrigin: allowedOrigin}
}

func (c *CORS) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", c.allowedOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, PATCH, DELETE")
		h.Set("Access-Control-Allow-Headers", "X-Requested-With,content-type,Authorization")
		h.Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
