package chi

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSMiddleware allows cross-origin calls from the given origins ("*" for any).
// Preflight requests are answered before authentication runs.
func CORSMiddleware(origins []string, maxAgeSec int) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{HeaderRoute, HeaderAnswerPath, "X-Request-ID"},
		MaxAge:         maxAgeSec,
	})
}
