package middleware

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Vite and CRA dev servers of the admin site.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// scopeHeaders carry page/url/section on asset requests.
var scopeHeaders = []string{"Page", "Url", "Section"}

// CORS allows the configured site origins with credentials. With nothing
// configured only the local dev servers are allowed.
func CORS(origins []string) gin.HandlerFunc {
	allowed := normalizeOrigins(origins)
	if len(allowed) == 0 {
		allowed = devOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins: allowed,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     append([]string{"Authorization", "Content-Type", "X-Request-Id"}, scopeHeaders...),
		ExposeHeaders:    []string{"X-Trace-Id", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	})
}

// normalizeOrigins trims whitespace and trailing slashes and drops blanks
// and duplicates, since browsers send origins without a path.
func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && !slices.Contains(out, o) {
			out = append(out, o)
		}
	}
	return out
}
