package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
)

// metricsUsername и metricsPassword защищают /metrics и debug endpoints.
// Загружаются из переменных окружения METRICS_USERNAME и METRICS_PASSWORD.
var (
	metricsUsername = os.Getenv("METRICS_USERNAME")
	metricsPassword = os.Getenv("METRICS_PASSWORD")
)

// MetricsAuth - middleware для защиты /metrics и debug endpoints
//
// Использует HTTP Basic Authentication с constant-time сравнением
// для предотвращения timing attacks.
//
// Конфигурация:
// - METRICS_USERNAME / METRICS_PASSWORD: credentials для доступа
// - Если переменные не установлены, в development доступ открыт,
//   в production (ENV=production) возвращается 403
func MetricsAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if metricsUsername == "" || metricsPassword == "" {
			if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Metrics endpoint disabled. Set METRICS_USERNAME and METRICS_PASSWORD.", http.StatusForbidden)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(metricsUsername)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(metricsPassword)) == 1

		if !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="Metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
