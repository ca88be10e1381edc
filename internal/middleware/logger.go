package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/bikeshare-insights-go/internal/logging"
)

// RequestMetrics counts served requests
type RequestMetrics interface {
	RequestServed(method, route string, status int)
}

// Logger middleware logs one structured record per HTTP request and attaches
// the logger to the request context. m may be nil.
func Logger(logger *slog.Logger, m RequestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), logger))

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		attrs := []slog.Attr{slog.String("client_ip", c.ClientIP())}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}
		logging.LogHTTPRequest(logger, c.Request.Method, path, statusCode,
			float64(latency.Microseconds())/1000, attrs...)

		if m != nil {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			m.RequestServed(c.Request.Method, route, statusCode)
		}
	}
}
