package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/ctxutil"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

var healthPaths = map[string]bool{"/healthcheck": true, "/readyz": true}

// RequestLogger writes one line per request. Health checks log at debug, and
// mutations by an admin get an extra audit line naming the page touched.
func RequestLogger(baseLog *logger.Logger) gin.HandlerFunc {
	if baseLog == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log := baseLog.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if page := pageScope(c); page != "" {
			fields = append(fields, "page", page)
		}
		if c.Request.ContentLength > 0 {
			fields = append(fields, "bytes_in", c.Request.ContentLength)
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil && td.RequestID != "" {
			fields = append(fields, "request_id", td.RequestID)
		}
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd != nil {
			fields = append(fields, "email", rd.Email)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, "error", errs.String())
		}

		switch {
		case healthPaths[route] && status < 500:
			log.Debug("HTTP request", fields...)
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}

		if rd != nil && rd.IsAdmin && isMutation(c.Request.Method) && status < 400 {
			log.Info("Admin mutation", "method", c.Request.Method, "route", route, "page", pageScope(c), "email", rd.Email)
		}
	}
}

// pageScope finds the page a request targets: the :page route param, else the
// Page header, else the page query value.
func pageScope(c *gin.Context) string {
	if p := c.Param("page"); p != "" {
		return p
	}
	if p := c.GetHeader("Page"); p != "" {
		return p
	}
	return c.Query("page")
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
