package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const redacted = "[REDACTED]"

var (
	// UUIDs go first: the phone pattern would otherwise eat their digit runs.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// RedactOptions adds to the built-in scrubbing.
//
// MaskHeaders are replaced wholesale on top of Authorization, Cookie and
// Set-Cookie. MaskQueryParams are replaced before the query is logged; NFC tag
// UUIDs are bearer secrets and must never reach the logs.
type RedactOptions struct {
	MaskHeaders     []string
	MaskQueryParams []string
}

func scrub(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

func lowerSet(base []string, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(base)+len(extra))
	for _, v := range append(base, extra...) {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// RedactingLogger attaches a request logger (user_id, character_id, route)
// for LoggerFrom and log.Ctx, then writes one access line per request with
// scrubbed headers and query. Bodies are never logged. 4xx logs at warn,
// 5xx or gin errors at error.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := lowerSet([]string{"authorization", "cookie", "set-cookie"}, opts.MaskHeaders)
	maskParams := lowerSet(nil, opts.MaskQueryParams)

	maskQuery := func(raw string) string {
		if raw == "" || len(maskParams) == 0 {
			return raw
		}
		q, err := url.ParseQuery(raw)
		if err != nil {
			return raw
		}
		changed := false
		for k := range q {
			if _, ok := maskParams[strings.ToLower(k)]; ok {
				q[k] = []string{redacted}
				changed = true
			}
		}
		if !changed {
			return raw
		}
		return q.Encode()
	}

	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("route", route)
		if uid := userIDFromCtx(c); uid != "demo-user" {
			fields = fields.Str("user_id", uid)
		}
		if id := c.Param("id"); id != "" {
			fields = fields.Str("character_id", id)
		}
		l := fields.Logger()
		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		headers := zerolog.Dict()
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				headers.Str(k, redacted)
				continue
			}
			headers.Str(k, scrub(strings.Join(vv, ", ")))
		}

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = l.Warn()
		}
		ev.
			Str("query", scrub(maskQuery(c.Request.URL.RawQuery))).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Dict("headers", headers).
			Msg("http_request")
	}
}
