package logger

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/pkg/response"
	"github.com/rs/zerolog"
)

// ContextRequestID is the gin context key holding the per-request ULID.
const ContextRequestID = "request_id"

var log zerolog.Logger

// Init configures the global logger. Unknown levels fall back to info.
// The debug level writes a console format, every other level writes JSON.
func Init(level string) {
	InitWithWriter(level, nil)
}

// InitWithWriter is Init with an explicit sink.
func InitWithWriter(level string, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if out == nil {
		out = os.Stdout
		if lvl == zerolog.DebugLevel {
			out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		}
	}

	log = zerolog.New(out).Level(lvl).With().
		Timestamp().
		Caller().
		Str("service", "marketplace").
		Logger()
}

func init() {
	Init("info")
}

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }

func Warnf(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

// Fatalf logs and exits the process.
func Fatalf(format string, v ...interface{}) {
	log.Fatal().Msgf(format, v...)
}

// FromGin returns a child logger tagged with the request ID of c, if any.
func FromGin(c *gin.Context) *zerolog.Logger {
	l := log
	if id := c.GetString(ContextRequestID); id != "" {
		l = log.With().Str(ContextRequestID, id).Logger()
	}
	return &l
}

func levelForStatus(status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

var redactedParams = []string{"token", "access_token", "refresh_token", "api_key"}

// redactQuery masks credential parameters in a raw query string.
func redactQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparsable]"
	}
	masked := false
	for _, key := range redactedParams {
		if _, ok := values[key]; ok {
			values.Set(key, "[REDACTED]")
			masked = true
		}
	}
	if !masked {
		return raw
	}
	return values.Encode()
}

// GinLogger writes one line per request. Requests to skipPaths are only
// logged when they fail.
func GinLogger(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if _, quiet := skip[c.Request.URL.Path]; quiet && status < http.StatusInternalServerError {
			return
		}

		event := FromGin(c).WithLevel(levelForStatus(status)).
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Int("size", c.Writer.Size())
		if q := c.Request.URL.RawQuery; q != "" {
			event = event.Str("query", redactQuery(q))
		}
		if route := c.FullPath(); route != "" {
			event = event.Str("route", route)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("request")
	}
}

// GinRecovery turns a handler panic into a 500 envelope and logs the stack.
func GinRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		FromGin(c).Error().
			Interface("panic", recovered).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Bytes("stack", debug.Stack()).
			Msg("panic recovered")
		response.Error(c, response.NewServerError(http.StatusText(http.StatusInternalServerError)))
		c.Abort()
	})
}
