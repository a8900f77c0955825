package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/models"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/pkg/logger"
)

const maxAuditBody = 2000

// AuditLog records write operations (POST/PUT/DELETE) to system_logs.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodDelete {
			c.Next()
			return
		}

		bodySnippet := captureBody(c)

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)
		services.RecordSystemLog(&models.SystemLog{
			Level:     models.LevelForStatus(status),
			Module:    module,
			Action:    action,
			Message:   formatAuditMessage(GetUserID(c), method, c.Request.URL.Path, status),
			UserID:    GetUserID(c),
			RequestID: c.GetString(logger.ContextRequestID),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Extra: encodeAuditExtra(map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   bodySnippet,
			}),
		})
	}
}

// captureBody copies a JSON body for the audit entry and restores it for the
// handler. Uploads are not captured.
func captureBody(c *gin.Context) string {
	if c.Request.Body == nil || strings.HasPrefix(c.ContentType(), "multipart/") {
		return ""
	}

	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	snippet := string(bodyBytes)
	if len(snippet) > maxAuditBody {
		snippet = snippet[:maxAuditBody] + "...[truncated]"
	}
	return maskSensitiveFields(snippet)
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// e.g. "/api/projects/:id/reviews" + "POST" → module="projects", action="reviews.create"
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	parts := strings.Split(path, "/")

	module = parts[0]
	if module == "" {
		module = "unknown"
	}

	var verb string
	switch method {
	case http.MethodPost:
		verb = "create"
	case http.MethodPut:
		verb = "update"
	case http.MethodDelete:
		verb = "delete"
	default:
		verb = strings.ToLower(method)
	}

	// the last static segment after the module names the sub-resource
	action = verb
	for i := len(parts) - 1; i > 0; i-- {
		if !strings.HasPrefix(parts[i], ":") {
			action = parts[i] + "." + verb
			break
		}
	}
	return module, action
}

func formatAuditMessage(userID, method, path string, status int) string {
	if userID == "" {
		userID = "anonymous"
	}
	outcome := "OK"
	if status < 200 || status >= 300 {
		outcome = "Failed"
	}
	return "[Audit] " + userID + " " + method + " " + path + " -> " + outcome
}

func encodeAuditExtra(extra map[string]interface{}) string {
	b, err := json.Marshal(extra)
	if err != nil {
		return ""
	}
	return string(b)
}

// maskSensitiveFields replaces sensitive values in JSON body
func maskSensitiveFields(body string) string {
	for _, key := range []string{"token", "access_token", "refresh_token", "password"} {
		body = maskJSONValue(body, key)
	}
	return body
}

// maskJSONValue does a best-effort mask of JSON string values for a given key
func maskJSONValue(body, key string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, "\""+key+"\"")
	if idx == -1 {
		return body
	}

	colonIdx := strings.Index(body[idx+len(key)+2:], ":")
	if colonIdx == -1 {
		return body
	}
	valueStart := idx + len(key) + 2 + colonIdx + 1

	for valueStart < len(body) && (body[valueStart] == ' ' || body[valueStart] == '\t') {
		valueStart++
	}
	if valueStart >= len(body) || body[valueStart] != '"' {
		return body
	}

	endQuote := strings.Index(body[valueStart+1:], "\"")
	if endQuote == -1 {
		return body
	}
	return body[:valueStart+1] + "***" + body[valueStart+1+endQuote:]
}
