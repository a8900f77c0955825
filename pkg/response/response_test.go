package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func render(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	handler(c)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestSuccessAndCreated(t *testing.T) {
	w, resp := render(t, func(c *gin.Context) { Success(c, gin.H{"id": "p1"}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "ok", resp.Message)
	assert.Equal(t, map[string]interface{}{"id": "p1"}, resp.Data)

	w, resp = render(t, func(c *gin.Context) { Created(c, nil) })
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "created", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestError_AppErrors(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NewBadRequest("bad"), http.StatusBadRequest},
		{NewUnauthorized("who"), http.StatusUnauthorized},
		{NewForbidden("owner only"), http.StatusForbidden},
		{NewNotFound("missing"), http.StatusNotFound},
		{NewConflict("already reviewed"), http.StatusConflict},
		{NewTooLarge("too big"), http.StatusRequestEntityTooLarge},
		{NewPreconditionRequired("confirm"), http.StatusPreconditionRequired},
		{NewServerError("Failed to save app"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w, resp := render(t, func(c *gin.Context) { Error(c, tt.err) })
		assert.Equal(t, tt.status, w.Code, tt.err.Message)
		assert.Equal(t, tt.status, resp.Code)
		assert.Equal(t, tt.err.Message, resp.Message)
	}
}

func TestError_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("update project: %w", NewForbidden("owner only"))

	w, resp := render(t, func(c *gin.Context) { Error(c, err) })
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "owner only", resp.Message)
}

func TestError_HidesInternalErrors(t *testing.T) {
	w, resp := render(t, func(c *gin.Context) { Error(c, errors.New("pq: relation \"projects\" does not exist")) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", resp.Message)
}

func TestBadRequest(t *testing.T) {
	w, resp := render(t, func(c *gin.Context) { BadRequest(c, "title is required") })
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title is required", resp.Message)
}

func TestUnauthorized_WithLoginHint(t *testing.T) {
	w, resp := render(t, func(c *gin.Context) {
		Unauthorized(c, "Please sign in to leave a review.", gin.H{"login_url": "/login"})
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Please sign in to leave a review.", resp.Message)
	assert.Equal(t, map[string]interface{}{"login_url": "/login"}, resp.Data)
}

func TestAppError_ErrorInterface(t *testing.T) {
	var err error = NewNotFound("project not found")
	assert.EqualError(t, err, "project not found")
}
