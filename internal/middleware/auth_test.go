package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/utils"
	"github.com/mvibe/marketplace/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-middleware-testing")
}

type fakeRevocations map[string]bool

func (f fakeRevocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	return f[token], nil
}

func protectedRouter(auth *Authenticator, message string) *gin.Engine {
	router := gin.New()
	router.Use(auth.Required(message))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"user_id": GetUserID(c),
			"name":    GetAuthUser(c).FullName,
		})
	})
	return router
}

func TestAuthRequired_NoHeader(t *testing.T) {
	router := protectedRouter(NewAuthenticator(nil, "/login"), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	data, _ := resp.Data.(map[string]interface{})
	if data["login_url"] != "/login" {
		t.Errorf("expected login_url hint, got %v", resp.Data)
	}
}

func TestAuthRequired_CustomMessage(t *testing.T) {
	router := protectedRouter(NewAuthenticator(nil, "/login"), "Please sign in to leave a review.")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Message != "Please sign in to leave a review." {
		t.Errorf("Message = %q", resp.Message)
	}
}

func TestAuthRequired_InvalidFormat(t *testing.T) {
	router := protectedRouter(NewAuthenticator(nil, "/login"), "")

	testCases := []string{
		"InvalidToken",
		"Basic token123",
		"Bearer",
		"Bearer invalid.jwt.token",
	}

	for _, authHeader := range testCases {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", authHeader)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected status %d, got %d", authHeader, http.StatusUnauthorized, w.Code)
		}
	}
}

func TestAuthRequired_ValidToken(t *testing.T) {
	token, _ := utils.GenerateToken("user-1", "kim@example.com", utils.UserMetadata{FullName: "Kim"}, 24)
	router := protectedRouter(NewAuthenticator(fakeRevocations{}, "/login"), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["user_id"] != "user-1" || body["name"] != "Kim" {
		t.Errorf("unexpected identity: %v", body)
	}
}

func TestAuthRequired_IgnoresQueryToken(t *testing.T) {
	token, _ := utils.GenerateToken("user-1", "", utils.UserMetadata{}, 24)
	router := protectedRouter(NewAuthenticator(nil, "/login"), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected?token="+token, nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthRequired_RevokedToken(t *testing.T) {
	token, _ := utils.GenerateToken("user-1", "", utils.UserMetadata{}, 24)
	router := protectedRouter(NewAuthenticator(fakeRevocations{token: true}, "/login"), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthOptional(t *testing.T) {
	token, _ := utils.GenerateToken("user-7", "", utils.UserMetadata{}, 24)

	router := gin.New()
	router.Use(NewAuthenticator(nil, "/login").Optional())
	router.GET("/open", func(c *gin.Context) {
		c.String(200, GetUserID(c))
	})

	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer garbage", ""},
		{"Bearer " + token, "user-7"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/open", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("header %q: expected 200, got %d", tt.header, w.Code)
		}
		if w.Body.String() != tt.want {
			t.Errorf("header %q: user = %q, expected %q", tt.header, w.Body.String(), tt.want)
		}
	}
}

func TestContextGetters_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := GetUserID(c); id != "" {
		t.Errorf("expected empty user id, got %q", id)
	}
	if u := GetAuthUser(c); u != nil {
		t.Errorf("expected nil user, got %+v", u)
	}
	if tok := GetToken(c); tok != "" {
		t.Errorf("expected empty token, got %q", tok)
	}
	if claims := GetClaims(c); claims != nil {
		t.Errorf("expected nil claims, got %+v", claims)
	}
}
