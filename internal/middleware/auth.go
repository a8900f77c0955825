package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/internal/utils"
	"github.com/mvibe/marketplace/pkg/logger"
	"github.com/mvibe/marketplace/pkg/response"
)

const (
	ContextUserID = "user_id"
	ContextUser   = "auth_user"
	ContextToken  = "auth_token"
	ContextClaims = "auth_claims"
)

// RevocationChecker reports whether a token was signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Authenticator verifies access tokens issued by the auth provider.
type Authenticator struct {
	revocations RevocationChecker
	loginURL    string
}

func NewAuthenticator(revocations RevocationChecker, loginURL string) *Authenticator {
	return &Authenticator{revocations: revocations, loginURL: loginURL}
}

// bearerToken reads "Authorization: Bearer <token>". Tokens in the query
// string are ignored so they never reach access logs.
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (a *Authenticator) authenticate(c *gin.Context) bool {
	token := bearerToken(c)
	if token == "" {
		return false
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		return false
	}

	if a.revocations != nil {
		revoked, err := a.revocations.IsRevoked(c.Request.Context(), token)
		if err != nil {
			logger.FromGin(c).Error().Err(err).Msg("revocation lookup failed")
			return false
		}
		if revoked {
			return false
		}
	}

	c.Set(ContextUserID, claims.Subject)
	c.Set(ContextUser, services.AuthUserFromClaims(claims))
	c.Set(ContextToken, token)
	c.Set(ContextClaims, claims)
	return true
}

// Optional identifies the viewer when a valid token is present and lets
// anonymous requests through otherwise.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.authenticate(c)
		c.Next()
	}
}

// Required rejects requests without a valid token. message overrides the
// default 401 text; the response carries the login redirect target.
func (a *Authenticator) Required(message string) gin.HandlerFunc {
	if message == "" {
		message = "authentication required"
	}
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			response.Unauthorized(c, message, gin.H{"login_url": a.loginURL})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context, empty for anonymous viewers.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func GetAuthUser(c *gin.Context) *services.AuthUser {
	if u, exists := c.Get(ContextUser); exists {
		return u.(*services.AuthUser)
	}
	return nil
}

func GetToken(c *gin.Context) string {
	return c.GetString(ContextToken)
}

func GetClaims(c *gin.Context) *utils.Claims {
	if claims, exists := c.Get(ContextClaims); exists {
		return claims.(*utils.Claims)
	}
	return nil
}
