package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	jwtSecret   []byte
	jwtAudience string
)

// UserMetadata mirrors the provider's user_metadata claim. All fields are optional.
type UserMetadata struct {
	AvatarURL string `json:"avatar_url,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	UserName  string `json:"user_name,omitempty"`
}

// Claims is the access token issued by the external auth provider.
// The user ID travels in the standard "sub" claim.
type Claims struct {
	Email        string       `json:"email,omitempty"`
	Role         string       `json:"role,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// SetJWTAudience makes ParseToken require the given "aud". Empty disables the check.
func SetJWTAudience(aud string) {
	jwtAudience = aud
}

// GenerateToken signs a provider-compatible token. The service only needs
// this for tests and local development; production tokens come from the provider.
func GenerateToken(userID, email string, meta UserMetadata, expireHour int) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:        email,
		Role:         "authenticated",
		UserMetadata: meta,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHour) * time.Hour)),
		},
	}
	if jwtAudience != "" {
		claims.Audience = jwt.ClaimStrings{jwtAudience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ParseToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if jwtAudience != "" {
		opts = append(opts, jwt.WithAudience(jwtAudience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// HashToken returns the hex SHA-256 of a raw token, used as its revocation key.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
