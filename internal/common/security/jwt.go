package security

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenCookieName is the cookie that carries the session token when the
// Authorization header is absent.
const TokenCookieName = "token"

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
	}
}

// Auth exposes the underlying jwtauth instance for jwtauth.Verify.
func (t *TokenIssuer) Auth() *jwtauth.JWTAuth {
	return t.auth
}

func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(t.ttl).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	return tokenString, err
}

// Verify checks signature and expiry and returns the token's user id.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	token, err := jwtauth.VerifyToken(t.auth, tokenString)
	if err != nil {
		return "", err
	}
	return GetUserIDFromClaims(token.PrivateClaims())
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

// TokenFromCookie is a jwtauth token finder for the "token" cookie.
func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(TokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
