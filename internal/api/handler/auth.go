package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "socialchat"

var ErrInvalidToken = errors.New("invalid or expired token")

// IdentityResolver extracts the user id of a handshake. Issuing tokens is the
// job of the surrounding product; this only verifies them.
type IdentityResolver struct {
	secret     []byte
	trustQuery bool
}

// NewIdentityResolver verifies HS256 tokens signed with secret. With trustQuery
// a handshake without a token may name its user in the userId query parameter.
func NewIdentityResolver(secret string, trustQuery bool) *IdentityResolver {
	return &IdentityResolver{secret: []byte(secret), trustQuery: trustQuery}
}

// Resolve returns the user id of r, or "" for an anonymous handshake.
// verified is true only when the id comes from a valid token.
// The token is read from the Authorization header or the token query parameter
// (browsers cannot set headers on a WebSocket handshake).
func (a *IdentityResolver) Resolve(r *http.Request) (userID string, verified bool, err error) {
	token := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	}
	if token != "" {
		userID, err = a.parse(token)
		return userID, err == nil, err
	}
	if a.trustQuery {
		return r.URL.Query().Get("userId"), false, nil
	}
	return "", false, nil
}

// TrustsQuery reports whether unverified handshakes may claim a user id.
func (a *IdentityResolver) TrustsQuery() bool { return a.trustQuery }

func (a *IdentityResolver) parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// IssueToken signs a token for userID. Used by the admin CLI and tests.
func (a *IdentityResolver) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
