package rpc

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const authClockSkew = 2 * time.Minute

// authenticator validates HMAC-signed bearer tokens on mutating methods.
// An empty secret disables authentication entirely, which is the expected
// mode for local development networks.
type authenticator struct {
	secret   []byte
	issuer   string
	audience string
}

func newAuthenticator(secret, issuer, audience string) *authenticator {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil
	}
	return &authenticator{secret: []byte(trimmed), issuer: issuer, audience: audience}
}

func (a *authenticator) authorize(r *http.Request) error {
	if a == nil {
		return nil
	}
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return errors.New("missing bearer token")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(authClockSkew))
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("claims not map")
	}
	return a.validateClaims(claims)
}

func (a *authenticator) validateClaims(claims jwt.MapClaims) error {
	if a.issuer != "" {
		if value, ok := claims["iss"].(string); !ok || value != a.issuer {
			return errors.New("issuer mismatch")
		}
	}
	if a.audience != "" {
		switch val := claims["aud"].(type) {
		case string:
			if val != a.audience {
				return errors.New("audience mismatch")
			}
		case []interface{}:
			matched := false
			for _, entry := range val {
				if s, ok := entry.(string); ok && s == a.audience {
					matched = true
					break
				}
			}
			if !matched {
				return errors.New("audience mismatch")
			}
		default:
			return errors.New("audience claim required")
		}
	}
	return nil
}

func extractBearer(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
