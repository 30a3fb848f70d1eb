package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lithammer/shortuuid/v3"

	"busbooking/internal/clients"
	"busbooking/internal/domain"
)

const requestContextKey = "request_context"

// ClientIDTTL bounds how long an anonymous browser id stays valid.
const ClientIDTTL = 30 * 24 * time.Hour

const anonPrefix = "anon:"

// Identity verifies the caller. A bearer token must be an HS256 token signed
// with secret; its subject becomes the owner. Without a bearer the
// X-Client-ID header must hold a client id issued by NewClientID. A header
// that is present but fails verification is rejected with 401. Token and
// request id are put on the request context for outgoing calls.
func Identity(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := domain.RequestContext{}
		token := bearerToken(c.GetHeader("Authorization"))
		clientID := strings.TrimSpace(c.GetHeader("X-Client-ID"))
		switch {
		case token != "":
			claims, err := parseClaims(token, secret)
			if err != nil || strings.HasPrefix(claims.UserID, anonPrefix) {
				abortUnauthorized(c, "invalid_token", "token tidak valid")
				return
			}
			rc = claims
		case clientID != "":
			claims, err := parseClaims(clientID, secret)
			if err != nil || !strings.HasPrefix(claims.UserID, anonPrefix) {
				abortUnauthorized(c, "invalid_client_id", "client id tidak valid")
				return
			}
			rc = domain.RequestContext{UserID: claims.UserID}
		}
		c.Set(requestContextKey, rc)

		ctx := clients.WithRequestID(c.Request.Context(), GetRequestID(c))
		if token != "" {
			ctx = clients.WithBearerToken(ctx, token)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// NewClientID issues a signed anonymous owner id for browsers without a login.
func NewClientID(secret []byte, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": anonPrefix + shortuuid.New(),
		"iat": now.Unix(),
		"exp": now.Add(ClientIDTTL).Unix(),
	}).SignedString(secret)
}

func abortUnauthorized(c *gin.Context, code, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       code,
		"request_id": GetRequestID(c),
		"message":    msg,
	})
}

// RequireOwner rejects requests that carry no caller identity.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRequestContext(c).Owner() == "" {
			abortUnauthorized(c, "unauthorized", "login required")
			return
		}
		c.Next()
	}
}

func GetRequestContext(c *gin.Context) domain.RequestContext {
	if c == nil {
		return domain.RequestContext{}
	}
	if v, ok := c.Get(requestContextKey); ok {
		if rc, ok := v.(domain.RequestContext); ok {
			return rc
		}
	}
	return domain.RequestContext{}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func parseClaims(token string, secret []byte) (domain.RequestContext, error) {
	if len(secret) == 0 {
		return domain.RequestContext{}, errors.New("jwt secret is not configured")
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.RequestContext{}, err
	}
	rc := domain.RequestContext{
		UserID: claimString(claims, "user_id", "sub", "id", "_id"),
		Name:   claimString(claims, "name"),
		Email:  claimString(claims, "email"),
		Phone:  claimString(claims, "phone"),
	}
	return rc, nil
}

func claimString(claims jwt.MapClaims, names ...string) string {
	for _, n := range names {
		v, ok := claims[n]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = fmt.Sprintf("%.0f", t)
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
