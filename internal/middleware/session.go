package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	logx "storefront-api/pkg/logger"
)

const (
	SessionHeader = "X-Session-Token"
	SessionCookie = "session"
	sessionKey    = "sessionID"
	issuer        = "storefront-api"
)

var ErrInvalidSession = errors.New("invalid session token")

type SessionClaims struct {
	jwt.RegisteredClaims
}

// Sessions issues and verifies the signed tokens that identify a client.
// The token subject is the session id.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewSessions(secret string, ttl time.Duration, secureCookie bool) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, secure: secureCookie}
}

func (s *Sessions) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse returns the session id carried by a valid token.
func (s *Sessions) Parse(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}

// Middleware resolves the caller's session, starting a new one when the token
// is missing or invalid. The current token is always echoed back.
func (s *Sessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(SessionHeader)
		if raw == "" {
			raw, _ = c.Cookie(SessionCookie)
		}

		sessionID := ""
		if raw != "" {
			id, err := s.Parse(raw)
			if err != nil {
				logx.Debug().Err(err).Msg("discarding session token")
			} else {
				sessionID = id
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			token, err := s.Issue(sessionID)
			if err != nil {
				logx.Error().Err(err).Msg("failed to sign session token")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session_unavailable"})
				return
			}
			raw = token
		}

		c.Set(sessionKey, sessionID)
		c.Header(SessionHeader, raw)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, raw, int(s.ttl.Seconds()), "/", "", s.secure, true)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
