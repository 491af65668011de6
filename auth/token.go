package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"inkblog/models"
)

const (
	issuer     = "inkblog"
	userIDKey  = "auth.user_id"
	bearerPref = "Bearer "
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

func (t *Tokens) Issue(u *models.User) (string, error) {
	now := t.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

func (t *Tokens) Parse(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		return t.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// UnverifiedUserID reads the user id claim without checking the signature.
// Only the API, which holds the secret, may trust a token; callers use this
// to tell whose token they carry.
func UnverifiedUserID(raw string) (string, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// RequireUser rejects requests without a valid bearer token and stores the
// caller's id for UserID.
func (t *Tokens) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, bearerPref) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Result{Message: "Unauthorized"})
			return
		}
		claims, err := t.Parse(strings.TrimPrefix(h, bearerPref))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Result{Message: "Unauthorized"})
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
