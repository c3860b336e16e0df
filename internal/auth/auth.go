// Package auth authenticates bearer JWTs and gates routes on named permissions carried
// in the token's claims.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Permissions understood by the users API.
const (
	PermReadUser   = "read-user"
	PermCreateUser = "create-user"
	PermUpdateUser = "update-user"
	PermDeleteUser = "delete-user"
)

// AllUserPermissions is handy for operator tokens.
var AllUserPermissions = []string{PermReadUser, PermCreateUser, PermUpdateUser, PermDeleteUser}

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload.
type Claims struct {
	TenantID    int64    `json:"tenant_id,omitempty"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller attached to the request.
type Principal struct {
	Subject     string
	TenantID    int64
	Permissions []string
}

func (p Principal) Has(permission string) bool {
	return slices.Contains(p.Permissions, permission)
}

type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret, issuer string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token for subject with the given permissions.
func (a *Authenticator) Issue(subject string, tenantID int64, permissions []string) (string, error) {
	now := a.now()
	claims := &Claims{
		TenantID:    tenantID,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, issuer and expiry and returns the caller.
func (a *Authenticator) Parse(token string) (Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Principal{Subject: claims.Subject, TenantID: claims.TenantID, Permissions: claims.Permissions}, nil
}

const principalKey = "auth.principal"

// PrincipalFrom returns the caller set by Authenticate.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// Authenticate requires a valid "Authorization: Bearer" token and stores the Principal.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		p, err := a.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": ErrInvalidToken.Error()})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// Require aborts with 403 unless the authenticated caller holds permission.
// It must run after Authenticate.
func Require(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		if !p.Has(permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "missing permission " + strconv.Quote(permission)})
			return
		}
		c.Next()
	}
}
