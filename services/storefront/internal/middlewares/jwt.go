package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	a "github.com/you/curtain-store/pkg/auth"
)

const SessionCookie = "session"

// context keys set by JWTAuth
const (
	KeySub   = "sub"
	KeyRole  = "role"
	KeyEmail = "email"
)

func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return v
	}
	return ""
}

func authenticate(c *gin.Context, s *a.Signer) bool {
	tok := bearer(c)
	if tok == "" {
		return false
	}
	claims, err := s.ParseValidate(tok)
	if err != nil {
		return false
	}
	c.Set(KeySub, claims.UserID())
	c.Set(KeyRole, claims.Role)
	c.Set(KeyEmail, claims.Email)
	return true
}

// JWTAuth accepts a Bearer token or the session cookie.
func JWTAuth(s *a.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, s) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the user when a valid session is present and lets
// anonymous requests through.
func OptionalAuth(s *a.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, s)
		c.Next()
	}
}

// RequireRole must run after JWTAuth. A wrong role is reported as 401 too.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(KeyRole)
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// UserID is the authenticated user's id, 0 for anonymous requests.
func UserID(c *gin.Context) uint {
	v, _ := c.Get(KeySub)
	id, _ := v.(uint)
	return id
}

func IsAdmin(c *gin.Context) bool { return c.GetString(KeyRole) == "ADMIN" }
