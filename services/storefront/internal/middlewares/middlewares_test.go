package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	a "github.com/you/curtain-store/pkg/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthAndRoles(t *testing.T) {
	signer := a.NewSigner("secret", time.Hour)
	r := gin.New()
	r.GET("/me", JWTAuth(signer), func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": UserID(c)}) })
	r.GET("/admin", JWTAuth(signer), RequireRole("ADMIN"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/maybe", OptionalAuth(signer), func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": UserID(c)}) })

	userTok, err := signer.CreateAccessToken(a.Identity{ID: 7, Role: "USER"})
	require.NoError(t, err)
	adminTok, err := signer.CreateAccessToken(a.Identity{ID: 1, Role: "ADMIN"})
	require.NoError(t, err)

	w := do(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+userTok)
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: userTok})
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userTok)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code, "wrong role is not distinguished")

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminTok)
	assert.Equal(t, http.StatusNoContent, do(r, req).Code)

	w = do(r, httptest.NewRequest(http.MethodGet, "/maybe", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc")
	assert.Equal(t, "abc", do(r, req).Header().Get(HeaderRequestID))
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.POST("/login", RateLimit(rdb, "login", 2, time.Hour, zerolog.Nop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)
	}
	w := do(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	// an unreachable redis never blocks requests
	mr.Close()
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)
}
