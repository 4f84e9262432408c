package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"highlight-service/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jwtEnabledConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Enabled = true
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "highlight-service"
	return cfg
}

func mintToken(t *testing.T, secret, issuer, userUUID string, expires time.Time) string {
	t.Helper()
	claims := &UserClaims{
		UserUUID: userUUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authEngine(cfg *config.Config) *gin.Engine {
	engine := gin.New()
	engine.Use(JWTAuthMiddleware(cfg))
	engine.GET("/api/v1/tasks", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_uuid": c.GetString("user_uuid")})
	})
	engine.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func getWithToken(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	engine := authEngine(&config.Config{})

	rec := getWithToken(engine, "/api/v1/tasks", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMissingTokenRejected(t *testing.T) {
	engine := authEngine(jwtEnabledConfig())

	rec := getWithToken(engine, "/api/v1/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthValidTokenSetsUser(t *testing.T) {
	cfg := jwtEnabledConfig()
	engine := authEngine(cfg)
	token := mintToken(t, cfg.JWT.Secret, cfg.JWT.Issuer, "user-1", time.Now().Add(time.Hour))

	rec := getWithToken(engine, "/api/v1/tasks", token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_uuid":"user-1"`)
}

func TestAuthWrongSecretRejected(t *testing.T) {
	cfg := jwtEnabledConfig()
	engine := authEngine(cfg)
	token := mintToken(t, "other-secret", cfg.JWT.Issuer, "user-1", time.Now().Add(time.Hour))

	rec := getWithToken(engine, "/api/v1/tasks", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthExpiredTokenRejected(t *testing.T) {
	cfg := jwtEnabledConfig()
	engine := authEngine(cfg)
	token := mintToken(t, cfg.JWT.Secret, cfg.JWT.Issuer, "user-1", time.Now().Add(-time.Minute))

	rec := getWithToken(engine, "/api/v1/tasks", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthIssuerMismatchRejected(t *testing.T) {
	cfg := jwtEnabledConfig()
	engine := authEngine(cfg)
	token := mintToken(t, cfg.JWT.Secret, "someone-else", "user-1", time.Now().Add(time.Hour))

	rec := getWithToken(engine, "/api/v1/tasks", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthNoIssuerConfiguredSkipsIssuerCheck(t *testing.T) {
	cfg := jwtEnabledConfig()
	cfg.JWT.Issuer = ""
	engine := authEngine(cfg)
	token := mintToken(t, cfg.JWT.Secret, "anything", "user-1", time.Now().Add(time.Hour))

	rec := getWithToken(engine, "/api/v1/tasks", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHealthBypassesToken(t *testing.T) {
	engine := authEngine(jwtEnabledConfig())

	rec := getWithToken(engine, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMalformedHeaderRejected(t *testing.T) {
	engine := authEngine(jwtEnabledConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc.def.ghi", "abc.def.ghi"},
		{"Bearer  spaced", "spaced"},
		{"Basic dXNlcg==", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tc := range cases {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			ctx.Request.Header.Set("Authorization", tc.header)
		}
		assert.Equal(t, tc.want, extractBearerToken(ctx), tc.header)
	}
}

func TestRequestContextMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestContextMiddleware())
	engine.GET("/echo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_uuid":  c.GetString("user_uuid"),
			"request_id": c.GetString("request_id"),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("X-User-UUID", "user-9")
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"user_uuid":"user-9"`)
	assert.Contains(t, rec.Body.String(), `"request_id":"req-42"`)

	// missing request id gets generated
	req = httptest.NewRequest(http.MethodGet, "/echo", nil)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
