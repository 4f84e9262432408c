package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"highlight-service/pkg/config"
	"highlight-service/pkg/errno"
	"highlight-service/pkg/restapi"
)

// UserClaims token payload carried by API callers.
type UserClaims struct {
	UserUUID string `json:"user_uuid"`
	jwt.RegisteredClaims
}

// JWTAuthMiddleware validates Bearer tokens and stores the caller identity
// on the request context. A disabled JWT section turns it into a pass-through
// so internal deployments can rely on the X-User-UUID header instead.
func JWTAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil {
			cfg = config.GetGlobalConfig()
		}
		if cfg == nil || !cfg.JWT.Enabled {
			c.Next()
			return
		}
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		token := extractBearerToken(c)
		if token == "" {
			restapi.Failed(c, errno.ErrUnauthorized)
			c.Abort()
			return
		}

		claims := &UserClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.JWT.Secret), nil
		})
		if err != nil || !parsed.Valid {
			restapi.Failed(c, errno.ErrUnauthorized)
			c.Abort()
			return
		}
		if cfg.JWT.Issuer != "" {
			if issuer, issErr := claims.GetIssuer(); issErr != nil || issuer != cfg.JWT.Issuer {
				restapi.Failed(c, errno.ErrUnauthorized)
				c.Abort()
				return
			}
		}

		if claims.UserUUID != "" {
			c.Set("user_uuid", claims.UserUUID)
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
