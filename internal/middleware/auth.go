package middleware

import (
	"context"
	"strings"
	"time"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/util"
	"formcraft_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier 由 AuthService 实现
type TokenVerifier interface {
	Verify(token string) (*util.Identity, error)
}

func bearerToken(c *gin.Context) string {
	tokenString := ""
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if tokenString == "" {
		tokenString = c.Query("token")
	}
	return tokenString
}

// AuthMiddleware 令牌缺失或无效时直接返回 401。令牌只在请求开始时校验一次。
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		identity, err := verifier.Verify(tokenString)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ContextIdentityKey, identity)
		c.Next()
	}
}

// TryAuthMiddleware 可选登录：有合法令牌时注入身份，否则按匿名继续
func TryAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if identity, err := verifier.Verify(tokenString); err == nil {
				c.Set(util.ContextIdentityKey, identity)
			}
		}
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := util.GetIdentity(c)
		if identity == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			if identity.Role == model.Admin || identity.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

type UserActivityRepo interface {
	TouchSeen(ctx context.Context, userID uint, at time.Time) error
}

func ActivityMiddleware(repo UserActivityRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity := util.GetIdentity(c); identity != nil {
			// 异步更新，不阻塞主流程
			go func(userID uint) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := repo.TouchSeen(ctx, userID, time.Now()); err != nil {
					logger.Log.Debug("Failed to update last seen", zap.Uint("user_id", userID), zap.Error(err))
				}
			}(identity.UserID)
		}
		c.Next()
	}
}
