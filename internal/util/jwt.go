package util

import (
	"errors"
	"time"

	"formcraft_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ContextIdentityKey = "identity"

type Claims struct {
	UserID uint           `json:"user_id"`
	Role   model.UserRole `json:"role"`
	Email  string         `json:"email"`
	jwt.RegisteredClaims
}

// Identity 验证通过的令牌所代表的身份
type Identity struct {
	UserID    uint           `json:"userId"`
	Role      model.UserRole `json:"role"`
	Email     string         `json:"email"`
	ExpiresAt time.Time      `json:"exp"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == model.Admin
}

func GenerateJWT(user *model.User, secret string, expiration time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrUnauthorized
}

// VerifyJWT 过期、签名错误或角色非法一律视为无效
func VerifyJWT(tokenString, secret string) (*Identity, error) {
	claims, err := ParseJWT(tokenString, secret)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !claims.Role.Valid() || claims.ExpiresAt == nil {
		return nil, ErrUnauthorized
	}
	return &Identity{
		UserID:    claims.UserID,
		Role:      claims.Role,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// GetIdentity 未登录时返回 nil
func GetIdentity(c *gin.Context) *Identity {
	v, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil
	}
	id, ok := v.(*Identity)
	if !ok {
		return nil
	}
	return id
}
