package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"formcraft_backend/internal/config"
	"formcraft_backend/internal/model"
	"formcraft_backend/internal/repository"
	"formcraft_backend/internal/util"
	"formcraft_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

// Register 新用户一律是普通用户
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr("find user by email", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     model.RegularUser,
		Theme:    "light",
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, storeErr("create user", err)
	}
	return user, nil
}

// Login 被封禁的用户不能登录
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrBadCredentials
		}
		return "", nil, storeErr("find user by email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrBadCredentials
	}
	if user.Blocked {
		return "", nil, util.ErrUserBlocked
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	if err := s.UserRepo.TouchLogin(ctx, user.ID, time.Now()); err != nil {
		logger.Log.Warn("Failed to record login time", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return token, user, nil
}

// Verify 过期或签名不对的令牌一律返回 util.ErrUnauthorized
func (s *AuthService) Verify(token string) (*util.Identity, error) {
	return util.VerifyJWT(token, s.Cfg.JWT.Secret)
}
