package service

import (
	"context"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/repository"
	"formcraft_backend/internal/util"
	"formcraft_backend/pkg/logger"

	"go.uber.org/zap"
)

// UserService 用户目录：列表、存在性校验以及管理员的批量操作
type UserService struct {
	Repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{Repo: repo}
}

func (s *UserService) List(ctx context.Context) ([]model.DirectoryEntry, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	entries := make([]model.DirectoryEntry, len(users))
	for i := range users {
		entries[i] = users[i].DirectoryEntry()
	}
	return entries, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		err = storeErr("fetch user", err)
		if err == util.ErrNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// MissingUsers 返回 ids 中不存在的用户，顺序与输入一致
func (s *UserService) MissingUsers(ctx context.Context, ids []uint) ([]uint, error) {
	found, err := s.Repo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[uint]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	var missing []uint
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *UserService) setRole(ctx context.Context, id uint, role model.UserRole) error {
	n, err := s.Repo.UpdateRole(ctx, id, role)
	if err != nil {
		return storeErr("update user role", err)
	}
	if n == 0 {
		return util.ErrUserNotFound
	}
	logger.Log.Info("User role changed", zap.Uint("user_id", id), zap.String("role", string(role)))
	return nil
}

func (s *UserService) Promote(ctx context.Context, id uint) error {
	return s.setRole(ctx, id, model.Admin)
}

func (s *UserService) Demote(ctx context.Context, id uint) error {
	return s.setRole(ctx, id, model.RegularUser)
}

func (s *UserService) Block(ctx context.Context, ids []uint) (int64, error) {
	n, err := s.Repo.SetBlocked(ctx, ids, true)
	if err != nil {
		return 0, storeErr("block users", err)
	}
	return n, nil
}

func (s *UserService) Unblock(ctx context.Context, ids []uint) (int64, error) {
	n, err := s.Repo.SetBlocked(ctx, ids, false)
	if err != nil {
		return 0, storeErr("unblock users", err)
	}
	return n, nil
}

func (s *UserService) Delete(ctx context.Context, ids []uint) (int64, error) {
	n, err := s.Repo.Delete(ctx, ids)
	if err != nil {
		return 0, storeErr("delete users", err)
	}
	logger.Log.Info("Users deleted", zap.Uints("user_ids", ids))
	return n, nil
}

// UpdateProfile 用户只能修改自己的昵称和主题
func (s *UserService) UpdateProfile(ctx context.Context, id uint, name, theme string) (*model.User, error) {
	if err := s.Repo.UpdateProfile(ctx, id, name, theme); err != nil {
		return nil, storeErr("update profile", err)
	}
	return s.Get(ctx, id)
}
