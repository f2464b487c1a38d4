package repository

import (
	"context"
	"time"

	"formcraft_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).Order("id asc").Find(&users).Error
	return users, err
}

// ExistingIDs 返回 ids 中实际存在的用户 id
func (r *UserRepository) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	var found []uint
	if len(ids) == 0 {
		return found, nil
	}
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("id IN ?", ids).Pluck("id", &found).Error
	return found, err
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uint, role model.UserRole) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("role", role)
	return res.RowsAffected, res.Error
}

func (r *UserRepository) SetBlocked(ctx context.Context, ids []uint, blocked bool) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).Where("id IN ?", ids).Update("blocked", blocked)
	return res.RowsAffected, res.Error
}

func (r *UserRepository) Delete(ctx context.Context, ids []uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&model.User{})
	return res.RowsAffected, res.Error
}

func (r *UserRepository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"last_login": at, "last_seen": at}).Error
}

func (r *UserRepository) TouchSeen(ctx context.Context, id uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_seen", at).Error
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, name, theme string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "theme": theme}).Error
}
