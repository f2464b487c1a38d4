package repository

import (
	"context"

	"formcraft_backend/internal/model"

	"gorm.io/gorm"
)

type FormRepository struct {
	DB *gorm.DB
}

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{DB: db}
}

func (r *FormRepository) Create(ctx context.Context, form *model.ResponseForm) error {
	return r.DB.WithContext(ctx).Create(form).Error
}

func (r *FormRepository) FindByID(ctx context.Context, id string) (*model.ResponseForm, error) {
	var form model.ResponseForm
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&form).Error
	return &form, err
}

// ReplaceAnswers 整体替换答案
func (r *FormRepository) ReplaceAnswers(ctx context.Context, form *model.ResponseForm) error {
	return r.DB.WithContext(ctx).Model(form).Select("answers", "updated_at").Updates(form).Error
}

func (r *FormRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.ResponseForm{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *FormRepository) ListByUser(ctx context.Context, userID uint) ([]model.ResponseForm, error) {
	var forms []model.ResponseForm
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&forms).Error
	return forms, err
}

func (r *FormRepository) ListByTemplate(ctx context.Context, templateID string) ([]model.ResponseForm, error) {
	var forms []model.ResponseForm
	err := r.DB.WithContext(ctx).Where("template_id = ?", templateID).Order("created_at asc").Find(&forms).Error
	return forms, err
}
