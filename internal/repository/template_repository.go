package repository

import (
	"context"

	"formcraft_backend/internal/model"
	"formcraft_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TemplateRepository struct {
	DB *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{DB: db}
}

// TemplateFilter 列表筛选。分类任一匹配，标签需全部匹配。
type TemplateFilter struct {
	Categories []string
	Tags       []string
	CreatedBy  uint
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Preload("Tags")
}

func (r *TemplateRepository) Create(ctx context.Context, t *model.Template) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return err
		}
		return insertChildren(tx, t)
	})
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*model.Template, error) {
	var t model.Template
	err := withChildren(r.DB.WithContext(ctx)).Where("id = ?", id).First(&t).Error
	return &t, err
}

// Replace 整体替换：主表全部字段覆盖，题目与标签删除后重新插入
func (r *TemplateRepository) Replace(ctx context.Context, t *model.Template) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(t).Error; err != nil {
			return err
		}
		if err := deleteChildren(tx, t.ID); err != nil {
			return err
		}
		return insertChildren(tx, t)
	})
}

// Delete 同时删除该模板下的题目、标签和已提交的表单
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		if err := tx.Where("template_id = ?", id).Delete(&model.ResponseForm{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Template{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List 逐行解码描述，单行损坏只跳过该行并记录日志
func (r *TemplateRepository) List(ctx context.Context, filter TemplateFilter) ([]model.Template, error) {
	db := r.DB.WithContext(ctx).Session(&gorm.Session{SkipHooks: true})
	query := withChildren(db).Model(&model.Template{})

	if len(filter.Categories) > 0 {
		cats := make([]string, 0, len(filter.Categories))
		for _, c := range filter.Categories {
			if c == model.CategoryUncategorized {
				c = ""
			}
			cats = append(cats, c)
		}
		query = query.Where("category IN ?", cats)
	}
	if filter.CreatedBy > 0 {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}

	var templates []model.Template
	if err := query.Order("created_at desc").Find(&templates).Error; err != nil {
		return nil, err
	}

	out := templates[:0]
	for _, t := range templates {
		if err := t.DecodeDescription(); err != nil {
			logger.Log.Warn("Skipping template with undecodable description",
				zap.String("template_id", t.ID),
				zap.Error(err))
			continue
		}
		if len(filter.Tags) == 0 || t.HasAllTags(filter.Tags) {
			out = append(out, t)
		}
	}
	return out, nil
}

// TagNames 所有模板使用过的标签名，用于筛选面板
func (r *TemplateRepository) TagNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.DB.WithContext(ctx).Model(&model.Tag{}).
		Distinct("name").
		Order("name asc").
		Pluck("name", &names).Error
	return names, err
}

func insertChildren(tx *gorm.DB, t *model.Template) error {
	for i := range t.Questions {
		t.Questions[i].TemplateID = t.ID
		t.Questions[i].Position = i
	}
	for i := range t.Tags {
		t.Tags[i].TemplateID = t.ID
		if t.Tags[i].ID == "" {
			t.Tags[i].ID = model.GenerateUUID()
		}
	}
	if len(t.Questions) > 0 {
		if err := tx.Create(&t.Questions).Error; err != nil {
			return err
		}
	}
	if len(t.Tags) > 0 {
		if err := tx.Create(&t.Tags).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteChildren(tx *gorm.DB, templateID string) error {
	if err := tx.Where("template_id = ?", templateID).Delete(&model.Question{}).Error; err != nil {
		return err
	}
	return tx.Where("template_id = ?", templateID).Delete(&model.Tag{}).Error
}
