package model

import (
	"formcraft_backend/internal/richtext"

	"gorm.io/gorm"
)

// 模板分类
const (
	CategoryEducation     = "education"
	CategoryHealth        = "health"
	CategoryTechnology    = "technology"
	CategoryEntertainment = "entertainment"
	CategoryOther         = "other"

	CategoryUncategorized = "uncategorized"
)

var Categories = []string{
	CategoryEducation,
	CategoryHealth,
	CategoryTechnology,
	CategoryEntertainment,
	CategoryOther,
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Template 可复用的问卷模板
// swagger:model Template
type Template struct {
	UUIDBase
	Title          string            `gorm:"size:255;not null" json:"title"`
	Category       string            `gorm:"size:50;index" json:"category"`
	Description    richtext.Document `gorm:"-" json:"-"`
	DescriptionRaw string            `gorm:"column:description;type:text" json:"description"`
	Questions      []Question        `gorm:"foreignKey:TemplateID" json:"questions"`
	Tags           []Tag             `gorm:"foreignKey:TemplateID" json:"tags"`
	Picture        string            `gorm:"size:512" json:"picture"`
	AccessPolicy   AccessPolicy      `gorm:"embedded" json:"accessPolicy"`
	CreatedBy      uint              `gorm:"index;not null" json:"createdBy"`
}

func (Template) TableName() string {
	return "templates"
}

// BeforeSave 以传输格式持久化描述
func (t *Template) BeforeSave(tx *gorm.DB) error {
	raw, err := richtext.Encode(t.Description)
	if err != nil {
		return err
	}
	t.DescriptionRaw = raw
	return nil
}

// AfterFind 解码失败时直接报错，不会退化成空文档
func (t *Template) AfterFind(tx *gorm.DB) error {
	return t.DecodeDescription()
}

// DecodeDescription 从 DescriptionRaw 还原 Description
func (t *Template) DecodeDescription() error {
	if t.DescriptionRaw == "" {
		t.Description = richtext.Empty()
		return nil
	}
	doc, err := richtext.Decode(t.DescriptionRaw)
	if err != nil {
		return err
	}
	t.Description = doc
	return nil
}

// Question 按 id 查找题目
func (t *Template) Question(id string) (*Question, bool) {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return &t.Questions[i], true
		}
	}
	return nil, false
}

// DisplayCategory 列表分组用，空分类归入 uncategorized
func (t *Template) DisplayCategory() string {
	if t.Category == "" {
		return CategoryUncategorized
	}
	return t.Category
}

func (t *Template) HasAllTags(names []string) bool {
	for _, n := range names {
		found := false
		for _, tag := range t.Tags {
			if tag.Name == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
