package model

import "strings"

// Tag 模板标签，同一模板内按名称（区分大小写）去重。
// 主键是 (template_id, id)，客户端带来的 id 只在本模板内有意义
type Tag struct {
	TemplateID string `gorm:"primaryKey;type:varchar(36)" json:"-"`
	ID         string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name       string `gorm:"size:100;not null" json:"name"`
}

func (Tag) TableName() string {
	return "template_tags"
}

// AddTag 返回加入 name 后的标签集合；已存在或为空白时原样返回
func AddTag(tags []Tag, name string) []Tag {
	if strings.TrimSpace(name) == "" {
		return tags
	}
	for _, t := range tags {
		if t.Name == name {
			return tags
		}
	}
	out := make([]Tag, len(tags), len(tags)+1)
	copy(out, tags)
	return append(out, Tag{ID: GenerateUUID(), Name: name})
}

// RemoveTag 移除指定 id 的标签，不存在时为空操作
func RemoveTag(tags []Tag, id string) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// TagsFromNames builds a tag set from raw names, dropping duplicates.
func TagsFromNames(names []string) []Tag {
	tags := []Tag{}
	for _, n := range names {
		tags = AddTag(tags, n)
	}
	return tags
}

func TagNames(tags []Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

// NormalizeTags 按名称去重并保留已有 id，供整体替换时使用；
// 重复的 id 重新分配
func NormalizeTags(tags []Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	ids := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, dup := ids[t.ID]; dup || t.ID == "" {
			t.ID = GenerateUUID()
		}
		ids[t.ID] = struct{}{}
		t.Name = name
		out = append(out, t)
	}
	return out
}
