// Package permission 根据 (当前用户, 模板) 计算可执行的操作
package permission

import (
	"fmt"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/util"
)

// Subject 发起操作的身份；nil 表示匿名
type Subject struct {
	UserID uint
	Role   model.UserRole
}

// FromIdentity 未登录时返回 nil
func FromIdentity(id *util.Identity) *Subject {
	if id == nil {
		return nil
	}
	return &Subject{UserID: id.UserID, Role: id.Role}
}

type Operation string

const (
	OpView   Operation = "view"
	OpAnswer Operation = "answer"
	OpEdit   Operation = "edit"
	OpDelete Operation = "delete"
)

type Capabilities struct {
	CanView   bool `json:"canView"`
	CanAnswer bool `json:"canAnswer"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// Resolve 纯函数，不做缓存，策略修改后下次调用即生效
func Resolve(subject *Subject, t *model.Template) Capabilities {
	public := t.AccessPolicy.AccessType == model.AccessPublic
	if subject == nil {
		return Capabilities{CanView: public}
	}

	manage := subject.UserID == t.CreatedBy || subject.Role == model.Admin
	access := public || manage || t.AccessPolicy.Allows(subject.UserID)

	return Capabilities{
		CanView:   access,
		CanAnswer: access,
		CanEdit:   manage,
		CanDelete: manage,
	}
}

func (c Capabilities) Allows(op Operation) bool {
	switch op {
	case OpView:
		return c.CanView
	case OpAnswer:
		return c.CanAnswer
	case OpEdit:
		return c.CanEdit
	case OpDelete:
		return c.CanDelete
	}
	return false
}

// Require 不允许时返回包装了 util.ErrForbidden 的错误
func (c Capabilities) Require(op Operation) error {
	if c.Allows(op) {
		return nil
	}
	return fmt.Errorf("%s template: %w", op, util.ErrForbidden)
}

// CanManageForm 表单只能由提交者本人或管理员修改、删除
func CanManageForm(subject *Subject, form *model.ResponseForm) bool {
	if subject == nil {
		return false
	}
	return subject.Role == model.Admin || form.OwnedBy(subject.UserID)
}
