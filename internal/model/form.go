package model

// ResponseForm 一次提交产生一份表单；之后只能由本人或管理员整体替换 answers
// swagger:model ResponseForm
type ResponseForm struct {
	UUIDBase
	TemplateID string  `gorm:"index;type:varchar(36);not null" json:"templateId"`
	UserID     uint    `gorm:"index;not null" json:"userId"`
	Answers    Answers `gorm:"type:text;serializer:json" json:"answers"`
}

func (ResponseForm) TableName() string {
	return "forms"
}

// OwnedBy reports whether the form was submitted by userID.
func (f *ResponseForm) OwnedBy(userID uint) bool {
	return f.UserID == userID
}
