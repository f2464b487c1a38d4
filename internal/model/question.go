package model

type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionNumber         QuestionType = "number"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionCheckbox       QuestionType = "checkbox"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionNumber, QuestionMultipleChoice, QuestionCheckbox:
		return true
	}
	return false
}

// IsChoice 选项类题型：答案必须取自 Options
func (t QuestionType) IsChoice() bool {
	return t == QuestionMultipleChoice || t == QuestionCheckbox
}

// Question 模板中的一道题。ID 在模板内唯一，(TemplateID, ID) 为联合主键。
// swagger:model Question
type Question struct {
	TemplateID string       `gorm:"primaryKey;type:varchar(36)" json:"-"`
	ID         string       `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Position   int          `gorm:"not null;default:0" json:"-"`
	Text       string       `gorm:"type:text;not null" json:"questionText"`
	Type       QuestionType `gorm:"size:20;not null" json:"questionType"`
	Options    []string     `gorm:"type:text;serializer:json" json:"options"`
	MinValue   *int         `json:"minValue,omitempty"`
	MaxValue   *int         `json:"maxValue,omitempty"`
}

func (Question) TableName() string {
	return "template_questions"
}

// ChangeType 切换题型。离开选项类题型时清空已录入的选项，离开数字题时清空上下限。
func (q *Question) ChangeType(t QuestionType) {
	if !t.IsChoice() {
		q.Options = []string{}
	}
	if t != QuestionNumber {
		q.MinValue = nil
		q.MaxValue = nil
	}
	q.Type = t
}

// HasOption reports whether value is one of the question's options.
func (q *Question) HasOption(value string) bool {
	for _, o := range q.Options {
		if o == value {
			return true
		}
	}
	return false
}
