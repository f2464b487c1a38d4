// Package formsession 表单填写/编辑的状态机。
//
// 创建模式从空答案开始进入 Filling；编辑模式载入已有表单进入 Viewing，
// 通过 ToggleEdit 在 Viewing 与 Editing 之间切换。提交总是发送完整的答案映射。
package formsession

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"formcraft_backend/internal/model"
)

type State string

const (
	Filling    State = "filling"
	Viewing    State = "viewing"
	Editing    State = "editing"
	Submitting State = "submitting"
	Submitted  State = "submitted"
)

type Mode string

const (
	CreateMode Mode = "create"
	EditMode   Mode = "edit"
)

var (
	ErrNotEditable        = errors.New("form is not accepting input")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrAlreadySubmitted   = errors.New("form already submitted")
	ErrUnknownQuestion    = errors.New("question does not belong to this template")
	ErrWrongQuestionType  = errors.New("operation does not match question type")
)

// Store 持久化表单，由 FormService 实现
type Store interface {
	Create(ctx context.Context, templateID string, answers model.Answers) (*model.ResponseForm, error)
	Update(ctx context.Context, formID string, answers model.Answers) (*model.ResponseForm, error)
}

type Session struct {
	mu        sync.Mutex
	mode      Mode
	state     State
	resume    State
	template  *model.Template
	formID    string
	answers   model.Answers
	result    *model.ResponseForm
	lastError error
}

func NewCreate(t *model.Template) *Session {
	return &Session{
		mode:     CreateMode,
		state:    Filling,
		template: t,
		answers:  model.Answers{},
	}
}

// NewEdit 以已持久化的答案进入只读查看状态
func NewEdit(t *model.Template, form *model.ResponseForm) *Session {
	return &Session{
		mode:     EditMode,
		state:    Viewing,
		template: t,
		formID:   form.ID,
		answers:  form.Answers.Clone(),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Mode() Mode {
	return s.mode
}

func (s *Session) Template() *model.Template {
	return s.template
}

// Answers 返回当前答案的副本
func (s *Session) Answers() model.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

func (s *Session) Answer(questionID string) (model.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[questionID]
	return a, ok
}

func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Failed 最近一次提交是否失败
func (s *Session) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError != nil
}

// Result 提交成功后持久化的表单
func (s *Session) Result() *model.ResponseForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// ToggleEdit 只切换输入控件是否可用，不改动答案
func (s *Session) ToggleEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Viewing:
		s.state = Editing
	case Editing:
		s.state = Viewing
	default:
		return ErrNotEditable
	}
	return nil
}

func (s *Session) SetText(questionID, text string) error {
	return s.update(questionID, func(q *model.Question) (model.Answer, error) {
		if q.Type != model.QuestionText && q.Type != model.QuestionMultipleChoice {
			return model.Answer{}, ErrWrongQuestionType
		}
		return model.TextAnswer(questionID, text), nil
	})
}

func (s *Session) SetNumber(questionID string, n int) error {
	return s.update(questionID, func(q *model.Question) (model.Answer, error) {
		if q.Type != model.QuestionNumber {
			return model.Answer{}, ErrWrongQuestionType
		}
		return model.NumberAnswer(questionID, n), nil
	})
}

// SetRaw 数字题接受原始输入，格式检查留到校验阶段
func (s *Session) SetRaw(questionID, raw string) error {
	return s.update(questionID, func(q *model.Question) (model.Answer, error) {
		if q.Type == model.QuestionCheckbox {
			return model.Answer{}, ErrWrongQuestionType
		}
		if q.Type == model.QuestionNumber {
			if n, err := strconv.Atoi(raw); err == nil {
				return model.NumberAnswer(questionID, n), nil
			}
		}
		return model.TextAnswer(questionID, raw), nil
	})
}

// ToggleChoice 多选题按成员关系增删选项，不在此处对照 options 校验
func (s *Session) ToggleChoice(questionID, option string) error {
	return s.update(questionID, func(q *model.Question) (model.Answer, error) {
		if q.Type != model.QuestionCheckbox {
			return model.Answer{}, ErrWrongQuestionType
		}
		current := s.answers[questionID].Values
		return model.CheckboxAnswer(questionID, model.ToggleChoice(current, option)...), nil
	})
}

func (s *Session) update(questionID string, build func(q *model.Question) (model.Answer, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Filling && s.state != Editing {
		return ErrNotEditable
	}
	q, ok := s.template.Question(questionID)
	if !ok {
		return ErrUnknownQuestion
	}
	a, err := build(q)
	if err != nil {
		return err
	}
	s.answers[questionID] = a
	return nil
}

// Submit 同一时刻最多一个提交；失败时回到提交前的状态且答案保持不变
func (s *Session) Submit(ctx context.Context, store Store) (*model.ResponseForm, error) {
	s.mu.Lock()
	switch s.state {
	case Submitting:
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case Submitted:
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	case Filling, Editing, Viewing:
	default:
		s.mu.Unlock()
		return nil, ErrNotEditable
	}
	s.resume = s.state
	s.state = Submitting
	snapshot := s.answers.Clone()
	s.mu.Unlock()

	var (
		form *model.ResponseForm
		err  error
	)
	if s.mode == CreateMode {
		form, err = store.Create(ctx, s.template.ID, snapshot)
	} else {
		form, err = store.Update(ctx, s.formID, snapshot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err
		s.state = s.resume
		return nil, err
	}
	s.lastError = nil
	s.result = form
	s.state = Submitted
	return form, nil
}
