package service

import (
	"context"

	"formcraft_backend/internal/formsession"
	"formcraft_backend/internal/model"
	"formcraft_backend/internal/permission"
	"formcraft_backend/internal/repository"
	"formcraft_backend/internal/schema"
	"formcraft_backend/internal/util"
	"formcraft_backend/pkg/logger"
	"formcraft_backend/pkg/monitoring"

	"go.uber.org/zap"
)

type FormService struct {
	Repo      *repository.FormRepository
	Templates *TemplateService
	Stats     *StatisticsService
}

func NewFormService(repo *repository.FormRepository, templates *TemplateService, stats *StatisticsService) *FormService {
	return &FormService{Repo: repo, Templates: templates, Stats: stats}
}

// Create 每次提交都会生成一份新表单；需要 answer 权限，允许只回答部分题目
func (s *FormService) Create(ctx context.Context, subject *permission.Subject, templateID string, answers model.Answers) (form *model.ResponseForm, err error) {
	defer func() { monitoring.FormSubmissions.WithLabelValues("create", outcome(err)).Inc() }()

	if subject == nil {
		return nil, util.ErrUnauthorized
	}
	tpl, err := s.Templates.Authorize(ctx, subject, templateID, permission.OpAnswer)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		answers = model.Answers{}
	}
	if err := schema.ValidateAnswers(tpl, answers); err != nil {
		return nil, err
	}

	form = &model.ResponseForm{TemplateID: tpl.ID, UserID: subject.UserID, Answers: answers}
	if err := s.Repo.Create(ctx, form); err != nil {
		return nil, storeErr("create form", err)
	}
	s.Stats.Invalidate(ctx, tpl.ID)
	logger.Log.Info("Form submitted",
		zap.String("form_id", form.ID),
		zap.String("template_id", tpl.ID),
		zap.Uint("user_id", subject.UserID))
	return form, nil
}

func (s *FormService) fetch(ctx context.Context, id string) (*model.ResponseForm, error) {
	form, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("fetch form", err)
	}
	return form, nil
}

// canRead 提交者、管理员和模板的创建者可以查看表单
func (s *FormService) canRead(ctx context.Context, subject *permission.Subject, form *model.ResponseForm) error {
	if subject == nil {
		return util.ErrUnauthorized
	}
	if permission.CanManageForm(subject, form) {
		return nil
	}
	_, err := s.Templates.Authorize(ctx, subject, form.TemplateID, permission.OpEdit)
	return err
}

// FormDetail 表单连同其所属模板，编辑页面需要两者
type FormDetail struct {
	Form     *model.ResponseForm `json:"form"`
	Template *model.Template     `json:"template"`
	CanEdit  bool                `json:"canEdit"`
}

func (s *FormService) Get(ctx context.Context, subject *permission.Subject, id string) (*FormDetail, error) {
	form, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, subject, form); err != nil {
		return nil, err
	}
	tpl, err := s.Templates.fetch(ctx, form.TemplateID)
	if err != nil {
		return nil, err
	}
	return &FormDetail{Form: form, Template: tpl, CanEdit: permission.CanManageForm(subject, form)}, nil
}

// Update 整体替换答案，只有提交者本人或管理员可以修改
func (s *FormService) Update(ctx context.Context, subject *permission.Subject, id string, answers model.Answers) (form *model.ResponseForm, err error) {
	defer func() { monitoring.FormSubmissions.WithLabelValues("update", outcome(err)).Inc() }()

	form, err = s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, util.ErrUnauthorized
	}
	if !permission.CanManageForm(subject, form) {
		return nil, denied("edit_form", util.ErrForbidden)
	}
	tpl, err := s.Templates.fetch(ctx, form.TemplateID)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		answers = model.Answers{}
	}
	if err := schema.ValidateAnswers(tpl, answers); err != nil {
		return nil, err
	}

	form.Answers = answers
	if err := s.Repo.ReplaceAnswers(ctx, form); err != nil {
		return nil, storeErr("update form", err)
	}
	s.Stats.Invalidate(ctx, form.TemplateID)
	return form, nil
}

func (s *FormService) Delete(ctx context.Context, subject *permission.Subject, id string) error {
	form, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if subject == nil {
		return util.ErrUnauthorized
	}
	if !permission.CanManageForm(subject, form) {
		return denied("delete_form", util.ErrForbidden)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return storeErr("delete form", err)
	}
	s.Stats.Invalidate(ctx, form.TemplateID)
	return nil
}

// ListByUser 本人或管理员
func (s *FormService) ListByUser(ctx context.Context, subject *permission.Subject, userID uint) ([]model.ResponseForm, error) {
	if subject == nil {
		return nil, util.ErrUnauthorized
	}
	if subject.UserID != userID && subject.Role != model.Admin {
		return nil, denied("list_forms", util.ErrForbidden)
	}
	forms, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeErr("list forms by user", err)
	}
	return forms, nil
}

// ListByTemplate 模板的创建者或管理员
func (s *FormService) ListByTemplate(ctx context.Context, subject *permission.Subject, templateID string) ([]model.ResponseForm, error) {
	if _, err := s.Templates.Authorize(ctx, subject, templateID, permission.OpEdit); err != nil {
		return nil, err
	}
	forms, err := s.Repo.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, storeErr("list forms by template", err)
	}
	return forms, nil
}

// Statistics 与表单列表同样只对模板的创建者或管理员开放
func (s *FormService) Statistics(ctx context.Context, subject *permission.Subject, templateID string) (*TemplateStatistics, error) {
	tpl, err := s.Templates.Authorize(ctx, subject, templateID, permission.OpEdit)
	if err != nil {
		return nil, err
	}
	return s.Stats.Compute(ctx, tpl)
}

// SessionStore 把填写会话的提交绑定到某个身份上
func (s *FormService) SessionStore(subject *permission.Subject) formsession.Store {
	return &sessionStore{forms: s, subject: subject}
}

type sessionStore struct {
	forms   *FormService
	subject *permission.Subject
}

func (st *sessionStore) Create(ctx context.Context, templateID string, answers model.Answers) (*model.ResponseForm, error) {
	return st.forms.Create(ctx, st.subject, templateID, answers)
}

func (st *sessionStore) Update(ctx context.Context, formID string, answers model.Answers) (*model.ResponseForm, error) {
	return st.forms.Update(ctx, st.subject, formID, answers)
}
