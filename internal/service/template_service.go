package service

import (
	"context"
	"errors"
	"sort"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/permission"
	"formcraft_backend/internal/repository"
	"formcraft_backend/internal/richtext"
	"formcraft_backend/internal/schema"
	"formcraft_backend/internal/util"
	"formcraft_backend/pkg/logger"
	"formcraft_backend/pkg/monitoring"

	"go.uber.org/zap"
)

type TemplateService struct {
	Repo  *repository.TemplateRepository
	Users schema.UserDirectory
	Stats *StatisticsService
}

func NewTemplateService(repo *repository.TemplateRepository, users schema.UserDirectory, stats *StatisticsService) *TemplateService {
	return &TemplateService{Repo: repo, Users: users, Stats: stats}
}

// TemplateDetail 模板及当前用户对它的权限
type TemplateDetail struct {
	*model.Template
	DescriptionHTML string                  `json:"descriptionHtml"`
	Permissions     permission.Capabilities `json:"permissions"`
}

// CategoryGroup 列表页按分类分组
type CategoryGroup struct {
	Category  string           `json:"category"`
	Templates []model.Template `json:"templates"`
}

func denied(op permission.Operation, err error) error {
	if errors.Is(err, util.ErrForbidden) {
		monitoring.PermissionDenials.WithLabelValues(string(op)).Inc()
	}
	return err
}

// Create 校验通过的草稿才会入库，创建者即为当前用户
func (s *TemplateService) Create(ctx context.Context, subject *permission.Subject, draft *model.Template) (tpl *model.Template, err error) {
	defer func() { monitoring.TemplateOperations.WithLabelValues("create", outcome(err)).Inc() }()

	if subject == nil {
		return nil, util.ErrUnauthorized
	}

	draft.ID = ""
	draft.CreatedBy = subject.UserID
	schema.PrepareDraft(draft)
	if err := schema.ValidateTemplate(ctx, draft, s.Users); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, draft); err != nil {
		return nil, storeErr("create template", err)
	}
	logger.Log.Info("Template created", zap.String("template_id", draft.ID), zap.Uint("user_id", subject.UserID))
	return draft, nil
}

func (s *TemplateService) fetch(ctx context.Context, id string) (*model.Template, error) {
	tpl, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("fetch template", err)
	}
	return tpl, nil
}

// Get 需要 view 权限
func (s *TemplateService) Get(ctx context.Context, subject *permission.Subject, id string) (*TemplateDetail, error) {
	tpl, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	caps := permission.Resolve(subject, tpl)
	if err := caps.Require(permission.OpView); err != nil {
		return nil, denied(permission.OpView, err)
	}
	return &TemplateDetail{
		Template:        tpl,
		DescriptionHTML: richtext.RenderHTML(tpl.Description),
		Permissions:     caps,
	}, nil
}

// Authorize 获取模板并要求指定操作的权限
func (s *TemplateService) Authorize(ctx context.Context, subject *permission.Subject, id string, op permission.Operation) (*model.Template, error) {
	tpl, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := permission.Resolve(subject, tpl).Require(op); err != nil {
		return nil, denied(op, err)
	}
	return tpl, nil
}

// Update 整体替换。id、创建者和创建时间以库中记录为准。
func (s *TemplateService) Update(ctx context.Context, subject *permission.Subject, id string, full *model.Template) (tpl *model.Template, err error) {
	defer func() { monitoring.TemplateOperations.WithLabelValues("update", outcome(err)).Inc() }()

	existing, err := s.Authorize(ctx, subject, id, permission.OpEdit)
	if err != nil {
		return nil, err
	}

	full.ID = existing.ID
	full.CreatedBy = existing.CreatedBy
	full.CreatedAt = existing.CreatedAt
	schema.PrepareDraft(full)
	if err := schema.ValidateTemplate(ctx, full, s.Users); err != nil {
		return nil, err
	}

	if err := s.Repo.Replace(ctx, full); err != nil {
		return nil, storeErr("update template", err)
	}
	s.Stats.Invalidate(ctx, id)
	return full, nil
}

func (s *TemplateService) Delete(ctx context.Context, subject *permission.Subject, id string) (err error) {
	defer func() { monitoring.TemplateOperations.WithLabelValues("delete", outcome(err)).Inc() }()

	if _, err := s.Authorize(ctx, subject, id, permission.OpDelete); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return storeErr("delete template", err)
	}
	s.Stats.Invalidate(ctx, id)
	logger.Log.Info("Template deleted", zap.String("template_id", id))
	return nil
}

// List 只返回当前用户可以查看的模板
func (s *TemplateService) List(ctx context.Context, subject *permission.Subject, filter repository.TemplateFilter) ([]model.Template, error) {
	templates, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list templates", err)
	}
	visible := make([]model.Template, 0, len(templates))
	for i := range templates {
		if permission.Resolve(subject, &templates[i]).CanView {
			visible = append(visible, templates[i])
		}
	}
	return visible, nil
}

func (s *TemplateService) TagNames(ctx context.Context) ([]string, error) {
	names, err := s.Repo.TagNames(ctx)
	if err != nil {
		return nil, storeErr("list tags", err)
	}
	return names, nil
}

// GroupByCategory 分类按字母序，未分类放在最后
func GroupByCategory(templates []model.Template) []CategoryGroup {
	index := map[string]int{}
	var groups []CategoryGroup
	for _, t := range templates {
		cat := t.DisplayCategory()
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, CategoryGroup{Category: cat})
		}
		groups[i].Templates = append(groups[i].Templates, t)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Category, groups[j].Category
		if (a == model.CategoryUncategorized) != (b == model.CategoryUncategorized) {
			return b == model.CategoryUncategorized
		}
		return a < b
	})
	return groups
}
