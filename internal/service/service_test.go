package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"formcraft_backend/internal/config"
	"formcraft_backend/internal/model"
	"formcraft_backend/internal/permission"
	"formcraft_backend/internal/repository"
	"formcraft_backend/pkg/database"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	templates *TemplateService
	forms     *FormService
	users     *UserService
	auth      *AuthService
	userRepo  *repository.UserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenTest()
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	formRepo := repository.NewFormRepository(db)
	users := NewUserService(userRepo)
	stats := NewStatisticsService(formRepo, nil, time.Minute)
	templates := NewTemplateService(repository.NewTemplateRepository(db), users, stats)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret-test-secret-test-secret", ExpireTime: time.Hour}}

	return &fixture{
		templates: templates,
		forms:     NewFormService(formRepo, templates, stats),
		users:     users,
		auth:      NewAuthService(userRepo, cfg),
		userRepo:  userRepo,
	}
}

// seedUsers 按给定 id 建用户，id 与题目描述中的编号一致
func (f *fixture) seedUsers(t *testing.T, ids ...uint) {
	t.Helper()
	for _, id := range ids {
		u := &model.User{
			BaseModel: model.BaseModel{ID: id},
			Name:      "user",
			Email:     fmt.Sprintf("user%d@example.com", id),
			Password:  "x",
			Role:      model.RegularUser,
		}
		require.NoError(t, f.userRepo.Create(context.Background(), u))
	}
}

func user(id uint) *permission.Subject {
	return &permission.Subject{UserID: id, Role: model.RegularUser}
}

func admin(id uint) *permission.Subject {
	return &permission.Subject{UserID: id, Role: model.Admin}
}

func colourTemplate(allowed ...uint) *model.Template {
	return &model.Template{
		Title: "Colours",
		Questions: []model.Question{
			{ID: "q1", Text: "Pick colours", Type: model.QuestionCheckbox, Options: []string{"red", "blue"}},
		},
		AccessPolicy: model.PrivatePolicy(allowed...),
	}
}
