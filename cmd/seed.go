package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"formcraft_backend/internal/app"
	"formcraft_backend/internal/model"
	"formcraft_backend/internal/permission"
	"formcraft_backend/internal/richtext"
	"formcraft_backend/internal/util"
	"formcraft_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedFile 演示数据；用户按邮箱去重，模板每次都会新建
type SeedFile struct {
	Users     []SeedUser     `yaml:"users"`
	Templates []SeedTemplate `yaml:"templates"`
}

type SeedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Admin    bool   `yaml:"admin"`
}

type SeedTemplate struct {
	Owner       string         `yaml:"owner"`
	Title       string         `yaml:"title"`
	Category    string         `yaml:"category"`
	Description string         `yaml:"description"`
	Tags        []string       `yaml:"tags"`
	Private     bool           `yaml:"private"`
	Authorized  []string       `yaml:"authorized"`
	Questions   []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	ID      string   `yaml:"id"`
	Text    string   `yaml:"text"`
	Type    string   `yaml:"type"`
	Options []string `yaml:"options"`
	Min     *int     `yaml:"min"`
	Max     *int     `yaml:"max"`
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users and templates from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger.InitLogger(cfg)
		defer logger.Log.Sync()

		data, err := os.ReadFile(seedFile)
		if err != nil {
			return err
		}
		var seed SeedFile
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return fmt.Errorf("parse %s: %w", seedFile, err)
		}

		ctx := cmd.Context()
		db, rdb, err := app.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		return runSeed(ctx, app.NewServices(db, rdb, cfg), &seed)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "configs/seed.yaml", "种子数据文件")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(ctx context.Context, s *app.Services, seed *SeedFile) error {
	users := make(map[string]*model.User, len(seed.Users))
	for _, u := range seed.Users {
		user, err := s.Auth.Register(ctx, u.Name, u.Email, u.Password)
		if errors.Is(err, util.ErrEmailRegistered) {
			_, user, err = s.Auth.Login(ctx, u.Email, u.Password)
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if u.Admin && user.Role != model.Admin {
			if err := s.User.Promote(ctx, user.ID); err != nil {
				return err
			}
			user.Role = model.Admin
		}
		users[user.Email] = user
	}

	for _, t := range seed.Templates {
		owner, ok := users[emailKey(t.Owner)]
		if !ok {
			return fmt.Errorf("template %q: unknown owner %s", t.Title, t.Owner)
		}
		draft, err := t.toTemplate(users)
		if err != nil {
			return err
		}
		subject := &permission.Subject{UserID: owner.ID, Role: owner.Role}
		created, err := s.Template.Create(ctx, subject, draft)
		if err != nil {
			return fmt.Errorf("template %q: %w", t.Title, err)
		}
		logger.Log.Info("Template seeded", zap.String("id", created.ID), zap.String("title", created.Title))
	}
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (t SeedTemplate) toTemplate(users map[string]*model.User) (*model.Template, error) {
	draft := &model.Template{
		Title:        t.Title,
		Category:     t.Category,
		Description:  richtext.Empty(),
		Tags:         model.TagsFromNames(t.Tags),
		AccessPolicy: model.PublicPolicy(),
	}
	if t.Description != "" {
		draft.Description = richtext.Paragraph("intro", t.Description)
	}

	if t.Private {
		draft.AccessPolicy = model.PrivatePolicy()
		for _, email := range t.Authorized {
			u, ok := users[emailKey(email)]
			if !ok {
				return nil, fmt.Errorf("template %q: unknown authorized user %s", t.Title, email)
			}
			draft.AccessPolicy = draft.AccessPolicy.Authorize(u.ID)
		}
	}

	for _, q := range t.Questions {
		draft.Questions = append(draft.Questions, model.Question{
			ID:       q.ID,
			Text:     q.Text,
			Type:     model.QuestionType(q.Type),
			Options:  q.Options,
			MinValue: q.Min,
			MaxValue: q.Max,
		})
	}
	return draft, nil
}
