package repository

import (
	"context"
	"errors"
	"testing"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/richtext"
	"formcraft_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenTest()
	require.NoError(t, err)
	return db
}

func newTemplate(title string, owner uint) *model.Template {
	return &model.Template{
		Title:       title,
		Category:    model.CategoryTechnology,
		Description: richtext.Paragraph("d1", "Tell us about "+title),
		Questions: []model.Question{
			{ID: "q1", Text: "Colours", Type: model.QuestionCheckbox, Options: []string{"red", "blue"}},
			{ID: "q2", Text: "Age", Type: model.QuestionNumber, Options: []string{}},
		},
		Tags:         model.TagsFromNames([]string{"go", "survey"}),
		AccessPolicy: model.PrivatePolicy(42),
		CreatedBy:    owner,
	}
}

func TestTemplateCreateAndFind(t *testing.T) {
	repo := NewTemplateRepository(setupDB(t))
	ctx := context.Background()

	tpl := newTemplate("Lunch", 1)
	require.NoError(t, repo.Create(ctx, tpl))
	require.NotEmpty(t, tpl.ID)

	found, err := repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)

	assert.Equal(t, "Lunch", found.Title)
	assert.Equal(t, tpl.Description, found.Description)
	require.Len(t, found.Questions, 2)
	assert.Equal(t, "q1", found.Questions[0].ID)
	assert.Equal(t, []string{"red", "blue"}, found.Questions[0].Options)
	assert.ElementsMatch(t, []string{"go", "survey"}, model.TagNames(found.Tags))
	assert.Equal(t, model.PrivatePolicy(42), found.AccessPolicy)
}

func TestTemplateFindMissing(t *testing.T) {
	repo := NewTemplateRepository(setupDB(t))
	_, err := repo.FindByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestTemplateCorruptDescriptionSurfaces(t *testing.T) {
	db := setupDB(t)
	repo := NewTemplateRepository(db)
	ctx := context.Background()

	tpl := newTemplate("Broken", 1)
	require.NoError(t, repo.Create(ctx, tpl))
	require.NoError(t, db.Exec("UPDATE templates SET description = ? WHERE id = ?",
		`{"blocks":[{"key":"a","text":"hi"}],"entityMap":{},"selection":{"anchorKey":"zz","anchorOffset":0,"focusKey":"a","focusOffset":0}}`,
		tpl.ID).Error)

	_, err := repo.FindByID(ctx, tpl.ID)
	var decodeErr *richtext.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestTemplateListSkipsCorruptDescription(t *testing.T) {
	db := setupDB(t)
	repo := NewTemplateRepository(db)
	ctx := context.Background()

	good := newTemplate("Good", 1)
	require.NoError(t, repo.Create(ctx, good))
	bad := newTemplate("Bad", 1)
	require.NoError(t, repo.Create(ctx, bad))
	require.NoError(t, db.Exec("UPDATE templates SET description = ? WHERE id = ?", `{"blocks":[`, bad.ID).Error)

	list, err := repo.List(ctx, TemplateFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, good.ID, list[0].ID)
	assert.Equal(t, "Tell us about Good", list[0].Description.PlainText())
	assert.Len(t, list[0].Questions, 2)

	tagged, err := repo.List(ctx, TemplateFilter{Tags: []string{"go"}})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, good.ID, tagged[0].ID)

	_, err = repo.FindByID(ctx, bad.ID)
	var decodeErr *richtext.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestTemplateReplaceIsFull(t *testing.T) {
	repo := NewTemplateRepository(setupDB(t))
	ctx := context.Background()

	tpl := newTemplate("Lunch", 1)
	require.NoError(t, repo.Create(ctx, tpl))

	loaded, err := repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)

	loaded.Title = "Dinner"
	loaded.Questions = []model.Question{
		{ID: "q9", Text: "Anything else?", Type: model.QuestionText, Options: []string{}},
	}
	loaded.Tags = model.RemoveTag(loaded.Tags, loaded.Tags[0].ID)
	loaded.AccessPolicy = model.SetAccessType(loaded.AccessPolicy, model.AccessPublic)
	require.NoError(t, repo.Replace(ctx, loaded))

	again, err := repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dinner", again.Title)
	require.Len(t, again.Questions, 1)
	assert.Equal(t, "q9", again.Questions[0].ID)
	assert.Len(t, again.Tags, 1)
	assert.Equal(t, model.AccessPublic, again.AccessPolicy.AccessType)
	assert.Empty(t, again.AccessPolicy.AuthorizedUsers)
}

func TestTemplateDeleteCascades(t *testing.T) {
	db := setupDB(t)
	templates := NewTemplateRepository(db)
	forms := NewFormRepository(db)
	ctx := context.Background()

	tpl := newTemplate("Lunch", 1)
	require.NoError(t, templates.Create(ctx, tpl))
	require.NoError(t, forms.Create(ctx, &model.ResponseForm{TemplateID: tpl.ID, UserID: 42, Answers: model.Answers{}}))

	require.NoError(t, templates.Delete(ctx, tpl.ID))

	var questions, tags int64
	db.Model(&model.Question{}).Where("template_id = ?", tpl.ID).Count(&questions)
	db.Model(&model.Tag{}).Where("template_id = ?", tpl.ID).Count(&tags)
	assert.Zero(t, questions)
	assert.Zero(t, tags)

	left, err := forms.ListByTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, templates.Delete(ctx, tpl.ID), gorm.ErrRecordNotFound)
}

func TestTemplateListFilters(t *testing.T) {
	repo := NewTemplateRepository(setupDB(t))
	ctx := context.Background()

	a := newTemplate("A", 1)
	b := newTemplate("B", 2)
	b.Category = ""
	b.Tags = model.TagsFromNames([]string{"go"})
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	all, err := repo.List(ctx, TemplateFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	tagged, err := repo.List(ctx, TemplateFilter{Tags: []string{"go", "survey"}})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "A", tagged[0].Title)

	uncategorized, err := repo.List(ctx, TemplateFilter{Categories: []string{model.CategoryUncategorized}})
	require.NoError(t, err)
	require.Len(t, uncategorized, 1)
	assert.Equal(t, "B", uncategorized[0].Title)

	mine, err := repo.List(ctx, TemplateFilter{CreatedBy: 1})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	names, err := repo.TagNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "survey"}, names)
}

func TestFormLifecycle(t *testing.T) {
	repo := NewFormRepository(setupDB(t))
	ctx := context.Background()

	form := &model.ResponseForm{
		TemplateID: "tpl-1",
		UserID:     42,
		Answers:    model.Answers{"q1": model.CheckboxAnswer("q1", "red")},
	}
	require.NoError(t, repo.Create(ctx, form))

	found, err := repo.FindByID(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, form.Answers, found.Answers)

	found.Answers = model.Answers{"q2": model.NumberAnswer("q2", 3)}
	require.NoError(t, repo.ReplaceAnswers(ctx, found))

	again, err := repo.FindByID(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Answers{"q2": model.NumberAnswer("q2", 3)}, again.Answers)

	byUser, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	require.NoError(t, repo.Delete(ctx, form.ID))
	assert.ErrorIs(t, repo.Delete(ctx, form.ID), gorm.ErrRecordNotFound)
}

func TestUserDirectoryOperations(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	ctx := context.Background()

	alice := &model.User{Name: "Alice", Email: "alice@example.com", Password: "x", Role: model.RegularUser}
	bob := &model.User{Name: "Bob", Email: "bob@example.com", Password: "x", Role: model.RegularUser}
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))

	ids, err := repo.ExistingIDs(ctx, []uint{alice.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID}, ids)

	n, err := repo.UpdateRole(ctx, bob.ID, model.Admin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.SetBlocked(ctx, []uint{alice.ID, bob.ID}, true)
	require.NoError(t, err)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, users[0].Blocked)
	assert.Equal(t, model.Admin, users[1].Role)

	_, err = repo.Delete(ctx, []uint{alice.ID})
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
