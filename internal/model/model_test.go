package model

import (
	"encoding/json"
	"testing"

	"formcraft_backend/internal/richtext"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTagIsIdempotent(t *testing.T) {
	once := AddTag(nil, "x")
	twice := AddTag(once, "x")
	assert.Equal(t, once, twice)
	assert.Len(t, twice, 1)

	assert.Len(t, AddTag(once, "X"), 2, "names are case sensitive")
	assert.Equal(t, once, AddTag(once, "   "))
}

func TestAddTagDoesNotAliasInput(t *testing.T) {
	base := make([]Tag, 1, 4)
	base[0] = Tag{ID: "t1", Name: "a"}
	first := AddTag(base, "b")
	second := AddTag(base, "c")
	assert.Equal(t, "b", first[1].Name)
	assert.Equal(t, "c", second[1].Name)
}

func TestRemoveTag(t *testing.T) {
	tags := TagsFromNames([]string{"a", "b", "a"})
	require.Len(t, tags, 2)

	removed := RemoveTag(tags, tags[0].ID)
	assert.Equal(t, []string{"b"}, TagNames(removed))
	assert.Equal(t, TagNames(removed), TagNames(RemoveTag(removed, "absent")))
}

func TestNormalizeTagsReassignsDuplicateIDs(t *testing.T) {
	tags := NormalizeTags([]Tag{
		{ID: "t1", Name: " go "},
		{ID: "t1", Name: "survey"},
		{ID: "t2", Name: "go"},
		{Name: "  "},
	})
	require.Len(t, tags, 2)
	assert.Equal(t, []string{"go", "survey"}, TagNames(tags))
	assert.Equal(t, "t1", tags[0].ID)
	assert.NotEqual(t, "t1", tags[1].ID)
	assert.NotEmpty(t, tags[1].ID)
}

func TestSwitchToPublicClearsAllowList(t *testing.T) {
	policy := PrivatePolicy(9, 5)
	assert.Equal(t, []uint{5, 9}, policy.AuthorizedUsers)

	public := SetAccessType(policy, AccessPublic)
	assert.Equal(t, AccessPolicy{AccessType: AccessPublic, AuthorizedUsers: []uint{}}, public)

	back := SetAccessType(public, AccessPrivate)
	assert.Empty(t, back.AuthorizedUsers)
}

func TestAuthorizeWhilePublic(t *testing.T) {
	p := PublicPolicy().Authorize(3).Authorize(3)
	assert.Equal(t, AccessPublic, p.AccessType)
	assert.Equal(t, []uint{3}, p.AuthorizedUsers)
	assert.True(t, p.Allows(3))

	assert.Empty(t, p.Normalize().AuthorizedUsers)
	assert.False(t, p.Revoke(3).Allows(3))
}

func TestChangeTypeResetsOptions(t *testing.T) {
	lo, hi := 1, 3
	q := Question{Type: QuestionMultipleChoice, Options: []string{"A", "B"}}

	q.ChangeType(QuestionText)
	assert.Equal(t, []string{}, q.Options)

	q = Question{Type: QuestionMultipleChoice, Options: []string{"A", "B"}}
	q.ChangeType(QuestionCheckbox)
	assert.Equal(t, []string{"A", "B"}, q.Options)

	q = Question{Type: QuestionNumber, MinValue: &lo, MaxValue: &hi}
	q.ChangeType(QuestionText)
	assert.Nil(t, q.MinValue)
	assert.Nil(t, q.MaxValue)
}

func TestToggleChoiceLaw(t *testing.T) {
	sets := [][]string{nil, {"red"}, {"red", "blue"}}
	for _, set := range sets {
		for _, o := range []string{"red", "green"} {
			got := ToggleChoice(ToggleChoice(set, o), o)
			assert.ElementsMatch(t, set, got)
		}
	}
	assert.Equal(t, []string{"red", "blue"}, ToggleChoice([]string{"red"}, "blue"))
	assert.Equal(t, []string{}, ToggleChoice([]string{"red"}, "red"))
}

func TestAnswerWireShape(t *testing.T) {
	answers := Answers{
		"q2": NumberAnswer("q2", 5),
		"q1": CheckboxAnswer("q1", "red"),
		"q3": TextAnswer("q3", "hi"),
	}
	data, err := json.Marshal(answers)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"questionId":"q1","response":["red"]},
		{"questionId":"q2","response":"5"},
		{"questionId":"q3","response":"hi"}
	]`, string(data))

	var decoded Answers
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, answers, decoded)
}

func TestAnswerAcceptsNumericResponse(t *testing.T) {
	var a Answer
	require.NoError(t, json.Unmarshal([]byte(`{"questionId":"age","response":42}`), &a))
	assert.Equal(t, Answer{QuestionID: "age", Value: "42"}, a)

	require.NoError(t, json.Unmarshal([]byte(`{"questionId":"c","response":[]}`), &a))
	assert.True(t, a.Set)
	assert.Equal(t, []string{}, a.Values)

	assert.Error(t, json.Unmarshal([]byte(`{"questionId":"c","response":[1,2]}`), &a))
	assert.Error(t, json.Unmarshal([]byte(`{"questionId":"c","response":{"a":1}}`), &a))
}

func TestTemplateDescriptionHooks(t *testing.T) {
	tpl := &Template{Description: richtext.Paragraph("p1", "hello")}
	require.NoError(t, tpl.BeforeSave(nil))
	assert.NotEmpty(t, tpl.DescriptionRaw)

	loaded := &Template{DescriptionRaw: tpl.DescriptionRaw}
	require.NoError(t, loaded.AfterFind(nil))
	assert.Equal(t, tpl.Description, loaded.Description)

	empty := &Template{}
	require.NoError(t, empty.AfterFind(nil))
	assert.True(t, empty.Description.IsEmpty())

	broken := &Template{DescriptionRaw: `{"blocks":[`}
	var decodeErr *richtext.DecodeError
	assert.ErrorAs(t, broken.AfterFind(nil), &decodeErr)
}

func TestTemplateFilters(t *testing.T) {
	tpl := &Template{Tags: TagsFromNames([]string{"go", "web"})}
	assert.True(t, tpl.HasAllTags([]string{"go"}))
	assert.True(t, tpl.HasAllTags(nil))
	assert.False(t, tpl.HasAllTags([]string{"go", "rust"}))
	assert.Equal(t, CategoryUncategorized, tpl.DisplayCategory())
}
