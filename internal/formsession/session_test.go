package formsession

import (
	"context"
	"errors"
	"sync"
	"testing"

	"formcraft_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	mu      sync.Mutex
	err     error
	block   chan struct{}
	entered chan struct{}
	created []model.Answers
	updated []model.Answers
}

func (r *recordingStore) wait() {
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
}

func (r *recordingStore) Create(_ context.Context, templateID string, answers model.Answers) (*model.ResponseForm, error) {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.created = append(r.created, answers)
	return &model.ResponseForm{UUIDBase: model.UUIDBase{ID: "form-1"}, TemplateID: templateID, Answers: answers}, nil
}

func (r *recordingStore) Update(_ context.Context, formID string, answers model.Answers) (*model.ResponseForm, error) {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.updated = append(r.updated, answers)
	return &model.ResponseForm{UUIDBase: model.UUIDBase{ID: formID}, Answers: answers}, nil
}

func sampleTemplate() *model.Template {
	return &model.Template{
		UUIDBase: model.UUIDBase{ID: "tpl-1"},
		Questions: []model.Question{
			{ID: "q1", Type: model.QuestionCheckbox, Options: []string{"red", "blue"}},
			{ID: "q2", Type: model.QuestionNumber},
			{ID: "q3", Type: model.QuestionText},
		},
	}
}

func TestCreateModeStartsEmpty(t *testing.T) {
	s := NewCreate(sampleTemplate())
	assert.Equal(t, Filling, s.State())
	assert.Equal(t, CreateMode, s.Mode())
	assert.Empty(t, s.Answers())
}

func TestFieldEditTouchesOneEntry(t *testing.T) {
	s := NewCreate(sampleTemplate())
	require.NoError(t, s.SetText("q3", "hello"))
	require.NoError(t, s.SetNumber("q2", 4))

	answers := s.Answers()
	assert.Len(t, answers, 2)
	assert.Equal(t, "hello", answers["q3"].Value)
	assert.Equal(t, "4", answers["q2"].Value)

	require.NoError(t, s.SetText("q3", "bye"))
	assert.Equal(t, "4", s.Answers()["q2"].Value)
	assert.Equal(t, "bye", s.Answers()["q3"].Value)
}

func TestToggleChoiceTwiceRestores(t *testing.T) {
	s := NewCreate(sampleTemplate())
	require.NoError(t, s.ToggleChoice("q1", "red"))
	before := s.Answers()["q1"].Values

	require.NoError(t, s.ToggleChoice("q1", "blue"))
	require.NoError(t, s.ToggleChoice("q1", "blue"))

	assert.Equal(t, before, s.Answers()["q1"].Values)
}

func TestToggleChoiceDoesNotCheckOptions(t *testing.T) {
	s := NewCreate(sampleTemplate())
	require.NoError(t, s.ToggleChoice("q1", "green"))
	assert.Equal(t, []string{"green"}, s.Answers()["q1"].Values)
}

func TestWrongQuestionTypeAndUnknownQuestion(t *testing.T) {
	s := NewCreate(sampleTemplate())
	assert.ErrorIs(t, s.ToggleChoice("q3", "x"), ErrWrongQuestionType)
	assert.ErrorIs(t, s.SetNumber("q1", 1), ErrWrongQuestionType)
	assert.ErrorIs(t, s.SetText("missing", "x"), ErrUnknownQuestion)
}

func TestSetRawKeepsUnparsedNumber(t *testing.T) {
	s := NewCreate(sampleTemplate())
	require.NoError(t, s.SetRaw("q2", "12"))
	assert.Equal(t, "12", s.Answers()["q2"].Value)
	require.NoError(t, s.SetRaw("q2", "twelve"))
	assert.Equal(t, "twelve", s.Answers()["q2"].Value)
	assert.ErrorIs(t, s.SetRaw("q1", "red"), ErrWrongQuestionType)
}

func TestEditModeToggleGatesInput(t *testing.T) {
	form := &model.ResponseForm{
		UUIDBase: model.UUIDBase{ID: "form-9"},
		Answers:  model.Answers{"q3": model.TextAnswer("q3", "stored")},
	}
	s := NewEdit(sampleTemplate(), form)
	assert.Equal(t, Viewing, s.State())

	assert.ErrorIs(t, s.SetText("q3", "new"), ErrNotEditable)

	require.NoError(t, s.ToggleEdit())
	assert.Equal(t, Editing, s.State())
	assert.Equal(t, "stored", s.Answers()["q3"].Value)

	require.NoError(t, s.ToggleEdit())
	assert.Equal(t, Viewing, s.State())
	assert.Equal(t, form.Answers, s.Answers())
}

func TestEditModeSubmitsFullMapping(t *testing.T) {
	form := &model.ResponseForm{
		UUIDBase: model.UUIDBase{ID: "form-9"},
		Answers: model.Answers{
			"q1": model.CheckboxAnswer("q1", "blue"),
			"q3": model.TextAnswer("q3", "stored"),
		},
	}
	s := NewEdit(sampleTemplate(), form)
	require.NoError(t, s.ToggleEdit())
	require.NoError(t, s.SetNumber("q2", 3))

	store := &recordingStore{}
	_, err := s.Submit(context.Background(), store)
	require.NoError(t, err)

	require.Len(t, store.updated, 1)
	sent := store.updated[0]
	assert.Len(t, sent, 3)
	assert.Equal(t, []string{"blue"}, sent["q1"].Values)
	assert.Empty(t, store.created)
}

func TestSubmitFailureKeepsAnswers(t *testing.T) {
	s := NewCreate(sampleTemplate())
	require.NoError(t, s.ToggleChoice("q1", "red"))

	boom := errors.New("gateway timeout")
	store := &recordingStore{err: boom}

	_, err := s.Submit(context.Background(), store)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Filling, s.State())
	assert.True(t, s.Failed())
	assert.ErrorIs(t, s.LastError(), boom)
	assert.Equal(t, []string{"red"}, s.Answers()["q1"].Values)

	store.err = nil
	form, err := s.Submit(context.Background(), store)
	require.NoError(t, err)
	assert.False(t, s.Failed())
	assert.Equal(t, "tpl-1", form.TemplateID)
}

func TestSubmittedIsNotReEnterable(t *testing.T) {
	s := NewCreate(sampleTemplate())
	store := &recordingStore{}

	_, err := s.Submit(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, Submitted, s.State())
	assert.NotNil(t, s.Result())

	_, err = s.Submit(context.Background(), store)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.ErrorIs(t, s.SetText("q3", "late"), ErrNotEditable)
	assert.ErrorIs(t, s.ToggleEdit(), ErrNotEditable)
	assert.Len(t, store.created, 1)
}

func TestOneSubmissionInFlight(t *testing.T) {
	s := NewCreate(sampleTemplate())
	store := &recordingStore{block: make(chan struct{}), entered: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), store)
		done <- err
	}()
	<-store.entered

	assert.Equal(t, Submitting, s.State())
	_, err := s.Submit(context.Background(), store)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.ErrorIs(t, s.SetText("q3", "mid-flight"), ErrNotEditable)

	close(store.block)
	require.NoError(t, <-done)
	assert.Equal(t, Submitted, s.State())
	assert.Len(t, store.created, 1)
}
