package schema

import (
	"fmt"
	"strconv"
	"strings"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/util"
)

// ValidateAnswers 检查作答与题型是否匹配。允许只回答部分题目。
func ValidateAnswers(t *model.Template, answers model.Answers) error {
	verr := &util.ValidationError{}

	for _, a := range answers.List() {
		field := "answers." + a.QuestionID
		q, ok := t.Question(a.QuestionID)
		if !ok {
			verr.Add(field, "unknown", "question does not exist in this template")
			continue
		}

		if q.Type == model.QuestionCheckbox {
			if !a.Set {
				verr.Add(field, "shape", "checkbox answers must be a list of options")
				continue
			}
			seen := make(map[string]struct{}, len(a.Values))
			for _, v := range a.Values {
				if !q.HasOption(v) {
					verr.Add(field, "option", fmt.Sprintf("%q is not an option of this question", v))
				}
				if _, dup := seen[v]; dup {
					verr.Add(field, "unique", fmt.Sprintf("%q is selected more than once", v))
				}
				seen[v] = struct{}{}
			}
			continue
		}

		if a.Set {
			verr.Add(field, "shape", fmt.Sprintf("%s answers must be a single value", q.Type))
			continue
		}
		if a.Value == "" {
			continue
		}

		switch q.Type {
		case model.QuestionText:
		case model.QuestionNumber:
			n, err := strconv.Atoi(strings.TrimSpace(a.Value))
			if err != nil {
				verr.Add(field, "number", fmt.Sprintf("%q is not an integer", a.Value))
				continue
			}
			if q.MinValue != nil && n < *q.MinValue {
				verr.Add(field, "bounds", fmt.Sprintf("must be at least %d", *q.MinValue))
			}
			if q.MaxValue != nil && n > *q.MaxValue {
				verr.Add(field, "bounds", fmt.Sprintf("must be at most %d", *q.MaxValue))
			}
		case model.QuestionMultipleChoice:
			if !q.HasOption(a.Value) {
				verr.Add(field, "option", fmt.Sprintf("%q is not an option of this question", a.Value))
			}
		default:
			verr.Add(field, "type", fmt.Sprintf("unknown question type %q", q.Type))
		}
	}

	return verr.OrNil()
}
