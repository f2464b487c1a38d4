// Package schema 校验模板草稿与作答内容。校验是纯函数，所有违规项一次性收集返回。
package schema

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// UserDirectory 用于核对私有模板白名单中的用户是否存在
type UserDirectory interface {
	MissingUsers(ctx context.Context, ids []uint) ([]uint, error)
}

type templateFields struct {
	Title        string           `json:"title" validate:"notblank"`
	Category     string           `json:"category" validate:"omitempty,oneof=education health technology entertainment other"`
	AccessPolicy accessFields     `json:"accessPolicy"`
	Questions    []questionFields `json:"questions" validate:"dive"`
}

type accessFields struct {
	AccessType string `json:"accessType" validate:"oneof=public private"`
}

type questionFields struct {
	Text string `json:"questionText" validate:"notblank"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// PrepareDraft 规整草稿：补齐题目 id 与顺序，按题型丢弃不属于该题型的字段，规整访问策略
func PrepareDraft(t *model.Template) {
	t.Title = strings.TrimSpace(t.Title)
	for i := range t.Questions {
		q := &t.Questions[i]
		if strings.TrimSpace(q.ID) == "" {
			q.ID = model.GenerateUUID()
		}
		q.Position = i
		if q.Type.Valid() {
			q.ChangeType(q.Type)
		}
		if q.Options == nil {
			q.Options = []string{}
		}
	}
	if t.AccessPolicy.AccessType == "" {
		t.AccessPolicy.AccessType = model.AccessPublic
	}
	t.AccessPolicy = t.AccessPolicy.Normalize()
	t.Tags = model.NormalizeTags(t.Tags)
}

// ValidateTemplate 返回 *util.ValidationError；查询用户目录失败时返回 *util.TransportError
func ValidateTemplate(ctx context.Context, t *model.Template, dir UserDirectory) error {
	verr := &util.ValidationError{}

	if err := validate.Struct(toFields(t)); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range errs {
			verr.Add(fieldPath(fe.Namespace()), fe.Tag(), describe(fe))
		}
	}

	seen := make(map[string]int, len(t.Questions))
	for i := range t.Questions {
		q := &t.Questions[i]
		prefix := fmt.Sprintf("questions[%d]", i)

		if first, dup := seen[q.ID]; dup {
			verr.Add(prefix+".id", "unique", fmt.Sprintf("duplicates the id of questions[%d]", first))
		} else {
			seen[q.ID] = i
		}

		switch q.Type {
		case model.QuestionText:
		case model.QuestionNumber:
			if q.MinValue != nil && q.MaxValue != nil && *q.MinValue > *q.MaxValue {
				verr.Add(prefix+".maxValue", "bounds",
					fmt.Sprintf("minValue %d is greater than maxValue %d", *q.MinValue, *q.MaxValue))
			}
		case model.QuestionMultipleChoice, model.QuestionCheckbox:
			checkOptions(verr, prefix, q.Options)
		default:
			verr.Add(prefix+".questionType", "type", fmt.Sprintf("unknown question type %q", q.Type))
		}
	}

	if t.AccessPolicy.AccessType == model.AccessPrivate && len(t.AccessPolicy.AuthorizedUsers) > 0 {
		missing, err := dir.MissingUsers(ctx, t.AccessPolicy.AuthorizedUsers)
		if err != nil {
			return util.Transport("user directory lookup", err)
		}
		for _, id := range missing {
			verr.Add("accessPolicy.authorizedUsers", "exists", fmt.Sprintf("user %d does not exist", id))
		}
	}

	return verr.OrNil()
}

func checkOptions(verr *util.ValidationError, prefix string, options []string) {
	if len(options) == 0 {
		verr.Add(prefix+".options", "required", "choice questions need at least one option")
		return
	}
	seen := make(map[string]struct{}, len(options))
	for j, o := range options {
		field := fmt.Sprintf("%s.options[%d]", prefix, j)
		if strings.TrimSpace(o) == "" {
			verr.Add(field, "notblank", "option must not be empty")
			continue
		}
		if _, dup := seen[o]; dup {
			verr.Add(field, "unique", fmt.Sprintf("option %q is listed more than once", o))
			continue
		}
		seen[o] = struct{}{}
	}
}

func toFields(t *model.Template) templateFields {
	f := templateFields{
		Title:        t.Title,
		Category:     t.Category,
		AccessPolicy: accessFields{AccessType: string(t.AccessPolicy.AccessType)},
		Questions:    make([]questionFields, len(t.Questions)),
	}
	for i, q := range t.Questions {
		f.Questions[i] = questionFields{Text: q.Text}
	}
	return f
}

// fieldPath 去掉命名空间开头的结构体名
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}
