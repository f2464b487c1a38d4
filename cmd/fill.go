package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"formcraft_backend/internal/app"
	"formcraft_backend/internal/formsession"
	"formcraft_backend/internal/model"
	"formcraft_backend/internal/permission"
	"formcraft_backend/internal/util"
	"formcraft_backend/pkg/logger"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// skipOption 单选题不作答
const skipOption = "(跳过)"

var (
	fillEmail    string
	fillTemplate string
	fillForm     string
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill in a template or edit a submitted form from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (fillTemplate == "") == (fillForm == "") {
			return errors.New("exactly one of --template or --form is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// 日志只写文件，避免和交互提示混在一起
		logger.Init(cfg, "logs/fill.log", false)
		defer logger.Log.Sync()

		ctx := cmd.Context()
		db, rdb, err := app.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		services := app.NewServices(db, rdb, cfg)

		p := surveyPrompter{}
		password, err := p.Password(fmt.Sprintf("%s 的密码", fillEmail))
		if err != nil {
			return err
		}
		_, user, err := services.Auth.Login(ctx, fillEmail, password)
		if err != nil {
			return err
		}
		subject := &permission.Subject{UserID: user.ID, Role: user.Role}

		var sess *formsession.Session
		if fillForm != "" {
			detail, err := services.Form.Get(ctx, subject, fillForm)
			if err != nil {
				return err
			}
			if !detail.CanEdit {
				return util.ErrForbidden
			}
			sess = formsession.NewEdit(detail.Template, detail.Form)
			if err := sess.ToggleEdit(); err != nil {
				return err
			}
		} else {
			detail, err := services.Template.Get(ctx, subject, fillTemplate)
			if err != nil {
				return err
			}
			if !detail.Permissions.CanAnswer {
				return util.ErrForbidden
			}
			sess = formsession.NewCreate(detail.Template)
		}

		form, err := runFill(ctx, sess, services.Form.SessionStore(subject), p)
		if err != nil {
			return err
		}
		if form != nil {
			fmt.Fprintf(os.Stdout, "已保存表单 %s\n", form.ID)
		}
		return nil
	},
}

func init() {
	fillCmd.Flags().StringVarP(&fillEmail, "email", "e", "", "登录邮箱")
	fillCmd.Flags().StringVarP(&fillTemplate, "template", "t", "", "要填写的模板ID")
	fillCmd.Flags().StringVar(&fillForm, "form", "", "要修改的表单ID")
	fillCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(fillCmd)
}

// prompter 终端交互，测试中替换为脚本
type prompter interface {
	Input(message, def string, validate survey.Validator) (string, error)
	Password(message string) (string, error)
	Select(message string, options []string, def string) (string, error)
	MultiSelect(message string, options, defaults []string) ([]string, error)
	Confirm(message string) (bool, error)
}

// runFill 逐题提问后提交；提交失败时答案保留，可以重试。用户放弃时返回 nil 表单。
func runFill(ctx context.Context, sess *formsession.Session, store formsession.Store, p prompter) (*model.ResponseForm, error) {
	tpl := sess.Template()
	fmt.Fprintf(os.Stdout, "%s\n", tpl.Title)
	if text := tpl.Description.PlainText(); text != "" {
		fmt.Fprintf(os.Stdout, "%s\n\n", text)
	}

	for i := range tpl.Questions {
		if err := ask(sess, &tpl.Questions[i], p); err != nil {
			return nil, err
		}
	}

	for {
		ok, err := p.Confirm("提交表单？")
		if err != nil || !ok {
			return nil, err
		}
		form, err := sess.Submit(ctx, store)
		if err == nil {
			return form, nil
		}
		logger.Log.Warn("Submit failed", zap.Error(err))
		fmt.Fprintf(os.Stdout, "提交失败：%v\n", sess.LastError())
		if !util.IsRetryable(err) {
			return nil, err
		}
	}
}

func ask(sess *formsession.Session, q *model.Question, p prompter) error {
	current, _ := sess.Answer(q.ID)

	switch q.Type {
	case model.QuestionText:
		value, err := p.Input(q.Text, current.Value, nil)
		if err != nil {
			return err
		}
		return sess.SetText(q.ID, value)

	case model.QuestionNumber:
		value, err := p.Input(q.Text, current.Value, numberValidator(q))
		if err != nil {
			return err
		}
		return sess.SetRaw(q.ID, value)

	case model.QuestionMultipleChoice:
		options := append([]string{skipOption}, q.Options...)
		// 已保存的答案可能指向被删除的选项，survey 要求默认值必须在选项中
		def := skipOption
		if q.HasOption(current.Value) {
			def = current.Value
		}
		value, err := p.Select(q.Text, options, def)
		if err != nil {
			return err
		}
		if value == skipOption {
			value = ""
		}
		return sess.SetText(q.ID, value)

	case model.QuestionCheckbox:
		defaults := make([]string, 0, len(current.Values))
		for _, v := range current.Values {
			if q.HasOption(v) {
				defaults = append(defaults, v)
			}
		}
		chosen, err := p.MultiSelect(q.Text, q.Options, defaults)
		if err != nil {
			return err
		}
		// 只切换与当前答案不一致的选项
		want := make(map[string]bool, len(chosen))
		for _, c := range chosen {
			want[c] = true
		}
		have := make(map[string]bool, len(current.Values))
		for _, v := range current.Values {
			have[v] = true
		}
		for _, option := range q.Options {
			if want[option] != have[option] {
				if err := sess.ToggleChoice(q.ID, option); err != nil {
					return err
				}
			}
		}
		// 不再存在的选项直接去掉
		for _, v := range current.Values {
			if !q.HasOption(v) {
				if err := sess.ToggleChoice(q.ID, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func numberValidator(q *model.Question) survey.Validator {
	return func(ans interface{}) error {
		s, _ := ans.(string)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("请输入整数")
		}
		if q.MinValue != nil && n < *q.MinValue {
			return fmt.Errorf("不能小于 %d", *q.MinValue)
		}
		if q.MaxValue != nil && n > *q.MaxValue {
			return fmt.Errorf("不能大于 %d", *q.MaxValue)
		}
		return nil
	}
}

type surveyPrompter struct{}

func (surveyPrompter) Input(message, def string, validate survey.Validator) (string, error) {
	var out string
	var opts []survey.AskOpt
	if validate != nil {
		opts = append(opts, survey.WithValidator(validate))
	}
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &out, opts...)
	return out, translateSurveyErr(err)
}

func (surveyPrompter) Password(message string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Password{Message: message}, &out, survey.WithValidator(survey.Required))
	return out, translateSurveyErr(err)
}

func (surveyPrompter) Select(message string, options []string, def string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Select{Message: message, Options: options, Default: def}, &out)
	return out, translateSurveyErr(err)
}

func (surveyPrompter) MultiSelect(message string, options, defaults []string) ([]string, error) {
	var out []string
	prompt := &survey.MultiSelect{Message: message, Options: options}
	if len(defaults) > 0 {
		prompt.Default = defaults
	}
	err := survey.AskOne(prompt, &out)
	return out, translateSurveyErr(err)
}

func (surveyPrompter) Confirm(message string) (bool, error) {
	out := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: true}, &out)
	return out, translateSurveyErr(err)
}

var errAborted = errors.New("aborted")

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
