package controller

import (
	"strconv"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/service"
	"formcraft_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FormController struct {
	FormService *service.FormService
}

func NewFormController(formService *service.FormService) *FormController {
	return &FormController{FormService: formService}
}

// AnswersRequest 提交或整体替换答案
// swagger:model AnswersRequest
type AnswersRequest struct {
	Answers model.Answers `json:"answers"`
}

// SubmitForm godoc
// @Summary 提交表单
// @Description 每次提交生成一份新表单，允许只回答部分题目
// @Tags 表单
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id   path string         true "模板ID"
// @Param   body body AnswersRequest true "答案"
// @Success 201 {object} util.Response{data=model.ResponseForm}
// @Failure 400 {object} util.Response{data=util.ErrorBody} "答案与题目不匹配"
// @Failure 403 {object} util.Response "无权作答"
// @Failure 503 {object} util.Response{data=util.ErrorBody} "暂时不可用，可重试"
// @Router /api/templates/{id}/forms [post]
func (c *FormController) SubmitForm(ctx *gin.Context) {
	var req AnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	form, err := c.FormService.Create(ctx.Request.Context(), subject(ctx), ctx.Param("id"), req.Answers)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, form)
}

// ListTemplateForms godoc
// @Summary 模板下的所有表单
// @Tags 表单
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "模板ID"
// @Success 200 {object} util.Response{data=[]model.ResponseForm}
// @Failure 403 {object} util.Response "只有创建者或管理员可以查看"
// @Router /api/templates/{id}/forms [get]
func (c *FormController) ListTemplateForms(ctx *gin.Context) {
	forms, err := c.FormService.ListByTemplate(ctx.Request.Context(), subject(ctx), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, forms)
}

// TemplateStatistics godoc
// @Summary 模板统计
// @Tags 表单
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "模板ID"
// @Success 200 {object} util.Response{data=service.TemplateStatistics}
// @Failure 403 {object} util.Response "只有创建者或管理员可以查看"
// @Router /api/templates/{id}/statistics [get]
func (c *FormController) TemplateStatistics(ctx *gin.Context) {
	stats, err := c.FormService.Statistics(ctx.Request.Context(), subject(ctx), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// GetForm godoc
// @Summary 表单详情
// @Description 提交者、管理员和模板创建者可以查看
// @Tags 表单
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response{data=service.FormDetail}
// @Failure 404 {object} util.Response
// @Router /api/forms/{id} [get]
func (c *FormController) GetForm(ctx *gin.Context) {
	detail, err := c.FormService.Get(ctx.Request.Context(), subject(ctx), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// UpdateForm godoc
// @Summary 整体替换表单答案
// @Tags 表单
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id   path string         true "表单ID"
// @Param   body body AnswersRequest true "完整的答案"
// @Success 200 {object} util.Response{data=model.ResponseForm}
// @Failure 403 {object} util.Response "只有提交者或管理员可以修改"
// @Router /api/forms/{id} [put]
func (c *FormController) UpdateForm(ctx *gin.Context) {
	var req AnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	form, err := c.FormService.Update(ctx.Request.Context(), subject(ctx), ctx.Param("id"), req.Answers)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, form)
}

// DeleteForm godoc
// @Summary 删除表单
// @Tags 表单
// @Security ApiKeyAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response
// @Router /api/forms/{id} [delete]
func (c *FormController) DeleteForm(ctx *gin.Context) {
	if err := c.FormService.Delete(ctx.Request.Context(), subject(ctx), ctx.Param("id")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListUserForms godoc
// @Summary 某个用户提交的表单
// @Description id 为 me 时表示当前用户；查看他人需要管理员
// @Tags 表单
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "用户ID或me"
// @Success 200 {object} util.Response{data=[]model.ResponseForm}
// @Router /api/users/{id}/forms [get]
func (c *FormController) ListUserForms(ctx *gin.Context) {
	sub := subject(ctx)
	userID := sub.UserID
	if raw := ctx.Param("id"); raw != "me" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			util.BadRequest(ctx, "invalid user id")
			return
		}
		userID = uint(id)
	}

	forms, err := c.FormService.ListByUser(ctx.Request.Context(), sub, userID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, forms)
}
