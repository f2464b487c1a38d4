package controller

import (
	"strings"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/permission"
	"formcraft_backend/internal/repository"
	"formcraft_backend/internal/richtext"
	"formcraft_backend/internal/service"
	"formcraft_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TemplateController struct {
	TemplateService *service.TemplateService
	StorageService  *service.StorageService
}

func NewTemplateController(templateService *service.TemplateService, storageService *service.StorageService) *TemplateController {
	return &TemplateController{
		TemplateService: templateService,
		StorageService:  storageService,
	}
}

// TemplateRequest 创建与整体更新共用的请求体；description 为富文本文档的传输字符串
// swagger:model TemplateRequest
type TemplateRequest struct {
	Title        string             `json:"title"`
	Category     string             `json:"category"`
	Description  string             `json:"description"`
	Questions    []model.Question   `json:"questions"`
	Tags         []model.Tag        `json:"tags"`
	Picture      string             `json:"picture"`
	AccessPolicy model.AccessPolicy `json:"accessPolicy"`
}

// toTemplate 描述解码失败直接返回 DecodeError，不会退化成空文档
func (r *TemplateRequest) toTemplate() (*model.Template, error) {
	doc := richtext.Empty()
	if strings.TrimSpace(r.Description) != "" {
		var err error
		if doc, err = richtext.Decode(r.Description); err != nil {
			return nil, err
		}
	}
	return &model.Template{
		Title:        r.Title,
		Category:     r.Category,
		Description:  doc,
		Questions:    r.Questions,
		Tags:         r.Tags,
		Picture:      r.Picture,
		AccessPolicy: r.AccessPolicy,
	}, nil
}

func subject(ctx *gin.Context) *permission.Subject {
	return permission.FromIdentity(util.GetIdentity(ctx))
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ListTemplates godoc
// @Summary 模板列表
// @Description 只返回当前用户可查看的模板。分类任一匹配，标签需全部匹配。
// @Tags 模板
// @Produce  json
// @Param   category query []string false "分类，可重复或逗号分隔"
// @Param   tag      query []string false "标签名，可重复或逗号分隔"
// @Param   mine     query bool     false "只看自己创建的"
// @Param   grouped  query bool     false "按分类分组返回"
// @Success 200 {object} util.Response{data=[]model.Template}
// @Router /api/templates [get]
func (c *TemplateController) ListTemplates(ctx *gin.Context) {
	filter := repository.TemplateFilter{
		Categories: splitList(ctx.QueryArray("category")),
		Tags:       splitList(ctx.QueryArray("tag")),
	}
	sub := subject(ctx)
	if ctx.Query("mine") == "true" {
		if sub == nil {
			util.Unauthorized(ctx)
			return
		}
		filter.CreatedBy = sub.UserID
	}

	templates, err := c.TemplateService.List(ctx.Request.Context(), sub, filter)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	if ctx.Query("grouped") == "true" {
		util.Success(ctx, service.GroupByCategory(templates))
		return
	}
	util.Success(ctx, templates)
}

// ListTags godoc
// @Summary 所有已使用的标签
// @Tags 模板
// @Produce  json
// @Success 200 {object} util.Response{data=[]string}
// @Router /api/templates/tags [get]
func (c *TemplateController) ListTags(ctx *gin.Context) {
	names, err := c.TemplateService.TagNames(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"tags": names, "categories": model.Categories})
}

// GetTemplate godoc
// @Summary 模板详情
// @Description 返回模板、渲染后的描述以及当前用户的权限
// @Tags 模板
// @Produce  json
// @Param   id path string true "模板ID"
// @Success 200 {object} util.Response{data=service.TemplateDetail}
// @Failure 403 {object} util.Response "无权查看"
// @Failure 404 {object} util.Response "模板不存在"
// @Failure 422 {object} util.Response "描述文档损坏"
// @Router /api/templates/{id} [get]
func (c *TemplateController) GetTemplate(ctx *gin.Context) {
	detail, err := c.TemplateService.Get(ctx.Request.Context(), subject(ctx), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// CreateTemplate godoc
// @Summary 创建模板
// @Description 草稿全部校验通过后才会创建，违规项一次性返回
// @Tags 模板
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body TemplateRequest true "模板"
// @Success 201 {object} util.Response{data=model.Template}
// @Failure 400 {object} util.Response{data=util.ErrorBody} "校验失败"
// @Failure 422 {object} util.Response{data=util.ErrorBody} "描述文档损坏"
// @Router /api/templates [post]
func (c *TemplateController) CreateTemplate(ctx *gin.Context) {
	var req TemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	draft, err := req.toTemplate()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	tpl, err := c.TemplateService.Create(ctx.Request.Context(), subject(ctx), draft)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, tpl)
}

// UpdateTemplate godoc
// @Summary 整体更新模板
// @Description 请求体是完整的模板，题目和标签会整体替换；只有创建者或管理员可以修改
// @Tags 模板
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id   path string          true "模板ID"
// @Param   body body TemplateRequest true "模板"
// @Success 200 {object} util.Response{data=model.Template}
// @Failure 400 {object} util.Response{data=util.ErrorBody} "校验失败"
// @Failure 403 {object} util.Response "无权修改"
// @Router /api/templates/{id} [put]
func (c *TemplateController) UpdateTemplate(ctx *gin.Context) {
	var req TemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	full, err := req.toTemplate()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	tpl, err := c.TemplateService.Update(ctx.Request.Context(), subject(ctx), ctx.Param("id"), full)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, tpl)
}

// DeleteTemplate godoc
// @Summary 删除模板
// @Tags 模板
// @Security ApiKeyAuth
// @Param   id path string true "模板ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "无权删除"
// @Router /api/templates/{id} [delete]
func (c *TemplateController) DeleteTemplate(ctx *gin.Context) {
	if err := c.TemplateService.Delete(ctx.Request.Context(), subject(ctx), ctx.Param("id")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadImage godoc
// @Summary 上传模板配图
// @Description 单个文件，只接受 jpeg/png/gif
// @Tags 模板
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "图片"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "文件不合法"
// @Router /api/uploads/images [post]
func (c *TemplateController) UploadImage(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		util.BadRequest(ctx, "multipart form expected")
		return
	}
	files := form.File["file"]
	if len(files) != 1 {
		util.BadRequest(ctx, "exactly one file is required")
		return
	}

	f, err := files[0].Open()
	if err != nil {
		util.BadRequest(ctx, "could not read file")
		return
	}
	defer f.Close()

	url, err := c.StorageService.UploadImage(ctx.Request.Context(), f)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"url": url})
}
