package controller

import (
	"formcraft_backend/internal/service"
	"formcraft_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// IDsRequest 批量操作，与管理页面一致
type IDsRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// IDRequest 单个用户的角色变更
type IDRequest struct {
	ID uint `json:"id" binding:"required"`
}

// ProfileRequest 修改个人资料
type ProfileRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Theme string `json:"theme" binding:"omitempty,oneof=light dark"`
}

// ListUsers godoc
// @Summary 用户目录
// @Description 私有模板选择授权用户时使用
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.DirectoryEntry}
// @Router /api/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	entries, err := c.UserService.List(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// UpdateProfile godoc
// @Summary 修改个人资料
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body ProfileRequest true "资料"
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/users/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	var req ProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Theme == "" {
		req.Theme = "light"
	}

	user, err := c.UserService.UpdateProfile(ctx.Request.Context(), util.GetIdentity(ctx).UserID, req.Name, req.Theme)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

func (c *UserController) batch(ctx *gin.Context, op func(*gin.Context, []uint) (int64, error)) {
	var req IDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	n, err := op(ctx, req.IDs)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"affected": n})
}

// BlockUsers godoc
// @Summary 封禁用户
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IDsRequest true "用户ID列表"
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/users/block [post]
func (c *UserController) BlockUsers(ctx *gin.Context) {
	c.batch(ctx, func(ctx *gin.Context, ids []uint) (int64, error) {
		return c.UserService.Block(ctx.Request.Context(), ids)
	})
}

// UnblockUsers godoc
// @Summary 解除封禁
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IDsRequest true "用户ID列表"
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/users/unblock [post]
func (c *UserController) UnblockUsers(ctx *gin.Context) {
	c.batch(ctx, func(ctx *gin.Context, ids []uint) (int64, error) {
		return c.UserService.Unblock(ctx.Request.Context(), ids)
	})
}

// DeleteUsers godoc
// @Summary 删除用户
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IDsRequest true "用户ID列表"
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/users/delete [post]
func (c *UserController) DeleteUsers(ctx *gin.Context) {
	c.batch(ctx, func(ctx *gin.Context, ids []uint) (int64, error) {
		return c.UserService.Delete(ctx.Request.Context(), ids)
	})
}

// PromoteUser godoc
// @Summary 设为管理员
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IDRequest true "用户ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/promote [post]
func (c *UserController) PromoteUser(ctx *gin.Context) {
	var req IDRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.UserService.Promote(ctx.Request.Context(), req.ID); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// DemoteUser godoc
// @Summary 取消管理员
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IDRequest true "用户ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/demote [post]
func (c *UserController) DemoteUser(ctx *gin.Context) {
	var req IDRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.UserService.Demote(ctx.Request.Context(), req.ID); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
