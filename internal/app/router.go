package app

import (
	"net/http"

	"formcraft_backend/docs"
	"formcraft_backend/internal/middleware"
	"formcraft_backend/internal/model"
	"formcraft_backend/internal/util"
	"formcraft_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	verifier := a.Services.Auth

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	// 2. 模板浏览：可选认证，游客只能看到公开模板
	browse := router.Group("/api/templates")
	browse.Use(middleware.TryAuthMiddleware(verifier), middleware.ActivityMiddleware(repos.user))
	{
		browse.GET("", c.template.ListTemplates)
		browse.GET("/tags", c.template.ListTags)
		browse.GET("/:id", c.template.GetTemplate)
	}

	// 3. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(verifier), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/auth/me", c.auth.Me)

		// 模板
		authGroup.POST("/templates", c.template.CreateTemplate)
		authGroup.PUT("/templates/:id", c.template.UpdateTemplate)
		authGroup.DELETE("/templates/:id", c.template.DeleteTemplate)
		authGroup.POST("/uploads/images", c.template.UploadImage)

		// 表单
		authGroup.POST("/templates/:id/forms", c.form.SubmitForm)
		authGroup.GET("/templates/:id/forms", c.form.ListTemplateForms)
		authGroup.GET("/templates/:id/statistics", c.form.TemplateStatistics)
		authGroup.GET("/forms/:id", c.form.GetForm)
		authGroup.PUT("/forms/:id", c.form.UpdateForm)
		authGroup.DELETE("/forms/:id", c.form.DeleteForm)

		// 用户
		authGroup.GET("/users", c.user.ListUsers)
		authGroup.PUT("/users/me", c.user.UpdateProfile)
		authGroup.GET("/users/:id/forms", c.form.ListUserForms)
	}

	// 4. 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(verifier), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/users/block", c.user.BlockUsers)
		admin.POST("/users/unblock", c.user.UnblockUsers)
		admin.POST("/users/delete", c.user.DeleteUsers)
		admin.POST("/users/promote", c.user.PromoteUser)
		admin.POST("/users/demote", c.user.DemoteUser)
	}

	router.NoRoute(func(ctx *gin.Context) {
		util.Error(ctx, http.StatusNotFound, "route not found")
	})
}
