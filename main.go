// @title FormCraft 后端 API
// @version 1.0
// @description 问卷模板的创建、共享与表单收集服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import "formcraft_backend/cmd"

func main() {
	cmd.Execute()
}
