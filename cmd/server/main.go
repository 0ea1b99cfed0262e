package main

import "taskhub/internal/app"

// @title           TaskHub API
// @version         1.0
// @description     Team task management: workspaces, projects, task lifecycle, daily reports.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
