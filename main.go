package main

import (
	"duet-api/core/logger"
	"duet-api/core/server"
)

// @title Duet API
// @version 1.0
// @description Pair queueing and event orchestration backend for the Duet matching app

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
